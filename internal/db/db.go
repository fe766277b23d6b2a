package db

import (
	"fmt"                              // Error wrapping
	"time"                             // Pool lifetimes
	"wallet_portfolio/internal/config" // Application configuration

	"gorm.io/driver/mysql"    // MySQL driver for GORM
	"gorm.io/driver/postgres" // Postgres driver for GORM
	"gorm.io/gorm"            // GORM ORM library
	"gorm.io/gorm/logger"     // GORM logger levels
)

// DSN builds the data source name for the configured driver
func DSN(cfg *config.Config) string {
	if cfg.DBDriver == "postgres" {
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
			cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)
	}
	return cfg.DBUser + ":" + cfg.DBPassword + "@tcp(" + cfg.DBHost + ":" + cfg.DBPort + ")/" + cfg.DBName + "?parseTime=true"
}

// Dialector picks the GORM dialector for the configured driver
func Dialector(cfg *config.Config) gorm.Dialector {
	if cfg.DBDriver == "postgres" {
		return postgres.Open(DSN(cfg)) // Postgres connection
	}
	return mysql.Open(DSN(cfg)) // MySQL connection (default)
}

// Options returns the GORM config shared by every connection
func Options() *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Error), // Only log errors, not every SQL query
		TranslateError: true,                                 // Surface unique violations as gorm.ErrDuplicatedKey
		NowFunc: func() time.Time {
			return time.Now().UTC() // Store timestamps in UTC
		},
	}
}

// Open connects to the database and configures the connection pool
func Open(cfg *config.Config) (*gorm.DB, error) {
	gdb, err := gorm.Open(Dialector(cfg), Options()) // Open a connection to the database
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := gdb.DB() // Underlying pool
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)           // Idle connections kept
	sqlDB.SetMaxOpenConns(50)           // Upper bound on open connections
	sqlDB.SetConnMaxLifetime(time.Hour) // Recycle connections hourly
	return gdb, nil
}
