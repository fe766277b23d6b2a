package db

import (
	"wallet_portfolio/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus"

	"gorm.io/gorm" // GORM ORM library
)

// Migrate performs automatic migration for the database schema
func Migrate(gdb *gorm.DB) error {
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	if err := gdb.AutoMigrate(&domain.User{}, &domain.Transaction{}); err != nil {
		logrus.WithError(err).Error("migration failed") // Log migration failure
		return err
	}
	logrus.Info("Migration completed.") // Log successful migration
	return nil
}
