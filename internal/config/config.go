package config

import (
	"errors"  // For validation errors
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"time"    // For durations

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort            string        // Application port
	DBDriver           string        // Database driver: mysql or postgres
	DBUser             string        // Database user
	DBPassword         string        // Database password
	DBHost             string        // Database host
	DBPort             string        // Database port
	DBName             string        // Database name
	JWTSecret          string        // JWT secret key
	RedisAddr          string        // Redis server address
	RedisPass          string        // Redis password
	RedisDB            int           // Redis database number
	IsProd             bool          // Is production environment
	LogLevel           string        // Logrus level name
	EVMRPCURL          string        // EVM JSON-RPC endpoint
	BTCAPIURL          string        // Esplora-compatible bitcoin API base URL
	PriceAPIURL        string        // Market-data API base URL
	PriceAPIKey        string        // Market-data API key (optional)
	NATSURL            string        // NATS server URL (optional)
	AssetsFile         string        // Asset registry override file (optional)
	TradingFile        string        // Trading table override file (optional)
	ExternalTimeout    time.Duration // Timeout for each chain/price call
	PersistenceTimeout time.Duration // Timeout for each database call
	RefreshInterval    time.Duration // Portfolio refresh tick
	PriceCacheTTL      time.Duration // How long the last price snapshot is kept in Redis
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	return &Config{
		AppPort:            getEnv("APP_PORT", "8080"),                                  // Application port
		DBDriver:           getEnv("DB_DRIVER", "mysql"),                                // Database driver
		DBUser:             os.Getenv("DB_USER"),                                        // Database user
		DBPassword:         os.Getenv("DB_PASSWORD"),                                    // Database password
		DBHost:             os.Getenv("DB_HOST"),                                        // Database host
		DBPort:             os.Getenv("DB_PORT"),                                        // Database port
		DBName:             os.Getenv("DB_NAME"),                                        // Database name
		JWTSecret:          os.Getenv("JWT_SECRET"),                                     // JWT secret key
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),                      // Redis server address
		RedisPass:          os.Getenv("REDIS_PASS"),                                     // Redis password
		RedisDB:            redisDB,                                                     // Redis database number
		IsProd:             os.Getenv("IS_PROD") == "true",                              // Is production environment
		LogLevel:           getEnv("LOG_LEVEL", "info"),                                 // Log level
		EVMRPCURL:          getEnv("EVM_RPC_URL", "https://cloudflare-eth.com"),         // EVM JSON-RPC endpoint
		BTCAPIURL:          getEnv("BTC_API_URL", "https://blockstream.info/api"),       // Bitcoin balance API
		PriceAPIURL:        getEnv("PRICE_API_URL", "https://api.coingecko.com/api/v3"), // Market-data API
		PriceAPIKey:        os.Getenv("PRICE_API_KEY"),                                  // Market-data API key
		NATSURL:            os.Getenv("NATS_URL"),                                       // NATS server URL
		AssetsFile:         os.Getenv("ASSETS_FILE"),                                    // Asset registry override
		TradingFile:        os.Getenv("TRADING_FILE"),                                   // Trading table override
		ExternalTimeout:    getDuration("EXTERNAL_TIMEOUT", 8*time.Second),              // External call timeout
		PersistenceTimeout: getDuration("PERSISTENCE_TIMEOUT", 5*time.Second),           // Database call timeout
		RefreshInterval:    getDuration("REFRESH_INTERVAL", 30*time.Second),             // Refresh tick
		PriceCacheTTL:      getDuration("PRICE_CACHE_TTL", 24*time.Hour),                // Price snapshot TTL
	}
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.DBDriver != "mysql" && c.DBDriver != "postgres" {
		return errors.New("DB_DRIVER must be mysql or postgres")
	}
	if c.DBHost == "" || c.DBName == "" {
		return errors.New("DB_HOST and DB_NAME are required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.ExternalTimeout <= 0 || c.PersistenceTimeout <= 0 {
		return errors.New("timeouts must be positive")
	}
	if c.RefreshInterval <= 0 {
		return errors.New("REFRESH_INTERVAL must be positive")
	}
	return nil
}

// getEnv retrieves an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDuration parses a duration variable such as "5s", falling back to the default
func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue // Keep the default on malformed input
	}
	return d
}
