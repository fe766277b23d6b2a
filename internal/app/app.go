// Package app builds the shared components used by the binaries.
package app

import (
	"context" // Redis ping
	"fmt"     // Error wrapping

	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging

	"wallet_portfolio/internal/assets"  // Asset registry
	"wallet_portfolio/internal/balance" // Balance aggregation
	"wallet_portfolio/internal/chain"   // Chain clients
	"wallet_portfolio/internal/config"  // Configuration
	"wallet_portfolio/internal/domain"  // Source kinds
	"wallet_portfolio/internal/events"  // Event publishing
	"wallet_portfolio/internal/pricing" // Price service
)

// SetupLogger configures the global logrus logger
func SetupLogger(cfg *config.Config) {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true}) // Full timestamps
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel // Fall back on unknown level names
	}
	logrus.SetLevel(level)
}

// NewRedis connects to Redis and checks the connection
func NewRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return rdb, nil
}

// NewAggregator wires the EVM and bitcoin clients into a balance aggregator
func NewAggregator(cfg *config.Config, registry *assets.Registry) *balance.Aggregator {
	evm := chain.NewEVMClient(cfg.EVMRPCURL, cfg.ExternalTimeout)     // Native and token balances
	btc := chain.NewEsploraClient(cfg.BTCAPIURL, cfg.ExternalTimeout) // Bitcoin balances
	return balance.NewAggregator(registry, map[string]balance.Source{
		domain.SourceNative:  evm,
		domain.SourceERC20:   evm,
		domain.SourceEsplora: btc,
	}, cfg.ExternalTimeout)
}

// NewPriceService wires the market-data client; rdb may be nil
func NewPriceService(cfg *config.Config, registry *assets.Registry, rdb *redis.Client) *pricing.Service {
	source := pricing.NewCoinGecko(cfg.PriceAPIURL, cfg.PriceAPIKey, cfg.ExternalTimeout)
	var store pricing.SnapshotStore
	if rdb != nil {
		store = pricing.NewRedisStore(rdb, cfg.PriceCacheTTL) // Survives restarts
	}
	return pricing.NewService(registry, source, store, cfg.ExternalTimeout)
}

// NewPublisher connects to NATS, or returns a no-op publisher without a URL
func NewPublisher(cfg *config.Config) (events.Publisher, error) {
	if cfg.NATSURL == "" {
		logrus.Info("NATS_URL not set, transaction events disabled")
		return events.Noop{}, nil
	}
	return events.Connect(cfg.NATSURL)
}
