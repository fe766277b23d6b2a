package main

import (
	"context"   // Shutdown and background contexts
	"errors"    // Server close detection
	"net/http"  // HTTP server
	"os"        // Exit codes
	"os/signal" // Shutdown signals
	"syscall"   // Signal numbers
	"time"      // Timeouts

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging

	"wallet_portfolio/internal/api"       // HTTP handlers
	"wallet_portfolio/internal/app"       // Shared component wiring
	"wallet_portfolio/internal/assets"    // Asset registry
	"wallet_portfolio/internal/config"    // Configuration
	"wallet_portfolio/internal/db"        // Database connection
	"wallet_portfolio/internal/identity"  // User identity resolver
	"wallet_portfolio/internal/portfolio" // Sessions and refresh loop
	"wallet_portfolio/internal/recorder"  // Transaction recorder
	"wallet_portfolio/internal/store"     // gorm stores
	"wallet_portfolio/internal/trading"   // Payout table
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration
	app.SetupLogger(cfg)       // Setup logger
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("invalid configuration: %v", err)
	}

	// Connect to the database
	gdb, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// Setup Redis client
	rdb, err := app.NewRedis(context.Background(), cfg)
	if err != nil {
		logrus.Fatalf("%v", err)
	}
	defer rdb.Close()

	// Message bus for recorded transactions
	publisher, err := app.NewPublisher(cfg)
	if err != nil {
		logrus.Fatalf("%v", err)
	}
	defer publisher.Close()

	// Static tables
	registry, err := assets.Load(cfg.AssetsFile)
	if err != nil {
		logrus.Fatalf("failed to load assets: %v", err)
	}
	table, err := trading.Load(cfg.TradingFile)
	if err != nil {
		logrus.Fatalf("failed to load trading table: %v", err)
	}

	// Core components
	users := store.NewUserStore(gdb)                                                  // User persistence
	txs := store.NewTransactionStore(gdb)                                             // Transaction persistence
	balances := app.NewAggregator(cfg, registry)                                      // Chain balances
	prices := app.NewPriceService(cfg, registry, rdb)                                 // USD prices
	sessions := portfolio.NewManager(balances, prices, nil)                           // Connected wallets
	rec := recorder.New(registry, users, txs, rdb, publisher, cfg.PersistenceTimeout) // Transaction recorder

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin
	r := gin.Default() // Gin router instance

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	api.RegisterRoutes(r, api.Deps{
		Resolver:     identity.NewResolver(users, rdb, cfg.PersistenceTimeout), // Find-or-create
		Users:        users,                                                    // User listings
		Admins:       users,                                                    // Role checks
		Transactions: txs,                                                      // Admin listings
		Recorder:     rec,                                                      // Record and history
		Balances:     balances,                                                 // Withdrawal checks
		Prices:       prices,                                                   // Price snapshots
		Sessions:     sessions,                                                 // Connected sessions
		Trading:      table,                                                    // Payout table
		Redis:        rdb,                                                      // Listing caches
		JWTSecret:    cfg.JWTSecret,                                            // Token key
	})

	// Periodic refresh of open sessions
	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go sessions.Run(ctx, cfg.RefreshInterval)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort, // Listen address
		Handler:           r,                 // Gin router
		ReadHeaderTimeout: 10 * time.Second,  // Slow client guard
	}
	go func() {
		logrus.Info("Server running on " + cfg.AppPort) // Log server start
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server error: %v", err)
		}
	}()

	// Wait for a shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down...")
	stop() // Stop the refresh loop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("server shutdown: %v", err)
	}
	logrus.Info("Server stopped")
}
