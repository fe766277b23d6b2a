package main

import (
	"github.com/sirupsen/logrus" // Logrus for structured logging

	"wallet_portfolio/internal/app"    // Logger setup
	"wallet_portfolio/internal/config" // Custom import path (Config)
	"wallet_portfolio/internal/db"     // Custom import path (Database)
)

// Main entry point for migration
func main() {
	cfg := config.LoadConfig() // Load configuration
	app.SetupLogger(cfg)       // Setup logger

	gdb, err := db.Open(cfg) // Connect with the configured driver
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		logrus.Fatalf("migration failed: %v", err)
	}
}
