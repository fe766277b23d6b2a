package api

import (
	"github.com/gin-gonic/gin"                                // Gin web framework
	"github.com/prometheus/client_golang/prometheus/promhttp" // Metrics endpoint
	"github.com/redis/go-redis/v9"                            // Redis client

	"wallet_portfolio/internal/identity"   // Find-or-create by address
	"wallet_portfolio/internal/middleware" // JWT and admin guards
	"wallet_portfolio/internal/portfolio"  // Sessions
	"wallet_portfolio/internal/recorder"   // Transaction recording
	"wallet_portfolio/internal/trading"    // Payout table
)

// Deps are the components the HTTP surface is wired to
type Deps struct {
	Resolver     *identity.Resolver       // User identity
	Users        UserLister               // User listings
	Admins       middleware.UserFinder    // Role lookup for admin routes
	Transactions TransactionLister        // Admin transaction listings
	Recorder     *recorder.Recorder       // Transaction recording and history
	Balances     portfolio.BalanceFetcher // Withdrawal balance check
	Prices       portfolio.PriceFetcher   // Price snapshots
	Sessions     *portfolio.Manager       // Connected sessions
	Trading      *trading.Table           // Payout table and strategies
	Redis        *redis.Client            // Listing caches, may be nil
	JWTSecret    string                   // Session token key
}

// RegisterRoutes mounts every route on r
func RegisterRoutes(r *gin.Engine, d Deps) {
	auth := middleware.JWTAuthMiddleware(d.JWTSecret) // Session token guard

	// User routes
	users := r.Group("/users")
	users.POST("/wallet-auth", WalletAuthHandler(d.Resolver, d.Sessions, d.JWTSecret)) // Connect a wallet
	users.GET("", GetUsersHandler(d.Resolver, d.Users))                                // Lookup or list
	users.PUT("", auth, UpdateUserHandler(d.Resolver, d.Sessions))                     // Update profile
	users.POST("/link", auth, LinkAddressHandler(d.Resolver, d.Sessions))              // Attach a bitcoin address
	users.DELETE("/session", auth, DisconnectHandler(d.Sessions))                      // Disconnect

	// Transaction routes (protected by JWT)
	txs := r.Group("/transactions", auth)
	txs.GET("", ListTransactionsHandler(d.Resolver, d.Recorder))                           // History
	txs.POST("", CreateTransactionHandler(d.Resolver, d.Recorder, d.Balances, d.Sessions)) // Record a transfer

	// Portfolio and market data
	r.GET("/portfolio", auth, PortfolioHandler(d.Resolver, d.Sessions)) // Valued portfolio
	r.GET("/prices", PricesHandler(d.Prices))                           // USD prices
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))                    // Prometheus scrape

	// Trading presentation tables
	tradingGroup := r.Group("/trading")
	tradingGroup.GET("/payouts", PayoutsHandler(d.Trading))       // Payout tiers
	tradingGroup.GET("/strategies", StrategiesHandler(d.Trading)) // Strategy catalog
	tradingGroup.GET("/quote", QuoteHandler(d.Trading))           // Potential return

	// Admin routes (protected, admin only)
	adminGroup := r.Group("/admin", auth, middleware.AdminOnlyMiddleware(d.Admins))
	adminGroup.GET("/users", AdminUsersHandler(d.Users, d.Redis))                      // List users
	adminGroup.GET("/transactions", AdminTransactionsHandler(d.Transactions, d.Redis)) // List transactions
}
