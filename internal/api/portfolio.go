package api

import (
	"errors"   // Error kind matching
	"net/http" // HTTP status codes

	"github.com/gin-gonic/gin" // Gin web framework

	"wallet_portfolio/internal/assets"     // Asset list parsing
	"wallet_portfolio/internal/domain"     // Error kinds
	"wallet_portfolio/internal/identity"   // User lookup
	"wallet_portfolio/internal/middleware" // Authenticated user id
	"wallet_portfolio/internal/portfolio"  // Sessions and valuation
)

// PortfolioHandler refreshes the caller's session and returns its view.
// A session lost to a restart is reopened from the stored user.
func PortfolioHandler(resolver *identity.Resolver, sessions *portfolio.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		userID := middleware.UserID(c) // Authenticated user
		if _, ok := sessions.Get(userID); !ok {
			user, err := resolver.Get(ctx, userID)
			if err != nil {
				fail(c, err)
				return
			}
			sessions.Connect(user) // Reopen
		}
		view, err := sessions.Refresh(ctx, userID) // Balances and prices in parallel
		if err != nil {
			fail(c, err)
			return
		}
		success(c, http.StatusOK, gin.H{"portfolio": view})
	}
}

// PricesHandler returns USD prices for ?assets=ETH,BTC (all when empty).
// When the source is down the last snapshot is served with stale set.
func PricesHandler(prices portfolio.PriceFetcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		symbols := assets.ParseList(c.Query("assets")) // Requested symbols
		snap, err := prices.FetchPrices(c.Request.Context(), symbols)
		if err != nil && !(errors.Is(err, domain.ErrSourceUnavailable) && len(snap.Prices) > 0) {
			fail(c, err)
			return
		}
		success(c, http.StatusOK, gin.H{"prices": snap.Prices, "stale": snap.Stale, "seq": snap.Seq})
	}
}
