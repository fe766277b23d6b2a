package api

import (
	"net/http" // HTTP status codes
	"strconv"  // Query parsing

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Stake amounts

	"wallet_portfolio/internal/trading" // Payout table and strategies
)

// PayoutsHandler returns the payout tiers
func PayoutsHandler(table *trading.Table) gin.HandlerFunc {
	return func(c *gin.Context) {
		success(c, http.StatusOK, gin.H{"payouts": table.Payouts, "default_percent": table.DefaultPercent})
	}
}

// StrategiesHandler returns the strategy catalog
func StrategiesHandler(table *trading.Table) gin.HandlerFunc {
	return func(c *gin.Context) {
		success(c, http.StatusOK, gin.H{"strategies": table.Strategies})
	}
}

// QuoteHandler prices a hypothetical trade from ?amount= and ?timeframe= (seconds)
func QuoteHandler(table *trading.Table) gin.HandlerFunc {
	return func(c *gin.Context) {
		stake, err := decimal.NewFromString(c.Query("amount"))
		if err != nil || !stake.IsPositive() {
			badRequest(c, "Please enter a valid amount")
			return
		}
		seconds, err := strconv.Atoi(c.DefaultQuery("timeframe", "60"))
		if err != nil || seconds <= 0 {
			badRequest(c, "Timeframe must be a positive number of seconds")
			return
		}
		success(c, http.StatusOK, gin.H{
			"amount":           stake,                                 // Stake
			"timeframe":        seconds,                               // Seconds
			"percent":          table.PayoutFor(seconds),              // Payout tier
			"potential_return": table.PotentialReturn(stake, seconds), // Paid on a win
		})
	}
}
