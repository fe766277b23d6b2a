package api

import (
	"context"  // Transaction listing
	"net/http" // HTTP status codes
	"strconv"  // Page numbers in cache keys

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client

	"wallet_portfolio/internal/domain" // Domain models
	"wallet_portfolio/internal/store"  // Listing filters
	"wallet_portfolio/internal/utils"  // Cache helpers
)

// TransactionLister pages through transactions
type TransactionLister interface {
	List(ctx context.Context, f store.TransactionFilter, offset, limit int) ([]domain.Transaction, int64, error)
}

// adminUsersPage is the cached shape of an admin user listing
type adminUsersPage struct {
	Users      []UserResponse `json:"users"`       // List of users
	Page       int            `json:"page"`        // Current page
	PageSize   int            `json:"page_size"`   // Page size
	Total      int64          `json:"total"`       // Total number of users
	TotalPages int            `json:"total_pages"` // Total pages
}

// adminTxPage is the cached shape of an admin transaction listing
type adminTxPage struct {
	Transactions []domain.Transaction `json:"transactions"` // List of transactions
	Page         int                  `json:"page"`         // Current page
	PageSize     int                  `json:"page_size"`    // Page size
	Total        int64                `json:"total"`        // Total number of transactions
	TotalPages   int                  `json:"total_pages"`  // Total pages
}

// AdminUsersHandler returns all users with their addresses and overrides
func AdminUsersHandler(users UserLister, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		page, pageSize, offset := pagination(c)
		cacheKey := utils.AdminUsersKey(page, pageSize) // Cache key based on pagination parameters

		var cached adminUsersPage
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			success(c, http.StatusOK, gin.H{
				"users":       cached.Users,      // List of users
				"page":        cached.Page,       // Current page
				"page_size":   cached.PageSize,   // Page size
				"total":       cached.Total,      // Total number of users
				"total_pages": cached.TotalPages, // Total pages
				"cached":      true,              // Indicate response is from cache
			})
			return
		}

		list, total, err := users.List(ctx, offset, pageSize) // Newest first
		if err != nil {
			fail(c, err)
			return
		}
		resp := adminUsersPage{
			Users:      make([]UserResponse, len(list)), // Users with display address
			Page:       page,                            // Current page
			PageSize:   pageSize,                        // Page size
			Total:      total,                           // Total number of users
			TotalPages: totalPages(total, pageSize),     // Total pages
		}
		for i := range list {
			resp.Users[i] = userResponse(&list[i])
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, utils.AdminListingCacheTTL) // Cache for future requests
		success(c, http.StatusOK, gin.H{
			"users":       resp.Users,      // List of users
			"page":        resp.Page,       // Current page
			"page_size":   resp.PageSize,   // Page size
			"total":       resp.Total,      // Total number of users
			"total_pages": resp.TotalPages, // Total pages
			"cached":      false,           // Indicate response is not from cache
		})
	}
}

// AdminTransactionsHandler returns all transactions, with optional filtering
// by user, asset, direction, status or date
func AdminTransactionsHandler(txs TransactionLister, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		page, pageSize, offset := pagination(c)
		filter := store.TransactionFilter{
			UserID:    c.Query("user_id"),   // Filter by user ID
			Asset:     c.Query("asset"),     // Filter by asset
			Direction: c.Query("direction"), // Filter by direction
			Status:    c.Query("status"),    // Filter by status
			From:      c.Query("from"),      // Filter by start date
			To:        c.Query("to"),        // Filter by end date
		}
		// Build cache key from all query params
		cacheKey := utils.AdminTxKey(map[string]string{
			"user_id":   filter.UserID,
			"asset":     filter.Asset,
			"direction": filter.Direction,
			"status":    filter.Status,
			"from":      filter.From,
			"to":        filter.To,
			"page":      strconv.Itoa(page),
			"page_size": strconv.Itoa(pageSize),
		}, "user_id", "asset", "direction", "status", "from", "to", "page", "page_size")

		var cached adminTxPage
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			success(c, http.StatusOK, gin.H{
				"transactions": cached.Transactions, // List of transactions
				"page":         cached.Page,         // Current page
				"page_size":    cached.PageSize,     // Page size
				"total":        cached.Total,        // Total number of transactions
				"total_pages":  cached.TotalPages,   // Total pages
				"cached":       true,                // Indicate response is from cache
			})
			return
		}

		list, total, err := txs.List(ctx, filter, offset, pageSize) // Newest first
		if err != nil {
			fail(c, err)
			return
		}
		if list == nil {
			list = []domain.Transaction{} // Encode as an empty array
		}
		resp := adminTxPage{
			Transactions: list,                        // Page of transactions
			Page:         page,                        // Current page
			PageSize:     pageSize,                    // Page size
			Total:        total,                       // Total number of transactions
			TotalPages:   totalPages(total, pageSize), // Total pages
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, utils.AdminListingCacheTTL) // Cache for future requests
		success(c, http.StatusOK, gin.H{
			"transactions": resp.Transactions, // List of transactions
			"page":         resp.Page,         // Current page
			"page_size":    resp.PageSize,     // Page size
			"total":        resp.Total,        // Total number of transactions
			"total_pages":  resp.TotalPages,   // Total pages
			"cached":       false,             // Indicate response is not from cache
		})
	}
}
