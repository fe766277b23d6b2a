package api

import (
	"context"       // Store contexts
	"encoding/json" // Numeric request fields
	"net/http"      // HTTP status codes

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Decimal balance override
	"github.com/sirupsen/logrus"    // Logging library

	"wallet_portfolio/internal/address"    // Address normalization
	"wallet_portfolio/internal/domain"     // Domain models
	"wallet_portfolio/internal/identity"   // Find-or-create by address
	"wallet_portfolio/internal/middleware" // Authenticated user id
	"wallet_portfolio/internal/portfolio"  // Connected sessions
	"wallet_portfolio/internal/utils"      // JWT helpers
)

// UserLister pages through users
type UserLister interface {
	List(ctx context.Context, offset, limit int) ([]domain.User, int64, error)
}

// WalletAuthRequest is the body of POST /users/wallet-auth
type WalletAuthRequest struct {
	Address string `json:"address" binding:"required"` // Connected EVM address, any letter case
}

// UpdateUserRequest is the body of PUT /users. Absent fields are unchanged.
type UpdateUserRequest struct {
	UserID          string       `json:"userId" binding:"required"` // Target user
	Email           *string      `json:"email"`                     // New email
	EthereumAddress *string      `json:"ethereumAddress"`           // New primary address
	BTCAddress      *string      `json:"btcAddress"`                // New secondary address
	Balance         *json.Number `json:"balance"`                   // USD override, admin only
	ClearBalance    bool         `json:"clearBalance"`              // Drop the override, admin only
}

// LinkRequest is the body of POST /users/link
type LinkRequest struct {
	BTCAddress string `json:"btcAddress" binding:"required"` // Bitcoin address to attach
}

// UserResponse adds display fields to a user record
type UserResponse struct {
	*domain.User
	DisplayAddress string `json:"display_address,omitempty"` // EIP-55 form of the primary address
}

func userResponse(u *domain.User) UserResponse {
	resp := UserResponse{User: u}
	if u.PrimaryAddress != nil {
		resp.DisplayAddress = address.Checksum(*u.PrimaryAddress) // Mixed-case display form
	}
	return resp
}

// WalletAuthHandler resolves the connected address to a user, issues a
// session token and opens the portfolio session
func WalletAuthHandler(resolver *identity.Resolver, sessions *portfolio.Manager, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req WalletAuthRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Address is required")
			return
		}
		canonical, err := address.Normalize(req.Address, domain.FamilyEVM) // Canonical lower-case form
		if err != nil {
			fail(c, err)
			return
		}
		user, err := resolver.Resolve(c.Request.Context(), canonical) // Find or create
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"address": canonical,   // Connected address
				"error":   err.Error(), // Error message
			}).Error("Wallet auth failed")
			fail(c, err)
			return
		}
		token, err := utils.GenerateJWT(user.ID, canonical, jwtSecret) // Session token
		if err != nil {
			fail(c, err)
			return
		}
		sessions.Connect(user) // Fresh session; replaces any previous one
		success(c, http.StatusOK, gin.H{"user": userResponse(user), "token": token})
	}
}

// GetUsersHandler returns one user by ?address= or ?id=, or a newest-first list
func GetUsersHandler(resolver *identity.Resolver, users UserLister) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if addr := c.Query("address"); addr != "" {
			user, err := resolver.Lookup(ctx, addr) // By canonical address
			if err != nil {
				fail(c, err)
				return
			}
			success(c, http.StatusOK, gin.H{"user": userResponse(user)})
			return
		}
		if id := c.Query("id"); id != "" {
			user, err := resolver.Get(ctx, id) // By id
			if err != nil {
				fail(c, err)
				return
			}
			success(c, http.StatusOK, gin.H{"user": userResponse(user)})
			return
		}
		page, pageSize, offset := pagination(c)
		list, total, err := users.List(ctx, offset, pageSize) // Newest first
		if err != nil {
			fail(c, err)
			return
		}
		resp := make([]UserResponse, len(list))
		for i := range list {
			resp[i] = userResponse(&list[i])
		}
		success(c, http.StatusOK, gin.H{
			"users":       resp,                        // Page of users
			"page":        page,                        // Current page
			"page_size":   pageSize,                    // Page size
			"total":       total,                       // Total users
			"total_pages": totalPages(total, pageSize), // Total pages
		})
	}
}

// UpdateUserHandler applies PUT /users. Callers may only update themselves
// unless they are admins; the balance override is admin only.
func UpdateUserHandler(resolver *identity.Resolver, sessions *portfolio.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateUserRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request")
			return
		}
		ctx := c.Request.Context()
		caller, err := resolver.Get(ctx, middleware.UserID(c)) // Authenticated user
		if err != nil {
			fail(c, err)
			return
		}
		if req.UserID != caller.ID && !caller.IsAdmin() {
			forbidden(c, "Cannot update another user")
			return
		}
		upd := identity.Update{
			Email:            req.Email,           // Optional email
			PrimaryAddress:   req.EthereumAddress, // Optional primary address
			SecondaryAddress: req.BTCAddress,      // Optional secondary address
		}
		if req.Balance != nil || req.ClearBalance {
			if !caller.IsAdmin() {
				forbidden(c, "Admin access required to set balance")
				return
			}
			if req.Balance != nil {
				amount, err := decimal.NewFromString(req.Balance.String())
				if err != nil || amount.IsNegative() {
					badRequest(c, "Balance must be a non-negative number")
					return
				}
				upd.BalanceOverride = &amount // Server-side USD total
			} else {
				upd.ClearOverride = true // Fall back to computed total
			}
		}
		user, err := resolver.Update(ctx, req.UserID, upd)
		if err != nil {
			fail(c, err)
			return
		}
		sessions.Sync(user) // Push changes into an open session
		logrus.WithFields(logrus.Fields{
			"user_id":   user.ID,   // Updated user
			"caller_id": caller.ID, // Who changed it
		}).Info("User updated")
		success(c, http.StatusOK, gin.H{"user": userResponse(user)})
	}
}

// LinkAddressHandler attaches a bitcoin address to the caller
func LinkAddressHandler(resolver *identity.Resolver, sessions *portfolio.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LinkRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "btcAddress is required")
			return
		}
		user, err := resolver.Link(c.Request.Context(), middleware.UserID(c), req.BTCAddress)
		if err != nil {
			fail(c, err)
			return
		}
		sessions.Sync(user) // Balances now include BTC
		success(c, http.StatusOK, gin.H{"user": userResponse(user)})
	}
}

// DisconnectHandler closes the caller's portfolio session
func DisconnectHandler(sessions *portfolio.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		closed := sessions.Disconnect(middleware.UserID(c)) // In-flight results are discarded
		success(c, http.StatusOK, gin.H{"disconnected": closed})
	}
}
