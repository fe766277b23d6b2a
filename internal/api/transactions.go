package api

import (
	"context"       // Background refresh
	"encoding/json" // Numeric request fields
	"errors"        // Error matching
	"net/http"      // HTTP status codes
	"time"          // Log timestamps

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library

	"wallet_portfolio/internal/domain"     // Domain models
	"wallet_portfolio/internal/identity"   // User lookup
	"wallet_portfolio/internal/middleware" // Authenticated user id
	"wallet_portfolio/internal/portfolio"  // Wallet of a user
	"wallet_portfolio/internal/recorder"   // Transaction recording
)

// recordRefreshTimeout bounds the session refresh that follows a record
const recordRefreshTimeout = 15 * time.Second

// CreateTransactionRequest is the body of POST /transactions
type CreateTransactionRequest struct {
	UserID    string      `json:"userId"`                     // Defaults to the caller
	Address   string      `json:"address" binding:"required"` // Wallet address used for the transfer
	Asset     string      `json:"asset" binding:"required"`   // Asset symbol
	Type      string      `json:"type" binding:"required"`    // deposit or withdrawal
	Amount    json.Number `json:"amount" binding:"required"`  // Positive asset-native amount
	TxHash    string      `json:"txHash"`                     // External chain reference
	Status    string      `json:"status"`                     // Optional explicit status
	Confirmed bool        `json:"confirmed"`                  // Client saw the transfer confirmed on chain
	ProofNote string      `json:"proof"`                      // Manual proof text, stored unverified
}

// ListTransactionsHandler returns a user's transactions, newest first.
// Callers see their own history unless they are admins.
func ListTransactionsHandler(resolver *identity.Resolver, rec *recorder.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		callerID := middleware.UserID(c)             // Authenticated user
		userID := c.DefaultQuery("userId", callerID) // Target user
		if userID != callerID {
			caller, err := resolver.Get(c.Request.Context(), callerID)
			if err != nil {
				fail(c, err)
				return
			}
			if !caller.IsAdmin() {
				forbidden(c, "Cannot read another user's transactions")
				return
			}
		}
		txs, err := rec.List(c.Request.Context(), userID) // Cached per user
		if err != nil {
			fail(c, err)
			return
		}
		success(c, http.StatusOK, gin.H{"transactions": txs})
	}
}

// CreateTransactionHandler records a deposit or withdrawal for the caller.
// Withdrawals are checked against a fresh balance of the asset when the
// source can provide one; an unavailable balance does not block the record.
func CreateTransactionHandler(resolver *identity.Resolver, rec *recorder.Recorder, balances portfolio.BalanceFetcher, sessions *portfolio.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateTransactionRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request")
			return
		}
		ctx := c.Request.Context()
		callerID := middleware.UserID(c) // Authenticated user
		if req.UserID == "" {
			req.UserID = callerID // Record for the caller by default
		}
		if req.UserID != callerID {
			forbidden(c, "Cannot record transactions for another user")
			return
		}
		amount, err := recorder.ParseAmount(req.Amount.String())
		if err != nil {
			fail(c, err)
			return
		}
		in := recorder.Input{
			UserID:            req.UserID,    // Owner
			Address:           req.Address,   // Transfer address
			Asset:             req.Asset,     // Asset symbol
			Direction:         req.Type,      // deposit or withdrawal
			Amount:            amount,        // Parsed amount
			ExternalReference: req.TxHash,    // Chain hash
			Status:            req.Status,    // Optional status
			Confirmed:         req.Confirmed, // Confirmation flag
			ProofNote:         req.ProofNote, // Manual proof
		}
		asset, _, err := rec.Validate(in) // Reject bad input before any balance lookup
		if err != nil {
			fail(c, err)
			return
		}

		if in.Direction == domain.DirectionWithdrawal {
			user, err := resolver.Get(ctx, req.UserID)
			if err != nil {
				fail(c, err)
				return
			}
			res, err := balances.Aggregate(ctx, portfolio.WalletOf(user), []string{asset.Symbol})
			if err != nil {
				fail(c, err)
				return
			}
			if b, ok := res.Get(asset.Symbol); ok && b.Available && b.Exact.LessThan(amount) {
				fail(c, domain.ErrInsufficientBalance)
				return
			}
		}

		tx, err := rec.Record(ctx, in) // Single insert
		if err != nil {
			fail(c, err)
			return
		}
		logrus.WithFields(logrus.Fields{
			"user_id":   tx.UserID,                       // Owner
			"tx_id":     tx.ID,                           // New transaction
			"type":      tx.Direction,                    // Direction
			"timestamp": time.Now().Format(time.RFC3339), // Current timestamp
		}).Info("Transaction request accepted")
		if sessions != nil {
			go refreshAfterRecord(context.WithoutCancel(ctx), sessions, tx.UserID) // Re-read balances for the open session
		}
		success(c, http.StatusCreated, gin.H{"transaction": tx})
	}
}

// refreshAfterRecord refreshes the user's session once a transaction is stored.
// Users without an open session are skipped.
func refreshAfterRecord(ctx context.Context, sessions *portfolio.Manager, userID string) {
	ctx, cancel := context.WithTimeout(ctx, recordRefreshTimeout)
	defer cancel()
	if _, err := sessions.Refresh(ctx, userID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Warn("Refresh after record failed")
	}
}
