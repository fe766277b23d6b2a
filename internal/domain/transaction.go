package domain

import (
	"time" // Timestamps

	"github.com/shopspring/decimal" // Precise asset-native amounts
)

// Transfer directions
const (
	DirectionDeposit    = "deposit"    // Funds moving into the portfolio
	DirectionWithdrawal = "withdrawal" // Funds moving out of the portfolio
)

// Transaction statuses
const (
	StatusPending   = "pending"   // Not yet confirmed
	StatusCompleted = "completed" // Confirmed on chain
	StatusFailed    = "failed"    // Rejected or reverted
)

// Transaction Model
type Transaction struct {
	ID                string          `gorm:"primaryKey;size:36" json:"id"`               // Unique identifier (uuid)
	UserID            string          `gorm:"size:36;not null;index" json:"user_id"`      // Owning user
	Address           string          `gorm:"size:90;not null" json:"address"`            // Wallet address associated with the transfer
	Asset             string          `gorm:"size:10;not null" json:"asset"`              // Asset symbol
	Direction         string          `gorm:"size:16;not null" json:"direction"`          // deposit or withdrawal
	Amount            decimal.Decimal `gorm:"type:decimal(36,18);not null" json:"amount"` // Positive quantity in asset-native units
	ExternalReference *string         `gorm:"size:128" json:"external_reference"`         // Chain transaction hash, if any
	Status            string          `gorm:"size:16;not null;index" json:"status"`       // pending, completed or failed
	ProofNote         *string         `gorm:"size:512" json:"proof_note,omitempty"`       // Client-supplied proof text, unverified
	CreatedAt         time.Time       `gorm:"index" json:"created_at"`                    // Creation timestamp
}

// ValidDirection reports whether d is a recognized direction
func ValidDirection(d string) bool {
	return d == DirectionDeposit || d == DirectionWithdrawal
}

// ValidStatus reports whether s is a recognized status
func ValidStatus(s string) bool {
	return s == StatusPending || s == StatusCompleted || s == StatusFailed
}
