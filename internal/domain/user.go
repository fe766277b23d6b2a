package domain

import (
	"time" // Timestamps

	"github.com/shopspring/decimal" // Decimal type for the USD override
)

// Roles a user can hold
const (
	RoleUser  = "user"  // Default role for wallet-created users
	RoleAdmin = "admin" // Administrative role
)

// User Model
type User struct {
	ID               string              `gorm:"primaryKey;size:36" json:"id"`                           // Opaque stable identifier (uuid)
	Code             string              `gorm:"size:6;index" json:"code"`                               // Short display code derived from the address
	Email            string              `gorm:"size:255" json:"email"`                                  // Placeholder email for wallet-created users
	PrimaryAddress   *string             `gorm:"size:42;uniqueIndex" json:"primary_address"`             // Canonical EVM address, unique when set
	SecondaryAddress *string             `gorm:"size:90" json:"secondary_address"`                       // Canonical bitcoin address
	BalanceOverride  decimal.NullDecimal `gorm:"type:decimal(20,2)" json:"balance_override"`             // Server-recorded USD balance
	Role             string              `gorm:"size:16;not null;default:user" json:"role"`              // Role: user or admin
	CreatedAt        time.Time           `json:"created_at"`                                             // Creation timestamp
	UpdatedAt        time.Time           `json:"updated_at"`                                             // Last update timestamp
	Transactions     []Transaction       `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE" json:"-"` // One-to-many relationship with Transaction
}

// IsAdmin reports whether the user carries the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
