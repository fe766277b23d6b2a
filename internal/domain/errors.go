package domain

import "errors"

// Error kinds surfaced by the core components
var (
	ErrInvalidFormat          = errors.New("invalid format")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrUnsupportedAsset       = errors.New("unsupported asset")
	ErrNotFound               = errors.New("not found")
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
	ErrSourceUnavailable      = errors.New("source unavailable")
	ErrInsufficientBalance    = errors.New("insufficient balance")
	ErrConflict               = errors.New("conflict")
)

// Message translates an error into a short human message
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidFormat):
		return "Invalid address or input format"
	case errors.Is(err, ErrInvalidAmount):
		return "Amount must be greater than zero"
	case errors.Is(err, ErrUnsupportedAsset):
		return "Unsupported asset"
	case errors.Is(err, ErrNotFound):
		return "User not found"
	case errors.Is(err, ErrPersistenceUnavailable):
		return "Storage is temporarily unavailable"
	case errors.Is(err, ErrSourceUnavailable):
		return "Price or balance source is unavailable"
	case errors.Is(err, ErrInsufficientBalance):
		return "Insufficient balance"
	case errors.Is(err, ErrConflict):
		return "Address is already linked to another user"
	default:
		return "Internal error"
	}
}
