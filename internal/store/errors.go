package store

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"wallet_portfolio/internal/domain"
)

// translate maps gorm failures onto the domain error kinds
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	case IsDuplicate(err):
		return fmt.Errorf("%s: %w: %v", op, domain.ErrConflict, err)
	default:
		return fmt.Errorf("%s: %w: %v", op, domain.ErrPersistenceUnavailable, err)
	}
}

// IsDuplicate reports whether err is a unique-constraint violation. Drivers
// without error translation are matched on their message.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, domain.ErrConflict) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "duplicate key")
}
