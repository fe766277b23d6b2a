// Package identity maps connected wallet addresses to application users.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"wallet_portfolio/internal/address"
	"wallet_portfolio/internal/domain"
	"wallet_portfolio/internal/utils"
)

// UserStore is the persistence the resolver needs
type UserStore interface {
	FindByAddress(ctx context.Context, canonical string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	Save(ctx context.Context, u *domain.User) error
}

// Resolver performs find-or-create by canonical address
type Resolver struct {
	users   UserStore
	rdb     *redis.Client // optional; admin listings are invalidated on change
	timeout time.Duration
}

func NewResolver(users UserStore, rdb *redis.Client, timeout time.Duration) *Resolver {
	return &Resolver{users: users, rdb: rdb, timeout: timeout}
}

// changed drops cached admin user listings after a user row was written
func (r *Resolver) changed(ctx context.Context) {
	if err := utils.DeletePrefix(context.WithoutCancel(ctx), r.rdb, utils.AdminUsersPrefix); err != nil {
		logrus.WithError(err).Warn("Failed to invalidate admin user cache")
	}
}

func (r *Resolver) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

// Resolve returns the user owning canonical, creating it on first sight.
// Losing a concurrent create race is turned into a re-fetch. Store failures
// are returned as domain.ErrPersistenceUnavailable and are not retried.
func (r *Resolver) Resolve(ctx context.Context, canonical string) (*domain.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	u, err := r.users.FindByAddress(ctx, canonical)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, unavailable(err)
	}

	addr := canonical
	u = &domain.User{
		ID:             uuid.NewString(),
		Code:           address.Code(canonical),
		Email:          canonical + "@wallet.local",
		PrimaryAddress: &addr,
		Role:           domain.RoleUser,
	}
	err = r.users.Create(ctx, u)
	if err == nil {
		logrus.WithFields(logrus.Fields{
			"user_id": u.ID,
			"address": canonical,
		}).Info("User created from wallet")
		r.changed(ctx)
		return u, nil
	}
	if !errors.Is(err, domain.ErrConflict) {
		return nil, unavailable(err)
	}

	// Another request created the row first
	existing, err := r.users.FindByAddress(ctx, canonical)
	if err != nil {
		return nil, unavailable(err)
	}
	return existing, nil
}

// Link attaches a canonical bitcoin address to userID. Re-linking the same
// address is a no-op; a different one overwrites.
func (r *Resolver) Link(ctx context.Context, userID, secondary string) (*domain.User, error) {
	canonical, err := address.Normalize(secondary, domain.FamilyBitcoin)
	if err != nil {
		return nil, err
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	u, err := r.users.FindByID(ctx, userID)
	if err != nil {
		return nil, notFoundOrUnavailable(err)
	}
	if u.SecondaryAddress != nil && *u.SecondaryAddress == canonical {
		return u, nil
	}
	u.SecondaryAddress = &canonical
	if err := r.users.Save(ctx, u); err != nil {
		return nil, unavailable(err)
	}
	logrus.WithFields(logrus.Fields{
		"user_id":           u.ID,
		"secondary_address": canonical,
	}).Info("Secondary address linked")
	r.changed(ctx)
	return u, nil
}

// Update describes a partial user update; nil fields are left unchanged
type Update struct {
	Email            *string
	PrimaryAddress   *string
	SecondaryAddress *string
	BalanceOverride  *decimal.Decimal
	ClearOverride    bool
}

// Update applies a partial update to userID
func (r *Resolver) Update(ctx context.Context, userID string, upd Update) (*domain.User, error) {
	var primary, secondary string
	var err error
	if upd.PrimaryAddress != nil {
		if primary, err = address.Normalize(*upd.PrimaryAddress, domain.FamilyEVM); err != nil {
			return nil, err
		}
	}
	if upd.SecondaryAddress != nil {
		if secondary, err = address.Normalize(*upd.SecondaryAddress, domain.FamilyBitcoin); err != nil {
			return nil, err
		}
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	u, err := r.users.FindByID(ctx, userID)
	if err != nil {
		return nil, notFoundOrUnavailable(err)
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.PrimaryAddress != nil {
		u.PrimaryAddress = &primary
		u.Code = address.Code(primary)
	}
	if upd.SecondaryAddress != nil {
		u.SecondaryAddress = &secondary
	}
	if upd.BalanceOverride != nil {
		u.BalanceOverride = decimal.NewNullDecimal(*upd.BalanceOverride)
	} else if upd.ClearOverride {
		u.BalanceOverride = decimal.NullDecimal{}
	}

	if err := r.users.Save(ctx, u); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		return nil, unavailable(err)
	}
	r.changed(ctx)
	return u, nil
}

// Get returns the user with the given id
func (r *Resolver) Get(ctx context.Context, userID string) (*domain.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	u, err := r.users.FindByID(ctx, userID)
	if err != nil {
		return nil, notFoundOrUnavailable(err)
	}
	return u, nil
}

// Lookup returns the user owning a raw EVM address without creating one
func (r *Resolver) Lookup(ctx context.Context, raw string) (*domain.User, error) {
	canonical, err := address.Normalize(raw, domain.FamilyEVM)
	if err != nil {
		return nil, err
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	u, err := r.users.FindByAddress(ctx, canonical)
	if err != nil {
		return nil, notFoundOrUnavailable(err)
	}
	return u, nil
}

func notFoundOrUnavailable(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return unavailable(err)
}

func unavailable(err error) error {
	if errors.Is(err, domain.ErrPersistenceUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrPersistenceUnavailable, err)
}
