// Package recorder validates and stores deposit and withdrawal records.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"wallet_portfolio/internal/address"
	"wallet_portfolio/internal/assets"
	"wallet_portfolio/internal/domain"
	"wallet_portfolio/internal/events"
	"wallet_portfolio/internal/metrics"
	"wallet_portfolio/internal/utils"
)

// Users is the user lookup the recorder needs
type Users interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

// Transactions is the append-only transaction store
type Transactions interface {
	Create(ctx context.Context, tx *domain.Transaction) error
	FindByUser(ctx context.Context, userID string) ([]domain.Transaction, error)
}

// Input is one record request. Status may be empty; Confirmed marks a
// transfer whose external reference was seen confirmed on chain.
type Input struct {
	UserID            string
	Address           string
	Asset             string
	Direction         string
	Amount            decimal.Decimal
	ExternalReference string
	Status            string
	Confirmed         bool
	ProofNote         string
}

// Recorder creates transaction rows
type Recorder struct {
	registry *assets.Registry
	users    Users
	txs      Transactions
	rdb      *redis.Client // optional history cache
	events   events.Publisher
	timeout  time.Duration
}

func New(registry *assets.Registry, users Users, txs Transactions, rdb *redis.Client, pub events.Publisher, timeout time.Duration) *Recorder {
	if pub == nil {
		pub = events.Noop{}
	}
	return &Recorder{registry: registry, users: users, txs: txs, rdb: rdb, events: pub, timeout: timeout}
}

// ParseAmount parses a decimal string amount
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", domain.ErrInvalidAmount, s)
	}
	return d, nil
}

// Validate checks in and returns the asset and canonical address it refers to
func (r *Recorder) Validate(in Input) (domain.Asset, string, error) {
	if !in.Amount.IsPositive() {
		return domain.Asset{}, "", domain.ErrInvalidAmount
	}
	asset, err := r.registry.Get(in.Asset)
	if err != nil {
		return domain.Asset{}, "", err
	}
	if !in.Amount.Equal(in.Amount.Truncate(asset.Decimals)) {
		return domain.Asset{}, "", fmt.Errorf("%w: %s supports %d decimals", domain.ErrInvalidAmount, asset.Symbol, asset.Decimals)
	}
	if !domain.ValidDirection(in.Direction) {
		return domain.Asset{}, "", fmt.Errorf("%w: direction %q", domain.ErrInvalidFormat, in.Direction)
	}
	if in.Status != "" && !domain.ValidStatus(in.Status) {
		return domain.Asset{}, "", fmt.Errorf("%w: status %q", domain.ErrInvalidFormat, in.Status)
	}
	canonical, err := address.Normalize(in.Address, asset.Family)
	if err != nil {
		return domain.Asset{}, "", err
	}
	return asset, canonical, nil
}

// Record validates in and inserts one transaction. Nothing is written when
// validation fails. The status defaults to completed only for a confirmed
// transfer with an external reference, otherwise to pending.
func (r *Recorder) Record(ctx context.Context, in Input) (*domain.Transaction, error) {
	asset, canonical, err := r.Validate(in)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if _, err := r.users.FindByID(ctx, in.UserID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistenceUnavailable, err)
	}

	tx := &domain.Transaction{
		ID:        uuid.NewString(),
		UserID:    in.UserID,
		Address:   canonical,
		Asset:     asset.Symbol,
		Direction: in.Direction,
		Amount:    in.Amount,
		Status:    in.Status,
	}
	if ref := strings.TrimSpace(in.ExternalReference); ref != "" {
		tx.ExternalReference = &ref
	}
	if note := strings.TrimSpace(in.ProofNote); note != "" {
		tx.ProofNote = &note
	}
	if tx.Status == "" {
		tx.Status = domain.StatusPending
		if tx.ExternalReference != nil && in.Confirmed {
			tx.Status = domain.StatusCompleted
		}
	}

	if err := r.txs.Create(ctx, tx); err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id": in.UserID,
			"asset":   asset.Symbol,
			"amount":  in.Amount.String(),
			"error":   err.Error(),
		}).Error("Failed to record transaction")
		if errors.Is(err, domain.ErrPersistenceUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistenceUnavailable, err)
	}

	logrus.WithFields(logrus.Fields{
		"tx_id":     tx.ID,
		"user_id":   tx.UserID,
		"asset":     tx.Asset,
		"direction": tx.Direction,
		"amount":    tx.Amount.String(),
		"status":    tx.Status,
	}).Info("Transaction recorded")
	metrics.RecordTransaction(tx.Direction, tx.Status)

	r.afterCommit(context.WithoutCancel(ctx), tx)
	return tx, nil
}

// afterCommit runs the best-effort side effects of a stored transaction
func (r *Recorder) afterCommit(ctx context.Context, tx *domain.Transaction) {
	if err := utils.BumpVersion(ctx, r.rdb, utils.HistoryVersionKey(tx.UserID)); err != nil {
		logrus.WithError(err).Warn("Failed to invalidate history cache")
	}
	if err := utils.DeletePrefix(ctx, r.rdb, utils.AdminTxPrefix); err != nil {
		logrus.WithError(err).Warn("Failed to invalidate admin transaction cache")
	}
	if err := r.events.TransactionRecorded(tx); err != nil {
		logrus.WithFields(logrus.Fields{"tx_id": tx.ID, "error": err.Error()}).Warn("Failed to publish transaction event")
	}
}

// List returns a user's transactions, newest first, through the history
// cache. Entries are keyed by the history version read before the query, so
// a list racing a Record never repopulates the current version.
func (r *Recorder) List(ctx context.Context, userID string) ([]domain.Transaction, error) {
	version, verr := utils.GetVersion(ctx, r.rdb, utils.HistoryVersionKey(userID))
	key := utils.HistoryKey(userID, version)
	if verr == nil {
		var cached []domain.Transaction
		if found, err := utils.GetCache(ctx, r.rdb, key, &cached); err == nil && found {
			return cached, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	txs, err := r.txs.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrPersistenceUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistenceUnavailable, err)
	}
	if txs == nil {
		txs = []domain.Transaction{}
	}
	if verr == nil {
		_ = utils.SetCache(ctx, r.rdb, key, txs, utils.HistoryCacheTTL)
	}
	return txs, nil
}
