package store

import (
	"context"

	"gorm.io/gorm"

	"wallet_portfolio/internal/domain"
)

// TransactionFilter narrows transaction listings
type TransactionFilter struct {
	UserID    string
	Asset     string
	Direction string
	Status    string
	From      string // inclusive created_at lower bound
	To        string // inclusive created_at upper bound
}

// TransactionStore persists transactions. Rows are append-only here;
// confirmation updates belong to an external reconciliation job.
type TransactionStore struct {
	db *gorm.DB
}

func NewTransactionStore(db *gorm.DB) *TransactionStore {
	return &TransactionStore{db: db}
}

// Create inserts tx in a single statement
func (s *TransactionStore) Create(ctx context.Context, tx *domain.Transaction) error {
	return translate("create transaction", s.db.WithContext(ctx).Create(tx).Error)
}

// FindByUser returns a user's transactions, newest first
func (s *TransactionStore) FindByUser(ctx context.Context, userID string) ([]domain.Transaction, error) {
	txs, _, err := s.List(ctx, TransactionFilter{UserID: userID}, 0, -1)
	return txs, err
}

// List returns a filtered page of transactions plus the total count.
// A negative limit disables paging.
func (s *TransactionStore) List(ctx context.Context, f TransactionFilter, offset, limit int) ([]domain.Transaction, int64, error) {
	query := s.db.WithContext(ctx).Model(&domain.Transaction{})
	if f.UserID != "" {
		query = query.Where("user_id = ?", f.UserID)
	}
	if f.Asset != "" {
		query = query.Where("asset = ?", f.Asset)
	}
	if f.Direction != "" {
		query = query.Where("direction = ?", f.Direction)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.From != "" {
		query = query.Where("created_at >= ?", f.From)
	}
	if f.To != "" {
		query = query.Where("created_at <= ?", f.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate("count transactions", err)
	}
	var txs []domain.Transaction
	page := query.Order("created_at desc")
	if limit >= 0 {
		page = page.Offset(offset).Limit(limit)
	}
	if err := page.Find(&txs).Error; err != nil {
		return nil, 0, translate("list transactions", err)
	}
	return txs, total, nil
}
