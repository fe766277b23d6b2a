package store

import (
	"context"

	"gorm.io/gorm"

	"wallet_portfolio/internal/domain"
)

// UserStore persists users
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// FindByAddress looks a user up by canonical primary address
func (s *UserStore) FindByAddress(ctx context.Context, canonical string) (*domain.User, error) {
	var u domain.User
	err := s.db.WithContext(ctx).Where("primary_address = ?", canonical).First(&u).Error
	if err != nil {
		return nil, translate("find user by address", err)
	}
	return &u, nil
}

func (s *UserStore) FindByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if err != nil {
		return nil, translate("find user by id", err)
	}
	return &u, nil
}

// Create inserts u; a unique violation yields domain.ErrConflict
func (s *UserStore) Create(ctx context.Context, u *domain.User) error {
	return translate("create user", s.db.WithContext(ctx).Create(u).Error)
}

// Save writes every column of u
func (s *UserStore) Save(ctx context.Context, u *domain.User) error {
	return translate("save user", s.db.WithContext(ctx).Save(u).Error)
}

// List returns a page of users, newest first, plus the total count
func (s *UserStore) List(ctx context.Context, offset, limit int) ([]domain.User, int64, error) {
	var total int64
	q := s.db.WithContext(ctx).Model(&domain.User{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate("count users", err)
	}
	var users []domain.User
	err := s.db.WithContext(ctx).Order("created_at desc").Offset(offset).Limit(limit).Find(&users).Error
	if err != nil {
		return nil, 0, translate("list users", err)
	}
	return users, total, nil
}
