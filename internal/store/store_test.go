package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet_portfolio/internal/domain"
	"wallet_portfolio/internal/store"
	"wallet_portfolio/internal/store/storetest"
)

func TestUserStore_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	users := store.NewUserStore(storetest.Open(t))

	addr := "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"
	require.NoError(t, users.Create(ctx, &domain.User{ID: "u1", PrimaryAddress: &addr, Role: domain.RoleUser}))

	got, err := users.FindByAddress(ctx, addr)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)

	got, err = users.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, addr, *got.PrimaryAddress)

	_, err = users.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = users.Create(ctx, &domain.User{ID: "u2", PrimaryAddress: &addr, Role: domain.RoleUser})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.True(t, store.IsDuplicate(err))
}

func TestUserStore_List(t *testing.T) {
	ctx := context.Background()
	users := store.NewUserStore(storetest.Open(t))
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, users.Create(ctx, &domain.User{ID: id, Role: domain.RoleUser}))
	}

	page, total, err := users.List(ctx, 0, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, page, 2)
}

func TestTransactionStore_FindByUserNewestFirst(t *testing.T) {
	ctx := context.Background()
	txs := store.NewTransactionStore(storetest.Open(t))

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"t1", "t2", "t3"} {
		require.NoError(t, txs.Create(ctx, &domain.Transaction{
			ID:        id,
			UserID:    "u1",
			Address:   "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed",
			Asset:     "ETH",
			Direction: domain.DirectionDeposit,
			Amount:    decimal.RequireFromString("0.5"),
			Status:    domain.StatusPending,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}
	require.NoError(t, txs.Create(ctx, &domain.Transaction{
		ID: "other", UserID: "u2", Address: "x", Asset: "BTC",
		Direction: domain.DirectionDeposit, Amount: decimal.NewFromInt(1), Status: domain.StatusPending,
	}))

	got, err := txs.FindByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "t3", got[0].ID)
	assert.Equal(t, "t1", got[2].ID)
	assert.True(t, got[0].Amount.Equal(decimal.RequireFromString("0.5")))

	page, total, err := txs.List(ctx, store.TransactionFilter{Asset: "BTC"}, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "other", page[0].ID)
}

func TestIsDuplicate(t *testing.T) {
	assert.False(t, store.IsDuplicate(nil))
	assert.True(t, store.IsDuplicate(errors.New("Error 1062: Duplicate entry 'x' for key 'idx'")))
	assert.True(t, store.IsDuplicate(errors.New(`ERROR: duplicate key value violates unique constraint "idx"`)))
	assert.False(t, store.IsDuplicate(errors.New("connection refused")))
}
