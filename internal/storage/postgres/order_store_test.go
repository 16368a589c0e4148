package postgres

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FutureShockco/meeray-sub006/internal/domain"
	"github.com/FutureShockco/meeray-sub006/internal/storage"
)

func testOrder(id string, status domain.OrderStatus, createdAt int64) *domain.Order {
	return &domain.Order{
		ID:        id,
		PairID:    "MRY_TESTS",
		Account:   "alice",
		Side:      domain.SideBuy,
		Type:      domain.TypeLimit,
		Price:     1235,
		Quantity:  5_000_000_000,
		Status:    status,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestOrderStore_InsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewOrderStore(pool)

	order := testOrder("ord-1", domain.StatusOpen, 100)
	require.NoError(t, store.Insert(ctx, order))

	got, err := store.GetByID(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, order, got)

	err = store.Insert(ctx, order)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	_, err = store.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestOrderStore_Update(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewOrderStore(pool)

	order := testOrder("ord-1", domain.StatusOpen, 100)
	require.NoError(t, store.Insert(ctx, order))

	order.Filled = 1_000_000_000
	order.Status = domain.StatusPartiallyFilled
	order.UpdatedAt = 200
	require.NoError(t, store.Update(ctx, order))

	got, err := store.GetByID(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_000_000), got.Filled)
	assert.Equal(t, domain.StatusPartiallyFilled, got.Status)

	err = store.Update(ctx, testOrder("missing", domain.StatusOpen, 1))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestOrderStore_GetOpenByPair(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewOrderStore(pool)

	// resting orders out of insertion order, plus terminal ones to skip
	statuses := []domain.OrderStatus{
		domain.StatusOpen,
		domain.StatusFilled,
		domain.StatusPartiallyFilled,
		domain.StatusCancelled,
	}
	for i, status := range statuses {
		o := testOrder(fmt.Sprintf("ord-%d", i), status, int64(100-i*10))
		require.NoError(t, store.Insert(ctx, o))
	}

	open, err := store.GetOpenByPair(ctx, "MRY_TESTS")
	require.NoError(t, err)
	require.Len(t, open, 2)
	// ordered by created_at ASC: ord-2 (80) before ord-0 (100)
	assert.Equal(t, "ord-2", open[0].ID)
	assert.Equal(t, "ord-0", open[1].ID)
}
