package postgres

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FutureShockco/meeray-sub006/internal/domain"
	"github.com/FutureShockco/meeray-sub006/internal/storage"
)

func testPosition(account, poolID string) *domain.LiquidityPosition {
	return &domain.LiquidityPosition{
		Account:        account,
		PoolID:         poolID,
		LPTokens:       1000,
		FeeCheckpointA: new(big.Int),
		FeeCheckpointB: new(big.Int),
		UpdatedAt:      100,
	}
}

func TestPositionStore_UpsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPositionStore(pool)

	pos := testPosition("alice", "MRY_TESTS")
	require.NoError(t, store.Upsert(ctx, pos))

	got, err := store.Get(ctx, "alice", "MRY_TESTS")
	require.NoError(t, err)
	assert.Equal(t, pos, got)

	// second upsert replaces
	pos.LPTokens = 2000
	pos.UnclaimedA = 42
	pos.FeeCheckpointA = big.NewInt(7_000_000)
	require.NoError(t, store.Upsert(ctx, pos))

	got, err = store.Get(ctx, "alice", "MRY_TESTS")
	require.NoError(t, err)
	assert.Equal(t, int64(2000), got.LPTokens)
	assert.Equal(t, int64(42), got.UnclaimedA)
	assert.Equal(t, 0, got.FeeCheckpointA.Cmp(big.NewInt(7_000_000)))

	_, err = store.Get(ctx, "bob", "MRY_TESTS")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPositionStore_Delete(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPositionStore(pool)

	pos := testPosition("alice", "MRY_TESTS")
	require.NoError(t, store.Upsert(ctx, pos))
	require.NoError(t, store.Delete(ctx, "alice", "MRY_TESTS"))

	_, err := store.Get(ctx, "alice", "MRY_TESTS")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = store.Delete(ctx, "alice", "MRY_TESTS")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPositionStore_GetByAccountOrdered(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPositionStore(pool)

	require.NoError(t, store.Upsert(ctx, testPosition("alice", "MRY_TESTS")))
	require.NoError(t, store.Upsert(ctx, testPosition("alice", "ALPHA_MRY")))
	require.NoError(t, store.Upsert(ctx, testPosition("bob", "MRY_TESTS")))

	positions, err := store.GetByAccount(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, positions, 2)
	assert.Equal(t, "ALPHA_MRY", positions[0].PoolID)
	assert.Equal(t, "MRY_TESTS", positions[1].PoolID)
}
