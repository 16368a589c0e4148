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

func testTrade(id string, ts int64) *domain.Trade {
	return &domain.Trade{
		ID:           id,
		PairID:       "MRY_TESTS",
		Price:        1235,
		Quantity:     5_000_000_000,
		Total:        61750,
		MakerOrderID: "maker-1",
		TakerOrderID: "taker-1",
		MakerAccount: "alice",
		TakerAccount: "bob",
		TakerSide:    domain.SideBuy,
		Timestamp:    ts,
	}
}

func TestTradeStore_InsertAndGetByPair(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	trade := testTrade("trade-1", 100)
	require.NoError(t, store.Insert(ctx, trade))

	err := store.Insert(ctx, trade)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	trades, err := store.GetByPair(ctx, "MRY_TESTS")
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, trade, trades[0])
}

func TestTradeStore_InsertBulkAtomic(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	require.NoError(t, store.Insert(ctx, testTrade("trade-1", 100)))

	// batch contains a duplicate: nothing from it may persist
	batch := []*domain.Trade{testTrade("trade-2", 200), testTrade("trade-1", 100)}
	err := store.InsertBulk(ctx, batch)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	trades, err := store.GetByPair(ctx, "MRY_TESTS")
	require.NoError(t, err)
	assert.Len(t, trades, 1)
}

func TestTradeStore_GetByPairOrdered(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	var batch []*domain.Trade
	for i, ts := range []int64{300, 100, 200} {
		batch = append(batch, testTrade(fmt.Sprintf("trade-%d", i), ts))
	}
	require.NoError(t, store.InsertBulk(ctx, batch))

	trades, err := store.GetByPair(ctx, "MRY_TESTS")
	require.NoError(t, err)
	require.Len(t, trades, 3)
	assert.Equal(t, int64(100), trades[0].Timestamp)
	assert.Equal(t, int64(200), trades[1].Timestamp)
	assert.Equal(t, int64(300), trades[2].Timestamp)
}
