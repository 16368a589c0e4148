package engine

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FutureShockco/meeray-sub006/internal/amount"
	"github.com/FutureShockco/meeray-sub006/internal/domain"
	"github.com/FutureShockco/meeray-sub006/internal/events"
	"github.com/FutureShockco/meeray-sub006/internal/idhash"
	"github.com/FutureShockco/meeray-sub006/internal/ledger"
	"github.com/FutureShockco/meeray-sub006/internal/storage"
	"github.com/FutureShockco/meeray-sub006/internal/storage/memory"
)

const (
	testBase  = "MRY"   // 8 decimals
	testQuote = "TESTS" // 3 decimals
	testPair  = "MRY_TESTS"

	lot = 100_000_000 // one whole MRY in smallest units
)

type testEnv struct {
	eng      *Engine
	orders   storage.OrderStore
	trades   storage.TradeStore
	accounts storage.AccountStore
	ledger   *ledger.Ledger
	sink     *events.MemorySink
}

func newTestEngine(t *testing.T) *testEnv {
	t.Helper()

	reg := amount.NewRegistry([]domain.Token{
		{Symbol: testBase, Precision: 8},
		{Symbol: testQuote, Precision: 3},
	})
	pairs := memory.NewPairStore()
	orders := memory.NewOrderStore()
	trades := memory.NewTradeStore()
	accounts := memory.NewAccountStore()
	led := ledger.New(accounts, zerolog.Nop())
	sink := events.NewMemorySink()

	require.NoError(t, pairs.Insert(context.Background(), &domain.TradingPair{
		ID:          testPair,
		BaseSymbol:  testBase,
		QuoteSymbol: testQuote,
		TickSize:    5,
		LotSize:     lot,
		MinNotional: 1000,
		Status:      domain.PairStatusTrading,
	}))
	require.NoError(t, pairs.Insert(context.Background(), &domain.TradingPair{
		ID:          "MRY_HALTED",
		BaseSymbol:  testBase,
		QuoteSymbol: "HALTED",
		TickSize:    1,
		LotSize:     1,
		Status:      domain.PairStatusHalted,
	}))

	return &testEnv{
		eng:      New(reg, pairs, orders, trades, led, sink, zerolog.Nop()),
		orders:   orders,
		trades:   trades,
		accounts: accounts,
		ledger:   led,
		sink:     sink,
	}
}

func (env *testEnv) fund(t *testing.T, name string, balances map[string]int64) {
	t.Helper()
	require.NoError(t, env.accounts.Upsert(context.Background(), &domain.Account{
		Name:     name,
		Balances: balances,
	}))
}

func (env *testEnv) balance(t *testing.T, name, symbol string) int64 {
	t.Helper()
	acct, err := env.ledger.GetAccount(context.Background(), name)
	if err != nil {
		return 0
	}
	return acct.Balance(symbol)
}

func testOrder(id, account string, side domain.OrderSide, typ domain.OrderType, price, qty int64) *domain.Order {
	return &domain.Order{
		ID:        id,
		PairID:    testPair,
		Account:   account,
		Side:      side,
		Type:      typ,
		Price:     price,
		Quantity:  qty,
		CreatedAt: 1_700_000_000_000,
	}
}

func TestSubmitValidationRejections(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(t *testing.T, env *testEnv)
		order  *domain.Order
		reason string
	}{
		{
			name: "unknown pair",
			order: &domain.Order{
				ID: "o1", PairID: "NOPE_TESTS", Account: "alice",
				Side: domain.SideBuy, Type: domain.TypeLimit, Price: 5, Quantity: 1,
			},
			reason: ReasonPairNotFound,
		},
		{
			name: "halted pair",
			order: &domain.Order{
				ID: "o1", PairID: "MRY_HALTED", Account: "alice",
				Side: domain.SideBuy, Type: domain.TypeLimit, Price: 5, Quantity: 1,
			},
			reason: ReasonPairNotTrading,
		},
		{
			name:   "zero quantity",
			order:  testOrder("o1", "alice", domain.SideBuy, domain.TypeLimit, 1235, 0),
			reason: ReasonZeroQuantity,
		},
		{
			name:   "lot misaligned",
			order:  testOrder("o1", "alice", domain.SideBuy, domain.TypeLimit, 1235, lot+1),
			reason: ReasonLotMisaligned,
		},
		{
			name:   "limit without price",
			order:  testOrder("o1", "alice", domain.SideBuy, domain.TypeLimit, 0, lot),
			reason: ReasonPriceRequired,
		},
		{
			name:   "tick misaligned",
			order:  testOrder("o1", "alice", domain.SideBuy, domain.TypeLimit, 1237, lot),
			reason: ReasonTickMisaligned,
		},
		{
			name: "below min notional",
			// 5 quote units for one lot is under the 1000 minimum
			order:  testOrder("o1", "alice", domain.SideBuy, domain.TypeLimit, 5, lot),
			reason: ReasonBelowMinNotional,
		},
		{
			name:   "sell without base balance",
			order:  testOrder("o1", "alice", domain.SideSell, domain.TypeLimit, 1235, lot),
			reason: ReasonInsufficientFunds,
		},
		{
			name: "buy limit without quote balance",
			setup: func(t *testing.T, env *testEnv) {
				env.fund(t, "alice", map[string]int64{testQuote: 1234})
			},
			order:  testOrder("o1", "alice", domain.SideBuy, domain.TypeLimit, 1235, lot),
			reason: ReasonInsufficientFunds,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEngine(t)
			if tt.setup != nil {
				tt.setup(t, env)
			}

			res, err := env.eng.Submit(context.Background(), tt.order)
			require.NoError(t, err)
			assert.False(t, res.Accepted)
			assert.Equal(t, tt.reason, res.Reason)

			// rejection persisted nothing
			_, err = env.orders.GetByID(context.Background(), tt.order.ID)
			assert.ErrorIs(t, err, storage.ErrNotFound)
		})
	}
}

func TestSubmitMarketBuyFundsCheckWalksBook(t *testing.T) {
	env := newTestEngine(t)
	env.fund(t, "seller", map[string]int64{testBase: 2 * lot})

	ask := testOrder("ask-1", "seller", domain.SideSell, domain.TypeLimit, 1235, 2*lot)
	res, err := env.eng.Submit(context.Background(), ask)
	require.NoError(t, err)
	require.True(t, res.Accepted)

	// consuming both lots costs 2470 quote units
	env.fund(t, "buyer", map[string]int64{testQuote: 2469})
	res, err = env.eng.Submit(context.Background(), testOrder("buy-1", "buyer", domain.SideBuy, domain.TypeMarket, 0, 2*lot))
	require.NoError(t, err)
	assert.False(t, res.Accepted)
	assert.Equal(t, ReasonInsufficientFunds, res.Reason)

	env.fund(t, "buyer", map[string]int64{testQuote: 2470})
	res, err = env.eng.Submit(context.Background(), testOrder("buy-2", "buyer", domain.SideBuy, domain.TypeMarket, 0, 2*lot))
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.Equal(t, int64(2*lot), res.Order.Filled)
}

func TestSubmitLimitRestsWhenNoMatch(t *testing.T) {
	env := newTestEngine(t)
	env.fund(t, "alice", map[string]int64{testQuote: 61_750})

	o := testOrder("bid-1", "alice", domain.SideBuy, domain.TypeLimit, 1235, 50*lot)
	res, err := env.eng.Submit(context.Background(), o)
	require.NoError(t, err)
	require.True(t, res.Accepted)
	assert.Equal(t, domain.StatusOpen, o.Status)
	assert.Zero(t, o.Filled)

	stored, err := env.orders.GetByID(context.Background(), "bid-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOpen, stored.Status)

	levels, err := env.eng.Depth(context.Background(), testPair, domain.SideBuy, 0)
	require.NoError(t, err)
	require.Len(t, levels, 1)
	assert.Equal(t, int64(1235), levels[0].Price)
	assert.Equal(t, int64(50*lot), levels[0].Quantity)

	// balances untouched until a trade executes
	assert.Equal(t, int64(61_750), env.balance(t, "alice", testQuote))
}

func TestSubmitFullFillSettlesBalances(t *testing.T) {
	env := newTestEngine(t)
	env.fund(t, "seller", map[string]int64{testBase: 50 * lot})
	env.fund(t, "buyer", map[string]int64{testQuote: 61_750})

	ask := testOrder("ask-1", "seller", domain.SideSell, domain.TypeLimit, 1235, 50*lot)
	res, err := env.eng.Submit(context.Background(), ask)
	require.NoError(t, err)
	require.True(t, res.Accepted)

	bid := testOrder("bid-1", "buyer", domain.SideBuy, domain.TypeLimit, 1235, 50*lot)
	res, err = env.eng.Submit(context.Background(), bid)
	require.NoError(t, err)
	require.True(t, res.Accepted)
	require.Len(t, res.Trades, 1)

	trade := res.Trades[0]
	assert.Equal(t, idhash.TradeID(testPair, "ask-1", "bid-1", 0), trade.ID)
	assert.Equal(t, int64(1235), trade.Price)
	assert.Equal(t, int64(50*lot), trade.Quantity)
	assert.Equal(t, int64(61_750), trade.Total)
	assert.Equal(t, domain.SideBuy, trade.TakerSide)

	assert.Equal(t, int64(50*lot), env.balance(t, "buyer", testBase))
	assert.Zero(t, env.balance(t, "buyer", testQuote))
	assert.Equal(t, int64(61_750), env.balance(t, "seller", testQuote))
	assert.Zero(t, env.balance(t, "seller", testBase))

	assert.Equal(t, domain.StatusFilled, bid.Status)
	maker, err := env.orders.GetByID(context.Background(), "ask-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFilled, maker.Status)
	assert.Equal(t, int64(50*lot), maker.Filled)

	persisted, err := env.trades.GetByPair(context.Background(), testPair)
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.Equal(t, trade.ID, persisted[0].ID)
}

func TestSubmitExecutesAtMakerPrice(t *testing.T) {
	env := newTestEngine(t)
	env.fund(t, "seller", map[string]int64{testBase: 50 * lot})
	env.fund(t, "buyer", map[string]int64{testQuote: 61_750})

	_, err := env.eng.Submit(context.Background(), testOrder("ask-1", "seller", domain.SideSell, domain.TypeLimit, 1230, 50*lot))
	require.NoError(t, err)

	res, err := env.eng.Submit(context.Background(), testOrder("bid-1", "buyer", domain.SideBuy, domain.TypeLimit, 1235, 50*lot))
	require.NoError(t, err)
	require.True(t, res.Accepted)
	require.Len(t, res.Trades, 1)

	// taker crossed at 1235 but pays the resting price
	assert.Equal(t, int64(1230), res.Trades[0].Price)
	assert.Equal(t, int64(61_500), res.Trades[0].Total)
	assert.Equal(t, int64(250), env.balance(t, "buyer", testQuote))
	assert.Equal(t, int64(61_500), env.balance(t, "seller", testQuote))
}

func TestSubmitPartialFillRestsLimitRemainder(t *testing.T) {
	env := newTestEngine(t)
	env.fund(t, "seller", map[string]int64{testBase: 2 * lot})
	env.fund(t, "buyer", map[string]int64{testQuote: 6_175})

	_, err := env.eng.Submit(context.Background(), testOrder("ask-1", "seller", domain.SideSell, domain.TypeLimit, 1235, 2*lot))
	require.NoError(t, err)

	bid := testOrder("bid-1", "buyer", domain.SideBuy, domain.TypeLimit, 1235, 5*lot)
	res, err := env.eng.Submit(context.Background(), bid)
	require.NoError(t, err)
	require.True(t, res.Accepted)

	assert.Equal(t, domain.StatusPartiallyFilled, bid.Status)
	assert.Equal(t, int64(2*lot), bid.Filled)

	levels, err := env.eng.Depth(context.Background(), testPair, domain.SideBuy, 0)
	require.NoError(t, err)
	require.Len(t, levels, 1)
	assert.Equal(t, int64(3*lot), levels[0].Quantity)

	asks, err := env.eng.Depth(context.Background(), testPair, domain.SideSell, 0)
	require.NoError(t, err)
	assert.Empty(t, asks)
}

func TestSubmitMarketPartialDoesNotRest(t *testing.T) {
	env := newTestEngine(t)
	env.fund(t, "seller", map[string]int64{testBase: 2 * lot})
	env.fund(t, "buyer", map[string]int64{testQuote: 10_000})

	_, err := env.eng.Submit(context.Background(), testOrder("ask-1", "seller", domain.SideSell, domain.TypeLimit, 1235, 2*lot))
	require.NoError(t, err)

	o := testOrder("buy-1", "buyer", domain.SideBuy, domain.TypeMarket, 0, 5*lot)
	res, err := env.eng.Submit(context.Background(), o)
	require.NoError(t, err)
	require.True(t, res.Accepted)

	assert.Equal(t, domain.StatusPartiallyFilled, o.Status)
	assert.Equal(t, int64(2*lot), o.Filled)

	// the unfilled remainder never rests
	bids, err := env.eng.Depth(context.Background(), testPair, domain.SideBuy, 0)
	require.NoError(t, err)
	assert.Empty(t, bids)
}

func TestSubmitMarketUnfilledIsCancelled(t *testing.T) {
	env := newTestEngine(t)
	env.fund(t, "seller", map[string]int64{testBase: lot})

	o := testOrder("sell-1", "seller", domain.SideSell, domain.TypeMarket, 0, lot)
	res, err := env.eng.Submit(context.Background(), o)
	require.NoError(t, err)
	require.True(t, res.Accepted)
	assert.Empty(t, res.Trades)
	assert.Equal(t, domain.StatusCancelled, o.Status)
	assert.Equal(t, int64(lot), env.balance(t, "seller", testBase))
}

func TestCancel(t *testing.T) {
	env := newTestEngine(t)
	env.fund(t, "alice", map[string]int64{testQuote: 61_750})

	bid := testOrder("bid-1", "alice", domain.SideBuy, domain.TypeLimit, 1235, 50*lot)
	res, err := env.eng.Submit(context.Background(), bid)
	require.NoError(t, err)
	require.True(t, res.Accepted)

	t.Run("not found", func(t *testing.T) {
		cr, err := env.eng.Cancel(context.Background(), "missing", "alice", 1)
		require.NoError(t, err)
		assert.False(t, cr.Accepted)
		assert.Equal(t, ReasonOrderNotFound, cr.Reason)
	})

	t.Run("wrong owner", func(t *testing.T) {
		cr, err := env.eng.Cancel(context.Background(), "bid-1", "mallory", 1)
		require.NoError(t, err)
		assert.False(t, cr.Accepted)
		assert.Equal(t, ReasonNotOrderOwner, cr.Reason)
	})

	t.Run("success removes from book", func(t *testing.T) {
		cr, err := env.eng.Cancel(context.Background(), "bid-1", "alice", 2)
		require.NoError(t, err)
		require.True(t, cr.Accepted)
		assert.Equal(t, domain.StatusCancelled, cr.Order.Status)

		bids, err := env.eng.Depth(context.Background(), testPair, domain.SideBuy, 0)
		require.NoError(t, err)
		assert.Empty(t, bids)

		stored, err := env.orders.GetByID(context.Background(), "bid-1")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, stored.Status)
	})

	t.Run("terminal order", func(t *testing.T) {
		cr, err := env.eng.Cancel(context.Background(), "bid-1", "alice", 3)
		require.NoError(t, err)
		assert.False(t, cr.Accepted)
		assert.Equal(t, ReasonOrderTerminal, cr.Reason)
	})
}

func TestBookRebuildPreservesTimePriority(t *testing.T) {
	env := newTestEngine(t)
	env.fund(t, "a", map[string]int64{testQuote: 100_000})
	env.fund(t, "b", map[string]int64{testQuote: 100_000})
	env.fund(t, "seller", map[string]int64{testBase: lot})

	first := testOrder("bid-a", "a", domain.SideBuy, domain.TypeLimit, 1235, lot)
	_, err := env.eng.Submit(context.Background(), first)
	require.NoError(t, err)
	second := testOrder("bid-b", "b", domain.SideBuy, domain.TypeLimit, 1235, lot)
	second.CreatedAt = first.CreatedAt + 1
	_, err = env.eng.Submit(context.Background(), second)
	require.NoError(t, err)

	// fresh engine over the same stores rebuilds the book from storage
	reg := amount.NewRegistry([]domain.Token{
		{Symbol: testBase, Precision: 8},
		{Symbol: testQuote, Precision: 3},
	})
	pairs := memory.NewPairStore()
	require.NoError(t, pairs.Insert(context.Background(), &domain.TradingPair{
		ID:          testPair,
		BaseSymbol:  testBase,
		QuoteSymbol: testQuote,
		TickSize:    5,
		LotSize:     lot,
		MinNotional: 1000,
		Status:      domain.PairStatusTrading,
	}))
	eng2 := New(reg, pairs, env.orders, env.trades, env.ledger, env.sink, zerolog.Nop())

	res, err := eng2.Submit(context.Background(), testOrder("ask-1", "seller", domain.SideSell, domain.TypeLimit, 1235, lot))
	require.NoError(t, err)
	require.True(t, res.Accepted)
	require.Len(t, res.Trades, 1)
	assert.Equal(t, "bid-a", res.Trades[0].MakerOrderID)
}
