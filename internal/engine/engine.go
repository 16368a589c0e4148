// Package engine wraps the order book with validation, persistence, and
// balance settlement. It is the only component that mutates order and trade
// records. All operations run single-threaded under the replay driver.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/FutureShockco/meeray-sub006/internal/amount"
	"github.com/FutureShockco/meeray-sub006/internal/book"
	"github.com/FutureShockco/meeray-sub006/internal/domain"
	"github.com/FutureShockco/meeray-sub006/internal/events"
	"github.com/FutureShockco/meeray-sub006/internal/ledger"
	"github.com/FutureShockco/meeray-sub006/internal/storage"
)

// Rejection reasons returned to callers. Validation and economic failures
// are results, not errors.
const (
	ReasonPairNotFound      = "pair not found"
	ReasonPairNotTrading    = "pair not trading"
	ReasonZeroQuantity      = "quantity must be positive"
	ReasonLotMisaligned     = "quantity not a multiple of lot size"
	ReasonTickMisaligned    = "price not a multiple of tick size"
	ReasonPriceRequired     = "limit order requires a positive price"
	ReasonBelowMinNotional  = "order value below minimum notional"
	ReasonInsufficientFunds = "insufficient balance"
	ReasonOrderNotFound     = "order not found"
	ReasonNotOrderOwner     = "order belongs to another account"
	ReasonOrderTerminal     = "order already filled or cancelled"
)

// Engine is the matching engine for all trading pairs.
type Engine struct {
	reg    amount.Registry
	pairs  storage.PairStore
	orders storage.OrderStore
	trades storage.TradeStore
	ledger *ledger.Ledger
	sink   events.Sink
	logger zerolog.Logger

	books map[string]*book.Book
}

// New creates a matching engine over the given stores.
func New(
	reg amount.Registry,
	pairs storage.PairStore,
	orders storage.OrderStore,
	trades storage.TradeStore,
	led *ledger.Ledger,
	sink events.Sink,
	logger zerolog.Logger,
) *Engine {
	return &Engine{
		reg:    reg,
		pairs:  pairs,
		orders: orders,
		trades: trades,
		ledger: led,
		sink:   sink,
		logger: logger,
		books:  make(map[string]*book.Book),
	}
}

// bookFor returns the pair's in-memory book, rebuilding it from persisted
// resting orders on first access. GetOpenByPair returns arrival order, so
// time priority survives a rebuild.
func (e *Engine) bookFor(ctx context.Context, pairID string) (*book.Book, error) {
	if b, ok := e.books[pairID]; ok {
		return b, nil
	}

	b := book.New(pairID)
	resting, err := e.orders.GetOpenByPair(ctx, pairID)
	if err != nil {
		return nil, fmt.Errorf("load resting orders for %s: %w", pairID, err)
	}
	for _, o := range resting {
		b.Rest(o)
	}
	e.books[pairID] = b
	return b, nil
}

// Depth returns the aggregated depth of one side of a pair's book, best
// price first. A depth of 0 walks the whole side.
func (e *Engine) Depth(ctx context.Context, pairID string, side domain.OrderSide, depth int) ([]book.Level, error) {
	b, err := e.bookFor(ctx, pairID)
	if err != nil {
		return nil, err
	}
	return b.Depth(side, depth), nil
}

// Pair loads a trading pair record.
func (e *Engine) Pair(ctx context.Context, pairID string) (*domain.TradingPair, error) {
	return e.pairs.GetByID(ctx, pairID)
}

// validate checks an incoming order against its pair's constraints.
// Returns a rejection reason, or "" when the order is acceptable.
func (e *Engine) validate(ctx context.Context, pair *domain.TradingPair, o *domain.Order) (string, error) {
	if pair.Status != domain.PairStatusTrading {
		return ReasonPairNotTrading, nil
	}
	if o.Quantity <= 0 {
		return ReasonZeroQuantity, nil
	}
	if pair.LotSize > 0 && o.Quantity%pair.LotSize != 0 {
		return ReasonLotMisaligned, nil
	}

	if o.Type == domain.TypeLimit {
		if o.Price <= 0 {
			return ReasonPriceRequired, nil
		}
		if pair.TickSize > 0 && o.Price%pair.TickSize != 0 {
			return ReasonTickMisaligned, nil
		}
		notional, err := amount.MulDiv(o.Price, o.Quantity, pow10Base(e.reg, pair))
		if err != nil {
			return "", err
		}
		if notional < pair.MinNotional {
			return ReasonBelowMinNotional, nil
		}
	}

	return e.checkFunds(ctx, pair, o)
}

// checkFunds verifies the taker can pay for the order in full before any
// matching happens: base quantity for SELL, quote at the limit price for
// BUY LIMIT, and the walked book cost for BUY MARKET.
func (e *Engine) checkFunds(ctx context.Context, pair *domain.TradingPair, o *domain.Order) (string, error) {
	var symbol string
	var needed int64

	switch {
	case o.Side == domain.SideSell:
		symbol, needed = pair.BaseSymbol, o.Quantity
	case o.Type == domain.TypeLimit:
		n, err := amount.MulDiv(o.Price, o.Quantity, pow10Base(e.reg, pair))
		if err != nil {
			return "", err
		}
		symbol, needed = pair.QuoteSymbol, n
	default: // BUY MARKET: cost of consuming the ask side up to the order size
		b, err := e.bookFor(ctx, pair.ID)
		if err != nil {
			return "", err
		}
		cost, err := marketBuyCost(e.reg, pair, b, o.Quantity)
		if err != nil {
			return "", err
		}
		symbol, needed = pair.QuoteSymbol, cost
	}

	acct, err := e.ledger.GetAccount(ctx, o.Account)
	if errors.Is(err, storage.ErrNotFound) {
		if needed > 0 {
			return ReasonInsufficientFunds, nil
		}
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load account %s: %w", o.Account, err)
	}
	if acct.Balance(symbol) < needed {
		return ReasonInsufficientFunds, nil
	}
	return "", nil
}

// marketBuyCost walks the ask side and prices the acquisition of up to qty
// base units, mirroring the per-trade total formula.
func marketBuyCost(reg amount.Registry, pair *domain.TradingPair, b *book.Book, qty int64) (int64, error) {
	den := pow10Base(reg, pair)
	var cost int64
	remaining := qty
	for _, lvl := range b.Depth(domain.SideSell, 0) {
		if remaining <= 0 {
			break
		}
		take := lvl.Quantity
		if take > remaining {
			take = remaining
		}
		total, err := amount.MulDiv(lvl.Price, take, den)
		if err != nil {
			return 0, err
		}
		cost += total
		remaining -= take
	}
	return cost, nil
}

func pow10Base(reg amount.Registry, pair *domain.TradingPair) int64 {
	return amount.Pow10(reg.Precision(pair.BaseSymbol)).Int64()
}
