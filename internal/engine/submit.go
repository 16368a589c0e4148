package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/FutureShockco/meeray-sub006/internal/amount"
	"github.com/FutureShockco/meeray-sub006/internal/book"
	"github.com/FutureShockco/meeray-sub006/internal/domain"
	"github.com/FutureShockco/meeray-sub006/internal/idhash"
	"github.com/FutureShockco/meeray-sub006/internal/ledger"
	"github.com/FutureShockco/meeray-sub006/internal/observability"
	"github.com/FutureShockco/meeray-sub006/internal/storage"
)

// SubmitResult reports the outcome of an order submission. Rejected orders
// carry a Reason and caused no state change.
type SubmitResult struct {
	Accepted bool
	Reason   string
	Order    *domain.Order
	Trades   []*domain.Trade
}

// Submit validates an incoming order, matches it against the book, settles
// every resulting trade, and persists the order and trades.
//
// Validation and economic failures return an unaccepted result with a
// reason and no error. A returned error means an integrity fault: some
// state may have been written and the replay driver must halt.
func (e *Engine) Submit(ctx context.Context, o *domain.Order) (*SubmitResult, error) {
	pair, err := e.pairs.GetByID(ctx, o.PairID)
	if errors.Is(err, storage.ErrNotFound) {
		return e.reject(o, ReasonPairNotFound), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load pair %s: %w", o.PairID, err)
	}

	reason, err := e.validate(ctx, pair, o)
	if err != nil {
		return nil, err
	}
	if reason != "" {
		return e.reject(o, reason), nil
	}

	b, err := e.bookFor(ctx, o.PairID)
	if err != nil {
		return nil, err
	}

	o.Status = domain.StatusOpen
	if err := e.orders.Insert(ctx, o); err != nil {
		return nil, fmt.Errorf("persist order %s: %w", o.ID, err)
	}

	fills := b.Match(o)

	trades, err := e.settleFills(ctx, pair, o, fills)
	if err != nil {
		return nil, err
	}

	if err := e.finalizeTaker(ctx, b, o); err != nil {
		return nil, err
	}

	observability.RecordOrderSubmitted()
	observability.RecordTrades(len(trades))
	e.sink.LogEvent("market", "order_submitted", o.Account, map[string]any{
		"order":  o.ID,
		"pair":   o.PairID,
		"side":   string(o.Side),
		"type":   string(o.Type),
		"filled": o.Filled,
		"trades": len(trades),
	})

	return &SubmitResult{Accepted: true, Order: o, Trades: trades}, nil
}

// settleFills turns each fill into a trade, settles its balance plan, and
// persists the trade and the maker's updated order record.
func (e *Engine) settleFills(ctx context.Context, pair *domain.TradingPair, taker *domain.Order, fills []book.Fill) ([]*domain.Trade, error) {
	den := pow10Base(e.reg, pair)
	trades := make([]*domain.Trade, 0, len(fills))

	for i, f := range fills {
		total, err := amount.MulDiv(f.Price, f.Quantity, den)
		if err != nil {
			return nil, err
		}

		trade := &domain.Trade{
			ID:           idhash.TradeID(pair.ID, f.Maker.ID, taker.ID, i),
			PairID:       pair.ID,
			Price:        f.Price,
			Quantity:     f.Quantity,
			Total:        total,
			MakerOrderID: f.Maker.ID,
			TakerOrderID: taker.ID,
			MakerAccount: f.Maker.Account,
			TakerAccount: taker.Account,
			TakerSide:    taker.Side,
			Timestamp:    taker.CreatedAt,
		}

		buyer, seller := trade.TakerAccount, trade.MakerAccount
		if taker.Side == domain.SideSell {
			buyer, seller = trade.MakerAccount, trade.TakerAccount
		}

		// base moves seller -> buyer, quote moves buyer -> seller
		var plan ledger.Plan
		plan.Add(seller, pair.BaseSymbol, -trade.Quantity)
		plan.Add(buyer, pair.BaseSymbol, trade.Quantity)
		plan.Add(buyer, pair.QuoteSymbol, -trade.Total)
		plan.Add(seller, pair.QuoteSymbol, trade.Total)

		if err := e.ledger.Apply(ctx, &plan, taker.CreatedAt); err != nil {
			// maker spent funds while resting, or the store failed mid-way;
			// either way no partial trade is applied silently
			observability.RecordSettlementRollback()
			e.logger.Error().
				Str("trade", trade.ID).
				Str("maker", trade.MakerOrderID).
				Str("taker", trade.TakerOrderID).
				Err(err).
				Msg("CRITICAL: trade settlement failed")
			return nil, fmt.Errorf("settle trade %s: %w", trade.ID, err)
		}

		if err := e.trades.Insert(ctx, trade); err != nil {
			return nil, fmt.Errorf("persist trade %s: %w", trade.ID, err)
		}

		if err := e.persistMaker(ctx, f.Maker, taker.CreatedAt); err != nil {
			return nil, err
		}

		e.sink.LogEvent("market", "trade_executed", trade.TakerAccount, map[string]any{
			"trade":    trade.ID,
			"pair":     trade.PairID,
			"price":    trade.Price,
			"quantity": trade.Quantity,
			"total":    trade.Total,
		})
		trades = append(trades, trade)
	}

	return trades, nil
}

// persistMaker writes a maker's post-fill state.
func (e *Engine) persistMaker(ctx context.Context, maker *domain.Order, now int64) error {
	if maker.Remaining() == 0 {
		maker.Status = domain.StatusFilled
	} else {
		maker.Status = domain.StatusPartiallyFilled
	}
	maker.UpdatedAt = now
	if err := e.orders.Update(ctx, maker); err != nil {
		return fmt.Errorf("persist maker %s: %w", maker.ID, err)
	}
	return nil
}

// finalizeTaker rests or discards the taker's remainder and persists its
// final state. A LIMIT remainder rests in the book; a MARKET remainder is
// discarded and its order closed.
func (e *Engine) finalizeTaker(ctx context.Context, b *book.Book, o *domain.Order) error {
	switch {
	case o.Remaining() == 0:
		o.Status = domain.StatusFilled
	case o.Type == domain.TypeLimit:
		if o.Filled > 0 {
			o.Status = domain.StatusPartiallyFilled
		} else {
			o.Status = domain.StatusOpen
		}
		b.Rest(o)
	case o.Filled > 0: // MARKET remainder discarded, never rests
		o.Status = domain.StatusPartiallyFilled
	default:
		o.Status = domain.StatusCancelled
	}

	o.UpdatedAt = o.CreatedAt
	if err := e.orders.Update(ctx, o); err != nil {
		return fmt.Errorf("persist taker %s: %w", o.ID, err)
	}
	return nil
}

func (e *Engine) reject(o *domain.Order, reason string) *SubmitResult {
	observability.RecordOrderRejected(reason)
	return &SubmitResult{Accepted: false, Reason: reason, Order: o}
}
