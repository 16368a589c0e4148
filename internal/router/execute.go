package router

import (
	"context"
	"errors"
	"fmt"

	"github.com/FutureShockco/meeray-sub006/internal/amm"
	"github.com/FutureShockco/meeray-sub006/internal/amount"
	"github.com/FutureShockco/meeray-sub006/internal/domain"
	"github.com/FutureShockco/meeray-sub006/internal/idhash"
	"github.com/FutureShockco/meeray-sub006/internal/observability"
	"github.com/FutureShockco/meeray-sub006/internal/storage"
)

// TradeIntent is one hybrid trade request delivered by the replay driver.
type TradeIntent struct {
	Actor        string
	TokenIn      string
	TokenOut     string
	AmountIn     int64
	MinAmountOut int64
	// Routes overrides the computed plan when the caller supplies an
	// explicit execution, e.g. a resting LIMIT fallback.
	Routes []domain.Route

	BlockHeight int64
	TxIndex     int64
	OpIndex     int64
	Timestamp   int64
}

// LegOutcome records one executed leg for operational reconciliation.
type LegOutcome struct {
	Kind      domain.RouteKind
	AmountIn  int64
	AmountOut int64
	OrderID   string // book legs only
	Filled    bool   // MARKET fully filled / AMM executed
}

// ExecResult reports the outcome of a hybrid trade.
type ExecResult struct {
	Accepted  bool
	Reason    string
	AmountOut int64
	Legs      []LegOutcome
}

// Execute drives a trade intent to completion. The plan (computed or
// caller-supplied) is validated in full — route shape, tick/lot/minNotional
// alignment of every book leg, and the cumulative quoted output against
// minAmountOut — before any leg executes. A MARKET or AMM leg that fails
// mid-way fails the whole trade, with completed legs logged for
// reconciliation; a LIMIT leg that rests unfilled is a valid success.
func (r *Router) Execute(ctx context.Context, intent *TradeIntent) (*ExecResult, error) {
	if intent.AmountIn <= 0 {
		return r.reject(ReasonZeroAmount), nil
	}

	routes := intent.Routes
	if len(routes) == 0 {
		quote, err := r.BestQuote(ctx, intent.TokenIn, intent.TokenOut, intent.AmountIn)
		if err != nil {
			return nil, err
		}
		if quote == nil || len(quote.Routes) == 0 {
			return r.reject(ReasonNoLiquiditySources), nil
		}
		routes = quote.Routes
	}
	if err := domain.ValidateRoutes(routes); err != nil {
		r.logger.Debug().Err(err).Msg("route validation failed")
		return r.reject(ReasonBadRoutes), nil
	}

	legs, reason, err := r.planLegs(ctx, intent, routes)
	if err != nil {
		return nil, err
	}
	if reason != "" {
		return r.reject(reason), nil
	}

	// pre-flight slippage check: the whole trade is rejected before any leg
	// executes, never rolled back after partial execution
	var quoted int64
	for _, leg := range legs {
		quoted += leg.quotedOut
	}
	if quoted < intent.MinAmountOut {
		return r.reject(ReasonSlippage), nil
	}

	result := &ExecResult{Accepted: true}
	for i, leg := range legs {
		outcome, err := r.executeLeg(ctx, intent, leg, i)
		if err != nil {
			return nil, err
		}
		if outcome == nil {
			r.logCompleted(intent, result.Legs)
			return r.reject(ReasonLegFailed), nil
		}
		result.Legs = append(result.Legs, *outcome)
		result.AmountOut += outcome.AmountOut
	}

	observability.RecordHybridTrade()
	r.sink.LogEvent("market", "hybrid_trade", intent.Actor, map[string]any{
		"token_in":   intent.TokenIn,
		"token_out":  intent.TokenOut,
		"amount_in":  intent.AmountIn,
		"amount_out": result.AmountOut,
		"legs":       len(result.Legs),
	})
	return result, nil
}

// plannedLeg is one validated, sized leg awaiting execution.
type plannedLeg struct {
	route     domain.Route
	amountIn  int64
	quotedOut int64
	orderQty  int64 // book legs: order quantity in base units
	pair      *domain.TradingPair
}

// planLegs sizes each route's sub-amount (the final route takes the
// remainder) and validates book legs against their pair's constraints.
// Returns a rejection reason for validation failures.
func (r *Router) planLegs(ctx context.Context, intent *TradeIntent, routes []domain.Route) ([]plannedLeg, string, error) {
	legs := make([]plannedLeg, 0, len(routes))
	remaining := intent.AmountIn

	for i, route := range routes {
		sub := remaining
		if i < len(routes)-1 {
			sub = Allocate(intent.AmountIn, route.Percent)
		}
		if sub <= 0 {
			return nil, ReasonBadRoutes, nil
		}
		remaining -= sub

		leg := plannedLeg{route: route, amountIn: sub}

		switch route.Kind {
		case domain.RouteAMM:
			pool, err := r.amm.Pool(ctx, route.Amm.PoolID)
			if errors.Is(err, storage.ErrNotFound) {
				return nil, ReasonNoLiquiditySources, nil
			}
			if err != nil {
				return nil, "", fmt.Errorf("load pool %s: %w", route.Amm.PoolID, err)
			}
			out, err := amm.Quote(pool, intent.TokenIn, sub)
			if err != nil {
				return nil, ReasonNoLiquiditySources, nil
			}
			leg.quotedOut = out

		case domain.RouteOrderbook:
			pair, err := r.engine.Pair(ctx, route.Book.PairID)
			if errors.Is(err, storage.ErrNotFound) {
				return nil, ReasonNoLiquiditySources, nil
			}
			if err != nil {
				return nil, "", fmt.Errorf("load pair %s: %w", route.Book.PairID, err)
			}
			leg.pair = pair

			qty, quoted, reason, err := r.sizeBookLeg(ctx, intent, pair, route, sub)
			if err != nil {
				return nil, "", err
			}
			if reason != "" {
				return nil, reason, nil
			}
			leg.orderQty = qty
			leg.quotedOut = quoted
		}

		legs = append(legs, leg)
	}
	return legs, "", nil
}

// sizeBookLeg converts a leg's tokenIn sub-amount into an order quantity in
// base units and checks tick/lot/minNotional alignment. Misalignment on any
// book leg rejects the whole trade during validation.
func (r *Router) sizeBookLeg(ctx context.Context, intent *TradeIntent, pair *domain.TradingPair, route domain.Route, sub int64) (qty, quoted int64, reason string, err error) {
	den := amount.Pow10(r.reg.Precision(pair.BaseSymbol)).Int64()

	switch {
	case route.Book.Type == domain.TypeLimit:
		if pair.TickSize > 0 && route.Book.Price%pair.TickSize != 0 {
			return 0, 0, ReasonMisaligned, nil
		}
		if route.Book.Side == domain.SideSell {
			qty = sub
		} else {
			qty, err = amount.MulDiv(sub, den, route.Book.Price)
			if err != nil {
				return 0, 0, "", err
			}
		}
		qty = alignDown(qty, pair.LotSize)
		if qty <= 0 {
			return 0, 0, ReasonMisaligned, nil
		}
		notional, err := amount.MulDiv(route.Book.Price, qty, den)
		if err != nil {
			return 0, 0, "", err
		}
		if notional < pair.MinNotional {
			return 0, 0, ReasonMisaligned, nil
		}
		// a LIMIT leg is quoted at eventual execution: full conversion at
		// its own price
		if route.Book.Side == domain.SideSell {
			quoted = notional
		} else {
			quoted = qty
		}
		return qty, quoted, "", nil

	case route.Book.Side == domain.SideSell:
		qty = alignDown(sub, pair.LotSize)
		if qty <= 0 {
			return 0, 0, ReasonMisaligned, nil
		}
		depth, err := r.engine.Depth(ctx, pair.ID, domain.SideBuy, 0)
		if err != nil {
			return 0, 0, "", err
		}
		quoted, consumed := bookOut(r.reg, pair, domain.SideSell, depth, qty)
		if consumed < qty {
			// not enough bid liquidity to absorb the MARKET leg
			return 0, 0, ReasonNoLiquiditySources, nil
		}
		return qty, quoted, "", nil

	default: // MARKET BUY: spend quote against asks
		depth, err := r.engine.Depth(ctx, pair.ID, domain.SideSell, 0)
		if err != nil {
			return 0, 0, "", err
		}
		baseOut, _ := bookOut(r.reg, pair, domain.SideBuy, depth, sub)
		qty = alignDown(baseOut, pair.LotSize)
		if qty <= 0 {
			return 0, 0, ReasonNoLiquiditySources, nil
		}
		return qty, qty, "", nil
	}
}

// executeLeg runs one leg. A nil outcome with nil error means the leg was
// rejected and the trade must fail.
func (r *Router) executeLeg(ctx context.Context, intent *TradeIntent, leg plannedLeg, seq int) (*LegOutcome, error) {
	switch leg.route.Kind {
	case domain.RouteAMM:
		res, err := r.amm.Swap(ctx, intent.Actor, leg.route.Amm.PoolID, intent.TokenIn, leg.amountIn, 0, intent.Timestamp)
		if err != nil {
			return nil, err
		}
		if !res.Accepted {
			r.logger.Warn().Str("reason", res.Reason).Msg("AMM leg rejected")
			return nil, nil
		}
		observability.RecordRouteLeg(string(domain.RouteAMM))
		return &LegOutcome{
			Kind:      domain.RouteAMM,
			AmountIn:  leg.amountIn,
			AmountOut: res.AmountOut,
			Filled:    true,
		}, nil

	default:
		order := &domain.Order{
			ID:        idhash.OrderID(leg.pair.ID, intent.Actor, intent.BlockHeight, intent.TxIndex, intent.OpIndex, seq),
			PairID:    leg.pair.ID,
			Account:   intent.Actor,
			Side:      leg.route.Book.Side,
			Type:      leg.route.Book.Type,
			Price:     leg.route.Book.Price,
			Quantity:  leg.orderQty,
			CreatedAt: intent.Timestamp,
		}

		res, err := r.engine.Submit(ctx, order)
		if err != nil {
			return nil, err
		}
		if !res.Accepted {
			r.logger.Warn().Str("reason", res.Reason).Msg("book leg rejected")
			return nil, nil
		}

		filled := order.Remaining() == 0
		// partial or no immediate fill is a valid success for a LIMIT leg,
		// but not for a MARKET leg
		if order.Type == domain.TypeMarket && !filled {
			return nil, nil
		}

		out := legOutput(leg.pair, order, res.Trades)
		observability.RecordRouteLeg(string(domain.RouteOrderbook))
		return &LegOutcome{
			Kind:      domain.RouteOrderbook,
			AmountIn:  leg.amountIn,
			AmountOut: out,
			OrderID:   order.ID,
			Filled:    filled,
		}, nil
	}
}

// legOutput sums what the trader actually received on a book leg: base for
// BUY, quote totals for SELL.
func legOutput(pair *domain.TradingPair, order *domain.Order, trades []*domain.Trade) int64 {
	if order.Side == domain.SideBuy {
		return order.Filled
	}
	var total int64
	for _, t := range trades {
		total += t.Total
	}
	return total
}

// logCompleted records legs that settled before a later leg failed, for
// operational reconciliation.
func (r *Router) logCompleted(intent *TradeIntent, legs []LegOutcome) {
	for _, leg := range legs {
		r.logger.Error().
			Str("actor", intent.Actor).
			Str("kind", string(leg.Kind)).
			Int64("amount_in", leg.AmountIn).
			Int64("amount_out", leg.AmountOut).
			Str("order", leg.OrderID).
			Msg("hybrid trade failed after leg completed")
	}
}

func alignDown(v, step int64) int64 {
	if step <= 0 {
		return v
	}
	return v - v%step
}

func (r *Router) reject(reason string) *ExecResult {
	observability.RecordHybridRejected(reason)
	return &ExecResult{Accepted: false, Reason: reason}
}
