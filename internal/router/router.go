// Package router aggregates AMM and order-book liquidity for one trading
// pair of tokens, computes best execution (single-source or split), and
// drives hybrid trades to completion with slippage protection. The router
// owns no persistent state; every mutation is delegated to the AMM or the
// matching engine.
package router

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/FutureShockco/meeray-sub006/internal/amm"
	"github.com/FutureShockco/meeray-sub006/internal/amount"
	"github.com/FutureShockco/meeray-sub006/internal/book"
	"github.com/FutureShockco/meeray-sub006/internal/domain"
	"github.com/FutureShockco/meeray-sub006/internal/engine"
	"github.com/FutureShockco/meeray-sub006/internal/events"
	"github.com/FutureShockco/meeray-sub006/internal/storage"
)

// Rejection reasons returned to callers.
const (
	ReasonNoLiquiditySources = "no liquidity source for token pair"
	ReasonZeroAmount         = "amount must be positive"
	ReasonSlippage           = "quoted output below minimum"
	ReasonBadRoutes          = "invalid route list"
	ReasonLegFailed          = "route leg failed"
	ReasonMisaligned         = "order leg violates pair constraints"
)

// Router computes and executes best-execution plans.
type Router struct {
	reg    amount.Registry
	amm    *amm.Amm
	engine *engine.Engine
	sink   events.Sink
	logger zerolog.Logger
}

// New creates a router over the AMM and matching engine.
func New(reg amount.Registry, a *amm.Amm, e *engine.Engine, sink events.Sink, logger zerolog.Logger) *Router {
	return &Router{reg: reg, amm: a, engine: e, sink: sink, logger: logger}
}

// Allocate returns floor(amountIn * pct / 100), the sub-amount of one
// route leg. The final leg of a trade takes the remainder instead so the
// legs always sum to amountIn.
func Allocate(amountIn, pct int64) int64 {
	v, err := amount.MulDiv(amountIn, pct, 100)
	if err != nil {
		return 0
	}
	return v
}

// Source is one liquidity source connecting two tokens.
type Source struct {
	Kind domain.RouteKind
	Pool *domain.LiquidityPool // set for AMM sources
	Pair *domain.TradingPair   // set for ORDERBOOK sources
	// Depth is the opposing side of the book the trade would consume,
	// best price first.
	Depth []book.Level
}

// LiquiditySources enumerates the AMM pool and order-book pair connecting
// tokenIn and tokenOut. Single-hop only: sources must touch both tokens
// directly.
func (r *Router) LiquiditySources(ctx context.Context, tokenIn, tokenOut string) ([]Source, error) {
	var sources []Source

	pool, err := r.amm.PoolByTokens(ctx, tokenIn, tokenOut)
	if err == nil {
		sources = append(sources, Source{Kind: domain.RouteAMM, Pool: pool})
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("load pool: %w", err)
	}

	pair, err := r.pairFor(ctx, tokenIn, tokenOut)
	if err == nil {
		side := sideFor(pair, tokenIn)
		depthSide := domain.SideSell // BUY consumes asks
		if side == domain.SideSell {
			depthSide = domain.SideBuy
		}
		depth, err := r.engine.Depth(ctx, pair.ID, depthSide, 0)
		if err != nil {
			return nil, err
		}
		sources = append(sources, Source{Kind: domain.RouteOrderbook, Pair: pair, Depth: depth})
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("load pair: %w", err)
	}

	return sources, nil
}

// pairFor resolves the trading pair touching both tokens.
func (r *Router) pairFor(ctx context.Context, tokenIn, tokenOut string) (*domain.TradingPair, error) {
	pair, err := r.engine.Pair(ctx, domain.PairID(tokenOut, tokenIn))
	if err == nil {
		return pair, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	return r.engine.Pair(ctx, domain.PairID(tokenIn, tokenOut))
}

// sideFor returns the trader's side on a pair when spending tokenIn:
// spending the quote token buys the base; spending the base sells it.
func sideFor(pair *domain.TradingPair, tokenIn string) domain.OrderSide {
	if tokenIn == pair.QuoteSymbol {
		return domain.SideBuy
	}
	return domain.SideSell
}

// bookOut walks the opposing depth and returns how much tokenOut the book
// yields for spending amountIn, plus the base-unit order quantity that
// consumes exactly that liquidity. Every conversion mirrors the trade-total
// formula, floor(price*qty/10^baseDecimals), so quotes equal fills.
func bookOut(reg amount.Registry, pair *domain.TradingPair, side domain.OrderSide, depth []book.Level, amountIn int64) (amountOut, orderQty int64) {
	den := amount.Pow10(reg.Precision(pair.BaseSymbol)).Int64()

	if side == domain.SideSell {
		// spend base against bids, receive quote
		remaining := amountIn
		for _, lvl := range depth {
			if remaining <= 0 {
				break
			}
			take := lvl.Quantity
			if take > remaining {
				take = remaining
			}
			total, err := amount.MulDiv(lvl.Price, take, den)
			if err != nil {
				break
			}
			amountOut += total
			orderQty += take
			remaining -= take
		}
		return amountOut, orderQty
	}

	// spend quote against asks, receive base
	remaining := amountIn
	for _, lvl := range depth {
		if remaining <= 0 {
			break
		}
		affordable, err := amount.MulDiv(remaining, den, lvl.Price)
		if err != nil {
			break
		}
		take := lvl.Quantity
		if take > affordable {
			take = affordable
		}
		if take <= 0 {
			break
		}
		cost, err := amount.MulDiv(lvl.Price, take, den)
		if err != nil {
			break
		}
		amountOut += take
		orderQty += take
		remaining -= cost
		if take < lvl.Quantity {
			break
		}
	}
	return amountOut, orderQty
}
