package router

import (
	"context"

	"github.com/FutureShockco/meeray-sub006/internal/amm"
	"github.com/FutureShockco/meeray-sub006/internal/domain"
)

// QuoteResult is a computed best-execution plan. Route allocations always
// sum to 100.
type QuoteResult struct {
	AmountOut int64
	Routes    []domain.Route
}

// BestQuote evaluates pure-AMM execution, pure-order-book execution, and
// every whole-percent split of amountIn across both, and returns the plan
// with the greatest total output. The scan is integer-only and bounded, so
// every replica picks the same plan. Returns a nil result when no source
// connects the tokens.
func (r *Router) BestQuote(ctx context.Context, tokenIn, tokenOut string, amountIn int64) (*QuoteResult, error) {
	sources, err := r.LiquiditySources(ctx, tokenIn, tokenOut)
	if err != nil {
		return nil, err
	}

	var pool *domain.LiquidityPool
	var bookSrc *Source
	for i := range sources {
		switch sources[i].Kind {
		case domain.RouteAMM:
			pool = sources[i].Pool
		case domain.RouteOrderbook:
			bookSrc = &sources[i]
		}
	}
	if pool == nil && bookSrc == nil {
		return nil, nil
	}

	ammOut := func(in int64) int64 {
		if pool == nil || in <= 0 {
			return 0
		}
		out, err := amm.Quote(pool, tokenIn, in)
		if err != nil {
			return 0
		}
		return out
	}
	bookOutFor := func(in int64) int64 {
		if bookSrc == nil || in <= 0 {
			return 0
		}
		side := sideFor(bookSrc.Pair, tokenIn)
		out, _ := bookOut(r.reg, bookSrc.Pair, side, bookSrc.Depth, in)
		return out
	}

	// single-source candidates first, then splits; strict improvement keeps
	// the scan deterministic and favors fewer legs on ties
	bestOut := ammOut(amountIn)
	bestPct := int64(100)
	if pool == nil {
		bestOut, bestPct = bookOutFor(amountIn), 0
	} else if bookSrc != nil {
		if out := bookOutFor(amountIn); out > bestOut {
			bestOut, bestPct = out, 0
		}
		for pct := int64(1); pct < 100; pct++ {
			inAmm := Allocate(amountIn, pct)
			total := ammOut(inAmm) + bookOutFor(amountIn-inAmm)
			if total > bestOut {
				bestOut, bestPct = total, pct
			}
		}
	}

	if bestOut <= 0 {
		return &QuoteResult{AmountOut: 0}, nil
	}

	result := &QuoteResult{AmountOut: bestOut}
	switch {
	case bestPct == 100:
		result.Routes = []domain.Route{domain.NewAmmRoute(100, pool.ID)}
	case bestPct == 0:
		side := sideFor(bookSrc.Pair, tokenIn)
		result.Routes = []domain.Route{
			domain.NewBookRoute(100, bookSrc.Pair.ID, side, domain.TypeMarket, 0),
		}
	default:
		side := sideFor(bookSrc.Pair, tokenIn)
		result.Routes = []domain.Route{
			domain.NewAmmRoute(bestPct, pool.ID),
			domain.NewBookRoute(100-bestPct, bookSrc.Pair.ID, side, domain.TypeMarket, 0),
		}
	}
	return result, nil
}
