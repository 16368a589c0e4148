package amm

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/FutureShockco/meeray-sub006/internal/domain"
	"github.com/FutureShockco/meeray-sub006/internal/ledger"
	"github.com/FutureShockco/meeray-sub006/internal/observability"
	"github.com/FutureShockco/meeray-sub006/internal/storage"
)

// SwapResult reports the outcome of a swap.
type SwapResult struct {
	Accepted  bool
	Reason    string
	AmountOut int64
}

// Swap prices and executes a swap against a pool. Rejects with a reason if
// the output falls below minAmountOut (slippage protection) or the actor
// cannot fund the input. On success both reserves and the input token's
// fee-growth accumulator are updated in one pool write.
func (a *Amm) Swap(ctx context.Context, actor, poolID, tokenIn string, amountIn, minAmountOut int64, now int64) (*SwapResult, error) {
	pool, err := a.pools.GetByID(ctx, poolID)
	if errors.Is(err, storage.ErrNotFound) {
		return a.rejectSwap(ReasonPoolNotFound), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load pool %s: %w", poolID, err)
	}

	if amountIn <= 0 {
		return a.rejectSwap(ReasonZeroAmount), nil
	}
	if tokenIn != pool.TokenA && tokenIn != pool.TokenB {
		return a.rejectSwap(ReasonNotPoolToken), nil
	}
	if pool.ReserveA <= 0 || pool.ReserveB <= 0 || pool.TotalLPTokens <= 0 {
		return a.rejectSwap(ReasonNoLiquidity), nil
	}

	amountOut, err := Quote(pool, tokenIn, amountIn)
	if err != nil {
		return nil, err
	}
	if amountOut < minAmountOut {
		return a.rejectSwap(ReasonSlippage), nil
	}
	if amountOut <= 0 {
		return a.rejectSwap(ReasonNoLiquidity), nil
	}

	tokenOut := otherToken(pool, tokenIn)

	var plan ledger.Plan
	plan.Add(actor, tokenIn, -amountIn)
	plan.Add(actor, tokenOut, amountOut)
	if err := a.ledger.Validate(ctx, &plan); err != nil {
		if errors.Is(err, ledger.ErrInsufficientBalance) {
			return a.rejectSwap(ReasonInsufficientFund), nil
		}
		return nil, err
	}
	if err := a.ledger.Apply(ctx, &plan, now); err != nil {
		return nil, fmt.Errorf("settle swap: %w", err)
	}

	// the full input, fee included, joins the input reserve; the fee's
	// per-LP share accrues on the input token's accumulator
	feeCollected := amountIn - afterFee(amountIn, pool.FeeBps)
	growth := new(big.Int).Mul(big.NewInt(feeCollected), domain.FeeGrowthScale)
	growth.Quo(growth, big.NewInt(pool.TotalLPTokens))

	if tokenIn == pool.TokenA {
		pool.ReserveA += amountIn
		pool.ReserveB -= amountOut
		pool.FeeGrowthA.Add(pool.FeeGrowthA, growth)
	} else {
		pool.ReserveB += amountIn
		pool.ReserveA -= amountOut
		pool.FeeGrowthB.Add(pool.FeeGrowthB, growth)
	}

	if err := a.pools.Update(ctx, pool); err != nil {
		// balances moved but the pool write failed: compensate and report
		var inverse ledger.Plan
		inverse.Add(actor, tokenIn, amountIn)
		inverse.Add(actor, tokenOut, -amountOut)
		if rbErr := a.ledger.Apply(ctx, &inverse, now); rbErr != nil {
			a.logger.Error().
				Str("pool", poolID).
				Str("actor", actor).
				AnErr("cause", err).
				Err(rbErr).
				Msg("CRITICAL: swap compensation failed, ledger inconsistent")
		}
		observability.RecordSettlementRollback()
		return nil, fmt.Errorf("persist pool %s after swap: %w", poolID, err)
	}

	observability.RecordSwapExecuted()
	a.sink.LogEvent("defi", "swap_executed", actor, map[string]any{
		"pool":       poolID,
		"token_in":   tokenIn,
		"amount_in":  amountIn,
		"amount_out": amountOut,
	})
	return &SwapResult{Accepted: true, AmountOut: amountOut}, nil
}

func (a *Amm) rejectSwap(reason string) *SwapResult {
	observability.RecordSwapRejected(reason)
	return &SwapResult{Accepted: false, Reason: reason}
}
