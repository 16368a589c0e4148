package amm

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/FutureShockco/meeray-sub006/internal/amount"
	"github.com/FutureShockco/meeray-sub006/internal/domain"
	"github.com/FutureShockco/meeray-sub006/internal/ledger"
	"github.com/FutureShockco/meeray-sub006/internal/observability"
	"github.com/FutureShockco/meeray-sub006/internal/storage"
)

// LiquidityResult reports the outcome of a liquidity operation.
type LiquidityResult struct {
	Accepted bool
	Reason   string
	LPTokens int64 // minted (add) or burned (remove)
	AmountA  int64 // tokenA moved
	AmountB  int64 // tokenB moved
	FeesA    int64 // fees paid out (remove/claim)
	FeesB    int64
}

// AddLiquidity deposits amountA/amountB into a pool. The first deposit sets
// the reserves as-is and mints floor(sqrt(amountA*amountB)) LP tokens; later
// deposits must match the reserve ratio within RatioTolerancePercent or are
// rejected, and mint proportionally to the smaller-valued side.
func (a *Amm) AddLiquidity(ctx context.Context, actor, poolID string, amountA, amountB int64, now int64) (*LiquidityResult, error) {
	pool, err := a.pools.GetByID(ctx, poolID)
	if errors.Is(err, storage.ErrNotFound) {
		return &LiquidityResult{Accepted: false, Reason: ReasonPoolNotFound}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load pool %s: %w", poolID, err)
	}
	if amountA <= 0 || amountB <= 0 {
		return &LiquidityResult{Accepted: false, Reason: ReasonZeroAmount}, nil
	}

	var minted int64
	if pool.TotalLPTokens == 0 {
		minted = amount.Sqrt(amountA, amountB)
	} else {
		if !ratioWithinTolerance(amountA, amountB, pool.ReserveA, pool.ReserveB) {
			return &LiquidityResult{Accepted: false, Reason: ReasonRatioOutOfBand}, nil
		}
		mintA, err := amount.MulDiv(amountA, pool.TotalLPTokens, pool.ReserveA)
		if err != nil {
			return nil, err
		}
		mintB, err := amount.MulDiv(amountB, pool.TotalLPTokens, pool.ReserveB)
		if err != nil {
			return nil, err
		}
		minted = mintA
		if mintB < minted {
			minted = mintB
		}
	}
	if minted <= 0 {
		return &LiquidityResult{Accepted: false, Reason: ReasonZeroAmount}, nil
	}

	var plan ledger.Plan
	plan.Add(actor, pool.TokenA, -amountA)
	plan.Add(actor, pool.TokenB, -amountB)
	if err := a.ledger.Validate(ctx, &plan); err != nil {
		if errors.Is(err, ledger.ErrInsufficientBalance) {
			return &LiquidityResult{Accepted: false, Reason: ReasonInsufficientFund}, nil
		}
		return nil, err
	}

	pos, err := a.positionFor(ctx, actor, pool, now)
	if err != nil {
		return nil, err
	}
	settleFees(pool, pos)

	if err := a.ledger.Apply(ctx, &plan, now); err != nil {
		return nil, fmt.Errorf("settle deposit: %w", err)
	}

	pool.ReserveA += amountA
	pool.ReserveB += amountB
	pool.TotalLPTokens += minted
	pos.LPTokens += minted
	pos.UpdatedAt = now

	if err := a.persistPoolAndPosition(ctx, pool, pos); err != nil {
		return nil, err
	}

	observability.RecordLiquidityAdd()
	a.sink.LogEvent("defi", "liquidity_added", actor, map[string]any{
		"pool":      poolID,
		"amount_a":  amountA,
		"amount_b":  amountB,
		"lp_minted": minted,
	})
	return &LiquidityResult{Accepted: true, LPTokens: minted, AmountA: amountA, AmountB: amountB}, nil
}

// RemoveLiquidity burns LP tokens and returns each reserve proportionally,
// settling the position's unclaimed fees first.
func (a *Amm) RemoveLiquidity(ctx context.Context, actor, poolID string, lpTokens int64, now int64) (*LiquidityResult, error) {
	pool, err := a.pools.GetByID(ctx, poolID)
	if errors.Is(err, storage.ErrNotFound) {
		return &LiquidityResult{Accepted: false, Reason: ReasonPoolNotFound}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load pool %s: %w", poolID, err)
	}
	if lpTokens <= 0 {
		return &LiquidityResult{Accepted: false, Reason: ReasonZeroAmount}, nil
	}

	pos, err := a.positions.Get(ctx, actor, poolID)
	if errors.Is(err, storage.ErrNotFound) {
		return &LiquidityResult{Accepted: false, Reason: ReasonNoPosition}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load position: %w", err)
	}
	if pos.LPTokens < lpTokens {
		return &LiquidityResult{Accepted: false, Reason: ReasonNotEnoughLP}, nil
	}

	settleFees(pool, pos)
	feesA, feesB := pos.UnclaimedA, pos.UnclaimedB

	// fees leave the reserves first; the proportional share prices what
	// remains, so a full withdrawal cannot overdraw the pool. Only this
	// position's unclaimed fees are netted out: fees accrued to positions
	// that have not settled yet are still inside the reserves and flow
	// through the proportional share, skewing payouts toward whoever
	// withdraws first.
	outA, err := amount.MulDiv(lpTokens, pool.ReserveA-feesA, pool.TotalLPTokens)
	if err != nil {
		return nil, err
	}
	outB, err := amount.MulDiv(lpTokens, pool.ReserveB-feesB, pool.TotalLPTokens)
	if err != nil {
		return nil, err
	}

	var plan ledger.Plan
	plan.Add(actor, pool.TokenA, outA+feesA)
	plan.Add(actor, pool.TokenB, outB+feesB)
	if err := a.ledger.Apply(ctx, &plan, now); err != nil {
		return nil, fmt.Errorf("settle withdrawal: %w", err)
	}

	pool.ReserveA -= outA + feesA
	pool.ReserveB -= outB + feesB
	pool.TotalLPTokens -= lpTokens
	pos.LPTokens -= lpTokens
	pos.UnclaimedA, pos.UnclaimedB = 0, 0
	pos.UpdatedAt = now

	if pos.LPTokens == 0 {
		if err := a.positions.Delete(ctx, actor, poolID); err != nil {
			return nil, fmt.Errorf("delete position: %w", err)
		}
		if err := a.pools.Update(ctx, pool); err != nil {
			return nil, fmt.Errorf("persist pool %s: %w", poolID, err)
		}
	} else if err := a.persistPoolAndPosition(ctx, pool, pos); err != nil {
		return nil, err
	}

	observability.RecordLiquidityRemove()
	a.sink.LogEvent("defi", "liquidity_removed", actor, map[string]any{
		"pool":      poolID,
		"lp_burned": lpTokens,
		"amount_a":  outA,
		"amount_b":  outB,
		"fees_a":    feesA,
		"fees_b":    feesB,
	})
	return &LiquidityResult{
		Accepted: true,
		LPTokens: lpTokens,
		AmountA:  outA,
		AmountB:  outB,
		FeesA:    feesA,
		FeesB:    feesB,
	}, nil
}

// ClaimFees pays out a position's accrued fees without touching its LP
// balance.
func (a *Amm) ClaimFees(ctx context.Context, actor, poolID string, now int64) (*LiquidityResult, error) {
	pool, err := a.pools.GetByID(ctx, poolID)
	if errors.Is(err, storage.ErrNotFound) {
		return &LiquidityResult{Accepted: false, Reason: ReasonPoolNotFound}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load pool %s: %w", poolID, err)
	}

	pos, err := a.positions.Get(ctx, actor, poolID)
	if errors.Is(err, storage.ErrNotFound) {
		return &LiquidityResult{Accepted: false, Reason: ReasonNoPosition}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load position: %w", err)
	}

	settleFees(pool, pos)
	feesA, feesB := pos.UnclaimedA, pos.UnclaimedB
	if feesA == 0 && feesB == 0 {
		return &LiquidityResult{Accepted: true}, nil
	}

	var plan ledger.Plan
	plan.Add(actor, pool.TokenA, feesA)
	plan.Add(actor, pool.TokenB, feesB)
	if err := a.ledger.Apply(ctx, &plan, now); err != nil {
		return nil, fmt.Errorf("settle fee claim: %w", err)
	}

	pool.ReserveA -= feesA
	pool.ReserveB -= feesB
	pos.UnclaimedA, pos.UnclaimedB = 0, 0
	pos.UpdatedAt = now

	if err := a.persistPoolAndPosition(ctx, pool, pos); err != nil {
		return nil, err
	}

	observability.RecordFeeClaim()
	a.sink.LogEvent("defi", "fees_claimed", actor, map[string]any{
		"pool":   poolID,
		"fees_a": feesA,
		"fees_b": feesB,
	})
	return &LiquidityResult{Accepted: true, FeesA: feesA, FeesB: feesB}, nil
}

// settleFees rolls a position's checkpoints forward to the pool's current
// accumulators, crediting the difference to the position's unclaimed fees:
// unclaimed += (feeGrowthGlobal - checkpoint) * lpBalance / SCALE.
func settleFees(pool *domain.LiquidityPool, pos *domain.LiquidityPosition) {
	if pos.LPTokens > 0 {
		pos.UnclaimedA += accrued(pool.FeeGrowthA, pos.FeeCheckpointA, pos.LPTokens)
		pos.UnclaimedB += accrued(pool.FeeGrowthB, pos.FeeCheckpointB, pos.LPTokens)
	}
	pos.FeeCheckpointA = new(big.Int).Set(pool.FeeGrowthA)
	pos.FeeCheckpointB = new(big.Int).Set(pool.FeeGrowthB)
}

func accrued(global, checkpoint *big.Int, lpTokens int64) int64 {
	delta := new(big.Int).Sub(global, checkpoint)
	if delta.Sign() <= 0 {
		return 0
	}
	delta.Mul(delta, big.NewInt(lpTokens))
	delta.Quo(delta, domain.FeeGrowthScale)
	return delta.Int64()
}

// ratioWithinTolerance checks |amountB*reserveA - amountA*reserveB| against
// RatioTolerancePercent of the expected amountA*reserveB, cross-multiplied
// so no division is involved.
func ratioWithinTolerance(amountA, amountB, reserveA, reserveB int64) bool {
	lhs := new(big.Int).Mul(big.NewInt(amountB), big.NewInt(reserveA))
	rhs := new(big.Int).Mul(big.NewInt(amountA), big.NewInt(reserveB))
	diff := new(big.Int).Sub(lhs, rhs)
	diff.Abs(diff)
	diff.Mul(diff, big.NewInt(100))

	bound := new(big.Int).Mul(rhs, big.NewInt(RatioTolerancePercent))
	return diff.Cmp(bound) <= 0
}

// positionFor loads or initializes the actor's position on a pool.
func (a *Amm) positionFor(ctx context.Context, actor string, pool *domain.LiquidityPool, now int64) (*domain.LiquidityPosition, error) {
	pos, err := a.positions.Get(ctx, actor, pool.ID)
	if err == nil {
		return pos, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("load position: %w", err)
	}
	return &domain.LiquidityPosition{
		Account:        actor,
		PoolID:         pool.ID,
		FeeCheckpointA: new(big.Int).Set(pool.FeeGrowthA),
		FeeCheckpointB: new(big.Int).Set(pool.FeeGrowthB),
		UpdatedAt:      now,
	}, nil
}

func (a *Amm) persistPoolAndPosition(ctx context.Context, pool *domain.LiquidityPool, pos *domain.LiquidityPosition) error {
	if err := a.pools.Update(ctx, pool); err != nil {
		return fmt.Errorf("persist pool %s: %w", pool.ID, err)
	}
	if err := a.positions.Upsert(ctx, pos); err != nil {
		return fmt.Errorf("persist position: %w", err)
	}
	return nil
}
