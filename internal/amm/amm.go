// Package amm owns constant-product liquidity pools: swap pricing and
// execution, liquidity provisioning, and per-LP fee accrual. All math is
// integer-only with truncating division; the reserve product never
// decreases except through withdrawal.
package amm

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/rs/zerolog"

	"github.com/FutureShockco/meeray-sub006/internal/domain"
	"github.com/FutureShockco/meeray-sub006/internal/events"
	"github.com/FutureShockco/meeray-sub006/internal/ledger"
	"github.com/FutureShockco/meeray-sub006/internal/storage"
)

// Rejection reasons returned to callers.
const (
	ReasonPoolNotFound     = "pool not found"
	ReasonPoolExists       = "pool already exists"
	ReasonZeroAmount       = "amount must be positive"
	ReasonNotPoolToken     = "token not in pool"
	ReasonNoLiquidity      = "pool has no liquidity"
	ReasonSlippage         = "output below minimum"
	ReasonRatioOutOfBand   = "deposit ratio outside tolerance"
	ReasonNoPosition       = "no liquidity position"
	ReasonNotEnoughLP      = "LP token balance too low"
	ReasonInsufficientFund = "insufficient balance"
)

// RatioTolerancePercent bounds how far a follow-up deposit may deviate from
// the current reserve ratio.
const RatioTolerancePercent = 1

// Amm manages every liquidity pool.
type Amm struct {
	pools     storage.PoolStore
	positions storage.PositionStore
	ledger    *ledger.Ledger
	sink      events.Sink
	logger    zerolog.Logger
}

// New creates the AMM component over the given stores.
func New(
	pools storage.PoolStore,
	positions storage.PositionStore,
	led *ledger.Ledger,
	sink events.Sink,
	logger zerolog.Logger,
) *Amm {
	return &Amm{pools: pools, positions: positions, ledger: led, sink: sink, logger: logger}
}

// CreateResult reports pool creation.
type CreateResult struct {
	Accepted bool
	Reason   string
	Pool     *domain.LiquidityPool
}

// CreatePool registers an empty pool for two tokens. Symbols are stored in
// lexicographic order so both directions resolve to one pool.
func (a *Amm) CreatePool(ctx context.Context, actor, tokenA, tokenB string, feeBps int64, now int64) (*CreateResult, error) {
	if tokenA == tokenB || tokenA == "" || tokenB == "" {
		return &CreateResult{Accepted: false, Reason: ReasonNotPoolToken}, nil
	}
	if tokenB < tokenA {
		tokenA, tokenB = tokenB, tokenA
	}

	pool := &domain.LiquidityPool{
		ID:         domain.PoolID(tokenA, tokenB),
		TokenA:     tokenA,
		TokenB:     tokenB,
		FeeBps:     feeBps,
		FeeGrowthA: new(big.Int),
		FeeGrowthB: new(big.Int),
		CreatedAt:  now,
	}

	err := a.pools.Insert(ctx, pool)
	if errors.Is(err, storage.ErrDuplicateKey) {
		return &CreateResult{Accepted: false, Reason: ReasonPoolExists}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("persist pool %s: %w", pool.ID, err)
	}

	a.sink.LogEvent("defi", "pool_created", actor, map[string]any{
		"pool":    pool.ID,
		"fee_bps": feeBps,
	})
	return &CreateResult{Accepted: true, Pool: pool}, nil
}

// Pool loads a pool record.
func (a *Amm) Pool(ctx context.Context, poolID string) (*domain.LiquidityPool, error) {
	return a.pools.GetByID(ctx, poolID)
}

// PoolByTokens loads the pool for two tokens in either order.
func (a *Amm) PoolByTokens(ctx context.Context, tokenA, tokenB string) (*domain.LiquidityPool, error) {
	return a.pools.GetByTokens(ctx, tokenA, tokenB)
}

// Quote prices a swap without executing it:
// amountOut = reserveOut - floor(reserveIn*reserveOut / (reserveIn + amountInAfterFee))
// where amountInAfterFee = amountIn * (10000 - feeBps) / 10000.
func Quote(pool *domain.LiquidityPool, tokenIn string, amountIn int64) (amountOut int64, err error) {
	reserveIn, reserveOut, err := orientReserves(pool, tokenIn)
	if err != nil {
		return 0, err
	}
	if reserveIn <= 0 || reserveOut <= 0 {
		return 0, fmt.Errorf("pool %s: %s", pool.ID, ReasonNoLiquidity)
	}
	if amountIn <= 0 {
		return 0, nil
	}

	afterFee := afterFee(amountIn, pool.FeeBps)

	// floor(reserveIn*reserveOut / (reserveIn + afterFee)), exact in big.Int
	num := new(big.Int).Mul(big.NewInt(reserveIn), big.NewInt(reserveOut))
	den := new(big.Int).Add(big.NewInt(reserveIn), big.NewInt(afterFee))
	kept := num.Quo(num, den)

	out := new(big.Int).Sub(big.NewInt(reserveOut), kept)
	if !out.IsInt64() {
		return 0, fmt.Errorf("pool %s: quote overflows", pool.ID)
	}
	return out.Int64(), nil
}

// afterFee applies the basis-point fee with truncation.
func afterFee(amountIn, feeBps int64) int64 {
	v := new(big.Int).Mul(big.NewInt(amountIn), big.NewInt(10000-feeBps))
	return v.Quo(v, big.NewInt(10000)).Int64()
}

// orientReserves returns (reserveIn, reserveOut) for a given input token.
func orientReserves(pool *domain.LiquidityPool, tokenIn string) (int64, int64, error) {
	switch tokenIn {
	case pool.TokenA:
		return pool.ReserveA, pool.ReserveB, nil
	case pool.TokenB:
		return pool.ReserveB, pool.ReserveA, nil
	default:
		return 0, 0, fmt.Errorf("token %s: %s %s", tokenIn, ReasonNotPoolToken, pool.ID)
	}
}

// otherToken returns the pool token that is not tokenIn.
func otherToken(pool *domain.LiquidityPool, tokenIn string) string {
	if tokenIn == pool.TokenA {
		return pool.TokenB
	}
	return pool.TokenA
}
