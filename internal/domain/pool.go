package domain

import "math/big"

// FeeGrowthScale scales per-LP-token fee growth so integer division does not
// lose sub-unit fees. Accumulators only ever increase.
var FeeGrowthScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// LiquidityPool holds two-token reserves under the constant-product
// invariant. Reserves are integers in smallest units and never negative; the
// product reserveA*reserveB never decreases except through proportional
// withdrawal.
type LiquidityPool struct {
	ID            string   // "<tokenA>_<tokenB>" with symbols sorted
	TokenA        string   // first token symbol (lexicographically smaller)
	TokenB        string   // second token symbol
	ReserveA      int64    // tokenA smallest units
	ReserveB      int64    // tokenB smallest units
	TotalLPTokens int64    // outstanding LP-token supply
	FeeBps        int64    // fee tier in basis points
	FeeGrowthA    *big.Int // cumulative fee growth per LP token, tokenA, scaled by FeeGrowthScale
	FeeGrowthB    *big.Int // cumulative fee growth per LP token, tokenB, scaled by FeeGrowthScale
	CreatedAt     int64    // record creation timestamp (ms)
}

// PoolID builds the canonical pool id for two token symbols.
// Symbols are ordered lexicographically so both directions map to one pool.
func PoolID(tokenA, tokenB string) string {
	if tokenB < tokenA {
		tokenA, tokenB = tokenB, tokenA
	}
	return tokenA + "_" + tokenB
}

// Copy returns a detached copy, including fee-growth accumulators.
func (p *LiquidityPool) Copy() *LiquidityPool {
	c := *p
	if p.FeeGrowthA != nil {
		c.FeeGrowthA = new(big.Int).Set(p.FeeGrowthA)
	}
	if p.FeeGrowthB != nil {
		c.FeeGrowthB = new(big.Int).Set(p.FeeGrowthB)
	}
	return &c
}
