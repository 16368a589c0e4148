package domain

import "math/big"

// LiquidityPosition tracks one provider's share of a pool. Unclaimed fees
// are derived by comparing the pool's global fee-growth accumulators to the
// position's checkpoints, scaled by the LP balance.
type LiquidityPosition struct {
	Account        string   // providing account
	PoolID         string   // FK to liquidity_pools
	LPTokens       int64    // LP-token balance
	FeeCheckpointA *big.Int // pool FeeGrowthA at last settlement
	FeeCheckpointB *big.Int // pool FeeGrowthB at last settlement
	UnclaimedA     int64    // settled but unpaid fees, tokenA smallest units
	UnclaimedB     int64    // settled but unpaid fees, tokenB smallest units
	UpdatedAt      int64    // Unix timestamp in milliseconds
}

// PositionKey builds the composite key for an account's pool position.
func PositionKey(account, poolID string) string {
	return account + "|" + poolID
}

// Copy returns a detached copy, including fee checkpoints.
func (p *LiquidityPosition) Copy() *LiquidityPosition {
	c := *p
	if p.FeeCheckpointA != nil {
		c.FeeCheckpointA = new(big.Int).Set(p.FeeCheckpointA)
	}
	if p.FeeCheckpointB != nil {
		c.FeeCheckpointB = new(big.Int).Set(p.FeeCheckpointB)
	}
	return &c
}
