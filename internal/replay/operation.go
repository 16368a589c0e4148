// Package replay applies an ordered operation stream to the trading core.
// Given identical streams, every replica reaches bit-identical balances,
// books, and pools.
package replay

import (
	"fmt"

	"github.com/FutureShockco/meeray-sub006/internal/domain"
)

// OpType discriminates the operation union.
type OpType string

// Operation type constants.
const (
	OpTypePoolCreate      OpType = "pool_create"
	OpTypeAddLiquidity    OpType = "add_liquidity"
	OpTypeRemoveLiquidity OpType = "remove_liquidity"
	OpTypeClaimFees       OpType = "claim_fees"
	OpTypeSwap            OpType = "swap"
	OpTypeOrderSubmit     OpType = "order_submit"
	OpTypeOrderCancel     OpType = "order_cancel"
	OpTypeTrade           OpType = "trade"
)

// PoolCreateOp creates a liquidity pool and its companion trading pair.
type PoolCreateOp struct {
	TokenA      string `json:"token_a"`
	TokenB      string `json:"token_b"`
	FeeBps      int64  `json:"fee_bps"`
	TickSize    int64  `json:"tick_size"`
	LotSize     int64  `json:"lot_size"`
	MinNotional int64  `json:"min_notional"`
}

// AddLiquidityOp deposits both tokens into a pool.
type AddLiquidityOp struct {
	PoolID  string `json:"pool_id"`
	AmountA int64  `json:"amount_a"`
	AmountB int64  `json:"amount_b"`
}

// RemoveLiquidityOp burns LP tokens for a proportional withdrawal.
type RemoveLiquidityOp struct {
	PoolID   string `json:"pool_id"`
	LPTokens int64  `json:"lp_tokens"`
}

// ClaimFeesOp settles a position's unclaimed fees.
type ClaimFeesOp struct {
	PoolID string `json:"pool_id"`
}

// SwapOp executes a direct pool swap.
type SwapOp struct {
	PoolID       string `json:"pool_id"`
	TokenIn      string `json:"token_in"`
	AmountIn     int64  `json:"amount_in"`
	MinAmountOut int64  `json:"min_amount_out"`
}

// OrderSubmitOp places an order on the book.
type OrderSubmitOp struct {
	PairID   string           `json:"pair_id"`
	Side     domain.OrderSide `json:"side"`
	Type     domain.OrderType `json:"order_type"`
	Price    int64            `json:"price"`
	Quantity int64            `json:"quantity"`
}

// OrderCancelOp removes a resting order.
type OrderCancelOp struct {
	OrderID string `json:"order_id"`
}

// TradeOp is a hybrid trade routed across pool and book.
type TradeOp struct {
	TokenIn      string         `json:"token_in"`
	TokenOut     string         `json:"token_out"`
	AmountIn     int64          `json:"amount_in"`
	MinAmountOut int64          `json:"min_amount_out"`
	Routes       []domain.Route `json:"routes,omitempty"`
}

// Operation is one entry of the replay stream. Exactly one payload field is
// set, selected by Type.
type Operation struct {
	Type        OpType `json:"type"`
	Actor       string `json:"actor"`
	BlockHeight int64  `json:"block_height"`
	TxIndex     int64  `json:"tx_index"`
	OpIndex     int64  `json:"op_index"`
	Timestamp   int64  `json:"timestamp"`

	PoolCreate      *PoolCreateOp      `json:"pool_create,omitempty"`
	AddLiquidity    *AddLiquidityOp    `json:"add_liquidity,omitempty"`
	RemoveLiquidity *RemoveLiquidityOp `json:"remove_liquidity,omitempty"`
	ClaimFees       *ClaimFeesOp       `json:"claim_fees,omitempty"`
	Swap            *SwapOp            `json:"swap,omitempty"`
	OrderSubmit     *OrderSubmitOp     `json:"order_submit,omitempty"`
	OrderCancel     *OrderCancelOp     `json:"order_cancel,omitempty"`
	Trade           *TradeOp           `json:"trade,omitempty"`
}

// Validate checks that the operation payload matches its type and that the
// structural fields are present.
func (op *Operation) Validate() error {
	if op.Actor == "" {
		return fmt.Errorf("%w: missing actor", ErrMalformedOperation)
	}

	var payload any
	switch op.Type {
	case OpTypePoolCreate:
		payload = op.PoolCreate
	case OpTypeAddLiquidity:
		payload = op.AddLiquidity
	case OpTypeRemoveLiquidity:
		payload = op.RemoveLiquidity
	case OpTypeClaimFees:
		payload = op.ClaimFees
	case OpTypeSwap:
		payload = op.Swap
	case OpTypeOrderSubmit:
		payload = op.OrderSubmit
	case OpTypeOrderCancel:
		payload = op.OrderCancel
	case OpTypeTrade:
		payload = op.Trade
	default:
		return fmt.Errorf("%w: unknown type %q", ErrMalformedOperation, op.Type)
	}
	if isNilPayload(payload) {
		return fmt.Errorf("%w: type %s without payload", ErrMalformedOperation, op.Type)
	}
	return nil
}

func isNilPayload(p any) bool {
	switch v := p.(type) {
	case *PoolCreateOp:
		return v == nil
	case *AddLiquidityOp:
		return v == nil
	case *RemoveLiquidityOp:
		return v == nil
	case *ClaimFeesOp:
		return v == nil
	case *SwapOp:
		return v == nil
	case *OrderSubmitOp:
		return v == nil
	case *OrderCancelOp:
		return v == nil
	case *TradeOp:
		return v == nil
	default:
		return p == nil
	}
}
