package replay

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/FutureShockco/meeray-sub006/internal/amm"
	"github.com/FutureShockco/meeray-sub006/internal/domain"
	"github.com/FutureShockco/meeray-sub006/internal/engine"
	"github.com/FutureShockco/meeray-sub006/internal/idhash"
	"github.com/FutureShockco/meeray-sub006/internal/router"
	"github.com/FutureShockco/meeray-sub006/internal/storage"
)

// OpResult records the outcome of one replayed operation. Rejections are
// results, not errors: a rejected op leaves no state change and replay
// continues.
type OpResult struct {
	Seq      int    `json:"seq"`
	Type     OpType `json:"type"`
	Actor    string `json:"actor"`
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

// Runner replays an operation stream through the trading core.
type Runner struct {
	pairs  storage.PairStore
	engine *engine.Engine
	amm    *amm.Amm
	router *router.Router
	logger zerolog.Logger
}

// NewRunner creates a replay runner over the core components.
func NewRunner(
	pairs storage.PairStore,
	eng *engine.Engine,
	a *amm.Amm,
	r *router.Router,
	logger zerolog.Logger,
) *Runner {
	return &Runner{pairs: pairs, engine: eng, amm: a, router: r, logger: logger}
}

// Run sorts the stream into canonical order and applies each operation.
// The first integrity error stops replay; the results up to that point are
// returned alongside the error.
func (r *Runner) Run(ctx context.Context, ops []*Operation) ([]*OpResult, error) {
	SortOperations(ops)

	results := make([]*OpResult, 0, len(ops))
	for i, op := range ops {
		if err := op.Validate(); err != nil {
			return results, fmt.Errorf("operation %d: %w", i, err)
		}

		accepted, reason, err := r.apply(ctx, op)
		if err != nil {
			return results, fmt.Errorf("operation %d (%s): %w", i, op.Type, err)
		}
		results = append(results, &OpResult{
			Seq:      i,
			Type:     op.Type,
			Actor:    op.Actor,
			Accepted: accepted,
			Reason:   reason,
		})

		if !accepted {
			r.logger.Debug().
				Int("seq", i).
				Str("type", string(op.Type)).
				Str("actor", op.Actor).
				Str("reason", reason).
				Msg("operation rejected")
		}
	}
	return results, nil
}

func (r *Runner) apply(ctx context.Context, op *Operation) (accepted bool, reason string, err error) {
	switch op.Type {
	case OpTypePoolCreate:
		return r.applyPoolCreate(ctx, op)

	case OpTypeAddLiquidity:
		p := op.AddLiquidity
		res, err := r.amm.AddLiquidity(ctx, op.Actor, p.PoolID, p.AmountA, p.AmountB, op.Timestamp)
		if err != nil {
			return false, "", err
		}
		return res.Accepted, res.Reason, nil

	case OpTypeRemoveLiquidity:
		p := op.RemoveLiquidity
		res, err := r.amm.RemoveLiquidity(ctx, op.Actor, p.PoolID, p.LPTokens, op.Timestamp)
		if err != nil {
			return false, "", err
		}
		return res.Accepted, res.Reason, nil

	case OpTypeClaimFees:
		res, err := r.amm.ClaimFees(ctx, op.Actor, op.ClaimFees.PoolID, op.Timestamp)
		if err != nil {
			return false, "", err
		}
		return res.Accepted, res.Reason, nil

	case OpTypeSwap:
		p := op.Swap
		res, err := r.amm.Swap(ctx, op.Actor, p.PoolID, p.TokenIn, p.AmountIn, p.MinAmountOut, op.Timestamp)
		if err != nil {
			return false, "", err
		}
		return res.Accepted, res.Reason, nil

	case OpTypeOrderSubmit:
		p := op.OrderSubmit
		order := &domain.Order{
			ID:        idhash.OrderID(p.PairID, op.Actor, op.BlockHeight, op.TxIndex, op.OpIndex, 0),
			PairID:    p.PairID,
			Account:   op.Actor,
			Side:      p.Side,
			Type:      p.Type,
			Price:     p.Price,
			Quantity:  p.Quantity,
			CreatedAt: op.Timestamp,
		}
		res, err := r.engine.Submit(ctx, order)
		if err != nil {
			return false, "", err
		}
		return res.Accepted, res.Reason, nil

	case OpTypeOrderCancel:
		res, err := r.engine.Cancel(ctx, op.OrderCancel.OrderID, op.Actor, op.Timestamp)
		if err != nil {
			return false, "", err
		}
		return res.Accepted, res.Reason, nil

	case OpTypeTrade:
		p := op.Trade
		res, err := r.router.Execute(ctx, &router.TradeIntent{
			Actor:        op.Actor,
			TokenIn:      p.TokenIn,
			TokenOut:     p.TokenOut,
			AmountIn:     p.AmountIn,
			MinAmountOut: p.MinAmountOut,
			Routes:       p.Routes,
			BlockHeight:  op.BlockHeight,
			TxIndex:      op.TxIndex,
			OpIndex:      op.OpIndex,
			Timestamp:    op.Timestamp,
		})
		if err != nil {
			return false, "", err
		}
		return res.Accepted, res.Reason, nil

	default:
		return false, "", fmt.Errorf("%w: unknown type %q", ErrMalformedOperation, op.Type)
	}
}

// applyPoolCreate creates the pool and its companion trading pair. The pair
// keeps the operation's token orientation (tokenA as base) while the pool id
// sorts symbols, so both sides of the venue refer to the same market.
func (r *Runner) applyPoolCreate(ctx context.Context, op *Operation) (bool, string, error) {
	p := op.PoolCreate

	res, err := r.amm.CreatePool(ctx, op.Actor, p.TokenA, p.TokenB, p.FeeBps, op.Timestamp)
	if err != nil {
		return false, "", err
	}
	if !res.Accepted {
		return false, res.Reason, nil
	}

	pair := &domain.TradingPair{
		ID:          domain.PairID(p.TokenA, p.TokenB),
		BaseSymbol:  p.TokenA,
		QuoteSymbol: p.TokenB,
		TickSize:    p.TickSize,
		LotSize:     p.LotSize,
		MinNotional: p.MinNotional,
		Status:      domain.PairStatusTrading,
		CreatedAt:   op.Timestamp,
	}
	if err := r.pairs.Insert(ctx, pair); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			// pool insert succeeded so the pair cannot already exist unless
			// the stream was tampered with
			return false, "", fmt.Errorf("pair %s exists without pool: %w", pair.ID, err)
		}
		return false, "", fmt.Errorf("persist pair %s: %w", pair.ID, err)
	}
	return true, "", nil
}
