package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/FutureShockco/meeray-sub006/internal/domain"
	"github.com/FutureShockco/meeray-sub006/internal/observability"
	"github.com/FutureShockco/meeray-sub006/internal/storage"
)

// CancelResult reports the outcome of a cancellation.
type CancelResult struct {
	Accepted bool
	Reason   string
	Order    *domain.Order
}

// Cancel removes a resting order. Only legal while the order is OPEN or
// PARTIALLY_FILLED and owned by the actor; cancelling a terminal order is a
// no-op failure, never a state change.
func (e *Engine) Cancel(ctx context.Context, orderID, actor string, now int64) (*CancelResult, error) {
	o, err := e.orders.GetByID(ctx, orderID)
	if errors.Is(err, storage.ErrNotFound) {
		return &CancelResult{Accepted: false, Reason: ReasonOrderNotFound}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load order %s: %w", orderID, err)
	}

	if o.Account != actor {
		return &CancelResult{Accepted: false, Reason: ReasonNotOrderOwner, Order: o}, nil
	}
	if o.IsTerminal() {
		return &CancelResult{Accepted: false, Reason: ReasonOrderTerminal, Order: o}, nil
	}

	b, err := e.bookFor(ctx, o.PairID)
	if err != nil {
		return nil, err
	}
	b.Remove(orderID)

	o.Status = domain.StatusCancelled
	o.UpdatedAt = now
	if err := e.orders.Update(ctx, o); err != nil {
		return nil, fmt.Errorf("persist cancelled order %s: %w", orderID, err)
	}

	observability.RecordOrderCancelled()
	e.sink.LogEvent("market", "order_cancelled", actor, map[string]any{
		"order": o.ID,
		"pair":  o.PairID,
	})
	return &CancelResult{Accepted: true, Order: o}, nil
}
