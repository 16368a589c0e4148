package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/FutureShockco/meeray-sub006/internal/storage"
)

// Delta is one signed balance change of a settlement plan.
type Delta struct {
	Account string
	Symbol  string
	Amount  int64
}

// Plan is an ordered list of balance deltas settling one trade or swap.
// All deltas are resolved first, validated as a whole, then applied, so a
// plan either fully settles or leaves balances untouched (economic failure)
// or is compensated (storage failure mid-apply).
type Plan struct {
	deltas []Delta
}

// Add appends a delta to the plan. Zero deltas are dropped.
func (p *Plan) Add(account, symbol string, amount int64) {
	if amount == 0 {
		return
	}
	p.deltas = append(p.deltas, Delta{Account: account, Symbol: symbol, Amount: amount})
}

// Deltas returns the plan's deltas in application order.
func (p *Plan) Deltas() []Delta {
	return p.deltas
}

// Validate checks that applying every delta leaves no balance negative.
// Balances are netted per (account, symbol) and checked in sorted key order
// so the verdict is independent of map iteration.
func (l *Ledger) Validate(ctx context.Context, p *Plan) error {
	net := make(map[string]int64)
	keys := make([]string, 0, len(p.deltas))
	for _, d := range p.deltas {
		key := d.Account + "|" + d.Symbol
		if _, seen := net[key]; !seen {
			keys = append(keys, key)
		}
		net[key] += d.Amount
	}
	sort.Strings(keys)

	for _, key := range keys {
		if net[key] >= 0 {
			continue
		}
		account, symbol := splitKey(key)
		acct, err := l.accounts.Get(ctx, account)
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("account %s token %s: %w", account, symbol, ErrInsufficientBalance)
		}
		if err != nil {
			return fmt.Errorf("load account %s: %w", account, err)
		}
		if acct.Balances[symbol]+net[key] < 0 {
			return fmt.Errorf("account %s token %s: %w", account, symbol, ErrInsufficientBalance)
		}
	}
	return nil
}

// Apply validates the plan and applies its deltas in order. If a write fails
// after earlier deltas were applied, the applied prefix is reversed in
// reverse order; a failed reversal is logged CRITICAL and the original error
// is still returned.
func (l *Ledger) Apply(ctx context.Context, p *Plan, now int64) error {
	if err := l.Validate(ctx, p); err != nil {
		return err
	}

	for i, d := range p.deltas {
		if err := l.Adjust(ctx, d.Account, d.Symbol, d.Amount, now); err != nil {
			l.rollback(ctx, p.deltas[:i], now, err)
			return fmt.Errorf("apply settlement delta %d: %w", i, err)
		}
	}
	return nil
}

// rollback issues the inverse of each applied delta, newest first.
func (l *Ledger) rollback(ctx context.Context, applied []Delta, now int64, cause error) {
	for i := len(applied) - 1; i >= 0; i-- {
		d := applied[i]
		if err := l.Adjust(ctx, d.Account, d.Symbol, -d.Amount, now); err != nil {
			l.logger.Error().
				Str("account", d.Account).
				Str("token", d.Symbol).
				Int64("amount", d.Amount).
				AnErr("cause", cause).
				Err(err).
				Msg("CRITICAL: settlement rollback failed, ledger inconsistent")
		}
	}
}

func splitKey(key string) (account, symbol string) {
	for i := len(key) - 1; i >= 0; i-- {
		if key[i] == '|' {
			return key[:i], key[i+1:]
		}
	}
	return key, ""
}
