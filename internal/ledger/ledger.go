// Package ledger owns account balances. Every mutation flows through
// balance deltas that are validated in full before any write, so economic
// failures are rejected with no state change and mid-apply storage faults
// are compensated with a single reversal pass.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/FutureShockco/meeray-sub006/internal/domain"
	"github.com/FutureShockco/meeray-sub006/internal/storage"
)

// ErrInsufficientBalance is returned when a delta would drive a balance
// negative.
var ErrInsufficientBalance = errors.New("insufficient balance")

// Ledger adjusts account balances through an AccountStore.
type Ledger struct {
	accounts storage.AccountStore
	logger   zerolog.Logger
}

// New creates a ledger over the given account store.
func New(accounts storage.AccountStore, logger zerolog.Logger) *Ledger {
	return &Ledger{accounts: accounts, logger: logger}
}

// GetAccount retrieves an account. Returns storage.ErrNotFound if it does
// not exist.
func (l *Ledger) GetAccount(ctx context.Context, name string) (*domain.Account, error) {
	return l.accounts.Get(ctx, name)
}

// Adjust applies one signed balance change. A positive delta to an unknown
// account creates it; a delta that would drive the balance negative is
// rejected with ErrInsufficientBalance and no write.
func (l *Ledger) Adjust(ctx context.Context, name, symbol string, delta int64, now int64) error {
	acct, err := l.accounts.Get(ctx, name)
	if errors.Is(err, storage.ErrNotFound) {
		if delta < 0 {
			return fmt.Errorf("account %s: %w", name, ErrInsufficientBalance)
		}
		acct = &domain.Account{Name: name, Balances: map[string]int64{}, CreatedAt: now}
	} else if err != nil {
		return fmt.Errorf("load account %s: %w", name, err)
	}

	next := acct.Balances[symbol] + delta
	if next < 0 {
		return fmt.Errorf("account %s token %s: %w", name, symbol, ErrInsufficientBalance)
	}
	acct.Balances[symbol] = next

	if err := l.accounts.Upsert(ctx, acct); err != nil {
		return fmt.Errorf("write account %s: %w", name, err)
	}
	return nil
}
