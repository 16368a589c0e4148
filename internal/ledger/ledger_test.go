package ledger

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FutureShockco/meeray-sub006/internal/domain"
	"github.com/FutureShockco/meeray-sub006/internal/storage"
	"github.com/FutureShockco/meeray-sub006/internal/storage/memory"
)

func newTestLedger(t *testing.T) (*Ledger, storage.AccountStore) {
	t.Helper()
	accounts := memory.NewAccountStore()
	return New(accounts, zerolog.Nop()), accounts
}

func fund(t *testing.T, accounts storage.AccountStore, name string, balances map[string]int64) {
	t.Helper()
	require.NoError(t, accounts.Upsert(context.Background(), &domain.Account{
		Name:     name,
		Balances: balances,
	}))
}

func balance(t *testing.T, l *Ledger, name, symbol string) int64 {
	t.Helper()
	acct, err := l.GetAccount(context.Background(), name)
	if err != nil {
		return 0
	}
	return acct.Balance(symbol)
}

func TestAdjustCreatesAccountOnCredit(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, l.Adjust(ctx, "alice", "MRY", 100, 1))
	assert.Equal(t, int64(100), balance(t, l, "alice", "MRY"))
}

func TestAdjustRejectsOverdraft(t *testing.T) {
	l, accounts := newTestLedger(t)
	ctx := context.Background()

	// unknown account cannot be debited
	err := l.Adjust(ctx, "ghost", "MRY", -1, 1)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	fund(t, accounts, "alice", map[string]int64{"MRY": 50})
	err = l.Adjust(ctx, "alice", "MRY", -51, 1)
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, int64(50), balance(t, l, "alice", "MRY"))

	require.NoError(t, l.Adjust(ctx, "alice", "MRY", -50, 1))
	assert.Equal(t, int64(0), balance(t, l, "alice", "MRY"))
}

func TestPlanAddDropsZeroDeltas(t *testing.T) {
	var p Plan
	p.Add("alice", "MRY", 0)
	p.Add("alice", "MRY", 10)
	assert.Len(t, p.Deltas(), 1)
}

func TestPlanValidateNetsPerKey(t *testing.T) {
	l, accounts := newTestLedger(t)
	ctx := context.Background()

	fund(t, accounts, "alice", map[string]int64{"MRY": 50})

	// gross debit exceeds the balance but the net does not
	var p Plan
	p.Add("alice", "MRY", -80)
	p.Add("alice", "MRY", 40)
	require.NoError(t, l.Validate(ctx, &p))

	var over Plan
	over.Add("alice", "MRY", -80)
	over.Add("alice", "MRY", 20)
	assert.ErrorIs(t, l.Validate(ctx, &over), ErrInsufficientBalance)
}

func TestPlanApplySettlesAtomically(t *testing.T) {
	l, accounts := newTestLedger(t)
	ctx := context.Background()

	fund(t, accounts, "alice", map[string]int64{"MRY": 5_000_000_000})
	fund(t, accounts, "bob", map[string]int64{"TESTS": 61750})

	// alice sells 50 MRY to bob for 61.75 TESTS
	var p Plan
	p.Add("alice", "MRY", -5_000_000_000)
	p.Add("bob", "MRY", 5_000_000_000)
	p.Add("bob", "TESTS", -61750)
	p.Add("alice", "TESTS", 61750)
	require.NoError(t, l.Apply(ctx, &p, 1))

	assert.Equal(t, int64(0), balance(t, l, "alice", "MRY"))
	assert.Equal(t, int64(61750), balance(t, l, "alice", "TESTS"))
	assert.Equal(t, int64(5_000_000_000), balance(t, l, "bob", "MRY"))
	assert.Equal(t, int64(0), balance(t, l, "bob", "TESTS"))
}

func TestPlanApplyRejectedLeavesNoChange(t *testing.T) {
	l, accounts := newTestLedger(t)
	ctx := context.Background()

	fund(t, accounts, "alice", map[string]int64{"MRY": 10})
	fund(t, accounts, "bob", map[string]int64{"TESTS": 5})

	var p Plan
	p.Add("alice", "MRY", -20)
	p.Add("bob", "MRY", 20)
	p.Add("bob", "TESTS", -5)
	p.Add("alice", "TESTS", 5)
	assert.ErrorIs(t, l.Apply(ctx, &p, 1), ErrInsufficientBalance)

	assert.Equal(t, int64(10), balance(t, l, "alice", "MRY"))
	assert.Equal(t, int64(5), balance(t, l, "bob", "TESTS"))
}

// failingAccountStore fails Upsert for one account to exercise the
// compensation path.
type failingAccountStore struct {
	storage.AccountStore
	failFor string
}

func (s *failingAccountStore) Upsert(ctx context.Context, a *domain.Account) error {
	if a.Name == s.failFor {
		return assert.AnError
	}
	return s.AccountStore.Upsert(ctx, a)
}

func TestPlanApplyCompensatesOnStorageFailure(t *testing.T) {
	accounts := memory.NewAccountStore()
	ctx := context.Background()

	require.NoError(t, accounts.Upsert(ctx, &domain.Account{Name: "alice", Balances: map[string]int64{"MRY": 100}}))
	require.NoError(t, accounts.Upsert(ctx, &domain.Account{Name: "bob", Balances: map[string]int64{"TESTS": 100}}))

	l := New(&failingAccountStore{AccountStore: accounts, failFor: "bob"}, zerolog.Nop())

	var p Plan
	p.Add("alice", "MRY", -40)
	p.Add("bob", "MRY", 40)
	require.Error(t, l.Apply(ctx, &p, 1))

	// the applied prefix was reversed
	acct, err := accounts.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(100), acct.Balance("MRY"))
}
