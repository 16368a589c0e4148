package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/FutureShockco/meeray-sub006/internal/domain"
	"github.com/FutureShockco/meeray-sub006/internal/storage"
)

// AccountStore implements storage.AccountStore using PostgreSQL. Balances
// are stored as a JSONB map of token symbol to smallest units.
type AccountStore struct {
	pool *Pool
}

// NewAccountStore creates a new AccountStore.
func NewAccountStore(pool *Pool) *AccountStore {
	return &AccountStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AccountStore = (*AccountStore)(nil)

// Get retrieves an account by name. Returns ErrNotFound if not exists.
func (s *AccountStore) Get(ctx context.Context, name string) (*domain.Account, error) {
	query := `SELECT name, balances, created_at FROM accounts WHERE name = $1`

	a, err := scanAccount(s.pool.QueryRow(ctx, query, name))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

// Upsert inserts or replaces an account record.
func (s *AccountStore) Upsert(ctx context.Context, a *domain.Account) error {
	balances, err := json.Marshal(a.Balances)
	if err != nil {
		return fmt.Errorf("marshal balances: %w", err)
	}

	query := `
		INSERT INTO accounts (name, balances, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET
			balances = EXCLUDED.balances,
			created_at = EXCLUDED.created_at
	`

	if _, err := s.pool.Exec(ctx, query, a.Name, balances, a.CreatedAt); err != nil {
		return fmt.Errorf("upsert account: %w", err)
	}
	return nil
}

// GetAll retrieves every account, ordered by name ASC.
func (s *AccountStore) GetAll(ctx context.Context) ([]*domain.Account, error) {
	query := `SELECT name, balances, created_at FROM accounts ORDER BY name ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account row: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate account rows: %w", err)
	}
	return accounts, nil
}

// scanAccount scans one account row, decoding the JSONB balance map.
func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		a   domain.Account
		raw []byte
	)
	if err := row.Scan(&a.Name, &raw, &a.CreatedAt); err != nil {
		return nil, err
	}

	a.Balances = make(map[string]int64)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &a.Balances); err != nil {
			return nil, fmt.Errorf("unmarshal balances: %w", err)
		}
	}
	return &a, nil
}
