package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/FutureShockco/meeray-sub006/internal/domain"
	"github.com/FutureShockco/meeray-sub006/internal/storage"
)

// PairStore implements storage.PairStore using PostgreSQL.
type PairStore struct {
	pool *Pool
}

// NewPairStore creates a new PairStore.
func NewPairStore(pool *Pool) *PairStore {
	return &PairStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PairStore = (*PairStore)(nil)

const pairColumns = `id, base_symbol, quote_symbol, tick_size, lot_size, min_notional, status, created_at`

// Insert adds a new pair. Returns ErrDuplicateKey if the pair id exists.
func (s *PairStore) Insert(ctx context.Context, p *domain.TradingPair) error {
	query := `
		INSERT INTO trading_pairs (
			id, base_symbol, quote_symbol, tick_size, lot_size, min_notional, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.pool.Exec(ctx, query,
		p.ID,
		p.BaseSymbol,
		p.QuoteSymbol,
		p.TickSize,
		p.LotSize,
		p.MinNotional,
		p.Status,
		p.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert pair: %w", err)
	}
	return nil
}

// GetByID retrieves a pair by id. Returns ErrNotFound if not exists.
func (s *PairStore) GetByID(ctx context.Context, pairID string) (*domain.TradingPair, error) {
	query := `SELECT ` + pairColumns + ` FROM trading_pairs WHERE id = $1`

	p, err := scanPair(s.pool.QueryRow(ctx, query, pairID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get pair by id: %w", err)
	}
	return p, nil
}

// GetByTokens retrieves the pair connecting two tokens in either orientation.
func (s *PairStore) GetByTokens(ctx context.Context, tokenA, tokenB string) (*domain.TradingPair, error) {
	query := `
		SELECT ` + pairColumns + `
		FROM trading_pairs
		WHERE (base_symbol = $1 AND quote_symbol = $2)
		   OR (base_symbol = $2 AND quote_symbol = $1)
		ORDER BY id ASC
		LIMIT 1
	`

	p, err := scanPair(s.pool.QueryRow(ctx, query, tokenA, tokenB))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get pair by tokens: %w", err)
	}
	return p, nil
}

// Update replaces a pair record. Returns ErrNotFound if not exists.
func (s *PairStore) Update(ctx context.Context, p *domain.TradingPair) error {
	query := `
		UPDATE trading_pairs
		SET base_symbol = $2, quote_symbol = $3, tick_size = $4, lot_size = $5,
		    min_notional = $6, status = $7, created_at = $8
		WHERE id = $1
	`

	tag, err := s.pool.Exec(ctx, query,
		p.ID,
		p.BaseSymbol,
		p.QuoteSymbol,
		p.TickSize,
		p.LotSize,
		p.MinNotional,
		p.Status,
		p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("update pair: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// scanPair scans a single pair row.
func scanPair(row pgx.Row) (*domain.TradingPair, error) {
	var p domain.TradingPair
	err := row.Scan(
		&p.ID,
		&p.BaseSymbol,
		&p.QuoteSymbol,
		&p.TickSize,
		&p.LotSize,
		&p.MinNotional,
		&p.Status,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
