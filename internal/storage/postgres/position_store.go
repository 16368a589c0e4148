package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/FutureShockco/meeray-sub006/internal/domain"
	"github.com/FutureShockco/meeray-sub006/internal/storage"
)

// PositionStore implements storage.PositionStore using PostgreSQL.
type PositionStore struct {
	pool *Pool
}

// NewPositionStore creates a new PositionStore.
func NewPositionStore(pool *Pool) *PositionStore {
	return &PositionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PositionStore = (*PositionStore)(nil)

const positionColumns = `account, pool_id, lp_tokens, fee_checkpoint_a::text, fee_checkpoint_b::text, unclaimed_a, unclaimed_b, updated_at`

// Upsert inserts or replaces a position keyed by (account, pool id).
func (s *PositionStore) Upsert(ctx context.Context, p *domain.LiquidityPosition) error {
	query := `
		INSERT INTO liquidity_positions (
			account, pool_id, lp_tokens, fee_checkpoint_a, fee_checkpoint_b, unclaimed_a, unclaimed_b, updated_at
		) VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6, $7, $8)
		ON CONFLICT (account, pool_id) DO UPDATE SET
			lp_tokens = EXCLUDED.lp_tokens,
			fee_checkpoint_a = EXCLUDED.fee_checkpoint_a,
			fee_checkpoint_b = EXCLUDED.fee_checkpoint_b,
			unclaimed_a = EXCLUDED.unclaimed_a,
			unclaimed_b = EXCLUDED.unclaimed_b,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.pool.Exec(ctx, query,
		p.Account,
		p.PoolID,
		p.LPTokens,
		bigIntText(p.FeeCheckpointA),
		bigIntText(p.FeeCheckpointB),
		p.UnclaimedA,
		p.UnclaimedB,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert position: %w", err)
	}
	return nil
}

// Get retrieves a position. Returns ErrNotFound if not exists.
func (s *PositionStore) Get(ctx context.Context, account, poolID string) (*domain.LiquidityPosition, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM liquidity_positions
		WHERE account = $1 AND pool_id = $2
	`

	p, err := scanPosition(s.pool.QueryRow(ctx, query, account, poolID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get position: %w", err)
	}
	return p, nil
}

// Delete removes a position. Returns ErrNotFound if not exists.
func (s *PositionStore) Delete(ctx context.Context, account, poolID string) error {
	query := `DELETE FROM liquidity_positions WHERE account = $1 AND pool_id = $2`

	tag, err := s.pool.Exec(ctx, query, account, poolID)
	if err != nil {
		return fmt.Errorf("delete position: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetByAccount retrieves all positions of an account, ordered by pool id ASC.
func (s *PositionStore) GetByAccount(ctx context.Context, account string) ([]*domain.LiquidityPosition, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM liquidity_positions
		WHERE account = $1
		ORDER BY pool_id ASC
	`

	rows, err := s.pool.Query(ctx, query, account)
	if err != nil {
		return nil, fmt.Errorf("get positions by account: %w", err)
	}
	defer rows.Close()

	var positions []*domain.LiquidityPosition
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan position row: %w", err)
		}
		positions = append(positions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate position rows: %w", err)
	}
	return positions, nil
}

// scanPosition scans one position row.
func scanPosition(row pgx.Row) (*domain.LiquidityPosition, error) {
	var (
		checkpointA, checkpointB string
		p                        domain.LiquidityPosition
	)

	err := row.Scan(
		&p.Account,
		&p.PoolID,
		&p.LPTokens,
		&checkpointA,
		&checkpointB,
		&p.UnclaimedA,
		&p.UnclaimedB,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.FeeCheckpointA, err = parseBigInt(checkpointA)
	if err != nil {
		return nil, fmt.Errorf("parse fee_checkpoint_a: %w", err)
	}
	p.FeeCheckpointB, err = parseBigInt(checkpointB)
	if err != nil {
		return nil, fmt.Errorf("parse fee_checkpoint_b: %w", err)
	}
	return &p, nil
}
