package postgres

import (
	"context"
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5"

	"github.com/FutureShockco/meeray-sub006/internal/domain"
	"github.com/FutureShockco/meeray-sub006/internal/storage"
)

// PoolStore implements storage.PoolStore using PostgreSQL. Fee-growth
// accumulators exceed int64 range and are stored as NUMERIC.
type PoolStore struct {
	pool *Pool
}

// NewPoolStore creates a new PoolStore.
func NewPoolStore(pool *Pool) *PoolStore {
	return &PoolStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PoolStore = (*PoolStore)(nil)

const poolColumns = `id, token_a, token_b, reserve_a, reserve_b, total_lp_tokens, fee_bps, fee_growth_a::text, fee_growth_b::text, created_at`

// Insert adds a new pool. Returns ErrDuplicateKey if the pool id exists.
func (s *PoolStore) Insert(ctx context.Context, p *domain.LiquidityPool) error {
	query := `
		INSERT INTO liquidity_pools (
			id, token_a, token_b, reserve_a, reserve_b, total_lp_tokens, fee_bps, fee_growth_a, fee_growth_b, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8::numeric, $9::numeric, $10)
	`

	_, err := s.pool.Exec(ctx, query,
		p.ID,
		p.TokenA,
		p.TokenB,
		p.ReserveA,
		p.ReserveB,
		p.TotalLPTokens,
		p.FeeBps,
		bigIntText(p.FeeGrowthA),
		bigIntText(p.FeeGrowthB),
		p.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert pool: %w", err)
	}
	return nil
}

// GetByID retrieves a pool by id. Returns ErrNotFound if not exists.
func (s *PoolStore) GetByID(ctx context.Context, poolID string) (*domain.LiquidityPool, error) {
	query := `SELECT ` + poolColumns + ` FROM liquidity_pools WHERE id = $1`

	p, err := scanPool(s.pool.QueryRow(ctx, query, poolID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get pool by id: %w", err)
	}
	return p, nil
}

// GetByTokens retrieves the pool for two tokens in either order.
func (s *PoolStore) GetByTokens(ctx context.Context, tokenA, tokenB string) (*domain.LiquidityPool, error) {
	return s.GetByID(ctx, domain.PoolID(tokenA, tokenB))
}

// Update replaces a pool record. Returns ErrNotFound if not exists.
func (s *PoolStore) Update(ctx context.Context, p *domain.LiquidityPool) error {
	query := `
		UPDATE liquidity_pools
		SET token_a = $2, token_b = $3, reserve_a = $4, reserve_b = $5,
		    total_lp_tokens = $6, fee_bps = $7,
		    fee_growth_a = $8::numeric, fee_growth_b = $9::numeric, created_at = $10
		WHERE id = $1
	`

	tag, err := s.pool.Exec(ctx, query,
		p.ID,
		p.TokenA,
		p.TokenB,
		p.ReserveA,
		p.ReserveB,
		p.TotalLPTokens,
		p.FeeBps,
		bigIntText(p.FeeGrowthA),
		bigIntText(p.FeeGrowthB),
		p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("update pool: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetAll retrieves every pool, ordered by id ASC.
func (s *PoolStore) GetAll(ctx context.Context) ([]*domain.LiquidityPool, error) {
	query := `SELECT ` + poolColumns + ` FROM liquidity_pools ORDER BY id ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all pools: %w", err)
	}
	defer rows.Close()

	var pools []*domain.LiquidityPool
	for rows.Next() {
		p, err := scanPool(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pool row: %w", err)
		}
		pools = append(pools, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pool rows: %w", err)
	}
	return pools, nil
}

// scanPool scans one pool row, parsing fee-growth accumulators from their
// textual NUMERIC representation.
func scanPool(row pgx.Row) (*domain.LiquidityPool, error) {
	var (
		growthA, growthB string
		pool             domain.LiquidityPool
	)

	err := row.Scan(
		&pool.ID,
		&pool.TokenA,
		&pool.TokenB,
		&pool.ReserveA,
		&pool.ReserveB,
		&pool.TotalLPTokens,
		&pool.FeeBps,
		&growthA,
		&growthB,
		&pool.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	pool.FeeGrowthA, err = parseBigInt(growthA)
	if err != nil {
		return nil, fmt.Errorf("parse fee_growth_a: %w", err)
	}
	pool.FeeGrowthB, err = parseBigInt(growthB)
	if err != nil {
		return nil, fmt.Errorf("parse fee_growth_b: %w", err)
	}
	return &pool, nil
}

// bigIntText renders an accumulator for a NUMERIC parameter. Nil reads as 0.
func bigIntText(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// parseBigInt parses a NUMERIC text value into big.Int.
func parseBigInt(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid numeric %q", s)
	}
	return v, nil
}
