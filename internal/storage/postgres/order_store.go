package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/FutureShockco/meeray-sub006/internal/domain"
	"github.com/FutureShockco/meeray-sub006/internal/storage"
)

// OrderStore implements storage.OrderStore using PostgreSQL.
type OrderStore struct {
	pool *Pool
}

// NewOrderStore creates a new OrderStore.
func NewOrderStore(pool *Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

// Compile-time interface check.
var _ storage.OrderStore = (*OrderStore)(nil)

const orderColumns = `id, pair_id, account, side, order_type, price, quantity, filled, status, created_at, updated_at`

// Insert adds a new order. Returns ErrDuplicateKey if the order id exists.
func (s *OrderStore) Insert(ctx context.Context, o *domain.Order) error {
	query := `
		INSERT INTO orders (
			id, pair_id, account, side, order_type, price, quantity, filled, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := s.pool.Exec(ctx, query,
		o.ID,
		o.PairID,
		o.Account,
		o.Side,
		o.Type,
		o.Price,
		o.Quantity,
		o.Filled,
		o.Status,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// GetByID retrieves an order by id. Returns ErrNotFound if not exists.
func (s *OrderStore) GetByID(ctx context.Context, orderID string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	o, err := scanOrder(s.pool.QueryRow(ctx, query, orderID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get order by id: %w", err)
	}
	return o, nil
}

// Update replaces an order record. Returns ErrNotFound if not exists.
func (s *OrderStore) Update(ctx context.Context, o *domain.Order) error {
	query := `
		UPDATE orders
		SET pair_id = $2, account = $3, side = $4, order_type = $5, price = $6,
		    quantity = $7, filled = $8, status = $9, created_at = $10, updated_at = $11
		WHERE id = $1
	`

	tag, err := s.pool.Exec(ctx, query,
		o.ID,
		o.PairID,
		o.Account,
		o.Side,
		o.Type,
		o.Price,
		o.Quantity,
		o.Filled,
		o.Status,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetOpenByPair retrieves resting orders for a pair, ordered by
// created_at ASC then id ASC so book rebuilds preserve time priority.
func (s *OrderStore) GetOpenByPair(ctx context.Context, pairID string) ([]*domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE pair_id = $1 AND status IN ($2, $3)
		ORDER BY created_at ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, pairID, domain.StatusOpen, domain.StatusPartiallyFilled)
	if err != nil {
		return nil, fmt.Errorf("get open orders by pair: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}
	return orders, nil
}

// scanOrder scans one order row.
func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(
		&o.ID,
		&o.PairID,
		&o.Account,
		&o.Side,
		&o.Type,
		&o.Price,
		&o.Quantity,
		&o.Filled,
		&o.Status,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
