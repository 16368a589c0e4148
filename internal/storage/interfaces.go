package storage

import (
	"context"

	"github.com/FutureShockco/meeray-sub006/internal/domain"
)

// TokenStore provides access to the tokens collection.
type TokenStore interface {
	// Insert registers a new token. Returns ErrDuplicateKey if the symbol exists.
	Insert(ctx context.Context, t *domain.Token) error

	// GetBySymbol retrieves a token. Returns ErrNotFound if not registered.
	GetBySymbol(ctx context.Context, symbol string) (*domain.Token, error)

	// GetAll retrieves every registered token, ordered by symbol ASC.
	GetAll(ctx context.Context) ([]*domain.Token, error)
}

// PairStore provides access to the trading_pairs collection.
type PairStore interface {
	// Insert adds a new pair. Returns ErrDuplicateKey if the pair id exists.
	Insert(ctx context.Context, p *domain.TradingPair) error

	// GetByID retrieves a pair by id. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, pairID string) (*domain.TradingPair, error)

	// GetByTokens retrieves the pair connecting two tokens in either
	// orientation. Returns ErrNotFound if neither orientation exists.
	GetByTokens(ctx context.Context, tokenA, tokenB string) (*domain.TradingPair, error)

	// Update replaces a pair record. Returns ErrNotFound if not exists.
	Update(ctx context.Context, p *domain.TradingPair) error
}

// OrderStore provides access to the orders collection.
type OrderStore interface {
	// Insert adds a new order. Returns ErrDuplicateKey if the order id exists.
	Insert(ctx context.Context, o *domain.Order) error

	// GetByID retrieves an order by id. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, orderID string) (*domain.Order, error)

	// Update replaces an order record. Returns ErrNotFound if not exists.
	Update(ctx context.Context, o *domain.Order) error

	// GetOpenByPair retrieves resting orders (OPEN or PARTIALLY_FILLED) for a
	// pair, ordered by created_at ASC then id ASC.
	GetOpenByPair(ctx context.Context, pairID string) ([]*domain.Order, error)
}

// TradeStore provides access to the trades collection. Append-only.
type TradeStore interface {
	// Insert adds a new trade. Returns ErrDuplicateKey if the trade id exists.
	Insert(ctx context.Context, t *domain.Trade) error

	// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, trades []*domain.Trade) error

	// GetByPair retrieves all trades for a pair, ordered by timestamp ASC then id ASC.
	GetByPair(ctx context.Context, pairID string) ([]*domain.Trade, error)
}

// PoolStore provides access to the liquidity_pools collection.
type PoolStore interface {
	// Insert adds a new pool. Returns ErrDuplicateKey if the pool id exists.
	Insert(ctx context.Context, p *domain.LiquidityPool) error

	// GetByID retrieves a pool by id. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, poolID string) (*domain.LiquidityPool, error)

	// GetByTokens retrieves the pool for two tokens in either order.
	// Returns ErrNotFound if not exists.
	GetByTokens(ctx context.Context, tokenA, tokenB string) (*domain.LiquidityPool, error)

	// Update replaces a pool record. Returns ErrNotFound if not exists.
	Update(ctx context.Context, p *domain.LiquidityPool) error

	// GetAll retrieves every pool, ordered by id ASC.
	GetAll(ctx context.Context) ([]*domain.LiquidityPool, error)
}

// PositionStore provides access to the liquidity_positions collection.
type PositionStore interface {
	// Upsert inserts or replaces a position keyed by (account, pool id).
	Upsert(ctx context.Context, p *domain.LiquidityPosition) error

	// Get retrieves a position. Returns ErrNotFound if not exists.
	Get(ctx context.Context, account, poolID string) (*domain.LiquidityPosition, error)

	// Delete removes a position. Returns ErrNotFound if not exists.
	Delete(ctx context.Context, account, poolID string) error

	// GetByAccount retrieves all positions of an account, ordered by pool id ASC.
	GetByAccount(ctx context.Context, account string) ([]*domain.LiquidityPosition, error)
}

// AccountStore provides access to the accounts collection.
type AccountStore interface {
	// Get retrieves an account by name. Returns ErrNotFound if not exists.
	Get(ctx context.Context, name string) (*domain.Account, error)

	// Upsert inserts or replaces an account record.
	Upsert(ctx context.Context, a *domain.Account) error

	// GetAll retrieves every account, ordered by name ASC.
	GetAll(ctx context.Context) ([]*domain.Account, error)
}
