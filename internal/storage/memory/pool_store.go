package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/FutureShockco/meeray-sub006/internal/domain"
	"github.com/FutureShockco/meeray-sub006/internal/storage"
)

// PoolStore is an in-memory implementation of storage.PoolStore.
type PoolStore struct {
	mu   sync.RWMutex
	data map[string]*domain.LiquidityPool
}

// NewPoolStore creates a new in-memory pool store.
func NewPoolStore() *PoolStore {
	return &PoolStore{data: make(map[string]*domain.LiquidityPool)}
}

// Compile-time interface check.
var _ storage.PoolStore = (*PoolStore)(nil)

// Insert adds a new pool. Returns ErrDuplicateKey if the pool id exists.
func (s *PoolStore) Insert(_ context.Context, p *domain.LiquidityPool) error {
	if p == nil || p.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[p.ID]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[p.ID] = p.Copy()
	return nil
}

// GetByID retrieves a pool by id. Returns ErrNotFound if not exists.
func (s *PoolStore) GetByID(_ context.Context, poolID string) (*domain.LiquidityPool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.data[poolID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return p.Copy(), nil
}

// GetByTokens retrieves the pool for two tokens in either order.
func (s *PoolStore) GetByTokens(ctx context.Context, tokenA, tokenB string) (*domain.LiquidityPool, error) {
	return s.GetByID(ctx, domain.PoolID(tokenA, tokenB))
}

// Update replaces a pool record. Returns ErrNotFound if not exists.
func (s *PoolStore) Update(_ context.Context, p *domain.LiquidityPool) error {
	if p == nil || p.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[p.ID]; !exists {
		return storage.ErrNotFound
	}
	s.data[p.ID] = p.Copy()
	return nil
}

// GetAll retrieves every pool, ordered by id ASC.
func (s *PoolStore) GetAll(_ context.Context) ([]*domain.LiquidityPool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.LiquidityPool, 0, len(s.data))
	for _, p := range s.data {
		out = append(out, p.Copy())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
