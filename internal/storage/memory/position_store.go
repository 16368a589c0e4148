package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/FutureShockco/meeray-sub006/internal/domain"
	"github.com/FutureShockco/meeray-sub006/internal/storage"
)

// PositionStore is an in-memory implementation of storage.PositionStore.
type PositionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.LiquidityPosition // keyed by account|poolID
}

// NewPositionStore creates a new in-memory position store.
func NewPositionStore() *PositionStore {
	return &PositionStore{data: make(map[string]*domain.LiquidityPosition)}
}

// Compile-time interface check.
var _ storage.PositionStore = (*PositionStore)(nil)

// Upsert inserts or replaces a position keyed by (account, pool id).
func (s *PositionStore) Upsert(_ context.Context, p *domain.LiquidityPosition) error {
	if p == nil || p.Account == "" || p.PoolID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[domain.PositionKey(p.Account, p.PoolID)] = p.Copy()
	return nil
}

// Get retrieves a position. Returns ErrNotFound if not exists.
func (s *PositionStore) Get(_ context.Context, account, poolID string) (*domain.LiquidityPosition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.data[domain.PositionKey(account, poolID)]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return p.Copy(), nil
}

// Delete removes a position. Returns ErrNotFound if not exists.
func (s *PositionStore) Delete(_ context.Context, account, poolID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := domain.PositionKey(account, poolID)
	if _, exists := s.data[key]; !exists {
		return storage.ErrNotFound
	}
	delete(s.data, key)
	return nil
}

// GetByAccount retrieves all positions of an account, ordered by pool id ASC.
func (s *PositionStore) GetByAccount(_ context.Context, account string) ([]*domain.LiquidityPosition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.LiquidityPosition
	for _, p := range s.data {
		if p.Account != account {
			continue
		}
		out = append(out, p.Copy())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PoolID < out[j].PoolID })
	return out, nil
}
