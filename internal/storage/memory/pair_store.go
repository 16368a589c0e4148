package memory

import (
	"context"
	"sync"

	"github.com/FutureShockco/meeray-sub006/internal/domain"
	"github.com/FutureShockco/meeray-sub006/internal/storage"
)

// PairStore is an in-memory implementation of storage.PairStore.
type PairStore struct {
	mu   sync.RWMutex
	data map[string]*domain.TradingPair
}

// NewPairStore creates a new in-memory pair store.
func NewPairStore() *PairStore {
	return &PairStore{data: make(map[string]*domain.TradingPair)}
}

// Compile-time interface check.
var _ storage.PairStore = (*PairStore)(nil)

// Insert adds a new pair. Returns ErrDuplicateKey if the pair id exists.
func (s *PairStore) Insert(_ context.Context, p *domain.TradingPair) error {
	if p == nil || p.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[p.ID]; exists {
		return storage.ErrDuplicateKey
	}
	c := *p
	s.data[p.ID] = &c
	return nil
}

// GetByID retrieves a pair by id. Returns ErrNotFound if not exists.
func (s *PairStore) GetByID(_ context.Context, pairID string) (*domain.TradingPair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.data[pairID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	c := *p
	return &c, nil
}

// GetByTokens retrieves the pair connecting two tokens in either orientation.
func (s *PairStore) GetByTokens(ctx context.Context, tokenA, tokenB string) (*domain.TradingPair, error) {
	if p, err := s.GetByID(ctx, domain.PairID(tokenA, tokenB)); err == nil {
		return p, nil
	}
	return s.GetByID(ctx, domain.PairID(tokenB, tokenA))
}

// Update replaces a pair record. Returns ErrNotFound if not exists.
func (s *PairStore) Update(_ context.Context, p *domain.TradingPair) error {
	if p == nil || p.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[p.ID]; !exists {
		return storage.ErrNotFound
	}
	c := *p
	s.data[p.ID] = &c
	return nil
}
