package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/FutureShockco/meeray-sub006/internal/domain"
	"github.com/FutureShockco/meeray-sub006/internal/storage"
)

// OrderStore is an in-memory implementation of storage.OrderStore.
type OrderStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Order
}

// NewOrderStore creates a new in-memory order store.
func NewOrderStore() *OrderStore {
	return &OrderStore{data: make(map[string]*domain.Order)}
}

// Compile-time interface check.
var _ storage.OrderStore = (*OrderStore)(nil)

// Insert adds a new order. Returns ErrDuplicateKey if the order id exists.
func (s *OrderStore) Insert(_ context.Context, o *domain.Order) error {
	if o == nil || o.ID == "" || o.PairID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[o.ID]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[o.ID] = o.Copy()
	return nil
}

// GetByID retrieves an order by id. Returns ErrNotFound if not exists.
func (s *OrderStore) GetByID(_ context.Context, orderID string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, exists := s.data[orderID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return o.Copy(), nil
}

// Update replaces an order record. Returns ErrNotFound if not exists.
func (s *OrderStore) Update(_ context.Context, o *domain.Order) error {
	if o == nil || o.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[o.ID]; !exists {
		return storage.ErrNotFound
	}
	s.data[o.ID] = o.Copy()
	return nil
}

// GetOpenByPair retrieves resting orders (OPEN or PARTIALLY_FILLED) for a
// pair, ordered by created_at ASC then id ASC.
func (s *OrderStore) GetOpenByPair(_ context.Context, pairID string) ([]*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Order
	for _, o := range s.data {
		if o.PairID != pairID {
			continue
		}
		if o.Status != domain.StatusOpen && o.Status != domain.StatusPartiallyFilled {
			continue
		}
		out = append(out, o.Copy())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
