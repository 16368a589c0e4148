package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/FutureShockco/meeray-sub006/internal/domain"
	"github.com/FutureShockco/meeray-sub006/internal/storage"
)

// AccountStore is an in-memory implementation of storage.AccountStore.
type AccountStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Account
}

// NewAccountStore creates a new in-memory account store.
func NewAccountStore() *AccountStore {
	return &AccountStore{data: make(map[string]*domain.Account)}
}

// Compile-time interface check.
var _ storage.AccountStore = (*AccountStore)(nil)

// Get retrieves an account by name. Returns ErrNotFound if not exists.
func (s *AccountStore) Get(_ context.Context, name string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.data[name]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return a.Copy(), nil
}

// Upsert inserts or replaces an account record.
func (s *AccountStore) Upsert(_ context.Context, a *domain.Account) error {
	if a == nil || a.Name == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[a.Name] = a.Copy()
	return nil
}

// GetAll retrieves every account, ordered by name ASC.
func (s *AccountStore) GetAll(_ context.Context) ([]*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Account, 0, len(s.data))
	for _, a := range s.data {
		out = append(out, a.Copy())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
