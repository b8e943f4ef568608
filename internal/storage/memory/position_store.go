// Package memory provides in-memory store implementations, used when no
// database DSN is configured and as fixtures in tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Leo-moon-max/BagsAiTradingBot/internal/domain"
	"github.com/Leo-moon-max/BagsAiTradingBot/internal/storage"
)

// PositionStore is an in-memory implementation of storage.PositionStore.
type PositionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Position // keyed by mint
}

// NewPositionStore creates a new in-memory position store.
func NewPositionStore() *PositionStore {
	return &PositionStore{
		data: make(map[string]*domain.Position),
	}
}

// Verify interface compliance at compile time.
var _ storage.PositionStore = (*PositionStore)(nil)

// Insert adds a new position. Returns ErrDuplicateKey if the mint already
// has an open position.
func (s *PositionStore) Insert(_ context.Context, p *domain.Position) error {
	if p == nil || p.Mint == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[p.Mint]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	positionCopy := *p
	s.data[p.Mint] = &positionCopy
	return nil
}

// Update replaces the position for its mint. Returns ErrNotFound if no open
// position exists.
func (s *PositionStore) Update(_ context.Context, p *domain.Position) error {
	if p == nil || p.Mint == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[p.Mint]; !exists {
		return storage.ErrNotFound
	}

	positionCopy := *p
	s.data[p.Mint] = &positionCopy
	return nil
}

// Delete removes the position for a mint. Returns ErrNotFound if no open
// position exists.
func (s *PositionStore) Delete(_ context.Context, mint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[mint]; !exists {
		return storage.ErrNotFound
	}
	delete(s.data, mint)
	return nil
}

// GetByMint retrieves the open position for a mint. Returns ErrNotFound if
// not exists.
func (s *PositionStore) GetByMint(_ context.Context, mint string) (*domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.data[mint]
	if !exists {
		return nil, storage.ErrNotFound
	}

	positionCopy := *p
	return &positionCopy, nil
}

// GetAll retrieves all open positions, ordered by opened_at ASC.
func (s *PositionStore) GetAll(_ context.Context) ([]*domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Position, 0, len(s.data))
	for _, p := range s.data {
		positionCopy := *p
		result = append(result, &positionCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].OpenedAt.Before(result[j].OpenedAt)
	})

	return result, nil
}
