package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Leo-moon-max/BagsAiTradingBot/internal/domain"
	"github.com/Leo-moon-max/BagsAiTradingBot/internal/storage"
)

// ClosedTradeStore is an in-memory implementation of storage.ClosedTradeStore.
type ClosedTradeStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ClosedTrade // keyed by trade ID
}

// NewClosedTradeStore creates a new in-memory closed trade store.
func NewClosedTradeStore() *ClosedTradeStore {
	return &ClosedTradeStore{
		data: make(map[string]*domain.ClosedTrade),
	}
}

// Verify interface compliance at compile time.
var _ storage.ClosedTradeStore = (*ClosedTradeStore)(nil)

// Insert adds a closed trade. Returns ErrDuplicateKey if the trade ID exists.
func (s *ClosedTradeStore) Insert(_ context.Context, t *domain.ClosedTrade) error {
	if t == nil || t.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[t.ID]; exists {
		return storage.ErrDuplicateKey
	}

	tradeCopy := *t
	s.data[t.ID] = &tradeCopy
	return nil
}

// GetByMint retrieves all closed trades for a mint, ordered by closed_at ASC.
func (s *ClosedTradeStore) GetByMint(_ context.Context, mint string) ([]*domain.ClosedTrade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ClosedTrade
	for _, t := range s.data {
		if t.Mint == mint {
			tradeCopy := *t
			result = append(result, &tradeCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ClosedAt.Before(result[j].ClosedAt)
	})

	return result, nil
}

// GetAll retrieves all closed trades, ordered by closed_at ASC.
func (s *ClosedTradeStore) GetAll(_ context.Context) ([]*domain.ClosedTrade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.ClosedTrade, 0, len(s.data))
	for _, t := range s.data {
		tradeCopy := *t
		result = append(result, &tradeCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ClosedAt.Before(result[j].ClosedAt)
	})

	return result, nil
}
