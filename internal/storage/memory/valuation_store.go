package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Leo-moon-max/BagsAiTradingBot/internal/domain"
	"github.com/Leo-moon-max/BagsAiTradingBot/internal/storage"
)

// ValuationStore is an in-memory implementation of storage.ValuationStore.
type ValuationStore struct {
	mu   sync.RWMutex
	data []*domain.ValuationMark
}

// NewValuationStore creates a new in-memory valuation store.
func NewValuationStore() *ValuationStore {
	return &ValuationStore{}
}

// Verify interface compliance at compile time.
var _ storage.ValuationStore = (*ValuationStore)(nil)

// InsertBulk appends a batch of marks.
func (s *ValuationStore) InsertBulk(_ context.Context, marks []*domain.ValuationMark) error {
	if len(marks) == 0 {
		return nil
	}
	for _, m := range marks {
		if m == nil || m.Mint == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range marks {
		markCopy := *m
		s.data = append(s.data, &markCopy)
	}
	return nil
}

// GetByMint retrieves all marks for a mint, ordered by timestamp ASC.
func (s *ValuationStore) GetByMint(_ context.Context, mint string) ([]*domain.ValuationMark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ValuationMark
	for _, m := range s.data {
		if m.Mint == mint {
			markCopy := *m
			result = append(result, &markCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})

	return result, nil
}
