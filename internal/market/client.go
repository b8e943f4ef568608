package market

import (
	"context"
	"errors"

	"github.com/Leo-moon-max/BagsAiTradingBot/internal/domain"
)

// Market data errors.
var (
	// ErrNotFound means the token has no tracked pair yet.
	ErrNotFound = errors.New("no market data for token")

	// ErrUnavailable means the provider failed.
	ErrUnavailable = errors.New("market data provider unavailable")
)

// Client fetches a fresh market snapshot for a token. Snapshots are re-fetched
// on every gate evaluation; nothing caches them.
type Client interface {
	GetSnapshot(ctx context.Context, mint string) (*domain.MarketSnapshot, error)
}
