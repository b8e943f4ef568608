// Package storage defines persistence interfaces for the trading agent.
// Implementations live in the memory, postgres, and clickhouse subpackages.
package storage

import (
	"context"

	"github.com/Leo-moon-max/BagsAiTradingBot/internal/domain"
)

// PositionStore provides access to open position storage. At most one open
// position exists per mint.
type PositionStore interface {
	// Insert adds a new position. Returns ErrDuplicateKey if the mint
	// already has an open position.
	Insert(ctx context.Context, p *domain.Position) error

	// Update replaces the position for its mint. Returns ErrNotFound if
	// no open position exists.
	Update(ctx context.Context, p *domain.Position) error

	// Delete removes the position for a mint. Returns ErrNotFound if no
	// open position exists.
	Delete(ctx context.Context, mint string) error

	// GetByMint retrieves the open position for a mint. Returns
	// ErrNotFound if not exists.
	GetByMint(ctx context.Context, mint string) (*domain.Position, error)

	// GetAll retrieves all open positions, ordered by opened_at ASC.
	GetAll(ctx context.Context) ([]*domain.Position, error)
}

// ClosedTradeStore provides access to the closed trade journal. The journal
// is append-only: a closed trade is never modified.
type ClosedTradeStore interface {
	// Insert adds a closed trade. Returns ErrDuplicateKey if the trade ID exists.
	Insert(ctx context.Context, t *domain.ClosedTrade) error

	// GetByMint retrieves all closed trades for a mint, ordered by closed_at ASC.
	GetByMint(ctx context.Context, mint string) ([]*domain.ClosedTrade, error)

	// GetAll retrieves all closed trades, ordered by closed_at ASC.
	GetAll(ctx context.Context) ([]*domain.ClosedTrade, error)
}

// ValuationStore provides access to the valuation mark timeseries written by
// the position monitor on every reevaluation pass.
type ValuationStore interface {
	// InsertBulk appends a batch of marks.
	InsertBulk(ctx context.Context, marks []*domain.ValuationMark) error

	// GetByMint retrieves all marks for a mint, ordered by timestamp ASC.
	GetByMint(ctx context.Context, mint string) ([]*domain.ValuationMark, error)
}
