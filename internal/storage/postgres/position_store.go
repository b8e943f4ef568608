package postgres

import (
	"context"
	"fmt"

	"github.com/Leo-moon-max/BagsAiTradingBot/internal/domain"
	"github.com/Leo-moon-max/BagsAiTradingBot/internal/storage"
)

// PositionStore implements storage.PositionStore using PostgreSQL.
type PositionStore struct {
	pool *Pool
}

// NewPositionStore creates a new PositionStore.
func NewPositionStore(pool *Pool) *PositionStore {
	return &PositionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PositionStore = (*PositionStore)(nil)

const positionColumns = `
	mint, symbol, entry_price, opened_amount, remaining_amount, cost_basis,
	stop_loss_pct, take_profit_pct, opened_at, entry_signature, notes
`

// Insert adds a new position. Returns ErrDuplicateKey if the mint already
// has an open position.
func (s *PositionStore) Insert(ctx context.Context, p *domain.Position) error {
	if p == nil || p.Mint == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO positions (` + positionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := s.pool.Exec(ctx, query,
		p.Mint, p.Symbol, p.EntryPrice,
		int64(p.OpenedAmount), int64(p.RemainingAmount), int64(p.CostBasis),
		p.StopLossPct, p.TakeProfitPct, p.OpenedAt, p.EntrySignature, p.Notes,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert position: %w", err)
	}
	return nil
}

// Update replaces the position for its mint. Returns ErrNotFound if no open
// position exists.
func (s *PositionStore) Update(ctx context.Context, p *domain.Position) error {
	if p == nil || p.Mint == "" {
		return storage.ErrInvalidInput
	}

	query := `
		UPDATE positions SET
			symbol = $2, entry_price = $3, opened_amount = $4,
			remaining_amount = $5, cost_basis = $6, stop_loss_pct = $7,
			take_profit_pct = $8, opened_at = $9, entry_signature = $10, notes = $11
		WHERE mint = $1
	`

	tag, err := s.pool.Exec(ctx, query,
		p.Mint, p.Symbol, p.EntryPrice,
		int64(p.OpenedAmount), int64(p.RemainingAmount), int64(p.CostBasis),
		p.StopLossPct, p.TakeProfitPct, p.OpenedAt, p.EntrySignature, p.Notes,
	)
	if err != nil {
		return fmt.Errorf("update position: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Delete removes the position for a mint. Returns ErrNotFound if no open
// position exists.
func (s *PositionStore) Delete(ctx context.Context, mint string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM positions WHERE mint = $1`, mint)
	if err != nil {
		return fmt.Errorf("delete position: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetByMint retrieves the open position for a mint. Returns ErrNotFound if
// not exists.
func (s *PositionStore) GetByMint(ctx context.Context, mint string) (*domain.Position, error) {
	query := `SELECT ` + positionColumns + ` FROM positions WHERE mint = $1`

	row := s.pool.QueryRow(ctx, query, mint)

	var p domain.Position
	var openedAmount, remainingAmount, costBasis int64
	err := row.Scan(
		&p.Mint, &p.Symbol, &p.EntryPrice,
		&openedAmount, &remainingAmount, &costBasis,
		&p.StopLossPct, &p.TakeProfitPct, &p.OpenedAt, &p.EntrySignature, &p.Notes,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get position by mint: %w", err)
	}

	p.OpenedAmount = uint64(openedAmount)
	p.RemainingAmount = uint64(remainingAmount)
	p.CostBasis = uint64(costBasis)
	return &p, nil
}

// GetAll retrieves all open positions, ordered by opened_at ASC.
func (s *PositionStore) GetAll(ctx context.Context) ([]*domain.Position, error) {
	query := `SELECT ` + positionColumns + ` FROM positions ORDER BY opened_at ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query all positions: %w", err)
	}
	defer rows.Close()

	var result []*domain.Position
	for rows.Next() {
		var p domain.Position
		var openedAmount, remainingAmount, costBasis int64
		err := rows.Scan(
			&p.Mint, &p.Symbol, &p.EntryPrice,
			&openedAmount, &remainingAmount, &costBasis,
			&p.StopLossPct, &p.TakeProfitPct, &p.OpenedAt, &p.EntrySignature, &p.Notes,
		)
		if err != nil {
			return nil, fmt.Errorf("scan position row: %w", err)
		}
		p.OpenedAmount = uint64(openedAmount)
		p.RemainingAmount = uint64(remainingAmount)
		p.CostBasis = uint64(costBasis)
		result = append(result, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate position rows: %w", err)
	}
	return result, nil
}
