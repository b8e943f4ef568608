package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Leo-moon-max/BagsAiTradingBot/internal/domain"
	"github.com/Leo-moon-max/BagsAiTradingBot/internal/storage"
)

// ClosedTradeStore implements storage.ClosedTradeStore using PostgreSQL.
type ClosedTradeStore struct {
	pool *Pool
}

// NewClosedTradeStore creates a new ClosedTradeStore.
func NewClosedTradeStore(pool *Pool) *ClosedTradeStore {
	return &ClosedTradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ClosedTradeStore = (*ClosedTradeStore)(nil)

const closedTradeColumns = `
	id, mint, symbol, entry_price, exit_price, token_amount, cost_basis,
	realized_value, pnl_lamports, pnl_pct, exit_reason,
	opened_at, closed_at, entry_signature, exit_signature
`

// Insert adds a closed trade. Returns ErrDuplicateKey if the trade ID exists.
func (s *ClosedTradeStore) Insert(ctx context.Context, t *domain.ClosedTrade) error {
	if t == nil || t.ID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO closed_trades (` + closedTradeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := s.pool.Exec(ctx, query,
		t.ID, t.Mint, t.Symbol, t.EntryPrice, t.ExitPrice,
		int64(t.TokenAmount), int64(t.CostBasis), int64(t.RealizedValue),
		t.PnLLamports, t.PnLPct, t.ExitReason,
		t.OpenedAt, t.ClosedAt, t.EntrySignature, t.ExitSignature,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert closed trade: %w", err)
	}
	return nil
}

// GetByMint retrieves all closed trades for a mint, ordered by closed_at ASC.
func (s *ClosedTradeStore) GetByMint(ctx context.Context, mint string) ([]*domain.ClosedTrade, error) {
	query := `SELECT ` + closedTradeColumns + ` FROM closed_trades WHERE mint = $1 ORDER BY closed_at ASC`

	rows, err := s.pool.Query(ctx, query, mint)
	if err != nil {
		return nil, fmt.Errorf("query closed trades by mint: %w", err)
	}
	defer rows.Close()

	return scanClosedTrades(rows)
}

// GetAll retrieves all closed trades, ordered by closed_at ASC.
func (s *ClosedTradeStore) GetAll(ctx context.Context) ([]*domain.ClosedTrade, error) {
	query := `SELECT ` + closedTradeColumns + ` FROM closed_trades ORDER BY closed_at ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query all closed trades: %w", err)
	}
	defer rows.Close()

	return scanClosedTrades(rows)
}

// scanClosedTrades scans multiple rows.
func scanClosedTrades(rows pgx.Rows) ([]*domain.ClosedTrade, error) {
	var result []*domain.ClosedTrade

	for rows.Next() {
		var t domain.ClosedTrade
		var tokenAmount, costBasis, realizedValue int64

		err := rows.Scan(
			&t.ID, &t.Mint, &t.Symbol, &t.EntryPrice, &t.ExitPrice,
			&tokenAmount, &costBasis, &realizedValue,
			&t.PnLLamports, &t.PnLPct, &t.ExitReason,
			&t.OpenedAt, &t.ClosedAt, &t.EntrySignature, &t.ExitSignature,
		)
		if err != nil {
			return nil, fmt.Errorf("scan closed trade row: %w", err)
		}

		t.TokenAmount = uint64(tokenAmount)
		t.CostBasis = uint64(costBasis)
		t.RealizedValue = uint64(realizedValue)
		result = append(result, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate closed trade rows: %w", err)
	}
	return result, nil
}
