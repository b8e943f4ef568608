package clickhouse

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/Leo-moon-max/BagsAiTradingBot/internal/domain"
	"github.com/Leo-moon-max/BagsAiTradingBot/internal/storage"
)

// ValuationStore implements storage.ValuationStore using ClickHouse. Marks
// are append-only observations, a natural fit for MergeTree.
type ValuationStore struct {
	conn *Conn
}

// NewValuationStore creates a new ValuationStore.
func NewValuationStore(conn *Conn) *ValuationStore {
	return &ValuationStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ValuationStore = (*ValuationStore)(nil)

// InsertBulk appends a batch of marks.
func (s *ValuationStore) InsertBulk(ctx context.Context, marks []*domain.ValuationMark) error {
	if len(marks) == 0 {
		return nil
	}
	for _, m := range marks {
		if m == nil || m.Mint == "" {
			return storage.ErrInvalidInput
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO valuation_marks (
			mint, timestamp_ms, remaining_amount, exit_value, pnl_pct, price_impact_pct
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, m := range marks {
		err = batch.Append(
			m.Mint, uint64(m.TimestampMs), m.RemainingAmount,
			m.ExitValue, m.PnLPct, m.PriceImpactPct,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByMint retrieves all marks for a mint, ordered by timestamp ASC.
func (s *ValuationStore) GetByMint(ctx context.Context, mint string) ([]*domain.ValuationMark, error) {
	query := `
		SELECT mint, timestamp_ms, remaining_amount, exit_value, pnl_pct, price_impact_pct
		FROM valuation_marks
		WHERE mint = ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, mint)
	if err != nil {
		return nil, fmt.Errorf("query marks by mint: %w", err)
	}
	defer rows.Close()

	return scanValuationMarks(rows)
}

// scanValuationMarks scans multiple rows.
func scanValuationMarks(rows driver.Rows) ([]*domain.ValuationMark, error) {
	var marks []*domain.ValuationMark

	for rows.Next() {
		var m domain.ValuationMark
		var timestampMs uint64

		err := rows.Scan(
			&m.Mint, &timestampMs, &m.RemainingAmount,
			&m.ExitValue, &m.PnLPct, &m.PriceImpactPct,
		)
		if err != nil {
			return nil, fmt.Errorf("scan valuation mark row: %w", err)
		}

		m.TimestampMs = int64(timestampMs)
		marks = append(marks, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate valuation mark rows: %w", err)
	}
	return marks, nil
}
