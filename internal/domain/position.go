package domain

import "time"

// Exit reason codes recorded on closed trades.
const (
	ExitReasonStopLoss   = "STOP_LOSS"
	ExitReasonTakeProfit = "TAKE_PROFIT"
	ExitReasonManual     = "MANUAL"
)

// Position is the entry state for a held token. Mutated only by the position
// ledger in response to confirmed fills.
type Position struct {
	Mint   string
	Symbol string

	EntryPrice      float64 // SOL per token at entry
	OpenedAmount    uint64  // raw token units originally acquired
	RemainingAmount uint64  // raw token units still held
	CostBasis       uint64  // lamports spent at entry

	StopLossPct   float64 // fractional, e.g. 0.15 exits at -15%
	TakeProfitPct float64 // fractional, e.g. 0.50 exits at +50%

	OpenedAt       time.Time
	EntrySignature string
	Notes          string
}

// RemainingCost returns the share of the entry cost still at risk,
// proportional to the remaining token amount.
func (p *Position) RemainingCost() uint64 {
	if p.OpenedAmount == 0 {
		return 0
	}
	return uint64(float64(p.CostBasis) * float64(p.RemainingAmount) / float64(p.OpenedAmount))
}

// ClosedTrade is the append-only record produced when a position is fully
// closed or partially reduced.
type ClosedTrade struct {
	ID     string
	Mint   string
	Symbol string

	EntryPrice float64 // SOL per token
	ExitPrice  float64 // SOL per token

	TokenAmount   uint64 // raw token units realized in this close
	CostBasis     uint64 // lamports attributed to the closed amount
	RealizedValue uint64 // lamports received
	PnLLamports   int64
	PnLPct        float64

	ExitReason string
	OpenedAt   time.Time
	ClosedAt   time.Time

	EntrySignature string
	ExitSignature  string
}
