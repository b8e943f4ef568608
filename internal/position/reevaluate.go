package position

import (
	"context"
	"fmt"
	"time"

	"github.com/Leo-moon-max/BagsAiTradingBot/internal/domain"
)

// Action is a reevaluation outcome.
type Action string

const (
	ActionHold Action = "HOLD"
	ActionExit Action = "EXIT"
)

// Evaluation is one mark-to-market pass over an open position. On EXIT it
// carries the exit intent for the full remaining size; the ledger proposes,
// it never executes.
type Evaluation struct {
	Mint   string
	Action Action
	Reason string

	ExitValue uint64  // lamports realizable right now, per the live quote
	PnLPct    float64 // fractional, against the remaining cost share

	Intent *domain.TradeIntent
	Mark   *domain.ValuationMark
}

// Reevaluate prices the position's full remaining size with a live exit-side
// quote and compares realizable value against the remaining cost basis.
// The quote is the only valuation source: venues that report no liquidity
// figure still price exits through their curve, so an absent liquidity field
// never strands a position.
func (l *Ledger) Reevaluate(ctx context.Context, mint string) (*Evaluation, error) {
	p, held := l.Get(mint)
	if !held {
		return nil, fmt.Errorf("%w: %s", ErrNoPosition, mint)
	}

	q, err := l.quotes.GetQuote(ctx, p.Mint, domain.WSOLMint, p.RemainingAmount, l.exitSlippageBps)
	if err != nil {
		return nil, fmt.Errorf("exit quote for %s: %w", mint, err)
	}

	exitValue := q.OutAmount
	remainingCost := p.RemainingCost()

	var pnlPct float64
	if remainingCost > 0 {
		pnlPct = float64(exitValue)/float64(remainingCost) - 1
	}

	eval := &Evaluation{
		Mint:      p.Mint,
		Action:    ActionHold,
		ExitValue: exitValue,
		PnLPct:    pnlPct,
		Mark: &domain.ValuationMark{
			Mint:            p.Mint,
			TimestampMs:     time.Now().UnixMilli(),
			RemainingAmount: p.RemainingAmount,
			ExitValue:       exitValue,
			PnLPct:          pnlPct,
			PriceImpactPct:  q.PriceImpactPct,
		},
	}

	switch {
	case p.StopLossPct > 0 && pnlPct <= -p.StopLossPct:
		eval.Action = ActionExit
		eval.Reason = domain.ExitReasonStopLoss
	case p.TakeProfitPct > 0 && pnlPct >= p.TakeProfitPct:
		eval.Action = ActionExit
		eval.Reason = domain.ExitReasonTakeProfit
	}

	if eval.Action == ActionExit {
		eval.Intent = domain.NewExitIntent(p.Mint, p.Symbol, p.RemainingAmount, true, eval.Reason, l.exitSlippageBps, l.exitMaxImpact)
	}
	return eval, nil
}
