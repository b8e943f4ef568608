// Package position is the source of truth for exposure. The ledger books
// confirmed fills into open positions, realizes closed trades, and prices
// open positions with live exit quotes.
package position

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/Leo-moon-max/BagsAiTradingBot/internal/config"
	"github.com/Leo-moon-max/BagsAiTradingBot/internal/domain"
	"github.com/Leo-moon-max/BagsAiTradingBot/internal/observability"
	"github.com/Leo-moon-max/BagsAiTradingBot/internal/quote"
	"github.com/Leo-moon-max/BagsAiTradingBot/internal/storage"
)

const lamportsPerSOL = 1_000_000_000

// ErrNoPosition is returned when an operation references a mint with no open
// position.
var ErrNoPosition = errors.New("no open position for mint")

// ErrOverReduce is returned when a reduction claims more tokens than the
// position holds. Fills are booked only after on-chain confirmation, so this
// indicates ledger drift and is never silently clamped.
var ErrOverReduce = errors.New("reduction exceeds remaining position")

// Ledger tracks open positions. Mutations and reads are atomic relative to
// each other, so a reevaluation never sees a position mid-mutation.
type Ledger struct {
	mu   sync.RWMutex
	open map[string]*domain.Position

	positions storage.PositionStore
	trades    storage.ClosedTradeStore
	quotes    quote.Client

	cfg config.Position

	// Exit intents inherit these constraints; the entry path carries its own.
	exitSlippageBps int
	exitMaxImpact   float64

	metrics *observability.Metrics
}

// NewLedger creates a ledger over the given stores. metrics may be nil.
func NewLedger(positions storage.PositionStore, trades storage.ClosedTradeStore, quotes quote.Client, cfg config.Position, exitSlippageBps int, exitMaxImpact float64, metrics *observability.Metrics) *Ledger {
	return &Ledger{
		open:            make(map[string]*domain.Position),
		positions:       positions,
		trades:          trades,
		quotes:          quotes,
		cfg:             cfg,
		exitSlippageBps: exitSlippageBps,
		exitMaxImpact:   exitMaxImpact,
		metrics:         metrics,
	}
}

// Load hydrates the open set from the position store. Called once at startup
// so positions survive restarts.
func (l *Ledger) Load(ctx context.Context) error {
	stored, err := l.positions.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load positions: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.open = make(map[string]*domain.Position, len(stored))
	for _, p := range stored {
		l.open[p.Mint] = p
	}
	l.metrics.SetOpenPositions(len(l.open))
	return nil
}

// Open books a confirmed entry fill. A first fill opens the position; a
// further entry fill on the same mint increases it, accumulating cost basis.
func (l *Ledger) Open(ctx context.Context, fill *domain.Fill) (*domain.Position, error) {
	if fill == nil || fill.Mint == "" || !fill.Direction.Entry() {
		return nil, fmt.Errorf("%w: not an entry fill", domain.ErrInvalidIntent)
	}
	if fill.InAmount == 0 || fill.OutAmount == 0 {
		return nil, fmt.Errorf("%w: empty fill", domain.ErrInvalidIntent)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	existing, held := l.open[fill.Mint]
	if held {
		updated := *existing
		updated.OpenedAmount += fill.OutAmount
		updated.RemainingAmount += fill.OutAmount
		updated.CostBasis += fill.InAmount
		updated.EntryPrice = solPerToken(updated.CostBasis, updated.OpenedAmount)

		if err := l.positions.Update(ctx, &updated); err != nil {
			return nil, fmt.Errorf("persist increase: %w", err)
		}
		l.open[fill.Mint] = &updated
		snapshot := updated
		return &snapshot, nil
	}

	p := &domain.Position{
		Mint:            fill.Mint,
		Symbol:          fill.Symbol,
		EntryPrice:      solPerToken(fill.InAmount, fill.OutAmount),
		OpenedAmount:    fill.OutAmount,
		RemainingAmount: fill.OutAmount,
		CostBasis:       fill.InAmount,
		StopLossPct:     l.cfg.StopLossPct,
		TakeProfitPct:   l.cfg.TakeProfitPct,
		OpenedAt:        fill.ConfirmedAt,
		EntrySignature:  fill.Signature,
	}

	if err := l.positions.Insert(ctx, p); err != nil {
		return nil, fmt.Errorf("persist open: %w", err)
	}
	l.open[p.Mint] = p
	l.metrics.SetOpenPositions(len(l.open))

	snapshot := *p
	return &snapshot, nil
}

// Reduce books a confirmed exit fill against the position, realizing the
// closed share as a ClosedTrade. A reduction that empties the position
// closes it; a zero-remaining position is never left open.
func (l *Ledger) Reduce(ctx context.Context, fill *domain.Fill, reason string) (*domain.ClosedTrade, error) {
	if fill == nil || fill.Mint == "" || !fill.Direction.Exit() {
		return nil, fmt.Errorf("%w: not an exit fill", domain.ErrInvalidIntent)
	}
	if fill.InAmount == 0 {
		return nil, fmt.Errorf("%w: empty fill", domain.ErrInvalidIntent)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	p, held := l.open[fill.Mint]
	if !held {
		return nil, fmt.Errorf("%w: %s", ErrNoPosition, fill.Mint)
	}
	if fill.InAmount > p.RemainingAmount {
		return nil, fmt.Errorf("%w: %d > %d", ErrOverReduce, fill.InAmount, p.RemainingAmount)
	}

	closedCost := proportionalCost(p, fill.InAmount)
	trade := &domain.ClosedTrade{
		ID:             uuid.NewString(),
		Mint:           p.Mint,
		Symbol:         p.Symbol,
		EntryPrice:     p.EntryPrice,
		ExitPrice:      solPerToken(fill.OutAmount, fill.InAmount),
		TokenAmount:    fill.InAmount,
		CostBasis:      closedCost,
		RealizedValue:  fill.OutAmount,
		PnLLamports:    int64(fill.OutAmount) - int64(closedCost),
		ExitReason:     reason,
		OpenedAt:       p.OpenedAt,
		ClosedAt:       fill.ConfirmedAt,
		EntrySignature: p.EntrySignature,
		ExitSignature:  fill.Signature,
	}
	if closedCost > 0 {
		trade.PnLPct = float64(trade.PnLLamports) / float64(closedCost)
	}

	if err := l.trades.Insert(ctx, trade); err != nil {
		return nil, fmt.Errorf("persist closed trade: %w", err)
	}

	remaining := p.RemainingAmount - fill.InAmount
	if remaining == 0 {
		if err := l.positions.Delete(ctx, p.Mint); err != nil {
			return nil, fmt.Errorf("remove closed position: %w", err)
		}
		delete(l.open, p.Mint)
	} else {
		updated := *p
		updated.RemainingAmount = remaining
		if err := l.positions.Update(ctx, &updated); err != nil {
			return nil, fmt.Errorf("persist reduction: %w", err)
		}
		l.open[p.Mint] = &updated
	}

	l.metrics.SetOpenPositions(len(l.open))
	l.metrics.ObserveClosedTrade(reason, trade.PnLLamports)
	return trade, nil
}

// Get returns a copy of the open position for a mint.
func (l *Ledger) Get(mint string) (*domain.Position, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	p, ok := l.open[mint]
	if !ok {
		return nil, false
	}
	snapshot := *p
	return &snapshot, true
}

// Open positions as a point-in-time copy, ordered arbitrarily.
func (l *Ledger) Positions() []*domain.Position {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*domain.Position, 0, len(l.open))
	for _, p := range l.open {
		snapshot := *p
		result = append(result, &snapshot)
	}
	return result
}

// solPerToken prices raw token units in SOL.
func solPerToken(lamports, tokens uint64) float64 {
	if tokens == 0 {
		return 0
	}
	return float64(lamports) / lamportsPerSOL / float64(tokens)
}

// proportionalCost attributes a share of the entry cost to the tokens being
// closed, proportional to the opened amount.
func proportionalCost(p *domain.Position, tokens uint64) uint64 {
	if p.OpenedAmount == 0 {
		return 0
	}
	return uint64(float64(p.CostBasis) * float64(tokens) / float64(p.OpenedAmount))
}
