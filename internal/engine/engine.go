// Package engine coordinates the trading flow: gather market inputs, gate,
// execute, book fills, and drive the reevaluation loop over open positions.
package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Leo-moon-max/BagsAiTradingBot/internal/domain"
	"github.com/Leo-moon-max/BagsAiTradingBot/internal/executor"
	"github.com/Leo-moon-max/BagsAiTradingBot/internal/market"
	"github.com/Leo-moon-max/BagsAiTradingBot/internal/observability"
	"github.com/Leo-moon-max/BagsAiTradingBot/internal/position"
	"github.com/Leo-moon-max/BagsAiTradingBot/internal/quote"
	"github.com/Leo-moon-max/BagsAiTradingBot/internal/risk"
	"github.com/Leo-moon-max/BagsAiTradingBot/internal/storage"
	"github.com/Leo-moon-max/BagsAiTradingBot/internal/verify"
)

// Options for creating an Engine.
type Options struct {
	Market market.Client
	Verify verify.Client
	Quotes quote.Client

	EntryGate *risk.Gate
	ExitGate  *risk.Gate
	Executor  *executor.Executor
	Ledger    *position.Ledger

	Valuations storage.ValuationStore

	ReevaluateInterval time.Duration
	Metrics            *observability.Metrics
}

// Engine drives intents through gather → gate → execute → book, and runs the
// reevaluation loop that proposes and executes gated exits.
type Engine struct {
	market market.Client
	verify verify.Client
	quotes quote.Client

	entryGate *risk.Gate
	exitGate  *risk.Gate
	exec      *executor.Executor
	ledger    *position.Ledger

	valuations storage.ValuationStore

	interval time.Duration
	metrics  *observability.Metrics
}

// New creates an engine.
func New(opts Options) *Engine {
	return &Engine{
		market:     opts.Market,
		verify:     opts.Verify,
		quotes:     opts.Quotes,
		entryGate:  opts.EntryGate,
		exitGate:   opts.ExitGate,
		exec:       opts.Executor,
		ledger:     opts.Ledger,
		valuations: opts.Valuations,
		interval:   opts.ReevaluateInterval,
		metrics:    opts.Metrics,
	}
}

// gathered is the combined result of the concurrent input fetches.
type gathered struct {
	snapshot     *domain.MarketSnapshot
	verification *domain.Verification
	quote        *domain.Quote
}

// gather fans out the snapshot, verification, and quote fetches and combines
// them once all have resolved. Individual fetch failures are not fatal here:
// the gate blocks on whatever is missing, itemized per check.
func (e *Engine) gather(ctx context.Context, intent *domain.TradeIntent) *gathered {
	var g gathered
	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		snap, err := e.market.GetSnapshot(ctx, intent.Mint)
		if err != nil {
			log.Printf("[engine] intent=%s snapshot fetch failed: %v", intent.ID, err)
			return
		}
		g.snapshot = snap
	}()
	go func() {
		defer wg.Done()
		v, err := e.verify.GetVerification(ctx, intent.Mint)
		if err != nil {
			// An unavailable lookup gates as unverified.
			log.Printf("[engine] intent=%s verification fetch failed: %v", intent.ID, err)
			return
		}
		g.verification = v
	}()
	go func() {
		defer wg.Done()
		q, err := e.quotes.GetQuote(ctx, intent.InputMint, intent.OutputMint, intent.Amount, intent.MaxSlippageBps)
		if err != nil {
			log.Printf("[engine] intent=%s gate quote fetch failed: %v", intent.ID, err)
			return
		}
		g.quote = q
	}()
	wg.Wait()

	return &g
}

// TryEnter gates and executes an entry intent, booking the confirmed fill
// into the ledger. A BLOCK verdict is returned as *risk.BlockedError with no
// execution side effect.
func (e *Engine) TryEnter(ctx context.Context, intent *domain.TradeIntent) (*domain.Position, error) {
	if err := intent.Validate(); err != nil {
		return nil, err
	}
	if !intent.Direction.Entry() {
		return nil, fmt.Errorf("%w: TryEnter requires an entry direction", domain.ErrInvalidIntent)
	}

	in := e.gather(ctx, intent)
	verdict := e.entryGate.Evaluate(risk.Inputs{
		Intent:       intent,
		Snapshot:     in.snapshot,
		Verification: in.verification,
		Quote:        in.quote,
	})
	e.observeVerdict(verdict)

	if verdict.Blocked() {
		log.Printf("[engine] intent=%s BLOCKED: %v", intent.ID, verdict.BlockReasons())
		return nil, &risk.BlockedError{Verdict: verdict}
	}
	for _, reason := range verdict.WarnReasons() {
		log.Printf("[engine] intent=%s warning: %s", intent.ID, reason)
	}

	attempt, err := e.exec.Execute(ctx, intent)
	if err != nil {
		return nil, fmt.Errorf("execute entry: %w", err)
	}

	fill := attempt.Fill()
	pos, err := e.ledger.Open(ctx, fill)
	if err != nil {
		return nil, fmt.Errorf("book entry fill %s: %w", fill.Signature, err)
	}
	log.Printf("[engine] intent=%s opened %s cost=%d lamports signature=%s",
		intent.ID, pos.Mint, fill.InAmount, fill.Signature)
	return pos, nil
}

// Run drives the reevaluation loop until the context is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			e.reevaluateAll(ctx)
		}
	}
}

// reevaluateAll prices every open position, records valuation marks, and
// routes EXIT proposals through the exit gate and the executor.
func (e *Engine) reevaluateAll(ctx context.Context) {
	positions := e.ledger.Positions()
	if len(positions) == 0 {
		return
	}

	marks := make([]*domain.ValuationMark, 0, len(positions))
	var exits []*position.Evaluation

	for _, p := range positions {
		eval, err := e.ledger.Reevaluate(ctx, p.Mint)
		if err != nil {
			log.Printf("[engine] reevaluate %s: %v", p.Mint, err)
			continue
		}
		marks = append(marks, eval.Mark)
		if eval.Action == position.ActionExit {
			exits = append(exits, eval)
		}
	}

	if len(marks) > 0 {
		if err := e.valuations.InsertBulk(ctx, marks); err != nil {
			log.Printf("[engine] persist valuation marks: %v", err)
		}
	}

	for _, eval := range exits {
		if err := e.executeExit(ctx, eval); err != nil {
			log.Printf("[engine] exit %s (%s): %v", eval.Mint, eval.Reason, err)
		}
	}
}

// executeExit gates and executes one exit proposal and books the reduction.
func (e *Engine) executeExit(ctx context.Context, eval *position.Evaluation) error {
	intent := eval.Intent

	// Exits still face the impact and sizing rules; the live quote is the
	// only market input the exit checks consult.
	q, err := e.quotes.GetQuote(ctx, intent.InputMint, intent.OutputMint, intent.Amount, intent.MaxSlippageBps)
	if err != nil {
		log.Printf("[engine] intent=%s exit gate quote fetch failed: %v", intent.ID, err)
	}
	verdict := e.exitGate.Evaluate(risk.Inputs{Intent: intent, Quote: q})
	e.observeVerdict(verdict)

	if verdict.Blocked() {
		log.Printf("[engine] intent=%s exit BLOCKED: %v", intent.ID, verdict.BlockReasons())
		return &risk.BlockedError{Verdict: verdict}
	}

	attempt, err := e.exec.Execute(ctx, intent)
	if err != nil {
		return fmt.Errorf("execute exit: %w", err)
	}

	fill := attempt.Fill()
	trade, err := e.ledger.Reduce(ctx, fill, eval.Reason)
	if err != nil {
		return fmt.Errorf("book exit fill %s: %w", fill.Signature, err)
	}
	log.Printf("[engine] closed %s reason=%s pnl=%d lamports (%.1f%%) signature=%s",
		trade.Mint, trade.ExitReason, trade.PnLLamports, trade.PnLPct*100, fill.Signature)
	return nil
}

func (e *Engine) observeVerdict(v *risk.Verdict) {
	var blocked []string
	for _, r := range v.Results {
		if r.Status == risk.StatusBlock {
			blocked = append(blocked, r.Name)
		}
	}
	e.metrics.IncGateVerdict(string(v.Decision), blocked)
}
