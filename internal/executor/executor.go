package executor

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"time"

	"github.com/Leo-moon-max/BagsAiTradingBot/internal/config"
	"github.com/Leo-moon-max/BagsAiTradingBot/internal/domain"
	"github.com/Leo-moon-max/BagsAiTradingBot/internal/observability"
	"github.com/Leo-moon-max/BagsAiTradingBot/internal/quote"
	"github.com/Leo-moon-max/BagsAiTradingBot/internal/solana"
)

// Executor runs the transaction pipeline for gated trade intents. Attempts
// for different intents may run concurrently up to the configured bound;
// each attempt is internally sequential.
type Executor struct {
	quotes    quote.Client
	rpc       solana.RPCClient
	confirmer solana.Confirmer
	wallet    *solana.Wallet

	cfg         config.Executor
	quoteMaxAge time.Duration

	metrics *observability.Metrics
	sem     chan struct{}
}

// New creates an executor. metrics may be nil.
func New(quotes quote.Client, rpc solana.RPCClient, confirmer solana.Confirmer, wallet *solana.Wallet, cfg config.Executor, quoteMaxAge time.Duration, metrics *observability.Metrics) *Executor {
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Executor{
		quotes:      quotes,
		rpc:         rpc,
		confirmer:   confirmer,
		wallet:      wallet,
		cfg:         cfg,
		quoteMaxAge: quoteMaxAge,
		metrics:     metrics,
		sem:         make(chan struct{}, maxConcurrent),
	}
}

// Execute drives the intent to a terminal attempt. Expired attempts are
// restarted with a fresh quote up to the retry budget; every other failure
// is returned as is. The returned attempt is always terminal.
func (e *Executor) Execute(ctx context.Context, intent *domain.TradeIntent) (*Attempt, error) {
	if err := intent.Validate(); err != nil {
		return nil, err
	}

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-e.sem }()

	var attempt *Attempt
	var err error
	for try := 0; try <= e.cfg.MaxRetries; try++ {
		if try > 0 {
			e.metrics.IncExecutorRetry()
			log.Printf("[executor] intent=%s retrying after %v (attempt %d/%d)",
				intent.ID, err, try+1, e.cfg.MaxRetries+1)
		}

		attempt = newAttempt(intent)
		err = e.run(ctx, attempt)

		e.metrics.ObserveAttempt(string(attempt.State))
		if err == nil {
			return attempt, nil
		}
		if !retryable(err) || ctx.Err() != nil {
			return attempt, err
		}
	}
	return attempt, fmt.Errorf("retry budget exhausted: %w", err)
}

// run takes one attempt through the pipeline to a terminal state.
func (e *Executor) run(ctx context.Context, attempt *Attempt) error {
	intent := attempt.Intent

	// Quote.
	start := time.Now()
	q, err := e.quotes.GetQuote(ctx, intent.InputMint, intent.OutputMint, intent.Amount, intent.MaxSlippageBps)
	e.metrics.ObserveQuoteLatency(time.Since(start))
	if err != nil {
		return attempt.fail(fmt.Errorf("quote: %w", err))
	}
	attempt.Quote = q
	attempt.transition(StateQuoted)

	// A blockhash horizon snapshotted before the build is an upper bound on
	// how long the built transaction can stay valid.
	horizon, err := e.rpc.GetLatestBlockhash(ctx)
	if err != nil {
		return attempt.fail(fmt.Errorf("blockhash: %w", err))
	}

	// Build.
	txBytes, err := e.quotes.BuildSwap(ctx, q, e.wallet.PublicKey())
	if err != nil {
		return attempt.fail(fmt.Errorf("build swap: %w", err))
	}
	attempt.transition(StateBuilt)

	// Revalidate constraints against the quote actually being signed.
	if err := e.revalidate(attempt); err != nil {
		return err
	}

	// Sign.
	signed, signature, err := solana.SignTransaction(txBytes, e.wallet)
	if err != nil {
		return attempt.fail(fmt.Errorf("sign: %w", err))
	}
	attempt.Signature = signature
	attempt.transition(StateSigned)

	txBase64 := base64.StdEncoding.EncodeToString(signed)

	// Simulate. Mandatory: a transaction that fails the dry run is never
	// broadcast.
	sim, err := e.rpc.SimulateTransaction(ctx, txBase64)
	if err != nil {
		return attempt.fail(fmt.Errorf("simulate: %w", err))
	}
	attempt.SimulationLogs = sim.Logs
	if sim.Failed() {
		return attempt.fail(&SimulationError{Cause: sim.Err, Logs: sim.Logs})
	}
	attempt.transition(StateSimulated)

	// Broadcast. Preflight is redundant after an explicit simulation.
	if _, err := e.rpc.SendTransaction(ctx, txBase64, e.cfg.SkipPreflightSend); err != nil {
		return attempt.fail(fmt.Errorf("broadcast: %w", err))
	}
	attempt.transition(StateBroadcast)
	log.Printf("[executor] intent=%s broadcast signature=%s", intent.ID, signature)

	return e.confirm(ctx, attempt, horizon)
}

// revalidate re-checks the intent's execution constraints immediately before
// signing. The gate saw an earlier quote; this one is the quote being signed.
func (e *Executor) revalidate(attempt *Attempt) error {
	q, intent := attempt.Quote, attempt.Intent

	if q.Expired(e.quoteMaxAge, time.Now()) {
		return attempt.expire(fmt.Errorf("%w: quote age %v exceeds %v", ErrStaleQuote, q.Age(time.Now()).Round(time.Millisecond), e.quoteMaxAge))
	}
	if intent.MaxImpactPct > 0 && q.PriceImpactPct > intent.MaxImpactPct {
		return attempt.fail(fmt.Errorf("%w: price impact %.2f%% exceeds %.2f%%", ErrConstraintViolated, q.PriceImpactPct, intent.MaxImpactPct))
	}
	if intent.MinOut > 0 && q.MinOutAmount < intent.MinOut {
		return attempt.fail(fmt.Errorf("%w: min out %d below required %d", ErrConstraintViolated, q.MinOutAmount, intent.MinOut))
	}
	return nil
}

// confirm waits for the broadcast signature. Both timeout outcomes expire
// the attempt; a late landing is ruled out with a status poll before the
// expiry is reported, since an expired attempt will be retried.
func (e *Executor) confirm(ctx context.Context, attempt *Attempt, horizon *solana.Blockhash) error {
	confirmCtx, cancel := context.WithTimeout(ctx, e.cfg.ConfirmTimeout)
	defer cancel()

	conf, err := e.confirmer.ConfirmSignature(confirmCtx, attempt.Signature)
	if err == nil {
		if conf.Err != nil {
			return attempt.fail(&TransactionError{Signature: attempt.Signature, Cause: conf.Err})
		}
		attempt.Slot = conf.Slot
		attempt.transition(StateConfirmed)
		log.Printf("[executor] intent=%s confirmed signature=%s slot=%d", attempt.Intent.ID, attempt.Signature, conf.Slot)
		return nil
	}
	if ctx.Err() != nil {
		return attempt.fail(ctx.Err())
	}

	// The subscription lapsed; poll once in case the notification raced the
	// timeout.
	statuses, statusErr := e.rpc.GetSignatureStatuses(ctx, []string{attempt.Signature})
	if statusErr == nil && len(statuses) == 1 && statuses[0] != nil {
		if statuses[0].Err != nil {
			return attempt.fail(&TransactionError{Signature: attempt.Signature, Cause: statuses[0].Err})
		}
		if statuses[0].Confirmed() {
			attempt.Slot = statuses[0].Slot
			attempt.transition(StateConfirmed)
			return nil
		}
	}

	height, heightErr := e.rpc.GetBlockHeight(ctx)
	if heightErr == nil && height > horizon.LastValidBlockHeight {
		return attempt.expire(fmt.Errorf("%w: block height %d past %d", ErrBroadcastExpired, height, horizon.LastValidBlockHeight))
	}
	return attempt.expire(fmt.Errorf("%w: signature %s after %v", ErrConfirmationTimeout, attempt.Signature, e.cfg.ConfirmTimeout))
}
