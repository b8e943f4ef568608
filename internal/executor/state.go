// Package executor drives trade intents through the transaction pipeline:
// quote, build, sign, simulate, broadcast, confirm. Every attempt is a state
// machine whose transitions are enforced, and only a confirmed attempt can
// produce a fill.
package executor

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Leo-moon-max/BagsAiTradingBot/internal/domain"
)

// State is the lifecycle stage of one execution attempt.
type State string

const (
	StateQuoted    State = "QUOTED"
	StateBuilt     State = "BUILT"
	StateSigned    State = "SIGNED"
	StateSimulated State = "SIMULATED"
	StateBroadcast State = "BROADCAST"
	StateConfirmed State = "CONFIRMED"
	StateFailed    State = "FAILED"
	StateExpired   State = "EXPIRED"
)

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateConfirmed || s == StateFailed || s == StateExpired
}

// ErrInvalidTransition is returned when an attempt is moved out of order.
var ErrInvalidTransition = errors.New("invalid state transition")

// validNext maps each state to its permitted successors. Any non-terminal
// state may also move to FAILED or EXPIRED.
var validNext = map[State][]State{
	"":             {StateQuoted},
	StateQuoted:    {StateBuilt},
	StateBuilt:     {StateSigned},
	StateSigned:    {StateSimulated},
	StateSimulated: {StateBroadcast},
	StateBroadcast: {StateConfirmed},
}

// Attempt is one pass through the pipeline for a trade intent. A retried
// intent gets a fresh attempt; attempts are never reused.
type Attempt struct {
	ID     string
	Intent *domain.TradeIntent
	State  State

	Quote     *domain.Quote
	Signature string
	Slot      uint64

	// SimulationLogs holds program output from the dry run, kept for
	// diagnostics whether or not the simulation passed.
	SimulationLogs []string

	Err error

	StartedAt   time.Time
	CompletedAt time.Time
}

func newAttempt(intent *domain.TradeIntent) *Attempt {
	return &Attempt{
		ID:        uuid.NewString(),
		Intent:    intent,
		StartedAt: time.Now(),
	}
}

// transition advances the attempt, rejecting out-of-order moves.
func (a *Attempt) transition(next State) error {
	if a.State.Terminal() {
		return fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, a.State)
	}
	if next == StateFailed || next == StateExpired {
		a.State = next
		a.CompletedAt = time.Now()
		return nil
	}
	for _, allowed := range validNext[a.State] {
		if next == allowed {
			a.State = next
			if next.Terminal() {
				a.CompletedAt = time.Now()
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.State, next)
}

// fail marks the attempt failed with its cause.
func (a *Attempt) fail(err error) error {
	a.Err = err
	a.transition(StateFailed)
	return err
}

// expire marks the attempt expired with its cause.
func (a *Attempt) expire(err error) error {
	a.Err = err
	a.transition(StateExpired)
	return err
}

// Fill converts a confirmed attempt into the fill the position ledger books.
// Any other state returns nil: unconfirmed attempts never move the ledger.
func (a *Attempt) Fill() *domain.Fill {
	if a.State != StateConfirmed {
		return nil
	}
	return &domain.Fill{
		IntentID:    a.Intent.ID,
		Direction:   a.Intent.Direction,
		Mint:        a.Intent.Mint,
		Symbol:      a.Intent.Symbol,
		InAmount:    a.Quote.InAmount,
		OutAmount:   a.Quote.OutAmount,
		Signature:   a.Signature,
		ConfirmedAt: a.CompletedAt,
	}
}
