package executor

import (
	"errors"
	"testing"
	"time"

	"github.com/Leo-moon-max/BagsAiTradingBot/internal/domain"
)

func TestAttempt_HappyPathTransitions(t *testing.T) {
	a := newAttempt(testIntent())

	order := []State{StateQuoted, StateBuilt, StateSigned, StateSimulated, StateBroadcast, StateConfirmed}
	for _, next := range order {
		if err := a.transition(next); err != nil {
			t.Fatalf("transition to %s: %v", next, err)
		}
	}

	if !a.State.Terminal() {
		t.Error("CONFIRMED must be terminal")
	}
	if a.CompletedAt.IsZero() {
		t.Error("terminal transition must stamp CompletedAt")
	}
}

func TestAttempt_RejectsSkippedStages(t *testing.T) {
	tests := []struct {
		from State
		to   State
	}{
		{"", StateBuilt},
		{StateQuoted, StateSigned},
		{StateQuoted, StateBroadcast},
		{StateBuilt, StateSimulated},
		{StateSigned, StateBroadcast},
		{StateSimulated, StateConfirmed},
		{StateBroadcast, StateQuoted},
	}

	for _, tt := range tests {
		a := newAttempt(testIntent())
		a.State = tt.from
		if err := a.transition(tt.to); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("%s -> %s: err = %v, want ErrInvalidTransition", tt.from, tt.to, err)
		}
	}
}

func TestAttempt_TerminalStatesAreFinal(t *testing.T) {
	for _, terminal := range []State{StateConfirmed, StateFailed, StateExpired} {
		a := newAttempt(testIntent())
		a.State = terminal
		for _, next := range []State{StateQuoted, StateBroadcast, StateFailed, StateExpired} {
			if err := a.transition(next); !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("%s -> %s: err = %v, want ErrInvalidTransition", terminal, next, err)
			}
		}
	}
}

func TestAttempt_AnyActiveStateCanFailOrExpire(t *testing.T) {
	active := []State{"", StateQuoted, StateBuilt, StateSigned, StateSimulated, StateBroadcast}
	for _, from := range active {
		for _, to := range []State{StateFailed, StateExpired} {
			a := newAttempt(testIntent())
			a.State = from
			if err := a.transition(to); err != nil {
				t.Errorf("%s -> %s: %v", from, to, err)
			}
		}
	}
}

func TestAttempt_FillOnlyWhenConfirmed(t *testing.T) {
	intent := testIntent()

	for _, state := range []State{"", StateQuoted, StateBuilt, StateSigned, StateSimulated, StateBroadcast, StateFailed, StateExpired} {
		a := newAttempt(intent)
		a.State = state
		a.Quote = &domain.Quote{InAmount: 10, OutAmount: 20}
		if a.Fill() != nil {
			t.Errorf("state %s must not yield a fill", state)
		}
	}

	a := newAttempt(intent)
	a.State = StateConfirmed
	a.Quote = &domain.Quote{InAmount: 10, OutAmount: 20}
	a.Signature = "sig"
	a.CompletedAt = time.Now()

	fill := a.Fill()
	if fill == nil {
		t.Fatal("confirmed attempt must yield a fill")
	}
	if fill.Direction != intent.Direction || fill.Mint != intent.Mint || fill.Signature != "sig" {
		t.Errorf("unexpected fill: %+v", fill)
	}
}
