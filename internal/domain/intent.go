package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Direction describes what a trade intent does to exposure.
type Direction string

const (
	DirectionOpen     Direction = "OPEN"
	DirectionIncrease Direction = "INCREASE"
	DirectionDecrease Direction = "DECREASE"
	DirectionClose    Direction = "CLOSE"
)

// Entry reports whether the direction adds exposure.
func (d Direction) Entry() bool {
	return d == DirectionOpen || d == DirectionIncrease
}

// Exit reports whether the direction reduces exposure.
func (d Direction) Exit() bool {
	return d == DirectionDecrease || d == DirectionClose
}

// ErrInvalidIntent is returned for malformed trade intents. Such intents are
// rejected locally and never reach any external service.
var ErrInvalidIntent = errors.New("invalid trade intent")

// TradeIntent is a proposed action together with the constraints that must
// still hold at execution time. Created by the strategy caller or an exit
// trigger, gated by the risk gate, executed by the executor.
type TradeIntent struct {
	ID        string
	Direction Direction
	Mint      string // token under trade
	Symbol    string

	InputMint  string
	OutputMint string
	Amount     uint64 // raw input units: lamports on entry, token units on exit

	// Execution constraints.
	MaxSlippageBps int
	MaxImpactPct   float64
	MinOut         uint64

	// Reason carries the exit trigger for exit intents, empty on entries.
	Reason string

	CreatedAt time.Time
}

// NewEntryIntent proposes acquiring a token for the given lamport notional.
func NewEntryIntent(mint, symbol string, lamports uint64, maxSlippageBps int, maxImpactPct float64) *TradeIntent {
	return &TradeIntent{
		ID:             uuid.NewString(),
		Direction:      DirectionOpen,
		Mint:           mint,
		Symbol:         symbol,
		InputMint:      WSOLMint,
		OutputMint:     mint,
		Amount:         lamports,
		MaxSlippageBps: maxSlippageBps,
		MaxImpactPct:   maxImpactPct,
		CreatedAt:      time.Now(),
	}
}

// NewExitIntent proposes selling tokenAmount of the position back into SOL.
// A full close uses DirectionClose; a partial reduction uses DirectionDecrease.
func NewExitIntent(mint, symbol string, tokenAmount uint64, full bool, reason string, maxSlippageBps int, maxImpactPct float64) *TradeIntent {
	direction := DirectionDecrease
	if full {
		direction = DirectionClose
	}
	return &TradeIntent{
		ID:             uuid.NewString(),
		Direction:      direction,
		Mint:           mint,
		Symbol:         symbol,
		InputMint:      mint,
		OutputMint:     WSOLMint,
		Amount:         tokenAmount,
		MaxSlippageBps: maxSlippageBps,
		MaxImpactPct:   maxImpactPct,
		Reason:         reason,
		CreatedAt:      time.Now(),
	}
}

// Validate checks structural well-formedness. It does not consult market
// state; that is the risk gate's job.
func (i *TradeIntent) Validate() error {
	switch {
	case i == nil:
		return ErrInvalidIntent
	case i.Mint == "":
		return fmt.Errorf("%w: missing mint", ErrInvalidIntent)
	case i.InputMint == "" || i.OutputMint == "":
		return fmt.Errorf("%w: missing input/output mint", ErrInvalidIntent)
	case i.InputMint == i.OutputMint:
		return fmt.Errorf("%w: input and output mint are identical", ErrInvalidIntent)
	case i.Amount == 0:
		return fmt.Errorf("%w: zero amount", ErrInvalidIntent)
	case i.MaxSlippageBps <= 0:
		return fmt.Errorf("%w: non-positive slippage bound", ErrInvalidIntent)
	case i.MaxImpactPct <= 0:
		return fmt.Errorf("%w: non-positive impact bound", ErrInvalidIntent)
	case !i.Direction.Entry() && !i.Direction.Exit():
		return fmt.Errorf("%w: unknown direction %q", ErrInvalidIntent, i.Direction)
	}
	return nil
}
