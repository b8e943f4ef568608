package domain

import "time"

// Fill is the confirmed outcome of an execution attempt. The position ledger
// consumes fills exclusively; an attempt that never reached confirmation can
// never produce one.
type Fill struct {
	IntentID  string
	Direction Direction
	Mint      string
	Symbol    string

	InAmount  uint64 // raw input units spent
	OutAmount uint64 // raw output units received

	Signature   string // on-chain transaction signature
	ConfirmedAt time.Time
}
