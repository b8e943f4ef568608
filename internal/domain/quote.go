package domain

import (
	"encoding/json"
	"time"
)

// WSOLMint is the wrapped SOL mint address used as the reserve asset.
const WSOLMint = "So11111111111111111111111111111111111111112"

// Quote is the immutable result of a pricing request against the aggregator.
// A quote is only executable while fresh; the executor re-validates age and
// constraints before signing.
type Quote struct {
	InputMint      string
	OutputMint     string
	InAmount       uint64 // raw input units
	OutAmount      uint64 // expected raw output units
	MinOutAmount   uint64 // worst-case output under the requested slippage
	PriceImpactPct float64
	Route          string // venue labels joined, e.g. "Meteora DLMM"
	SlippageBps    int
	FetchedAt      time.Time

	// Raw is the aggregator's quote response, passed back verbatim when
	// requesting the swap transaction.
	Raw json.RawMessage
}

// Age returns how long ago the quote was issued.
func (q *Quote) Age(now time.Time) time.Duration {
	return now.Sub(q.FetchedAt)
}

// Expired reports whether the quote is older than maxAge at the given time.
// Expired quotes must never be signed against.
func (q *Quote) Expired(maxAge time.Duration, now time.Time) bool {
	return q.Age(now) > maxAge
}
