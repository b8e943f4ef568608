package domain

// ValuationMark is one mark-to-market sample for an open position, priced by
// a live exit-side quote rather than any cached price feed.
type ValuationMark struct {
	Mint            string
	TimestampMs     int64
	RemainingAmount uint64
	ExitValue       uint64 // lamports realizable through the quoted route
	PnLPct          float64
	PriceImpactPct  float64
}
