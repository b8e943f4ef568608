package domain

import "time"

// WindowedFloat holds a per-window market metric (5m, 1h, 6h, 24h).
type WindowedFloat struct {
	M5  float64
	H1  float64
	H6  float64
	H24 float64
}

// TxnCounts holds buy/sell transaction counts within one window.
type TxnCounts struct {
	Buys  int
	Sells int
}

// BuySellRatio returns buys per sell. With no sells it returns the buy count
// itself so extreme one-sided flow still registers as a high ratio.
func (t TxnCounts) BuySellRatio() float64 {
	if t.Sells == 0 {
		if t.Buys == 0 {
			return 1
		}
		return float64(t.Buys)
	}
	return float64(t.Buys) / float64(t.Sells)
}

// WindowedTxns holds per-window transaction counts.
type WindowedTxns struct {
	M5  TxnCounts
	H1  TxnCounts
	H6  TxnCounts
	H24 TxnCounts
}

// MarketSnapshot is an externally sourced, read-only view of a token's market
// state at evaluation time. The core never mutates it and re-fetches a fresh
// snapshot for every gate evaluation.
type MarketSnapshot struct {
	Mint        string
	Symbol      string
	DexID       string
	PairAddress string

	PriceUSD    float64
	PriceNative float64 // price in SOL

	Volume      WindowedFloat
	Txns        WindowedTxns
	PriceChange WindowedFloat // percentages, e.g. 150 = +150%

	MarketCap     float64
	PairCreatedAt int64 // Unix timestamp in milliseconds

	// Liquidity is nil for venues that do not advertise a conventional pool
	// liquidity figure (bonding-curve style launchpads). nil means unknown,
	// never zero; the realizable exit quote is the authoritative signal.
	Liquidity *float64

	FetchedAt time.Time
}
