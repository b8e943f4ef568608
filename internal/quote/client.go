package quote

import (
	"context"

	"github.com/Leo-moon-max/BagsAiTradingBot/internal/domain"
)

// Client prices swaps and builds swap transactions through the liquidity
// aggregator. Quotes are side-effect-free against chain state; requesting one
// never consumes funds.
type Client interface {
	// GetQuote prices swapping amount raw units of inputMint into outputMint
	// under the given slippage bound. It never retries past ctx's deadline.
	// Returns ErrNoRoute, ErrUnavailable, or *RateLimitedError on failure.
	GetQuote(ctx context.Context, inputMint, outputMint string, amount uint64, maxSlippageBps int) (*domain.Quote, error)

	// BuildSwap exchanges an accepted quote plus the signer's public address
	// for an unsigned serialized transaction payload.
	BuildSwap(ctx context.Context, q *domain.Quote, userPublicKey string) ([]byte, error)
}
