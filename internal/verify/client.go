package verify

import (
	"context"
	"errors"

	"github.com/Leo-moon-max/BagsAiTradingBot/internal/domain"
)

// ErrUnavailable means the verification provider failed. Callers decide
// whether to treat an unavailable lookup as unverified or retry later.
var ErrUnavailable = errors.New("verification provider unavailable")

// Client resolves a token's creator fee-share claimants. A result with no
// linked identity across all claimants is an unverifiable creator.
type Client interface {
	GetVerification(ctx context.Context, mint string) (*domain.Verification, error)
}
