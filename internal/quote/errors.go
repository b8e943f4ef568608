package quote

import (
	"errors"
	"fmt"
	"time"
)

// Quote errors. Retry policy belongs to the caller; the client only
// classifies.
var (
	// ErrNoRoute means the aggregator found no path for the requested pair.
	ErrNoRoute = errors.New("no route for requested pair")

	// ErrUnavailable means the provider failed or returned garbage.
	ErrUnavailable = errors.New("quote provider unavailable")
)

// RateLimitedError signals a retryable rate-limit rejection with the
// provider's suggested backoff.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

// IsRateLimited reports whether err carries a rate-limit classification.
func IsRateLimited(err error) bool {
	var rl *RateLimitedError
	return errors.As(err, &rl)
}
