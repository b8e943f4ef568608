package quote

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Leo-moon-max/BagsAiTradingBot/internal/domain"
)

// Default configuration values.
const (
	DefaultTimeout    = 10 * time.Second
	DefaultMaxRetries = 2
	DefaultRetryDelay = 500 * time.Millisecond
	DefaultBackoff    = 3 * time.Second // suggested wait when the provider omits Retry-After
)

// HTTPClient implements Client against a Jupiter-compatible quote/swap API.
type HTTPClient struct {
	baseURL    string
	client     *http.Client
	maxRetries int
	retryDelay time.Duration

	// computeUnitPrice, when non-zero, is forwarded on swap builds as the
	// priority fee in micro-lamports.
	computeUnitPrice uint64
}

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets how many times transient provider failures are retried
// within the caller's deadline. Rate limits are never retried internally.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// WithComputeUnitPrice sets the priority fee forwarded on swap builds.
func WithComputeUnitPrice(microLamports uint64) ClientOption {
	return func(c *HTTPClient) {
		c.computeUnitPrice = microLamports
	}
}

// NewHTTPClient creates a new aggregator client.
func NewHTTPClient(baseURL string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		client:     &http.Client{Timeout: DefaultTimeout},
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ Client = (*HTTPClient)(nil)

// quoteResponse is the aggregator's quote payload.
type quoteResponse struct {
	InputMint            string          `json:"inputMint"`
	InAmount             string          `json:"inAmount"`
	OutputMint           string          `json:"outputMint"`
	OutAmount            string          `json:"outAmount"`
	OtherAmountThreshold string          `json:"otherAmountThreshold"`
	PriceImpactPct       string          `json:"priceImpactPct"`
	SlippageBps          int             `json:"slippageBps"`
	RoutePlan            []routePlanStep `json:"routePlan"`
}

type routePlanStep struct {
	SwapInfo struct {
		Label string `json:"label"`
	} `json:"swapInfo"`
	Percent int `json:"percent"`
}

// errorResponse is the aggregator's error payload.
type errorResponse struct {
	Error     string `json:"error"`
	ErrorCode string `json:"errorCode"`
}

// GetQuote requests a quote. Transient provider failures are retried a small
// bounded number of times; rate limits and missing routes are returned to the
// caller immediately.
func (c *HTTPClient) GetQuote(ctx context.Context, inputMint, outputMint string, amount uint64, maxSlippageBps int) (*domain.Quote, error) {
	params := url.Values{}
	params.Set("inputMint", inputMint)
	params.Set("outputMint", outputMint)
	params.Set("amount", strconv.FormatUint(amount, 10))
	params.Set("slippageBps", strconv.Itoa(maxSlippageBps))

	endpoint := c.baseURL + "/quote?" + params.Encode()

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		body, err := c.get(ctx, endpoint)
		if err != nil {
			if retryableProviderError(err) {
				lastErr = err
				continue
			}
			return nil, err
		}

		raw := json.RawMessage(body)
		var resp quoteResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("%w: decode quote: %v", ErrUnavailable, err)
		}

		q, err := resp.toDomain(raw)
		if err != nil {
			return nil, err
		}
		return q, nil
	}

	return nil, fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

// get performs one GET and classifies the response.
func (c *HTTPClient) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &RateLimitedError{RetryAfter: retryAfter(resp)}
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound:
		var e errorResponse
		_ = json.Unmarshal(body, &e)
		if strings.Contains(e.ErrorCode, "ROUTE") || strings.Contains(strings.ToLower(e.Error), "route") {
			return nil, ErrNoRoute
		}
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, strings.TrimSpace(string(body)))
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	default:
		return nil, fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode)
	}
}

// toDomain converts the wire response into a domain.Quote.
func (r *quoteResponse) toDomain(raw json.RawMessage) (*domain.Quote, error) {
	inAmount, err := strconv.ParseUint(r.InAmount, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad inAmount %q", ErrUnavailable, r.InAmount)
	}
	outAmount, err := strconv.ParseUint(r.OutAmount, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad outAmount %q", ErrUnavailable, r.OutAmount)
	}
	minOut, err := strconv.ParseUint(r.OtherAmountThreshold, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad otherAmountThreshold %q", ErrUnavailable, r.OtherAmountThreshold)
	}

	// The aggregator reports impact as a fraction, e.g. "0.004" = 0.4%.
	var impactPct float64
	if r.PriceImpactPct != "" {
		frac, err := strconv.ParseFloat(r.PriceImpactPct, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad priceImpactPct %q", ErrUnavailable, r.PriceImpactPct)
		}
		impactPct = frac * 100
	}

	labels := make([]string, 0, len(r.RoutePlan))
	for _, step := range r.RoutePlan {
		if step.SwapInfo.Label != "" {
			labels = append(labels, step.SwapInfo.Label)
		}
	}

	return &domain.Quote{
		InputMint:      r.InputMint,
		OutputMint:     r.OutputMint,
		InAmount:       inAmount,
		OutAmount:      outAmount,
		MinOutAmount:   minOut,
		PriceImpactPct: impactPct,
		Route:          strings.Join(labels, " > "),
		SlippageBps:    r.SlippageBps,
		FetchedAt:      time.Now(),
		Raw:            raw,
	}, nil
}

// swapRequest is the swap-build payload.
type swapRequest struct {
	QuoteResponse                 json.RawMessage `json:"quoteResponse"`
	UserPublicKey                 string          `json:"userPublicKey"`
	WrapAndUnwrapSol              bool            `json:"wrapAndUnwrapSol"`
	ComputeUnitPriceMicroLamports uint64          `json:"computeUnitPriceMicroLamports,omitempty"`
}

type swapResponse struct {
	SwapTransaction string `json:"swapTransaction"`
}

// BuildSwap exchanges an accepted quote for an unsigned serialized
// transaction. The returned bytes are the chain client's fixed encoding.
func (c *HTTPClient) BuildSwap(ctx context.Context, q *domain.Quote, userPublicKey string) ([]byte, error) {
	if len(q.Raw) == 0 {
		return nil, fmt.Errorf("%w: quote carries no raw response", ErrUnavailable)
	}

	payload, err := json.Marshal(swapRequest{
		QuoteResponse:                 q.Raw,
		UserPublicKey:                 userPublicKey,
		WrapAndUnwrapSol:              true,
		ComputeUnitPriceMicroLamports: c.computeUnitPrice,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal swap request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/swap", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &RateLimitedError{RetryAfter: retryAfter(resp)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: swap build status %d: %s", ErrUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var sr swapResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("%w: decode swap response: %v", ErrUnavailable, err)
	}
	if sr.SwapTransaction == "" {
		return nil, fmt.Errorf("%w: empty swap transaction", ErrUnavailable)
	}

	tx, err := base64.StdEncoding.DecodeString(sr.SwapTransaction)
	if err != nil {
		return nil, fmt.Errorf("%w: decode swap transaction: %v", ErrUnavailable, err)
	}
	return tx, nil
}

// retryAfter extracts the provider's suggested backoff.
func retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return DefaultBackoff
}

// retryableProviderError reports whether the error is transient. Rate limits
// and missing routes are final from the client's perspective.
func retryableProviderError(err error) bool {
	if IsRateLimited(err) || errors.Is(err, ErrNoRoute) {
		return false
	}
	return errors.Is(err, ErrUnavailable)
}
