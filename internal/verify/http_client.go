package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Leo-moon-max/BagsAiTradingBot/internal/domain"
)

// DefaultTimeout is the default HTTP client timeout.
const DefaultTimeout = 10 * time.Second

// HTTPClient implements Client against the launchpad's public creator API.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// WithAPIKey sets the provider API key header.
func WithAPIKey(key string) ClientOption {
	return func(c *HTTPClient) {
		c.apiKey = key
	}
}

// NewHTTPClient creates a new creator-verification client.
func NewHTTPClient(baseURL string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ Client = (*HTTPClient)(nil)

type creatorResponse struct {
	Success  bool            `json:"success"`
	Response []creatorEntry  `json:"response"`
}

type creatorEntry struct {
	TwitterUsername string `json:"twitterUsername"`
	Wallet          string `json:"wallet"`
	RoyaltyBps      int    `json:"royaltyBps"`
}

// GetVerification fetches the fee-share claimants for a mint. An empty
// claimant list is a valid result meaning nothing is known about the creator.
func (c *HTTPClient) GetVerification(ctx context.Context, mint string) (*domain.Verification, error) {
	endpoint := fmt.Sprintf("%s/token-launch/creator/v2?tokenMint=%s", c.baseURL, url.QueryEscape(mint))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
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
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var cr creatorResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	if !cr.Success {
		return nil, fmt.Errorf("%w: provider reported failure", ErrUnavailable)
	}

	v := &domain.Verification{Mint: mint}
	for _, e := range cr.Response {
		v.Claimants = append(v.Claimants, domain.Claimant{
			Handle:      e.TwitterUsername,
			Wallet:      e.Wallet,
			FeeShareBps: e.RoyaltyBps,
		})
	}
	return v, nil
}
