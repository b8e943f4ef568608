package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Leo-moon-max/BagsAiTradingBot/internal/domain"
)

// DefaultTimeout is the default HTTP client timeout.
const DefaultTimeout = 10 * time.Second

// HTTPClient implements Client against a DexScreener-compatible token API.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	chainID string
}

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// NewHTTPClient creates a new market data client.
func NewHTTPClient(baseURL string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: DefaultTimeout},
		chainID: "solana",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ Client = (*HTTPClient)(nil)

// Wire types for the token-pairs response.
type tokenPairsResponse struct {
	Pairs []pair `json:"pairs"`
}

type pair struct {
	ChainID     string `json:"chainId"`
	DexID       string `json:"dexId"`
	PairAddress string `json:"pairAddress"`
	BaseToken   struct {
		Address string `json:"address"`
		Symbol  string `json:"symbol"`
	} `json:"baseToken"`
	PriceUSD    string           `json:"priceUsd"`
	PriceNative string           `json:"priceNative"`
	Txns        map[string]txns  `json:"txns"`
	Volume      map[string]float64 `json:"volume"`
	PriceChange map[string]float64 `json:"priceChange"`
	// Liquidity is a pointer: bonding-curve venues omit it entirely, and
	// absence must survive into the snapshot as nil rather than zero.
	Liquidity     *liquidity `json:"liquidity"`
	FDV           float64    `json:"fdv"`
	MarketCap     float64    `json:"marketCap"`
	PairCreatedAt int64      `json:"pairCreatedAt"`
}

type txns struct {
	Buys  int `json:"buys"`
	Sells int `json:"sells"`
}

type liquidity struct {
	USD float64 `json:"usd"`
}

// GetSnapshot fetches the token's pairs and converts the most liquid-by-volume
// pair on the configured chain into a snapshot.
func (c *HTTPClient) GetSnapshot(ctx context.Context, mint string) (*domain.MarketSnapshot, error) {
	endpoint := fmt.Sprintf("%s/latest/dex/tokens/%s", c.baseURL, mint)

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
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var tp tokenPairsResponse
	if err := json.Unmarshal(body, &tp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}

	best := c.pickPair(tp.Pairs)
	if best == nil {
		return nil, ErrNotFound
	}

	return best.toSnapshot(mint)
}

// pickPair selects the pair with the highest 24h volume on the target chain.
func (c *HTTPClient) pickPair(pairs []pair) *pair {
	var best *pair
	for i := range pairs {
		p := &pairs[i]
		if p.ChainID != c.chainID {
			continue
		}
		if best == nil || p.Volume["h24"] > best.Volume["h24"] {
			best = p
		}
	}
	return best
}

// toSnapshot converts a wire pair into a domain snapshot.
func (p *pair) toSnapshot(mint string) (*domain.MarketSnapshot, error) {
	priceUSD, err := parsePrice(p.PriceUSD)
	if err != nil {
		return nil, fmt.Errorf("%w: bad priceUsd %q", ErrUnavailable, p.PriceUSD)
	}
	priceNative, err := parsePrice(p.PriceNative)
	if err != nil {
		return nil, fmt.Errorf("%w: bad priceNative %q", ErrUnavailable, p.PriceNative)
	}

	snap := &domain.MarketSnapshot{
		Mint:        mint,
		Symbol:      p.BaseToken.Symbol,
		DexID:       p.DexID,
		PairAddress: p.PairAddress,
		PriceUSD:    priceUSD,
		PriceNative: priceNative,
		Volume: domain.WindowedFloat{
			M5:  p.Volume["m5"],
			H1:  p.Volume["h1"],
			H6:  p.Volume["h6"],
			H24: p.Volume["h24"],
		},
		Txns: domain.WindowedTxns{
			M5:  domain.TxnCounts(p.Txns["m5"]),
			H1:  domain.TxnCounts(p.Txns["h1"]),
			H6:  domain.TxnCounts(p.Txns["h6"]),
			H24: domain.TxnCounts(p.Txns["h24"]),
		},
		PriceChange: domain.WindowedFloat{
			M5:  p.PriceChange["m5"],
			H1:  p.PriceChange["h1"],
			H6:  p.PriceChange["h6"],
			H24: p.PriceChange["h24"],
		},
		MarketCap:     p.MarketCap,
		PairCreatedAt: p.PairCreatedAt,
		FetchedAt:     time.Now(),
	}
	if snap.MarketCap == 0 {
		snap.MarketCap = p.FDV
	}
	if p.Liquidity != nil {
		usd := p.Liquidity.USD
		snap.Liquidity = &usd
	}
	return snap, nil
}

func parsePrice(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
