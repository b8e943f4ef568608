package quote

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Leo-moon-max/BagsAiTradingBot/internal/domain"
)

const quoteBody = `{
	"inputMint": "So11111111111111111111111111111111111111112",
	"inAmount": "250000000",
	"outputMint": "TokenMint11111111111111111111111111111BAGS",
	"outAmount": "1000000",
	"otherAmountThreshold": "990000",
	"priceImpactPct": "0.004",
	"slippageBps": 100,
	"routePlan": [{"swapInfo": {"label": "Meteora DLMM"}, "percent": 100}]
}`

func TestGetQuote_ParsesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/quote" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("amount"); got != "250000000" {
			t.Errorf("amount param = %s, want 250000000", got)
		}
		if got := r.URL.Query().Get("slippageBps"); got != "100" {
			t.Errorf("slippageBps param = %s, want 100", got)
		}
		w.Write([]byte(quoteBody))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	q, err := client.GetQuote(context.Background(), "So11111111111111111111111111111111111111112",
		"TokenMint11111111111111111111111111111BAGS", 250000000, 100)
	if err != nil {
		t.Fatalf("GetQuote failed: %v", err)
	}

	if q.InAmount != 250000000 {
		t.Errorf("InAmount = %d, want 250000000", q.InAmount)
	}
	if q.OutAmount != 1000000 {
		t.Errorf("OutAmount = %d, want 1000000", q.OutAmount)
	}
	if q.MinOutAmount != 990000 {
		t.Errorf("MinOutAmount = %d, want 990000", q.MinOutAmount)
	}
	if q.PriceImpactPct != 0.4 {
		t.Errorf("PriceImpactPct = %f, want 0.4", q.PriceImpactPct)
	}
	if q.Route != "Meteora DLMM" {
		t.Errorf("Route = %q, want %q", q.Route, "Meteora DLMM")
	}
	if len(q.Raw) == 0 {
		t.Error("Raw quote response not preserved")
	}
	if q.FetchedAt.IsZero() {
		t.Error("FetchedAt not set")
	}
}

func TestGetQuote_NoRoute(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "Could not find any route", "errorCode": "COULD_NOT_FIND_ANY_ROUTE"}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	_, err := client.GetQuote(context.Background(), "a", "b", 1000, 50)
	if !errors.Is(err, ErrNoRoute) {
		t.Fatalf("expected ErrNoRoute, got %v", err)
	}
}

func TestGetQuote_RateLimitedNoInternalRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Retry-After", "2")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithMaxRetries(5))
	_, err := client.GetQuote(context.Background(), "a", "b", 1000, 50)

	var rl *RateLimitedError
	if !errors.As(err, &rl) {
		t.Fatalf("expected RateLimitedError, got %v", err)
	}
	if rl.RetryAfter != 2*time.Second {
		t.Errorf("RetryAfter = %s, want 2s", rl.RetryAfter)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server called %d times, want 1 (rate limits must not be retried internally)", got)
	}
}

func TestGetQuote_RetriesTransientFailure(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(quoteBody))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithMaxRetries(2))
	q, err := client.GetQuote(context.Background(), "a", "b", 250000000, 100)
	if err != nil {
		t.Fatalf("GetQuote failed: %v", err)
	}
	if q.OutAmount != 1000000 {
		t.Errorf("OutAmount = %d, want 1000000", q.OutAmount)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("server called %d times, want 2", got)
	}
}

func TestGetQuote_HonorsContextDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewHTTPClient(server.URL, WithMaxRetries(10))
	_, err := client.GetQuote(ctx, "a", "b", 1000, 50)
	if err == nil {
		t.Fatal("expected error after cancelled context")
	}
}

func TestBuildSwap(t *testing.T) {
	txBytes := []byte{1, 0, 2, 3, 4, 5}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/swap" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode swap request: %v", err)
		}
		if req["userPublicKey"] != "Signer111" {
			t.Errorf("userPublicKey = %v", req["userPublicKey"])
		}
		if _, ok := req["quoteResponse"]; !ok {
			t.Error("quoteResponse missing from swap request")
		}
		json.NewEncoder(w).Encode(map[string]string{
			"swapTransaction": base64.StdEncoding.EncodeToString(txBytes),
		})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	quoteRaw := json.RawMessage(quoteBody)
	tx, err := client.BuildSwap(context.Background(), quoteFromRaw(t, quoteRaw), "Signer111")
	if err != nil {
		t.Fatalf("BuildSwap failed: %v", err)
	}
	if string(tx) != string(txBytes) {
		t.Errorf("tx bytes = %v, want %v", tx, txBytes)
	}
}

// quoteFromRaw builds a domain quote carrying the raw aggregator response.
func quoteFromRaw(t *testing.T, raw json.RawMessage) *domain.Quote {
	t.Helper()
	var resp quoteResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatalf("unmarshal fixture quote: %v", err)
	}
	q, err := resp.toDomain(raw)
	if err != nil {
		t.Fatalf("convert fixture quote: %v", err)
	}
	return q
}
