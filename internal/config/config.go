package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the single immutable configuration value for the agent. It is
// built once at startup and passed explicitly into each component; nothing
// reads ambient state at call time.
type Config struct {
	Wallet   Wallet
	Solana   Solana
	Quote    Quote
	Market   Market
	Verify   Verify
	Risk     Risk
	Executor Executor
	Position Position
	Storage  Storage
	Metrics  Metrics
}

// Wallet holds signing key material configuration.
type Wallet struct {
	PrivateKey string // base58-encoded 64-byte ed25519 keypair
}

// Solana holds chain endpoints.
type Solana struct {
	RPCURL string
	WSURL  string // signature confirmation subscriptions
}

// Quote configures the aggregator quote/swap API client.
type Quote struct {
	BaseURL string
	Timeout time.Duration
	// MaxAge is the freshness window past which a quote must be re-requested.
	MaxAge time.Duration
}

// Market configures the market-data API client.
type Market struct {
	BaseURL string
	Timeout time.Duration
}

// Verify configures the creator-verification API client.
type Verify struct {
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
	Required bool // when false the creator check always passes
}

// Risk holds the gate thresholds.
type Risk struct {
	AllowedDexIDs []string // venue tags eligible for trading
	MintSuffix    string   // address-pattern rule, e.g. "BAGS"

	MaxBuySellSkew float64 // 24h buys per sell above which flow is extreme

	MomentumBlockPct float64 // h1 change above this blocks ("don't chase pumps")
	MomentumWarnPct  float64

	DumpMinBuySellRatio float64 // m5 ratio below this is depressed flow
	DumpBlockDropPct    float64 // m5 change at or below this blocks (negative)
	DumpWarnDropPct     float64

	MaxImpactPct float64 // price-impact ceiling, e.g. 1.0

	MinTradeLamports uint64
	MaxTradeLamports uint64

	MinVolumeToMcap float64 // advisory 24h-volume / market-cap floor
}

// Executor holds transaction pipeline bounds.
type Executor struct {
	MaxSlippageBps    int
	MaxRetries        int // automatic restarts after expiry
	ConfirmTimeout    time.Duration
	MaxConcurrent     int // independent attempts in flight
	ComputeUnitPrice  uint64
	SkipPreflightSend bool
}

// Position holds ledger thresholds and the reevaluation cadence.
type Position struct {
	StopLossPct        float64
	TakeProfitPct      float64
	ReevaluateInterval time.Duration
}

// Storage holds persistence DSNs. Empty DSNs select in-memory stores.
type Storage struct {
	PostgresDSN   string
	ClickHouseDSN string
}

// Metrics holds the observability endpoint configuration.
type Metrics struct {
	ListenAddr string
	Namespace  string
}

// FromEnv builds the configuration from environment variables with defaults
// suitable for mainnet paper runs. Call godotenv.Load beforehand if an .env
// file should participate.
func FromEnv() *Config {
	return &Config{
		Wallet: Wallet{
			PrivateKey: envStr("WALLET_PRIVATE_KEY", ""),
		},
		Solana: Solana{
			RPCURL: envStr("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com"),
			WSURL:  envStr("SOLANA_WS_URL", "wss://api.mainnet-beta.solana.com"),
		},
		Quote: Quote{
			BaseURL: envStr("QUOTE_API_URL", "https://quote-api.jup.ag/v6"),
			Timeout: envDuration("QUOTE_TIMEOUT", 10*time.Second),
			MaxAge:  envDuration("QUOTE_MAX_AGE", 20*time.Second),
		},
		Market: Market{
			BaseURL: envStr("MARKET_API_URL", "https://api.dexscreener.com"),
			Timeout: envDuration("MARKET_TIMEOUT", 10*time.Second),
		},
		Verify: Verify{
			BaseURL:  envStr("VERIFY_API_URL", "https://public-api-v2.bags.fm/api/v1"),
			APIKey:   envStr("VERIFY_API_KEY", ""),
			Timeout:  envDuration("VERIFY_TIMEOUT", 10*time.Second),
			Required: envBool("VERIFY_REQUIRED", true),
		},
		Risk: Risk{
			AllowedDexIDs:       envList("RISK_ALLOWED_DEXES", []string{"meteora", "raydium"}),
			MintSuffix:          envStr("RISK_MINT_SUFFIX", "BAGS"),
			MaxBuySellSkew:      envFloat("RISK_MAX_BUY_SELL_SKEW", 10),
			MomentumBlockPct:    envFloat("RISK_MOMENTUM_BLOCK_PCT", 100),
			MomentumWarnPct:     envFloat("RISK_MOMENTUM_WARN_PCT", 50),
			DumpMinBuySellRatio: envFloat("RISK_DUMP_MIN_RATIO", 0.5),
			DumpBlockDropPct:    envFloat("RISK_DUMP_BLOCK_DROP_PCT", -20),
			DumpWarnDropPct:     envFloat("RISK_DUMP_WARN_DROP_PCT", -5),
			MaxImpactPct:        envFloat("RISK_MAX_IMPACT_PCT", 1.0),
			MinTradeLamports:    envUint("RISK_MIN_TRADE_LAMPORTS", 10_000_000),     // 0.01 SOL
			MaxTradeLamports:    envUint("RISK_MAX_TRADE_LAMPORTS", 1_000_000_000), // 1 SOL
			MinVolumeToMcap:     envFloat("RISK_MIN_VOLUME_TO_MCAP", 0.01),
		},
		Executor: Executor{
			MaxSlippageBps:    envInt("EXEC_MAX_SLIPPAGE_BPS", 100),
			MaxRetries:        envInt("EXEC_MAX_RETRIES", 3),
			ConfirmTimeout:    envDuration("EXEC_CONFIRM_TIMEOUT", 60*time.Second),
			MaxConcurrent:     envInt("EXEC_MAX_CONCURRENT", 3),
			ComputeUnitPrice:  envUint("EXEC_COMPUTE_UNIT_PRICE", 0),
			SkipPreflightSend: envBool("EXEC_SKIP_PREFLIGHT_SEND", true),
		},
		Position: Position{
			StopLossPct:        envFloat("POSITION_STOP_LOSS_PCT", 0.15),
			TakeProfitPct:      envFloat("POSITION_TAKE_PROFIT_PCT", 0.50),
			ReevaluateInterval: envDuration("POSITION_REEVALUATE_INTERVAL", 30*time.Second),
		},
		Storage: Storage{
			PostgresDSN:   envStr("POSTGRES_DSN", ""),
			ClickHouseDSN: envStr("CLICKHOUSE_DSN", ""),
		},
		Metrics: Metrics{
			ListenAddr: envStr("METRICS_LISTEN_ADDR", ":9091"),
			Namespace:  envStr("METRICS_NAMESPACE", "bags_trader"),
		},
	}
}

// Validate checks cross-field consistency for live trading.
func (c *Config) Validate() error {
	var errs []string

	if c.Wallet.PrivateKey == "" {
		errs = append(errs, "WALLET_PRIVATE_KEY is required")
	}
	if c.Risk.MinTradeLamports > c.Risk.MaxTradeLamports {
		errs = append(errs, "RISK_MIN_TRADE_LAMPORTS exceeds RISK_MAX_TRADE_LAMPORTS")
	}
	if c.Risk.MaxImpactPct <= 0 {
		errs = append(errs, "RISK_MAX_IMPACT_PCT must be positive")
	}
	if c.Executor.MaxRetries < 0 {
		errs = append(errs, "EXEC_MAX_RETRIES must be non-negative")
	}
	if c.Executor.MaxConcurrent < 1 {
		errs = append(errs, "EXEC_MAX_CONCURRENT must be at least 1")
	}
	if c.Position.StopLossPct < 0 || c.Position.TakeProfitPct < 0 {
		errs = append(errs, "position thresholds must be non-negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

// --- helpers ---

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envUint(key string, fallback uint64) uint64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		v = strings.ToLower(v)
		return v == "true" || v == "1" || v == "yes"
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return fallback
}
