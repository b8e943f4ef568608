// Package main runs the live trading agent: gate and execute an entry for
// the supplied token, then track the position through the reevaluation loop
// until shutdown or close.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Leo-moon-max/BagsAiTradingBot/internal/config"
	"github.com/Leo-moon-max/BagsAiTradingBot/internal/domain"
	"github.com/Leo-moon-max/BagsAiTradingBot/internal/engine"
	"github.com/Leo-moon-max/BagsAiTradingBot/internal/executor"
	"github.com/Leo-moon-max/BagsAiTradingBot/internal/market"
	"github.com/Leo-moon-max/BagsAiTradingBot/internal/observability"
	"github.com/Leo-moon-max/BagsAiTradingBot/internal/position"
	"github.com/Leo-moon-max/BagsAiTradingBot/internal/quote"
	"github.com/Leo-moon-max/BagsAiTradingBot/internal/risk"
	"github.com/Leo-moon-max/BagsAiTradingBot/internal/solana"
	"github.com/Leo-moon-max/BagsAiTradingBot/internal/storage"
	chstore "github.com/Leo-moon-max/BagsAiTradingBot/internal/storage/clickhouse"
	"github.com/Leo-moon-max/BagsAiTradingBot/internal/storage/memory"
	"github.com/Leo-moon-max/BagsAiTradingBot/internal/storage/migrations"
	pgstore "github.com/Leo-moon-max/BagsAiTradingBot/internal/storage/postgres"
	"github.com/Leo-moon-max/BagsAiTradingBot/internal/verify"
)

func main() {
	envFile := flag.String("env", ".env", "Path to .env file (optional)")
	mint := flag.String("mint", "", "Token mint to enter (skipped when empty; existing positions are still tracked)")
	symbol := flag.String("symbol", "", "Token symbol, informational")
	lamports := flag.Uint64("lamports", 250_000_000, "Entry notional in lamports")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", *envFile, err)
		os.Exit(1)
	}

	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("received signal %v, shutting down", sig)
		cancel()
	}()

	if err := run(ctx, cfg, *mint, *symbol, *lamports); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, mint, symbol string, lamports uint64) error {
	wallet, err := solana.NewWallet(cfg.Wallet.PrivateKey)
	if err != nil {
		return fmt.Errorf("load wallet: %w", err)
	}
	log.Printf("trading as %s", wallet.PublicKey())

	rpc := solana.NewHTTPClient(cfg.Solana.RPCURL)
	confirmer := solana.NewWSConfirmer(cfg.Solana.WSURL, nil)

	quotes := quote.NewHTTPClient(cfg.Quote.BaseURL, quote.WithTimeout(cfg.Quote.Timeout))
	marketClient := market.NewHTTPClient(cfg.Market.BaseURL, market.WithTimeout(cfg.Market.Timeout))

	verifyOpts := []verify.ClientOption{
		verify.WithHTTPClient(&http.Client{Timeout: cfg.Verify.Timeout}),
	}
	if cfg.Verify.APIKey != "" {
		verifyOpts = append(verifyOpts, verify.WithAPIKey(cfg.Verify.APIKey))
	}
	verifyClient := verify.NewHTTPClient(cfg.Verify.BaseURL, verifyOpts...)

	metrics := observability.NewMetrics(cfg.Metrics.Namespace)
	go serveMetrics(cfg.Metrics.ListenAddr)

	positions, trades, cleanup, err := openTradeStores(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer cleanup()

	valuations, chCleanup, err := openValuationStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer chCleanup()

	exec := executor.New(quotes, rpc, confirmer, wallet, cfg.Executor, cfg.Quote.MaxAge, metrics)
	ledger := position.NewLedger(positions, trades, quotes, cfg.Position,
		cfg.Executor.MaxSlippageBps, cfg.Risk.MaxImpactPct, metrics)
	if err := ledger.Load(ctx); err != nil {
		return err
	}
	log.Printf("tracking %d open position(s)", len(ledger.Positions()))

	eng := engine.New(engine.Options{
		Market:             marketClient,
		Verify:             verifyClient,
		Quotes:             quotes,
		EntryGate:          risk.NewGate(risk.EntryChecks(cfg.Risk, cfg.Verify.Required)),
		ExitGate:           risk.NewGate(risk.ExitChecks(cfg.Risk)),
		Executor:           exec,
		Ledger:             ledger,
		Valuations:         valuations,
		ReevaluateInterval: cfg.Position.ReevaluateInterval,
		Metrics:            metrics,
	})

	if mint != "" {
		intent := domain.NewEntryIntent(mint, symbol, lamports,
			cfg.Executor.MaxSlippageBps, cfg.Risk.MaxImpactPct)
		pos, err := eng.TryEnter(ctx, intent)
		if err != nil {
			var blocked *risk.BlockedError
			if errors.As(err, &blocked) {
				log.Printf("entry blocked: %v", blocked)
			} else {
				return fmt.Errorf("entry: %w", err)
			}
		} else {
			log.Printf("holding %s: %d tokens for %d lamports", pos.Mint, pos.RemainingAmount, pos.CostBasis)
		}
	}

	if len(ledger.Positions()) == 0 {
		log.Print("nothing to track, exiting")
		return nil
	}
	return eng.Run(ctx)
}

// openTradeStores selects Postgres when a DSN is configured and falls back
// to in-memory stores otherwise (paper runs, tests).
func openTradeStores(ctx context.Context, cfg config.Storage) (storage.PositionStore, storage.ClosedTradeStore, func(), error) {
	if cfg.PostgresDSN == "" {
		log.Print("POSTGRES_DSN empty, using in-memory trade stores")
		return memory.NewPositionStore(), memory.NewClosedTradeStore(), func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("migrate postgres: %w", err)
	}
	return pgstore.NewPositionStore(pool), pgstore.NewClosedTradeStore(pool), pool.Close, nil
}

// openValuationStore selects ClickHouse when a DSN is configured.
func openValuationStore(ctx context.Context, cfg config.Storage) (storage.ValuationStore, func(), error) {
	if cfg.ClickHouseDSN == "" {
		log.Print("CLICKHOUSE_DSN empty, using in-memory valuation store")
		return memory.NewValuationStore(), func() {}, nil
	}

	conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("migrate clickhouse: %w", err)
	}
	return chstore.NewValuationStore(conn), func() { conn.Close() }, nil
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Printf("metrics listening on %s", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("metrics server: %v", err)
	}
}
