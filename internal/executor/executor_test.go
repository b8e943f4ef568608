package executor

import (
	"context"
	"crypto/ed25519"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mr-tron/base58"

	"github.com/Leo-moon-max/BagsAiTradingBot/internal/config"
	"github.com/Leo-moon-max/BagsAiTradingBot/internal/domain"
	"github.com/Leo-moon-max/BagsAiTradingBot/internal/solana"
	"github.com/Leo-moon-max/BagsAiTradingBot/internal/solana/stub"
)

// fakeQuoter serves a configurable quote and a minimal buildable transaction.
type fakeQuoter struct {
	quoteCalls atomic.Int32
	buildCalls atomic.Int32

	quoteAge  time.Duration
	impactPct float64
	outAmount uint64
	quoteErr  error
}

func (f *fakeQuoter) GetQuote(_ context.Context, inputMint, outputMint string, amount uint64, slippageBps int) (*domain.Quote, error) {
	f.quoteCalls.Add(1)
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	out := f.outAmount
	if out == 0 {
		out = 1_000_000
	}
	return &domain.Quote{
		InputMint:      inputMint,
		OutputMint:     outputMint,
		InAmount:       amount,
		OutAmount:      out,
		MinOutAmount:   out - out/100,
		PriceImpactPct: f.impactPct,
		SlippageBps:    slippageBps,
		FetchedAt:      time.Now().Add(-f.quoteAge),
	}, nil
}

func (f *fakeQuoter) BuildSwap(_ context.Context, _ *domain.Quote, _ string) ([]byte, error) {
	f.buildCalls.Add(1)
	tx := []byte{0x01}
	tx = append(tx, make([]byte, ed25519.SignatureSize)...)
	return append(tx, 0x80, 0x01, 0x02, 0x03), nil
}

func testWallet(t *testing.T) *solana.Wallet {
	t.Helper()
	seed := make([]byte, ed25519.SeedSize)
	seed[0] = 42
	priv := ed25519.NewKeyFromSeed(seed)
	w, err := solana.NewWallet(base58.Encode(priv))
	if err != nil {
		t.Fatalf("NewWallet: %v", err)
	}
	return w
}

func testExecConfig() config.Executor {
	return config.Executor{
		MaxSlippageBps:    100,
		MaxRetries:        2,
		ConfirmTimeout:    100 * time.Millisecond,
		MaxConcurrent:     2,
		SkipPreflightSend: true,
	}
}

func testIntent() *domain.TradeIntent {
	return domain.NewEntryIntent("Mint1111111111111111111111111111111111BAGS", "TEST", 250_000_000, 100, 1.0)
}

func newTestExecutor(t *testing.T, quoter *fakeQuoter, rpc *stub.RPCClient, confirmer solana.Confirmer) *Executor {
	t.Helper()
	return New(quoter, rpc, confirmer, testWallet(t), testExecConfig(), 20*time.Second, nil)
}

func TestExecute_Confirmed(t *testing.T) {
	quoter := &fakeQuoter{impactPct: 0.4}
	rpc := stub.NewRPCClient()
	confirmer := stub.NewConfirmer()
	confirmer.Auto = true
	confirmer.AutoSlot = 777

	exec := newTestExecutor(t, quoter, rpc, confirmer)

	intent := testIntent()
	attempt, err := exec.Execute(context.Background(), intent)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if attempt.State != StateConfirmed {
		t.Fatalf("state = %s, want CONFIRMED", attempt.State)
	}
	if attempt.Slot != 777 {
		t.Errorf("slot = %d, want 777", attempt.Slot)
	}
	if attempt.Signature == "" {
		t.Error("missing signature")
	}
	if rpc.SimulateCount != 1 || rpc.SendCount != 1 {
		t.Errorf("simulate=%d send=%d, want 1/1", rpc.SimulateCount, rpc.SendCount)
	}

	fill := attempt.Fill()
	if fill == nil {
		t.Fatal("confirmed attempt must yield a fill")
	}
	if fill.IntentID != intent.ID || fill.InAmount != 250_000_000 || fill.OutAmount != 1_000_000 {
		t.Errorf("unexpected fill: %+v", fill)
	}
}

func TestExecute_StaleQuoteRetriesBounded(t *testing.T) {
	// Every fresh quote is already past the freshness window, so each attempt
	// expires before signing and the retry budget bounds the loop.
	quoter := &fakeQuoter{quoteAge: time.Hour, impactPct: 0.4}
	rpc := stub.NewRPCClient()

	exec := newTestExecutor(t, quoter, rpc, stub.NewConfirmer())

	attempt, err := exec.Execute(context.Background(), testIntent())
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrStaleQuote) {
		t.Errorf("err = %v, want ErrStaleQuote", err)
	}
	if attempt.State != StateExpired {
		t.Errorf("state = %s, want EXPIRED", attempt.State)
	}
	if got := quoter.quoteCalls.Load(); got != 3 {
		t.Errorf("quote calls = %d, want 3 (initial + 2 retries)", got)
	}
	if rpc.SendCount != 0 {
		t.Errorf("nothing should be broadcast, got %d sends", rpc.SendCount)
	}
}

func TestExecute_SimulationFailureNotRetried(t *testing.T) {
	quoter := &fakeQuoter{impactPct: 0.4}
	rpc := stub.NewRPCClient()
	rpc.Simulation = &solana.SimulationResult{
		Err:  map[string]interface{}{"InstructionError": []interface{}{2, "Custom"}},
		Logs: []string{"Program log: slippage exceeded"},
	}

	exec := newTestExecutor(t, quoter, rpc, stub.NewConfirmer())

	attempt, err := exec.Execute(context.Background(), testIntent())
	if err == nil {
		t.Fatal("expected error")
	}

	var simErr *SimulationError
	if !errors.As(err, &simErr) {
		t.Fatalf("err = %T, want *SimulationError", err)
	}
	if len(simErr.Logs) == 0 {
		t.Error("simulation error must carry program logs")
	}
	if attempt.State != StateFailed {
		t.Errorf("state = %s, want FAILED", attempt.State)
	}
	if rpc.SendCount != 0 {
		t.Errorf("failed simulation must never broadcast, got %d sends", rpc.SendCount)
	}
	if got := quoter.quoteCalls.Load(); got != 1 {
		t.Errorf("quote calls = %d, want 1 (no retry)", got)
	}
}

func TestExecute_ConstraintViolationNotRetried(t *testing.T) {
	quoter := &fakeQuoter{impactPct: 5.0} // intent allows 1.0
	rpc := stub.NewRPCClient()

	exec := newTestExecutor(t, quoter, rpc, stub.NewConfirmer())

	attempt, err := exec.Execute(context.Background(), testIntent())
	if !errors.Is(err, ErrConstraintViolated) {
		t.Fatalf("err = %v, want ErrConstraintViolated", err)
	}
	if attempt.State != StateFailed {
		t.Errorf("state = %s, want FAILED", attempt.State)
	}
	if rpc.SimulateCount != 0 {
		t.Errorf("constraint violation must stop before signing, got %d simulations", rpc.SimulateCount)
	}
}

func TestExecute_BroadcastExpiredRetried(t *testing.T) {
	// Confirmation never arrives and the chain moved past the blockhash
	// horizon: the transaction can never land, so the executor retries.
	quoter := &fakeQuoter{impactPct: 0.4}
	rpc := stub.NewRPCClient()
	rpc.BlockHeight = 5000 // past LastValidBlockHeight 1000

	exec := newTestExecutor(t, quoter, rpc, stub.NewConfirmer())

	attempt, err := exec.Execute(context.Background(), testIntent())
	if !errors.Is(err, ErrBroadcastExpired) {
		t.Fatalf("err = %v, want ErrBroadcastExpired", err)
	}
	if attempt.State != StateExpired {
		t.Errorf("state = %s, want EXPIRED", attempt.State)
	}
	if rpc.SendCount != 3 {
		t.Errorf("sends = %d, want 3 (initial + 2 retries)", rpc.SendCount)
	}
}

func TestExecute_ConfirmationTimeoutRetriedBounded(t *testing.T) {
	// The confirmation wait keeps lapsing while the blockhash horizon holds.
	// Each lapse expires the attempt and a fresh quote is tried, bounded by
	// the retry budget.
	quoter := &fakeQuoter{impactPct: 0.4}
	rpc := stub.NewRPCClient()
	rpc.BlockHeight = 500 // within LastValidBlockHeight 1000

	exec := newTestExecutor(t, quoter, rpc, stub.NewConfirmer())

	attempt, err := exec.Execute(context.Background(), testIntent())
	if !errors.Is(err, ErrConfirmationTimeout) {
		t.Fatalf("err = %v, want ErrConfirmationTimeout", err)
	}
	if attempt.State != StateExpired {
		t.Errorf("state = %s, want EXPIRED", attempt.State)
	}
	if rpc.SendCount != 3 {
		t.Errorf("sends = %d, want 3 (initial + 2 retries)", rpc.SendCount)
	}
	if got := quoter.quoteCalls.Load(); got != 3 {
		t.Errorf("quote calls = %d, want 3 (fresh quote per attempt)", got)
	}
	if attempt.Fill() != nil {
		t.Error("unconfirmed attempt must not yield a fill")
	}
}

// flakyConfirmer times out a fixed number of confirmations before behaving.
type flakyConfirmer struct {
	calls    atomic.Int32
	timeouts int32
	slot     uint64
}

func (f *flakyConfirmer) ConfirmSignature(ctx context.Context, signature string) (*solana.SignatureConfirmation, error) {
	if f.calls.Add(1) <= f.timeouts {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return &solana.SignatureConfirmation{Signature: signature, Slot: f.slot}, nil
}

func TestExecute_SecondAttemptConfirmsAfterTimeout(t *testing.T) {
	quoter := &fakeQuoter{impactPct: 0.4}
	rpc := stub.NewRPCClient()
	rpc.BlockHeight = 500
	confirmer := &flakyConfirmer{timeouts: 1, slot: 901}

	exec := newTestExecutor(t, quoter, rpc, confirmer)

	attempt, err := exec.Execute(context.Background(), testIntent())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if attempt.State != StateConfirmed {
		t.Fatalf("state = %s, want CONFIRMED", attempt.State)
	}
	if attempt.Slot != 901 {
		t.Errorf("slot = %d, want 901", attempt.Slot)
	}
	if rpc.SendCount != 2 {
		t.Errorf("sends = %d, want 2 (timeout then success)", rpc.SendCount)
	}
	if got := quoter.quoteCalls.Load(); got != 2 {
		t.Errorf("quote calls = %d, want 2 (fresh quote on retry)", got)
	}
}

func TestExecute_OnChainFailure(t *testing.T) {
	quoter := &fakeQuoter{impactPct: 0.4}
	rpc := stub.NewRPCClient()
	confirmer := stub.NewConfirmer()
	confirmer.Auto = true
	confirmer.AutoErr = map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}}

	exec := newTestExecutor(t, quoter, rpc, confirmer)

	attempt, err := exec.Execute(context.Background(), testIntent())
	var txErr *TransactionError
	if !errors.As(err, &txErr) {
		t.Fatalf("err = %T, want *TransactionError", err)
	}
	if attempt.State != StateFailed {
		t.Errorf("state = %s, want FAILED", attempt.State)
	}
	if attempt.Fill() != nil {
		t.Error("failed attempt must not yield a fill")
	}
}

func TestExecute_InvalidIntentRejectedLocally(t *testing.T) {
	quoter := &fakeQuoter{}
	exec := newTestExecutor(t, quoter, stub.NewRPCClient(), stub.NewConfirmer())

	intent := testIntent()
	intent.Amount = 0

	if _, err := exec.Execute(context.Background(), intent); !errors.Is(err, domain.ErrInvalidIntent) {
		t.Fatalf("err = %v, want ErrInvalidIntent", err)
	}
	if quoter.quoteCalls.Load() != 0 {
		t.Error("invalid intent must not reach the quote provider")
	}
}
