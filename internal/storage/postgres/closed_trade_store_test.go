package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Leo-moon-max/BagsAiTradingBot/internal/domain"
	"github.com/Leo-moon-max/BagsAiTradingBot/internal/storage"
	"github.com/Leo-moon-max/BagsAiTradingBot/internal/storage/postgres"
)

func testClosedTrade(id, mint string, closedAt time.Time) *domain.ClosedTrade {
	return &domain.ClosedTrade{
		ID:             id,
		Mint:           mint,
		Symbol:         "TESTBAGS",
		EntryPrice:     0.000021,
		ExitPrice:      0.000030,
		TokenAmount:    4_800_000_000,
		CostBasis:      100_000_000,
		RealizedValue:  144_000_000,
		PnLLamports:    44_000_000,
		PnLPct:         0.44,
		ExitReason:     domain.ExitReasonTakeProfit,
		OpenedAt:       closedAt.Add(-30 * time.Minute),
		ClosedAt:       closedAt,
		EntrySignature: "EntrySig" + id,
		ExitSignature:  "ExitSig" + id,
	}
}

func TestClosedTradeStore_InsertAndGetByMint(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewClosedTradeStore(pool)
	ctx := context.Background()

	closedAt := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	trade := testClosedTrade("trade-001", "MintAAA", closedAt)

	err := store.Insert(ctx, trade)
	require.NoError(t, err)

	trades, err := store.GetByMint(ctx, "MintAAA")
	require.NoError(t, err)
	require.Len(t, trades, 1)

	got := trades[0]
	assert.Equal(t, trade.ID, got.ID)
	assert.Equal(t, trade.Mint, got.Mint)
	assert.Equal(t, trade.EntryPrice, got.EntryPrice)
	assert.Equal(t, trade.ExitPrice, got.ExitPrice)
	assert.Equal(t, trade.TokenAmount, got.TokenAmount)
	assert.Equal(t, trade.CostBasis, got.CostBasis)
	assert.Equal(t, trade.RealizedValue, got.RealizedValue)
	assert.Equal(t, trade.PnLLamports, got.PnLLamports)
	assert.Equal(t, trade.PnLPct, got.PnLPct)
	assert.Equal(t, trade.ExitReason, got.ExitReason)
	assert.True(t, got.ClosedAt.Equal(closedAt))
	assert.Equal(t, trade.ExitSignature, got.ExitSignature)
}

func TestClosedTradeStore_InsertDuplicateID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewClosedTradeStore(pool)
	ctx := context.Background()

	trade := testClosedTrade("trade-dup", "MintAAA", time.Now().UTC())

	require.NoError(t, store.Insert(ctx, trade))

	err := store.Insert(ctx, trade)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestClosedTradeStore_GetByMintFiltersAndOrders(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewClosedTradeStore(pool)
	ctx := context.Background()

	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.Insert(ctx, testClosedTrade("trade-2", "MintAAA", base.Add(time.Hour))))
	require.NoError(t, store.Insert(ctx, testClosedTrade("trade-1", "MintAAA", base)))
	require.NoError(t, store.Insert(ctx, testClosedTrade("trade-other", "MintBBB", base.Add(30*time.Minute))))

	trades, err := store.GetByMint(ctx, "MintAAA")
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "trade-1", trades[0].ID)
	assert.Equal(t, "trade-2", trades[1].ID)
}

func TestClosedTradeStore_GetByMintEmpty(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewClosedTradeStore(pool)

	trades, err := store.GetByMint(context.Background(), "NoSuchMint")
	require.NoError(t, err)
	assert.Empty(t, trades)
}

func TestClosedTradeStore_GetAll(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewClosedTradeStore(pool)
	ctx := context.Background()

	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.Insert(ctx, testClosedTrade("trade-b", "MintBBB", base.Add(time.Hour))))
	require.NoError(t, store.Insert(ctx, testClosedTrade("trade-a", "MintAAA", base)))

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "trade-a", all[0].ID)
	assert.Equal(t, "trade-b", all[1].ID)
}

func TestClosedTradeStore_InsertInvalidInput(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewClosedTradeStore(pool)
	ctx := context.Background()

	assert.ErrorIs(t, store.Insert(ctx, nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Insert(ctx, &domain.ClosedTrade{}), storage.ErrInvalidInput)
}
