package clickhouse_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Leo-moon-max/BagsAiTradingBot/internal/domain"
	"github.com/Leo-moon-max/BagsAiTradingBot/internal/storage"
	chstore "github.com/Leo-moon-max/BagsAiTradingBot/internal/storage/clickhouse"
	"github.com/Leo-moon-max/BagsAiTradingBot/internal/storage/migrations"
)

// setupTestDB starts a ClickHouse container and applies the embedded
// migrations through the migration runner. Returns a cleanup function that
// must be called when done.
func setupTestDB(t *testing.T) (*chstore.Conn, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "clickhouse/clickhouse-server:24.1-alpine",
		ExposedPorts: []string{"9000/tcp", "8123/tcp"},
		WaitingFor: wait.ForAll(
			wait.ForLog("Application: Ready for connections").
				WithStartupTimeout(60 * time.Second),
			wait.ForListeningPort("9000/tcp"),
		),
		Env: map[string]string{
			"CLICKHOUSE_DB":       "test",
			"CLICKHOUSE_USER":     "default",
			"CLICKHOUSE_PASSWORD": "",
		},
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "9000")
	require.NoError(t, err)

	dsn := fmt.Sprintf("clickhouse://%s:%s/test", host, port.Port())

	conn, err := migrations.RunClickhouseMigrations(ctx, dsn)
	require.NoError(t, err)

	cleanup := func() {
		conn.Close()
		_ = container.Terminate(ctx)
	}

	return conn, cleanup
}

func testMark(mint string, timestampMs int64, pnlPct float64) *domain.ValuationMark {
	return &domain.ValuationMark{
		Mint:            mint,
		TimestampMs:     timestampMs,
		RemainingAmount: 4_800_000_000,
		ExitValue:       95_000_000,
		PnLPct:          pnlPct,
		PriceImpactPct:  0.3,
	}
}

func TestValuationStore_InsertBulkAndGetByMint(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := chstore.NewValuationStore(conn)
	ctx := context.Background()

	marks := []*domain.ValuationMark{
		testMark("MintAAA", 1700000002000, -0.05),
		testMark("MintAAA", 1700000000000, 0.0),
		testMark("MintAAA", 1700000001000, 0.02),
		testMark("MintBBB", 1700000000500, 0.10),
	}

	err := store.InsertBulk(ctx, marks)
	require.NoError(t, err)

	got, err := store.GetByMint(ctx, "MintAAA")
	require.NoError(t, err)
	require.Len(t, got, 3)

	// MergeTree ORDER BY plus explicit ORDER BY gives ascending timestamps
	assert.Equal(t, int64(1700000000000), got[0].TimestampMs)
	assert.Equal(t, int64(1700000001000), got[1].TimestampMs)
	assert.Equal(t, int64(1700000002000), got[2].TimestampMs)

	assert.Equal(t, uint64(4_800_000_000), got[0].RemainingAmount)
	assert.Equal(t, uint64(95_000_000), got[0].ExitValue)
	assert.Equal(t, 0.0, got[0].PnLPct)
	assert.Equal(t, 0.02, got[1].PnLPct)
	assert.Equal(t, 0.3, got[0].PriceImpactPct)
}

func TestValuationStore_GetByMintEmpty(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := chstore.NewValuationStore(conn)

	got, err := store.GetByMint(context.Background(), "NoSuchMint")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestValuationStore_InsertBulkEmptyIsNoop(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := chstore.NewValuationStore(conn)

	err := store.InsertBulk(context.Background(), nil)
	require.NoError(t, err)
}

func TestValuationStore_InsertBulkInvalidInput(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := chstore.NewValuationStore(conn)
	ctx := context.Background()

	err := store.InsertBulk(ctx, []*domain.ValuationMark{{TimestampMs: 1}})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
