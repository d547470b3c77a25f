package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	dbmigrations "github.com/coachpo/cryptoarb/db/migrations"
	"github.com/coachpo/cryptoarb/internal/domain/quotestore"
	"github.com/coachpo/cryptoarb/internal/infra/persistence/migrations"
)

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres contract test skipped in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		Env:          map[string]string{"POSTGRES_PASSWORD": "secret", "POSTGRES_USER": "postgres", "POSTGRES_DB": "cryptoarb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	dsn := fmt.Sprintf("postgres://postgres:secret@%s:%s/cryptoarb?sslmode=disable", host, port.Port())

	// The port can accept connections before the server finishes init.
	require.Eventually(t, func() bool {
		return migrations.ApplyFS(ctx, dsn, dbmigrations.Files, ".", nil) == nil
	}, 30*time.Second, 500*time.Millisecond)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestQuoteStoreAgainstPostgres(t *testing.T) {
	pool := startPostgres(t)
	store := New(pool).Quotes()
	ctx := context.Background()
	runID := uuid.NewString()
	base := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	_, err := store.LatestQuote(ctx, "binance")
	require.ErrorIs(t, err, quotestore.ErrNotFound)

	require.NoError(t, store.InsertQuote(ctx, quotestore.QuoteRecord{RunID: runID, Exchange: "Binance", ObservedAt: base, Bid: 37000.1, Ask: 37001.2}))
	require.NoError(t, store.InsertQuote(ctx, quotestore.QuoteRecord{RunID: runID, Exchange: "binance", ObservedAt: base.Add(time.Second), Bid: 37002, Ask: 0}))
	require.NoError(t, store.InsertQuote(ctx, quotestore.QuoteRecord{RunID: runID, Exchange: "kraken", ObservedAt: base.Add(time.Minute), Bid: 1, Ask: 2}))

	latest, err := store.LatestQuote(ctx, "binance")
	require.NoError(t, err)
	require.Equal(t, runID, latest.RunID)
	require.Equal(t, "binance", latest.Exchange)
	require.True(t, latest.ObservedAt.Equal(base.Add(time.Second)))
	require.Equal(t, 37002.0, latest.Bid)
	require.Zero(t, latest.Ask)

	require.NoError(t, store.InsertBalances(ctx, []quotestore.BalanceRecord{
		{RunID: runID, Exchange: "binance", Asset: "BTC", Free: 0.5, Locked: 0.1, ObservedAt: base},
		{RunID: runID, Exchange: "binance", Asset: "USD", Free: 1200, ObservedAt: base},
	}))
	var count int
	require.NoError(t, pool.QueryRow(ctx, "SELECT COUNT(*) FROM balance_snapshots WHERE exchange = 'binance'").Scan(&count))
	require.Equal(t, 2, count)
}
