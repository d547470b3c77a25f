package main

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/coachpo/cryptoarb/errs"
	"github.com/coachpo/cryptoarb/internal/domain/market"
	"github.com/coachpo/cryptoarb/internal/domain/quotestore"
	"github.com/coachpo/cryptoarb/internal/infra/adapters/exchange"
	"github.com/coachpo/cryptoarb/internal/infra/config"
	"github.com/coachpo/cryptoarb/internal/observability"
)

type stubAdapter struct {
	name       string
	quote      market.Quote
	quoteErr   error
	refreshErr error
	balances   market.Balances
	delay      time.Duration
}

func (s *stubAdapter) Identity() market.Identity {
	return market.Identity{Name: s.name, Implemented: true}
}

func (s *stubAdapter) Balance(currency string) float64 { return s.balances.Free(currency) }

func (s *stubAdapter) LookupBalance(currency string) (market.Balance, bool) {
	return s.balances.Lookup(currency)
}

func (s *stubAdapter) Balances() []market.Balance { return s.balances.Entries() }

func (s *stubAdapter) Quote(ctx context.Context, _ string) (market.Quote, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return market.Quote{}, ctx.Err()
		}
	}
	return s.quote, s.quoteErr
}

func (s *stubAdapter) RefreshBalances(context.Context) error {
	if s.refreshErr != nil {
		return s.refreshErr
	}
	s.balances.Append(market.Balance{Asset: "BTC", Free: 1.5, Locked: 0.5})
	return nil
}

func (s *stubAdapter) AuthRequest(context.Context, string, string, string) (json.RawMessage, error) {
	return nil, nil
}

func (s *stubAdapter) Signature(string) string { return "" }

var _ exchange.Adapter = (*stubAdapter)(nil)

type memoryStore struct {
	mu       sync.Mutex
	quotes   []quotestore.QuoteRecord
	balances []quotestore.BalanceRecord
}

func (m *memoryStore) InsertQuote(_ context.Context, record quotestore.QuoteRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotes = append(m.quotes, record)
	return nil
}

func (m *memoryStore) LatestQuote(context.Context, string) (quotestore.QuoteRecord, error) {
	return quotestore.QuoteRecord{}, quotestore.ErrNotFound
}

func (m *memoryStore) InsertBalances(_ context.Context, records []quotestore.BalanceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances = append(m.balances, records...)
	return nil
}

type exitRecorder struct {
	codes []int
}

func (e *exitRecorder) exit(code int) { e.codes = append(e.codes, code) }

func newTestPoller(out *bytes.Buffer, store quotestore.Store, adapters ...exchange.Adapter) (*poller, *exitRecorder) {
	rec := &exitRecorder{}
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return &poller{
		adapters: adapters,
		store:    store,
		report:   newReport(out),
		logger:   observability.NopLogger(),
		symbol:   "BTCUSD",
		verbose:  true,
		exit:     rec.exit,
		now:      func() time.Time { return fixed },
	}, rec
}

func TestLogFileNameUsesTimestamp(t *testing.T) {
	started := time.Date(2024, 3, 9, 14, 5, 7, 0, time.Local)
	require.Equal(t, "CryptoArb_log_20240309_140507.log", logFileName(started))
}

func TestParseFlagsDefaults(t *testing.T) {
	flags := parseFlags(nil)
	require.Equal(t, config.DefaultFileName, flags.configPath)
	require.Equal(t, defaultLogDir, flags.logDir)

	flags = parseFlags([]string{"-config", "alt.conf", "-logdir", "/tmp/logs"})
	require.Equal(t, "alt.conf", flags.configPath)
	require.Equal(t, "/tmp/logs", flags.logDir)
}

func TestCreateLogFileMakesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "output", "log")
	path, file, err := createLogFile(dir, time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local))
	require.NoError(t, err)
	t.Cleanup(func() { _ = file.Close() })
	require.Equal(t, filepath.Join(dir, "CryptoArb_log_20240101_000000.log"), path)
	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestQuoteSymbolJoinsLegs(t *testing.T) {
	require.Equal(t, "BTCUSD", quoteSymbol(config.Parameters{Leg1: "btc", Leg2: " usd "}))
}

func TestTelemetryConfigFromParameters(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "")
	cfg := telemetryConfig(config.Parameters{
		TelemetryEnabled: true,
		OTLPEndpoint:     "collector:4318",
		Environment:      "prod",
	})
	require.True(t, cfg.Enabled)
	require.Equal(t, "collector:4318", cfg.OTLPEndpoint)
	require.Equal(t, "prod", cfg.Environment)

	cfg = telemetryConfig(config.Parameters{})
	require.False(t, cfg.Enabled)
}

func TestReportTargetsWarnsOnNonPositiveSpreads(t *testing.T) {
	var out bytes.Buffer
	r := newReport(&out)
	r.targets(config.Parameters{SpreadEntry: 0.008, SpreadTarget: -0.001})

	text := out.String()
	require.Contains(t, text, "[ Targets ]")
	require.Contains(t, text, "Spread Entry : 0.8%")
	require.NotContains(t, text, "WARNING: Spread Entry")
	require.Contains(t, text, "WARNING: Spread Target should be positive.")
}

func TestReportInformationAndDemoMode(t *testing.T) {
	var out bytes.Buffer
	r := newReport(&out)
	r.header(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	r.information(config.Parameters{Leg1: "BTC", Leg2: "USD", DemoMode: true})

	text := out.String()
	require.Contains(t, text, "|   CryptoArb Log File   |")
	require.Contains(t, text, "CryptoArb started time: 2024-01-02 03:04:05")
	require.Contains(t, text, "trading pair: [ BTC, USD ]")
	require.Contains(t, text, "Demo mode: trades won't be generated")
}

func TestReportBalancesMarksUnimplemented(t *testing.T) {
	var out bytes.Buffer
	r := newReport(&out)
	coins := []market.Coin{market.Bitcoin(0, true), market.Ethereum(1, false)}
	r.balances(market.Identity{Name: "Binance", Implemented: true}, coins, func(asset string) float64 {
		if asset == "BTC" {
			return 2
		}
		return market.UnknownBalance
	})
	r.balances(market.Identity{Name: "Gemini", Implemented: false}, coins, func(string) float64 { return 0 })

	text := out.String()
	require.Contains(t, text, "\tBinance\n\t\tBTC: 2\n\t\tETH: not implemented\n")
	require.Contains(t, text, "\tGemini\n\t\tBTC: not implemented\n")
}

func TestReportBalancesPersistsSnapshot(t *testing.T) {
	var out bytes.Buffer
	store := &memoryStore{}
	binance := &stubAdapter{name: "Binance"}
	kraken := &stubAdapter{name: "Kraken", refreshErr: errors.New("boom")}
	p, rec := newTestPoller(&out, store, binance, kraken)

	p.reportBalances(context.Background())

	require.Empty(t, rec.codes)
	text := out.String()
	require.Contains(t, text, "[ Current Balance ]")
	require.Contains(t, text, "\t\tBTC: 1.5\n")
	require.Contains(t, text, "Kraken\n\t\tbalance unavailable: boom")
	require.Len(t, store.balances, 1)
	require.Equal(t, "Binance", store.balances[0].Exchange)
	require.Equal(t, 0.5, store.balances[0].Locked)
}

func TestPollOnceReportsInAdapterOrder(t *testing.T) {
	var out bytes.Buffer
	store := &memoryStore{}
	slow := &stubAdapter{name: "Binance", quote: market.Quote{Bid: 100, Ask: 101}, delay: 20 * time.Millisecond}
	fast := &stubAdapter{name: "Kraken", quote: market.Quote{Bid: 99, Ask: 0}}
	p, rec := newTestPoller(&out, store, slow, fast)

	p.pollOnce(context.Background())

	require.Empty(t, rec.codes)
	text := out.String()
	first := strings.Index(text, "Binance (bid/ask): 100 / 101")
	second := strings.Index(text, "Kraken (bid/ask): 99 / 0")
	require.GreaterOrEqual(t, first, 0)
	require.Greater(t, second, first)

	require.Len(t, store.quotes, 2)
	require.Equal(t, store.quotes[0].RunID, store.quotes[1].RunID)
	require.NotEmpty(t, store.quotes[0].RunID)
}

func TestPollOnceHaltsOnContractViolation(t *testing.T) {
	var out bytes.Buffer
	bad := &stubAdapter{name: "Binance", quoteErr: errs.UnsupportedMethod("binance", "DELETE")}
	p, rec := newTestPoller(&out, nil, bad)

	p.pollOnce(context.Background())

	require.Equal(t, []int{exchange.ExitCodeContractViolation}, rec.codes)
}

func TestPollOnceKeepsGoingOnOrdinaryErrors(t *testing.T) {
	var out bytes.Buffer
	failing := &stubAdapter{name: "Binance", quoteErr: errors.New("no route")}
	ok := &stubAdapter{name: "Kraken", quote: market.Quote{Bid: 1, Ask: 2}}
	p, rec := newTestPoller(&out, nil, failing, ok)

	p.pollOnce(context.Background())

	require.Empty(t, rec.codes)
	require.Contains(t, out.String(), "Binance quote unavailable: no route")
	require.Contains(t, out.String(), "Kraken (bid/ask): 1 / 2")
}

func TestRunStopsAfterIterationLimit(t *testing.T) {
	var out bytes.Buffer
	store := &memoryStore{}
	p, _ := newTestPoller(&out, store, &stubAdapter{name: "Binance", quote: market.Quote{Bid: 1, Ask: 2}})

	require.NoError(t, p.run(context.Background(), 3, time.Millisecond))
	require.Len(t, store.quotes, 3)
	require.NotEqual(t, store.quotes[0].RunID, store.quotes[1].RunID)
}

func TestRunUntilCancelled(t *testing.T) {
	var out bytes.Buffer
	p, _ := newTestPoller(&out, nil, &stubAdapter{name: "Binance"})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := p.run(ctx, 0, 5*time.Millisecond)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestOpenPersistenceDisabledWithoutDSN(t *testing.T) {
	var buf bytes.Buffer
	db, store, err := openPersistence(context.Background(), log.New(&buf, "", 0), "  ")
	require.NoError(t, err)
	require.Nil(t, db)
	require.Nil(t, store)
	require.Contains(t, buf.String(), "quotes will not be persisted")
}

func TestPerformGracefulShutdownCancelsMainContext(t *testing.T) {
	var buf bytes.Buffer
	ctx, cancel := context.WithCancel(context.Background())
	performGracefulShutdown(context.Background(), log.New(&buf, "", 0), gracefulShutdownConfig{mainCancel: cancel})
	require.ErrorIs(t, ctx.Err(), context.Canceled)
	require.Contains(t, buf.String(), "shutdown: cancelling main context")
}
