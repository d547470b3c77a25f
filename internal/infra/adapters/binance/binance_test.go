package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/coachpo/cryptoarb/internal/domain/market"
	"github.com/coachpo/cryptoarb/internal/infra/adapters/exchange"
	"github.com/coachpo/cryptoarb/internal/infra/adapters/shared"
	"github.com/coachpo/cryptoarb/internal/infra/restapi"
	"github.com/coachpo/cryptoarb/internal/infra/signer"
)

func TestProfileTargetsBinanceUS(t *testing.T) {
	p := Profile()
	require.Equal(t, "https://api.binance.us", p.BaseURL)
	require.Equal(t, "X-MBX-APIKEY", p.APIKeyHeader)
	require.Equal(t, "/api/v1/time", p.Paths.ServerTime)
	require.Equal(t, "/api/v3/ticker/bookTicker", p.Paths.BookTicker)
	require.Equal(t, "/api/v3/account", p.Paths.Account)
}

func TestNewBuildsDefaultClient(t *testing.T) {
	adapter, err := New(shared.Options{Credentials: market.Credentials{APIKey: "k", APISecret: "s"}})
	require.NoError(t, err)
	require.Equal(t, "Binance", adapter.Identity().Name)
	require.True(t, adapter.Identity().Implemented)
	require.Equal(t, signer.Sign("s", "timestamp=1", signer.Lower), adapter.Signature("timestamp=1"))
}

func TestUnsupportedMethodHaltsProcess(t *testing.T) {
	adapter, err := New(shared.Options{Credentials: market.Credentials{APIKey: "k", APISecret: "s"}})
	require.NoError(t, err)

	_, err = adapter.AuthRequest(context.Background(), "DELETE", "/api/v3/order", "symbol=BTCUSDT")
	require.True(t, exchange.IsContractViolation(err))

	exitCode := 0
	require.True(t, exchange.HaltOnContractViolation(nil, err, func(code int) { exitCode = code }))
	require.NotZero(t, exitCode)
}

func TestBalancesAgainstServer(t *testing.T) {
	var apiKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/time":
			_, _ = w.Write([]byte(`{"serverTime":1700000000000}`))
		case "/api/v3/account":
			apiKey = r.Header.Get("X-MBX-APIKEY")
			_, _ = w.Write([]byte(`{"balances":[{"asset":"BTC","free":"1.25","locked":"0"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client, err := restapi.New(restapi.Options{Host: server.URL, Retry: restapi.RetryPolicy{MaxAttempts: 1, Interval: time.Millisecond}})
	require.NoError(t, err)
	adapter, err := New(shared.Options{Credentials: market.Credentials{APIKey: "k", APISecret: "s"}, Client: client})
	require.NoError(t, err)

	require.NoError(t, adapter.RefreshBalances(context.Background()))
	require.NoError(t, adapter.RefreshBalances(context.Background()))
	require.Equal(t, 1.25, adapter.Balance("BTC"))
	require.Len(t, adapter.Balances(), 2)
	require.Equal(t, "k", apiKey)
}
