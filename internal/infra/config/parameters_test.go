package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const sampleConf = `# CryptoArb parameters
SpreadEntry=0.0080
SpreadTarget=0.0020
MaxLength=5184000
PriceDeltaLimit=0.10
TrailingSpreadLim=0.0008
TrailingSpreadCount=1
OrderBookFactor=3.0
DemoMode=false
Leg1=BTC
Leg2=USD
Verbose=true
Interval=3
DebugMaxIteration=3200
UseFullExposure=false
TestedExposure=25.00
MaxExposure=25000.00
UseVolatility=false
VolatilityPeriod=600
CACert=curl-ca-bundle.crt

OkCoinApiKey=
OkCoinSecretKey=
OkCoinFees=0.0020
OkCoinEnable=false
BitstampClientId=
BitstampApiKey=
BitstampSecretKey=
BitstampFees=0.0025
BitstampEnable=false
GeminiApiKey=
GeminiSecretKey=
GeminiFees=0.0025
GeminiEnable=false
KrakenApiKey=kraken-key
KrakenSecretKey=kraken-secret
KrakenFees=0.0025
KrakenEnable=false
BinanceApiKey=binance-key
BinanceSecretKey=binance-secret
BinanceFees=0.0010
BinanceEnable=true
# Postgres DSN; leave empty to disable persistence
DBFile=
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadKeyValueFile(t *testing.T) {
	params, err := Load(writeFile(t, "CryptoArb.conf", sampleConf))
	require.NoError(t, err)

	require.Equal(t, 0.008, params.SpreadEntry)
	require.Equal(t, uint(5184000), params.MaxLength)
	require.Equal(t, 3*time.Second, params.Interval)
	require.True(t, params.Verbose)
	require.False(t, params.DemoMode)
	require.Equal(t, "curl-ca-bundle.crt", params.CACert)
	require.Equal(t, "binance-key", params.Binance.APIKey)
	require.Equal(t, "kraken-secret", params.Kraken.SecretKey)
	require.True(t, params.Binance.Enable)
	require.Empty(t, params.DBFile)

	require.Zero(t, params.RetryMaxAttempts)
	require.Equal(t, 2*time.Second, params.RetryInterval)
	require.Equal(t, "development", params.Environment)
	require.False(t, params.TelemetryEnabled)
}

func TestMissingKeyIsReported(t *testing.T) {
	content := strings.Replace(sampleConf, "CACert=curl-ca-bundle.crt\n", "", 1)
	_, err := Load(writeFile(t, "CryptoArb.conf", content))
	require.ErrorIs(t, err, ErrMissingKey)
	require.Contains(t, err.Error(), "CACert")
}

func TestFirstAssignmentWinsAndCommentsIgnored(t *testing.T) {
	content := "#Leg1=ETH\n" + sampleConf + "BinanceFees=0.5\n"
	params, err := Load(writeFile(t, "CryptoArb.conf", content))
	require.NoError(t, err)
	require.Equal(t, "BTC", params.Leg1)
	require.Equal(t, 0.001, params.Binance.Fees)
}

func TestOptionalKeysOverrideDefaults(t *testing.T) {
	content := sampleConf + "RetryMaxAttempts=5\nRetryInterval=500ms\nRequestRate=10\nEnvironment=STAGING\nTelemetryEnabled=true\n"
	params, err := Load(writeFile(t, "CryptoArb.conf", content))
	require.NoError(t, err)
	require.Equal(t, uint(5), params.RetryMaxAttempts)
	require.Equal(t, 500*time.Millisecond, params.RetryInterval)
	require.Equal(t, 10.0, params.RequestRate)
	require.Equal(t, "staging", params.Environment)
	require.True(t, params.TelemetryEnabled)

	params, err = Load(writeFile(t, "CryptoArb.conf", sampleConf+"RetryInterval=4\n"))
	require.NoError(t, err)
	require.Equal(t, 4*time.Second, params.RetryInterval)
}

func TestInvalidNumberFails(t *testing.T) {
	content := strings.Replace(sampleConf, "MaxLength=5184000", "MaxLength=lots", 1)
	_, err := Load(writeFile(t, "CryptoArb.conf", content))
	require.Error(t, err)
	require.Contains(t, err.Error(), "MaxLength")
}

func TestOnlyBTCUSDIsAccepted(t *testing.T) {
	content := strings.Replace(sampleConf, "Leg2=USD", "Leg2=EUR", 1)
	_, err := Load(writeFile(t, "CryptoArb.conf", content))
	require.True(t, errors.Is(err, ErrUnsupportedPair))
}

func TestLoadYAMLVariant(t *testing.T) {
	var b strings.Builder
	for _, line := range strings.Split(sampleConf, "\n") {
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, _ := strings.Cut(line, "=")
		b.WriteString(key + ": \"" + value + "\"\n")
	}
	params, err := Load(writeFile(t, "cryptoarb.yaml", b.String()))
	require.NoError(t, err)
	require.Equal(t, "binance-key", params.Binance.APIKey)
	require.Equal(t, 3*time.Second, params.Interval)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.conf"))
	require.Error(t, err)
}

func TestFindFileSearchesHomeConfig(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".config"), 0o755))
	target := filepath.Join(home, ".config", "cryptoarb-test.conf")
	require.NoError(t, os.WriteFile(target, []byte(sampleConf), 0o600))
	t.Setenv("HOME", home)
	t.Setenv("APPDATA", "")

	require.Equal(t, target, FindFile("cryptoarb-test.conf"))
	require.Equal(t, "nope.conf", FindFile("nope.conf"))
}

func TestExchangeCatalog(t *testing.T) {
	params, err := Load(writeFile(t, "CryptoArb.conf", sampleConf))
	require.NoError(t, err)

	catalog := params.ExchangeCatalog()
	require.Len(t, catalog, 5)
	require.Equal(t, ExchangeBinance, catalog[0].Key)
	require.Equal(t, 0.001, catalog[0].Fee)
	require.Equal(t, "binance-key", catalog[0].Credentials.APIKey)
	require.Equal(t, "kraken-key", catalog[1].Credentials.APIKey)

	active := params.ActiveExchanges()
	require.Len(t, active, 1)
	require.Equal(t, ExchangeBinance, active[0].Key)

	params.DemoMode = true
	require.Len(t, params.ActiveExchanges(), 2)
}
