package restapi

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/coachpo/cryptoarb/internal/observability"
)

const (
	defaultConnectTimeout = 10 * time.Second
	defaultTimeout        = 20 * time.Second
	defaultUserAgent      = "CryptoArb"
	defaultRetryInterval  = 2 * time.Second
)

// RetryPolicy bounds the retry loop around a single request.
type RetryPolicy struct {
	// MaxAttempts caps the total number of attempts. Zero retries forever.
	MaxAttempts uint
	// Interval is the fixed wait between attempts.
	Interval time.Duration
}

// DefaultRetryPolicy retries forever every two seconds.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 0, Interval: defaultRetryInterval}
}

// Unbounded reports whether the policy never gives up on its own.
func (p RetryPolicy) Unbounded() bool {
	return p.MaxAttempts == 0
}

// Options configure a Client.
type Options struct {
	// Name labels logs, metrics and errors, usually the exchange name.
	Name           string
	Host           string
	ConnectTimeout time.Duration
	Timeout        time.Duration
	UserAgent      string
	// CACertPath points at a PEM bundle. Empty disables peer verification.
	CACertPath string
	Retry      RetryPolicy
	// RequestRate limits requests per second. Zero means unlimited.
	RequestRate float64
	Logger      observability.Logger
	// Notice receives the short console line printed before each retry.
	Notice io.Writer
	// Transport replaces the default transport when set.
	Transport http.RoundTripper
}

func withDefaults(in Options) Options {
	in.Name = strings.TrimSpace(in.Name)
	in.Host = strings.TrimSuffix(strings.TrimSpace(in.Host), "/")
	if in.ConnectTimeout <= 0 {
		in.ConnectTimeout = defaultConnectTimeout
	}
	if in.Timeout <= 0 {
		in.Timeout = defaultTimeout
	}
	if strings.TrimSpace(in.UserAgent) == "" {
		in.UserAgent = defaultUserAgent
	}
	if in.Retry.Interval <= 0 {
		in.Retry.Interval = defaultRetryInterval
	}
	if in.RequestRate < 0 {
		in.RequestRate = 0
	}
	if in.Logger == nil {
		in.Logger = observability.NopLogger()
	}
	if in.Notice == nil {
		in.Notice = io.Discard
	}
	return in
}

// newTransport builds the per-client transport. Go negotiates gzip and
// decompresses bodies itself as long as Accept-Encoding is left unset.
func newTransport(opts Options) (*http.Transport, error) {
	tlsConfig, err := tlsConfigFor(opts.CACertPath)
	if err != nil {
		return nil, err
	}
	dialer := &net.Dialer{
		Timeout:   opts.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSClientConfig:       tlsConfig,
		TLSHandshakeTimeout:   opts.ConnectTimeout,
		MaxIdleConns:          4,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: time.Second,
		DisableCompression:    false,
	}, nil
}

func tlsConfigFor(caPath string) (*tls.Config, error) {
	caPath = strings.TrimSpace(caPath)
	if caPath == "" {
		return &tls.Config{InsecureSkipVerify: true}, nil //nolint:gosec // no CA bundle configured
	}
	pem, err := os.ReadFile(caPath)
	if err != nil {
		return nil, fmt.Errorf("read ca bundle %s: %w", caPath, err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("ca bundle %s: no certificates found", caPath)
	}
	return &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}
