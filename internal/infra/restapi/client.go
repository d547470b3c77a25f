// Package restapi is the HTTP client shared by exchange adapters. Every call
// returns a syntactically valid JSON document or an error; transport failures
// and undecodable bodies are retried according to a RetryPolicy.
package restapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	json "github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/coachpo/cryptoarb/errs"
	"github.com/coachpo/cryptoarb/internal/observability"
	"github.com/coachpo/cryptoarb/internal/telemetry"
)

const maxLoggedBody = 4 << 10

// ErrInvalidJSON marks a response body that is not a JSON document.
var ErrInvalidJSON = errors.New("restapi: response is not valid json")

// Client issues requests against a single host. A Client is not shared
// between adapters.
type Client struct {
	name      string
	host      string
	userAgent string
	retry     RetryPolicy
	http      *http.Client
	transport *http.Transport
	limiter   *rate.Limiter
	logger    observability.Logger
	notice    io.Writer
	metrics   *clientMetrics

	waits atomic.Uint64
}

// New constructs a client from opts.
func New(opts Options) (*Client, error) {
	opts = withDefaults(opts)
	if opts.Host == "" {
		return nil, errors.New("restapi: host required")
	}

	c := &Client{
		name:      opts.Name,
		host:      opts.Host,
		userAgent: opts.UserAgent,
		retry:     opts.Retry,
		http:      nil,
		transport: nil,
		limiter:   rate.NewLimiter(rate.Inf, 1),
		logger:    opts.Logger,
		notice:    opts.Notice,
		metrics:   newClientMetrics(opts.Host),
	}
	if opts.RequestRate > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestRate), 1)
	}

	roundTripper := opts.Transport
	if roundTripper == nil {
		transport, err := newTransport(opts)
		if err != nil {
			return nil, err
		}
		c.transport = transport
		roundTripper = transport
	}
	c.http = &http.Client{
		Transport:     roundTripper,
		CheckRedirect: nil,
		Jar:           nil,
		Timeout:       opts.Timeout,
	}
	return c, nil
}

// Host returns the base URL requests are issued against.
func (c *Client) Host() string { return c.host }

// RetryPolicy returns the policy the client retries with.
func (c *Client) RetryPolicy() RetryPolicy { return c.retry }

// Waits returns how many retry waits this client has performed.
func (c *Client) Waits() uint64 { return c.waits.Load() }

// Get issues a GET request for uri, which is appended to the host verbatim.
func (c *Client) Get(ctx context.Context, uri string, headers http.Header) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, uri, headers, "")
}

// Post issues a form-encoded POST request carrying body.
func (c *Client) Post(ctx context.Context, uri string, headers http.Header, body string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, uri, headers, body)
}

// CloseIdleConnections drops pooled connections.
func (c *Client) CloseIdleConnections() {
	c.http.CloseIdleConnections()
}

type attemptError struct {
	failure string
	status  int
	err     error
}

func (e *attemptError) Error() string { return e.err.Error() }
func (e *attemptError) Unwrap() error { return e.err }

func (c *Client) do(ctx context.Context, method, uri string, headers http.Header, body string) (json.RawMessage, error) {
	target := c.host + uri
	attempt := 0
	var lastStatus int

	operation := func() (json.RawMessage, error) {
		attempt++
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, backoff.Permanent(err)
		}
		req, err := c.newRequest(ctx, method, target, headers, body)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		// A failed attempt may have been caused by a stale connection or a
		// stale address; later attempts always dial again.
		if attempt > 1 {
			req.Close = true
		}
		payload, status, err := c.attempt(req)
		lastStatus = status
		return payload, err
	}

	notify := func(err error, wait time.Duration) {
		c.waits.Add(1)
		failure := telemetry.FailureTransport
		var ae *attemptError
		if errors.As(err, &ae) {
			failure = ae.failure
		}
		c.metrics.recordRetry(ctx, method, failure)
		c.logger.Info("api error, retrying",
			observability.F("client", c.name),
			observability.F("url", target),
			observability.F("wait", wait.String()),
		)
		fmt.Fprintf(c.notice, "  API error: retrying in %s, see log\n", wait)
		if c.transport != nil {
			c.transport.CloseIdleConnections()
		}
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(backoff.NewConstantBackOff(c.retry.Interval)),
		backoff.WithNotify(notify),
		backoff.WithMaxElapsedTime(0),
	}
	if !c.retry.Unbounded() {
		opts = append(opts, backoff.WithMaxTries(c.retry.MaxAttempts))
	}

	payload, err := backoff.Retry(ctx, operation, opts...)
	if err == nil {
		return payload, nil
	}

	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%s %s: %w", method, target, ctxErr)
	}
	var ae *attemptError
	if !errors.As(err, &ae) {
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}
	code := errs.CodeNetwork
	if ae.failure == telemetry.FailureDecode {
		code = errs.CodeDecode
	}
	return nil, errs.New(c.name, code,
		errs.WithMessage("retry policy exhausted"),
		errs.WithHTTP(lastStatus),
		errs.WithCanonicalCode(errs.CanonicalRetryExhausted),
		errs.WithVenueField("url", target),
		errs.WithVenueField("attempts", strconv.Itoa(attempt)),
		errs.WithCause(ae.err),
	)
}

func (c *Client) newRequest(ctx context.Context, method, target string, headers http.Header, body string) (*http.Request, error) {
	var reader io.Reader
	if method == http.MethodPost {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", strings.ToLower(method), err)
	}
	for key, values := range headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	req.Header.Set("User-Agent", c.userAgent)
	if method == http.MethodPost && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	return req, nil
}

// attempt performs one round trip. HTTP status codes are reported but never
// judged; only the body's JSON validity decides success.
func (c *Client) attempt(req *http.Request) (json.RawMessage, int, error) {
	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.recordAttempt(req.Context(), req.Method, telemetry.ResultError, time.Since(started))
		c.logger.Error("curl error",
			observability.F("client", c.name),
			observability.F("url", req.URL.String()),
			observability.F("error", err),
		)
		return nil, 0, &attemptError{failure: telemetry.FailureTransport, status: 0, err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.recordAttempt(req.Context(), req.Method, telemetry.ResultError, time.Since(started))
		c.logger.Error("read response",
			observability.F("client", c.name),
			observability.F("url", req.URL.String()),
			observability.F("status", resp.StatusCode),
			observability.F("error", err),
		)
		return nil, resp.StatusCode, &attemptError{failure: telemetry.FailureTransport, status: resp.StatusCode, err: err}
	}
	if !json.Valid(raw) {
		c.metrics.recordAttempt(req.Context(), req.Method, telemetry.ResultError, time.Since(started))
		c.logger.Error("json error",
			observability.F("client", c.name),
			observability.F("url", req.URL.String()),
			observability.F("status", resp.StatusCode),
			observability.F("buffer", truncate(raw)),
		)
		return nil, resp.StatusCode, &attemptError{failure: telemetry.FailureDecode, status: resp.StatusCode, err: ErrInvalidJSON}
	}
	c.metrics.recordAttempt(req.Context(), req.Method, telemetry.ResultSuccess, time.Since(started))
	return json.RawMessage(raw), resp.StatusCode, nil
}

func truncate(raw []byte) string {
	if len(raw) > maxLoggedBody {
		return string(raw[:maxLoggedBody]) + "..."
	}
	return string(raw)
}
