// Package errs provides the structured error envelope returned by exchange adapters.
package errs

import (
	"errors"
	"sort"
	"strconv"
	"strings"
)

// Code identifies the failure family of an adapter error.
type Code string

const (
	// CodeInvalid indicates the caller asked for something the adapter contract does not allow.
	CodeInvalid Code = "invalid_request"
	// CodeAuth indicates missing or rejected credentials.
	CodeAuth Code = "auth"
	// CodeNetwork indicates a transport failure that outlived the retry policy.
	CodeNetwork Code = "network"
	// CodeDecode indicates a response body that could not be decoded.
	CodeDecode Code = "decode"
	// CodeExchange indicates an exchange-side failure.
	CodeExchange Code = "exchange_error"
)

// CanonicalCode captures exchange-agnostic failure categories.
type CanonicalCode string

const (
	// CanonicalUnknown captures uncategorized failures.
	CanonicalUnknown CanonicalCode = "unknown"
	// CanonicalUnsupportedMethod marks a signed request issued with a method other than GET or POST.
	CanonicalUnsupportedMethod CanonicalCode = "unsupported_method"
	// CanonicalMissingCredentials marks a signed request attempted without an API key or secret.
	CanonicalMissingCredentials CanonicalCode = "missing_credentials"
	// CanonicalRetryExhausted marks a request abandoned after the retry policy gave up.
	CanonicalRetryExhausted CanonicalCode = "retry_exhausted"
	// CanonicalServerTime marks a server time response without a usable timestamp.
	CanonicalServerTime CanonicalCode = "server_time_unavailable"
)

// E captures structured error information produced by the integration layer.
type E struct {
	Exchange      string
	Code          Code
	HTTP          int
	Message       string
	Canonical     CanonicalCode
	VenueMetadata map[string]string

	cause error
}

// Option configures an error envelope.
type Option func(*E)

// New constructs an error envelope for the exchange and error code.
func New(exchange string, code Code, opts ...Option) *E {
	e := &E{
		Exchange:  strings.TrimSpace(exchange),
		Code:      code,
		Canonical: CanonicalUnknown,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// WithMessage attaches a human-readable message.
func WithMessage(message string) Option {
	trimmed := strings.TrimSpace(message)
	return func(e *E) {
		e.Message = trimmed
	}
}

// WithHTTP records the last observed HTTP status code.
func WithHTTP(status int) Option {
	return func(e *E) {
		e.HTTP = status
	}
}

// WithCause sets the underlying cause error.
func WithCause(err error) Option {
	return func(e *E) {
		e.cause = err
	}
}

// WithCanonicalCode sets the canonical failure category.
func WithCanonicalCode(code CanonicalCode) Option {
	trimmed := strings.TrimSpace(string(code))
	return func(e *E) {
		if trimmed == "" {
			e.Canonical = CanonicalUnknown
			return
		}
		e.Canonical = CanonicalCode(trimmed)
	}
}

// WithVenueField appends a single venue metadata key/value pair.
func WithVenueField(key, value string) Option {
	return func(e *E) {
		trimmedKey := strings.TrimSpace(key)
		if trimmedKey == "" {
			return
		}
		if e.VenueMetadata == nil {
			e.VenueMetadata = make(map[string]string, 1)
		}
		e.VenueMetadata[trimmedKey] = strings.TrimSpace(value)
	}
}

func (e *E) Error() string {
	if e == nil {
		return "<nil>"
	}
	parts := make([]string, 0, 6)

	exchange := e.Exchange
	if exchange == "" {
		exchange = "unknown"
	}
	parts = append(parts, "exchange="+exchange)

	code := strings.TrimSpace(string(e.Code))
	if code == "" {
		code = "unknown"
	}
	parts = append(parts, "code="+code)

	if e.Canonical != "" && e.Canonical != CanonicalUnknown {
		parts = append(parts, "canonical="+string(e.Canonical))
	}
	if e.HTTP > 0 {
		parts = append(parts, "http="+strconv.Itoa(e.HTTP))
	}
	if e.Message != "" {
		parts = append(parts, "message="+strconv.Quote(e.Message))
	}
	if len(e.VenueMetadata) > 0 {
		keys := make([]string, 0, len(e.VenueMetadata))
		for k := range e.VenueMetadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, k+"="+strconv.Quote(e.VenueMetadata[k]))
		}
		parts = append(parts, "venue="+strings.Join(pairs, ","))
	}
	if e.cause != nil {
		parts = append(parts, "cause="+strconv.Quote(e.cause.Error()))
	}
	return strings.Join(parts, " ")
}

func (e *E) Unwrap() error { return e.cause }

// HasCanonical reports whether err carries an envelope with the given canonical code.
func HasCanonical(err error, code CanonicalCode) bool {
	var envelope *E
	if !errors.As(err, &envelope) {
		return false
	}
	return envelope.Canonical == code
}

// UnsupportedMethod returns the contract violation raised for methods other than GET and POST.
func UnsupportedMethod(exchange, method string) *E {
	return New(exchange, CodeInvalid,
		WithMessage("request method must be either POST or GET"),
		WithCanonicalCode(CanonicalUnsupportedMethod),
		WithVenueField("method", method),
	)
}
