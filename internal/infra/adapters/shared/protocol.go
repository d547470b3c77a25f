package shared

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/coachpo/cryptoarb/errs"
	"github.com/coachpo/cryptoarb/internal/domain/market"
	"github.com/coachpo/cryptoarb/internal/infra/restapi"
	"github.com/coachpo/cryptoarb/internal/infra/signer"
)

// Requester is the subset of restapi.Client the protocol needs.
type Requester interface {
	Get(ctx context.Context, uri string, headers http.Header) (json.RawMessage, error)
	Post(ctx context.Context, uri string, headers http.Header, body string) (json.RawMessage, error)
}

var _ Requester = (*restapi.Client)(nil)

type serverTimeResponse struct {
	ServerTime json.Number `json:"serverTime"`
}

// Protocol signs requests with a server-issued timestamp.
type Protocol struct {
	profile Profile
	client  Requester
	creds   market.Credentials
	signer  signer.Signer
}

// NewProtocol binds profile, transport and credentials.
func NewProtocol(profile Profile, client Requester, creds market.Credentials) *Protocol {
	return &Protocol{
		profile: profile,
		client:  client,
		creds:   creds,
		signer:  signer.New(creds.APISecret),
	}
}

// Signature signs payload with the API secret.
func (p *Protocol) Signature(payload string) string {
	return p.signer.Sign(payload)
}

// ServerTime fetches the exchange clock. The value is returned exactly as
// the exchange wrote it; there is no fallback to the local clock.
func (p *Protocol) ServerTime(ctx context.Context) (string, error) {
	raw, err := p.client.Get(ctx, p.profile.Paths.ServerTime, nil)
	if err != nil {
		return "", fmt.Errorf("server time: %w", err)
	}
	var payload serverTimeResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", errs.New(p.profile.Key, errs.CodeDecode,
			errs.WithMessage("decode server time"),
			errs.WithCanonicalCode(errs.CanonicalServerTime),
			errs.WithCause(err),
		)
	}
	ts := payload.ServerTime.String()
	if _, err := strconv.ParseInt(ts, 10, 64); err != nil {
		return "", errs.New(p.profile.Key, errs.CodeExchange,
			errs.WithMessage("server time missing or not an integer"),
			errs.WithCanonicalCode(errs.CanonicalServerTime),
			errs.WithVenueField("serverTime", ts),
		)
	}
	return ts, nil
}

// Payload is the string that gets signed: the caller's options followed by
// the timestamp parameter.
func Payload(options, timestamp string) string {
	if options == "" {
		return "timestamp=" + timestamp
	}
	return options + "&timestamp=" + timestamp
}

// SignedQuery returns the payload with its signature appended.
func (p *Protocol) SignedQuery(options, timestamp string) string {
	payload := Payload(options, timestamp)
	return payload + "&signature=" + p.Signature(payload)
}

// BuildURI returns request with the signed query attached.
func (p *Protocol) BuildURI(request, options, timestamp string) string {
	return request + "?" + p.SignedQuery(options, timestamp)
}

func (p *Protocol) headers() http.Header {
	h := make(http.Header, 1)
	h.Set(p.profile.APIKeyHeader, p.creds.APIKey)
	return h
}

// Do issues a signed request. Methods other than GET and POST return an
// errs.E carrying errs.CanonicalUnsupportedMethod without touching the network.
func (p *Protocol) Do(ctx context.Context, method, request, options string) (json.RawMessage, error) {
	method = strings.ToUpper(strings.TrimSpace(method))
	if method != http.MethodGet && method != http.MethodPost {
		return nil, errs.UnsupportedMethod(p.profile.Key, method)
	}
	if !p.creds.Complete() {
		return nil, errs.New(p.profile.Key, errs.CodeAuth,
			errs.WithMessage("api key and secret required for signed requests"),
			errs.WithCanonicalCode(errs.CanonicalMissingCredentials),
		)
	}

	timestamp, err := p.ServerTime(ctx)
	if err != nil {
		return nil, err
	}
	query := p.SignedQuery(options, timestamp)
	uri := request + "?" + query

	if method == http.MethodPost {
		return p.client.Post(ctx, uri, p.headers(), query)
	}
	return p.client.Get(ctx, uri, p.headers())
}
