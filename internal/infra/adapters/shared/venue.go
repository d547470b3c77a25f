package shared

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"github.com/coachpo/cryptoarb/errs"
	"github.com/coachpo/cryptoarb/internal/domain/market"
	"github.com/coachpo/cryptoarb/internal/observability"
)

const (
	opQuote       = "quote"
	opBalances    = "balances"
	opAuthRequest = "auth_request"
)

// Venue is a spot exchange speaking the timestamped HMAC protocol. It
// satisfies exchange.Adapter.
type Venue struct {
	profile  Profile
	protocol *Protocol
	client   Requester
	logger   observability.Logger
	metrics  *venueMetrics

	mu       sync.Mutex
	balances market.Balances
}

// NewVenue builds a venue for profile using client for every request.
func NewVenue(profile Profile, client Requester, creds market.Credentials, logger observability.Logger) (*Venue, error) {
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", profile.Key, err)
	}
	if client == nil {
		return nil, fmt.Errorf("%s: rest client required", profile.Key)
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Venue{
		profile:  profile,
		protocol: NewProtocol(profile, client, creds),
		client:   client,
		logger:   logger,
		metrics:  newVenueMetrics(profile.Key),
		mu:       sync.Mutex{},
		balances: market.Balances{},
	}, nil
}

// Profile returns the venue description.
func (v *Venue) Profile() Profile { return v.profile }

// Protocol exposes the signing protocol.
func (v *Venue) Protocol() *Protocol { return v.protocol }

// Identity returns the exchange identity.
func (v *Venue) Identity() market.Identity {
	return market.Identity{Name: v.profile.Name, Implemented: v.profile.Implemented}
}

// Balance returns the free amount of the first accumulated entry for
// currency, or market.UnknownBalance.
func (v *Venue) Balance(currency string) float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.balances.Free(currency)
}

// LookupBalance returns the first accumulated entry for currency.
func (v *Venue) LookupBalance(currency string) (market.Balance, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.balances.Lookup(currency)
}

// Balances returns a copy of every accumulated entry.
func (v *Venue) Balances() []market.Balance {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.balances.Entries()
}

// ResetBalances drops accumulated entries so the next refresh starts clean.
func (v *Venue) ResetBalances() {
	v.mu.Lock()
	n := v.balances.Len()
	v.balances.Reset()
	v.mu.Unlock()
	v.metrics.addBalances(context.Background(), -n)
}

// Quote fetches the book ticker for pair.
func (v *Venue) Quote(ctx context.Context, pair string) (quote market.Quote, err error) {
	started := time.Now()
	defer func() { v.metrics.record(ctx, opQuote, started, err) }()

	query := url.Values{}
	query.Set("symbol", strings.TrimSpace(pair))
	raw, err := v.client.Get(ctx, v.profile.Paths.BookTicker+"?"+query.Encode(), nil)
	if err != nil {
		return market.Quote{}, fmt.Errorf("%s quote %s: %w", v.profile.Key, pair, err)
	}
	quote, err = decodeQuote(raw)
	if err != nil {
		return market.Quote{}, errs.New(v.profile.Key, errs.CodeDecode,
			errs.WithMessage("decode book ticker"),
			errs.WithVenueField("symbol", pair),
			errs.WithCause(err),
		)
	}
	v.logger.Debug("quote",
		observability.F("exchange", v.profile.Name),
		observability.F("symbol", pair),
		observability.F("bid", quote.Bid),
		observability.F("ask", quote.Ask),
	)
	return quote, nil
}

// RefreshBalances fetches the account and appends every reported asset.
// Entries from earlier refreshes are kept; call ResetBalances first to
// replace them.
func (v *Venue) RefreshBalances(ctx context.Context) (err error) {
	started := time.Now()
	defer func() { v.metrics.record(ctx, opBalances, started, err) }()

	raw, err := v.protocol.Do(ctx, "GET", v.profile.Paths.Account, "")
	if err != nil {
		return fmt.Errorf("%s balances: %w", v.profile.Key, err)
	}
	entries, err := decodeBalances(raw)
	if err != nil {
		return errs.New(v.profile.Key, errs.CodeDecode,
			errs.WithMessage("decode account balances"),
			errs.WithCause(err),
		)
	}

	v.mu.Lock()
	v.balances.Append(entries...)
	total := v.balances.Len()
	v.mu.Unlock()
	v.metrics.addBalances(ctx, len(entries))

	v.logger.Debug("balances refreshed",
		observability.F("exchange", v.profile.Name),
		observability.F("received", len(entries)),
		observability.F("accumulated", total),
	)
	return nil
}

// AuthRequest issues a signed request against the venue.
func (v *Venue) AuthRequest(ctx context.Context, method, path, options string) (raw json.RawMessage, err error) {
	started := time.Now()
	defer func() { v.metrics.record(ctx, opAuthRequest, started, err) }()
	return v.protocol.Do(ctx, method, path, options)
}

// Signature signs payload with the venue secret.
func (v *Venue) Signature(payload string) string {
	return v.protocol.Signature(payload)
}
