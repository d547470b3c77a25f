package shared

import (
	"fmt"

	"github.com/coachpo/cryptoarb/internal/domain/market"
	"github.com/coachpo/cryptoarb/internal/infra/restapi"
	"github.com/coachpo/cryptoarb/internal/observability"
)

// Options configure a venue built by Open.
type Options struct {
	Credentials market.Credentials
	// Client overrides the REST client. When nil one is built from Rest and
	// pointed at the profile's base URL.
	Client Requester
	Rest   restapi.Options
	Logger observability.Logger
}

// Open builds a venue for profile, creating its own REST client unless one
// is supplied. Venues never share a client.
func Open(profile Profile, opts Options) (*Venue, error) {
	if opts.Logger == nil {
		opts.Logger = observability.NopLogger()
	}
	if opts.Client == nil {
		rest := opts.Rest
		rest.Name = profile.Key
		rest.Host = profile.BaseURL
		if rest.Logger == nil {
			rest.Logger = opts.Logger
		}
		client, err := restapi.New(rest)
		if err != nil {
			return nil, fmt.Errorf("%s: rest client: %w", profile.Key, err)
		}
		opts.Client = client
	}
	return NewVenue(profile, opts.Client, opts.Credentials, opts.Logger)
}
