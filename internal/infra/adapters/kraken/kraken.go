// Package kraken adapts Kraken. The venue still speaks the Binance.US host
// and endpoints; only its identity and credentials are its own.
package kraken

import (
	"github.com/coachpo/cryptoarb/internal/infra/adapters/binance"
	"github.com/coachpo/cryptoarb/internal/infra/adapters/exchange"
	"github.com/coachpo/cryptoarb/internal/infra/adapters/shared"
)

// Key identifies the exchange in configuration.
const Key = "kraken"

// TODO: point BaseURL and Paths at api.kraken.com once its signing scheme
// (API-Sign over a nonce and SHA-256 of the post data) is supported.
var krakenProfile = func() shared.Profile {
	p := binance.Profile()
	p.Key = Key
	p.Name = "Kraken"
	return p
}()

// Profile returns the Kraken venue description.
func Profile() shared.Profile {
	return krakenProfile
}

// Adapter is the Kraken exchange adapter.
type Adapter struct {
	*shared.Venue
}

var _ exchange.Adapter = (*Adapter)(nil)

// New constructs a Kraken adapter.
func New(opts shared.Options) (*Adapter, error) {
	venue, err := shared.Open(krakenProfile, opts)
	if err != nil {
		return nil, err
	}
	return &Adapter{Venue: venue}, nil
}
