// Package binance adapts the Binance.US spot REST API.
package binance

import (
	"github.com/coachpo/cryptoarb/internal/infra/adapters/exchange"
	"github.com/coachpo/cryptoarb/internal/infra/adapters/shared"
)

// Key identifies the exchange in configuration.
const Key = "binance"

var binanceProfile = shared.Profile{
	Key:          Key,
	Name:         "Binance",
	Implemented:  true,
	BaseURL:      "https://api.binance.us",
	APIKeyHeader: "X-MBX-APIKEY",
	Paths: shared.Paths{
		ServerTime: "/api/v1/time",
		BookTicker: "/api/v3/ticker/bookTicker",
		Account:    "/api/v3/account",
	},
}

// Profile returns the Binance venue description.
func Profile() shared.Profile {
	return binanceProfile
}

// Adapter is the Binance exchange adapter.
type Adapter struct {
	*shared.Venue
}

var _ exchange.Adapter = (*Adapter)(nil)

// New constructs a Binance adapter.
func New(opts shared.Options) (*Adapter, error) {
	venue, err := shared.Open(binanceProfile, opts)
	if err != nil {
		return nil, err
	}
	return &Adapter{Venue: venue}, nil
}
