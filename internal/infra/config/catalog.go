package config

import "github.com/coachpo/cryptoarb/internal/domain/market"

// Exchange keys used across the catalog and the adapter registry.
const (
	ExchangeBinance  = "binance"
	ExchangeKraken   = "kraken"
	ExchangeOkCoin   = "okcoin"
	ExchangeBitstamp = "bitstamp"
	ExchangeGemini   = "gemini"
)

// ExchangeEntry is one row of the exchange catalog.
type ExchangeEntry struct {
	Key         string
	Name        string
	Fee         float64
	CanShort    bool
	Implemented bool
	Enabled     bool
	Credentials market.Credentials
}

// ExchangeCatalog lists every exchange known to the parameters file in a
// stable order. Only Binance and Kraken have adapters.
func (p Parameters) ExchangeCatalog() []ExchangeEntry {
	entry := func(key, name string, ex ExchangeParams, implemented bool) ExchangeEntry {
		return ExchangeEntry{
			Key:         key,
			Name:        name,
			Fee:         ex.Fees,
			CanShort:    false,
			Implemented: implemented,
			Enabled:     ex.Enable,
			Credentials: market.Credentials{APIKey: ex.APIKey, APISecret: ex.SecretKey},
		}
	}
	return []ExchangeEntry{
		entry(ExchangeBinance, "Binance", p.Binance, true),
		entry(ExchangeKraken, "Kraken", p.Kraken, true),
		entry(ExchangeOkCoin, "OKCoin", p.OkCoin, false),
		entry(ExchangeBitstamp, "Bitstamp", p.Bitstamp, false),
		entry(ExchangeGemini, "Gemini", p.Gemini, false),
	}
}

// ActiveExchanges returns the implemented entries that should be polled:
// the enabled ones, or all of them in demo mode.
func (p Parameters) ActiveExchanges() []ExchangeEntry {
	var out []ExchangeEntry
	for _, e := range p.ExchangeCatalog() {
		if e.Implemented && (e.Enabled || p.DemoMode) {
			out = append(out, e)
		}
	}
	return out
}
