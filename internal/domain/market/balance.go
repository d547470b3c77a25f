package market

import (
	"strings"

	"github.com/shopspring/decimal"
)

// UnknownBalance is returned by Balances.Free when the asset is absent.
const UnknownBalance = -1.0

// Balance is the free and locked amount of one asset on an exchange account.
type Balance struct {
	Asset  string
	Free   float64
	Locked float64
}

// Total returns free+locked computed in decimal space.
func (b Balance) Total() float64 {
	return decimal.NewFromFloat(b.Free).Add(decimal.NewFromFloat(b.Locked)).InexactFloat64()
}

// Balances accumulates account snapshots for one adapter. Append never
// replaces an existing asset: fetching twice without Reset keeps both copies.
type Balances struct {
	entries []Balance
}

// Append adds entries in order.
func (b *Balances) Append(entries ...Balance) {
	b.entries = append(b.entries, entries...)
}

// Lookup returns the first entry for asset.
func (b *Balances) Lookup(asset string) (Balance, bool) {
	for _, entry := range b.entries {
		if entry.Asset == asset {
			return entry, true
		}
	}
	return Balance{}, false
}

// Free returns the free amount of the first entry for asset, or UnknownBalance.
func (b *Balances) Free(asset string) float64 {
	entry, ok := b.Lookup(asset)
	if !ok {
		return UnknownBalance
	}
	return entry.Free
}

// Count returns how many entries exist for asset, ignoring case.
func (b *Balances) Count(asset string) int {
	n := 0
	for _, entry := range b.entries {
		if strings.EqualFold(entry.Asset, asset) {
			n++
		}
	}
	return n
}

// Len returns the number of accumulated entries.
func (b *Balances) Len() int {
	return len(b.entries)
}

// Entries returns a copy of the accumulated entries.
func (b *Balances) Entries() []Balance {
	out := make([]Balance, len(b.entries))
	copy(out, b.entries)
	return out
}

// Reset drops every accumulated entry.
func (b *Balances) Reset() {
	b.entries = b.entries[:0]
}
