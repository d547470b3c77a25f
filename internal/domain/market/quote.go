// Package market defines the normalized value types produced by exchange adapters.
package market

// Quote is the best bid and ask observed on an exchange. A zero side means the
// exchange did not quote it; zero is never a real price.
type Quote struct {
	Bid float64
	Ask float64
}

// NewQuote builds a quote, clamping negative inputs to the unquoted value.
func NewQuote(bid, ask float64) Quote {
	if bid < 0 {
		bid = 0
	}
	if ask < 0 {
		ask = 0
	}
	return Quote{Bid: bid, Ask: ask}
}

// BidPrice returns the bid and whether the exchange quoted it.
func (q Quote) BidPrice() (float64, bool) {
	return q.Bid, q.Bid > 0
}

// AskPrice returns the ask and whether the exchange quoted it.
func (q Quote) AskPrice() (float64, bool) {
	return q.Ask, q.Ask > 0
}

// Quoted reports whether both sides are present.
func (q Quote) Quoted() bool {
	return q.Bid > 0 && q.Ask > 0
}

// MidPrice returns (bid+ask)/2, or 0 unless both sides are strictly positive.
func (q Quote) MidPrice() float64 {
	if !q.Quoted() {
		return 0
	}
	return (q.Bid + q.Ask) / 2
}

// Spread returns ask-bid, or 0 when either side is missing.
func (q Quote) Spread() float64 {
	if !q.Quoted() {
		return 0
	}
	return q.Ask - q.Bid
}
