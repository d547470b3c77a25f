package shared

import (
	"bytes"

	json "github.com/goccy/go-json"

	"github.com/coachpo/cryptoarb/internal/domain/market"
)

// amount accepts the string-encoded numbers exchanges send, plain numbers and
// null. Anything it cannot read is treated as absent.
type amount string

func (a *amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = amount(s)
		return nil
	}
	*a = amount(data)
	return nil
}

func (a amount) float() float64 {
	return market.ParseAmount(string(a))
}

type bookTickerResponse struct {
	Symbol   string `json:"symbol"`
	BidPrice amount `json:"bidPrice"`
	AskPrice amount `json:"askPrice"`
}

type accountInfoResponse struct {
	Balances []accountBalance `json:"balances"`
}

type accountBalance struct {
	Asset  string `json:"asset"`
	Free   amount `json:"free"`
	Locked amount `json:"locked"`
}

func decodeQuote(raw []byte) (market.Quote, error) {
	var payload bookTickerResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return market.Quote{}, err
	}
	return market.NewQuote(payload.BidPrice.float(), payload.AskPrice.float()), nil
}

func decodeBalances(raw []byte) ([]market.Balance, error) {
	var payload accountInfoResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	out := make([]market.Balance, 0, len(payload.Balances))
	for _, entry := range payload.Balances {
		out = append(out, market.Balance{
			Asset:  entry.Asset,
			Free:   entry.Free.float(),
			Locked: entry.Locked.float(),
		})
	}
	return out, nil
}
