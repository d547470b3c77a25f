// Package quotestore defines persistence contracts for observed quotes and
// balance snapshots.
package quotestore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no record matches a query.
var ErrNotFound = errors.New("quotestore: not found")

// QuoteRecord is one bid/ask observation.
type QuoteRecord struct {
	RunID      string
	Exchange   string
	ObservedAt time.Time
	Bid        float64
	Ask        float64
}

// BalanceRecord is one asset line from an account snapshot.
type BalanceRecord struct {
	RunID      string
	Exchange   string
	Asset      string
	Free       float64
	Locked     float64
	ObservedAt time.Time
}

// Store persists observations.
type Store interface {
	InsertQuote(ctx context.Context, record QuoteRecord) error
	LatestQuote(ctx context.Context, exchange string) (QuoteRecord, error)
	InsertBalances(ctx context.Context, records []BalanceRecord) error
}
