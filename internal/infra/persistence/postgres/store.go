package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coachpo/cryptoarb/internal/infra/persistence"
)

// Store exposes PostgreSQL-backed repositories.
type Store struct {
	*persistence.Store
}

// New constructs a PostgreSQL persistence store.
func New(pool *pgxpool.Pool) *Store {
	return &Store{Store: persistence.NewStore(pool)}
}

// Quotes returns the quote repository sharing the store's pool.
func (s *Store) Quotes() *QuoteStore {
	return NewQuoteStore(s.Pool())
}
