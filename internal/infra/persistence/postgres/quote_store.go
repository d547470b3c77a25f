package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coachpo/cryptoarb/internal/domain/quotestore"
)

// QuoteStore persists quotes and balance snapshots.
type QuoteStore struct {
	pool *pgxpool.Pool
}

var _ quotestore.Store = (*QuoteStore)(nil)

// NewQuoteStore constructs a QuoteStore backed by the provided pool.
func NewQuoteStore(pool *pgxpool.Pool) *QuoteStore {
	return &QuoteStore{pool: pool}
}

const (
	quoteInsertSQL = `
INSERT INTO quotes (run_id, exchange, observed_at, bid, ask)
VALUES (@run_id, @exchange, @observed_at, @bid, @ask);
`

	quoteLatestSQL = `
SELECT run_id::text, exchange, observed_at, bid, ask
FROM quotes
WHERE exchange = @exchange
ORDER BY observed_at DESC, id DESC
LIMIT 1;
`

	balanceInsertSQL = `
INSERT INTO balance_snapshots (run_id, exchange, asset, free, locked, observed_at)
VALUES (@run_id, @exchange, @asset, @free, @locked, @observed_at);
`
)

func (s *QuoteStore) ensurePool() error {
	if s == nil || s.pool == nil {
		return errors.New("quote store: nil pool")
	}
	return nil
}

func parseRunID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, fmt.Errorf("run id %q: %w", raw, err)
	}
	return id, nil
}

func normalizeExchange(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// InsertQuote stores one observation.
func (s *QuoteStore) InsertQuote(ctx context.Context, record quotestore.QuoteRecord) error {
	if err := s.ensurePool(); err != nil {
		return err
	}
	runID, err := parseRunID(record.RunID)
	if err != nil {
		return err
	}
	exchange := normalizeExchange(record.Exchange)
	if exchange == "" {
		return errors.New("quote store: exchange required")
	}
	bid, err := numericFromFloat(record.Bid)
	if err != nil {
		return fmt.Errorf("bid: %w", err)
	}
	ask, err := numericFromFloat(record.Ask)
	if err != nil {
		return fmt.Errorf("ask: %w", err)
	}
	observedAt := record.ObservedAt
	if observedAt.IsZero() {
		observedAt = time.Now()
	}
	args := pgx.NamedArgs{
		"run_id":      runID,
		"exchange":    exchange,
		"observed_at": observedAt.UTC(),
		"bid":         bid,
		"ask":         ask,
	}
	if _, err := s.pool.Exec(ctx, quoteInsertSQL, args); err != nil {
		return fmt.Errorf("insert quote: %w", err)
	}
	return nil
}

// LatestQuote returns the most recent observation for exchange.
func (s *QuoteStore) LatestQuote(ctx context.Context, exchange string) (quotestore.QuoteRecord, error) {
	if err := s.ensurePool(); err != nil {
		return quotestore.QuoteRecord{}, err
	}
	var (
		record     quotestore.QuoteRecord
		observedAt time.Time
		bid, ask   pgtype.Numeric
	)
	row := s.pool.QueryRow(ctx, quoteLatestSQL, pgx.NamedArgs{"exchange": normalizeExchange(exchange)})
	if err := row.Scan(&record.RunID, &record.Exchange, &observedAt, &bid, &ask); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return quotestore.QuoteRecord{}, quotestore.ErrNotFound
		}
		return quotestore.QuoteRecord{}, fmt.Errorf("select latest quote: %w", err)
	}
	record.ObservedAt = observedAt.UTC()
	var err error
	if record.Bid, err = floatFromNumeric(bid); err != nil {
		return quotestore.QuoteRecord{}, err
	}
	if record.Ask, err = floatFromNumeric(ask); err != nil {
		return quotestore.QuoteRecord{}, err
	}
	return record, nil
}

// InsertBalances stores an account snapshot in one batch.
func (s *QuoteStore) InsertBalances(ctx context.Context, records []quotestore.BalanceRecord) error {
	if err := s.ensurePool(); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, record := range records {
		runID, err := parseRunID(record.RunID)
		if err != nil {
			return err
		}
		free, err := numericFromFloat(record.Free)
		if err != nil {
			return fmt.Errorf("free %s: %w", record.Asset, err)
		}
		locked, err := numericFromFloat(record.Locked)
		if err != nil {
			return fmt.Errorf("locked %s: %w", record.Asset, err)
		}
		observedAt := record.ObservedAt
		if observedAt.IsZero() {
			observedAt = time.Now()
		}
		batch.Queue(balanceInsertSQL, pgx.NamedArgs{
			"run_id":      runID,
			"exchange":    normalizeExchange(record.Exchange),
			"asset":       strings.TrimSpace(record.Asset),
			"free":        free,
			"locked":      locked,
			"observed_at": observedAt.UTC(),
		})
	}
	results := s.pool.SendBatch(ctx, batch)
	defer func() {
		_ = results.Close()
	}()
	for range records {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert balance snapshot: %w", err)
		}
	}
	return nil
}
