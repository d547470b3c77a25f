package main

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"github.com/coachpo/cryptoarb/internal/domain/market"
	"github.com/coachpo/cryptoarb/internal/domain/quotestore"
	"github.com/coachpo/cryptoarb/internal/infra/adapters/exchange"
	"github.com/coachpo/cryptoarb/internal/observability"
)

// balanceLister is implemented by adapters that expose their full balance
// table, which is persisted alongside the report.
type balanceLister interface {
	Balances() []market.Balance
}

type poller struct {
	adapters []exchange.Adapter
	// store is nil when persistence is disabled.
	store   quotestore.Store
	report  *report
	logger  observability.Logger
	symbol  string
	verbose bool
	exit    func(int)
	now     func() time.Time
}

type pollResult struct {
	index    int
	exchange string
	quote    market.Quote
	at       time.Time
	err      error
}

// reportBalances refreshes every adapter in catalog order and writes the
// Current Balance section.
func (p *poller) reportBalances(ctx context.Context) {
	runID := uuid.NewString()
	coins := market.DefaultCoins()
	p.report.balancesHeader()
	for _, adapter := range p.adapters {
		identity := adapter.Identity()
		if err := adapter.RefreshBalances(ctx); err != nil {
			if p.halt(err) {
				return
			}
			p.report.balanceError(identity, err)
			p.logger.Error("balance refresh failed",
				observability.F("exchange", identity.Name),
				observability.F("error", err))
			continue
		}
		p.report.balances(identity, coins, adapter.Balance)
		p.persistBalances(ctx, runID, identity.Name, adapter)
	}
}

// run polls every interval until maxIterations is reached. Zero iterations
// polls until ctx is cancelled.
func (p *poller) run(ctx context.Context, maxIterations uint, interval time.Duration) error {
	for i := uint(0); maxIterations == 0 || i < maxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.pollOnce(ctx)
		if maxIterations != 0 && i+1 == maxIterations {
			break
		}
		if interval <= 0 {
			continue
		}
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return nil
}

// pollOnce fetches a quote from every adapter concurrently and then reports
// and persists the results in adapter order under a fresh run id.
func (p *poller) pollOnce(ctx context.Context) {
	runID := uuid.NewString()
	workers := pool.NewWithResults[pollResult]().WithContext(ctx)
	for i, adapter := range p.adapters {
		workers.Go(func(ctx context.Context) (pollResult, error) {
			q, err := adapter.Quote(ctx, p.symbol)
			return pollResult{
				index:    i,
				exchange: adapter.Identity().Name,
				quote:    q,
				at:       p.now().UTC(),
				err:      err,
			}, nil
		})
	}
	results, _ := workers.Wait()
	sort.Slice(results, func(a, b int) bool { return results[a].index < results[b].index })

	for _, res := range results {
		if res.err != nil {
			if p.halt(res.err) {
				return
			}
			p.report.quoteError(res.exchange, res.err)
			p.logger.Error("quote failed",
				observability.F("exchange", res.exchange),
				observability.F("run_id", runID),
				observability.F("error", res.err))
			continue
		}
		if p.verbose {
			p.report.quote(res.exchange, res.quote)
		}
		if p.store == nil {
			continue
		}
		if err := p.store.InsertQuote(ctx, quotestore.QuoteRecord{
			RunID:      runID,
			Exchange:   res.exchange,
			ObservedAt: res.at,
			Bid:        res.quote.Bid,
			Ask:        res.quote.Ask,
		}); err != nil {
			p.logger.Error("persist quote failed",
				observability.F("exchange", res.exchange),
				observability.F("run_id", runID),
				observability.F("error", err))
		}
	}
}

func (p *poller) persistBalances(ctx context.Context, runID, exchangeName string, adapter exchange.Adapter) {
	lister, ok := adapter.(balanceLister)
	if p.store == nil || !ok {
		return
	}
	entries := lister.Balances()
	if len(entries) == 0 {
		return
	}
	observed := p.now().UTC()
	records := make([]quotestore.BalanceRecord, 0, len(entries))
	for _, b := range entries {
		records = append(records, quotestore.BalanceRecord{
			RunID:      runID,
			Exchange:   exchangeName,
			Asset:      b.Asset,
			Free:       b.Free,
			Locked:     b.Locked,
			ObservedAt: observed,
		})
	}
	if err := p.store.InsertBalances(ctx, records); err != nil {
		p.logger.Error("persist balances failed",
			observability.F("exchange", exchangeName),
			observability.F("error", err))
	}
}

func (p *poller) halt(err error) bool {
	return exchange.HaltOnContractViolation(p.logger, err, p.exit)
}
