package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/coachpo/cryptoarb/internal/domain/market"
	"github.com/coachpo/cryptoarb/internal/infra/config"
)

const reportTimeLayout = "2006-01-02 15:04:05"

// report writes the human readable sections of the run log file.
type report struct {
	mu  sync.Mutex
	out io.Writer
}

func newReport(out io.Writer) *report {
	return &report{out: out}
}

func (r *report) printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = fmt.Fprintf(r.out, format, args...)
}

func (r *report) header(started time.Time) {
	r.printf("--------------------------\n")
	r.printf("|   CryptoArb Log File   |\n")
	r.printf("--------------------------\n")
	r.printf("CryptoArb started time: %s\n\n", started.Format(reportTimeLayout))
}

func (r *report) unsupportedPair() {
	r.printf("[ Information ]\n")
	r.printf("\t\tERROR: only support BTC / USD pair\n")
}

func (r *report) information(params config.Parameters) {
	r.printf("[ Information ]\n")
	r.printf("\t\ttrading pair: [ %s, %s ]\n", strings.ToUpper(params.Leg1), strings.ToUpper(params.Leg2))
	if params.DemoMode {
		r.printf("\tDemo mode: trades won't be generated\n")
	}
	r.printf("\n")
}

func (r *report) targets(params config.Parameters) {
	r.printf("[ Targets ]\n")
	r.printf("\tSpread Entry : %g%%\n", params.SpreadEntry*100.0)
	r.printf("\tSpread Target: %g%%\n\n", params.SpreadTarget*100.0)
	if params.SpreadEntry <= 0.0 {
		r.printf("\t\t WARNING: Spread Entry should be positive.\n")
	}
	if params.SpreadTarget <= 0.0 {
		r.printf("\t\t WARNING: Spread Target should be positive.\n")
	}
	r.printf("\n")
}

func (r *report) balancesHeader() {
	r.printf("[ Current Balance ]\n")
}

// balances writes one exchange block. Unimplemented exchanges and coins are
// listed without an amount.
func (r *report) balances(identity market.Identity, coins []market.Coin, balance func(string) float64) {
	r.printf("\t%s\n", identity.Name)
	for _, coin := range coins {
		if !identity.Implemented || !coin.Implemented {
			r.printf("\t\t%s: not implemented\n", coin.Symbol)
			continue
		}
		r.printf("\t\t%s: %g\n", coin.Symbol, balance(coin.Symbol))
	}
}

func (r *report) balanceError(identity market.Identity, err error) {
	r.printf("\t%s\n\t\tbalance unavailable: %v\n", identity.Name, err)
}

func (r *report) exposure(params config.Parameters) {
	r.printf("\n[ Exposure ]\n")
	if params.UseFullExposure {
		r.printf("\tFull exposure used\n")
	} else {
		r.printf("\tTest exposure: %g %s\n", params.TestedExposure, strings.ToUpper(params.Leg2))
	}
	r.printf("\tMax exposure : %g %s\n\n", params.MaxExposure, strings.ToUpper(params.Leg2))
}

func (r *report) quote(exchange string, q market.Quote) {
	r.printf("\t%s (bid/ask): %g / %g\n", exchange, q.Bid, q.Ask)
}

func (r *report) quoteError(exchange string, err error) {
	r.printf("\t%s quote unavailable: %v\n", exchange, err)
}
