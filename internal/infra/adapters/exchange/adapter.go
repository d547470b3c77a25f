// Package exchange defines the capability set every exchange adapter offers.
package exchange

import (
	"context"

	json "github.com/goccy/go-json"

	"github.com/coachpo/cryptoarb/errs"
	"github.com/coachpo/cryptoarb/internal/domain/market"
	"github.com/coachpo/cryptoarb/internal/observability"
)

// Adapter is implemented once per exchange.
type Adapter interface {
	// Identity returns the exchange name and whether it is fully supported.
	Identity() market.Identity
	// Balance returns the free amount of currency from the last refresh, or
	// market.UnknownBalance when the exchange reported no such asset.
	Balance(currency string) float64
	// LookupBalance is the optional-returning form of Balance.
	LookupBalance(currency string) (market.Balance, bool)
	// Quote fetches the best bid and ask for pair. Sides the exchange did not
	// report are zero.
	Quote(ctx context.Context, pair string) (market.Quote, error)
	// RefreshBalances fetches the account and appends every reported asset to
	// the accumulated balances.
	RefreshBalances(ctx context.Context) error
	// AuthRequest issues a signed GET or POST request.
	AuthRequest(ctx context.Context, method, path, options string) (json.RawMessage, error)
	// Signature signs payload with the adapter's secret.
	Signature(payload string) string
}

// ExitCodeContractViolation is the process status used when an adapter
// contract is violated.
const ExitCodeContractViolation = 1

// IsContractViolation reports whether err is a misuse of the adapter contract
// that must stop the process rather than be retried or ignored.
func IsContractViolation(err error) bool {
	return errs.HasCanonical(err, errs.CanonicalUnsupportedMethod)
}

// HaltOnContractViolation logs err and calls exit when it is a contract
// violation. It reports whether exit was called.
func HaltOnContractViolation(logger observability.Logger, err error, exit func(int)) bool {
	if err == nil || !IsContractViolation(err) {
		return false
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	logger.Error("adapter contract violation, terminating", observability.F("error", err))
	exit(ExitCodeContractViolation)
	return true
}
