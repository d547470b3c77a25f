package shared

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/coachpo/cryptoarb/internal/telemetry"
)

type venueMetrics struct {
	environment string
	exchange    string

	operations     metric.Int64Counter
	operationTime  metric.Float64Histogram
	balanceEntries metric.Int64UpDownCounter
}

func newVenueMetrics(exchange string) *venueMetrics {
	meter := otel.Meter("adapter." + exchange)
	vm := &venueMetrics{
		environment:    telemetry.Environment(),
		exchange:       exchange,
		operations:     nil,
		operationTime:  nil,
		balanceEntries: nil,
	}
	vm.operations, _ = meter.Int64Counter("cryptoarb_adapter_operations",
		metric.WithDescription("Adapter operations by exchange and outcome"),
		metric.WithUnit("{operation}"))
	vm.operationTime, _ = meter.Float64Histogram("cryptoarb_adapter_operation_duration",
		metric.WithDescription("End to end adapter operation latency including retries"),
		metric.WithUnit("ms"))
	vm.balanceEntries, _ = meter.Int64UpDownCounter("cryptoarb_adapter_balance_entries",
		metric.WithDescription("Balance entries accumulated by the adapter"),
		metric.WithUnit("{entry}"))
	return vm
}

func (vm *venueMetrics) record(ctx context.Context, operation string, started time.Time, err error) {
	if vm == nil {
		return
	}
	result := telemetry.ResultSuccess
	if err != nil {
		result = telemetry.ResultError
	}
	attrs := metric.WithAttributes(telemetry.OperationAttributes(vm.environment, vm.exchange, operation, result)...)
	if vm.operations != nil {
		vm.operations.Add(ctx, 1, attrs)
	}
	if vm.operationTime != nil {
		vm.operationTime.Record(ctx, float64(time.Since(started).Microseconds())/1000, attrs)
	}
}

func (vm *venueMetrics) addBalances(ctx context.Context, n int) {
	if vm == nil || vm.balanceEntries == nil || n == 0 {
		return
	}
	vm.balanceEntries.Add(ctx, int64(n), metric.WithAttributes(
		telemetry.AttrEnvironment.String(vm.environment),
		telemetry.AttrExchange.String(vm.exchange),
	))
}
