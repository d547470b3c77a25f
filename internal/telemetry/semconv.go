package telemetry

import "go.opentelemetry.io/otel/attribute"

// Attribute keys shared by cryptoarb instruments.
const (
	// AttrEnvironment specifies the deployment environment for every metric.
	AttrEnvironment = attribute.Key("environment")
	// AttrExchange identifies the adapter that issued the call.
	AttrExchange = attribute.Key("exchange")
	// AttrHost is the REST host a request targeted.
	AttrHost = attribute.Key("http.host")
	// AttrMethod is the HTTP method.
	AttrMethod = attribute.Key("http.method")
	// AttrOperation differentiates adapter operations (quote, balances, auth_request).
	AttrOperation = attribute.Key("operation")
	// AttrResult records the outcome of an attempt or operation.
	AttrResult = attribute.Key("result")
	// AttrFailure classifies why an attempt was retried.
	AttrFailure = attribute.Key("failure")
)

// Result values.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Failure classes for retried attempts.
const (
	FailureTransport = "transport"
	FailureDecode    = "decode"
)

// RequestAttributes returns attributes for REST attempt metrics.
func RequestAttributes(environment, host, method, result string) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrEnvironment.String(environment),
		AttrHost.String(host),
		AttrMethod.String(method),
		AttrResult.String(result),
	}
}

// OperationAttributes returns attributes for adapter operation metrics.
func OperationAttributes(environment, exchange, operation, result string) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrEnvironment.String(environment),
		AttrExchange.String(exchange),
		AttrOperation.String(operation),
		AttrResult.String(result),
	}
}
