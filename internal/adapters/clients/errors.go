// Package clients calls downstream HTTP services, such as the CRM account
// directory, with retries and a circuit breaker.
package clients

import "errors"

// Transport-level failures. Adapters translate them into domain errors.
var (
	// ErrCircuitOpen means the call was rejected without reaching the
	// service.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrMaxRetriesExceeded wraps the last error once every attempt failed.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)
