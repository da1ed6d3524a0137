package telemetry

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable marks transient failures: network errors, non-200
	// responses, oversized bodies.
	ErrUnavailable = errors.New("telemetry source unavailable")

	// ErrMalformed marks responses that violate the endpoint contract.
	ErrMalformed = errors.New("malformed telemetry response")
)

// Error kinds used as log and metric labels.
const (
	KindUnavailable = "unavailable"
	KindMalformed   = "malformed"
	KindTimeout     = "timeout"
	KindCanceled    = "canceled"
	KindUnknown     = "unknown"
)

// Classify maps an error returned by a Source to its kind.
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.Is(err, ErrMalformed):
		return KindMalformed
	case errors.Is(err, ErrUnavailable):
		return KindUnavailable
	default:
		return KindUnknown
	}
}

// Retryable reports whether a later attempt could succeed without the
// endpoint changing its contract.
func Retryable(err error) bool {
	return Classify(err) != KindMalformed
}
