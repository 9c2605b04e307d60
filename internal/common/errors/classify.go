// internal/common/errors/classify.go
package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// FromHTTPStatus normalizes a non-2xx provider response into the taxonomy.
// 429 and 5xx are transient; every other status is a rejection.
func FromHTTPStatus(provider string, status int, body string) *StandardError {
	switch {
	case status == 429:
		return NewRateLimitedError(provider)
	case status >= 500:
		return NewProviderUnavailableError(provider, fmt.Sprintf("status %d: %s", status, body))
	default:
		return NewProviderRejectedError(provider, status, body)
	}
}

// ClassifyProviderError normalizes an arbitrary error from a provider call
// into the taxonomy. StandardErrors pass through untouched; timeouts and
// transport failures become the transient provider codes.
func ClassifyProviderError(provider string, timeout time.Duration, err error) *StandardError {
	if err == nil {
		return nil
	}
	if se, ok := AsStandardError(err); ok {
		return se
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewProviderTimeoutError(provider, timeout)
	}
	var ne net.Error
	if errors.As(err, &ne) {
		if ne.Timeout() {
			return NewProviderTimeoutError(provider, timeout)
		}
		return NewProviderUnavailableError(provider, err.Error())
	}
	// Unrecognized transport failures are treated as transient so the
	// retry path, not the caller, decides when to give up.
	return NewProviderUnavailableError(provider, err.Error())
}
