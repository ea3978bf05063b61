package tracker

import (
	"errors"
	"math/rand"
	"net"
	"net/http"
	"time"
)

// Retry delays for transient tracker failures.
// Attempt 1: 250ms, Attempt 2: 1s, Attempt 3: 3s
var retryDelays = []time.Duration{
	250 * time.Millisecond,
	1 * time.Second,
	3 * time.Second,
}

const (
	// DefaultMaxAttempts counts the first try.
	DefaultMaxAttempts = 3

	// JitterFactor is the ±percentage of jitter applied to delays.
	JitterFactor = 0.2 // ±20%
)

// NextRetryDelay calculates next retry delay with backoff + jitter.
// attemptCount is 0-indexed (after first failed attempt, attemptCount = 0).
func NextRetryDelay(attemptCount int) time.Duration {
	if attemptCount < 0 {
		attemptCount = 0
	}
	if attemptCount >= len(retryDelays) {
		attemptCount = len(retryDelays) - 1
	}

	base := retryDelays[attemptCount]

	jitterRange := float64(base) * JitterFactor
	jitter := (rand.Float64()*2 - 1) * jitterRange

	return time.Duration(float64(base) + jitter)
}

// IsRetryableStatus reports whether a response status is worth retrying for
// method. A rate-limited request was never acted on; any other failure of a
// non-idempotent request may already have taken effect.
func IsRetryableStatus(method string, status int) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	return isIdempotent(method) && status >= 500
}

// isRetryableTransport reports whether a transport error is worth retrying
// for method. Non-idempotent requests are only replayed when the connection
// was never established.
func isRetryableTransport(method string, err error) bool {
	if isIdempotent(method) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

func isIdempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}
