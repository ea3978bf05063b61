package tracker

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"testing"
	"time"
)

func TestNextRetryDelay(t *testing.T) {
	tests := []struct {
		attempt  int
		minDelay time.Duration
		maxDelay time.Duration
	}{
		{0, 200 * time.Millisecond, 300 * time.Millisecond},
		{1, 800 * time.Millisecond, 1200 * time.Millisecond},
		{2, 2400 * time.Millisecond, 3600 * time.Millisecond},
		{10, 2400 * time.Millisecond, 3600 * time.Millisecond}, // beyond max stays at last
		{-1, 200 * time.Millisecond, 300 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			for i := 0; i < 10; i++ {
				delay := NextRetryDelay(tt.attempt)
				if delay < tt.minDelay || delay > tt.maxDelay {
					t.Errorf("NextRetryDelay(%d) = %v, want between %v and %v",
						tt.attempt, delay, tt.minDelay, tt.maxDelay)
				}
			}
		})
	}
}

func TestIsRetryableStatus(t *testing.T) {
	tests := []struct {
		method string
		status int
		want   bool
	}{
		{http.MethodGet, http.StatusOK, false},
		{http.MethodGet, http.StatusBadRequest, false},
		{http.MethodGet, http.StatusUnauthorized, false},
		{http.MethodGet, http.StatusNotFound, false},
		{http.MethodGet, http.StatusUnprocessableEntity, false},
		{http.MethodGet, http.StatusTooManyRequests, true},
		{http.MethodGet, http.StatusInternalServerError, true},
		{http.MethodGet, http.StatusBadGateway, true},
		{http.MethodGet, http.StatusServiceUnavailable, true},
		{http.MethodPost, http.StatusTooManyRequests, true},
		{http.MethodPost, http.StatusInternalServerError, false},
		{http.MethodPost, http.StatusBadGateway, false},
		{http.MethodPost, http.StatusGatewayTimeout, false},
	}

	for _, tt := range tests {
		if got := IsRetryableStatus(tt.method, tt.status); got != tt.want {
			t.Errorf("IsRetryableStatus(%s, %d) = %v, want %v", tt.method, tt.status, got, tt.want)
		}
	}
}

func TestIsRetryableTransport(t *testing.T) {
	dialErr := &url.Error{Op: "Post", URL: "https://api.github.com", Err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}}
	readErr := &url.Error{Op: "Post", URL: "https://api.github.com", Err: &net.OpError{Op: "read", Net: "tcp", Err: errors.New("connection reset")}}

	tests := []struct {
		name   string
		method string
		err    error
		want   bool
	}{
		{"get dial failure", http.MethodGet, dialErr, true},
		{"get read failure", http.MethodGet, readErr, true},
		{"get timeout", http.MethodGet, context.DeadlineExceeded, true},
		{"post dial failure", http.MethodPost, dialErr, true},
		{"post read failure", http.MethodPost, readErr, false},
		{"post timeout", http.MethodPost, context.DeadlineExceeded, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryableTransport(tt.method, tt.err); got != tt.want {
				t.Errorf("isRetryableTransport(%s, %v) = %v, want %v", tt.method, tt.err, got, tt.want)
			}
		})
	}
}
