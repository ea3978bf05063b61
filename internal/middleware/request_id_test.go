package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestRequestID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		headers map[string]string
		want    string // empty means a generated UUID
	}{
		{"caller supplied", map[string]string{RequestIDHeader: "req-123"}, "req-123"},
		{"github delivery", map[string]string{DeliveryIDHeader: "72d3162e-cc78-11e3-81ab-4c9367dc0958"}, "72d3162e-cc78-11e3-81ab-4c9367dc0958"},
		{"request id wins over delivery", map[string]string{RequestIDHeader: "req-1", DeliveryIDHeader: "d-1"}, "req-1"},
		{"generated", nil, ""},
		{"control characters rejected", map[string]string{RequestIDHeader: "bad\tid"}, ""},
		{"oversized rejected", map[string]string{RequestIDHeader: strings.Repeat("a", maxRequestIDLength+1)}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var seen string
			h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = GetRequestID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if got := rec.Header().Get(RequestIDHeader); got != seen {
				t.Errorf("response header %q != context value %q", got, seen)
			}
			if tt.want != "" {
				if seen != tt.want {
					t.Errorf("request id = %q, want %q", seen, tt.want)
				}
				return
			}
			if _, err := uuid.Parse(seen); err != nil {
				t.Errorf("request id %q is not a UUID: %v", seen, err)
			}
		})
	}
}

func TestRequestID_TraceID(t *testing.T) {
	t.Parallel()

	var trace string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		trace = GetTraceID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TraceIDHeader, "trace-9")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if trace != "trace-9" || rec.Header().Get(TraceIDHeader) != "trace-9" {
		t.Errorf("trace = %q, header = %q", trace, rec.Header().Get(TraceIDHeader))
	}
}
