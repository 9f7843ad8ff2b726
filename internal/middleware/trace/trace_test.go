package trace

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	applog "billed/internal/log"
)

func TestMiddlewareAssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	var seen string
	h := NewMiddleware(logger, func(*http.Request) string { return "10.0.0.1" }).Middleware(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = applog.RequestID(r.Context())
			w.WriteHeader(http.StatusCreated)
		}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/employee/bills", nil))

	if !strings.HasPrefix(seen, "req_") {
		t.Fatalf("expected generated request id, got %q", seen)
	}
	if rec.Header().Get(HeaderRequestID) != seen {
		t.Fatalf("response header %q does not match context id %q", rec.Header().Get(HeaderRequestID), seen)
	}
	out := buf.String()
	if !strings.Contains(out, "HTTP request completed") || !strings.Contains(out, "status_code=201") {
		t.Fatalf("unexpected log output %q", out)
	}
}

func TestMiddlewareKeepsIncomingRequestID(t *testing.T) {
	h := NewMiddleware(nil, nil).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get(HeaderRequestID); got != "abc123" {
		t.Fatalf("expected incoming id to be kept, got %q", got)
	}
}

func TestGenerateRequestIDIsUnique(t *testing.T) {
	a, b := GenerateRequestID(), GenerateRequestID()
	if a == b {
		t.Fatalf("expected distinct ids, got %q twice", a)
	}
}
