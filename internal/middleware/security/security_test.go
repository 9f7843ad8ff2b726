package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDetectSuspiciousRequest(t *testing.T) {
	tests := []struct {
		name   string
		target string
		method string
		agent  string
		want   bool
	}{
		{name: "bills page", target: "/employee/bills", method: http.MethodGet, want: false},
		{name: "path traversal", target: "/files/../etc/passwd", method: http.MethodGet, want: true},
		{name: "dotenv scan", target: "/.env", method: http.MethodGet, want: true},
		{name: "script in query", target: "/ui/proof?url=javascript:alert(1)", method: http.MethodGet, want: true},
		{name: "scanner agent", target: "/", method: http.MethodGet, agent: "sqlmap/1.7", want: true},
		{name: "trace method", target: "/", method: "TRACE", want: true},
	}

	d := NewDetector()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, "http://example.com/", nil)
			r.URL.Path = strings.SplitN(tt.target, "?", 2)[0]
			if i := strings.Index(tt.target, "?"); i >= 0 {
				r.URL.RawQuery = tt.target[i+1:]
			}
			if tt.agent != "" {
				r.Header.Set("User-Agent", tt.agent)
			}
			if got := d.DetectSuspiciousRequest(r); got != tt.want {
				t.Errorf("DetectSuspiciousRequest(%s) = %v, want %v", tt.target, got, tt.want)
			}
		})
	}
	if d.SuspiciousRequests() != 5 {
		t.Fatalf("expected 5 flagged requests, got %d", d.SuspiciousRequests())
	}
}

func TestExtractClientIP(t *testing.T) {
	d := NewDetector()
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		want       string
	}{
		{name: "direct client", remoteAddr: "203.0.113.9:5555", want: "203.0.113.9"},
		{name: "untrusted forwarder ignored", remoteAddr: "203.0.113.9:5555", xff: "198.51.100.1", want: "203.0.113.9"},
		{name: "trusted proxy", remoteAddr: "10.0.0.2:80", xff: "198.51.100.1, 10.0.0.2", want: "198.51.100.1"},
		{name: "trusted proxy bad header", remoteAddr: "10.0.0.2:80", xff: "nonsense", want: "10.0.0.2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := d.ExtractClientIP(r); got != tt.want {
				t.Errorf("ExtractClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHeadersMiddleware(t *testing.T) {
	cfg := DefaultHeadersConfig()
	cfg.ImageSources = []string{"https://bills.example-cdn.com"}
	h := NewHeadersMiddleware(cfg).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Fatal("expected X-Frame-Options DENY")
	}
	csp := rec.Header().Get("Content-Security-Policy")
	if !strings.Contains(csp, "img-src 'self' data: https://bills.example-cdn.com;") {
		t.Fatalf("image source missing from CSP: %q", csp)
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Fatal("HSTS must not be sent over plain HTTP")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.TLS = &tls.ConnectionState{}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Strict-Transport-Security"); got != "max-age=31536000; includeSubDomains" {
		t.Fatalf("unexpected HSTS header %q", got)
	}
}
