package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestExtractClientIP(t *testing.T) {
	d := NewDetector(nil)

	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"direct public", "203.0.113.7:5555", nil, "203.0.113.7"},
		{"forwarded header ignored from untrusted peer", "203.0.113.7:5555",
			map[string]string{"X-Forwarded-For": "198.51.100.1"}, "203.0.113.7"},
		{"forwarded from trusted proxy", "127.0.0.1:80",
			map[string]string{"X-Forwarded-For": "198.51.100.1, 10.0.0.2"}, "198.51.100.1"},
		{"real ip from trusted proxy", "10.1.2.3:80",
			map[string]string{"X-Real-IP": "198.51.100.9"}, "198.51.100.9"},
		{"garbage forwarded value", "127.0.0.1:80",
			map[string]string{"X-Forwarded-For": "not-an-ip"}, "127.0.0.1"},
		{"no port", "192.0.2.4", nil, "192.0.2.4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := d.ExtractClientIP(r); got != tt.want {
				t.Errorf("ExtractClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAddTrustedProxy(t *testing.T) {
	d := NewDetector(nil)
	if err := d.AddTrustedProxy("nonsense"); err == nil {
		t.Error("expected error for invalid CIDR")
	}
	if err := d.AddTrustedProxy("203.0.113.0/24"); err != nil {
		t.Fatalf("AddTrustedProxy() error = %v", err)
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.7:443"
	r.Header.Set("X-Forwarded-For", "198.51.100.1")
	if got := d.ExtractClientIP(r); got != "198.51.100.1" {
		t.Errorf("ExtractClientIP() = %q, want forwarded address", got)
	}
}

func TestIsSuspicious(t *testing.T) {
	d := NewDetector(nil)

	tests := []struct {
		name   string
		method string
		target string
		agent  string
		want   bool
	}{
		{"index", http.MethodGet, "/", "Mozilla/5.0", false},
		{"summary", http.MethodGet, "/api/summary?currency=EUR", "Mozilla/5.0", false},
		{"path traversal", http.MethodGet, "/static/../../etc/passwd", "", true},
		{"dotenv scan", http.MethodGet, "/.env", "", true},
		{"scanner agent", http.MethodGet, "/", "sqlmap/1.7", true},
		{"trace method", "TRACE", "/", "", true},
		{"long url", http.MethodGet, "/?q=" + strings.Repeat("a", maxURLLength), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, tt.target, nil)
			r.Header.Set("User-Agent", tt.agent)
			if got := d.IsSuspicious(r); got != tt.want {
				t.Errorf("IsSuspicious() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetectorMiddleware_CountsButServes(t *testing.T) {
	d := NewDetector(nil)
	served := 0
	h := d.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		served++
	}))

	for _, target := range []string{"/", "/.git/config", "/wp-admin"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, target, nil))
	}

	if served != 3 {
		t.Errorf("served = %d, want 3", served)
	}
	if got := d.GetMetrics().SuspiciousRequests; got != 2 {
		t.Errorf("SuspiciousRequests = %d, want 2", got)
	}
}

func TestHeadersMiddleware(t *testing.T) {
	h := NewHeadersMiddleware(PageHeadersConfig(DefaultHTMXURL)).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
	if got := rec.Header().Get("Content-Security-Policy"); !strings.Contains(got, "https://unpkg.com") {
		t.Errorf("CSP should allow the htmx origin, got %q", got)
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS must not be sent over plain HTTP")
	}

	rec = httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.TLS = &tls.ConnectionState{}
	h.ServeHTTP(rec, r)
	if got := rec.Header().Get("Strict-Transport-Security"); got != "max-age=31536000; includeSubDomains; preload" {
		t.Errorf("Strict-Transport-Security = %q", got)
	}
}

func TestPageHeadersConfig_ScriptOrigin(t *testing.T) {
	tests := []struct {
		name    string
		htmxURL string
		want    string
		absent  string
	}{
		{"custom cdn", "https://cdn.example.net/htmx/1.9.12/htmx.min.js", "script-src 'self' https://cdn.example.net;", "unpkg"},
		{"self hosted", "/static/htmx.min.js", "script-src 'self';", "https://"},
		{"plain http falls back", "http://cdn.example.net/htmx.js", "script-src 'self' https://unpkg.com;", "cdn.example.net"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			csp := PageHeadersConfig(tt.htmxURL).CSP
			if !strings.Contains(csp, tt.want) {
				t.Errorf("CSP = %q, want %q", csp, tt.want)
			}
			if strings.Contains(csp, tt.absent) {
				t.Errorf("CSP = %q, must not contain %q", csp, tt.absent)
			}
			if !strings.Contains(csp, "style-src 'self' 'unsafe-inline'") {
				t.Errorf("CSP = %q, inline styles must be allowed", csp)
			}
		})
	}
}

func TestAPIHeadersConfig(t *testing.T) {
	h := NewHeadersMiddleware(APIHeadersConfig()).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/summary", nil))

	if got := rec.Header().Get("Content-Security-Policy"); got != "default-src 'none'; frame-ancestors 'none'" {
		t.Errorf("CSP = %q", got)
	}
	if got := rec.Header().Get("Referrer-Policy"); got != "no-referrer" {
		t.Errorf("Referrer-Policy = %q", got)
	}
	if _, ok := rec.Header()["Permissions-Policy"]; ok {
		t.Error("empty policies must not be sent")
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
}

func TestStaticAssetMiddleware(t *testing.T) {
	h := StaticAssetMiddleware(3600)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/app.css", nil))
	if got := rec.Header().Get("Cache-Control"); got != "public, max-age=3600, immutable" {
		t.Errorf("Cache-Control = %q", got)
	}
}
