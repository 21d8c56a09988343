package security

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultHTMXURL is where pages load htmx from unless configured otherwise.
const DefaultHTMXURL = "https://unpkg.com/htmx.org@1.9.12"

// ContentPolicy describes what a page may load. It renders to a
// Content-Security-Policy value with every other fetch directive locked to 'self'.
type ContentPolicy struct {
	// ScriptOrigins lists external hosts scripts may come from.
	ScriptOrigins []string
	// InlineStyles allows style attributes, used for the category bars.
	InlineStyles bool
}

func (p ContentPolicy) String() string {
	script := append([]string{"'self'"}, p.ScriptOrigins...)
	style := []string{"'self'"}
	if p.InlineStyles {
		style = append(style, "'unsafe-inline'")
	}
	directives := []string{
		"default-src 'self'",
		"script-src " + strings.Join(script, " "),
		"style-src " + strings.Join(style, " "),
		"img-src 'self' data:",
		"connect-src 'self'",
		"object-src 'none'",
		"frame-ancestors 'none'",
		"base-uri 'self'",
		"form-action 'self'",
	}
	return strings.Join(directives, "; ")
}

// ScriptOrigin returns the origin a script URL must be allowed under. Relative
// URLs are served by the app itself and need no extra source.
func ScriptOrigin(scriptURL string) (string, error) {
	u, err := url.Parse(scriptURL)
	if err != nil {
		return "", fmt.Errorf("parse script url: %w", err)
	}
	if u.Host == "" {
		return "", nil
	}
	if u.Scheme != "https" {
		return "", fmt.Errorf("script url %q: must use https", scriptURL)
	}
	return u.Scheme + "://" + u.Host, nil
}

// HeadersConfig holds the header values one group of routes sends.
type HeadersConfig struct {
	CSP string

	// HSTS is sent only on TLS connections; zero disables it.
	HSTSMaxAge time.Duration

	FrameOptions      string
	ReferrerPolicy    string
	PermissionsPolicy string
	OpenerPolicy      string
	EmbedderPolicy    string
	ResourcePolicy    string
}

// PageHeadersConfig returns the policy for HTML pages loading htmx from htmxURL.
// An unusable URL falls back to DefaultHTMXURL.
func PageHeadersConfig(htmxURL string) HeadersConfig {
	origin, err := ScriptOrigin(htmxURL)
	if err != nil {
		origin, _ = ScriptOrigin(DefaultHTMXURL)
	}
	policy := ContentPolicy{InlineStyles: true}
	if origin != "" {
		policy.ScriptOrigins = []string{origin}
	}
	return HeadersConfig{
		CSP:               policy.String(),
		HSTSMaxAge:        365 * 24 * time.Hour,
		FrameOptions:      "DENY",
		ReferrerPolicy:    "strict-origin-when-cross-origin",
		PermissionsPolicy: "geolocation=(), microphone=(), camera=(), payment=()",
		OpenerPolicy:      "same-origin",
		// credentialless lets the cross-origin htmx script load without CORP headers.
		EmbedderPolicy: "credentialless",
		ResourcePolicy: "same-origin",
	}
}

// APIHeadersConfig is the policy for JSON endpoints, which never render a document.
func APIHeadersConfig() HeadersConfig {
	return HeadersConfig{
		CSP:            "default-src 'none'; frame-ancestors 'none'",
		HSTSMaxAge:     365 * 24 * time.Hour,
		FrameOptions:   "DENY",
		ReferrerPolicy: "no-referrer",
		ResourcePolicy: "same-origin",
	}
}

// HeadersMiddleware applies a fixed set of security headers to responses.
type HeadersMiddleware struct {
	static [][2]string
	hsts   string
}

// NewHeadersMiddleware renders cfg once; empty values are not sent.
func NewHeadersMiddleware(cfg HeadersConfig) *HeadersMiddleware {
	h := &HeadersMiddleware{}
	for _, kv := range [][2]string{
		{"X-Content-Type-Options", "nosniff"},
		{"X-Frame-Options", cfg.FrameOptions},
		{"Content-Security-Policy", cfg.CSP},
		{"Referrer-Policy", cfg.ReferrerPolicy},
		{"Permissions-Policy", cfg.PermissionsPolicy},
		{"Cross-Origin-Opener-Policy", cfg.OpenerPolicy},
		{"Cross-Origin-Embedder-Policy", cfg.EmbedderPolicy},
		{"Cross-Origin-Resource-Policy", cfg.ResourcePolicy},
	} {
		if kv[1] != "" {
			h.static = append(h.static, kv)
		}
	}
	if secs := int64(cfg.HSTSMaxAge / time.Second); secs > 0 {
		h.hsts = fmt.Sprintf("max-age=%d; includeSubDomains; preload", secs)
	}
	return h
}

func (h *HeadersMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers := w.Header()
		for _, kv := range h.static {
			headers.Set(kv[0], kv[1])
		}
		if r.TLS != nil && h.hsts != "" {
			headers.Set("Strict-Transport-Security", h.hsts)
		}
		next.ServeHTTP(w, r)
	})
}

// StaticAssetMiddleware marks embedded assets cacheable for maxAge seconds.
func StaticAssetMiddleware(maxAge int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxAge > 0 {
				w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d, immutable", maxAge))
			}
			next.ServeHTTP(w, r)
		})
	}
}
