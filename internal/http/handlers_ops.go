package http

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewHTMXResponse().
		BodyJSON(map[string]interface{}{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"uptime":    time.Since(s.appMetrics.uptime).Round(time.Second).String(),
		}).
		Write(w)
}

// handleReady reports ready once startup has finished, templates are loaded
// and every configured dependency answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]string)

	fail := func(name, reason string) {
		checks[name] = reason
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	}

	if s.templates == nil {
		fail("templates", "failed: templates not loaded")
	} else {
		checks["templates"] = "ok"
	}

	if s.tracker.Ready() {
		checks["ledger"] = "ok"
	} else {
		fail("ledger", "starting")
	}

	names := make([]string, 0, len(s.readyChecks))
	for name := range s.readyChecks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := s.readyChecks[name](ctx); err != nil {
			fail(name, fmt.Sprintf("failed: %v", err))
			continue
		}
		checks[name] = "ok"
	}

	NewHTMXResponse().
		Status(httpStatus).
		BodyJSON(map[string]interface{}{
			"status":    status,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"checks":    checks,
		}).
		Write(w)
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	traceMetrics := s.traceMiddleware.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	securityMetrics := s.securityDetector.GetMetrics()
	stats := s.tracker.Stats()

	w.WriteHeader(http.StatusOK)

	metric := func(name, help, kind string, value interface{}) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
		fmt.Fprintf(w, "%s %v\n\n", name, value)
	}

	metric("http_requests_total", "Total number of HTTP requests", "counter", traceMetrics.TotalRequests)
	metric("http_server_errors_total", "HTTP responses with a 5xx status", "counter", traceMetrics.ServerErrors)
	metric("http_response_time_avg_microseconds", "Average response time", "gauge", traceMetrics.AverageResponseTime)
	metric("ledger_transactions", "Transactions currently in the ledger", "gauge", stats.Transactions)
	metric("transactions_created_total", "Transactions recorded through HTTP", "counter", s.appMetrics.created.Load())
	metric("transactions_removed_total", "Transactions deleted through HTTP", "counter", s.appMetrics.removed.Load())
	metric("transactions_rejected_total", "Submissions rejected by validation", "counter", s.appMetrics.invalid.Load())
	metric("ledger_flush_failures_total", "Failed ledger writes to the blob store", "counter", stats.FlushFailures)
	metric("exchange_rates", "Currencies in the current rate table", "gauge", stats.Currencies)

	if s.cacheStats != nil {
		cs := s.cacheStats()
		metric("rate_cache_hits_total", "Rate cache hits", "counter", cs.Hits)
		metric("rate_cache_misses_total", "Rate cache misses", "counter", cs.Misses)
		metric("rate_cache_entries", "Rate cache entries", "gauge", cs.Size)
	}

	metric("rate_limit_hits_total", "Total rate limit hits", "counter", rateLimitMetrics.TotalHits)
	metric("active_rate_limit_clients", "Currently tracked rate limit clients", "gauge", rateLimitMetrics.ClientCount)
	metric("suspicious_requests_total", "Total suspicious requests detected", "counter", securityMetrics.SuspiciousRequests)
	metric("uptime_seconds", "Application uptime in seconds", "gauge", int64(time.Since(s.appMetrics.uptime).Seconds()))
}
