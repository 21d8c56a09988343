package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
	appweb "fintrack/web"
)

// Tracker is the application state the handlers read and mutate.
type Tracker interface {
	Ready() bool
	Snapshot() []core.Transaction
	Rates() core.RateTable
	SummaryIn(code string) core.Summary
	Convert(amount decimal.Decimal, code string) decimal.Decimal
	AddEntry(ctx context.Context, d core.Draft) (core.Transaction, error)
	AddQuickIncome(ctx context.Context, q core.QuickIncomeDraft) (core.Transaction, error)
	Remove(ctx context.Context, id string) (bool, error)
	Stats() services.Stats
}

// CheckFunc probes a dependency for the readiness endpoint.
type CheckFunc func(ctx context.Context) error

// Config configures the HTTP server.
type Config struct {
	Addr            string
	DisplayCurrency string
	// HTMXURL is the script pages load htmx from; the page CSP allows its origin.
	HTMXURL   string
	RateLimit ratelimit.Config
	Logger    *log.Logger
	// ReadyChecks are run by /readyz; any failure reports not ready.
	ReadyChecks map[string]CheckFunc
	// CacheStats feeds the rate cache counters of /metrics. Optional.
	CacheStats func() cache.Stats
}

type appMetrics struct {
	created atomic.Int64
	removed atomic.Int64
	invalid atomic.Int64
	uptime  time.Time
}

type Server struct {
	http.Server
	templates       *template.Template
	tracker         Tracker
	logger          *log.Logger
	displayCurrency string
	htmxURL         string
	readyChecks     map[string]CheckFunc
	cacheStats      func() cache.Stats

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	appMetrics       *appMetrics

	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run server.
func NewServer(cfg Config, tracker Tracker) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	display := core.NormalizeCurrency(cfg.DisplayCurrency)
	if !core.IsSupportedCurrency(display) {
		display = core.BaseCurrency
	}

	htmxURL := cfg.HTMXURL
	if htmxURL == "" {
		htmxURL = security.DefaultHTMXURL
	} else if _, err := security.ScriptOrigin(htmxURL); err != nil {
		logger.Warn("Ignoring htmx URL", log.FieldError, err)
		htmxURL = security.DefaultHTMXURL
	}

	detector := security.NewDetector(logger)
	s := &Server{
		Server: http.Server{
			Addr:              cfg.Addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		tracker:          tracker,
		logger:           logger,
		displayCurrency:  display,
		htmxURL:          htmxURL,
		readyChecks:      cfg.ReadyChecks,
		cacheStats:       cfg.CacheStats,
		rateLimiter:      ratelimit.NewLimiter(cfg.RateLimit),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(logger, detector.ExtractClientIP),
		appMetrics:       &appMetrics{uptime: time.Now()},
	}

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", log.FieldError, err)
	} else {
		s.templates = t
	}

	mux := http.NewServeMux()

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	pages := security.NewHeadersMiddleware(security.PageHeadersConfig(htmxURL)).Middleware
	api := security.NewHeadersMiddleware(security.APIHeadersConfig()).Middleware

	mux.Handle("/{$}", pages(http.HandlerFunc(s.handleIndex)))
	mux.Handle("/ui/summary", pages(http.HandlerFunc(s.handleSummaryPartial)))
	mux.Handle("/transactions", pages(http.HandlerFunc(s.handleCreateTransaction)))
	mux.Handle("/transactions/quick-income", pages(http.HandlerFunc(s.handleQuickIncome)))
	mux.Handle("/transactions/delete", pages(http.HandlerFunc(s.handleDeleteTransaction)))

	mux.Handle("/api/summary", api(http.HandlerFunc(s.handleAPISummary)))
	mux.Handle("/api/transactions", api(http.HandlerFunc(s.handleAPITransactions)))
	mux.Handle("/api/rates", api(http.HandlerFunc(s.handleAPIRates)))

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	limited := s.rateLimiter.Middleware(detector.ExtractClientIP, s.onRateLimit)(mux)
	var handler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only mutations are limited; reads stay cheap.
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			mux.ServeHTTP(w, r)
			return
		}
		limited.ServeHTTP(w, r)
	})
	handler = detector.Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Handler = handler
	return s
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.", wantsJSON(r, nil)).
		TriggerErrorNotification("Too many requests, slow down").
		Write(w)
}

// Shutdown stops background goroutines and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// displayCurrencyFor resolves the ?currency= selector, falling back to the
// configured default for missing, malformed or unsupported codes.
func (s *Server) displayCurrencyFor(r *http.Request) string {
	raw := r.URL.Query().Get("currency")
	code, ok := resolveCurrency(raw, s.displayCurrency)
	if !ok {
		s.logger.DebugContext(r.Context(), "Ignoring display currency",
			log.FieldCurrency, raw,
			log.FieldPath, r.URL.Path)
	}
	return code
}
