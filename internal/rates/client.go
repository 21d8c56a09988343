// Package rates fetches currency conversion tables from a remote service.
package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

const (
	DefaultURL     = "https://api.exchangerate-api.com/v4/latest/USD"
	DefaultTimeout = 10 * time.Second
	DefaultTTL     = time.Hour

	maxBodyBytes = 1 << 20
)

var (
	ErrUnexpectedStatus = errors.New("unexpected status from rate service")
	ErrBaseMismatch     = errors.New("rate service base currency mismatch")
)

// response is the payload of the rate service, e.g.
// {"base":"USD","rates":{"EUR":0.92,"GBP":0.79}}.
type response struct {
	Base  string                 `json:"base"`
	Rates map[string]json.Number `json:"rates"`
}

type Option func(*Client)

// WithHTTPClient replaces the HTTP client. Its timeout is left untouched.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithBase sets the base currency responses must be quoted in.
func WithBase(code string) Option {
	return func(c *Client) { c.base = core.NormalizeCurrency(code) }
}

// WithCacheTTL sets how long a fetched table is reused.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) { c.cache = cache.NewLRUCache[core.RateTable](8, ttl) }
}

// Client fetches rate tables and caches them per URL.
type Client struct {
	url    string
	base   string
	http   *http.Client
	cache  *cache.LRUCache[core.RateTable]
	logger *log.Logger
}

func NewClient(url string, timeout time.Duration, logger *log.Logger, opts ...Option) *Client {
	if url == "" {
		url = DefaultURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = log.Discard()
	}
	c := &Client{
		url:    url,
		base:   core.BaseCurrency,
		http:   &http.Client{Timeout: timeout},
		cache:  cache.NewLRUCache[core.RateTable](8, DefaultTTL),
		logger: logger.WithComponent(log.ComponentRates),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Cache exposes the table cache so it can be registered for sweeping.
func (c *Client) Cache() *cache.LRUCache[core.RateTable] {
	return c.cache
}

// Fetch returns the current rate table, from cache when fresh.
func (c *Client) Fetch(ctx context.Context) (core.RateTable, error) {
	if table, ok := c.cache.Get(c.url); ok {
		return table, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build rates request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var payload response
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode rates: %w", err)
	}

	table, err := c.toTable(payload)
	if err != nil {
		return nil, err
	}

	c.cache.Set(c.url, table)
	c.logger.InfoContext(ctx, "Fetched exchange rates",
		log.FieldOperation, log.OpFetch,
		"currencies", len(table))
	return table, nil
}

func (c *Client) toTable(p response) (core.RateTable, error) {
	base := core.NormalizeCurrency(p.Base)
	if base == "" {
		base = c.base
	}
	if base != c.base {
		return nil, fmt.Errorf("%w: got %s, want %s", ErrBaseMismatch, base, c.base)
	}

	raw := make(map[string]decimal.Decimal, len(p.Rates))
	for code, n := range p.Rates {
		rate, err := decimal.NewFromString(n.String())
		if err != nil {
			c.logger.Warn("Skipping unparseable rate", log.FieldCurrency, code, log.FieldError, err)
			continue
		}
		raw[code] = rate
	}
	return core.NewRateTable(base, raw), nil
}

// FetchOrDefault returns the fetched table, or the base-only table when the
// service cannot be reached or returns garbage.
func (c *Client) FetchOrDefault(ctx context.Context) core.RateTable {
	table, err := c.Fetch(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "Exchange rates unavailable, using base currency only",
			log.FieldOperation, log.OpFetch,
			log.FieldError, err)
		return core.RateTable{c.base: decimal.NewFromInt(1)}
	}
	return table
}
