package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
)

// ErrNotLoaded is returned by mutations issued before the persisted ledger
// has been loaded. Accepting them would flush a partial ledger over the
// stored one.
var ErrNotLoaded = errors.New("ledger not loaded yet")

// LedgerLoader reads the persisted ledger at startup.
type LedgerLoader interface {
	Load(ctx context.Context) ([]core.Transaction, bool)
}

// RateFetcher supplies the conversion table. It never fails; it degrades to
// the base-only table instead.
type RateFetcher interface {
	FetchOrDefault(ctx context.Context) core.RateTable
}

// EventPublisher announces ledger mutations to other processes.
type EventPublisher interface {
	PublishTransactionAdded(ctx context.Context, tx core.Transaction) error
	PublishTransactionRemoved(ctx context.Context, tx core.Transaction) error
}

// TrackerService owns the application state: the ledger store and the
// current rate table. Handlers reach state only through it.
type TrackerService struct {
	store     *ledger.Store
	loader    LedgerLoader
	rates     RateFetcher
	publisher EventPublisher
	logger    *log.Logger
	events    *log.StructuredLogger

	mu       sync.RWMutex
	table    core.RateTable
	loadOnce sync.Once
	loaded   atomic.Bool
	ready    atomic.Bool
}

// NewTrackerService wires the service. loader, rates and publisher may be nil.
func NewTrackerService(store *ledger.Store, loader LedgerLoader, rates RateFetcher, publisher EventPublisher, logger *log.Logger) *TrackerService {
	if logger == nil {
		logger = log.Discard()
	}
	return &TrackerService{
		store:     store,
		loader:    loader,
		rates:     rates,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentLedger),
		events:    log.NewStructuredLogger(logger),
		table:     core.BaseRateTable(),
	}
}

// LoadLedger seeds the store from the loader. Only the first call reads;
// later calls return immediately. Mutations are refused until it has run.
func (s *TrackerService) LoadLedger(ctx context.Context) {
	s.loadOnce.Do(func() {
		if s.loader != nil {
			txs, found := s.loader.Load(ctx)
			s.store.Replace(ctx, txs)
			s.logger.InfoContext(ctx, "Ledger loaded",
				log.FieldOperation, log.OpLoad,
				log.FieldLedgerSize, len(txs),
				"found", found)
		}
		s.loaded.Store(true)
	})
}

// RefreshRates replaces the rate table with a fresh fetch.
func (s *TrackerService) RefreshRates(ctx context.Context) {
	if s.rates == nil {
		return
	}
	table := s.rates.FetchOrDefault(ctx)
	s.mu.Lock()
	s.table = table
	s.mu.Unlock()
}

// Start loads the ledger and fetches rates concurrently. Neither can fail
// startup; each falls back to its empty default.
func (s *TrackerService) Start(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.LoadLedger(gctx)
		return nil
	})
	g.Go(func() error {
		s.RefreshRates(gctx)
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	s.ready.Store(true)
	return nil
}

// Ready reports whether Start has completed.
func (s *TrackerService) Ready() bool {
	return s.ready.Load()
}

// Snapshot returns the ledger newest first.
func (s *TrackerService) Snapshot() []core.Transaction {
	return s.store.All()
}

// Rates returns a copy of the current rate table.
func (s *TrackerService) Rates() core.RateTable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(core.RateTable, len(s.table))
	for k, v := range s.table {
		out[k] = v
	}
	return out
}

// Summary aggregates the current ledger in base currency.
func (s *TrackerService) Summary() core.Summary {
	return core.Summarize(s.store.All())
}

// SummaryIn aggregates the ledger and converts every figure to code.
func (s *TrackerService) SummaryIn(code string) core.Summary {
	return s.Summary().In(code, s.Rates())
}

// Convert converts a base currency amount for display.
func (s *TrackerService) Convert(amount decimal.Decimal, code string) decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return core.Convert(amount, code, s.table)
}

// ValidateEntry checks a full entry draft without recording it.
func (s *TrackerService) ValidateEntry(d core.Draft) error {
	_, err := core.ValidateEntry(d)
	return err
}

// ValidateQuickIncome checks a quick income draft without recording it.
func (s *TrackerService) ValidateQuickIncome(q core.QuickIncomeDraft) error {
	_, err := core.ValidateQuickIncome(q)
	return err
}

// AddEntry validates d and records it. Validation failures are returned as
// core.FieldErrors and leave the ledger untouched.
func (s *TrackerService) AddEntry(ctx context.Context, d core.Draft) (core.Transaction, error) {
	if !s.loaded.Load() {
		return core.Transaction{}, ErrNotLoaded
	}
	e, err := core.ValidateEntry(d)
	if err != nil {
		return core.Transaction{}, err
	}
	return s.add(ctx, e), nil
}

// AddQuickIncome validates q and records it as income.
func (s *TrackerService) AddQuickIncome(ctx context.Context, q core.QuickIncomeDraft) (core.Transaction, error) {
	if !s.loaded.Load() {
		return core.Transaction{}, ErrNotLoaded
	}
	e, err := core.ValidateQuickIncome(q)
	if err != nil {
		return core.Transaction{}, err
	}
	return s.add(ctx, e), nil
}

func (s *TrackerService) add(ctx context.Context, e core.Entry) core.Transaction {
	tx := s.store.Add(ctx, e)
	s.events.LogTransaction(ctx, log.OpAdd, tx.ID, tx.Kind.String(), core.FormatAmount(tx.Amount), tx.Category, s.store.Len())

	if s.publisher != nil {
		if err := s.publisher.PublishTransactionAdded(ctx, tx); err != nil {
			s.logger.WarnContext(ctx, "Failed to publish ledger event",
				log.FieldEventType, "transaction.added",
				log.FieldTxID, tx.ID,
				log.FieldError, err)
		}
	}
	return tx
}

// Remove deletes the transaction with id. Unknown ids return false and
// change nothing.
func (s *TrackerService) Remove(ctx context.Context, id string) (bool, error) {
	if !s.loaded.Load() {
		return false, ErrNotLoaded
	}
	tx, ok := s.store.Get(id)
	if !ok || !s.store.Remove(ctx, id) {
		return false, nil
	}
	s.events.LogTransaction(ctx, log.OpRemove, tx.ID, tx.Kind.String(), core.FormatAmount(tx.Amount), tx.Category, s.store.Len())

	if s.publisher != nil {
		if err := s.publisher.PublishTransactionRemoved(ctx, tx); err != nil {
			s.logger.WarnContext(ctx, "Failed to publish ledger event",
				log.FieldEventType, "transaction.removed",
				log.FieldTxID, tx.ID,
				log.FieldError, err)
		}
	}
	return true, nil
}

// Stats exposes counters for the metrics endpoint.
type Stats struct {
	Transactions  int
	FlushFailures int64
	Currencies    int
}

func (s *TrackerService) Stats() Stats {
	s.mu.RLock()
	currencies := len(s.table)
	s.mu.RUnlock()
	return Stats{
		Transactions:  s.store.Len(),
		FlushFailures: s.store.FlushFailures(),
		Currencies:    currencies,
	}
}
