// Package ledger owns the in-memory list of transactions.
package ledger

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// Persister receives the full ledger after every mutation.
type Persister interface {
	Save(ctx context.Context, txs []core.Transaction) error
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the source of creation dates.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides transaction id generation.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// WithLogger sets the logger used to report flush failures.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l.WithComponent(log.ComponentLedger) }
}

// Store holds the ledger newest first. Add and Remove flush the whole ledger
// through the Persister; a failed flush is logged and the mutation stays.
type Store struct {
	mu      sync.RWMutex
	writeMu sync.Mutex // orders mutations with their flushes
	txs     []core.Transaction
	persist Persister
	now     func() time.Time
	newID   func() string
	logger  *log.Logger

	flushFailures atomic.Int64
}

// NewStore creates an empty store. persist may be nil.
func NewStore(persist Persister, opts ...Option) *Store {
	s := &Store{
		persist: persist,
		now:     time.Now,
		newID:   uuid.NewString,
		logger:  log.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Replace seeds the ledger, typically with the result of a load. It does not flush.
func (s *Store) Replace(_ context.Context, txs []core.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs = append([]core.Transaction(nil), txs...)
}

// Add stamps e with a fresh id and the current UTC date and puts it at the front.
// The entry is assumed to be validated already.
func (s *Store) Add(ctx context.Context, e core.Entry) core.Transaction {
	tx := core.Transaction{
		ID:          s.newID(),
		Kind:        e.Kind,
		Amount:      e.Amount,
		Category:    e.Category,
		Description: e.Description,
		Date:        core.DateOf(s.now().UTC()),
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.txs = append([]core.Transaction{tx}, s.txs...)
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.flush(ctx, snapshot)
	return tx
}

// Remove deletes the record with the given id. Unknown ids are a no-op and
// return false without flushing.
func (s *Store) Remove(ctx context.Context, id string) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	s.txs = append(s.txs[:idx:idx], s.txs[idx+1:]...)
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.flush(ctx, snapshot)
	return true
}

// All returns a copy of the ledger, newest first.
func (s *Store) All() []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.txs)
}

func (s *Store) Get(id string) (core.Transaction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx := s.indexLocked(id); idx >= 0 {
		return s.txs[idx], true
	}
	return core.Transaction{}, false
}

// FlushFailures reports how many flushes have failed since start.
func (s *Store) FlushFailures() int64 {
	return s.flushFailures.Load()
}

func (s *Store) indexLocked(id string) int {
	for i, tx := range s.txs {
		if tx.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) snapshotLocked() []core.Transaction {
	return append([]core.Transaction(nil), s.txs...)
}

func (s *Store) flush(ctx context.Context, txs []core.Transaction) {
	if s.persist == nil {
		return
	}
	if err := s.persist.Save(ctx, txs); err != nil {
		s.flushFailures.Add(1)
		s.logger.ErrorContext(ctx, "Failed to persist ledger",
			log.FieldOperation, log.OpSave,
			log.FieldLedgerSize, len(txs),
			log.FieldError, err)
	}
}
