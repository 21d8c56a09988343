// Package memory is an in-process spreadsheet stand-in for development and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/core"
	ports "fintrack/internal/sheets"
)

// Exporter keeps exported rows in insertion order.
type Exporter struct {
	mu   sync.Mutex
	rows []core.Transaction
}

var (
	_ ports.TransactionExporter = (*Exporter)(nil)
	_ ports.TransactionLister   = (*Exporter)(nil)
)

func New() *Exporter {
	return &Exporter{}
}

// AppendTransaction stores tx and returns a synthetic row reference. An id
// already present is not stored twice.
func (e *Exporter) AppendTransaction(_ context.Context, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if idx := e.indexLocked(tx.ID); idx >= 0 {
		return ref(idx), nil
	}
	e.rows = append(e.rows, tx)
	return ref(len(e.rows) - 1), nil
}

func (e *Exporter) DeleteTransaction(_ context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	idx := e.indexLocked(id)
	if idx < 0 {
		return fmt.Errorf("%s: %w", id, ports.ErrRowNotFound)
	}
	e.rows = append(e.rows[:idx], e.rows[idx+1:]...)
	return nil
}

func (e *Exporter) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]core.Transaction(nil), e.rows...), nil
}

// Rows renders the stored transactions as sheet rows, header first.
func (e *Exporter) Rows() [][]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := [][]string{append([]string(nil), ports.Header...)}
	for _, tx := range e.rows {
		out = append(out, ports.Row(tx))
	}
	return out
}

func (e *Exporter) indexLocked(id string) int {
	for i, tx := range e.rows {
		if tx.ID == id {
			return i
		}
	}
	return -1
}

// ref mirrors the A1 notation of the Google exporter; row 1 is the header.
func ref(idx int) string {
	return fmt.Sprintf("mem:%d", idx+2)
}
