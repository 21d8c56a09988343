package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"fintrack/internal/amqp"
	"fintrack/internal/log"
	"fintrack/internal/sheets"
)

// ExportWorker applies ledger events to a spreadsheet.
type ExportWorker struct {
	exporter sheets.TransactionExporter
	logger   *log.Logger

	appended atomic.Int64
	deleted  atomic.Int64
}

func NewExportWorker(exporter sheets.TransactionExporter, logger *log.Logger) *ExportWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &ExportWorker{
		exporter: exporter,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// Handle processes one event. A returned error causes redelivery, so
// permanent failures (bad payloads, rows already gone) are logged and
// swallowed instead.
func (w *ExportWorker) Handle(ctx context.Context, evt *amqp.LedgerEvent) error {
	switch evt.Type {
	case amqp.EventTransactionAdded:
		return w.handleAdded(ctx, evt)
	case amqp.EventTransactionRemoved:
		return w.handleRemoved(ctx, evt)
	default:
		w.logger.WarnContext(ctx, "Ignoring unknown event type", log.FieldEventType, evt.Type)
		return nil
	}
}

func (w *ExportWorker) handleAdded(ctx context.Context, evt *amqp.LedgerEvent) error {
	tx, err := evt.Transaction.ToTransaction()
	if err == nil {
		err = tx.Validate()
	}
	if err != nil {
		w.logger.ErrorContext(ctx, "Dropping invalid transaction event",
			log.FieldTxID, evt.Transaction.ID,
			log.FieldError, err)
		return nil
	}

	ref, err := w.exporter.AppendTransaction(ctx, tx)
	if err != nil {
		return fmt.Errorf("export transaction %s: %w", tx.ID, err)
	}
	w.appended.Add(1)
	w.logger.InfoContext(ctx, "Transaction exported",
		log.FieldOperation, log.OpExport,
		log.FieldTxID, tx.ID,
		log.FieldExportRef, ref)
	return nil
}

func (w *ExportWorker) handleRemoved(ctx context.Context, evt *amqp.LedgerEvent) error {
	id := evt.Transaction.ID
	err := w.exporter.DeleteTransaction(ctx, id)
	if errors.Is(err, sheets.ErrRowNotFound) {
		w.logger.WarnContext(ctx, "Exported row already gone", log.FieldTxID, id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete exported transaction %s: %w", id, err)
	}
	w.deleted.Add(1)
	w.logger.InfoContext(ctx, "Exported transaction deleted",
		log.FieldOperation, log.OpRemove,
		log.FieldTxID, id)
	return nil
}

// Counts reports how many rows have been appended and deleted.
func (w *ExportWorker) Counts() (appended, deleted int64) {
	return w.appended.Load(), w.deleted.Load()
}
