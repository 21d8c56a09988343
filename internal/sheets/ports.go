package sheets

import (
	"context"
	"errors"

	"fintrack/internal/core"
)

// ErrRowNotFound is returned when no exported row carries the requested id.
var ErrRowNotFound = errors.New("transaction row not found")

// Ports for outbound adapters.
type (
	// TransactionExporter mirrors ledger mutations into a spreadsheet.
	// Both operations must be safe to repeat for the same transaction.
	TransactionExporter interface {
		AppendTransaction(ctx context.Context, tx core.Transaction) (rowRef string, err error)
		DeleteTransaction(ctx context.Context, id string) error
	}

	// TransactionLister reads back what has been exported.
	TransactionLister interface {
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
	}
)

// Header is the first row of an exported sheet.
var Header = []string{"ID", "Date", "Kind", "Category", "Description", "Amount"}

// Row renders tx in export column order.
func Row(tx core.Transaction) []string {
	return []string{
		tx.ID,
		tx.Date.String(),
		tx.Kind.String(),
		tx.Category,
		tx.Description,
		tx.Amount.String(),
	}
}
