package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

const (
	EventTransactionAdded   = "transaction.added"
	EventTransactionRemoved = "transaction.removed"
)

// TransactionPayload is the transaction as carried in an event.
type TransactionPayload struct {
	ID          string      `json:"id"`
	Kind        string      `json:"kind"`
	Amount      json.Number `json:"amount"`
	Category    string      `json:"category"`
	Description string      `json:"description"`
	Date        string      `json:"date"`
}

// LedgerEvent announces a single ledger mutation.
type LedgerEvent struct {
	Type        string             `json:"type"`
	Transaction TransactionPayload `json:"transaction"`
	Timestamp   time.Time          `json:"timestamp"`
}

// NewLedgerEvent creates an event for tx stamped with the current time.
func NewLedgerEvent(eventType string, tx core.Transaction) *LedgerEvent {
	return &LedgerEvent{
		Type: eventType,
		Transaction: TransactionPayload{
			ID:          tx.ID,
			Kind:        tx.Kind.String(),
			Amount:      json.Number(tx.Amount.String()),
			Category:    tx.Category,
			Description: tx.Description,
			Date:        tx.Date.String(),
		},
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes an event and rejects unknown types.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var evt LedgerEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return nil, err
	}
	switch evt.Type {
	case EventTransactionAdded, EventTransactionRemoved:
	default:
		return nil, fmt.Errorf("unknown event type %q", evt.Type)
	}
	if evt.Transaction.ID == "" {
		return nil, core.ErrEmptyID
	}
	return &evt, nil
}

// ToTransaction converts the payload back to a domain transaction.
func (p TransactionPayload) ToTransaction() (core.Transaction, error) {
	kind, err := core.ParseKind(p.Kind)
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := decimal.NewFromString(p.Amount.String())
	if err != nil {
		return core.Transaction{}, core.ErrInvalidAmount
	}
	date, err := core.ParseDate(p.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		ID:          p.ID,
		Kind:        kind,
		Amount:      amount,
		Category:    p.Category,
		Description: p.Description,
		Date:        date,
	}, nil
}
