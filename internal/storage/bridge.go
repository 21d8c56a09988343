package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// DefaultLedgerKey is the blob key the ledger is stored under.
const DefaultLedgerKey = "finance-transactions"

// record is the wire form of a transaction: amount is a bare JSON number and
// date is YYYY-MM-DD.
type record struct {
	ID          string      `json:"id"`
	Kind        string      `json:"kind"`
	Amount      json.Number `json:"amount"`
	Category    string      `json:"category"`
	Description string      `json:"description"`
	Date        string      `json:"date"`
}

// Bridge loads and saves the ledger through a BlobStore.
type Bridge struct {
	store  BlobStore
	key    string
	logger *log.Logger
}

func NewBridge(store BlobStore, key string, logger *log.Logger) *Bridge {
	if key == "" {
		key = DefaultLedgerKey
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Bridge{store: store, key: key, logger: logger.WithComponent(log.ComponentStorage)}
}

// Key returns the blob key in use.
func (b *Bridge) Key() string { return b.key }

// Load returns the stored ledger. An absent key yields an empty ledger. Data
// that does not decode, or decodes into records breaking the ledger
// invariants, is deleted and an empty ledger returned. The bool reports
// whether a stored ledger was found and accepted.
func (b *Bridge) Load(ctx context.Context) ([]core.Transaction, bool) {
	raw, err := b.store.Get(ctx, b.key)
	if errors.Is(err, ErrNotFound) {
		return []core.Transaction{}, false
	}
	if err != nil {
		b.logger.WarnContext(ctx, "Failed to read ledger, starting empty",
			log.FieldOperation, log.OpLoad, log.FieldBlobKey, b.key, log.FieldError, err)
		return []core.Transaction{}, false
	}

	txs, err := Decode(raw)
	if err != nil {
		b.logger.WarnContext(ctx, "Discarding corrupt ledger",
			log.FieldOperation, log.OpLoad, log.FieldBlobKey, b.key, log.FieldError, err)
		if derr := b.store.Delete(ctx, b.key); derr != nil {
			b.logger.ErrorContext(ctx, "Failed to clear corrupt ledger",
				log.FieldBlobKey, b.key, log.FieldError, derr)
		}
		return []core.Transaction{}, false
	}
	return txs, true
}

// Save writes the full ledger. An empty ledger deletes the key.
func (b *Bridge) Save(ctx context.Context, txs []core.Transaction) error {
	if len(txs) == 0 {
		if err := b.store.Delete(ctx, b.key); err != nil {
			return fmt.Errorf("clear ledger: %w", err)
		}
		return nil
	}
	raw, err := Encode(txs)
	if err != nil {
		return err
	}
	if err := b.store.Put(ctx, b.key, raw); err != nil {
		return fmt.Errorf("store ledger: %w", err)
	}
	return nil
}

// Encode renders a ledger in its wire form.
func Encode(txs []core.Transaction) ([]byte, error) {
	out := make([]record, 0, len(txs))
	for _, t := range txs {
		out = append(out, record{
			ID:          t.ID,
			Kind:        t.Kind.String(),
			Amount:      json.Number(t.Amount.String()),
			Category:    t.Category,
			Description: t.Description,
			Date:        t.Date.String(),
		})
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode ledger: %w", err)
	}
	return raw, nil
}

// Decode parses a wire ledger and checks every record.
func Decode(raw []byte) ([]core.Transaction, error) {
	var recs []record
	if err := json.Unmarshal(raw, &recs); err != nil {
		return nil, fmt.Errorf("decode ledger: %w", err)
	}
	if recs == nil {
		return nil, errors.New("decode ledger: not an array")
	}

	seen := make(map[string]struct{}, len(recs))
	txs := make([]core.Transaction, 0, len(recs))
	for i, r := range recs {
		t, err := r.transaction()
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if _, dup := seen[t.ID]; dup {
			return nil, fmt.Errorf("record %d: duplicate id %q", i, t.ID)
		}
		seen[t.ID] = struct{}{}
		txs = append(txs, t)
	}
	return txs, nil
}

func (r record) transaction() (core.Transaction, error) {
	kind, err := core.ParseKind(r.Kind)
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := decimal.NewFromString(r.Amount.String())
	if err != nil {
		return core.Transaction{}, core.ErrInvalidAmount
	}
	date, err := core.ParseDate(r.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	t := core.Transaction{
		ID:          r.ID,
		Kind:        kind,
		Amount:      amount,
		Category:    r.Category,
		Description: r.Description,
		Date:        date,
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}
