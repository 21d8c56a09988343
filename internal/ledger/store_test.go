package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

type recordingPersister struct {
	mu    sync.Mutex
	saves [][]core.Transaction
	err   error
}

func (p *recordingPersister) Save(_ context.Context, txs []core.Transaction) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saves = append(p.saves, txs)
	return p.err
}

func (p *recordingPersister) last() []core.Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.saves) == 0 {
		return nil
	}
	return p.saves[len(p.saves)-1]
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func fixedClock() time.Time {
	return time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC)
}

func entry(kind core.Kind, amount, category string) core.Entry {
	return core.Entry{
		Kind:        kind,
		Amount:      decimal.RequireFromString(amount),
		Category:    category,
		Description: category,
	}
}

func TestStore_AddPrependsAndFlushes(t *testing.T) {
	p := &recordingPersister{}
	s := NewStore(p, WithClock(fixedClock), WithIDGenerator(sequentialIDs()))
	ctx := context.Background()

	first := s.Add(ctx, entry(core.Income, "1000", "Salary"))
	second := s.Add(ctx, entry(core.Expense, "200", "Groceries"))

	if first.ID != "id-1" || second.ID != "id-2" {
		t.Fatalf("unexpected ids %q %q", first.ID, second.ID)
	}
	if got := first.Date.String(); got != "2024-03-15" {
		t.Errorf("Date = %s, want 2024-03-15", got)
	}

	all := s.All()
	if len(all) != 2 || all[0].ID != "id-2" || all[1].ID != "id-1" {
		t.Fatalf("ledger not newest first: %+v", all)
	}
	if len(p.saves) != 2 {
		t.Fatalf("saves = %d, want 2", len(p.saves))
	}
	if last := p.last(); len(last) != 2 || last[0].ID != "id-2" {
		t.Errorf("last flush = %+v", last)
	}
}

func TestStore_AddStampsUTCDate(t *testing.T) {
	// 23:30 on March 1st in New York is already March 2nd in UTC.
	ny := time.FixedZone("EST", -5*60*60)
	s := NewStore(nil, WithClock(func() time.Time {
		return time.Date(2024, 3, 1, 23, 30, 0, 0, ny)
	}))

	tx := s.Add(context.Background(), core.Entry{
		Kind: core.Expense, Amount: decimal.NewFromInt(3), Category: "Groceries", Description: "late snack",
	})
	if got := tx.Date.String(); got != "2024-03-02" {
		t.Fatalf("Date = %s, want 2024-03-02", got)
	}
}

func TestStore_AddGrowsByOne(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		tx := s.Add(ctx, entry(core.Expense, "1.5", "Shopping"))
		if s.Len() != i {
			t.Fatalf("Len() = %d, want %d", s.Len(), i)
		}
		if s.All()[0].ID != tx.ID {
			t.Fatalf("new record is not first")
		}
	}
}

func TestStore_Remove(t *testing.T) {
	p := &recordingPersister{}
	s := NewStore(p, WithIDGenerator(sequentialIDs()))
	ctx := context.Background()

	s.Add(ctx, entry(core.Income, "10", "Salary"))
	s.Add(ctx, entry(core.Expense, "5", "Medical"))
	s.Add(ctx, entry(core.Expense, "7", "Utilities"))

	if !s.Remove(ctx, "id-2") {
		t.Fatal("Remove(id-2) = false, want true")
	}
	all := s.All()
	if len(all) != 2 || all[0].ID != "id-3" || all[1].ID != "id-1" {
		t.Fatalf("order after remove: %+v", all)
	}
	if _, ok := s.Get("id-2"); ok {
		t.Error("removed record still present")
	}
	if len(p.saves) != 4 {
		t.Errorf("saves = %d, want 4", len(p.saves))
	}
}

func TestStore_RemoveUnknownIsNoop(t *testing.T) {
	p := &recordingPersister{}
	s := NewStore(p)
	ctx := context.Background()
	s.Add(ctx, entry(core.Income, "10", "Salary"))
	before := s.All()

	if s.Remove(ctx, "missing") {
		t.Fatal("Remove(missing) = true, want false")
	}
	after := s.All()
	if len(after) != len(before) || after[0].ID != before[0].ID {
		t.Errorf("ledger changed: %+v -> %+v", before, after)
	}
	if len(p.saves) != 1 {
		t.Errorf("unknown id should not flush, saves = %d", len(p.saves))
	}
}

func TestStore_FlushFailureKeepsMutation(t *testing.T) {
	p := &recordingPersister{err: errors.New("quota exceeded")}
	s := NewStore(p)

	tx := s.Add(context.Background(), entry(core.Expense, "3", "Fun Stuff"))

	if _, ok := s.Get(tx.ID); !ok {
		t.Fatal("record lost after failed flush")
	}
	if s.FlushFailures() != 1 {
		t.Errorf("FlushFailures() = %d, want 1", s.FlushFailures())
	}
}

func TestStore_ReplaceDoesNotFlush(t *testing.T) {
	p := &recordingPersister{}
	s := NewStore(p)
	seed := []core.Transaction{{ID: "a"}, {ID: "b"}}

	s.Replace(context.Background(), seed)
	seed[0].ID = "mutated"

	if len(p.saves) != 0 {
		t.Errorf("Replace flushed %d times", len(p.saves))
	}
	if got := s.All()[0].ID; got != "a" {
		t.Errorf("store aliases caller slice, first id = %q", got)
	}
}

func TestStore_AllReturnsCopy(t *testing.T) {
	s := NewStore(nil)
	s.Add(context.Background(), entry(core.Income, "1", "Salary"))

	snapshot := s.All()
	snapshot[0].Category = "changed"

	if s.All()[0].Category != "Salary" {
		t.Error("All() exposes internal slice")
	}
}

func TestStore_ConcurrentAdds(t *testing.T) {
	p := &recordingPersister{}
	s := NewStore(p)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Add(ctx, entry(core.Expense, "1", "Groceries"))
		}()
	}
	wg.Wait()

	if s.Len() != 50 {
		t.Fatalf("Len() = %d, want 50", s.Len())
	}
	if got := len(p.last()); got != 50 {
		t.Errorf("last flush holds %d records, want 50", got)
	}
}
