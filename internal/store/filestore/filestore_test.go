package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"lifeboard/internal/core"
	"lifeboard/internal/store"
)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "db.json")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return s, path
}

func TestOpenCreatesEmptyArrays(t *testing.T) {
	_, path := openTemp(t)
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{"transactions", "budgets", "cards", "installments", "tasks"} {
		if string(doc[key]) != "[]" {
			t.Errorf("%s = %s, want []", key, doc[key])
		}
	}
}

func TestInsertAssignsDistinctIDs(t *testing.T) {
	s, _ := openTemp(t)
	fixed := time.UnixMilli(1_700_000_000_000)
	s.now = func() time.Time { return fixed }
	txs := s.Finance().Transactions
	ctx := context.Background()

	a, err := txs.Insert(ctx, core.Transaction{Name: "a", Category: "Food", Date: "2024-01-01", Type: core.Expense})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	b, err := txs.Insert(ctx, core.Transaction{Name: "b", Category: "Food", Date: "2024-01-01", Type: core.Expense})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if a.ID != fixed.UnixMilli() || b.ID != a.ID+1 {
		t.Fatalf("ids = %d, %d", a.ID, b.ID)
	}

	list, err := txs.List(ctx)
	if err != nil || len(list) != 2 {
		t.Fatalf("list = %v, %v", list, err)
	}
}

func TestUpdateMergesAndReportsMissing(t *testing.T) {
	s, _ := openTemp(t)
	tasks := s.Finance().Tasks
	ctx := context.Background()

	task, err := tasks.Insert(ctx, core.Task{Title: "write", Priority: core.PriorityHigh, Subtasks: []core.Subtask{}})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	got, err := tasks.Update(ctx, task.ID, store.Patch{"completed": true})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !got.Completed || got.Title != "write" || got.Priority != core.PriorityHigh {
		t.Fatalf("merge lost fields: %+v", got)
	}

	_, err = tasks.Update(ctx, task.ID+1000, store.Patch{"title": "x"})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	s, _ := openTemp(t)
	cards := s.Finance().Cards
	ctx := context.Background()

	card, err := cards.Insert(ctx, core.Card{BankName: "B", Holder: "H", Type: core.Debit, Number: "1234"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := cards.Delete(ctx, card.ID); err != nil {
			t.Fatalf("delete #%d: %v", i, err)
		}
	}
	list, _ := cards.List(ctx)
	if len(list) != 0 {
		t.Fatalf("cards left: %v", list)
	}
}

func TestBudgetsInsertConflictAndUpsert(t *testing.T) {
	s, _ := openTemp(t)
	b := s.Finance().Budgets
	ctx := context.Background()

	if _, err := b.Insert(ctx, core.Budget{Category: "Food", Limit: 500}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := b.Insert(ctx, core.Budget{Category: "Food", Limit: 600}); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
	if _, err := b.Upsert(ctx, core.Budget{Category: "Food", Limit: 600}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err := b.Get(ctx, "Food")
	if err != nil || got.Limit != 600 {
		t.Fatalf("get = %+v, %v", got, err)
	}
	if err := b.Delete(ctx, "Food"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := b.Get(ctx, "Food"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestCorruptFileIsStorageError(t *testing.T) {
	s, path := openTemp(t)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := s.Finance().Tasks.List(context.Background())
	if !errors.Is(err, core.ErrStorage) {
		t.Fatalf("err = %v, want storage error", err)
	}
}
