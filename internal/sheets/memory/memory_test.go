package memory

import (
	"context"
	"testing"
)

func TestStoreReplaceRows(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.ReplaceRows(ctx, "2024 Transactions", [][]any{{"ID"}, {"1"}}); err != nil {
		t.Fatal(err)
	}
	if err := s.ReplaceRows(ctx, "2024 Transactions", [][]any{{"ID"}}); err != nil {
		t.Fatal(err)
	}
	rows, ok := s.Rows("2024 Transactions")
	if !ok || len(rows) != 1 {
		t.Fatalf("rows = %v, %v; want header only", rows, ok)
	}
	if s.Writes() != 2 {
		t.Fatalf("writes = %d", s.Writes())
	}
}

func TestStoreHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := New().ReplaceRows(ctx, "x", nil); err == nil {
		t.Fatal("expected context error")
	}
}
