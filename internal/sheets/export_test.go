package sheets_test

import (
	"context"
	"errors"
	"testing"

	"lifeboard/internal/core"
	"lifeboard/internal/log"
	"lifeboard/internal/sheets"
	"lifeboard/internal/sheets/memory"
)

func TestExporter_WritesOneSheetPerYear(t *testing.T) {
	store := memory.New()
	ex := sheets.NewExporter(store, "", log.Discard())

	txs := []core.Transaction{
		{ID: 3, Name: "Rent", Category: "Housing", Date: "2024-02-01", Amount: 800, Type: core.Expense},
		{ID: 1, Name: "Salary", Category: "Salary", Date: "2024-01-31", Amount: 2000, Type: core.Income},
		{ID: 2, Name: "Coffee", Category: "Food", Date: "2023-12-30", Amount: 3.5, Type: core.Expense},
		{ID: 4, Name: "Broken", Date: "not-a-date", Type: core.Expense},
	}
	res, err := ex.Export(context.Background(), txs)
	if err != nil {
		t.Fatal(err)
	}
	if res.Rows != 3 {
		t.Fatalf("rows = %d, want 3", res.Rows)
	}
	want := []string{"2023 Summary", "2023 Transactions", "2024 Summary", "2024 Transactions"}
	got := store.Sheets()
	if len(got) != len(want) {
		t.Fatalf("sheets = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sheets = %v, want %v", got, want)
		}
	}

	rows, _ := store.Rows("2024 Transactions")
	if len(rows) != 3 {
		t.Fatalf("2024 rows = %d", len(rows))
	}
	if rows[1][2] != "Salary" || rows[2][2] != "Rent" {
		t.Errorf("rows not ordered by date: %v", rows)
	}
	if rows[2][6] != -800.0 {
		t.Errorf("signed amount = %v, want -800", rows[2][6])
	}

	summary, _ := store.Rows("2024 Summary")
	if summary[1][0] != "Housing" || summary[1][1] != 800.0 {
		t.Errorf("summary = %v", summary)
	}
}

type failingWriter struct{}

func (failingWriter) ReplaceRows(context.Context, string, [][]any) error {
	return errors.New("quota exceeded")
}

func TestExporter_PropagatesWriteErrors(t *testing.T) {
	ex := sheets.NewExporter(failingWriter{}, "Transactions", log.Discard())
	_, err := ex.Export(context.Background(), []core.Transaction{
		{ID: 1, Name: "x", Category: "y", Date: "2024-01-01", Type: core.Expense},
	})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"Transactions", "2024 Transactions"},
		{"2023 Transactions", "2023 Transactions"},
		{"  Summary ", "2024 Summary"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := sheets.YearPrefixedName(tt.base, 2024); got != tt.want {
			t.Errorf("YearPrefixedName(%q) = %q, want %q", tt.base, got, tt.want)
		}
	}
}
