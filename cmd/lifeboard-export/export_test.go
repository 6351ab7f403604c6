package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"lifeboard/internal/core"
	"lifeboard/internal/log"
	"lifeboard/internal/services"
	"lifeboard/internal/sheets"
	"lifeboard/internal/sheets/memory"
	"lifeboard/internal/storage"
	"lifeboard/internal/store/filestore"
)

func TestExportJobDryRunPrintsSheets(t *testing.T) {
	dir := t.TempDir()
	fs, err := filestore.Open(filepath.Join(dir, "db.json"))
	if err != nil {
		t.Fatalf("open file store: %v", err)
	}
	db, err := storage.Open(context.Background(), storage.SQLite, filepath.Join(dir, "lifeboard.db"))
	if err != nil {
		t.Fatalf("open sql store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	svc := services.New(fs.Finance(), db.Personal(), services.Options{Logger: log.Discard()})
	ctx := context.Background()
	for _, tx := range []core.Transaction{
		{Name: "Rent", Category: "Bills", Date: "2024-01-01", Amount: 800, Type: core.Expense},
		{Name: "Salary", Category: "Work", Date: "2024-01-27", Amount: 2000, Type: core.Income},
	} {
		if _, err := svc.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	dry := memory.New()
	var out bytes.Buffer
	job := &exportJob{
		svc:      svc,
		exporter: sheets.NewExporter(dry, "", log.Discard()),
		dry:      dry,
		out:      &out,
		logger:   log.Discard(),
	}
	if err := job.run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "2024 Transactions\t3 rows") {
		t.Errorf("output missing transaction sheet:\n%s", got)
	}
	if !strings.Contains(got, "2024 Summary") {
		t.Errorf("output missing summary sheet:\n%s", got)
	}
}

func TestRootCommandFlags(t *testing.T) {
	for _, name := range []string{"dry-run", "interval", "log-level"} {
		if rootCmd.Flags().Lookup(name) == nil {
			t.Errorf("missing --%s flag", name)
		}
	}
}
