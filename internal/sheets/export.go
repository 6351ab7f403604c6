// Package sheets exports transactions to a spreadsheet, one sheet per year
// plus a per-category summary.
package sheets

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"lifeboard/internal/core"
	"lifeboard/internal/log"
	"lifeboard/internal/views"
)

const (
	maxParallelWrites = 4
	summarySuffix     = "Summary"
)

var transactionHeader = []any{"ID", "Date", "Name", "Category", "Type", "Amount", "Signed", "Icon"}

type Result struct {
	Rows   int      `json:"rows"`
	Sheets []string `json:"sheets"`
}

type Exporter struct {
	w      Writer
	base   string
	logger *log.Logger
}

// NewExporter writes transactions to sheets named "<year> <base>".
func NewExporter(w Writer, base string, logger *log.Logger) *Exporter {
	if strings.TrimSpace(base) == "" {
		base = "Transactions"
	}
	return &Exporter{w: w, base: base, logger: logger.WithComponent(log.ComponentSheets)}
}

// Export replaces the sheets of every year present in txs. Transactions with
// an unparsable date are skipped.
func (e *Exporter) Export(ctx context.Context, txs []core.Transaction) (Result, error) {
	byYear := map[int][]core.Transaction{}
	skipped := 0
	for _, t := range txs {
		day, err := core.ParseDay(t.Date)
		if err != nil {
			skipped++
			continue
		}
		byYear[day.Year()] = append(byYear[day.Year()], t)
	}
	if skipped > 0 {
		e.logger.WarnContext(ctx, "Skipped transactions without a valid date", "count", skipped)
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelWrites)
	var res Result
	for _, year := range years {
		rows := transactionRows(byYear[year])
		summary := summaryRows(byYear[year])
		txSheet := YearPrefixedName(e.base, year)
		sumSheet := YearPrefixedName(summarySuffix, year)
		res.Rows += len(rows) - 1
		res.Sheets = append(res.Sheets, txSheet, sumSheet)

		g.Go(func() error {
			if err := e.w.ReplaceRows(gctx, txSheet, rows); err != nil {
				return fmt.Errorf("write %s: %w", txSheet, err)
			}
			return nil
		})
		g.Go(func() error {
			if err := e.w.ReplaceRows(gctx, sumSheet, summary); err != nil {
				return fmt.Errorf("write %s: %w", sumSheet, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	e.logger.InfoContext(ctx, "Exported transactions", "rows", res.Rows, "sheets", len(res.Sheets))
	return res, nil
}

func transactionRows(txs []core.Transaction) [][]any {
	sorted := make([]core.Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Date != sorted[j].Date {
			return sorted[i].Date < sorted[j].Date
		}
		return sorted[i].ID < sorted[j].ID
	})

	rows := make([][]any, 0, len(sorted)+1)
	rows = append(rows, transactionHeader)
	for _, t := range sorted {
		signed := t.Amount
		if t.Type == core.Expense {
			signed = -signed
		}
		rows = append(rows, []any{
			strconv.FormatInt(t.ID, 10), t.Date, t.Name, t.Category, string(t.Type),
			core.Round(t.Amount, 2), core.Round(signed, 2), t.Icon,
		})
	}
	return rows
}

func summaryRows(txs []core.Transaction) [][]any {
	spent := views.SpentByCategory(txs)
	cats := make([]string, 0, len(spent))
	for c := range spent {
		cats = append(cats, c)
	}
	sort.Strings(cats)

	k := views.ComputeKPIs(txs)
	rows := [][]any{{"Category", "Spent"}}
	for _, c := range cats {
		rows = append(rows, []any{c, core.Round(spent[c], 2)})
	}
	rows = append(rows,
		[]any{},
		[]any{"Total income", k.TotalIncome},
		[]any{"Total expense", k.TotalExpense},
		[]any{"Balance", k.Balance},
		[]any{"Savings rate %", k.SavingsRate},
	)
	return rows
}

// YearPrefixedName returns "<year> <base>" unless base already starts with a
// four-digit year.
func YearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
