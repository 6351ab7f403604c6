// Package views holds the pure computations behind the dashboard widgets.
// Nothing here performs I/O; callers pass in entity lists and get view
// models back.
package views

import (
	"math"

	"lifeboard/internal/core"
)

// BudgetUsage is one budget with the expense total of its category.
type BudgetUsage struct {
	Category     string  `json:"category"`
	Limit        float64 `json:"limit"`
	Color        string  `json:"color,omitempty"`
	Spent        float64 `json:"spent"`
	Percent      float64 `json:"percent"`
	IsOverBudget bool    `json:"isOverBudget"`
}

// SpentByCategory sums abs(amount) of expense transactions per category.
func SpentByCategory(txs []core.Transaction) map[string]float64 {
	spent := make(map[string]float64)
	for _, t := range txs {
		if t.Type != core.Expense {
			continue
		}
		spent[t.Category] += math.Abs(t.Amount)
	}
	return spent
}

// CategorySpend pairs every budget with its spending. A zero limit yields
// 0 percent and is never over budget.
func CategorySpend(txs []core.Transaction, budgets []core.Budget) []BudgetUsage {
	spent := SpentByCategory(txs)
	out := make([]BudgetUsage, 0, len(budgets))
	for _, b := range budgets {
		s := spent[b.Category]
		out = append(out, BudgetUsage{
			Category:     b.Category,
			Limit:        b.Limit,
			Color:        b.Color,
			Spent:        core.Round(s, 2),
			Percent:      core.Round(core.Percent(s, b.Limit), 1),
			IsOverBudget: b.Limit > 0 && s > b.Limit,
		})
	}
	return out
}

// KPIs summarises a transaction list.
type KPIs struct {
	TotalIncome  float64 `json:"totalIncome"`
	TotalExpense float64 `json:"totalExpense"`
	Balance      float64 `json:"balance"`
	// SavingsRate is the share of income not spent, in percent.
	SavingsRate float64 `json:"savingsRate"`
}

func ComputeKPIs(txs []core.Transaction) KPIs {
	var k KPIs
	for _, t := range txs {
		switch t.Type {
		case core.Income:
			k.TotalIncome += math.Abs(t.Amount)
		case core.Expense:
			k.TotalExpense += math.Abs(t.Amount)
		}
	}
	k.Balance = core.Round(k.TotalIncome-k.TotalExpense, 2)
	k.SavingsRate = core.Round(core.Percent(k.TotalIncome-k.TotalExpense, k.TotalIncome), 1)
	k.TotalIncome = core.Round(k.TotalIncome, 2)
	k.TotalExpense = core.Round(k.TotalExpense, 2)
	return k
}
