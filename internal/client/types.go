package client

import (
	"lifeboard/internal/core"
	"lifeboard/internal/views"
)

// Patch carries the fields of a partial update.
type Patch map[string]any

type HabitStats struct {
	DailyStats []views.DailyStat `json:"dailyStats"`
	Logs       []core.HabitLog   `json:"logs"`
	Habits     []core.Habit      `json:"habits"`
}

type SetupStatus struct {
	Initialized bool          `json:"initialized"`
	Missing     []string      `json:"missing"`
	Budgets     []core.Budget `json:"budgets"`
}

type BudgetOverview struct {
	KPIs  views.KPIs          `json:"kpis"`
	Usage []views.BudgetUsage `json:"usage"`
	Spent map[string]float64  `json:"spentByCategory"`
}

type ExportResult struct {
	Rows   int      `json:"rows"`
	Sheets []string `json:"sheets"`
}
