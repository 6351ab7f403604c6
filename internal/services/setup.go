package services

import (
	"context"
	"fmt"
	"time"

	"lifeboard/internal/amqp"
	"lifeboard/internal/core"
	"lifeboard/internal/views"
)

// SetupStatus reports which default categories still lack a budget.
type SetupStatus struct {
	Initialized bool          `json:"initialized"`
	Missing     []string      `json:"missing"`
	Budgets     []core.Budget `json:"budgets"`
}

func (s *Service) SetupStatus(ctx context.Context) (SetupStatus, error) {
	budgets, err := s.finance.Budgets.List(ctx)
	if err != nil {
		return SetupStatus{}, err
	}
	have := make(map[string]bool, len(budgets))
	for _, b := range budgets {
		have[b.Category] = true
	}
	status := SetupStatus{Missing: []string{}, Budgets: budgets}
	for _, d := range core.DefaultBudgets {
		if !have[d.Category] {
			status.Missing = append(status.Missing, d.Category)
		}
	}
	status.Initialized = len(status.Missing) == 0
	if status.Budgets == nil {
		status.Budgets = []core.Budget{}
	}
	return status, nil
}

// InitializeSetup creates the missing default budgets. Existing budgets are
// left untouched, so repeated calls are harmless.
func (s *Service) InitializeSetup(ctx context.Context) (SetupStatus, error) {
	status, err := s.SetupStatus(ctx)
	if err != nil {
		return SetupStatus{}, err
	}
	missing := make(map[string]bool, len(status.Missing))
	for _, c := range status.Missing {
		missing[c] = true
	}
	for _, d := range core.DefaultBudgets {
		if !missing[d.Category] {
			continue
		}
		b := core.Budget{Category: d.Category, Limit: d.Limit, Color: d.Color}
		if _, err := s.finance.Budgets.Insert(ctx, b); err != nil {
			return SetupStatus{}, fmt.Errorf("create default budget %s: %w", d.Category, err)
		}
	}
	if len(missing) > 0 {
		s.changed(ctx, ResourceBudgets, amqp.OpCreate, "", "")
	}
	return s.SetupStatus(ctx)
}

// Overview is the payload of GET /api/views/budgets.
type Overview struct {
	KPIs  views.KPIs          `json:"kpis"`
	Usage []views.BudgetUsage `json:"usage"`
	Spent map[string]float64  `json:"spentByCategory"`
}

func (s *Service) BudgetOverview(ctx context.Context) (Overview, error) {
	txs, err := s.finance.Transactions.List(ctx)
	if err != nil {
		return Overview{}, err
	}
	budgets, err := s.finance.Budgets.List(ctx)
	if err != nil {
		return Overview{}, err
	}
	return Overview{
		KPIs:  views.ComputeKPIs(txs),
		Usage: views.CategorySpend(txs, budgets),
		Spent: views.SpentByCategory(txs),
	}, nil
}

// ExpenseSeries buckets expenses per day of the window around anchor.
func (s *Service) ExpenseSeries(ctx context.Context, r views.Range, anchor time.Time) ([]views.DayBucket, error) {
	txs, err := s.finance.Transactions.List(ctx)
	if err != nil {
		return nil, err
	}
	if anchor.IsZero() {
		anchor = s.opts.Now().UTC()
	}
	return views.ExpenseBuckets(r, anchor, txs), nil
}

// FilteredTasks lists tasks through the dashboard filter and ordering.
func (s *Service) FilteredTasks(ctx context.Context, f views.TaskFilter) ([]core.Task, error) {
	tasks, err := s.finance.Tasks.List(ctx)
	if err != nil {
		return nil, err
	}
	return views.FilterTasks(tasks, f, s.opts.Now().UTC()), nil
}
