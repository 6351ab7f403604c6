package client

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"lifeboard/internal/core"
	"lifeboard/internal/querycache"
	"lifeboard/internal/store"
	"lifeboard/internal/views"
)

// Query keys, one per server collection.
const (
	KeyTransactions   = "transactions"
	KeyBudgets        = "budgets"
	KeyCards          = "cards"
	KeyInstallments   = "installments"
	KeyTasks          = "tasks"
	KeyCategories     = "categories"
	KeyTaskCategories = "task-categories"
	KeyHabits         = "habits"
	KeySetup          = "setup"
)

// Dashboard reads collections through a query cache. Task updates are applied
// optimistically; every other mutation invalidates its key once the server
// accepts it.
type Dashboard struct {
	api   *Client
	cache *querycache.Cache
	now   func() time.Time
}

func NewDashboard(api *Client, cache *querycache.Cache) *Dashboard {
	return &Dashboard{api: api, cache: cache, now: time.Now}
}

// Cache exposes the underlying query cache.
func (d *Dashboard) Cache() *querycache.Cache { return d.cache }

func (d *Dashboard) Transactions(ctx context.Context) ([]core.Transaction, error) {
	return querycache.Fetch(ctx, d.cache, KeyTransactions, d.api.ListTransactions)
}

func (d *Dashboard) Budgets(ctx context.Context) ([]core.Budget, error) {
	return querycache.Fetch(ctx, d.cache, KeyBudgets, d.api.ListBudgets)
}

func (d *Dashboard) Cards(ctx context.Context) ([]core.Card, error) {
	return querycache.Fetch(ctx, d.cache, KeyCards, d.api.ListCards)
}

func (d *Dashboard) Installments(ctx context.Context) ([]core.Installment, error) {
	return querycache.Fetch(ctx, d.cache, KeyInstallments, d.api.ListInstallments)
}

func (d *Dashboard) Tasks(ctx context.Context) ([]core.Task, error) {
	return querycache.Fetch(ctx, d.cache, KeyTasks, d.api.ListTasks)
}

func (d *Dashboard) Categories(ctx context.Context) ([]core.Category, error) {
	return querycache.Fetch(ctx, d.cache, KeyCategories, d.api.ListCategories)
}

func (d *Dashboard) TaskCategories(ctx context.Context) ([]core.TaskCategory, error) {
	return querycache.Fetch(ctx, d.cache, KeyTaskCategories, d.api.ListTaskCategories)
}

func (d *Dashboard) Habits(ctx context.Context) ([]core.Habit, error) {
	return querycache.Fetch(ctx, d.cache, KeyHabits, d.api.ListHabits)
}

func (d *Dashboard) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	return querycache.Mutate(ctx, d.cache, func(ctx context.Context) (core.Transaction, error) {
		return d.api.CreateTransaction(ctx, t)
	}, KeyTransactions)
}

func (d *Dashboard) DeleteTransaction(ctx context.Context, id int64) error {
	_, err := querycache.Mutate(ctx, d.cache, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, d.api.DeleteTransaction(ctx, id)
	}, KeyTransactions)
	return err
}

func (d *Dashboard) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	return querycache.Mutate(ctx, d.cache, func(ctx context.Context) (core.Budget, error) {
		return d.api.CreateBudget(ctx, b)
	}, KeyBudgets, KeySetup)
}

func (d *Dashboard) UpsertBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	return querycache.Mutate(ctx, d.cache, func(ctx context.Context) (core.Budget, error) {
		return d.api.UpsertBudget(ctx, b)
	}, KeyBudgets, KeySetup)
}

func (d *Dashboard) DeleteBudget(ctx context.Context, category string) error {
	_, err := querycache.Mutate(ctx, d.cache, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, d.api.DeleteBudget(ctx, category)
	}, KeyBudgets, KeySetup)
	return err
}

func (d *Dashboard) CreateCard(ctx context.Context, c core.Card) (core.Card, error) {
	return querycache.Mutate(ctx, d.cache, func(ctx context.Context) (core.Card, error) {
		return d.api.CreateCard(ctx, c)
	}, KeyCards)
}

func (d *Dashboard) DeleteCard(ctx context.Context, id int64) error {
	_, err := querycache.Mutate(ctx, d.cache, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, d.api.DeleteCard(ctx, id)
	}, KeyCards)
	return err
}

func (d *Dashboard) CreateInstallment(ctx context.Context, i core.Installment) (core.Installment, error) {
	return querycache.Mutate(ctx, d.cache, func(ctx context.Context) (core.Installment, error) {
		return d.api.CreateInstallment(ctx, i)
	}, KeyInstallments)
}

func (d *Dashboard) UpdateInstallment(ctx context.Context, id int64, p Patch) (core.Installment, error) {
	return querycache.Mutate(ctx, d.cache, func(ctx context.Context) (core.Installment, error) {
		return d.api.UpdateInstallment(ctx, id, p)
	}, KeyInstallments)
}

func (d *Dashboard) DeleteInstallment(ctx context.Context, id int64) error {
	_, err := querycache.Mutate(ctx, d.cache, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, d.api.DeleteInstallment(ctx, id)
	}, KeyInstallments)
	return err
}

func (d *Dashboard) CreateTask(ctx context.Context, t core.Task) (core.Task, error) {
	return querycache.Mutate(ctx, d.cache, func(ctx context.Context) (core.Task, error) {
		return d.api.CreateTask(ctx, t)
	}, KeyTasks)
}

// UpdateTask shows the patched task in the cached list before the server
// answers and restores the previous list if the request fails.
func (d *Dashboard) UpdateTask(ctx context.Context, id int64, p Patch) (core.Task, error) {
	apply := func(tasks []core.Task) []core.Task {
		out := make([]core.Task, len(tasks))
		copy(out, tasks)
		for i := range out {
			if out[i].ID != id {
				continue
			}
			merged, err := store.Merge(out[i], store.Patch(p))
			if err != nil {
				return out
			}
			merged.Reconcile(p)
			out[i] = merged
		}
		return out
	}
	return querycache.MutateOptimistic(ctx, d.cache, KeyTasks, apply, func(ctx context.Context) (core.Task, error) {
		return d.api.UpdateTask(ctx, id, p)
	})
}

func (d *Dashboard) DeleteTask(ctx context.Context, id int64) error {
	_, err := querycache.Mutate(ctx, d.cache, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, d.api.DeleteTask(ctx, id)
	}, KeyTasks)
	return err
}

func (d *Dashboard) CreateTaskCategory(ctx context.Context, tc core.TaskCategory) (core.TaskCategory, error) {
	return querycache.Mutate(ctx, d.cache, func(ctx context.Context) (core.TaskCategory, error) {
		return d.api.CreateTaskCategory(ctx, tc)
	}, KeyTaskCategories)
}

func (d *Dashboard) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	return querycache.Mutate(ctx, d.cache, func(ctx context.Context) (core.Category, error) {
		return d.api.CreateCategory(ctx, c)
	}, KeyCategories)
}

func (d *Dashboard) CreateHabit(ctx context.Context, h core.Habit) (core.Habit, error) {
	return querycache.Mutate(ctx, d.cache, func(ctx context.Context) (core.Habit, error) {
		return d.api.CreateHabit(ctx, h)
	}, KeyHabits)
}

func (d *Dashboard) ArchiveHabit(ctx context.Context, id int64) error {
	_, err := querycache.Mutate(ctx, d.cache, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, d.api.ArchiveHabit(ctx, id)
	}, KeyHabits)
	return err
}

// Usage recomputes budget usage from the cached transactions and budgets,
// loading both in parallel when either is stale.
func (d *Dashboard) Usage(ctx context.Context) ([]views.BudgetUsage, views.KPIs, error) {
	var (
		txs     []core.Transaction
		budgets []core.Budget
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		txs, err = d.Transactions(gctx)
		return err
	})
	g.Go(func() (err error) {
		budgets, err = d.Budgets(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, views.KPIs{}, err
	}
	return views.CategorySpend(txs, budgets), views.ComputeKPIs(txs), nil
}

// VisibleTasks applies a task filter to the cached task list.
func (d *Dashboard) VisibleTasks(ctx context.Context, f views.TaskFilter) ([]core.Task, error) {
	tasks, err := d.Tasks(ctx)
	if err != nil {
		return nil, err
	}
	return views.FilterTasks(tasks, f, d.now()), nil
}
