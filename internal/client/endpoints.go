package client

import (
	"context"
	"net/http"
	"net/url"

	"lifeboard/internal/core"
	"lifeboard/internal/views"
)

func (c *Client) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	return do[[]core.Transaction](ctx, c, http.MethodGet, "/api/transactions", nil)
}

func (c *Client) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	return do[core.Transaction](ctx, c, http.MethodPost, "/api/transactions", t)
}

func (c *Client) DeleteTransaction(ctx context.Context, id int64) error {
	return c.remove(ctx, idPath("/api/transactions", id))
}

func (c *Client) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	return do[[]core.Budget](ctx, c, http.MethodGet, "/api/budgets", nil)
}

// CreateBudget fails with status 400 when the category already has a budget.
func (c *Client) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	return do[core.Budget](ctx, c, http.MethodPost, "/api/budgets", b)
}

func (c *Client) UpsertBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	return do[core.Budget](ctx, c, http.MethodPut, "/api/budgets", b)
}

func (c *Client) DeleteBudget(ctx context.Context, category string) error {
	return c.remove(ctx, "/api/budgets/"+escape(category))
}

func (c *Client) ListCards(ctx context.Context) ([]core.Card, error) {
	return do[[]core.Card](ctx, c, http.MethodGet, "/api/cards", nil)
}

func (c *Client) CreateCard(ctx context.Context, card core.Card) (core.Card, error) {
	return do[core.Card](ctx, c, http.MethodPost, "/api/cards", card)
}

// UpdateCard fails with status 405 unless the server enables card updates.
func (c *Client) UpdateCard(ctx context.Context, id int64, p Patch) (core.Card, error) {
	return do[core.Card](ctx, c, http.MethodPut, idPath("/api/cards", id), p)
}

func (c *Client) DeleteCard(ctx context.Context, id int64) error {
	return c.remove(ctx, idPath("/api/cards", id))
}

func (c *Client) ListInstallments(ctx context.Context) ([]core.Installment, error) {
	return do[[]core.Installment](ctx, c, http.MethodGet, "/api/installments", nil)
}

func (c *Client) CreateInstallment(ctx context.Context, i core.Installment) (core.Installment, error) {
	return do[core.Installment](ctx, c, http.MethodPost, "/api/installments", i)
}

func (c *Client) UpdateInstallment(ctx context.Context, id int64, p Patch) (core.Installment, error) {
	return do[core.Installment](ctx, c, http.MethodPut, idPath("/api/installments", id), p)
}

func (c *Client) DeleteInstallment(ctx context.Context, id int64) error {
	return c.remove(ctx, idPath("/api/installments", id))
}

func (c *Client) ListTasks(ctx context.Context) ([]core.Task, error) {
	return do[[]core.Task](ctx, c, http.MethodGet, "/api/tasks", nil)
}

func (c *Client) CreateTask(ctx context.Context, t core.Task) (core.Task, error) {
	return do[core.Task](ctx, c, http.MethodPost, "/api/tasks", t)
}

func (c *Client) UpdateTask(ctx context.Context, id int64, p Patch) (core.Task, error) {
	return do[core.Task](ctx, c, http.MethodPut, idPath("/api/tasks", id), p)
}

func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	return c.remove(ctx, idPath("/api/tasks", id))
}

func (c *Client) ListCategories(ctx context.Context) ([]core.Category, error) {
	return do[[]core.Category](ctx, c, http.MethodGet, "/api/categories", nil)
}

func (c *Client) CreateCategory(ctx context.Context, cat core.Category) (core.Category, error) {
	return do[core.Category](ctx, c, http.MethodPost, "/api/categories", cat)
}

func (c *Client) UpdateCategory(ctx context.Context, id int64, p Patch) (core.Category, error) {
	return do[core.Category](ctx, c, http.MethodPut, idPath("/api/categories", id), p)
}

func (c *Client) DeleteCategory(ctx context.Context, id int64) error {
	return c.remove(ctx, idPath("/api/categories", id))
}

func (c *Client) ListTaskCategories(ctx context.Context) ([]core.TaskCategory, error) {
	return do[[]core.TaskCategory](ctx, c, http.MethodGet, "/api/task-categories", nil)
}

// CreateTaskCategory fails with status 409 when the name is taken.
func (c *Client) CreateTaskCategory(ctx context.Context, tc core.TaskCategory) (core.TaskCategory, error) {
	return do[core.TaskCategory](ctx, c, http.MethodPost, "/api/task-categories", tc)
}

func (c *Client) UpdateTaskCategory(ctx context.Context, id int64, p Patch) (core.TaskCategory, error) {
	return do[core.TaskCategory](ctx, c, http.MethodPut, idPath("/api/task-categories", id), p)
}

func (c *Client) DeleteTaskCategory(ctx context.Context, id int64) error {
	return c.remove(ctx, idPath("/api/task-categories", id))
}

func (c *Client) ListHabits(ctx context.Context) ([]core.Habit, error) {
	return do[[]core.Habit](ctx, c, http.MethodGet, "/api/habits", nil)
}

func (c *Client) CreateHabit(ctx context.Context, h core.Habit) (core.Habit, error) {
	return do[core.Habit](ctx, c, http.MethodPost, "/api/habits", h)
}

func (c *Client) UpdateHabit(ctx context.Context, id int64, p Patch) (core.Habit, error) {
	return do[core.Habit](ctx, c, http.MethodPut, idPath("/api/habits", id), p)
}

// ArchiveHabit is the DELETE verb; the habit is kept with archivedAt set.
func (c *Client) ArchiveHabit(ctx context.Context, id int64) error {
	return c.remove(ctx, idPath("/api/habits", id))
}

func (c *Client) LogHabit(ctx context.Context, l core.HabitLog) (core.HabitLog, error) {
	return do[core.HabitLog](ctx, c, http.MethodPost, "/api/habits/log", l)
}

func (c *Client) HabitStats(ctx context.Context, start, end string) (HabitStats, error) {
	q := url.Values{}
	q.Set("startDate", start)
	q.Set("endDate", end)
	return do[HabitStats](ctx, c, http.MethodGet, "/api/habits/stats?"+q.Encode(), nil)
}

func (c *Client) SetupStatus(ctx context.Context) (SetupStatus, error) {
	return do[SetupStatus](ctx, c, http.MethodGet, "/api/setup", nil)
}

func (c *Client) InitializeSetup(ctx context.Context) (SetupStatus, error) {
	return do[SetupStatus](ctx, c, http.MethodPost, "/api/setup", nil)
}

func (c *Client) BudgetOverview(ctx context.Context) (BudgetOverview, error) {
	return do[BudgetOverview](ctx, c, http.MethodGet, "/api/views/budgets", nil)
}

func (c *Client) ExpenseSeries(ctx context.Context, r views.Range) ([]views.DayBucket, error) {
	path := "/api/views/expenses"
	if r != "" {
		path += "?range=" + url.QueryEscape(string(r))
	}
	return do[[]views.DayBucket](ctx, c, http.MethodGet, path, nil)
}

func (c *Client) ExportSheets(ctx context.Context) (ExportResult, error) {
	return do[ExportResult](ctx, c, http.MethodPost, "/api/export/sheets", nil)
}
