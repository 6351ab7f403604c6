package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"lifeboard/internal/casing"
	"lifeboard/internal/core"
	"lifeboard/internal/store"
)

// Finance exposes the finance tables through the persistence ports.
func (db *DB) Finance() store.Finance {
	return store.Finance{
		Transactions: &Unscoped[core.Transaction]{NewRepo[core.Transaction](NewTable(db, transactionsSchema))},
		Budgets:      &BudgetRepo{t: NewTable(db, budgetsSchema)},
		Cards:        &Unscoped[core.Card]{NewRepo[core.Card](NewTable(db, cardsSchema))},
		Installments: &Unscoped[core.Installment]{NewRepo[core.Installment](NewTable(db, installmentsSchema))},
		Tasks:        &Unscoped[core.Task]{NewRepo[core.Task](NewTable(db, tasksSchema))},
	}
}

// Personal exposes the user-scoped tables.
func (db *DB) Personal() store.Personal {
	return store.Personal{
		Categories:     NewRepo[core.Category](NewTable(db, categoriesSchema)),
		TaskCategories: NewRepo[core.TaskCategory](NewTable(db, taskCategoriesSchema)),
		Habits:         NewRepo[core.Habit](NewTable(db, habitsSchema)),
		HabitLogs:      &HabitLogRepo{t: NewTable(db, habitLogsSchema)},
	}
}

// Repo maps domain structs onto a Table. Key renaming between the struct's
// camelCase JSON fields and snake_case columns happens only here.
type Repo[T any] struct {
	t *Table
}

func NewRepo[T any](t *Table) *Repo[T] {
	return &Repo[T]{t: t}
}

func (r *Repo[T]) List(ctx context.Context, userID string) ([]T, error) {
	rows, err := r.t.Select(ctx, userID)
	if err != nil {
		return nil, err
	}
	return decodeRows[T](rows)
}

func (r *Repo[T]) Get(ctx context.Context, userID string, id int64) (T, error) {
	row, err := r.t.Get(ctx, userID, id)
	if err != nil {
		var zero T
		return zero, err
	}
	return decodeRow[T](row)
}

func (r *Repo[T]) Insert(ctx context.Context, userID string, item T) (T, error) {
	var zero T
	row, err := encodeRow(item)
	if err != nil {
		return zero, err
	}
	stored, err := r.t.Insert(ctx, userID, row)
	if err != nil {
		return zero, err
	}
	return decodeRow[T](stored)
}

func (r *Repo[T]) Update(ctx context.Context, userID string, id int64, patch store.Patch) (T, error) {
	var zero T
	row, err := encodeRow(map[string]any(patch))
	if err != nil {
		return zero, err
	}
	stored, err := r.t.Update(ctx, userID, id, row)
	if err != nil {
		return zero, err
	}
	return decodeRow[T](stored)
}

func (r *Repo[T]) Delete(ctx context.Context, userID string, id int64) error {
	return r.t.Delete(ctx, userID, id)
}

// Unscoped adapts a Repo over an unscoped table to store.Collection.
type Unscoped[T any] struct {
	r *Repo[T]
}

func (u *Unscoped[T]) List(ctx context.Context) ([]T, error) { return u.r.List(ctx, "") }

func (u *Unscoped[T]) Get(ctx context.Context, id int64) (T, error) { return u.r.Get(ctx, "", id) }

func (u *Unscoped[T]) Insert(ctx context.Context, item T) (T, error) {
	return u.r.Insert(ctx, "", item)
}

func (u *Unscoped[T]) Update(ctx context.Context, id int64, patch store.Patch) (T, error) {
	return u.r.Update(ctx, "", id, patch)
}

func (u *Unscoped[T]) Delete(ctx context.Context, id int64) error { return u.r.Delete(ctx, "", id) }

// BudgetRepo stores budgets keyed by category.
type BudgetRepo struct {
	t *Table
}

func (b *BudgetRepo) List(ctx context.Context) ([]core.Budget, error) {
	rows, err := b.t.Select(ctx, "")
	if err != nil {
		return nil, err
	}
	return decodeRows[core.Budget](rows)
}

func (b *BudgetRepo) Get(ctx context.Context, category string) (core.Budget, error) {
	row, err := b.t.Get(ctx, "", category)
	if err != nil {
		return core.Budget{}, err
	}
	return decodeRow[core.Budget](row)
}

func (b *BudgetRepo) Insert(ctx context.Context, budget core.Budget) (core.Budget, error) {
	row, err := encodeRow(budget)
	if err != nil {
		return core.Budget{}, err
	}
	stored, err := b.t.Insert(ctx, "", row)
	if err != nil {
		return core.Budget{}, err
	}
	return decodeRow[core.Budget](stored)
}

func (b *BudgetRepo) Upsert(ctx context.Context, budget core.Budget) (core.Budget, error) {
	row, err := encodeRow(budget)
	if err != nil {
		return core.Budget{}, err
	}
	if _, ok := row["color"]; !ok {
		row["color"] = ""
	}
	stored, err := b.t.Upsert(ctx, "", row, []string{"category"}, []string{"limit", "color"})
	if err != nil {
		return core.Budget{}, err
	}
	return decodeRow[core.Budget](stored)
}

func (b *BudgetRepo) Delete(ctx context.Context, category string) error {
	return b.t.Delete(ctx, "", category)
}

// HabitLogRepo keeps one log per habit and day.
type HabitLogRepo struct {
	t *Table
}

func (h *HabitLogRepo) Upsert(ctx context.Context, userID string, log core.HabitLog) (core.HabitLog, error) {
	row, err := encodeRow(log)
	if err != nil {
		return core.HabitLog{}, err
	}
	stored, err := h.t.Upsert(ctx, userID, row, []string{"habit_id", "date"}, []string{"completed_value"})
	if err != nil {
		return core.HabitLog{}, err
	}
	return decodeRow[core.HabitLog](stored)
}

func (h *HabitLogRepo) ListRange(ctx context.Context, userID, start, end string) ([]core.HabitLog, error) {
	rows, err := h.t.Select(ctx, userID,
		Cond{Column: "date", Op: ">=", Value: start},
		Cond{Column: "date", Op: "<=", Value: end},
	)
	if err != nil {
		return nil, err
	}
	return decodeRows[core.HabitLog](rows)
}

// encodeRow turns a struct or camelCase map into a snake_case Row. Values go
// through JSON so numbers arrive as float64 whatever their Go type was.
func encodeRow(v any) (Row, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode row: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode row: %w", err)
	}
	snake, _ := casing.ToSnake(fields).(map[string]any)
	return Row(snake), nil
}

func decodeRow[T any](row Row) (T, error) {
	var out T
	raw, err := json.Marshal(casing.ToCamel(map[string]any(row)))
	if err != nil {
		return out, core.Storage("encode row", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, core.Storage("decode row", err)
	}
	return out, nil
}

func decodeRows[T any](rows []Row) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		item, err := decodeRow[T](row)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}
