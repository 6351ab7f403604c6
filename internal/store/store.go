// Package store defines the persistence ports used by services. The same
// services run unchanged against the JSON file store or the SQL row store.
package store

import (
	"context"

	"lifeboard/internal/core"
)

// Patch is a shallow set of client-side (camelCase) fields to merge into a
// stored record. The "id" key is never applied.
type Patch map[string]any

type (
	// Collection is an id-keyed set of records that is not scoped to a user.
	Collection[T any] interface {
		List(ctx context.Context) ([]T, error)
		Get(ctx context.Context, id int64) (T, error)
		// Insert assigns the id and returns the stored record.
		Insert(ctx context.Context, item T) (T, error)
		// Update merges patch into the record; core.ErrNotFound if absent.
		Update(ctx context.Context, id int64, patch Patch) (T, error)
		// Delete is idempotent: deleting a missing id is not an error.
		Delete(ctx context.Context, id int64) error
	}

	// Budgets are keyed by category name.
	Budgets interface {
		List(ctx context.Context) ([]core.Budget, error)
		Get(ctx context.Context, category string) (core.Budget, error)
		// Insert fails with core.ErrConflict when the category exists.
		Insert(ctx context.Context, b core.Budget) (core.Budget, error)
		// Upsert creates the budget or replaces limit and color.
		Upsert(ctx context.Context, b core.Budget) (core.Budget, error)
		Delete(ctx context.Context, category string) error
	}

	// ScopedCollection constrains every read and write to rows owned by userID.
	// Ids owned by another user behave exactly like missing ids.
	ScopedCollection[T any] interface {
		List(ctx context.Context, userID string) ([]T, error)
		Get(ctx context.Context, userID string, id int64) (T, error)
		Insert(ctx context.Context, userID string, item T) (T, error)
		Update(ctx context.Context, userID string, id int64, patch Patch) (T, error)
		Delete(ctx context.Context, userID string, id int64) error
	}

	// HabitLogs holds at most one row per (habitId, date).
	HabitLogs interface {
		// Upsert overwrites completedValue of an existing (habitId, date) row.
		Upsert(ctx context.Context, userID string, log core.HabitLog) (core.HabitLog, error)
		// ListRange returns logs with start <= date <= end.
		ListRange(ctx context.Context, userID, start, end string) ([]core.HabitLog, error)
	}
)

// Finance bundles the file-capable entities.
type Finance struct {
	Transactions Collection[core.Transaction]
	Budgets      Budgets
	Cards        Collection[core.Card]
	Installments Collection[core.Installment]
	Tasks        Collection[core.Task]
}

// Personal bundles the user-scoped entities that live in the relational store.
type Personal struct {
	Categories     ScopedCollection[core.Category]
	TaskCategories ScopedCollection[core.TaskCategory]
	Habits         ScopedCollection[core.Habit]
	HabitLogs      HabitLogs
}
