package services

import (
	"context"
	"errors"
	"fmt"

	"lifeboard/internal/amqp"
	"lifeboard/internal/core"
	"lifeboard/internal/store"
	"lifeboard/internal/views"
)

// maxStatsDays bounds the habit stats range.
const maxStatsDays = 731

func requireUser(userID string) error {
	if userID == "" {
		return core.ErrUnauthenticated
	}
	return nil
}

func (s *Service) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.personal.Categories.List(ctx, userID)
}

func (s *Service) CreateCategory(ctx context.Context, userID string, c core.Category) (core.Category, error) {
	if err := requireUser(userID); err != nil {
		return core.Category{}, err
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	created, err := s.personal.Categories.Insert(ctx, userID, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	s.changed(ctx, ResourceCategories, amqp.OpCreate, idString(created.ID), userID)
	return created, nil
}

func (s *Service) UpdateCategory(ctx context.Context, userID string, id int64, patch store.Patch) (core.Category, error) {
	if err := requireUser(userID); err != nil {
		return core.Category{}, err
	}
	current, err := s.personal.Categories.Get(ctx, userID, id)
	if err != nil {
		return core.Category{}, err
	}
	merged, err := store.Merge(current, without(patch, "userId"))
	if err != nil {
		return core.Category{}, core.Validation(fmt.Sprintf("invalid category update: %v", err))
	}
	if err := merged.Validate(); err != nil {
		return core.Category{}, err
	}
	full, err := patchOf(merged)
	if err != nil {
		return core.Category{}, err
	}
	updated, err := s.personal.Categories.Update(ctx, userID, id, full)
	if err != nil {
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}
	s.changed(ctx, ResourceCategories, amqp.OpUpdate, idString(id), userID)
	return updated, nil
}

func (s *Service) DeleteCategory(ctx context.Context, userID string, id int64) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if err := s.personal.Categories.Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	s.changed(ctx, ResourceCategories, amqp.OpDelete, idString(id), userID)
	return nil
}

func (s *Service) ListTaskCategories(ctx context.Context, userID string) ([]core.TaskCategory, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.personal.TaskCategories.List(ctx, userID)
}

// CreateTaskCategory reports a duplicate name as a conflict (409).
func (s *Service) CreateTaskCategory(ctx context.Context, userID string, c core.TaskCategory) (core.TaskCategory, error) {
	if err := requireUser(userID); err != nil {
		return core.TaskCategory{}, err
	}
	if err := c.Validate(); err != nil {
		return core.TaskCategory{}, err
	}
	created, err := s.personal.TaskCategories.Insert(ctx, userID, c)
	if errors.Is(err, core.ErrConflict) {
		return core.TaskCategory{}, core.Conflict(fmt.Sprintf("Task category %q already exists", c.Name))
	}
	if err != nil {
		return core.TaskCategory{}, fmt.Errorf("create task category: %w", err)
	}
	s.changed(ctx, ResourceTaskCategories, amqp.OpCreate, idString(created.ID), userID)
	return created, nil
}

func (s *Service) UpdateTaskCategory(ctx context.Context, userID string, id int64, patch store.Patch) (core.TaskCategory, error) {
	if err := requireUser(userID); err != nil {
		return core.TaskCategory{}, err
	}
	current, err := s.personal.TaskCategories.Get(ctx, userID, id)
	if err != nil {
		return core.TaskCategory{}, err
	}
	merged, err := store.Merge(current, without(patch, "userId"))
	if err != nil {
		return core.TaskCategory{}, core.Validation(fmt.Sprintf("invalid task category update: %v", err))
	}
	if err := merged.Validate(); err != nil {
		return core.TaskCategory{}, err
	}
	full, err := patchOf(merged)
	if err != nil {
		return core.TaskCategory{}, err
	}
	updated, err := s.personal.TaskCategories.Update(ctx, userID, id, full)
	if errors.Is(err, core.ErrConflict) {
		return core.TaskCategory{}, core.Conflict(fmt.Sprintf("Task category %q already exists", merged.Name))
	}
	if err != nil {
		return core.TaskCategory{}, fmt.Errorf("update task category: %w", err)
	}
	s.changed(ctx, ResourceTaskCategories, amqp.OpUpdate, idString(id), userID)
	return updated, nil
}

func (s *Service) DeleteTaskCategory(ctx context.Context, userID string, id int64) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if err := s.personal.TaskCategories.Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("delete task category: %w", err)
	}
	s.changed(ctx, ResourceTaskCategories, amqp.OpDelete, idString(id), userID)
	return nil
}

func (s *Service) ListHabits(ctx context.Context, userID string) ([]core.Habit, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.personal.Habits.List(ctx, userID)
}

func (s *Service) CreateHabit(ctx context.Context, userID string, h core.Habit) (core.Habit, error) {
	if err := requireUser(userID); err != nil {
		return core.Habit{}, err
	}
	if h.StartDate == "" {
		h.StartDate = s.today()
	}
	if h.Frequency == "" {
		h.Frequency = "daily"
	}
	if h.GoalTarget == 0 {
		h.GoalTarget = 1
	}
	h.ArchivedAt = nil
	if err := h.Validate(); err != nil {
		return core.Habit{}, err
	}
	created, err := s.personal.Habits.Insert(ctx, userID, h)
	if err != nil {
		return core.Habit{}, fmt.Errorf("create habit: %w", err)
	}
	s.changed(ctx, ResourceHabits, amqp.OpCreate, idString(created.ID), userID)
	return created, nil
}

// UpdateHabit never touches archivedAt: archiving is one-way and only
// happens through ArchiveHabit.
func (s *Service) UpdateHabit(ctx context.Context, userID string, id int64, patch store.Patch) (core.Habit, error) {
	if err := requireUser(userID); err != nil {
		return core.Habit{}, err
	}
	current, err := s.personal.Habits.Get(ctx, userID, id)
	if err != nil {
		return core.Habit{}, err
	}
	merged, err := store.Merge(current, without(patch, "userId", "archivedAt"))
	if err != nil {
		return core.Habit{}, core.Validation(fmt.Sprintf("invalid habit update: %v", err))
	}
	if err := merged.Validate(); err != nil {
		return core.Habit{}, err
	}
	full, err := patchOf(merged)
	if err != nil {
		return core.Habit{}, err
	}
	updated, err := s.personal.Habits.Update(ctx, userID, id, without(full, "archivedAt"))
	if err != nil {
		return core.Habit{}, fmt.Errorf("update habit: %w", err)
	}
	s.changed(ctx, ResourceHabits, amqp.OpUpdate, idString(id), userID)
	return updated, nil
}

// ArchiveHabit soft-deletes a habit by stamping archivedAt with today. It is
// idempotent: an already archived habit keeps its original date, and a
// missing id is not an error.
func (s *Service) ArchiveHabit(ctx context.Context, userID string, id int64) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	current, err := s.personal.Habits.Get(ctx, userID, id)
	if errors.Is(err, core.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if current.Archived() {
		return nil
	}
	if _, err := s.personal.Habits.Update(ctx, userID, id, store.Patch{"archivedAt": s.today()}); err != nil {
		return fmt.Errorf("archive habit: %w", err)
	}
	s.changed(ctx, ResourceHabits, amqp.OpDelete, idString(id), userID)
	return nil
}

// LogHabit upserts the progress of a habit on one day.
func (s *Service) LogHabit(ctx context.Context, userID string, l core.HabitLog) (core.HabitLog, error) {
	if err := requireUser(userID); err != nil {
		return core.HabitLog{}, err
	}
	if err := l.Validate(); err != nil {
		return core.HabitLog{}, err
	}
	habit, err := s.personal.Habits.Get(ctx, userID, l.HabitID)
	if err != nil {
		return core.HabitLog{}, err
	}
	if !habit.ActiveOn(l.Date) {
		return core.HabitLog{}, core.Validation(fmt.Sprintf("habit %d is not active on %s", habit.ID, l.Date))
	}
	saved, err := s.personal.HabitLogs.Upsert(ctx, userID, l)
	if err != nil {
		return core.HabitLog{}, fmt.Errorf("log habit: %w", err)
	}
	s.changed(ctx, ResourceHabitLogs, amqp.OpUpdate, idString(saved.ID), userID)
	return saved, nil
}

// HabitStats is the payload of GET /api/habits/stats.
type HabitStats struct {
	DailyStats []views.DailyStat `json:"dailyStats"`
	Logs       []core.HabitLog   `json:"logs"`
	Habits     []core.Habit      `json:"habits"`
}

func (s *Service) HabitStats(ctx context.Context, userID, start, end string) (HabitStats, error) {
	if err := requireUser(userID); err != nil {
		return HabitStats{}, err
	}
	from, err := core.ParseDay(start)
	if err != nil {
		return HabitStats{}, core.Validation("startDate must be YYYY-MM-DD")
	}
	to, err := core.ParseDay(end)
	if err != nil {
		return HabitStats{}, core.Validation("endDate must be YYYY-MM-DD")
	}
	if to.Sub(from).Hours()/24 >= maxStatsDays {
		return HabitStats{}, core.Validation(fmt.Sprintf("date range must not exceed %d days", maxStatsDays))
	}

	habits, err := s.personal.Habits.List(ctx, userID)
	if err != nil {
		return HabitStats{}, err
	}
	logs, err := s.personal.HabitLogs.ListRange(ctx, userID, start, end)
	if err != nil {
		return HabitStats{}, err
	}
	daily, err := views.HabitDailyStats(habits, logs, start, end)
	if err != nil {
		return HabitStats{}, err
	}
	if logs == nil {
		logs = []core.HabitLog{}
	}
	return HabitStats{DailyStats: daily, Logs: logs, Habits: habits}, nil
}
