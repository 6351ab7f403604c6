package http

import (
	"context"
	"net/http"

	"lifeboard/internal/auth"
	"lifeboard/internal/core"
	"lifeboard/internal/store"
)

// Every handler here runs behind auth.Require, so the user id is always set.

func (s *Server) writeUserList(w http.ResponseWriter, r *http.Request, load func(context.Context) (any, error)) {
	v, err := load(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, v)
}

// Categories

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	s.writeUserList(w, r, list(func(ctx context.Context) ([]core.Category, error) {
		return s.svc.ListCategories(ctx, auth.UserID(ctx))
	}))
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	create(w, r, func(ctx context.Context, c core.Category) (core.Category, error) {
		return s.svc.CreateCategory(ctx, auth.UserID(ctx), c)
	})
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	update(w, r, func(ctx context.Context, id int64, patch store.Patch) (core.Category, error) {
		return s.svc.UpdateCategory(ctx, auth.UserID(ctx), id, patch)
	})
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	remove(w, r, func(ctx context.Context, id int64) error {
		return s.svc.DeleteCategory(ctx, auth.UserID(ctx), id)
	})
}

// Task categories

func (s *Server) handleListTaskCategories(w http.ResponseWriter, r *http.Request) {
	s.writeUserList(w, r, list(func(ctx context.Context) ([]core.TaskCategory, error) {
		return s.svc.ListTaskCategories(ctx, auth.UserID(ctx))
	}))
}

func (s *Server) handleCreateTaskCategory(w http.ResponseWriter, r *http.Request) {
	create(w, r, func(ctx context.Context, c core.TaskCategory) (core.TaskCategory, error) {
		return s.svc.CreateTaskCategory(ctx, auth.UserID(ctx), c)
	})
}

func (s *Server) handleUpdateTaskCategory(w http.ResponseWriter, r *http.Request) {
	update(w, r, func(ctx context.Context, id int64, patch store.Patch) (core.TaskCategory, error) {
		return s.svc.UpdateTaskCategory(ctx, auth.UserID(ctx), id, patch)
	})
}

func (s *Server) handleDeleteTaskCategory(w http.ResponseWriter, r *http.Request) {
	remove(w, r, func(ctx context.Context, id int64) error {
		return s.svc.DeleteTaskCategory(ctx, auth.UserID(ctx), id)
	})
}

// Habits

func (s *Server) handleListHabits(w http.ResponseWriter, r *http.Request) {
	s.writeUserList(w, r, list(func(ctx context.Context) ([]core.Habit, error) {
		return s.svc.ListHabits(ctx, auth.UserID(ctx))
	}))
}

func (s *Server) handleCreateHabit(w http.ResponseWriter, r *http.Request) {
	create(w, r, func(ctx context.Context, h core.Habit) (core.Habit, error) {
		return s.svc.CreateHabit(ctx, auth.UserID(ctx), h)
	})
}

func (s *Server) handleUpdateHabit(w http.ResponseWriter, r *http.Request) {
	update(w, r, func(ctx context.Context, id int64, patch store.Patch) (core.Habit, error) {
		return s.svc.UpdateHabit(ctx, auth.UserID(ctx), id, patch)
	})
}

// handleArchiveHabit soft-deletes: the habit keeps its logs and history.
func (s *Server) handleArchiveHabit(w http.ResponseWriter, r *http.Request) {
	remove(w, r, func(ctx context.Context, id int64) error {
		return s.svc.ArchiveHabit(ctx, auth.UserID(ctx), id)
	})
}

func (s *Server) handleLogHabit(w http.ResponseWriter, r *http.Request) {
	create(w, r, func(ctx context.Context, l core.HabitLog) (core.HabitLog, error) {
		return s.svc.LogHabit(ctx, auth.UserID(ctx), l)
	})
}

func (s *Server) handleHabitStats(w http.ResponseWriter, r *http.Request) {
	rng, err := ParseStatsRange(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	stats, err := s.svc.HabitStats(r.Context(), auth.UserID(r.Context()), rng.Start, rng.End)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, stats)
}
