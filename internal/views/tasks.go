package views

import (
	"slices"
	"sort"
	"time"

	"lifeboard/internal/core"
)

// Basic filter selections.
const (
	ShowAll          = "all"
	ShowHighPriority = "high-priority"
	ShowActive       = "active"
	ShowCompleted    = "completed"

	WindowAny       = "any"
	WindowToday     = "today"
	WindowThisWeek  = "this-week"
	WindowThisMonth = "this-month"
)

// TaskFilter holds both filter modes. When any advanced field is set the
// basic fields are ignored.
type TaskFilter struct {
	Show   string `json:"show,omitempty"`
	Window string `json:"window,omitempty"`

	Priorities []core.Priority   `json:"priorities,omitempty"`
	Statuses   []core.TaskStatus `json:"statuses,omitempty"`
	Categories []string          `json:"categories,omitempty"`
	From       string            `json:"from,omitempty"`
	To         string            `json:"to,omitempty"`
}

// Advanced reports whether the advanced mode is in effect.
func (f TaskFilter) Advanced() bool {
	return len(f.Priorities) > 0 || len(f.Statuses) > 0 || len(f.Categories) > 0 || f.From != "" || f.To != ""
}

// FilterTasks applies f and orders the result: incomplete before completed,
// then newest (highest id) first within each group. The input is not modified.
func FilterTasks(tasks []core.Task, f TaskFilter, now time.Time) []core.Task {
	keep := f.basic(now)
	if f.Advanced() {
		keep = f.advanced
	}
	out := make([]core.Task, 0, len(tasks))
	for _, t := range tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Completed != out[j].Completed {
			return !out[i].Completed
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (f TaskFilter) advanced(t core.Task) bool {
	if len(f.Priorities) > 0 && !slices.Contains(f.Priorities, t.Priority) {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, t.Status) {
		return false
	}
	if len(f.Categories) > 0 && !slices.Contains(f.Categories, t.Category) {
		return false
	}
	if f.From != "" || f.To != "" {
		if t.DueDate == "" {
			return false
		}
		if f.From != "" && t.DueDate < f.From {
			return false
		}
		if f.To != "" && t.DueDate > f.To {
			return false
		}
	}
	return true
}

func (f TaskFilter) basic(now time.Time) func(core.Task) bool {
	var from, to string
	switch f.Window {
	case WindowToday:
		from = core.FormatDay(now)
		to = from
	case WindowThisWeek:
		start, days := Bounds(Week, now)
		from, to = core.FormatDay(start), core.FormatDay(start.AddDate(0, 0, days-1))
	case WindowThisMonth:
		start, days := Bounds(Month, now)
		from, to = core.FormatDay(start), core.FormatDay(start.AddDate(0, 0, days-1))
	}

	return func(t core.Task) bool {
		switch f.Show {
		case ShowHighPriority:
			if t.Priority != core.PriorityHigh {
				return false
			}
		case ShowActive:
			if t.Completed {
				return false
			}
		case ShowCompleted:
			if !t.Completed {
				return false
			}
		}
		if from == "" {
			return true
		}
		return t.DueDate != "" && t.DueDate >= from && t.DueDate <= to
	}
}
