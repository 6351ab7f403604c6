package core

import (
	"errors"
	"net/http"
	"strings"
	"testing"
)

func strPtr(s string) *string { return &s }

func TestLastFour(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"4111111111111111", "1111"},
		{"4111 1111 1111 1234", "1234"},
		{"123", "123"},
		{"", ""},
		{"98765", "8765"},
	}
	for _, tc := range cases {
		if got := LastFour(tc.in); got != tc.want {
			t.Fatalf("LastFour(%q)=%q want %q", tc.in, got, tc.want)
		}
	}
}

func TestCardNormalizeTruncatesAnyLength(t *testing.T) {
	for _, n := range []string{"1", "12345", strings.Repeat("9", 40)} {
		c := Card{Number: n, Type: Credit}
		c.Normalize()
		if len([]rune(c.Number)) > 4 {
			t.Fatalf("number %q kept %d chars", n, len(c.Number))
		}
	}
	limit := 100.0
	c := Card{Number: "1234", Type: Debit, Limit: &limit}
	c.Normalize()
	if c.Limit != nil {
		t.Fatalf("debit card kept a limit")
	}
}

func TestHabitActiveOn(t *testing.T) {
	h := Habit{StartDate: "2024-01-10"}
	if h.ActiveOn("2024-01-09") {
		t.Fatalf("expected inactive before start")
	}
	for _, d := range []string{"2024-01-10", "2024-01-11", "2025-06-01"} {
		if !h.ActiveOn(d) {
			t.Fatalf("expected active on %s", d)
		}
	}

	h.ActiveFromDate = strPtr("2024-02-01")
	if h.ActiveOn("2024-01-20") {
		t.Fatalf("activeFromDate should override startDate")
	}

	h.ArchivedAt = strPtr("2024-03-01T10:00:00Z")
	if !h.ActiveOn("2024-02-29") {
		t.Fatalf("expected active the day before archival")
	}
	if h.ActiveOn("2024-03-01") {
		t.Fatalf("expected inactive on archival day")
	}
}

func TestTaskNormalize(t *testing.T) {
	cases := []struct {
		name          string
		in            Task
		wantStatus    TaskStatus
		wantCompleted bool
	}{
		{"defaults", Task{Title: "a"}, StatusTodo, false},
		{"completed implies done", Task{Title: "a", Completed: true}, StatusDone, true},
		{"done implies completed", Task{Title: "a", Status: StatusDone}, StatusDone, true},
		{"in progress kept", Task{Title: "a", Status: StatusInProgress}, StatusInProgress, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.in.Normalize()
			if tc.in.Status != tc.wantStatus || tc.in.Completed != tc.wantCompleted {
				t.Fatalf("got status=%s completed=%v", tc.in.Status, tc.in.Completed)
			}
			if tc.in.Priority != PriorityMedium || tc.in.Subtasks == nil {
				t.Fatalf("defaults not applied: %+v", tc.in)
			}
		})
	}
}

func TestTaskReconcile(t *testing.T) {
	cases := []struct {
		name          string
		merged        Task
		patch         map[string]any
		wantStatus    TaskStatus
		wantCompleted bool
	}{
		{"uncheck done task", Task{Title: "a", Status: StatusDone, Completed: false}, map[string]any{"completed": false}, StatusTodo, false},
		{"check task", Task{Title: "a", Status: StatusInProgress, Completed: true}, map[string]any{"completed": true}, StatusDone, true},
		{"uncheck keeps in progress", Task{Title: "a", Status: StatusInProgress, Completed: false}, map[string]any{"completed": false}, StatusInProgress, false},
		{"status leaves done", Task{Title: "a", Status: StatusTodo, Completed: true}, map[string]any{"status": "todo"}, StatusTodo, false},
		{"status to done", Task{Title: "a", Status: StatusDone}, map[string]any{"status": "done"}, StatusDone, true},
		{"unrelated field", Task{Title: "b", Status: StatusDone, Completed: true}, map[string]any{"title": "b"}, StatusDone, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.merged.Reconcile(tc.patch)
			if tc.merged.Status != tc.wantStatus || tc.merged.Completed != tc.wantCompleted {
				t.Fatalf("got status=%s completed=%v", tc.merged.Status, tc.merged.Completed)
			}
		})
	}
}

func TestValidateReportsMissingFields(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"transaction name", Transaction{Category: "Food", Date: "2024-01-01", Type: Expense}.Validate(), "name is required"},
		{"transaction type", Transaction{Name: "x", Category: "Food", Date: "2024-01-01", Type: "gift"}.Validate(), "type must be income or expense"},
		{"budget category", Budget{Limit: 1}.Validate(), "category is required"},
		{"card type", Card{BankName: "b", Holder: "h", Number: "1", Type: "gold"}.Validate(), "type must be debit or credit"},
		{"installment months", Installment{Name: "n", Provider: "p", StartDate: "2024-01-01"}.Validate(), "totalMonths must be positive"},
		{"task title", Task{}.Validate(), "title is required"},
		{"habit start", Habit{Title: "t", StartDate: "yesterday"}.Validate(), "startDate must be YYYY-MM-DD"},
		{"habit log id", HabitLog{Date: "2024-01-01"}.Validate(), "habitId is required"},
		{"task category name", TaskCategory{}.Validate(), "name is required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if !errors.Is(tc.err, ErrValidation) {
				t.Fatalf("expected validation error, got %v", tc.err)
			}
			if Message(tc.err) != tc.want {
				t.Fatalf("message=%q want %q", Message(tc.err), tc.want)
			}
		})
	}
}

func TestStatusCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ErrUnauthenticated, http.StatusUnauthorized},
		{NotFound("task", 3), http.StatusNotFound},
		{Conflict("duplicate"), http.StatusConflict},
		{Validation("bad"), http.StatusBadRequest},
		{Storage("write file", errors.New("disk full")), http.StatusInternalServerError},
		{ErrNotSupported, http.StatusMethodNotAllowed},
	}
	for _, tc := range cases {
		if got := StatusCode(tc.err); got != tc.want {
			t.Fatalf("StatusCode(%v)=%d want %d", tc.err, got, tc.want)
		}
	}
	if Message(Storage("write file", errors.New("disk full"))) != "Internal server error" {
		t.Fatalf("storage details leaked")
	}
	if Message(NotFound("task", 3)) != "task 3 not found" {
		t.Fatalf("unexpected not found message %q", Message(NotFound("task", 3)))
	}
}
