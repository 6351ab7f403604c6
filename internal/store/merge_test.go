package store

import (
	"testing"

	"lifeboard/internal/core"
)

func TestMergeIsShallowAndKeepsID(t *testing.T) {
	task := core.Task{
		ID:       7,
		Title:    "old",
		Priority: core.PriorityLow,
		Subtasks: []core.Subtask{{ID: "a", Title: "one"}, {ID: "b", Title: "two"}},
	}
	got, err := Merge(task, Patch{
		"id":       99,
		"title":    "new",
		"subtasks": []any{map[string]any{"id": "c", "title": "three", "completed": true}},
	})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if got.ID != 7 {
		t.Fatalf("id changed to %d", got.ID)
	}
	if got.Title != "new" || got.Priority != core.PriorityLow {
		t.Fatalf("unexpected merge result: %+v", got)
	}
	if len(got.Subtasks) != 1 || got.Subtasks[0].ID != "c" || !got.Subtasks[0].Completed {
		t.Fatalf("subtasks should be replaced wholesale: %+v", got.Subtasks)
	}
}

func TestMergeRejectsWrongTypes(t *testing.T) {
	if _, err := Merge(core.Task{ID: 1}, Patch{"completed": "yes"}); err == nil {
		t.Fatalf("expected type error")
	}
}
