package core

import (
	"math"
	"strings"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"

	Debit  CardType = "debit"
	Credit CardType = "credit"

	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"

	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in-progress"
	StatusDone       TaskStatus = "done"
)

type (
	TransactionType string
	CardType        string
	Priority        string
	TaskStatus      string

	Transaction struct {
		ID       int64           `json:"id"`
		Name     string          `json:"name"`
		Category string          `json:"category"`
		Date     string          `json:"date"`
		Amount   float64         `json:"amount"`
		Type     TransactionType `json:"type"`
		Icon     string          `json:"icon"`
	}

	// Budget is keyed by Category; there is no separate id.
	Budget struct {
		Category string  `json:"category"`
		Limit    float64 `json:"limit"`
		Color    string  `json:"color,omitempty"`
	}

	Card struct {
		ID       int64    `json:"id"`
		BankName string   `json:"bankName"`
		Holder   string   `json:"holder"`
		Balance  float64  `json:"balance"`
		Limit    *float64 `json:"limit,omitempty"`
		Type     CardType `json:"type"`
		Number   string   `json:"number"`
		Expiry   string   `json:"expiry"`
		Pin      string   `json:"pin,omitempty"`
		Color    string   `json:"color"`
		IsFrozen bool     `json:"isFrozen"`
	}

	Installment struct {
		ID          int64   `json:"id"`
		Name        string  `json:"name"`
		Provider    string  `json:"provider"`
		TotalAmount float64 `json:"totalAmount"`
		PaidAmount  float64 `json:"paidAmount"`
		TotalMonths int     `json:"totalMonths"`
		PaidMonths  int     `json:"paidMonths"`
		StartDate   string  `json:"startDate"`
		Category    string  `json:"category"`
	}

	Subtask struct {
		ID        string `json:"id"`
		Title     string `json:"title"`
		Completed bool   `json:"completed"`
	}

	Task struct {
		ID        int64      `json:"id"`
		Title     string     `json:"title"`
		Category  string     `json:"category"`
		Priority  Priority   `json:"priority"`
		DueDate   string     `json:"dueDate"`
		Completed bool       `json:"completed"`
		Status    TaskStatus `json:"status"`
		Subtasks  []Subtask  `json:"subtasks"`
		Notes     string     `json:"notes"`
	}

	// Category is the per-user finance taxonomy.
	Category struct {
		ID               int64           `json:"id"`
		UserID           string          `json:"userId,omitempty"`
		Name             string          `json:"name"`
		Type             TransactionType `json:"type"`
		Icon             string          `json:"icon"`
		Color            string          `json:"color"`
		BudgetingEnabled bool            `json:"budgetingEnabled"`
	}

	TaskCategory struct {
		ID     int64  `json:"id"`
		UserID string `json:"userId,omitempty"`
		Name   string `json:"name"`
		Color  string `json:"color"`
		Icon   string `json:"icon"`
	}

	Habit struct {
		ID             int64   `json:"id"`
		UserID         string  `json:"userId,omitempty"`
		Title          string  `json:"title"`
		Description    string  `json:"description"`
		Icon           string  `json:"icon"`
		StartDate      string  `json:"startDate"`
		ActiveFromDate *string `json:"activeFromDate"`
		ArchivedAt     *string `json:"archivedAt"`
		Frequency      string  `json:"frequency"`
		GoalTarget     float64 `json:"goalTarget"`
	}

	// HabitLog holds at most one row per (HabitID, Date).
	HabitLog struct {
		ID             int64   `json:"id"`
		UserID         string  `json:"userId,omitempty"`
		HabitID        int64   `json:"habitId"`
		Date           string  `json:"date"`
		CompletedValue float64 `json:"completedValue"`
	}
)

func (t TransactionType) Valid() bool { return t == Income || t == Expense }

func (c CardType) Valid() bool { return c == Debit || c == Credit }

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return Validation("name is required")
	}
	if strings.TrimSpace(t.Category) == "" {
		return Validation("category is required")
	}
	if _, err := ParseDay(t.Date); err != nil {
		return Validation("date must be YYYY-MM-DD")
	}
	if !t.Type.Valid() {
		return Validation("type must be income or expense")
	}
	return nil
}

// Normalize stores the amount as a non-negative magnitude.
func (t *Transaction) Normalize() {
	t.Amount = math.Abs(t.Amount)
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return Validation("category is required")
	}
	if b.Limit < 0 {
		return Validation("limit must not be negative")
	}
	return nil
}

func (c Card) Validate() error {
	if strings.TrimSpace(c.BankName) == "" {
		return Validation("bankName is required")
	}
	if strings.TrimSpace(c.Holder) == "" {
		return Validation("holder is required")
	}
	if !c.Type.Valid() {
		return Validation("type must be debit or credit")
	}
	if strings.TrimSpace(c.Number) == "" {
		return Validation("number is required")
	}
	return nil
}

// Normalize enforces card storage rules: only the last four characters of the
// number are kept and debit cards carry no limit.
func (c *Card) Normalize() {
	c.Number = LastFour(c.Number)
	if c.Type == Debit {
		c.Limit = nil
	}
}

// LastFour returns at most the trailing four characters of s, ignoring spaces.
func LastFour(s string) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	r := []rune(s)
	if len(r) <= 4 {
		return s
	}
	return string(r[len(r)-4:])
}

func (i Installment) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return Validation("name is required")
	}
	if strings.TrimSpace(i.Provider) == "" {
		return Validation("provider is required")
	}
	if i.TotalAmount < 0 || i.PaidAmount < 0 {
		return Validation("amounts must not be negative")
	}
	if i.TotalMonths <= 0 {
		return Validation("totalMonths must be positive")
	}
	if i.PaidMonths < 0 || i.PaidMonths > i.TotalMonths {
		return Validation("paidMonths must be between 0 and totalMonths")
	}
	if _, err := ParseDay(i.StartDate); err != nil {
		return Validation("startDate must be YYYY-MM-DD")
	}
	return nil
}

// Remaining returns the amount still owed.
func (i Installment) Remaining() float64 {
	return math.Max(i.TotalAmount-i.PaidAmount, 0)
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return Validation("title is required")
	}
	if t.Priority != "" && !t.Priority.Valid() {
		return Validation("priority must be low, medium or high")
	}
	if t.Status != "" && !t.Status.Valid() {
		return Validation("status must be todo, in-progress or done")
	}
	if t.DueDate != "" {
		if _, err := ParseDay(t.DueDate); err != nil {
			return Validation("dueDate must be YYYY-MM-DD")
		}
	}
	return nil
}

// Reconcile runs after patch has been merged into t. When patch sets only
// one of completed and status, that field wins: completed moves status
// between todo and done, and status decides completed. Then it normalizes.
func (t *Task) Reconcile(patch map[string]any) {
	_, hasStatus := patch["status"]
	_, hasCompleted := patch["completed"]
	switch {
	case hasCompleted && !hasStatus:
		if t.Completed {
			t.Status = StatusDone
		} else if t.Status == StatusDone {
			t.Status = StatusTodo
		}
	case hasStatus && !hasCompleted:
		t.Completed = t.Status == StatusDone
	}
	t.Normalize()
}

// Normalize fills defaults and keeps Status and Completed in agreement.
func (t *Task) Normalize() {
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	switch {
	case t.Status == "" && t.Completed:
		t.Status = StatusDone
	case t.Status == "":
		t.Status = StatusTodo
	case t.Status == StatusDone:
		t.Completed = true
	case t.Completed:
		t.Status = StatusDone
	}
	if t.Subtasks == nil {
		t.Subtasks = []Subtask{}
	}
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return Validation("name is required")
	}
	if !c.Type.Valid() {
		return Validation("type must be income or expense")
	}
	return nil
}

func (c TaskCategory) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return Validation("name is required")
	}
	return nil
}

func (h Habit) Validate() error {
	if strings.TrimSpace(h.Title) == "" {
		return Validation("title is required")
	}
	if _, err := ParseDay(h.StartDate); err != nil {
		return Validation("startDate must be YYYY-MM-DD")
	}
	if h.ActiveFromDate != nil && *h.ActiveFromDate != "" {
		if _, err := ParseDay(*h.ActiveFromDate); err != nil {
			return Validation("activeFromDate must be YYYY-MM-DD")
		}
	}
	if h.GoalTarget < 0 {
		return Validation("goalTarget must not be negative")
	}
	return nil
}

// EffectiveStart is activeFromDate when set, otherwise startDate.
func (h Habit) EffectiveStart() string {
	if h.ActiveFromDate != nil && *h.ActiveFromDate != "" {
		return *h.ActiveFromDate
	}
	return h.StartDate
}

// ActiveOn reports whether day >= EffectiveStart and the habit was not yet
// archived on day. Days are YYYY-MM-DD, so lexical order is calendar order.
func (h Habit) ActiveOn(day string) bool {
	if day < h.EffectiveStart() {
		return false
	}
	if h.ArchivedAt != nil && *h.ArchivedAt != "" && day >= DayOf(*h.ArchivedAt) {
		return false
	}
	return true
}

// Archived reports whether the habit carries an archival marker.
func (h Habit) Archived() bool {
	return h.ArchivedAt != nil && *h.ArchivedAt != ""
}

func (l HabitLog) Validate() error {
	if l.HabitID <= 0 {
		return Validation("habitId is required")
	}
	if _, err := ParseDay(l.Date); err != nil {
		return Validation("date must be YYYY-MM-DD")
	}
	if l.CompletedValue < 0 {
		return Validation("completedValue must not be negative")
	}
	return nil
}
