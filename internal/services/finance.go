package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"lifeboard/internal/amqp"
	"lifeboard/internal/core"
	"lifeboard/internal/store"
)

func (s *Service) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	return s.finance.Transactions.List(ctx)
}

func (s *Service) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	t.Normalize()
	created, err := s.finance.Transactions.Insert(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	s.changed(ctx, ResourceTransactions, amqp.OpCreate, idString(created.ID), "")
	return created, nil
}

func (s *Service) DeleteTransaction(ctx context.Context, id int64) error {
	if err := s.finance.Transactions.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.changed(ctx, ResourceTransactions, amqp.OpDelete, idString(id), "")
	return nil
}

func (s *Service) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	return s.finance.Budgets.List(ctx)
}

// CreateBudget refuses a category that already has a budget with a
// validation error (400), unlike the 409 of task categories.
func (s *Service) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	exists := core.Validation(fmt.Sprintf("Budget for category %s already exists", b.Category))
	if _, err := s.finance.Budgets.Get(ctx, b.Category); err == nil {
		return core.Budget{}, exists
	} else if !errors.Is(err, core.ErrNotFound) {
		return core.Budget{}, fmt.Errorf("look up budget: %w", err)
	}
	created, err := s.finance.Budgets.Insert(ctx, b)
	if errors.Is(err, core.ErrConflict) {
		return core.Budget{}, exists
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}
	s.changed(ctx, ResourceBudgets, amqp.OpCreate, created.Category, "")
	return created, nil
}

// UpsertBudget shallow-merges patch into the budget for patch["category"],
// creating it when the category has none. Fields not sent are kept.
func (s *Service) UpsertBudget(ctx context.Context, patch store.Patch) (core.Budget, error) {
	category, _ := patch["category"].(string)
	current, err := s.finance.Budgets.Get(ctx, category)
	if errors.Is(err, core.ErrNotFound) {
		current = core.Budget{}
	} else if err != nil {
		return core.Budget{}, fmt.Errorf("look up budget: %w", err)
	}
	b, err := store.Merge(current, patch)
	if err != nil {
		return core.Budget{}, core.Validation(fmt.Sprintf("invalid budget: %v", err))
	}
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	saved, err := s.finance.Budgets.Upsert(ctx, b)
	if err != nil {
		return core.Budget{}, fmt.Errorf("upsert budget: %w", err)
	}
	s.changed(ctx, ResourceBudgets, amqp.OpUpdate, saved.Category, "")
	return saved, nil
}

func (s *Service) DeleteBudget(ctx context.Context, category string) error {
	if err := s.finance.Budgets.Delete(ctx, category); err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	s.changed(ctx, ResourceBudgets, amqp.OpDelete, category, "")
	return nil
}

func (s *Service) ListCards(ctx context.Context) ([]core.Card, error) {
	return s.finance.Cards.List(ctx)
}

// CreateCard keeps only the last four characters of the number.
func (s *Service) CreateCard(ctx context.Context, c core.Card) (core.Card, error) {
	c.Normalize()
	if err := c.Validate(); err != nil {
		return core.Card{}, err
	}
	created, err := s.finance.Cards.Insert(ctx, c)
	if err != nil {
		return core.Card{}, fmt.Errorf("create card: %w", err)
	}
	s.changed(ctx, ResourceCards, amqp.OpCreate, idString(created.ID), "")
	return created, nil
}

// UpdateCard is available only with ENABLE_CARD_UPDATES.
func (s *Service) UpdateCard(ctx context.Context, id int64, patch store.Patch) (core.Card, error) {
	if !s.opts.EnableCardUpdates {
		return core.Card{}, fmt.Errorf("update card: %w", core.ErrNotSupported)
	}
	current, err := s.finance.Cards.Get(ctx, id)
	if err != nil {
		return core.Card{}, err
	}
	merged, err := store.Merge(current, patch)
	if err != nil {
		return core.Card{}, core.Validation(fmt.Sprintf("invalid card update: %v", err))
	}
	merged.Normalize()
	if err := merged.Validate(); err != nil {
		return core.Card{}, err
	}
	full, err := patchOf(merged)
	if err != nil {
		return core.Card{}, err
	}
	if merged.Limit == nil {
		full["limit"] = nil
	}
	updated, err := s.finance.Cards.Update(ctx, id, full)
	if err != nil {
		return core.Card{}, fmt.Errorf("update card: %w", err)
	}
	s.changed(ctx, ResourceCards, amqp.OpUpdate, idString(id), "")
	return updated, nil
}

func (s *Service) DeleteCard(ctx context.Context, id int64) error {
	if err := s.finance.Cards.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	s.changed(ctx, ResourceCards, amqp.OpDelete, idString(id), "")
	return nil
}

func (s *Service) ListInstallments(ctx context.Context) ([]core.Installment, error) {
	return s.finance.Installments.List(ctx)
}

func (s *Service) CreateInstallment(ctx context.Context, i core.Installment) (core.Installment, error) {
	if err := i.Validate(); err != nil {
		return core.Installment{}, err
	}
	created, err := s.finance.Installments.Insert(ctx, i)
	if err != nil {
		return core.Installment{}, fmt.Errorf("create installment: %w", err)
	}
	s.changed(ctx, ResourceInstallments, amqp.OpCreate, idString(created.ID), "")
	return created, nil
}

// UpdateInstallment is available only with ENABLE_INSTALLMENT_UPDATES.
func (s *Service) UpdateInstallment(ctx context.Context, id int64, patch store.Patch) (core.Installment, error) {
	if !s.opts.EnableInstallmentUpdates {
		return core.Installment{}, fmt.Errorf("update installment: %w", core.ErrNotSupported)
	}
	current, err := s.finance.Installments.Get(ctx, id)
	if err != nil {
		return core.Installment{}, err
	}
	merged, err := store.Merge(current, patch)
	if err != nil {
		return core.Installment{}, core.Validation(fmt.Sprintf("invalid installment update: %v", err))
	}
	if err := merged.Validate(); err != nil {
		return core.Installment{}, err
	}
	full, err := patchOf(merged)
	if err != nil {
		return core.Installment{}, err
	}
	updated, err := s.finance.Installments.Update(ctx, id, full)
	if err != nil {
		return core.Installment{}, fmt.Errorf("update installment: %w", err)
	}
	s.changed(ctx, ResourceInstallments, amqp.OpUpdate, idString(id), "")
	return updated, nil
}

func (s *Service) DeleteInstallment(ctx context.Context, id int64) error {
	if err := s.finance.Installments.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete installment: %w", err)
	}
	s.changed(ctx, ResourceInstallments, amqp.OpDelete, idString(id), "")
	return nil
}

func (s *Service) ListTasks(ctx context.Context) ([]core.Task, error) {
	return s.finance.Tasks.List(ctx)
}

func (s *Service) CreateTask(ctx context.Context, t core.Task) (core.Task, error) {
	t.Normalize()
	assignSubtaskIDs(t.Subtasks)
	if err := t.Validate(); err != nil {
		return core.Task{}, err
	}
	created, err := s.finance.Tasks.Insert(ctx, t)
	if err != nil {
		return core.Task{}, fmt.Errorf("create task: %w", err)
	}
	s.changed(ctx, ResourceTasks, amqp.OpCreate, idString(created.ID), "")
	return created, nil
}

// UpdateTask shallow-merges patch and reports a missing id as not found.
// Toggling completed moves status between todo and done and vice versa.
func (s *Service) UpdateTask(ctx context.Context, id int64, patch store.Patch) (core.Task, error) {
	current, err := s.finance.Tasks.Get(ctx, id)
	if err != nil {
		return core.Task{}, err
	}
	merged, err := store.Merge(current, patch)
	if err != nil {
		return core.Task{}, core.Validation(fmt.Sprintf("invalid task update: %v", err))
	}
	merged.Reconcile(patch)
	assignSubtaskIDs(merged.Subtasks)
	if err := merged.Validate(); err != nil {
		return core.Task{}, err
	}
	full, err := patchOf(merged)
	if err != nil {
		return core.Task{}, err
	}
	updated, err := s.finance.Tasks.Update(ctx, id, full)
	if err != nil {
		return core.Task{}, fmt.Errorf("update task: %w", err)
	}
	s.changed(ctx, ResourceTasks, amqp.OpUpdate, idString(id), "")
	return updated, nil
}

func (s *Service) DeleteTask(ctx context.Context, id int64) error {
	if err := s.finance.Tasks.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	s.changed(ctx, ResourceTasks, amqp.OpDelete, idString(id), "")
	return nil
}

func assignSubtaskIDs(subtasks []core.Subtask) {
	for i := range subtasks {
		if subtasks[i].ID == "" {
			subtasks[i].ID = uuid.NewString()
		}
	}
}
