package http

import (
	"context"
	"net/http"

	"lifeboard/internal/core"
	"lifeboard/internal/services"
	"lifeboard/internal/store"
)

// create decodes a T, stores it through fn and answers with the stored record.
func create[T any](w http.ResponseWriter, r *http.Request, fn func(context.Context, T) (T, error)) {
	var in T
	if err := decodeBody(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	out, err := fn(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, out)
}

func update[T any](w http.ResponseWriter, r *http.Request, fn func(context.Context, int64, store.Patch) (T, error)) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	patch, err := decodePatch(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := fn(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, out)
}

// remove answers {"success":true} whether or not the record existed.
func remove(w http.ResponseWriter, r *http.Request, fn func(context.Context, int64) error) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := fn(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	SuccessResponse().Write(w)
}

func list[T any](fn func(context.Context) ([]T, error)) func(context.Context) (any, error) {
	return func(ctx context.Context) (any, error) {
		items, err := fn(ctx)
		if items == nil {
			items = []T{}
		}
		return items, err
	}
}

// Transactions

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	s.cached(w, r, services.ResourceTransactions, list(s.svc.ListTransactions))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	create(w, r, s.svc.CreateTransaction)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	remove(w, r, s.svc.DeleteTransaction)
}

// Budgets

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	s.cached(w, r, services.ResourceBudgets, list(s.svc.ListBudgets))
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	create(w, r, s.svc.CreateBudget)
}

func (s *Server) handleUpsertBudget(w http.ResponseWriter, r *http.Request) {
	patch, err := decodePatch(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := s.svc.UpsertBudget(r.Context(), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, b)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	category := sanitizeInput(r.PathValue("category"))
	if category == "" {
		writeError(w, r, core.Validation("category is required"))
		return
	}
	if err := s.svc.DeleteBudget(r.Context(), category); err != nil {
		writeError(w, r, err)
		return
	}
	SuccessResponse().Write(w)
}

// Cards

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	s.cached(w, r, services.ResourceCards, list(s.svc.ListCards))
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	create(w, r, s.svc.CreateCard)
}

func (s *Server) handleUpdateCard(w http.ResponseWriter, r *http.Request) {
	update(w, r, s.svc.UpdateCard)
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	remove(w, r, s.svc.DeleteCard)
}

// Installments

func (s *Server) handleListInstallments(w http.ResponseWriter, r *http.Request) {
	s.cached(w, r, services.ResourceInstallments, list(s.svc.ListInstallments))
}

func (s *Server) handleCreateInstallment(w http.ResponseWriter, r *http.Request) {
	create(w, r, s.svc.CreateInstallment)
}

func (s *Server) handleUpdateInstallment(w http.ResponseWriter, r *http.Request) {
	update(w, r, s.svc.UpdateInstallment)
}

func (s *Server) handleDeleteInstallment(w http.ResponseWriter, r *http.Request) {
	remove(w, r, s.svc.DeleteInstallment)
}

// Tasks

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	s.cached(w, r, services.ResourceTasks, list(s.svc.ListTasks))
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	create(w, r, s.svc.CreateTask)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	update(w, r, s.svc.UpdateTask)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	remove(w, r, s.svc.DeleteTask)
}
