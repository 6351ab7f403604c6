// Package services carries the per-resource rules of the dashboard: which
// writes validate what, which resources upsert and which report missing
// records, and which updates are switched off by configuration. Handlers stay
// thin and the same rules apply over the file store and the SQL store.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"lifeboard/internal/amqp"
	"lifeboard/internal/log"
	"lifeboard/internal/store"
)

// Resource names used in change events and cache keys.
const (
	ResourceTransactions   = "transactions"
	ResourceBudgets        = "budgets"
	ResourceCards          = "cards"
	ResourceInstallments   = "installments"
	ResourceTasks          = "tasks"
	ResourceCategories     = "categories"
	ResourceTaskCategories = "task-categories"
	ResourceHabits         = "habits"
	ResourceHabitLogs      = "habit-logs"
)

// EventPublisher fans change events out to other instances.
type EventPublisher interface {
	PublishChange(ctx context.Context, ev amqp.ChangeEvent) error
}

type Options struct {
	EnableCardUpdates        bool
	EnableInstallmentUpdates bool

	// Publisher is optional; without it changes stay local.
	Publisher EventPublisher
	// OnChange observes every successful mutation in this process.
	OnChange func(amqp.ChangeEvent)

	Logger *log.Logger
	Now    func() time.Time
}

// Service implements every resource operation.
type Service struct {
	finance  store.Finance
	personal store.Personal
	opts     Options
	logger   *log.Logger
	events   *log.StructuredLogger
}

func New(finance store.Finance, personal store.Personal, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger.WithComponent(log.ComponentService)
	return &Service{
		finance:  finance,
		personal: personal,
		opts:     opts,
		logger:   logger,
		events:   log.NewStructuredLogger(logger),
	}
}

// today is the current UTC date.
func (s *Service) today() string {
	return s.opts.Now().UTC().Format("2006-01-02")
}

// changed records a successful mutation. Publishing failures never fail the
// request: the write already happened.
func (s *Service) changed(ctx context.Context, resource, op, id, userID string) {
	ev := amqp.NewChangeEvent(resource, op, id, userID)
	s.events.LogMutation(ctx, resource, op, id, userID)

	if s.opts.OnChange != nil {
		s.opts.OnChange(*ev)
	}
	if s.opts.Publisher == nil {
		return
	}
	if err := s.opts.Publisher.PublishChange(ctx, *ev); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish change event",
			log.FieldResource, resource,
			log.FieldOperation, op,
			log.FieldError, err)
	}
}

func idString(id int64) string {
	return strconv.FormatInt(id, 10)
}

// patchOf flattens a record into a full-field patch.
func patchOf(v any) (store.Patch, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode patch: %w", err)
	}
	p := store.Patch{}
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode patch: %w", err)
	}
	return p, nil
}

// without returns a copy of p lacking keys.
func without(p store.Patch, keys ...string) store.Patch {
	out := make(store.Patch, len(p))
	for k, v := range p {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}
