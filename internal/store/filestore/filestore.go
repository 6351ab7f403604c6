// Package filestore keeps the finance entities in a single JSON document on
// disk. Every mutation reads the whole file, changes it and writes it back
// through a temp file and rename. The mutex serialises writers of one process
// only; two processes sharing the file can still lose updates.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"lifeboard/internal/core"
	"lifeboard/internal/store"
)

type document struct {
	Transactions []core.Transaction `json:"transactions"`
	Budgets      []core.Budget      `json:"budgets"`
	Cards        []core.Card        `json:"cards"`
	Installments []core.Installment `json:"installments"`
	Tasks        []core.Task        `json:"tasks"`
}

// Store is the file-backed finance store.
type Store struct {
	path   string
	mu     sync.Mutex
	lastID int64
	now    func() time.Time
	logger *slog.Logger
}

// Open prepares the data file, creating it with empty arrays when missing.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	s := &Store{
		path:   path,
		now:    time.Now,
		logger: slog.Default().With("component", "filestore"),
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := s.write(&document{}); err != nil {
			return nil, err
		}
		s.logger.Info("Created data file", "path", path)
	} else if err != nil {
		return nil, fmt.Errorf("stat data file: %w", err)
	}
	return s, nil
}

// Finance exposes the store through the persistence ports.
func (s *Store) Finance() store.Finance {
	return store.Finance{
		Transactions: &collection[core.Transaction]{
			s: s, name: "transaction",
			items: func(d *document) *[]core.Transaction { return &d.Transactions },
			id:    func(t *core.Transaction) *int64 { return &t.ID },
		},
		Budgets: &budgets{s: s},
		Cards: &collection[core.Card]{
			s: s, name: "card",
			items: func(d *document) *[]core.Card { return &d.Cards },
			id:    func(c *core.Card) *int64 { return &c.ID },
		},
		Installments: &collection[core.Installment]{
			s: s, name: "installment",
			items: func(d *document) *[]core.Installment { return &d.Installments },
			id:    func(i *core.Installment) *int64 { return &i.ID },
		},
		Tasks: &collection[core.Task]{
			s: s, name: "task",
			items: func(d *document) *[]core.Task { return &d.Tasks },
			id:    func(t *core.Task) *int64 { return &t.ID },
		},
	}
}

// Ping checks that the data file is readable.
func (s *Store) Ping(context.Context) error {
	_, err := s.read()
	return err
}

func (s *Store) read() (*document, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, core.Storage("read data file", err)
	}
	doc := &document{}
	if len(raw) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, core.Storage("decode data file", err)
	}
	return doc, nil
}

func (s *Store) write(doc *document) error {
	raw, err := json.MarshalIndent(normalize(doc), "", "  ")
	if err != nil {
		return core.Storage("encode data file", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return core.Storage("create temp file", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return core.Storage("write temp file", err)
	}
	if err := tmp.Close(); err != nil {
		return core.Storage("close temp file", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return core.Storage("replace data file", err)
	}
	return nil
}

// normalize keeps every top-level array present in the written document.
func normalize(doc *document) *document {
	if doc.Transactions == nil {
		doc.Transactions = []core.Transaction{}
	}
	if doc.Budgets == nil {
		doc.Budgets = []core.Budget{}
	}
	if doc.Cards == nil {
		doc.Cards = []core.Card{}
	}
	if doc.Installments == nil {
		doc.Installments = []core.Installment{}
	}
	if doc.Tasks == nil {
		doc.Tasks = []core.Task{}
	}
	return doc
}

// view runs fn against a fresh snapshot of the document.
func (s *Store) view(fn func(*document) error) error {
	doc, err := s.read()
	if err != nil {
		return err
	}
	return fn(doc)
}

// update runs a read-modify-write cycle. fn returning an error aborts the write.
func (s *Store) update(fn func(*document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	return s.write(doc)
}

// nextID returns a millisecond timestamp, bumped past the last issued id.
// Callers hold s.mu.
func (s *Store) nextID() int64 {
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

type collection[T any] struct {
	s     *Store
	name  string
	items func(*document) *[]T
	id    func(*T) *int64
}

func (c *collection[T]) List(context.Context) ([]T, error) {
	var out []T
	err := c.s.view(func(d *document) error {
		out = append([]T{}, *c.items(d)...)
		return nil
	})
	return out, err
}

func (c *collection[T]) Get(_ context.Context, id int64) (T, error) {
	var out T
	err := c.s.view(func(d *document) error {
		for _, item := range *c.items(d) {
			if *c.id(&item) == id {
				out = item
				return nil
			}
		}
		return core.NotFound(c.name, id)
	})
	return out, err
}

func (c *collection[T]) Insert(_ context.Context, item T) (T, error) {
	err := c.s.update(func(d *document) error {
		*c.id(&item) = c.s.nextID()
		items := c.items(d)
		*items = append(*items, item)
		return nil
	})
	return item, err
}

func (c *collection[T]) Update(_ context.Context, id int64, patch store.Patch) (T, error) {
	var out T
	err := c.s.update(func(d *document) error {
		items := *c.items(d)
		for i := range items {
			if *c.id(&items[i]) != id {
				continue
			}
			merged, err := store.Merge(items[i], patch)
			if err != nil {
				return core.Validation(fmt.Sprintf("invalid %s update: %v", c.name, err))
			}
			items[i] = merged
			out = merged
			return nil
		}
		return core.NotFound(c.name, id)
	})
	return out, err
}

func (c *collection[T]) Delete(_ context.Context, id int64) error {
	return c.s.update(func(d *document) error {
		items := c.items(d)
		kept := (*items)[:0]
		for _, item := range *items {
			if *c.id(&item) != id {
				kept = append(kept, item)
			}
		}
		*items = kept
		return nil
	})
}

type budgets struct {
	s *Store
}

func (b *budgets) List(context.Context) ([]core.Budget, error) {
	var out []core.Budget
	err := b.s.view(func(d *document) error {
		out = append([]core.Budget{}, d.Budgets...)
		return nil
	})
	return out, err
}

func (b *budgets) Get(_ context.Context, category string) (core.Budget, error) {
	var out core.Budget
	err := b.s.view(func(d *document) error {
		for _, bg := range d.Budgets {
			if bg.Category == category {
				out = bg
				return nil
			}
		}
		return core.NotFound("budget", category)
	})
	return out, err
}

func (b *budgets) Insert(_ context.Context, budget core.Budget) (core.Budget, error) {
	err := b.s.update(func(d *document) error {
		for _, bg := range d.Budgets {
			if bg.Category == budget.Category {
				return core.Conflict(fmt.Sprintf("Budget for category %s already exists", budget.Category))
			}
		}
		d.Budgets = append(d.Budgets, budget)
		return nil
	})
	return budget, err
}

func (b *budgets) Upsert(_ context.Context, budget core.Budget) (core.Budget, error) {
	err := b.s.update(func(d *document) error {
		for i := range d.Budgets {
			if d.Budgets[i].Category == budget.Category {
				d.Budgets[i] = budget
				return nil
			}
		}
		d.Budgets = append(d.Budgets, budget)
		return nil
	})
	return budget, err
}

func (b *budgets) Delete(_ context.Context, category string) error {
	return b.s.update(func(d *document) error {
		kept := d.Budgets[:0]
		for _, bg := range d.Budgets {
			if bg.Category != category {
				kept = append(kept, bg)
			}
		}
		d.Budgets = kept
		return nil
	})
}
