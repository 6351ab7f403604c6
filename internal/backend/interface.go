// Package backend assembles the stores and the optional event bus selected
// by configuration.
package backend

import (
	"context"
	"errors"

	"lifeboard/internal/amqp"
	"lifeboard/internal/storage"
	"lifeboard/internal/store"
)

// CleanupFunc releases resources held by a Backend.
type CleanupFunc func() error

// Backend bundles the finance and personal stores. Personal entities always
// live in DB; Finance lives in DB or in the JSON file.
type Backend struct {
	Type     BackendType
	Finance  store.Finance
	Personal store.Personal
	DB       *storage.DB
	// Events is nil when no broker is configured or reachable.
	Events  *amqp.Client
	Cleanup CleanupFunc

	pingers []func(context.Context) error
}

// Ping checks every underlying store for readiness probes.
func (b *Backend) Ping(ctx context.Context) error {
	var errs []error
	for _, p := range b.pingers {
		if err := p(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Backend, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// File backend
	DataFile string

	// SQL store, used by both backend types
	Dialect storage.Dialect
	DSN     string

	// Optional change-event bus
	AMQPURL      string
	AMQPExchange string
}

// BackendType names where finance entities are stored.
type BackendType string

const (
	FileBackend BackendType = "file"
	SQLBackend  BackendType = "sql"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case FileBackend, SQLBackend:
		return true
	default:
		return false
	}
}
