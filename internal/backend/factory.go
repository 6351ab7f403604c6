package backend

import (
	"context"
	"errors"
	"fmt"

	"lifeboard/internal/amqp"
	"lifeboard/internal/log"
	"lifeboard/internal/storage"
	"lifeboard/internal/store/filestore"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Backend, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	db, err := storage.Open(ctx, config.Dialect, config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s database: %w", config.Dialect, err)
	}
	b := &Backend{
		Type:     config.Type,
		Personal: db.Personal(),
		DB:       db,
		pingers:  []func(context.Context) error{db.Ping},
	}

	switch config.Type {
	case SQLBackend:
		b.Finance = db.Finance()
	case FileBackend:
		fs, err := filestore.Open(config.DataFile)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize data file: %w", err)
		}
		b.Finance = fs.Finance()
		b.pingers = append(b.pingers, fs.Ping)
	}

	if config.AMQPURL != "" {
		events, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without change events", log.FieldError, err)
		} else {
			b.Events = events
			f.logger.Info("Initialized AMQP client", "exchange", config.AMQPExchange)
		}
	}

	b.Cleanup = func() error {
		var errs []error
		if b.Events != nil {
			errs = append(errs, b.Events.Close())
		}
		errs = append(errs, db.Close())
		return errors.Join(errs...)
	}

	f.logger.Info("Initialized backend",
		"finance", config.Type.String(),
		"dialect", string(config.Dialect),
		"events_enabled", b.Events != nil)
	return b, nil
}
