package backend

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	store, err := f.createStore(config)
	if err != nil {
		return nil, err
	}

	result := &BackendResult{
		Store:  store,
		Bridge: storage.NewBridge(store, config.LedgerKey, f.logger),
	}

	// Events are optional; an unreachable broker only disables them.
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		} else {
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			result.Publisher = client
		}
	}

	result.Cleanup = func() error {
		var errs []error
		if result.Publisher != nil {
			errs = append(errs, result.Publisher.Close())
		}
		errs = append(errs, store.Close())
		return errors.Join(errs...)
	}

	f.logger.InfoContext(ctx, "Initialized ledger backend",
		log.FieldBackend, config.Type.String(),
		log.FieldBlobKey, result.Bridge.Key(),
		"events_enabled", result.Publisher != nil)
	return result, nil
}

func (f *DefaultFactory) createStore(config Config) (storage.BlobStore, error) {
	switch config.Type {
	case MemoryBackend:
		return storage.NewMemoryBlobStore(), nil
	case FileBackend:
		store, err := storage.NewFileBlobStore(config.DataDirectory)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize file store: %w", err)
		}
		return store, nil
	case SQLiteBackend:
		store, err := storage.NewSQLiteBlobStore(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
