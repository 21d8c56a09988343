package backend

import (
	"context"

	"fintrack/internal/amqp"
	"fintrack/internal/storage"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// BackendResult bundles everything the ledger needs to persist and announce
// its changes.
type BackendResult struct {
	Store     storage.BlobStore
	Bridge    *storage.Bridge
	Publisher *amqp.Client // nil when events are disabled or the broker is unreachable
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	LedgerKey string

	// File specific
	DataDirectory string

	// SQLite specific
	SQLiteDBPath string

	// Optional event outlet
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	FileBackend   BackendType = "file"
	SQLiteBackend BackendType = "sqlite"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, FileBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}
