// Package storage persists the ledger as an opaque blob under a single key.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by BlobStore.Get when the key is absent.
var ErrNotFound = errors.New("blob not found")

// BlobStore is a string-keyed byte store. Delete of an absent key is not an error.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}
