package repository

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested blob does not exist. Callers
// treat it as a normal condition, not a fault.
var ErrNotFound = errors.New("blob not found")

// BlobRepository is a key/value text store used for both checkpoint
// snapshots and rendered output documents, distinguished by key prefix.
type BlobRepository interface {
	// Put stores text under key, overwriting any existing value.
	Put(ctx context.Context, key, text string) error
	// Get retrieves the text stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// List returns every stored key.
	List(ctx context.Context) ([]string, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
