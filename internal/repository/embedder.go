package repository

import (
	"context"
	"errors"
)

// ErrMissingCredential marks a configuration problem (an absent API key)
// as opposed to a runtime API failure, so callers can fall back instead of
// retrying.
var ErrMissingCredential = errors.New("required API credential is not configured")

// Embedder generates semantic embedding vectors for a batch of texts.
// The returned slice is index-aligned with the input.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}
