// Package embedding turns text into fixed-dimension vectors. A Provider wraps a remote
// OpenAI-compatible service and falls back to a deterministic local hash embedder.
package embedding

import (
	"context"
	"errors"
)

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// DefaultDimensions is used when no dimension is configured.
const DefaultDimensions = 128

var (
	// ErrNotConfigured is returned by the remote embedder when no API key is set.
	ErrNotConfigured = errors.New("embedding service not configured")
	// ErrDimensionMismatch is returned when a vector does not have the requested dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
