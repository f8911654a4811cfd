// Package vectorstore provides similarity search over embedded document
// chunks, keyed by content-addressed ids for idempotent upserts.
package vectorstore

import (
	"context"
	"errors"
)

// Sentinel errors for vector store operations.
var (
	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmptyEntries indicates empty or nil entries.
	ErrEmptyEntries = errors.New("empty or nil entries")

	// ErrConnectionFailed indicates the backend is unreachable.
	ErrConnectionFailed = errors.New("failed to connect to vector store")
)

// Store is the interface for vector storage operations.
//
// Transport-agnostic: implementations can be embedded (chromem) or remote
// (Qdrant gRPC). The interface is scoped to what the ingestion and retrieval
// pipelines need: idempotent upsert by id, k-nearest-neighbor query, and
// existence checks for duplicate detection.
type Store interface {
	// EnsureCollection creates the backing collection if it does not exist.
	// vectorSize is the embedding dimension and must match the embedder.
	EnsureCollection(ctx context.Context, vectorSize int) error

	// Upsert inserts or overwrites entries by id. A second upsert with the
	// same id replaces the previous entry; entries are never duplicated.
	Upsert(ctx context.Context, entries []Entry) error

	// Query returns up to k entries nearest to vector, ordered by descending
	// similarity. An empty collection yields an empty result, not an error.
	Query(ctx context.Context, vector []float32, k int) ([]Match, error)

	// Exists reports whether an entry with the given id is stored.
	Exists(ctx context.Context, id string) (bool, error)

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)

	// Close releases the backend connection and resources.
	Close() error
}
