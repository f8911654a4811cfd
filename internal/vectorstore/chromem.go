package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"github.com/lexbase/knowledged/internal/logging"
)

// ChromemConfig configures the embedded chromem-go store.
type ChromemConfig struct {
	// Path is the on-disk persistence directory. Empty means in-memory only.
	Path string

	// Collection is the collection holding document chunks.
	Collection string

	// Compress enables gzip compression of persisted documents.
	Compress bool
}

// Validate validates the configuration.
func (c *ChromemConfig) Validate() error {
	if c.Collection == "" {
		return fmt.Errorf("%w: collection is required", ErrInvalidConfig)
	}
	return nil
}

// ChromemStore implements Store on the embedded chromem-go database. It needs
// no external service, which makes it the default backend for local
// deployments and tests.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	config     ChromemConfig
	logger     *logging.Logger
}

// NewChromemStore opens (or creates) the database and collection.
func NewChromemStore(config ChromemConfig, logger *logging.Logger) (*ChromemStore, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		db  *chromem.DB
		err error
	)
	if config.Path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(config.Path, config.Compress)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
		}
	}

	// Vectors are always computed upstream and passed in explicitly, so the
	// collection's own embedding func must never run.
	collection, err := db.GetOrCreateCollection(config.Collection, nil, rejectEmbedding)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	logger.Info(context.Background(), "chromem store opened",
		zap.String("collection", config.Collection),
		zap.String("path", config.Path),
		zap.Int("documents", collection.Count()),
	)

	return &ChromemStore{
		db:         db,
		collection: collection,
		config:     config,
		logger:     logger,
	}, nil
}

func rejectEmbedding(_ context.Context, _ string) ([]float32, error) {
	return nil, errors.New("embeddings must be supplied with the entry")
}

// EnsureCollection is a no-op for chromem: the collection is created on open
// and chromem infers the vector size from the first document.
func (s *ChromemStore) EnsureCollection(_ context.Context, _ int) error {
	return nil
}

// Upsert inserts or overwrites documents by id.
func (s *ChromemStore) Upsert(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return ErrEmptyEntries
	}

	docs := make([]chromem.Document, len(entries))
	for i, entry := range entries {
		docs[i] = chromem.Document{
			ID:        entry.ID,
			Metadata:  entry.Payload.StringMap(),
			Embedding: entry.Vector,
			Content:   entry.Payload.Text,
		}
	}

	return s.collection.AddDocuments(ctx, docs, 1)
}

// Query performs similarity search and returns matches in descending
// similarity order.
func (s *ChromemStore) Query(ctx context.Context, vector []float32, k int) ([]Match, error) {
	// chromem rejects queries asking for more results than stored documents.
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	results, err := s.collection.QueryEmbedding(ctx, vector, k, nil, nil)
	if err != nil {
		return nil, err
	}

	matches := make([]Match, len(results))
	for i, result := range results {
		matches[i] = Match{
			Score:   result.Similarity,
			Payload: PayloadFromStringMap(result.Metadata),
		}
	}
	return matches, nil
}

// Exists reports whether a document with the given id is stored.
func (s *ChromemStore) Exists(ctx context.Context, id string) (bool, error) {
	_, err := s.collection.GetByID(ctx, id)
	if err != nil {
		// chromem has no sentinel for unknown ids; it formats the error as
		// "document with ID '...' not found". Anything else is a real
		// failure and must not be mistaken for absence.
		if strings.Contains(err.Error(), "not found") {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Count returns the number of stored documents.
func (s *ChromemStore) Count(_ context.Context) (int, error) {
	return s.collection.Count(), nil
}

// Close is a no-op: chromem persists synchronously on every write.
func (s *ChromemStore) Close() error {
	return nil
}

// Ensure ChromemStore implements Store.
var _ Store = (*ChromemStore)(nil)
