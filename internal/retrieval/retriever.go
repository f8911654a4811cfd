// Package retrieval turns a question into a ranked context block: embed the
// question, query the vector store for the nearest chunks and concatenate
// their text in descending similarity order.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/lexbase/knowledged/internal/embeddings"
	"github.com/lexbase/knowledged/internal/logging"
	"github.com/lexbase/knowledged/internal/vectorstore"
)

// DefaultTopK is the number of nearest chunks retrieved per question.
const DefaultTopK = 5

// ErrRetrievalUnavailable indicates the embedding service or vector store
// could not serve the query.
var ErrRetrievalUnavailable = errors.New("retrieval unavailable")

// NotReadyMessage is the user-facing reply when no documents have been
// ingested yet. The service answers Thai-speaking users, so the message is
// Thai.
const NotReadyMessage = "ขออภัยค่ะ ระบบยังไม่มีฐานความรู้ กรุณาอัปโหลดเอกสารก่อนสอบถาม"

// matchDelimiter separates chunks inside the assembled context block.
const matchDelimiter = "\n\n---\n\n"

// Retriever performs similarity search over ingested chunks.
type Retriever struct {
	embedder embeddings.Embedder
	store    vectorstore.Store
	topK     int
	logger   *logging.Logger
}

// NewRetriever creates a Retriever. topK <= 0 selects DefaultTopK.
func NewRetriever(embedder embeddings.Embedder, store vectorstore.Store, topK int, logger *logging.Logger) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Retriever{
		embedder: embedder,
		store:    store,
		topK:     topK,
		logger:   logger,
	}
}

// Query embeds the question and returns the ranked matches. k <= 0 selects
// the retriever's configured default. The result is empty, not an error, when
// nothing has been ingested.
func (r *Retriever) Query(ctx context.Context, question string, k int) ([]vectorstore.Match, error) {
	if k <= 0 {
		k = r.topK
	}

	vector, err := r.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("%w: embed question: %v", ErrRetrievalUnavailable, err)
	}

	matches, err := r.store.Query(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("%w: vector query: %v", ErrRetrievalUnavailable, err)
	}

	r.logger.Debug(ctx, "retrieval query served",
		zap.Int("matches", len(matches)),
		zap.Int("top_k", k),
	)
	return matches, nil
}

// Context returns a single concatenated context block for the question, or
// an empty string when the knowledge base holds no documents yet. k <= 0
// selects the retriever's configured default. Callers must treat an empty
// block as "insufficient information" rather than asking a model to answer
// from nothing.
func (r *Retriever) Context(ctx context.Context, question string, k int) (string, error) {
	matches, err := r.Query(ctx, question, k)
	if err != nil {
		return "", err
	}
	return AssembleContext(matches), nil
}

// AssembleContext concatenates match texts, each prefixed with its source
// document, in the order the store returned them (descending similarity).
func AssembleContext(matches []vectorstore.Match) string {
	if len(matches) == 0 {
		return ""
	}

	parts := make([]string, 0, len(matches))
	for _, match := range matches {
		text := strings.TrimSpace(match.Payload.Text)
		if text == "" {
			continue
		}
		if match.Payload.Source != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", match.Payload.Source, text))
		} else {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, matchDelimiter)
}
