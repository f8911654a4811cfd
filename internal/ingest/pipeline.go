// Package ingest implements the document ingestion pipeline: extract text,
// split it into overlapping chunks, embed each chunk and upsert it into the
// vector store under a content-addressed id.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lexbase/knowledged/internal/chunker"
	"github.com/lexbase/knowledged/internal/config"
	"github.com/lexbase/knowledged/internal/embeddings"
	"github.com/lexbase/knowledged/internal/extract"
	"github.com/lexbase/knowledged/internal/logging"
	"github.com/lexbase/knowledged/internal/vectorstore"
)

// Sentinel errors for ingestion.
var (
	// ErrExtractionFailed indicates the document could not be parsed.
	ErrExtractionFailed = errors.New("failed to extract document text")

	// ErrEmptyDocument indicates the document yielded no text.
	ErrEmptyDocument = errors.New("document contains no extractable text")

	// ErrAlreadyIngested indicates the document was ingested before and the
	// duplicate policy blocks re-ingestion.
	ErrAlreadyIngested = errors.New("document already ingested")

	// ErrNoChunksUploaded indicates every chunk upload failed.
	ErrNoChunksUploaded = errors.New("no chunks could be uploaded")
)

// Result summarizes a single document ingestion.
type Result struct {
	// Source is the document name the chunks were filed under.
	Source string

	// ChunksProduced is the number of chunks the splitter emitted.
	ChunksProduced int

	// ChunksUploaded is the number of chunks stored successfully. Less than
	// ChunksProduced when individual uploads failed.
	ChunksUploaded int

	// Replaced is true when an earlier ingestion of the same document was
	// overwritten under the replace policy.
	Replaced bool
}

// Pipeline wires extraction, chunking, embedding and storage into the
// ingestion flow. Chunks are processed strictly sequentially with a pacing
// delay between uploads so rate-limited embedding backends are not flooded.
type Pipeline struct {
	extractor *extract.Extractor
	embedder  embeddings.Embedder
	store     vectorstore.Store
	cfg       config.IngestConfig
	logger    *logging.Logger
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(embedder embeddings.Embedder, store vectorstore.Store, cfg config.IngestConfig, logger *logging.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{
		extractor: extract.NewExtractor(),
		embedder:  embedder,
		store:     store,
		cfg:       cfg,
		logger:    logger,
	}
}

// Ingest extracts text from an uploaded document and indexes it. The file
// name doubles as the document's identity: chunk ids are derived from it, so
// re-uploading the same name is detected as a duplicate.
func (p *Pipeline) Ingest(ctx context.Context, name string, content []byte) (*Result, error) {
	ctx = logging.ContextWithSource(ctx, name)

	text, err := p.extractor.Extract(name, content)
	switch {
	case err == nil:
	case errors.Is(err, extract.ErrUnsupportedFormat):
		return nil, err
	case errors.Is(err, extract.ErrNoText):
		return nil, fmt.Errorf("%w: %s", ErrEmptyDocument, name)
	default:
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	return p.IngestText(ctx, name, text)
}

// IngestText chunks, embeds and stores already-extracted text under the given
// source name.
func (p *Pipeline) IngestText(ctx context.Context, source, text string) (*Result, error) {
	params := chunker.Params{Size: p.cfg.ChunkSize, Overlap: p.cfg.Overlap}
	chunks, err := chunker.Plan(source, text, params)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDocument, source)
	}

	result := &Result{Source: source, ChunksProduced: len(chunks)}

	// Duplicate detection probes the first chunk's id: it exists iff the
	// document was ingested before under the same name.
	exists, err := p.store.Exists(ctx, chunks[0].ID)
	if err != nil {
		return nil, fmt.Errorf("duplicate check: %w", err)
	}
	if exists {
		if p.cfg.OnDuplicate == config.DuplicateBlock {
			recordDocument("duplicate")
			return nil, fmt.Errorf("%w: %s", ErrAlreadyIngested, source)
		}
		result.Replaced = true
		p.logger.Info(ctx, "replacing previously ingested document",
			zap.String("source", source),
		)
	}

	p.logger.Info(ctx, "ingesting document",
		zap.String("source", source),
		zap.Int("chunks", len(chunks)),
	)

	for i, chunk := range chunks {
		if i > 0 {
			if err := p.pace(ctx); err != nil {
				return result, err
			}
		}

		if err := p.uploadChunk(ctx, chunk, len(chunks)); err != nil {
			// Per-chunk failures are non-fatal: log, count and move on so a
			// flaky backend does not discard the whole document.
			recordChunk("error")
			p.logger.Warn(ctx, "chunk upload failed",
				zap.String("source", source),
				zap.Int("chunk_index", chunk.Index),
				zap.Error(err),
			)
			continue
		}
		recordChunk("ok")
		result.ChunksUploaded++
	}

	if result.ChunksUploaded == 0 {
		recordDocument("error")
		return result, fmt.Errorf("%w: %s", ErrNoChunksUploaded, source)
	}

	recordDocument("ok")
	p.logger.Info(ctx, "document ingested",
		zap.String("source", source),
		zap.Int("chunks_uploaded", result.ChunksUploaded),
		zap.Int("chunks_produced", result.ChunksProduced),
	)
	return result, nil
}

// IndexText embeds a single pre-chunked text and upserts it under an explicit
// id, bypassing the splitter. Used by the raw-text API.
func (p *Pipeline) IndexText(ctx context.Context, id, text string, payload vectorstore.Payload) error {
	if text == "" {
		return fmt.Errorf("%w: empty text", ErrEmptyDocument)
	}

	vectors, err := p.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return err
	}

	payload.Text = text
	payload.ID = id
	return p.store.Upsert(ctx, []vectorstore.Entry{{
		ID:      id,
		Vector:  vectors[0],
		Payload: payload,
	}})
}

// Exists reports whether an entry with the given id has been indexed.
func (p *Pipeline) Exists(ctx context.Context, id string) (bool, error) {
	return p.store.Exists(ctx, id)
}

func (p *Pipeline) uploadChunk(ctx context.Context, chunk chunker.Chunk, total int) error {
	vectors, err := p.embedder.EmbedDocuments(ctx, []string{chunk.Text})
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}

	entry := vectorstore.Entry{
		ID:     chunk.ID,
		Vector: vectors[0],
		Payload: vectorstore.Payload{
			Source:      chunk.Source,
			ChunkIndex:  chunk.Index,
			TotalChunks: total,
			Text:        chunk.Text,
			ID:          chunk.ID,
		},
	}
	if err := p.store.Upsert(ctx, []vectorstore.Entry{entry}); err != nil {
		return fmt.Errorf("upsert: %w", err)
	}
	return nil
}

// pace sleeps for the configured rate-limit delay, aborting early on context
// cancellation.
func (p *Pipeline) pace(ctx context.Context) error {
	delay := p.cfg.RateLimitDelay.Duration()
	if delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

// File is a named document to ingest.
type File struct {
	Name    string
	Content []byte
}

// FileResult pairs a file with its ingestion outcome.
type FileResult struct {
	Name   string
	Result *Result
	Err    error
}

// IngestAll ingests files sequentially with per-file isolation: one failing
// document never aborts the batch. The context still cancels the whole run.
func (p *Pipeline) IngestAll(ctx context.Context, files []File) []FileResult {
	results := make([]FileResult, 0, len(files))
	for _, file := range files {
		if ctx.Err() != nil {
			results = append(results, FileResult{Name: file.Name, Err: ctx.Err()})
			continue
		}
		result, err := p.Ingest(ctx, file.Name, file.Content)
		if err != nil {
			p.logger.Error(ctx, "document ingestion failed",
				zap.String("source", file.Name),
				zap.Error(err),
			)
		}
		results = append(results, FileResult{Name: file.Name, Result: result, Err: err})
	}
	return results
}
