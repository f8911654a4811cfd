// Package chunker splits document text into overlapping fixed-size windows
// and derives the content-addressed ids that make re-ingestion idempotent.
package chunker

import (
	"errors"
	"fmt"
)

// Default chunking parameters, measured in characters.
const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 200
)

// ErrInvalidParams indicates chunking parameters that violate size > overlap >= 0.
var ErrInvalidParams = errors.New("invalid chunking parameters")

// Params holds chunking parameters.
type Params struct {
	// Size is the window size in characters.
	Size int
	// Overlap is the number of characters shared by adjacent windows.
	Overlap int
}

// DefaultParams returns the default chunking parameters.
func DefaultParams() Params {
	return Params{Size: DefaultChunkSize, Overlap: DefaultOverlap}
}

// Validate checks that Size > Overlap >= 0.
func (p Params) Validate() error {
	if p.Size <= 0 {
		return fmt.Errorf("%w: size must be positive, got %d", ErrInvalidParams, p.Size)
	}
	if p.Overlap < 0 {
		return fmt.Errorf("%w: overlap cannot be negative, got %d", ErrInvalidParams, p.Overlap)
	}
	if p.Overlap >= p.Size {
		return fmt.Errorf("%w: overlap %d must be smaller than size %d", ErrInvalidParams, p.Overlap, p.Size)
	}
	return nil
}

// Stride is the offset advance between window starts.
func (p Params) Stride() int {
	return p.Size - p.Overlap
}

// Chunk is a bounded substring of a document's text, the unit of embedding
// and retrieval.
type Chunk struct {
	// Source is the document name the chunk was cut from.
	Source string
	// Index is the 0-based, order-significant position within the document.
	Index int
	// Text is the chunk content.
	Text string
	// ID is the deterministic identifier derived from (Source, Index).
	ID string
}

// Split cuts text into overlapping windows. Starting at offset 0, each window
// spans at most p.Size characters and the next starts p.Stride() characters
// later. Splitting is deterministic for a fixed (text, params) pair.
//
// Offsets count runes, not bytes, so multi-byte text (Thai documents are the
// common case) is never torn mid-character.
//
// Empty text yields nil; the caller decides whether that is an error. Text no
// longer than the window yields exactly one chunk equal to the whole text.
func Split(text string, p Params) ([]string, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return nil, nil
	}

	var chunks []string
	for start := 0; start < len(runes); start += p.Stride() {
		end := start + p.Size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks, nil
}

// Plan splits text and assigns each window its source, index and derived id.
// The returned chunks are in document order.
func Plan(source, text string, p Params) ([]Chunk, error) {
	pieces, err := Split(text, p)
	if err != nil {
		return nil, err
	}

	chunks := make([]Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = Chunk{
			Source: source,
			Index:  i,
			Text:   piece,
			ID:     DeriveID(source, i),
		}
	}
	return chunks, nil
}
