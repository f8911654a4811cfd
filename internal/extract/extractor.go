// Package extract provides plain-text extraction from uploaded documents.
//
// The knowledge base ingests PDFs only; every other format is rejected before
// any work is performed.
package extract

import (
	"errors"
	"path/filepath"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned for files that are not PDFs.
	ErrUnsupportedFormat = errors.New("unsupported file format (PDF only)")

	// ErrNoText is returned when a readable document contains no extractable text.
	ErrNoText = errors.New("document contains no extractable text")
)

// Extractor extracts plain text from document files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Supported reports whether the file name has an ingestable extension.
func Supported(name string) bool {
	return strings.ToLower(filepath.Ext(name)) == ".pdf"
}

// Extract returns the text content of the named document.
// Returns ErrUnsupportedFormat for non-PDF names and ErrNoText when the
// document parses but yields an empty result.
func (e *Extractor) Extract(name string, content []byte) (string, error) {
	if !Supported(name) {
		return "", ErrUnsupportedFormat
	}

	text, err := extractPDF(content)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrNoText
	}
	return text, nil
}
