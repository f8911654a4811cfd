package vectorstore

import "strconv"

// Payload is the fixed-field metadata persisted with every chunk entry.
//
// The payload is deliberately closed: unknown keys arriving at the ingestion
// boundary are stripped rather than stored.
type Payload struct {
	// Source is the originating document name.
	Source string `json:"source"`
	// ChunkIndex is the chunk's 0-based position within the document.
	ChunkIndex int `json:"chunk_index"`
	// TotalChunks is the number of chunks the document produced.
	TotalChunks int `json:"total_chunks"`
	// Text is the chunk content.
	Text string `json:"text"`
	// ID duplicates the entry id inside the payload for consumers that only
	// see metadata.
	ID string `json:"id"`
}

// Payload map keys.
const (
	payloadKeySource      = "source"
	payloadKeyChunkIndex  = "chunk_index"
	payloadKeyTotalChunks = "total_chunks"
	payloadKeyText        = "text"
	payloadKeyID          = "id"
)

// Map renders the payload as an open map for backends with untyped payloads.
func (p Payload) Map() map[string]interface{} {
	return map[string]interface{}{
		payloadKeySource:      p.Source,
		payloadKeyChunkIndex:  p.ChunkIndex,
		payloadKeyTotalChunks: p.TotalChunks,
		payloadKeyText:        p.Text,
		payloadKeyID:          p.ID,
	}
}

// StringMap renders the payload with string values, for backends that only
// store string metadata (chromem).
func (p Payload) StringMap() map[string]string {
	return map[string]string{
		payloadKeySource:      p.Source,
		payloadKeyChunkIndex:  strconv.Itoa(p.ChunkIndex),
		payloadKeyTotalChunks: strconv.Itoa(p.TotalChunks),
		payloadKeyText:        p.Text,
		payloadKeyID:          p.ID,
	}
}

// PayloadFromMap reconstructs a Payload from an untyped map, ignoring unknown
// keys and tolerating the numeric widenings JSON and gRPC payloads introduce.
func PayloadFromMap(m map[string]interface{}) Payload {
	var p Payload
	for k, v := range m {
		switch k {
		case payloadKeySource:
			p.Source = toString(v)
		case payloadKeyChunkIndex:
			p.ChunkIndex = toInt(v)
		case payloadKeyTotalChunks:
			p.TotalChunks = toInt(v)
		case payloadKeyText:
			p.Text = toString(v)
		case payloadKeyID:
			p.ID = toString(v)
		}
	}
	return p
}

// PayloadFromStringMap reconstructs a Payload from string metadata.
func PayloadFromStringMap(m map[string]string) Payload {
	var p Payload
	for k, v := range m {
		switch k {
		case payloadKeySource:
			p.Source = v
		case payloadKeyChunkIndex:
			p.ChunkIndex, _ = strconv.Atoi(v)
		case payloadKeyTotalChunks:
			p.TotalChunks, _ = strconv.Atoi(v)
		case payloadKeyText:
			p.Text = v
		case payloadKeyID:
			p.ID = v
		}
	}
	return p
}

func toString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func toInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		parsed, _ := strconv.Atoi(n)
		return parsed
	}
	return 0
}

// Entry is a persisted chunk: id, embedding vector and fixed-field payload.
type Entry struct {
	// ID is the content-addressed entry id. Upserting an existing id
	// overwrites the previous entry.
	ID string

	// Vector is the embedding. Its length must match the collection's
	// vector size.
	Vector []float32

	// Payload is the chunk metadata.
	Payload Payload
}

// Match is an ephemeral similarity-search result.
type Match struct {
	// Score is the similarity score (higher = more similar).
	Score float32

	// Payload is a copy of the matched entry's metadata.
	Payload Payload
}
