package http

import "github.com/lexbase/knowledged/internal/vectorstore"

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// UploadResponse is the response body for POST /api/v1/upload.
type UploadResponse struct {
	Source         string `json:"source"`
	ChunksProduced int    `json:"chunks_produced"`
	ChunksUploaded int    `json:"chunks_uploaded"`
	Replaced       bool   `json:"replaced,omitempty"`
}

// IngestRequest is the request body for POST /api/v1/ingest.
type IngestRequest struct {
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata"`
	ID       string                 `json:"id"`
}

// IngestResponse is the response body for POST /api/v1/ingest.
type IngestResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// ExistsRequest is the request body for POST /api/v1/exists.
type ExistsRequest struct {
	ID string `json:"id"`
}

// ExistsResponse is the response body for POST /api/v1/exists.
type ExistsResponse struct {
	Exists bool `json:"exists"`
}

// QueryRequest is the request body for POST /api/v1/query. K is optional;
// zero selects the server default.
type QueryRequest struct {
	Question string `json:"question"`
	K        int    `json:"k,omitempty"`
}

// QueryMatch is a single ranked retrieval result.
type QueryMatch struct {
	Score    float32             `json:"score"`
	Metadata vectorstore.Payload `json:"metadata"`
}

// QueryResponse is the response body for POST /api/v1/query.
type QueryResponse struct {
	Matches []QueryMatch `json:"matches"`
	Context string       `json:"context"`
	Message string       `json:"message,omitempty"`
}
