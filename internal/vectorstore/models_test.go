package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPayloadMapRoundTrip(t *testing.T) {
	payload := Payload{
		Source:      "lease-agreement.pdf",
		ChunkIndex:  3,
		TotalChunks: 12,
		Text:        "The tenant shall pay rent on the first of each month.",
		ID:          "2f4a9c1e-0000-3000-8000-000000000001",
	}

	assert.Equal(t, payload, PayloadFromMap(payload.Map()))
	assert.Equal(t, payload, PayloadFromStringMap(payload.StringMap()))
}

func TestPayloadFromMapStripsUnknownKeys(t *testing.T) {
	payload := PayloadFromMap(map[string]interface{}{
		"source":      "contract.pdf",
		"chunk_index": 1,
		"internal":    "should be dropped",
		"score":       0.92,
	})

	assert.Equal(t, "contract.pdf", payload.Source)
	assert.Equal(t, 1, payload.ChunkIndex)
	assert.Zero(t, payload.TotalChunks)
	assert.Empty(t, payload.Text)
}

func TestPayloadFromMapNumericWidenings(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  int
	}{
		{"int", 7, 7},
		{"int64", int64(7), 7},
		{"float64 from json", float64(7), 7},
		{"string", "7", 7},
		{"garbage string", "seven", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := PayloadFromMap(map[string]interface{}{"chunk_index": tt.value})
			assert.Equal(t, tt.want, payload.ChunkIndex)
		})
	}
}
