package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "json info", cfg: Config{Level: "info", Format: "json"}},
		{name: "console debug", cfg: Config{Level: "debug", Format: "console"}},
		{name: "empty format defaults to json", cfg: Config{Level: "warn"}},
		{name: "constant fields", cfg: Config{Level: "info", Format: "json", Fields: map[string]string{"service": "knowledged"}}},
		{name: "bad level", cfg: Config{Level: "verbose", Format: "json"}, wantErr: true},
		{name: "bad format", cfg: Config{Level: "info", Format: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, logger)
			assert.NotNil(t, logger.Underlying())
		})
	}
}

func TestContextFields(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, ContextFields(ctx))

	ctx = ContextWithRequestID(ctx, "req-123")
	ctx = ContextWithSource(ctx, "contract.pdf")

	fields := ContextFields(ctx)
	assert.Len(t, fields, 2)
	assert.Equal(t, "req-123", RequestIDFromContext(ctx))
	assert.Equal(t, "contract.pdf", SourceFromContext(ctx))
}

func TestContextFieldsEmptyValuesIgnored(t *testing.T) {
	ctx := ContextWithRequestID(context.Background(), "")
	ctx = ContextWithSource(ctx, "")

	assert.Empty(t, ContextFields(ctx))
}

func TestChildLoggers(t *testing.T) {
	logger := NewNop()

	child := logger.Named("ingest").With()
	require.NotNil(t, child)

	// Context-aware methods must not panic on a bare context.
	child.Debug(context.Background(), "debug")
	child.Info(context.Background(), "info")
	child.Warn(context.Background(), "warn")
	child.Error(context.Background(), "error")
}
