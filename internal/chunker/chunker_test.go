package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitBoundaries(t *testing.T) {
	p := Params{Size: 1000, Overlap: 200}

	t.Run("empty text yields no chunks", func(t *testing.T) {
		chunks, err := Split("", p)
		require.NoError(t, err)
		assert.Empty(t, chunks)
	})

	t.Run("short text yields a single chunk", func(t *testing.T) {
		chunks, err := Split("abc", p)
		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Equal(t, "abc", chunks[0])
	})

	t.Run("text exactly one window yields a single chunk", func(t *testing.T) {
		text := strings.Repeat("x", 1000)
		chunks, err := Split(text, p)
		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Equal(t, text, chunks[0])
	})
}

func TestSplitOffsets(t *testing.T) {
	// 2500 chars with (1000, 200) must start at 0, 800, 1600, 2400.
	text := make([]byte, 2500)
	for i := range text {
		text[i] = byte('a' + i%26)
	}
	p := Params{Size: 1000, Overlap: 200}

	chunks, err := Split(string(text), p)
	require.NoError(t, err)
	require.Len(t, chunks, 4)

	wantStarts := []int{0, 800, 1600, 2400}
	for i, start := range wantStarts {
		end := start + p.Size
		if end > len(text) {
			end = len(text)
		}
		assert.Equal(t, string(text[start:end]), chunks[i], "chunk %d", i)
	}
	// Last chunk is the short remainder.
	assert.Len(t, chunks[3], 100)
}

func TestSplitMultibyteRuneBoundaries(t *testing.T) {
	// Thai runs 3 bytes per rune in UTF-8; windows must count runes so no
	// chunk boundary tears a character apart.
	text := strings.Repeat("กฎหมายแรงงาน", 50) // 600 runes
	p := Params{Size: 100, Overlap: 20}

	chunks, err := Split(text, p)
	require.NoError(t, err)
	require.Len(t, chunks, 8) // stride 80: starts 0..560

	for i, c := range chunks {
		assert.True(t, utf8.ValidString(c), "chunk %d is not valid UTF-8", i)
		want := p.Size
		if i == len(chunks)-1 {
			want = 40 // 600 - 560
		}
		assert.Equal(t, want, utf8.RuneCountInString(c), "chunk %d", i)
	}

	// De-overlap round trip, trimmed in runes, reconstructs the input.
	var sb strings.Builder
	sb.WriteString(chunks[0])
	for _, c := range chunks[1:] {
		sb.WriteString(string([]rune(c)[p.Overlap:]))
	}
	assert.Equal(t, text, sb.String())
}

func TestSplitRoundTrip(t *testing.T) {
	// Concatenating chunks with the overlap removed reconstructs the input.
	tests := []struct {
		name string
		text string
		p    Params
	}{
		{"even split", strings.Repeat("abcdefghij", 240), Params{Size: 300, Overlap: 60}},
		{"ragged tail", strings.Repeat("lorem ipsum ", 173), Params{Size: 250, Overlap: 50}},
		{"no overlap", strings.Repeat("z", 1234), Params{Size: 100, Overlap: 0}},
		{"tiny windows", "the quick brown fox jumps over the lazy dog", Params{Size: 7, Overlap: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, err := Split(tt.text, tt.p)
			require.NoError(t, err)
			require.NotEmpty(t, chunks)

			var sb strings.Builder
			sb.WriteString(chunks[0])
			for _, c := range chunks[1:] {
				overlap := tt.p.Overlap
				if overlap > len(c) {
					overlap = len(c)
				}
				sb.WriteString(c[overlap:])
			}
			assert.Equal(t, tt.text, sb.String())
		})
	}
}

func TestSplitDeterministic(t *testing.T) {
	text := strings.Repeat("determinism matters ", 500)
	p := Params{Size: 1000, Overlap: 200}

	first, err := Split(text, p)
	require.NoError(t, err)
	second, err := Split(text, p)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSplitInvalidParams(t *testing.T) {
	tests := []struct {
		name string
		p    Params
	}{
		{"zero size", Params{Size: 0, Overlap: 0}},
		{"negative overlap", Params{Size: 100, Overlap: -1}},
		{"overlap equals size", Params{Size: 100, Overlap: 100}},
		{"overlap exceeds size", Params{Size: 100, Overlap: 150}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Split("text", tt.p)
			require.ErrorIs(t, err, ErrInvalidParams)
		})
	}
}

func TestPlan(t *testing.T) {
	text := strings.Repeat("a", 2500)
	chunks, err := Plan("report.pdf", text, Params{Size: 1000, Overlap: 200})
	require.NoError(t, err)
	require.Len(t, chunks, 4)

	for i, c := range chunks {
		assert.Equal(t, "report.pdf", c.Source)
		assert.Equal(t, i, c.Index)
		assert.Equal(t, DeriveID("report.pdf", i), c.ID)
		assert.NotEmpty(t, c.Text)
	}
}

func TestPlanEmptyText(t *testing.T) {
	chunks, err := Plan("empty.pdf", "", DefaultParams())
	require.NoError(t, err)
	assert.Empty(t, chunks)
}
