package parser

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunker(t *testing.T) {
	t.Run("short text is a single chunk", func(t *testing.T) {
		c := NewChunker(1000, 200)
		chunks := c.Chunk("A short page.", 1, 0)
		require.Len(t, chunks, 1)
		assert.Equal(t, "A short page.", chunks[0].Content)
		assert.Equal(t, 1, chunks[0].PageNumber)
		assert.Equal(t, 0, chunks[0].ChunkID)
	})

	t.Run("empty and whitespace text yield nothing", func(t *testing.T) {
		c := NewChunker(1000, 200)
		assert.Nil(t, c.Chunk("", 1, 0))
		assert.Nil(t, c.Chunk("   \n\t", 1, 0))
	})

	t.Run("long text produces overlapping windows", func(t *testing.T) {
		c := NewChunker(100, 20)
		text := strings.Repeat("fund performance review. ", 40)
		chunks := c.Chunk(text, 3, 5)
		require.Greater(t, len(chunks), 1)

		for i, ch := range chunks {
			assert.LessOrEqual(t, len(ch.Content), 100, "chunk %d too long", i)
			assert.Equal(t, 3, ch.PageNumber)
			assert.Equal(t, 5+i, ch.ChunkID)
		}
	})

	t.Run("breaks at sentence boundary past the midpoint", func(t *testing.T) {
		c := NewChunker(100, 0)
		first := strings.Repeat("a", 70) + "."
		text := first + " " + strings.Repeat("b", 80)
		chunks := c.Chunk(text, 1, 0)
		require.GreaterOrEqual(t, len(chunks), 2)
		assert.Equal(t, first, chunks[0].Content)
	})

	t.Run("degenerate settings are clamped", func(t *testing.T) {
		c := NewChunker(0, -5)
		assert.Equal(t, 1000, c.Size)
		assert.Equal(t, 0, c.Overlap)

		c = NewChunker(100, 100)
		assert.Equal(t, 50, c.Overlap)
	})

	t.Run("always terminates even with heavy overlap", func(t *testing.T) {
		c := NewChunker(10, 9)
		text := strings.Repeat("x", 500)
		chunks := c.Chunk(text, 1, 0)
		assert.NotEmpty(t, chunks)
	})

	t.Run("never splits a multi-byte rune", func(t *testing.T) {
		// "€" is 3 bytes and "réserve" mixes widths, so byte-sized windows
		// land mid-rune unless boundaries are snapped.
		c := NewChunker(10, 3)
		text := strings.Repeat("€1 000 réserve ", 30)
		chunks := c.Chunk(text, 1, 0)
		require.NotEmpty(t, chunks)
		for i, ch := range chunks {
			assert.True(t, utf8.ValidString(ch.Content), "chunk %d is not valid UTF-8: %q", i, ch.Content)
		}
	})

	t.Run("multi-byte text with heavy overlap terminates", func(t *testing.T) {
		c := NewChunker(4, 3)
		text := strings.Repeat("日本語", 50)
		chunks := c.Chunk(text, 1, 0)
		require.NotEmpty(t, chunks)
		for _, ch := range chunks {
			assert.True(t, utf8.ValidString(ch.Content))
		}
	})
}
