package parser

import (
	"strings"
	"unicode/utf8"

	"github.com/anggi-susanto/fund-perfromance-analysis/internal/models"
)

// Chunker windows page text into overlapping retrieval chunks. Windows break
// preferentially at a period or newline in the trailing half of the window so
// each chunk stays semantically coherent.
type Chunker struct {
	Size    int
	Overlap int
}

// NewChunker clamps degenerate settings rather than failing: an overlap at or
// above the window size would never advance.
func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 2
	}
	return &Chunker{Size: size, Overlap: overlap}
}

// Chunk splits text into chunks for one page. startIndex is the running
// chunk ordinal across the whole document, kept ordered page to page.
func (c *Chunker) Chunk(text string, pageNumber, startIndex int) []models.Chunk {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var chunks []models.Chunk
	idx := startIndex
	start := 0
	for start < len(text) {
		end := start + c.Size
		if end > len(text) {
			end = len(text)
		} else {
			// The size cap is in bytes; never cut a multi-byte rune in half.
			end = snapToRuneStart(text, start, end)
			// Prefer a sentence boundary, but only past the midpoint of the
			// window; earlier breaks would fragment the text.
			window := text[start:end]
			lastPeriod := strings.LastIndexByte(window, '.')
			lastNewline := strings.LastIndexByte(window, '\n')
			breakPoint := lastPeriod
			if lastNewline > breakPoint {
				breakPoint = lastNewline
			}
			if breakPoint > c.Size/2 {
				end = start + breakPoint + 1
			}
		}

		content := strings.TrimSpace(text[start:end])
		if content != "" {
			chunks = append(chunks, models.Chunk{
				Content:    content,
				PageNumber: pageNumber,
				ChunkID:    idx,
			})
			idx++
		}

		if end >= len(text) {
			break
		}
		next := end - c.Overlap
		if next <= start {
			next = end
		}
		// The overlap step is in bytes too; move forward to the next rune
		// start so no chunk begins inside a rune.
		for next < len(text) && !utf8.RuneStart(text[next]) {
			next++
		}
		start = next
	}
	return chunks
}

// snapToRuneStart moves end back to the nearest rune boundary at or before it.
// When the whole window sits inside one oversized rune it moves forward
// instead, so the loop always advances.
func snapToRuneStart(text string, start, end int) int {
	for end > start && !utf8.RuneStart(text[end]) {
		end--
	}
	if end == start {
		end = start + 1
		for end < len(text) && !utf8.RuneStart(text[end]) {
			end++
		}
	}
	return end
}
