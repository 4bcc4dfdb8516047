package chunker

import (
	"strings"
	"unicode/utf8"

	"vecindex/internal/domain"
)

// TextChunker splits extracted text into bounded, overlapping windows.
// Cuts prefer a paragraph break or sentence end when one falls in the
// tail of the window; otherwise the window is cut at exactly maxChars.
// Each chunk after the first starts overlap bytes before the previous
// cut, so concatenating chunks with the overlap stripped reconstructs
// the input text.
type TextChunker struct {
	maxChars int
	overlap  int
}

func NewTextChunker(maxChars, overlap int) *TextChunker {
	if maxChars <= 0 {
		maxChars = 512
	}
	if overlap < 0 || overlap >= maxChars {
		overlap = maxChars / 10
	}
	return &TextChunker{maxChars: maxChars, overlap: overlap}
}

func (c *TextChunker) Chunk(docID, text string) []domain.TextChunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var chunks []domain.TextChunk
	start := 0

	for len(text)-start > c.maxChars {
		cut := c.cutPoint(text, start)
		chunks = append(chunks, domain.TextChunk{
			DocID:   docID,
			Ordinal: len(chunks),
			Text:    text[start:cut],
			Start:   start,
			End:     cut,
		})

		next := cut - c.overlap
		if next <= start {
			next = start + 1
		}
		// The overlap step can land mid-rune even though the cut itself
		// cannot; advance to the next rune start.
		for next < len(text) && !utf8.RuneStart(text[next]) {
			next++
		}
		start = next
	}

	chunks = append(chunks, domain.TextChunk{
		DocID:   docID,
		Ordinal: len(chunks),
		Text:    text[start:],
		Start:   start,
		End:     len(text),
	})

	return chunks
}

// cutPoint picks where the window starting at start ends. A paragraph
// break or sentence end inside the final quarter of the window wins;
// failing that, the cut lands at exactly maxChars, nudged back onto a
// rune boundary.
func (c *TextChunker) cutPoint(text string, start int) int {
	end := start + c.maxChars
	window := text[start:end]
	tail := c.maxChars * 3 / 4

	if i := strings.LastIndex(window[tail:], "\n\n"); i >= 0 {
		return start + tail + i + 2
	}
	if i := lastSentenceEnd(window[tail:]); i >= 0 {
		return start + tail + i
	}

	for end > start+1 && !utf8.RuneStart(text[end]) {
		end--
	}
	return end
}

// lastSentenceEnd returns the index just past the last sentence
// terminator followed by whitespace, or -1.
func lastSentenceEnd(s string) int {
	for i := len(s) - 1; i > 0; i-- {
		if s[i] != ' ' && s[i] != '\n' && s[i] != '\t' {
			continue
		}
		switch s[i-1] {
		case '.', '!', '?':
			return i
		}
	}
	return -1
}
