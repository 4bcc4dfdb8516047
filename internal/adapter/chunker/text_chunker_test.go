package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkShortText(t *testing.T) {
	c := NewTextChunker(512, 50)

	chunks := c.Chunk("doc1", "A short document.")
	require.Len(t, chunks, 1)
	assert.Equal(t, "A short document.", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].Ordinal)
	assert.Equal(t, 0, chunks[0].Start)
	assert.Equal(t, 17, chunks[0].End)
}

func TestChunkEmptyText(t *testing.T) {
	c := NewTextChunker(512, 50)

	assert.Nil(t, c.Chunk("doc1", ""))
	assert.Nil(t, c.Chunk("doc1", "   \n\t  "))
}

// The reference scenario: a hard-split window walk with a fixed
// five-character overlap and no boundary inside any window tail.
func TestChunkReferenceScenario(t *testing.T) {
	c := NewTextChunker(20, 5)

	chunks := c.Chunk("doc1", "Hello world. This is a test document.")
	require.Len(t, chunks, 3)

	assert.Equal(t, "Hello world. This is", chunks[0].Text)
	assert.Equal(t, "is is a test documen", chunks[1].Text)
	assert.Equal(t, "cument.", chunks[2].Text)

	for i, ch := range chunks {
		assert.Equal(t, i, ch.Ordinal)
		assert.Equal(t, "doc1", ch.DocID)
		assert.LessOrEqual(t, len(ch.Text), 20)
	}
}

func TestChunkBoundsAndOrdinals(t *testing.T) {
	c := NewTextChunker(100, 10)
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 40)

	chunks := c.Chunk("doc1", text)
	require.Greater(t, len(chunks), 1)

	for i, ch := range chunks {
		assert.Equal(t, i, ch.Ordinal)
		assert.LessOrEqual(t, len(ch.Text), 100)
		assert.Equal(t, text[ch.Start:ch.End], ch.Text)
		if i > 0 {
			assert.Less(t, ch.Start, chunks[i-1].End, "windows must overlap")
			assert.Greater(t, ch.Start, chunks[i-1].Start, "windows must advance")
		}
	}
	assert.Equal(t, len(text), chunks[len(chunks)-1].End)
}

func TestChunkPrefersSentenceBoundary(t *testing.T) {
	c := NewTextChunker(40, 5)
	// A sentence ends inside the final quarter of the first window
	// (position 33 of 40), so the cut snaps to it.
	text := "This opening sentence runs long now. Another sentence follows it directly."

	chunks := c.Chunk("doc1", text)
	require.Greater(t, len(chunks), 1)
	assert.True(t, strings.HasSuffix(chunks[0].Text, "now."),
		"expected sentence-aligned cut, got %q", chunks[0].Text)
}

func TestChunkPrefersParagraphBreak(t *testing.T) {
	c := NewTextChunker(40, 5)
	text := "First paragraph body sits right here\n\nsecond paragraph continues with more text"

	chunks := c.Chunk("doc1", text)
	require.Greater(t, len(chunks), 1)
	assert.True(t, strings.HasSuffix(chunks[0].Text, "\n\n"),
		"expected paragraph-aligned cut, got %q", chunks[0].Text)
}

// Concatenating chunks with the overlapped prefix stripped must recover
// the original text exactly.
func TestChunkReconstruction(t *testing.T) {
	tests := []struct {
		name     string
		maxChars int
		overlap  int
		text     string
	}{
		{"reference", 20, 5, "Hello world. This is a test document."},
		{"prose", 80, 15, strings.Repeat("Sentences pile up. Some are short. Others ramble on for quite a while before stopping. ", 12)},
		{"paragraphs", 64, 8, "alpha\n\nbeta gamma delta\n\n" + strings.Repeat("epsilon zeta eta theta iota kappa ", 20)},
		{"no boundaries", 32, 6, strings.Repeat("x", 500)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := NewTextChunker(tc.maxChars, tc.overlap)
			chunks := c.Chunk("doc1", tc.text)
			require.NotEmpty(t, chunks)

			var b strings.Builder
			covered := 0
			for _, ch := range chunks {
				require.LessOrEqual(t, ch.Start, covered)
				b.WriteString(ch.Text[covered-ch.Start:])
				covered = ch.End
			}
			assert.Equal(t, tc.text, b.String())
		})
	}
}

func TestChunkUTF8Safety(t *testing.T) {
	tests := []struct {
		name     string
		maxChars int
		overlap  int
		text     string
	}{
		{"two-byte runes", 10, 2, strings.Repeat("héllo wörld ", 10)},
		// Overlap of 3 steps back into the middle of a multi-byte rune
		// unless the window start is nudged forward.
		{"overlap lands mid-rune", 12, 3, strings.Repeat("déjà vu encoré ", 8)},
		{"four-byte runes", 16, 5, strings.Repeat("𝕒𝕓𝕔 plain 𝕕𝕖 ", 6)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := NewTextChunker(tc.maxChars, tc.overlap)
			text := tc.text

			chunks := c.Chunk("doc1", text)
			require.NotEmpty(t, chunks)
			for _, ch := range chunks {
				assert.True(t, utf8.ValidString(ch.Text),
					"chunk split a multi-byte rune: %q", ch.Text)
				assert.True(t, utf8.RuneStart(text[ch.Start]),
					"chunk begins on a continuation byte: %q", ch.Text)
				assert.Equal(t, text[ch.Start:ch.End], ch.Text)
			}
		})
	}
}
