// Package chunker splits page text into overlapping, sentence-aligned chunks.
package chunker

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sensei-notes/senseid/internal/models"
)

// Chunker splits extracted pages into chunks bounded by a character budget.
// Sentences are never split: a single sentence longer than the chunk size is
// emitted as an oversized chunk.
type Chunker struct {
	chunkSize int
	overlap   int
}

// NewChunker creates a chunker with the given size and overlap (in characters).
func NewChunker(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 512
	}
	if overlap < 0 {
		overlap = 0
	}
	return &Chunker{
		chunkSize: chunkSize,
		overlap:   overlap,
	}
}

// Chunk splits the pages into chunks. Each page is chunked independently but
// the chunk index increases monotonically across the whole document. Pages
// with no sentences produce no chunks.
func (c *Chunker) Chunk(pages []models.Page) []models.Chunk {
	var chunks []models.Chunk
	index := 0
	for _, page := range pages {
		sentences := SplitSentences(page.Text)
		current := ""
		currentLen := 0
		for _, sentence := range sentences {
			// The budget counts characters, not bytes, so multibyte text
			// chunks the same as ASCII.
			if currentLen+utf8.RuneCountInString(sentence) > c.chunkSize && current != "" {
				chunks = append(chunks, c.newChunk(current, page.PageNumber, index))
				index++
				current = c.carryOver(current)
				currentLen = utf8.RuneCountInString(current)
			}
			current += sentence + " "
			currentLen += utf8.RuneCountInString(sentence) + 1
		}
		if strings.TrimSpace(current) != "" {
			chunks = append(chunks, c.newChunk(current, page.PageNumber, index))
			index++
		}
	}
	return chunks
}

// newChunk builds a chunk from the raw buffer. The text is trimmed but
// char_count records the untrimmed buffer length in characters.
func (c *Chunker) newChunk(buffer string, pageNumber, index int) models.Chunk {
	return models.Chunk{
		Text:       strings.TrimSpace(buffer),
		PageNumber: pageNumber,
		ChunkIndex: index,
		Metadata: map[string]string{
			"char_count":  strconv.Itoa(utf8.RuneCountInString(buffer)),
			"source_page": strconv.Itoa(pageNumber),
		},
	}
}

// carryOver seeds the next buffer with the tail of the previous one so that
// adjacent chunks share context. The number of carried words scales with the
// overlap-to-size ratio.
func (c *Chunker) carryOver(buffer string) string {
	if c.overlap <= 0 {
		return ""
	}
	words := strings.Fields(buffer)
	n := len(words) * c.overlap / c.chunkSize
	if n <= 0 {
		return ""
	}
	if n > len(words) {
		n = len(words)
	}
	return strings.Join(words[len(words)-n:], " ") + " "
}

// SplitSentences splits text at sentence boundaries: a sentence ends at '.',
// '!', or '?' followed by whitespace. The terminator stays with its sentence
// and the separating whitespace is consumed. Text after the last terminator
// is returned as a final sentence. Whitespace-only pieces are dropped.
func SplitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0
	i := 0
	for i < len(runes) {
		r := runes[i]
		if (r == '.' || r == '!' || r == '?') && i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			if s := string(runes[start : i+1]); strings.TrimSpace(s) != "" {
				sentences = append(sentences, s)
			}
			i++
			for i < len(runes) && unicode.IsSpace(runes[i]) {
				i++
			}
			start = i
			continue
		}
		i++
	}
	if start < len(runes) {
		if s := string(runes[start:]); strings.TrimSpace(s) != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}
