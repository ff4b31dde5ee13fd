package embedding

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/sensei-notes/senseid/pkg/utils"
)

// HashedEmbedder is the offline fallback embedder. Each text becomes an
// L2-normalized term-frequency vector: every lowercase word token is hashed
// into a bucket in [0, dimensions). The same text always yields the same
// vector, and no external resources are needed.
type HashedEmbedder struct {
	dimensions int
}

// NewHashedEmbedder returns a hashed embedder of the given dimension.
func NewHashedEmbedder(dimensions int) *HashedEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &HashedEmbedder{dimensions: dimensions}
}

// Embed returns the hashed bag-of-words embedding for text. A text with no
// tokens yields the zero vector.
func (e *HashedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dimensions)
	for _, tok := range tokenizeWords(text) {
		vec[int(hashToken(tok)%uint32(e.dimensions))]++
	}
	utils.NormalizeL2(vec)
	return vec, nil
}

// EmbedBatch embeds each text in order.
func (e *HashedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

// Dimensions returns the embedding dimension.
func (e *HashedEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for HashedEmbedder.
func (e *HashedEmbedder) Close() error {
	return nil
}

// tokenizeWords splits text into lowercase word tokens (letter, digit, and
// underscore runs).
func tokenizeWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
}

// hashToken returns a deterministic bucket hash for a token.
func hashToken(tok string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(tok))
	return h.Sum32()
}
