// Package vector provides the persistent vector index used for similarity
// retrieval over document chunks.
package vector

import (
	"context"

	"github.com/sensei-notes/senseid/internal/models"
)

// Index stores embedded chunks and answers filtered similarity queries.
// Records are keyed by chunk ID; adding a chunk with an existing ID replaces
// the stored record.
type Index interface {
	// Add embeds and stores all chunks of a document in one batch.
	Add(ctx context.Context, documentID string, chunks []models.Chunk) error
	// Query returns up to k hits ordered by ascending cosine distance.
	// A non-empty filter restricts hits to records whose metadata matches
	// every filter entry exactly.
	Query(ctx context.Context, query string, k int, filter map[string]string) ([]*models.QueryResult, error)
	// DeleteDocument removes every chunk of the given document. Deleting a
	// document with no chunks is not an error.
	DeleteDocument(ctx context.Context, documentID string) error
	// Count returns the number of stored chunk records.
	Count() int
	// Stats describes the index.
	Stats() models.IndexStats
	Close() error
}
