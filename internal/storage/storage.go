// Package storage persists the registry of ingested documents.
package storage

import (
	"context"
	"errors"

	"github.com/sensei-notes/senseid/internal/models"
)

// ErrNotFound is returned when a document ID is not in the registry.
var ErrNotFound = errors.New("document not found")

// Registry tracks which documents have been ingested. The vector index holds
// the chunks themselves; the registry holds one row per document so listings
// and deletions do not have to scan the index.
type Registry interface {
	// Upsert inserts the record, replacing any existing row with the same
	// document ID.
	Upsert(ctx context.Context, rec *models.DocumentRecord) error
	// Get returns the record for id, or ErrNotFound.
	Get(ctx context.Context, id string) (*models.DocumentRecord, error)
	// List returns all records ordered by ingestion time, newest first.
	List(ctx context.Context) ([]*models.DocumentRecord, error)
	// Delete removes the record for id. Unknown IDs return ErrNotFound.
	Delete(ctx context.Context, id string) error
	// Count returns the number of registered documents.
	Count(ctx context.Context) (int64, error)
	Close() error
}
