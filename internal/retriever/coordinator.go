// Package retriever coordinates document ingestion and similarity retrieval
// across the extractor, chunker, vector index, and document registry.
package retriever

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sensei-notes/senseid/internal/chunker"
	"github.com/sensei-notes/senseid/internal/config"
	"github.com/sensei-notes/senseid/internal/docid"
	"github.com/sensei-notes/senseid/internal/models"
	"github.com/sensei-notes/senseid/internal/storage"
	"github.com/sensei-notes/senseid/internal/vector"
)

// Extractor turns a file on disk into pages of plain text.
type Extractor interface {
	Extract(path string) ([]models.Page, error)
}

// Stats combines index statistics with the registry document count.
type Stats struct {
	models.IndexStats
	TotalDocuments int64 `json:"total_documents"`
}

// Coordinator wires extraction, chunking, embedding, and indexing into the
// ingest/query/delete operations exposed by the CLI and HTTP server.
type Coordinator struct {
	extractor Extractor
	chunker   *chunker.Chunker
	index     vector.Index
	registry  storage.Registry
	defaultK  int
	logger    *zap.Logger
}

// NewCoordinator creates a coordinator with the given dependencies.
func NewCoordinator(
	extractor Extractor,
	index vector.Index,
	registry storage.Registry,
	cfg *config.RetrievalConfig,
	logger *zap.Logger,
) *Coordinator {
	return &Coordinator{
		extractor: extractor,
		chunker:   chunker.NewChunker(cfg.ChunkSize, cfg.Overlap),
		index:     index,
		registry:  registry,
		defaultK:  cfg.DefaultK,
		logger:    logger,
	}
}

// Ingest extracts, chunks, embeds, and indexes the document at path, then
// registers it. An empty documentID is derived from the file name, so
// re-ingesting a file with the same name replaces its previous records.
// A document with no extractable text is registered with zero chunks.
func (c *Coordinator) Ingest(ctx context.Context, path, documentID string) (*models.DocumentRecord, error) {
	runID := uuid.New().String()
	if documentID == "" {
		documentID = docid.Derive(path)
	}
	logger := c.logger.With(
		zap.String("run_id", runID),
		zap.String("document_id", documentID),
		zap.String("path", path),
	)
	logger.Info("ingest started")

	pages, err := c.extractor.Extract(path)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", path, err)
	}

	// Drop any records from a previous version of this document before
	// adding the new ones, so a shrinking document leaves no stale chunks.
	if _, err := c.registry.Get(ctx, documentID); err == nil {
		if err := c.index.DeleteDocument(ctx, documentID); err != nil {
			return nil, fmt.Errorf("replace previous version: %w", err)
		}
		logger.Info("previous version removed")
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("check registry: %w", err)
	}

	chunks := c.chunker.Chunk(pages)
	if len(chunks) > 0 {
		if err := c.index.Add(ctx, documentID, chunks); err != nil {
			return nil, fmt.Errorf("index %s: %w", path, err)
		}
	} else {
		logger.Warn("document produced no chunks")
	}

	rec := &models.DocumentRecord{
		DocumentID: documentID,
		Filename:   filepath.Base(path),
		PageCount:  len(pages),
		ChunkCount: len(chunks),
	}
	if err := c.registry.Upsert(ctx, rec); err != nil {
		return nil, fmt.Errorf("register %s: %w", path, err)
	}

	logger.Info("ingest complete",
		zap.Int("pages", rec.PageCount),
		zap.Int("chunks", rec.ChunkCount),
	)
	return rec, nil
}

// Query runs a similarity search and formats the hits into a context string
// for downstream prompting. k <= 0 selects the configured default.
func (c *Coordinator) Query(ctx context.Context, query string, k int, filter map[string]string) (*models.QueryResponse, error) {
	if k <= 0 {
		k = c.defaultK
	}
	results, err := c.index.Query(ctx, query, k, filter)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	return &models.QueryResponse{
		Query:      query,
		Results:    results,
		Context:    FormatContext(results),
		NumResults: len(results),
	}, nil
}

// Delete removes a document from both the index and the registry.
// Unknown document IDs return storage.ErrNotFound.
func (c *Coordinator) Delete(ctx context.Context, documentID string) error {
	if err := c.index.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("delete from index: %w", err)
	}
	if err := c.registry.Delete(ctx, documentID); err != nil {
		return err
	}
	c.logger.Info("document deleted", zap.String("document_id", documentID))
	return nil
}

// List returns the registered documents, newest first.
func (c *Coordinator) List(ctx context.Context) ([]*models.DocumentRecord, error) {
	return c.registry.List(ctx)
}

// Stats reports index and registry counts.
func (c *Coordinator) Stats(ctx context.Context) (*Stats, error) {
	docs, err := c.registry.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	return &Stats{
		IndexStats:     c.index.Stats(),
		TotalDocuments: docs,
	}, nil
}

// FormatContext renders retrieval hits as numbered context blocks:
//
//	[Context 1 - Page 4]
//	<chunk text>
//
// Blocks are separated by a blank line. An empty result list yields "".
func FormatContext(results []*models.QueryResult) string {
	if len(results) == 0 {
		return ""
	}
	blocks := make([]string, len(results))
	for i, r := range results {
		page := r.Metadata["page_number"]
		if page == "" {
			page = "?"
		}
		blocks[i] = fmt.Sprintf("[Context %d - Page %s]\n%s\n", i+1, page, r.Text)
	}
	return strings.Join(blocks, "\n")
}
