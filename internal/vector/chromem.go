package vector

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	chromem "github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"github.com/sensei-notes/senseid/internal/config"
	"github.com/sensei-notes/senseid/internal/embedding"
	"github.com/sensei-notes/senseid/internal/models"
)

// ChromemIndex is an Index backed by an embedded chromem-go database.
// Every write is persisted to the configured directory, so the index
// survives restarts without an external service.
type ChromemIndex struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedder   embedding.Embedder
	logger     *zap.Logger
}

// NewChromemIndex opens (or creates) the persistent database and collection.
// The embedder is used for both stored chunks and incoming queries, so the
// two always share one vector space.
func NewChromemIndex(cfg *config.IndexConfig, embedder embedding.Embedder, logger *zap.Logger) (*ChromemIndex, error) {
	db, err := chromem.NewPersistentDB(cfg.PersistDirectory, false)
	if err != nil {
		return nil, fmt.Errorf("open vector database at %s: %w", cfg.PersistDirectory, err)
	}

	embedFn := func(ctx context.Context, text string) ([]float32, error) {
		return embedder.Embed(ctx, text)
	}
	collection, err := db.GetOrCreateCollection(cfg.CollectionName, nil, embedFn)
	if err != nil {
		return nil, fmt.Errorf("open collection %s: %w", cfg.CollectionName, err)
	}

	logger.Info("vector index ready",
		zap.String("persist_directory", cfg.PersistDirectory),
		zap.String("collection", cfg.CollectionName),
		zap.Int("records", collection.Count()),
	)
	return &ChromemIndex{
		db:         db,
		collection: collection,
		embedder:   embedder,
		logger:     logger,
	}, nil
}

// Add stores all chunks of a document. Chunk IDs are derived from the
// document ID and chunk index, so re-adding a document replaces its previous
// records instead of duplicating them.
func (x *ChromemIndex) Add(ctx context.Context, documentID string, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	embeddings, err := x.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed %d chunks: %w", len(chunks), err)
	}

	// A chunk with no word tokens embeds to the zero vector, which cannot be
	// normalized and would poison distance comparisons. Such chunks are
	// unqueryable anyway, so they are not stored.
	docs := make([]chromem.Document, 0, len(chunks))
	for i, chunk := range chunks {
		if zeroVector(embeddings[i]) {
			x.logger.Warn("chunk has no embeddable tokens, skipping",
				zap.String("document_id", documentID),
				zap.Int("chunk_index", chunk.ChunkIndex),
			)
			continue
		}
		metadata := map[string]string{
			"document_id": documentID,
			"page_number": strconv.Itoa(chunk.PageNumber),
			"chunk_index": strconv.Itoa(chunk.ChunkIndex),
		}
		for k, v := range chunk.Metadata {
			metadata[k] = v
		}
		docs = append(docs, chromem.Document{
			ID:        fmt.Sprintf("%s_chunk_%d", documentID, chunk.ChunkIndex),
			Content:   chunk.Text,
			Metadata:  metadata,
			Embedding: embeddings[i],
		})
	}
	if len(docs) == 0 {
		return nil
	}

	if err := x.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("store %d chunks: %w", len(docs), err)
	}
	return nil
}

// Query embeds the query text and returns up to k nearest chunks, optionally
// restricted by a metadata filter. Distance is cosine distance (1 - similarity).
func (x *ChromemIndex) Query(ctx context.Context, query string, k int, filter map[string]string) ([]*models.QueryResult, error) {
	count := x.collection.Count()
	if count == 0 || k <= 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	queryEmbedding, err := x.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if zeroVector(queryEmbedding) {
		x.logger.Debug("query has no embeddable tokens", zap.String("query", query))
		return nil, nil
	}

	hits, err := x.collection.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: queryEmbedding,
		NResults:       k,
		Where:          filter,
	})
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}

	results := make([]*models.QueryResult, len(hits))
	for i, hit := range hits {
		results[i] = &models.QueryResult{
			ID:       hit.ID,
			Text:     hit.Content,
			Metadata: hit.Metadata,
			Distance: 1 - float64(hit.Similarity),
		}
	}
	return results, nil
}

// DeleteDocument removes every chunk whose document_id metadata matches.
// Unknown document IDs are a no-op.
func (x *ChromemIndex) DeleteDocument(ctx context.Context, documentID string) error {
	if x.collection.Count() == 0 {
		return nil
	}
	where := map[string]string{"document_id": documentID}
	if err := x.collection.Delete(ctx, where, nil); err != nil {
		return fmt.Errorf("delete document %s: %w", documentID, err)
	}
	return nil
}

// Count returns the number of stored chunk records.
func (x *ChromemIndex) Count() int {
	return x.collection.Count()
}

// Stats describes the index.
func (x *ChromemIndex) Stats() models.IndexStats {
	return models.IndexStats{
		TotalRecords:       x.collection.Count(),
		EmbeddingDimension: x.embedder.Dimensions(),
		CollectionName:     x.collection.Name,
	}
}

// Close releases the index. The database persists on every write, so there
// is nothing to flush.
func (x *ChromemIndex) Close() error {
	return nil
}

func zeroVector(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
