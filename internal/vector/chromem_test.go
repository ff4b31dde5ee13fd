package vector

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/sensei-notes/senseid/internal/config"
	"github.com/sensei-notes/senseid/internal/embedding"
	"github.com/sensei-notes/senseid/internal/models"
)

func newTestIndex(t *testing.T, dir string) *ChromemIndex {
	t.Helper()
	cfg := &config.IndexConfig{
		PersistDirectory: dir,
		CollectionName:   "test_notes",
	}
	idx, err := NewChromemIndex(cfg, embedding.NewHashedEmbedder(64), zap.NewNop())
	if err != nil {
		t.Fatalf("NewChromemIndex: %v", err)
	}
	return idx
}

func testChunks(texts []string, pageNumber int) []models.Chunk {
	chunks := make([]models.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = models.Chunk{
			Text:       text,
			PageNumber: pageNumber,
			ChunkIndex: i,
		}
	}
	return chunks
}

func TestChromemIndex_AddAndQuery(t *testing.T) {
	idx := newTestIndex(t, t.TempDir())
	defer idx.Close()
	ctx := context.Background()

	err := idx.Add(ctx, "doc1", testChunks([]string{
		"photosynthesis converts sunlight into chemical energy",
		"mitochondria produce adenosine triphosphate",
	}, 1))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if idx.Count() != 2 {
		t.Fatalf("Count = %d, want 2", idx.Count())
	}

	results, err := idx.Query(ctx, "photosynthesis converts sunlight into chemical energy", 1, nil)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].ID != "doc1_chunk_0" {
		t.Errorf("top hit = %s, want doc1_chunk_0", results[0].ID)
	}
	if results[0].Distance > 0.01 {
		t.Errorf("exact match distance = %f, want near 0", results[0].Distance)
	}
	if results[0].Metadata["document_id"] != "doc1" {
		t.Errorf("document_id metadata = %q", results[0].Metadata["document_id"])
	}
	if results[0].Metadata["page_number"] != "1" {
		t.Errorf("page_number metadata = %q", results[0].Metadata["page_number"])
	}
}

func TestChromemIndex_QueryClampsK(t *testing.T) {
	idx := newTestIndex(t, t.TempDir())
	defer idx.Close()
	ctx := context.Background()

	if err := idx.Add(ctx, "doc1", testChunks([]string{"only one chunk here"}, 1)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	results, err := idx.Query(ctx, "one chunk", 10, nil)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("got %d results, want 1", len(results))
	}
}

func TestChromemIndex_QueryEmptyIndex(t *testing.T) {
	idx := newTestIndex(t, t.TempDir())
	defer idx.Close()

	results, err := idx.Query(context.Background(), "anything", 5, nil)
	if err != nil {
		t.Fatalf("Query on empty index: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results, want 0", len(results))
	}
}

func TestChromemIndex_TokenFreeQueryReturnsNoResults(t *testing.T) {
	idx := newTestIndex(t, t.TempDir())
	defer idx.Close()
	ctx := context.Background()

	if err := idx.Add(ctx, "doc1", testChunks([]string{"ordinary text chunk"}, 1)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	// Punctuation-only text embeds to the zero vector, which has no defined
	// cosine distance to anything.
	results, err := idx.Query(ctx, "??? !!!", 1, nil)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("got %d results for token-free query, want 0: %+v", len(results), results)
	}
}

func TestChromemIndex_SkipsTokenFreeChunks(t *testing.T) {
	idx := newTestIndex(t, t.TempDir())
	defer idx.Close()
	ctx := context.Background()

	err := idx.Add(ctx, "doc1", testChunks([]string{
		"??? !!!",
		"ordinary text chunk",
	}, 1))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if idx.Count() != 1 {
		t.Fatalf("Count = %d, want 1 (token-free chunk should not be stored)", idx.Count())
	}

	results, err := idx.Query(ctx, "ordinary text", 2, nil)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	for _, r := range results {
		if r.Distance != r.Distance {
			t.Errorf("result %s has NaN distance", r.ID)
		}
	}
	if len(results) != 1 || results[0].ID != "doc1_chunk_1" {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestChromemIndex_AddOnlyTokenFreeChunks(t *testing.T) {
	idx := newTestIndex(t, t.TempDir())
	defer idx.Close()

	if err := idx.Add(context.Background(), "doc1", testChunks([]string{"..."}, 1)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if idx.Count() != 0 {
		t.Errorf("Count = %d, want 0", idx.Count())
	}
}

func TestChromemIndex_FilterRestrictsResults(t *testing.T) {
	idx := newTestIndex(t, t.TempDir())
	defer idx.Close()
	ctx := context.Background()

	if err := idx.Add(ctx, "doc1", testChunks([]string{"neural networks learn representations"}, 1)); err != nil {
		t.Fatalf("Add doc1: %v", err)
	}
	if err := idx.Add(ctx, "doc2", testChunks([]string{"neural networks learn from gradients"}, 1)); err != nil {
		t.Fatalf("Add doc2: %v", err)
	}

	results, err := idx.Query(ctx, "neural networks", 2, map[string]string{"document_id": "doc2"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	for _, r := range results {
		if r.Metadata["document_id"] != "doc2" {
			t.Errorf("filtered query returned record from %q", r.Metadata["document_id"])
		}
	}
	if len(results) == 0 {
		t.Error("expected at least one filtered result")
	}
}

func TestChromemIndex_ReAddReplacesChunks(t *testing.T) {
	idx := newTestIndex(t, t.TempDir())
	defer idx.Close()
	ctx := context.Background()

	chunks := testChunks([]string{"first version", "second part"}, 1)
	if err := idx.Add(ctx, "doc1", chunks); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := idx.Add(ctx, "doc1", chunks); err != nil {
		t.Fatalf("re-Add: %v", err)
	}
	if idx.Count() != 2 {
		t.Errorf("Count after re-add = %d, want 2", idx.Count())
	}
}

func TestChromemIndex_DeleteDocument(t *testing.T) {
	idx := newTestIndex(t, t.TempDir())
	defer idx.Close()
	ctx := context.Background()

	if err := idx.Add(ctx, "doc1", testChunks([]string{"chunk alpha", "chunk beta"}, 1)); err != nil {
		t.Fatalf("Add doc1: %v", err)
	}
	if err := idx.Add(ctx, "doc2", testChunks([]string{"chunk gamma"}, 1)); err != nil {
		t.Fatalf("Add doc2: %v", err)
	}

	if err := idx.DeleteDocument(ctx, "doc1"); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	if idx.Count() != 1 {
		t.Errorf("Count after delete = %d, want 1", idx.Count())
	}

	// Unknown IDs and repeated deletes are no-ops.
	if err := idx.DeleteDocument(ctx, "doc1"); err != nil {
		t.Errorf("repeated DeleteDocument: %v", err)
	}
	if err := idx.DeleteDocument(ctx, "never-ingested"); err != nil {
		t.Errorf("DeleteDocument unknown: %v", err)
	}
	if idx.Count() != 1 {
		t.Errorf("Count = %d, want 1", idx.Count())
	}
}

func TestChromemIndex_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	idx := newTestIndex(t, dir)
	if err := idx.Add(ctx, "doc1", testChunks([]string{"persistent storage of vectors"}, 3)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened := newTestIndex(t, dir)
	defer reopened.Close()
	if reopened.Count() != 1 {
		t.Fatalf("Count after reopen = %d, want 1", reopened.Count())
	}
	results, err := reopened.Query(ctx, "persistent storage of vectors", 1, nil)
	if err != nil {
		t.Fatalf("Query after reopen: %v", err)
	}
	if len(results) != 1 || results[0].ID != "doc1_chunk_0" {
		t.Fatalf("unexpected results after reopen: %+v", results)
	}
	if results[0].Metadata["page_number"] != "3" {
		t.Errorf("page_number after reopen = %q", results[0].Metadata["page_number"])
	}
}

func TestChromemIndex_Stats(t *testing.T) {
	idx := newTestIndex(t, t.TempDir())
	defer idx.Close()

	if err := idx.Add(context.Background(), "doc1", testChunks([]string{"a chunk"}, 1)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	stats := idx.Stats()
	if stats.TotalRecords != 1 {
		t.Errorf("TotalRecords = %d", stats.TotalRecords)
	}
	if stats.EmbeddingDimension != 64 {
		t.Errorf("EmbeddingDimension = %d", stats.EmbeddingDimension)
	}
	if stats.CollectionName != "test_notes" {
		t.Errorf("CollectionName = %q", stats.CollectionName)
	}
}
