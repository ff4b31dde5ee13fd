// Package integration exercises the full ingest/query/delete flow against
// real persistence (chromem index and SQLite registry).
package integration

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/sensei-notes/senseid/internal/config"
	"github.com/sensei-notes/senseid/internal/embedding"
	"github.com/sensei-notes/senseid/internal/models"
	"github.com/sensei-notes/senseid/internal/retriever"
	"github.com/sensei-notes/senseid/internal/storage"
	"github.com/sensei-notes/senseid/internal/vector"
)

// pageExtractor serves canned pages per base filename, standing in for PDF
// parsing so the test covers everything downstream of extraction.
type pageExtractor map[string][]models.Page

func (p pageExtractor) Extract(path string) ([]models.Page, error) {
	return p[filepath.Base(path)], nil
}

func TestIntegration_RetrievalFlow(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		Index: config.IndexConfig{
			PersistDirectory: filepath.Join(dir, "chroma_db"),
			CollectionName:   "sensei_notes",
		},
		Registry:  config.RegistryConfig{DatabasePath: filepath.Join(dir, "senseid.db")},
		Embedding: config.EmbeddingConfig{Dimensions: 128},
		Retrieval: config.RetrievalConfig{ChunkSize: 120, Overlap: 20, DefaultK: 5},
	}

	embedder := embedding.NewEmbedder(&cfg.Embedding, zap.NewNop())
	defer embedder.Close()

	index, err := vector.NewChromemIndex(&cfg.Index, embedder, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer index.Close()

	registry, err := storage.NewSQLiteRegistry(cfg.Registry.DatabasePath)
	if err != nil {
		t.Fatal(err)
	}
	defer registry.Close()

	extractor := pageExtractor{
		"biology.pdf": {
			{PageNumber: 1, Text: "Photosynthesis converts sunlight into chemical energy. Chlorophyll absorbs light in the chloroplast."},
			{PageNumber: 2, Text: "Cellular respiration releases energy stored in glucose molecules."},
		},
		"physics.pdf": {
			{PageNumber: 1, Text: "Entropy measures the disorder of a thermodynamic system."},
		},
	}
	coordinator := retriever.NewCoordinator(extractor, index, registry, &cfg.Retrieval, zap.NewNop())
	ctx := context.Background()

	bio, err := coordinator.Ingest(ctx, "/drop/biology.pdf", "")
	if err != nil {
		t.Fatalf("Ingest biology: %v", err)
	}
	phys, err := coordinator.Ingest(ctx, "/drop/physics.pdf", "")
	if err != nil {
		t.Fatalf("Ingest physics: %v", err)
	}

	resp, err := coordinator.Query(ctx, "photosynthesis chlorophyll sunlight", 3, nil)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if resp.NumResults == 0 {
		t.Fatal("expected results")
	}
	if !strings.Contains(strings.ToLower(resp.Results[0].Text), "photosynthesis") &&
		!strings.Contains(strings.ToLower(resp.Results[0].Text), "chlorophyll") {
		t.Errorf("top hit off-topic: %q", resp.Results[0].Text)
	}
	if !strings.HasPrefix(resp.Context, "[Context 1 - Page ") {
		t.Errorf("context format: %q", resp.Context)
	}

	// Filtered query stays inside the chosen document.
	filtered, err := coordinator.Query(ctx, "energy", 5, map[string]string{"document_id": phys.DocumentID})
	if err != nil {
		t.Fatalf("filtered Query: %v", err)
	}
	for _, r := range filtered.Results {
		if r.Metadata["document_id"] != phys.DocumentID {
			t.Errorf("filter leaked document %q", r.Metadata["document_id"])
		}
	}

	// Delete one document; its chunks disappear, the other stays queryable.
	if err := coordinator.Delete(ctx, bio.DocumentID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	stats, err := coordinator.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalDocuments != 1 {
		t.Errorf("TotalDocuments = %d, want 1", stats.TotalDocuments)
	}
	if stats.TotalRecords != phys.ChunkCount {
		t.Errorf("TotalRecords = %d, want %d", stats.TotalRecords, phys.ChunkCount)
	}

	after, err := coordinator.Query(ctx, "entropy thermodynamic disorder", 5, nil)
	if err != nil {
		t.Fatalf("Query after delete: %v", err)
	}
	for _, r := range after.Results {
		if r.Metadata["document_id"] == bio.DocumentID {
			t.Errorf("deleted document still retrievable: %s", r.ID)
		}
	}
}
