// Package models defines core data structures for pages, chunks, and query results.
package models

import "time"

// Page holds the extracted text of a single PDF page. Page numbers are 1-indexed.
// Pages are inputs to chunking only and are not persisted.
type Page struct {
	PageNumber int    `json:"page_number"`
	Text       string `json:"text"`
}

// Chunk is a bounded, sentence-aligned slice of a page's text prepared for embedding.
// ChunkIndex increases monotonically across the whole document, not per page.
// Chunks are immutable once created.
type Chunk struct {
	Text       string            `json:"text"`
	PageNumber int               `json:"page_number"`
	ChunkIndex int               `json:"chunk_index"`
	Metadata   map[string]string `json:"metadata"`
}

// DocumentRecord is a registry row describing one ingested document.
type DocumentRecord struct {
	DocumentID string    `json:"document_id" db:"document_id"`
	Filename   string    `json:"filename" db:"filename"`
	PageCount  int       `json:"page_count" db:"page_count"`
	ChunkCount int       `json:"chunk_count" db:"chunk_count"`
	IngestedAt time.Time `json:"ingested_at" db:"ingested_at"`
}
