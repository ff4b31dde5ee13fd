package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sensei-notes/senseid/internal/models"
)

// SQLiteRegistry implements Registry using SQLite.
type SQLiteRegistry struct {
	db *sql.DB
}

// NewSQLiteRegistry opens or creates a SQLite database at dbPath and
// initializes the schema. Parent directories are created if they do not exist.
func NewSQLiteRegistry(dbPath string) (*SQLiteRegistry, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteRegistry{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		document_id TEXT PRIMARY KEY,
		filename TEXT NOT NULL,
		page_count INTEGER NOT NULL,
		chunk_count INTEGER NOT NULL,
		ingested_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_documents_ingested_at ON documents(ingested_at);
	`
	_, err := db.Exec(schema)
	return err
}

// Upsert inserts or replaces the record for rec.DocumentID.
func (s *SQLiteRegistry) Upsert(ctx context.Context, rec *models.DocumentRecord) error {
	if rec.IngestedAt.IsZero() {
		rec.IngestedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (document_id, filename, page_count, chunk_count, ingested_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(document_id) DO UPDATE SET
		   filename = excluded.filename,
		   page_count = excluded.page_count,
		   chunk_count = excluded.chunk_count,
		   ingested_at = excluded.ingested_at`,
		rec.DocumentID, rec.Filename, rec.PageCount, rec.ChunkCount, rec.IngestedAt,
	)
	return err
}

// Get returns the record for id.
func (s *SQLiteRegistry) Get(ctx context.Context, id string) (*models.DocumentRecord, error) {
	var rec models.DocumentRecord
	err := s.db.QueryRowContext(ctx,
		`SELECT document_id, filename, page_count, chunk_count, ingested_at
		 FROM documents WHERE document_id = ?`, id,
	).Scan(&rec.DocumentID, &rec.Filename, &rec.PageCount, &rec.ChunkCount, &rec.IngestedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// List returns all records, newest first.
func (s *SQLiteRegistry) List(ctx context.Context) ([]*models.DocumentRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT document_id, filename, page_count, chunk_count, ingested_at
		 FROM documents ORDER BY ingested_at DESC, document_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.DocumentRecord
	for rows.Next() {
		var rec models.DocumentRecord
		if err := rows.Scan(&rec.DocumentID, &rec.Filename, &rec.PageCount, &rec.ChunkCount, &rec.IngestedAt); err != nil {
			return nil, err
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// Delete removes the record for id.
func (s *SQLiteRegistry) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE document_id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Count returns the number of registered documents.
func (s *SQLiteRegistry) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	return count, err
}

// Close closes the database.
func (s *SQLiteRegistry) Close() error {
	return s.db.Close()
}
