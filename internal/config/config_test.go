package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
index:
  persist_directory: "./vectors"
  collection_name: "notes"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Index.CollectionName != "notes" {
		t.Errorf("collection_name: got %q", cfg.Index.CollectionName)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
	if cfg.Embedding.UseModel {
		t.Error("use_model should default to false")
	}
}

func TestLoad_defaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("{}\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Retrieval.ChunkSize != 512 || cfg.Retrieval.Overlap != 50 || cfg.Retrieval.DefaultK != 5 {
		t.Errorf("retrieval defaults: %+v", cfg.Retrieval)
	}
	if cfg.Embedding.Dimensions != 384 {
		t.Errorf("dimensions default: got %d", cfg.Embedding.Dimensions)
	}
	if filepath.Base(cfg.Index.PersistDirectory) != "chroma_db" {
		t.Errorf("persist_directory default: got %q", cfg.Index.PersistDirectory)
	}
	if cfg.Index.CollectionName != "sensei_notes" {
		t.Errorf("collection_name default: got %q", cfg.Index.CollectionName)
	}
	if len(cfg.Watch.Extensions) != 1 || cfg.Watch.Extensions[0] != ".pdf" {
		t.Errorf("watch extensions default: %v", cfg.Watch.Extensions)
	}
}

func TestLoad_zeroOverlapPreserved(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
retrieval:
  chunk_size: 256
  overlap: 0
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Retrieval.Overlap != 0 {
		t.Errorf("explicit overlap: 0 not preserved, got %d", cfg.Retrieval.Overlap)
	}
	if cfg.Retrieval.ChunkSize != 256 {
		t.Errorf("chunk_size: got %d, want 256", cfg.Retrieval.ChunkSize)
	}
	// An unset sibling key still gets its default.
	if cfg.Retrieval.DefaultK != 5 {
		t.Errorf("default_k: got %d, want 5", cfg.Retrieval.DefaultK)
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
index:
  persist_directory: "./vectors"
registry:
  database_path: "./senseid.db"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Index.PersistDirectory != filepath.Join(dir, "vectors") {
		t.Errorf("persist_directory not expanded relative to config dir: %q", cfg.Index.PersistDirectory)
	}
	if cfg.Registry.DatabasePath != filepath.Join(dir, "senseid.db") {
		t.Errorf("database_path not expanded relative to config dir: %q", cfg.Registry.DatabasePath)
	}
}

func TestLoad_missingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Error("expected error for missing config file")
	}
}
