// Package main is the senseid CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	iofs "io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sensei-notes/senseid/internal/cli"
	"github.com/sensei-notes/senseid/internal/config"
	"github.com/sensei-notes/senseid/internal/docid"
	"github.com/sensei-notes/senseid/internal/embedding"
	"github.com/sensei-notes/senseid/internal/extract"
	"github.com/sensei-notes/senseid/internal/retriever"
	"github.com/sensei-notes/senseid/internal/server"
	"github.com/sensei-notes/senseid/internal/storage"
	"github.com/sensei-notes/senseid/internal/vector"
	"github.com/sensei-notes/senseid/internal/watcher"
	"github.com/sensei-notes/senseid/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/senseid/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used. Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	switch os.Args[1] {
	case "serve":
		runServe()
	case "ingest":
		runIngest()
	case "query":
		runQuery()
	case "delete":
		runDelete()
	case "list":
		runList()
	case "stats":
		runStats()
	case "version", "--version", "-v":
		fmt.Printf("senseid version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// Components holds the wired service dependencies.
type Components struct {
	Registry    storage.Registry
	Embedder    embedding.Embedder
	Index       vector.Index
	Coordinator *retriever.Coordinator
}

// Close releases component resources in reverse dependency order.
func (c *Components) Close() {
	if c.Index != nil {
		_ = c.Index.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Registry != nil {
		_ = c.Registry.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	registry, err := storage.NewSQLiteRegistry(cfg.Registry.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize registry: %w", err)
	}

	embedder := embedding.NewEmbedder(&cfg.Embedding, logger)

	index, err := vector.NewChromemIndex(&cfg.Index, embedder, logger)
	if err != nil {
		_ = embedder.Close()
		_ = registry.Close()
		return nil, fmt.Errorf("failed to initialize vector index: %w", err)
	}

	coordinator := retriever.NewCoordinator(
		extract.NewExtractor(),
		index,
		registry,
		&cfg.Retrieval,
		logger,
	)
	return &Components{
		Registry:    registry,
		Embedder:    embedder,
		Index:       index,
		Coordinator: coordinator,
	}, nil
}

func setup(configPath string, debugFlag bool) (*config.Config, *zap.Logger, *Components) {
	cfg, resolvedPath, err := loadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug || debugFlag)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("config loaded", zap.String("config_path", resolvedPath))

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	return cfg, logger, components
}

func runServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, logger, components := setup(*configPath, *debug)
	defer logger.Sync()
	defer components.Close()

	coordinator := components.Coordinator
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()

	var watchSvc *watcher.Watcher
	if len(cfg.Watch.Directories) > 0 {
		watchSvc = watcher.NewWatcher(
			cfg.Watch.Directories,
			cfg.Watch.Extensions,
			func(path string) {
				if _, err := coordinator.Ingest(context.Background(), path, ""); err != nil {
					logger.Warn("watch ingest failed", zap.String("path", path), zap.Error(err))
				}
			},
			func(path string) {
				if err := coordinator.Delete(context.Background(), docid.Derive(path)); err != nil {
					logger.Warn("watch delete failed", zap.String("path", path), zap.Error(err))
				}
			},
			logger,
		)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		watchSvc.SyncExistingFiles()
	}

	srv := server.NewServer(coordinator, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	if watchSvc != nil {
		watchSvc.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	docID := fs.String("id", "", "document ID (default: derived from the file name)")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: senseid ingest [flags] <file-or-directory>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	cfg, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()

	ctx := context.Background()
	info, err := os.Stat(path)
	if err != nil {
		fmt.Printf("Failed to stat path: %v\n", err)
		os.Exit(1)
	}
	if info.IsDir() {
		if *docID != "" {
			fmt.Println("--id applies to a single file, not a directory")
			os.Exit(1)
		}
		n := 0
		err := filepath.WalkDir(path, func(p string, d iofs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			if !matchesExtensions(p, cfg.Watch.Extensions) {
				return nil
			}
			rec, err := components.Coordinator.Ingest(ctx, p, "")
			if err != nil {
				fmt.Printf("Failed: %s: %v\n", p, err)
				return nil
			}
			fmt.Printf("Ingested %s (%d pages, %d chunks)\n", rec.Filename, rec.PageCount, rec.ChunkCount)
			n++
			return nil
		})
		if err != nil {
			fmt.Printf("Ingesting directory failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Ingested %d file(s) from %s\n", n, path)
		return
	}

	rec, err := components.Coordinator.Ingest(ctx, path, *docID)
	if err != nil {
		fmt.Printf("Ingestion failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Document ingested: %s (%d pages, %d chunks)\n", rec.DocumentID, rec.PageCount, rec.ChunkCount)
}

func matchesExtensions(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := filepath.Ext(path)
	for _, e := range extensions {
		if e == ext {
			return true
		}
	}
	return false
}

func runQuery() {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	k := fs.Int("k", 0, "number of results (0 = config default)")
	docFilter := fs.String("document", "", "restrict results to one document ID")
	outputFormat := fs.String("output", "text", "output format: text, json, or context")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: senseid query [flags] <query text>")
		os.Exit(1)
	}
	queryStr := fs.Arg(0)
	for _, arg := range fs.Args()[1:] {
		queryStr += " " + arg
	}
	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	_, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()

	var filter map[string]string
	if *docFilter != "" {
		filter = map[string]string{"document_id": *docFilter}
	}
	resp, err := components.Coordinator.Query(context.Background(), queryStr, *k, filter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteQueryResults(os.Stdout, resp, format); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write results: %v\n", err)
		os.Exit(1)
	}
}

func runDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	byFile := fs.Bool("file", false, "treat the argument as a filename and derive the document ID")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: senseid delete [flags] <document-id>")
		os.Exit(1)
	}
	id := fs.Arg(0)
	if *byFile {
		id = docid.Derive(fs.Arg(0))
	}

	_, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()

	if err := components.Coordinator.Delete(context.Background(), id); err != nil {
		fmt.Printf("Deletion failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Document deleted: %s\n", id)
}

func runList() {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	_, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()

	docs, err := components.Coordinator.List(context.Background())
	if err != nil {
		fmt.Printf("Listing failed: %v\n", err)
		os.Exit(1)
	}
	if len(docs) == 0 {
		fmt.Println("No documents ingested.")
		return
	}
	for _, d := range docs {
		fmt.Printf("%s  %-30s  %3d pages  %4d chunks  %s\n",
			d.DocumentID, d.Filename, d.PageCount, d.ChunkCount, d.IngestedAt.Format(time.RFC3339))
	}
}

func runStats() {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	_, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()

	stats, err := components.Coordinator.Stats(context.Background())
	if err != nil {
		fmt.Printf("Stats failed: %v\n", err)
		os.Exit(1)
	}
	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(stats)
	default:
		fmt.Printf("Collection:  %s\n", stats.CollectionName)
		fmt.Printf("Documents:   %d\n", stats.TotalDocuments)
		fmt.Printf("Chunks:      %d\n", stats.TotalRecords)
		fmt.Printf("Dimensions:  %d\n", stats.EmbeddingDimension)
	}
}

func printUsage() {
	fmt.Println(`senseid - local PDF retrieval service

Usage:
  senseid serve [flags]            Start the HTTP server (and drop-dir watcher)
  senseid ingest [flags] <path>    Ingest a PDF file or directory
  senseid query [flags] <text>     Run a similarity query
  senseid delete [flags] <id>      Delete a document by ID
  senseid list [flags]             List ingested documents
  senseid stats [flags]            Show index statistics
  senseid version                  Show version
  senseid help                     Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/senseid/config.yaml,
                     falling back to ./config.yaml when present)

Serve Flags:
  --debug            Enable debug logging

Ingest Flags:
  --id string        Document ID for a single file (default: derived from the file name)

Query Flags:
  --k int            Number of results (default from config)
  --document string  Restrict results to one document ID
  --output string    Output format: text, json, or context (default: text)

Delete Flags:
  --file             Treat the argument as a filename and derive the document ID

Examples:
  senseid serve
  senseid ingest lecture_notes.pdf
  senseid ingest ./papers
  senseid query "what is photosynthesis"
  senseid query --k 3 --output json "entropy definition"
  senseid delete 4519b12f8c3a
  senseid delete --file lecture_notes.pdf
  senseid stats`)
}
