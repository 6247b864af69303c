package main

import (
	"context"
	"flag"
	"log"

	"leaf-research-be/internal/bootstrap"
	"leaf-research-be/internal/config"
	"leaf-research-be/internal/pkg/logger"
	"leaf-research-be/internal/repository/unitofwork"
	"leaf-research-be/pkg/database"
	"leaf-research-be/pkg/embedding"
	"leaf-research-be/pkg/ingest"
	"leaf-research-be/pkg/pdf"
)

// Corpus documents are read in full, unlike chat attachments.
const maxPages = 2000

func main() {
	dir := flag.String("dir", "data", "directory holding the PDF corpus")
	embed := flag.Bool("embed", true, "compute embeddings with the configured embedding provider")
	chunkSize := flag.Int("chunk-size", ingest.DefaultChunkSize, "chunk size in characters")
	overlap := flag.Int("overlap", ingest.DefaultOverlap, "overlap between chunks in characters")
	flag.Parse()

	// 1. Load Configuration
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, cfg.Database.Verbose)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	defer sysLogger.Sync()

	var embedder embedding.EmbeddingProvider
	if *embed {
		embedder = bootstrap.NewEmbedder(cfg)
	}

	// 2. Ingest
	ctx := context.Background()
	store := unitofwork.NewRepositoryFactory(db).NewUnitOfWork(ctx).DocumentChunkRepository()
	in := ingest.NewIngester(store, pdf.NewExtractor(sysLogger, maxPages), embedder, sysLogger)
	in.ChunkSize, in.Overlap = *chunkSize, *overlap

	log.Printf("Ingesting PDFs from %s...", *dir)
	report, err := in.IngestDir(ctx, *dir)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	total, _ := store.Count(ctx)
	log.Printf("Ingestion completed: %d files, %d chunks (%d failed). Collection size: %d",
		report.Files, report.Chunks, len(report.Failed), total)
}
