package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/diengg/diengg/config"
	"github.com/diengg/diengg/services/embedding"
	"github.com/diengg/diengg/services/ingest"
	"github.com/diengg/diengg/services/vectorstore"
)

func main() {
	ticketsPath := flag.String("tickets", "", "path to a ticket export JSON file")
	teamPath := flag.String("team", "", "path to a team knowledge export JSON file")
	flag.Parse()

	if *ticketsPath == "" && *teamPath == "" {
		log.Fatal("nothing to ingest: pass -tickets and/or -team")
	}

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := vectorstore.NewStore(ctx, cfg.Milvus, cfg.OpenAI.EmbeddingDimension, logger)
	if err != nil {
		logger.Fatal("failed to connect to vector store", zap.Error(err))
	}
	defer func() { _ = store.Close() }()

	if err := store.EnsureReady(ctx); err != nil {
		logger.Fatal("failed to prepare collections", zap.Error(err))
	}

	embedder := embedding.NewClient(cfg.OpenAI, logger)
	svc := ingest.NewService(store, embedder, cfg.Retrieval.IngestBatchSize, logger)

	if *ticketsPath != "" {
		ingestFile(ctx, logger, *ticketsPath, "tickets", svc.IngestTickets)
	}
	if *teamPath != "" {
		ingestFile(ctx, logger, *teamPath, "team", svc.IngestTeamMembers)
	}
}

func ingestFile(ctx context.Context, logger *zap.Logger, path, kind string,
	run func(context.Context, []byte) (*ingest.Report, error)) {

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Fatal("failed to read export file",
			zap.String("path", path), zap.Error(err))
	}

	report, err := run(ctx, data)
	if err != nil {
		logger.Fatal("ingestion failed",
			zap.String("kind", kind),
			zap.String("path", path),
			zap.Error(err))
	}

	logger.Info("ingestion complete",
		zap.String("kind", kind),
		zap.String("path", path),
		zap.Int("total", report.Total),
		zap.Int("inserted", report.Inserted))
}
