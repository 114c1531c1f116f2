package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/diengg/diengg/config"
	"github.com/diengg/diengg/repositories"
	"github.com/diengg/diengg/repositories/postgres"
	"github.com/diengg/diengg/services/assistant"
	"github.com/diengg/diengg/services/completion"
	"github.com/diengg/diengg/services/embedding"
	"github.com/diengg/diengg/services/ingest"
	"github.com/diengg/diengg/services/rag"
	"github.com/diengg/diengg/services/vectorstore"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	Logger *zap.Logger

	// Vector store and providers
	Store      *vectorstore.Store
	Embedding  *embedding.Client
	Completion *completion.Client

	// Domain services
	Engine    *rag.Engine
	Ingestor  *ingest.Service
	Assistant *assistant.Service

	// Feedback persistence, nil when no feedback database is configured
	DB       *postgres.DB
	Feedback repositories.FeedbackRepository
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	deps.Embedding = embedding.NewClient(cfg.OpenAI, logger)
	deps.Completion = completion.NewClient(cfg.OpenAI, logger)

	store, err := vectorstore.NewStore(ctx, cfg.Milvus, cfg.OpenAI.EmbeddingDimension, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vector store: %w", err)
	}
	deps.Store = store

	// Collection setup failure is not fatal: the server starts, readiness
	// stays unhealthy and searches answer 503 until a later retry succeeds.
	if err := store.EnsureReady(ctx); err != nil {
		logger.Warn("vector store collections not ready", zap.Error(err))
	}

	deps.Engine = rag.NewEngine(deps.Embedding, store, deps.Completion, cfg.Retrieval.TopK, logger)
	deps.Ingestor = ingest.NewService(store, deps.Embedding, cfg.Retrieval.IngestBatchSize, logger)
	deps.Assistant = assistant.NewService(deps.Embedding, store, deps.Completion, cfg.Retrieval.TopK, logger)

	if err := deps.initFeedbackStore(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize feedback store: %w", err)
	}

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initFeedbackStore connects the optional PostgreSQL feedback store
func (d *Dependencies) initFeedbackStore(ctx context.Context, cfg *config.Config) error {
	if cfg.FeedbackDB == nil {
		d.Logger.Info("feedback database not configured, feedback will not be persisted")
		return nil
	}

	db, err := postgres.NewDB(*cfg.FeedbackDB, d.Logger)
	if err != nil {
		return err
	}
	if err := db.InitSchema(ctx); err != nil {
		_ = db.Close()
		return err
	}

	d.DB = db
	d.Feedback = postgres.NewFeedbackRepository(db, d.Logger)
	return nil
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.Store != nil {
		if err := d.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close vector store: %w", err))
		}
	}

	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
