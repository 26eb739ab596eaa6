package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ideascout/internal/config"
	dbRedis "github.com/kailas-cloud/ideascout/internal/db/redis"
	"github.com/kailas-cloud/ideascout/internal/domain"
	logpkg "github.com/kailas-cloud/ideascout/internal/logger"
	"github.com/kailas-cloud/ideascout/internal/metrics"
	catalogrepo "github.com/kailas-cloud/ideascout/internal/repository/catalog"
	"github.com/kailas-cloud/ideascout/internal/repository/embcache"
	"github.com/kailas-cloud/ideascout/internal/transport/arxiv"
	chiTransport "github.com/kailas-cloud/ideascout/internal/transport/chi"
	openaiTransport "github.com/kailas-cloud/ideascout/internal/transport/openai"
	cataloguc "github.com/kailas-cloud/ideascout/internal/usecase/catalog"
	chatuc "github.com/kailas-cloud/ideascout/internal/usecase/chat"
	embeddinguc "github.com/kailas-cloud/ideascout/internal/usecase/embedding"
	enrichuc "github.com/kailas-cloud/ideascout/internal/usecase/enrich"
	healthuc "github.com/kailas-cloud/ideascout/internal/usecase/health"
	"github.com/kailas-cloud/ideascout/internal/usecase/literature"
	searchuc "github.com/kailas-cloud/ideascout/internal/usecase/search"
	streamuc "github.com/kailas-cloud/ideascout/internal/usecase/stream"
	"github.com/kailas-cloud/ideascout/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting ideascout API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()

	embedder := buildEmbedder(&cfg, store, logger)
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	catalogRepo := catalogrepo.New(store).WithHNSW(catalogrepo.HNSWConfig{
		M:           cfg.Catalog.HNSWM,
		EFConstruct: cfg.Catalog.HNSWEFConstruct,
	})
	if err := catalogRepo.EnsureIndex(ctx, cfg.Embedding.Dimensions); err != nil {
		logger.Fatal("Failed to ensure catalog index", zap.Error(err))
	}

	arxivClient := arxiv.New(arxiv.Config{
		BaseURL: cfg.Literature.BaseURL,
		Timeout: time.Duration(cfg.Literature.TimeoutSec) * time.Second,
		Logger:  logger,
	})
	literatureSvc, err := literature.New(arxivClient, embedder, literature.Config{
		Scope:    cfg.Literature.Scope,
		ImageURL: cfg.Literature.ImageURL,
		Workers:  cfg.Literature.EmbedWorkers,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create literature adapter", zap.Error(err))
	}
	defer literatureSvc.Release()

	dispatcher := searchuc.NewDispatcher(embedder, catalogRepo, literatureSvc, searchuc.Config{
		AdapterTimeout: time.Duration(cfg.Search.AdapterTimeoutSec) * time.Second,
		SourceCaps:     cfg.SourceCaps(),
	}, logger)

	analyzer := openaiTransport.NewAnalyzer(&openaiTransport.Config{
		APIKey:  cfg.Enrichment.APIKey,
		BaseURL: cfg.Enrichment.BaseURL,
		Model:   cfg.Enrichment.Model,
		Logger:  logger,
	})
	enricher := enrichuc.New(analyzer, time.Duration(cfg.Enrichment.TimeoutSec)*time.Second, logger)

	tracker := cataloguc.NewSizeTracker(catalogRepo, logger)
	go tracker.Run(ctx, time.Duration(cfg.Catalog.RefreshIntervalSec)*time.Second)

	streamSvc := streamuc.New(enricher, dispatcher, tracker, cfg.Search.SimilarityThreshold, logger)

	responder := openaiTransport.NewResponder(&openaiTransport.Config{
		APIKey:  cfg.Chat.APIKey,
		BaseURL: cfg.Chat.BaseURL,
		Model:   cfg.Chat.Model,
		Logger:  logger,
	}, cfg.Chat.SystemPrompt)
	chatSvc := chatuc.New(responder, dispatcher, cfg.Search.SimilarityThreshold, logger)

	healthSvc := healthuc.New(store, newEmbeddingHealthChecker(embedder), arxivClient)

	server := chiTransport.NewServer(streamSvc, chatSvc, healthSvc, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      chiTransport.NewRouter(server, cfg.Auth.APIKeys),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// embeddingHealthChecker wraps domain.Embedder to implement health.Checker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented.
func buildEmbedder(cfg *config.Config, store *dbRedis.Store, logger *zap.Logger) domain.Embedder {
	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	if cfg.Embedding.Cache.Enabled {
		embedder = embcache.New(
			base, store, cfg.Embedding.Model,
			time.Duration(cfg.Embedding.Cache.TTLHours)*time.Hour,
			metrics.EmbeddingCacheTotal, logger,
		)
	}

	return embeddinguc.NewInstrumentedEmbedder(
		embedder, cfg.Embedding.Provider, cfg.Embedding.Model, logger,
	)
}
