package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/user/blog-analyzer/internal/adapter/anthropic"
	"github.com/user/blog-analyzer/internal/adapter/browser"
	"github.com/user/blog-analyzer/internal/adapter/httpfetch"
	"github.com/user/blog-analyzer/internal/adapter/localblob"
	"github.com/user/blog-analyzer/internal/adapter/openai"
	"github.com/user/blog-analyzer/internal/adapter/postgres"
	"github.com/user/blog-analyzer/internal/adapter/redisblob"
	"github.com/user/blog-analyzer/internal/cluster"
	"github.com/user/blog-analyzer/internal/delivery/http/handler"
	"github.com/user/blog-analyzer/internal/delivery/http/router"
	"github.com/user/blog-analyzer/internal/repository"
	"github.com/user/blog-analyzer/internal/scraper"
	"github.com/user/blog-analyzer/internal/usecase"
	"github.com/user/blog-analyzer/pkg/config"
	"github.com/user/blog-analyzer/pkg/logger"
	"github.com/user/blog-analyzer/pkg/metrics"
)

func main() {
	// --- Configuration ---
	cfg := config.Load()

	// --- Logger ---
	logLevel := slog.LevelInfo
	if cfg.LogLevel == "debug" {
		logLevel = slog.LevelDebug
	}
	logger.Init(os.Stdout, logLevel)
	slog.Info("Logger initialized", "level", logLevel.String())

	// --- Metrics ---
	metrics.Init()
	slog.Info("Metrics initialized")

	ctx := context.Background()

	// --- Blob Storage ---
	var blobs repository.BlobRepository
	switch cfg.StorageType {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			slog.Error("Unable to connect to Redis", "error", err)
			os.Exit(1)
		}
		blobs = redisblob.New(rdb)
		slog.Info("Redis storage initialized", "addr", cfg.RedisAddr)
	default:
		store, err := localblob.New(cfg.StorageDir)
		if err != nil {
			slog.Error("Unable to initialize local storage", "dir", cfg.StorageDir, "error", err)
			os.Exit(1)
		}
		blobs = store
		slog.Info("Local storage initialized", "dir", cfg.StorageDir)
	}

	// --- Report Persistence (optional) ---
	var reports repository.ReportRepository
	if cfg.PostgresEnabled {
		pgConnString := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresDB)
		dbpool, err := pgxpool.New(ctx, pgConnString)
		if err != nil {
			slog.Error("Unable to connect to database", "error", err)
			os.Exit(1)
		}
		defer dbpool.Close()
		reports = postgres.NewReportRepo(dbpool)
		slog.Info("PostgreSQL connection pool established")
	}

	// --- Fetchers ---
	httpFetcher := httpfetch.New(cfg.FetchTimeout)
	browserFetcher := browser.New(cfg.FetchTimeout)
	extractor := scraper.NewExtractor(httpFetcher)
	contentFetcher := scraper.NewContentFetcher(httpFetcher, browserFetcher)

	// --- Analyzer Provider ---
	var analyzer repository.PostAnalyzer
	var labeler repository.ClusterLabeler
	var embedder repository.Embedder

	openaiClient := openai.New(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.EmbeddingModel)
	embedder = openaiClient

	switch cfg.AIProvider {
	case "openai":
		analyzer = openaiClient
		labeler = openaiClient
	default:
		anthropicClient := anthropic.New(cfg.AnthropicAPIKey, cfg.AnthropicBaseURL, cfg.AnthropicModel)
		analyzer = anthropicClient
		labeler = anthropicClient
	}
	slog.Info("Analyzer provider initialized", "provider", cfg.AIProvider)

	// --- Use Cases ---
	batch := usecase.NewBatchOrchestrator(analyzer, usecase.DefaultRetryPolicy(), cfg.AnalysisWorkers)
	checkpoints := usecase.NewCheckpointManager(blobs)

	params := usecase.PipelineParams{
		Links:                extractor,
		Posts:                contentFetcher,
		Batch:                batch,
		Checkpoints:          checkpoints,
		Labeler:              labeler,
		Blobs:                blobs,
		Reports:              reports,
		FollowPagination:     cfg.FollowPagination,
		MaxPages:             cfg.MaxPages,
		CheckpointMaxAgeDays: cfg.CheckpointMaxAgeDays,
	}
	if cfg.EnableClustering {
		params.Grouper = cluster.NewGrouper(embedder)
	}
	pipeline := usecase.NewPipeline(params)

	// One-shot mode: analyze a single seed URL and exit.
	if cfg.SeedURL != "" {
		result, err := pipeline.Run(ctx, cfg.SeedURL, cfg.MaxPosts)
		if err != nil {
			slog.Error("Analysis run failed", "url", cfg.SeedURL, "error", err)
			os.Exit(1)
		}
		slog.Info("Analysis run finished",
			"run_id", result.RunID,
			"posts", len(result.Records),
			"document_key", result.DocumentKey)
		return
	}

	// --- HTTP Server ---
	apiHandler := handler.NewHandler(pipeline, checkpoints, blobs, cfg.MaxPosts)
	httpRouter := router.New(apiHandler)

	server := &http.Server{
		Addr:        ":" + cfg.ServerPort,
		Handler:     httpRouter,
		ReadTimeout: 5 * time.Second,
		// Analysis runs are served synchronously and can take many
		// minutes, so the write timeout is generous.
		WriteTimeout: 30 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	slog.Info("Starting server", "port", cfg.ServerPort)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("Could not listen on port", "port", cfg.ServerPort, "error", err)
		os.Exit(1)
	}
}
