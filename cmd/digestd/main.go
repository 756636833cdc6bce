// Command digestd runs the daily AI-news digest as a long-lived cron
// worker: it loads active sources, fans out the three gatherer branches,
// and synthesizes a ranked digest once per scheduled run.
package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/robfig/cron/v3"

	pgRepo "catchup-feed/internal/infra/adapter/persistence/postgres"
	"catchup-feed/internal/infra/db"
	"catchup-feed/internal/infra/extractor"
	"catchup-feed/internal/infra/provider"
	workerPkg "catchup-feed/internal/infra/worker"
	"catchup-feed/internal/pkg/config"
	"catchup-feed/internal/usecase/dedup"
	"catchup-feed/internal/usecase/extract"
	"catchup-feed/internal/usecase/gather"
	"catchup-feed/internal/usecase/orchestrator"
	"catchup-feed/internal/usecase/source"
	"catchup-feed/internal/usecase/synthesize"
)

func main() {
	logger := initLogger()
	database := initDatabase(logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := workerPkg.NewWorkerMetrics()
	metrics.MustRegister()
	workerConfig, err := workerPkg.LoadConfigFromEnv(logger, metrics)
	if err != nil {
		logger.Error("failed to load worker configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("digestd configuration loaded",
		slog.String("cron_schedule", workerConfig.CronSchedule),
		slog.String("timezone", workerConfig.Timezone),
		slog.Duration("run_deadline", workerConfig.CrawlTimeout),
		slog.Int("health_port", workerConfig.HealthPort))

	startMetricsServer(ctx, logger)

	healthAddr := fmt.Sprintf(":%d", workerConfig.HealthPort)
	healthServer := workerPkg.NewHealthServer(healthAddr, logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()
	logger.Info("health check server started", slog.String("addr", healthAddr))

	orch := buildOrchestrator(logger, database, workerConfig.CrawlTimeout)

	startCronWorker(logger, orch, workerConfig, metrics, healthServer)
}

func initLogger() *slog.Logger {
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
	return logger
}

func initDatabase(logger *slog.Logger) *sql.DB {
	database := db.Open()
	if err := db.MigrateUp(database); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}
	return database
}

// buildOrchestrator wires the Source Loader, the three gatherer branches,
// and the Synthesizer into one orchestrator.Service, picking the
// LLM-backed extractor when credentials are present and falling back to
// the deterministic rule-based extractor otherwise.
func buildOrchestrator(logger *slog.Logger, database *sql.DB, runDeadline time.Duration) *orchestrator.Service {
	srcRepo := pgRepo.NewSourceRepo(database)
	newsRepo := pgRepo.NewNewsItemRepo(database)

	httpClient := createHTTPClient()
	runLock := dedup.NewRunLock()

	ex := buildExtractor(logger)

	webBranch := &gather.WebBranch{
		Researcher: buildWebResearcher(httpClient, logger),
		Extractor:  ex,
		Persister:  dedup.NewPersister(newsRepo, runLock, "web"),
	}
	feedBranch := &gather.FeedBranch{
		Fetcher:   provider.NewGofeedFetcher(httpClient),
		Extractor: ex,
		Persister: dedup.NewPersister(newsRepo, runLock, "feed"),
	}
	videoBranch := &gather.VideoBranch{
		Fetcher:   buildVideoFetcher(httpClient, logger),
		Extractor: ex,
		Persister: dedup.NewPersister(newsRepo, runLock, "video"),
	}

	return &orchestrator.Service{
		Loader:      &source.Service{Repo: srcRepo},
		Web:         webBranch,
		Feed:        feedBranch,
		Video:       videoBranch,
		Synth:       synthesize.NewService(newsRepo, ex),
		RunDeadline: runDeadline,
	}
}

func buildExtractor(logger *slog.Logger) extract.Extractor {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		logger.Info("ANTHROPIC_API_KEY not set, using rule-based extractor")
		return extractor.NewRuleBased()
	}
	logger.Info("using LLM-backed extractor", slog.String("provider", "anthropic"))
	return extractor.NewLLMExtractor(apiKey)
}

func buildWebResearcher(client *http.Client, logger *slog.Logger) provider.WebResearcher {
	endpoint := config.LoadEnvString("WEB_RESEARCH_ENDPOINT", "")
	apiKey := os.Getenv("WEB_RESEARCH_API_KEY")
	if endpoint == "" {
		logger.Warn("WEB_RESEARCH_ENDPOINT not set, web branch will fail fast on every topic")
	}
	return provider.NewWebResearchClient(client, endpoint, apiKey)
}

func buildVideoFetcher(client *http.Client, logger *slog.Logger) provider.VideoFetcher {
	baseURL := config.LoadEnvString("VIDEO_API_BASE_URL", "")
	apiKey := os.Getenv("VIDEO_API_KEY")
	if baseURL == "" {
		logger.Warn("VIDEO_API_BASE_URL not set, video branch will fail fast on every channel")
	}
	return provider.NewVideoAPIClient(client, baseURL, apiKey)
}

func createHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 60 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
		},
	}
}

// startCronWorker schedules a daily run of the orchestrator and blocks
// forever, matching the teacher's cron-worker shape.
func startCronWorker(logger *slog.Logger, orch *orchestrator.Service, cfg *workerPkg.WorkerConfig, metrics *workerPkg.WorkerMetrics, healthServer *workerPkg.HealthServer) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("invalid timezone, using UTC", slog.String("timezone", cfg.Timezone), slog.Any("error", err))
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc))

	_, err = c.AddFunc(cfg.CronSchedule, func() {
		runDigestJob(logger, orch, loc, metrics)
	})
	if err != nil {
		logger.Error("failed to add cron job", slog.Any("error", err))
		os.Exit(1)
	}
	c.Start()

	healthServer.SetReady(true)
	logger.Info("digestd marked as ready")
	logger.Info("digestd started", slog.String("schedule", cfg.CronSchedule), slog.String("timezone", cfg.Timezone))
	select {}
}

// runDigestJob executes a single orchestrator run for today's date in the
// configured timezone.
func runDigestJob(logger *slog.Logger, orch *orchestrator.Service, loc *time.Location, metrics *workerPkg.WorkerMetrics) {
	startTime := time.Now()
	metrics.RecordJobRun("started")
	logger.Info("digest run started")

	now := time.Now().In(loc)
	runDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	digest, err := orch.Run(context.Background(), runDate)
	if err != nil {
		logger.Error("digest run failed", slog.Any("error", err))
		metrics.RecordJobRun("failure")
		metrics.RecordJobDuration(time.Since(startTime).Seconds())
		return
	}

	metrics.RecordJobRun("success")
	metrics.RecordJobDuration(time.Since(startTime).Seconds())
	metrics.RecordItemsPersisted(len(digest.Items))
	metrics.RecordLastSuccess()

	logger.Info("digest run completed",
		slog.Int("items", len(digest.Items)),
		slog.Time("run_date", digest.RunDate),
		slog.Duration("duration", time.Since(startTime)))
}
