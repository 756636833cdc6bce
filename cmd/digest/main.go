// Command digest runs a single digest cycle for one run-date and prints the
// resulting digest to stdout. It shares its wiring with cmd/digestd but
// runs once and exits, for manual or CI-triggered invocation.
package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"encoding/json"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	pgRepo "catchup-feed/internal/infra/adapter/persistence/postgres"
	"catchup-feed/internal/infra/db"
	"catchup-feed/internal/infra/extractor"
	"catchup-feed/internal/infra/provider"
	"catchup-feed/internal/pkg/config"
	"catchup-feed/internal/usecase/dedup"
	"catchup-feed/internal/usecase/extract"
	"catchup-feed/internal/usecase/gather"
	"catchup-feed/internal/usecase/orchestrator"
	"catchup-feed/internal/usecase/source"
	"catchup-feed/internal/usecase/synthesize"
)

func main() {
	runDateFlag := flag.String("run-date", "", "run date in YYYY-MM-DD form (default: today)")
	deadlineFlag := flag.Duration("deadline", 30*time.Minute, "whole-run deadline")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	runDate, err := parseRunDate(*runDateFlag)
	if err != nil {
		logger.Error("invalid -run-date", slog.Any("error", err))
		os.Exit(1)
	}

	database := db.Open()
	defer database.Close()
	if err := db.MigrateUp(database); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	orch := buildOrchestrator(logger, database, *deadlineFlag)

	digest, err := orch.Run(context.Background(), runDate)
	if err != nil {
		logger.Error("digest run failed", slog.Any("error", err))
		os.Exit(1)
	}

	if err := json.NewEncoder(os.Stdout).Encode(digest); err != nil {
		logger.Error("failed to encode digest", slog.Any("error", err))
		os.Exit(1)
	}
}

func parseRunDate(s string) (time.Time, error) {
	if s == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()), nil
	}
	return time.Parse("2006-01-02", s)
}

func buildOrchestrator(logger *slog.Logger, database *sql.DB, runDeadline time.Duration) *orchestrator.Service {
	srcRepo := pgRepo.NewSourceRepo(database)
	newsRepo := pgRepo.NewNewsItemRepo(database)

	httpClient := &http.Client{
		Timeout: 60 * time.Second,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
		},
	}
	runLock := dedup.NewRunLock()

	var ex extract.Extractor
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		ex = extractor.NewLLMExtractor(apiKey)
	} else {
		logger.Info("ANTHROPIC_API_KEY not set, using rule-based extractor")
		ex = extractor.NewRuleBased()
	}

	webEndpoint := config.LoadEnvString("WEB_RESEARCH_ENDPOINT", "")
	webResearcher := provider.NewWebResearchClient(httpClient, webEndpoint, os.Getenv("WEB_RESEARCH_API_KEY"))

	videoBaseURL := config.LoadEnvString("VIDEO_API_BASE_URL", "")
	videoFetcher := provider.NewVideoAPIClient(httpClient, videoBaseURL, os.Getenv("VIDEO_API_KEY"))

	return &orchestrator.Service{
		Loader: &source.Service{Repo: srcRepo},
		Web: &gather.WebBranch{
			Researcher: webResearcher,
			Extractor:  ex,
			Persister:  dedup.NewPersister(newsRepo, runLock, "web"),
		},
		Feed: &gather.FeedBranch{
			Fetcher:   provider.NewGofeedFetcher(httpClient),
			Extractor: ex,
			Persister: dedup.NewPersister(newsRepo, runLock, "feed"),
		},
		Video: &gather.VideoBranch{
			Fetcher:   videoFetcher,
			Extractor: ex,
			Persister: dedup.NewPersister(newsRepo, runLock, "video"),
		},
		Synth:       synthesize.NewService(newsRepo, ex),
		RunDeadline: runDeadline,
	}
}
