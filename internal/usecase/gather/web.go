// Package gather implements the three Gatherer Pipelines (C4): per-source
// fan-out over a content provider, extraction, and dedup-persist, one
// package file per branch.
package gather

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/infra/provider"
	"catchup-feed/internal/observability/metrics"
	"catchup-feed/internal/usecase/dedup"
	"catchup-feed/internal/usecase/extract"
)

// defaultParallelism bounds per-branch fan-out when a caller doesn't set one.
const defaultParallelism = 5

// WebBranch implements the web gatherer: one research query per topic.
type WebBranch struct {
	Researcher  provider.WebResearcher
	Extractor   extract.Extractor
	Persister   *dedup.Persister
	Parallelism int
}

// Run fans out over topics, researching, extracting, and persisting
// candidates for each. Individual topic failures are logged and skipped;
// the branch only returns an error when the context itself is done.
func (b *WebBranch) Run(ctx context.Context, topics []*entity.Topic, runDate time.Time) error {
	start := time.Now()
	defer func() { metrics.RecordBranchDuration("web", time.Since(start)) }()

	sem := make(chan struct{}, parallelism(b.Parallelism))
	eg, egCtx := errgroup.WithContext(ctx)

	for _, topic := range topics {
		topic := topic
		eg.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-egCtx.Done():
				return egCtx.Err()
			}
			defer func() { <-sem }()
			if err := egCtx.Err(); err != nil {
				return err
			}

			if err := b.processTopic(egCtx, topic, runDate); err != nil {
				if isFatalBranchErr(err) {
					return err
				}
				slog.WarnContext(egCtx, "web topic failed, skipping",
					slog.Int64("topic_id", topic.ID), slog.String("topic", topic.Text), slog.Any("error", err))
			}
			return nil
		})
	}

	return eg.Wait()
}

func (b *WebBranch) processTopic(ctx context.Context, topic *entity.Topic, runDate time.Time) error {
	query := topic.Text
	if len(topic.Keywords) > 0 {
		query = fmt.Sprintf("%s (%s)", topic.Text, strings.Join(topic.Keywords, ", "))
	}

	answer, err := b.Researcher.Research(ctx, query)
	if err != nil {
		return fmt.Errorf("research topic %q: %w", topic.Text, err)
	}

	candidates, err := b.Extractor.ExtractWeb(ctx, topic, answer, runDate)
	if err != nil {
		return fmt.Errorf("extract web answer for topic %q: %w", topic.Text, err)
	}
	if len(candidates) == 0 {
		return nil
	}

	if _, err := b.Persister.Persist(ctx, candidates, runDate); err != nil {
		return fmt.Errorf("persist web candidates for topic %q: %w", topic.Text, err)
	}
	return nil
}

func parallelism(n int) int {
	if n <= 0 {
		return defaultParallelism
	}
	return n
}
