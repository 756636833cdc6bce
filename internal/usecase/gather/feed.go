package gather

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/infra/provider"
	"catchup-feed/internal/observability/metrics"
	"catchup-feed/internal/usecase/dedup"
	"catchup-feed/internal/usecase/extract"
)

// entriesPerFeed bounds how many entries are processed from one feed per run.
const entriesPerFeed = 10

// FeedBranch implements the feed gatherer: RSS/Atom parsing per feed.
type FeedBranch struct {
	Fetcher     provider.FeedFetcher
	Extractor   extract.Extractor
	Persister   *dedup.Persister
	Parallelism int
}

// Run fans out over feeds, fetching, extracting, and persisting candidates
// for each. Individual feed failures are logged and skipped.
func (b *FeedBranch) Run(ctx context.Context, feeds []*entity.Feed, runDate time.Time) error {
	start := time.Now()
	defer func() { metrics.RecordBranchDuration("feed", time.Since(start)) }()

	sem := make(chan struct{}, parallelism(b.Parallelism))
	eg, egCtx := errgroup.WithContext(ctx)

	for _, feed := range feeds {
		feed := feed
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

			if err := b.processFeed(egCtx, feed, runDate); err != nil {
				if isFatalBranchErr(err) {
					return err
				}
				slog.WarnContext(egCtx, "feed failed, skipping",
					slog.Int64("feed_id", feed.ID), slog.String("feed_url", feed.URL), slog.Any("error", err))
			}
			return nil
		})
	}

	return eg.Wait()
}

func (b *FeedBranch) processFeed(ctx context.Context, feed *entity.Feed, runDate time.Time) error {
	entries, err := b.Fetcher.Fetch(ctx, feed.URL)
	if err != nil {
		return fmt.Errorf("fetch feed %q: %w", feed.URL, err)
	}

	if len(entries) > entriesPerFeed {
		entries = entries[:entriesPerFeed]
	}

	var allCandidates []*entity.CandidateItem
	for i := range entries {
		entry := entries[i]
		candidates, err := b.Extractor.ExtractFeed(ctx, feed, &entry, runDate)
		if err != nil {
			slog.WarnContext(ctx, "extract feed entry failed, skipping entry",
				slog.String("feed_url", feed.URL), slog.String("entry_url", entry.URL), slog.Any("error", err))
			continue
		}
		allCandidates = append(allCandidates, candidates...)
	}
	if len(allCandidates) == 0 {
		return nil
	}

	if _, err := b.Persister.Persist(ctx, allCandidates, runDate); err != nil {
		return fmt.Errorf("persist feed candidates for %q: %w", feed.URL, err)
	}
	return nil
}
