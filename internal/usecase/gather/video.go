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

// VideoBranch implements the video gatherer: recent-video discovery plus
// transcript extraction per channel.
type VideoBranch struct {
	Fetcher     provider.VideoFetcher
	Extractor   extract.Extractor
	Persister   *dedup.Persister
	Parallelism int
}

// Run fans out over channels, discovering recent videos, fetching
// transcripts, extracting, and persisting candidates. Individual channel or
// video failures are logged and skipped.
func (b *VideoBranch) Run(ctx context.Context, channels []*entity.Channel, runDate time.Time) error {
	start := time.Now()
	defer func() { metrics.RecordBranchDuration("video", time.Since(start)) }()

	sem := make(chan struct{}, parallelism(b.Parallelism))
	eg, egCtx := errgroup.WithContext(ctx)

	for _, channel := range channels {
		channel := channel
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

			if err := b.processChannel(egCtx, channel, runDate); err != nil {
				if isFatalBranchErr(err) {
					return err
				}
				slog.WarnContext(egCtx, "video channel failed, skipping",
					slog.Int64("channel_id", channel.ID), slog.String("channel", channel.Name), slog.Any("error", err))
			}
			return nil
		})
	}

	return eg.Wait()
}

func (b *VideoBranch) processChannel(ctx context.Context, channel *entity.Channel, runDate time.Time) error {
	videos, err := b.Fetcher.DiscoverRecent(ctx, channel.ExternalID)
	if err != nil {
		return fmt.Errorf("discover recent videos for %q: %w", channel.Name, err)
	}

	for _, v := range videos {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := b.processVideo(ctx, channel, v, runDate); err != nil {
			slog.WarnContext(ctx, "video transcript failed, skipping video",
				slog.String("channel", channel.Name), slog.String("video_url", v.URL), slog.Any("error", err))
		}
	}
	return nil
}

func (b *VideoBranch) processVideo(ctx context.Context, channel *entity.Channel, v provider.VideoRef, runDate time.Time) error {
	transcript, err := b.Fetcher.FetchTranscript(ctx, v.URL)
	if err != nil {
		return fmt.Errorf("fetch transcript for %q: %w", v.URL, err)
	}

	candidates, err := b.Extractor.ExtractVideo(ctx, channel, transcript, runDate)
	if err != nil {
		return fmt.Errorf("extract video transcript for %q: %w", v.URL, err)
	}
	if len(candidates) == 0 {
		return nil
	}

	if _, err := b.Persister.Persist(ctx, candidates, runDate); err != nil {
		return fmt.Errorf("persist video candidates for %q: %w", v.URL, err)
	}
	return nil
}
