// Package extract defines the Extractor Contract (C2): the per-source-type
// transform from raw provider output into candidate news items.
package extract

import (
	"context"
	"time"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/infra/provider"
)

// Extractor turns one provider response into zero or more CandidateItems.
// Implementations must be deterministic given the same input and must
// default RelevanceScore to 5 when they cannot meaningfully score an item.
type Extractor interface {
	// ExtractWeb builds candidates from one web-research answer to one topic.
	ExtractWeb(ctx context.Context, topic *entity.Topic, answer *provider.WebAnswer, runDate time.Time) ([]*entity.CandidateItem, error)

	// ExtractFeed builds candidates from one parsed feed entry.
	ExtractFeed(ctx context.Context, feed *entity.Feed, item *provider.FeedEntry, runDate time.Time) ([]*entity.CandidateItem, error)

	// ExtractVideo builds candidates from one video's transcript. A single
	// transcript may cover several distinct stories and yield several
	// candidates.
	ExtractVideo(ctx context.Context, channel *entity.Channel, transcript *provider.Transcript, runDate time.Time) ([]*entity.CandidateItem, error)

	// SummarizeDigest produces the human-readable summary for a finished
	// digest. Failure here must never fail synthesis; callers fall back to
	// a templated summary.
	SummarizeDigest(ctx context.Context, items []*entity.NewsItem, runDate time.Time) (string, error)
}
