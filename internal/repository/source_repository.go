package repository

import (
	"context"

	"catchup-feed/internal/domain/entity"
)

// SourceRepository loads the active source sets that drive each gatherer
// branch. It backs the Source Loader: topics, feeds, and channels are always
// loaded together since a run needs all three to fan out.
type SourceRepository interface {
	// ListActiveTopics returns active topics sorted by priority descending.
	ListActiveTopics(ctx context.Context) ([]*entity.Topic, error)
	// ListActiveFeeds returns active feeds. Order is unspecified but stable
	// within a single call.
	ListActiveFeeds(ctx context.Context) ([]*entity.Feed, error)
	// ListActiveChannels returns active channels. Order is unspecified but
	// stable within a single call.
	ListActiveChannels(ctx context.Context) ([]*entity.Channel, error)
}
