// Package source implements the Source Loader: the first node of every
// orchestrator run, responsible for loading the active topics, feeds, and
// channels that drive the three gatherer branches.
package source

import (
	"context"
	"fmt"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/repository"
)

// Service loads the source set for a run. It has no write operations:
// topics, feeds, and channels are administered outside this path.
type Service struct {
	Repo repository.SourceRepository
}

// LoadSources loads the active topics, feeds, and channels that a run fans
// out over. Any repository failure is fatal to the run and is wrapped as
// entity.ErrSourceUnavailable.
func (s *Service) LoadSources(ctx context.Context) (*entity.SourceSet, error) {
	topics, err := s.Repo.ListActiveTopics(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list topics: %v", entity.ErrSourceUnavailable, err)
	}

	feeds, err := s.Repo.ListActiveFeeds(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list feeds: %v", entity.ErrSourceUnavailable, err)
	}

	channels, err := s.Repo.ListActiveChannels(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list channels: %v", entity.ErrSourceUnavailable, err)
	}

	return &entity.SourceSet{
		Topics:   topics,
		Feeds:    feeds,
		Channels: channels,
	}, nil
}
