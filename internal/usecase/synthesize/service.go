package synthesize

import (
	"context"
	"fmt"
	"strings"
	"time"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/observability/metrics"
	"catchup-feed/internal/repository"
	"catchup-feed/internal/resilience/retry"
	"catchup-feed/internal/usecase/extract"
)

// Service implements the Synthesizer (C6): read, collapse, rank, select,
// and summarize the news items persisted for a run-date.
type Service struct {
	Store          repository.NewsItemRepository
	Extractor      extract.Extractor
	MentionWeight  int
	MinItemsPolicy DigestMinItemsPolicy
}

// NewService wires a Synthesizer with the given store and extractor,
// defaulting MentionWeight to 2 and the policy to best-effort.
func NewService(store repository.NewsItemRepository, extractor extract.Extractor) *Service {
	return &Service{
		Store:          store,
		Extractor:      extractor,
		MentionWeight:  defaultMentionWeight,
		MinItemsPolicy: PolicyBestEffort,
	}
}

// Synthesize runs the six steps of §4.6: read, collapse, score, sort,
// select, and summarize.
func (s *Service) Synthesize(ctx context.Context, runDate time.Time) (*entity.Digest, error) {
	items, err := s.readAll(ctx, runDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrSynthesizeFailed, err)
	}

	distinct := collapseDuplicates(items)
	if len(distinct) < minDigestItems && s.MinItemsPolicy == PolicyFail {
		return nil, fmt.Errorf("%w: only %d distinct items for %s, policy requires at least %d",
			entity.ErrSynthesizeFailed, len(distinct), runDate.Format("2006-01-02"), minDigestItems)
	}

	weight := s.MentionWeight
	if weight <= 0 {
		weight = defaultMentionWeight
	}
	ranked := rank(distinct, weight)
	selected := selectTopK(ranked)

	summary := s.summarize(ctx, selected, runDate)
	metrics.RecordDigestSize(len(selected))

	return &entity.Digest{
		Items:       selected,
		Summary:     summary,
		RunDate:     runDate,
		GeneratedAt: time.Now(),
	}, nil
}

func (s *Service) readAll(ctx context.Context, runDate time.Time) ([]*entity.NewsItem, error) {
	var items []*entity.NewsItem
	err := retry.WithBackoff(ctx, retry.StoreConfig(), func() error {
		var err error
		items, err = s.Store.FindByRunDate(ctx, runDate)
		return err
	})
	return items, err
}

// summarize asks the extractor for a digest summary, falling back to a
// templated listing of titles when the extractor errors so a summary
// failure never fails the whole digest.
func (s *Service) summarize(ctx context.Context, selected []*entity.NewsItem, runDate time.Time) string {
	if s.Extractor != nil {
		if summary, err := s.Extractor.SummarizeDigest(ctx, selected, runDate); err == nil {
			return summary
		}
	}
	return fallbackSummary(selected, runDate)
}

func fallbackSummary(selected []*entity.NewsItem, runDate time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Digest for %s (%d stories):\n", runDate.Format("2006-01-02"), len(selected))
	for _, item := range selected {
		fmt.Fprintf(&b, "- %s\n", item.Title)
	}
	return b.String()
}
