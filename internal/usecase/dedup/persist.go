package dedup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/observability/metrics"
	"catchup-feed/internal/repository"
	"catchup-feed/internal/resilience/circuitbreaker"
	"catchup-feed/internal/resilience/retry"
)

// RunLock serializes Persist calls for a single run-date across the three
// concurrent gatherer branches. The orchestrator constructs exactly one
// RunLock per run and shares it with every branch's Persister, giving the
// read-then-write duplicate check a consistent, serialized view.
type RunLock struct {
	mu sync.Mutex
}

// NewRunLock returns a fresh, unlocked RunLock for one orchestrator run.
func NewRunLock() *RunLock {
	return &RunLock{}
}

// Persister implements Dedup & Persist (C3) for one gatherer branch. The
// in-memory RunLock is the fast path; the store's (run-date, article-url)
// uniqueness constraint is the slow-path fallback that also covers two
// orchestrator processes racing against the same run-date.
type Persister struct {
	Store     repository.NewsItemRepository
	Breaker   *circuitbreaker.CircuitBreaker
	RunLock   *RunLock
	BranchTag string
}

// NewPersister wires a Persister with the store's circuit breaker.
func NewPersister(store repository.NewsItemRepository, lock *RunLock, branchTag string) *Persister {
	return &Persister{
		Store:     store,
		Breaker:   circuitbreaker.New(circuitbreaker.StoreConfig()),
		RunLock:   lock,
		BranchTag: branchTag,
	}
}

// Persist runs the duplicate-detection rule against each candidate in
// order and applies the side effect (insert or increment). Malformed
// candidates and candidates that fail to persist are both logged and
// dropped rather than failing the branch or the rest of the batch.
func (p *Persister) Persist(ctx context.Context, candidates []*entity.CandidateItem, runDate time.Time) ([]*entity.NewsItem, error) {
	metrics.RecordItemsGathered(p.BranchTag, len(candidates))

	results := make([]*entity.NewsItem, 0, len(candidates))
	for _, c := range candidates {
		if err := c.Validate(); err != nil {
			slog.WarnContext(ctx, "dropping malformed candidate",
				slog.String("branch", p.BranchTag), slog.Any("error", err))
			continue
		}

		item, persisted, err := p.persistOneTracked(ctx, c, runDate)
		if err != nil {
			slog.WarnContext(ctx, "dropping candidate after store failure",
				slog.String("branch", p.BranchTag), slog.String("title", c.Title), slog.Any("error", err))
			continue
		}
		metrics.RecordItemsPersisted(p.BranchTag, persisted)
		if item != nil {
			results = append(results, item)
		}
	}
	return results, nil
}

// persistOneTracked wraps persistOne to report whether the candidate
// resulted in a new row (persisted, MentionCount == 1) or a mention
// increment on an existing one (duplicate), for the
// items_persisted/items_duplicate metrics. A nil item (already processed
// in this run, per the idempotent-retry marker) counts as a duplicate too.
func (p *Persister) persistOneTracked(ctx context.Context, c *entity.CandidateItem, runDate time.Time) (*entity.NewsItem, bool, error) {
	item, err := p.persistOne(ctx, c, runDate)
	if err != nil {
		return nil, false, err
	}
	if item == nil {
		return nil, false, nil
	}
	return item, item.MentionCount <= 1, nil
}

func (p *Persister) persistOne(ctx context.Context, c *entity.CandidateItem, runDate time.Time) (*entity.NewsItem, error) {
	articleURL := strings.TrimSpace(c.ArticleURL)

	done, err := p.withRetry(ctx, func() (bool, error) {
		return p.Store.WasProcessed(ctx, runDate, p.BranchTag, articleURL, c.Title)
	})
	if err != nil {
		return nil, err
	}
	if done {
		return nil, nil
	}

	p.RunLock.mu.Lock()
	defer p.RunLock.mu.Unlock()

	item, err := p.applyDedupRule(ctx, c, runDate, articleURL)
	if err != nil {
		return nil, err
	}

	if _, err := p.withRetry(ctx, func() (bool, error) {
		return true, p.Store.MarkProcessed(ctx, runDate, p.BranchTag, articleURL, c.Title)
	}); err != nil {
		slog.WarnContext(ctx, "failed to record idempotent-retry marker", slog.Any("error", err))
	}

	return item, nil
}

func (p *Persister) applyDedupRule(ctx context.Context, c *entity.CandidateItem, runDate time.Time, articleURL string) (*entity.NewsItem, error) {
	existing, err := p.findDuplicate(ctx, runDate, articleURL, c.Title)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return p.increment(ctx, existing.ID)
	}

	item := &entity.NewsItem{
		RunDate:        runDate,
		Title:          c.Title,
		Summary:        c.Summary,
		RelevanceScore: c.RelevanceScore,
		SourceType:     c.SourceType,
		SourceURL:      c.SourceURL,
		SourceName:     c.SourceName,
		ArticleURL:     articleURL,
		RawContent:     c.RawContent,
	}
	_, err = p.withRetry(ctx, func() (bool, error) {
		return true, p.Store.Insert(ctx, item)
	})
	if errors.Is(err, entity.ErrStoreConflict) {
		winner, ferr := p.Store.FindByArticleURL(ctx, runDate, articleURL)
		if ferr != nil {
			return nil, ferr
		}
		return p.increment(ctx, winner.ID)
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// findDuplicate applies the §4.3 rule: URL exact-match primary, title
// Jaccard similarity secondary.
func (p *Persister) findDuplicate(ctx context.Context, runDate time.Time, articleURL, title string) (*entity.NewsItem, error) {
	if articleURL != "" {
		existing, err := p.Store.FindByArticleURL(ctx, runDate, articleURL)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, entity.ErrNotFound) {
			return nil, err
		}
	}

	items, err := p.Store.FindByRunDate(ctx, runDate)
	if err != nil {
		return nil, err
	}
	for _, existing := range items {
		if articleURL != "" && URLsEqual(articleURL, existing.ArticleURL) {
			return existing, nil
		}
		score := TitleSimilarity(title, existing.Title)
		if score > SimilarityThreshold {
			return existing, nil
		}
		LogNearDuplicateSignal(title, existing.Title, score)
	}
	return nil, nil
}

func (p *Persister) increment(ctx context.Context, id int64) (*entity.NewsItem, error) {
	var item *entity.NewsItem
	_, err := p.withRetry(ctx, func() (bool, error) {
		var err error
		item, err = p.Store.IncrementMention(ctx, id)
		return true, err
	})
	return item, err
}

// withRetry wraps a store call with exponential backoff and the shared
// circuit breaker, matching the pattern used for every external boundary.
func (p *Persister) withRetry(ctx context.Context, fn func() (bool, error)) (bool, error) {
	var ok bool
	retryErr := retry.WithBackoff(ctx, retry.StoreConfig(), func() error {
		cbResult, err := p.Breaker.Execute(func() (interface{}, error) {
			return fn()
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				return fmt.Errorf("store unavailable: circuit breaker open")
			}
			return err
		}
		ok, _ = cbResult.(bool)
		return nil
	})
	return ok, retryErr
}
