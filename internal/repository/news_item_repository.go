package repository

import (
	"context"
	"time"

	"catchup-feed/internal/domain/entity"
)

// NewsItemRepository is the store side of Dedup & Persist (C3) and the read
// path of the Synthesizer (C6). Implementations must serialize concurrent
// inserts for the same run-date so that two branches racing to persist
// duplicates of each other yield exactly one insert and one increment.
type NewsItemRepository interface {
	// FindByRunDate returns every NewsItem for runDate. The Synthesizer
	// treats this as the authoritative set; it does not trust any
	// in-memory buffer.
	FindByRunDate(ctx context.Context, runDate time.Time) ([]*entity.NewsItem, error)

	// FindByArticleURL looks up a row for runDate whose article-url is
	// byte-equal (after trimming) to articleURL. Returns entity.ErrNotFound
	// when no row matches; callers use this for the primary URL-match dedup
	// rule before falling back to title similarity.
	FindByArticleURL(ctx context.Context, runDate time.Time, articleURL string) (*entity.NewsItem, error)

	// Insert creates a new row with MentionCount = 1. Implementations must
	// surface entity.ErrStoreConflict when a concurrent insert already
	// claimed the same (run-date, article-url) pair, so the caller can fall
	// back to IncrementMention.
	Insert(ctx context.Context, item *entity.NewsItem) error

	// IncrementMention adds 1 to the row's MentionCount, bumps UpdatedAt,
	// and returns the updated row. No other field changes.
	IncrementMention(ctx context.Context, id int64) (*entity.NewsItem, error)

	// WasProcessed reports whether branchTag already persisted this
	// candidate during runDate, keyed by articleURL (or title when
	// articleURL is empty). It backs idempotent-retry skipping.
	WasProcessed(ctx context.Context, runDate time.Time, branchTag, articleURL, title string) (bool, error)

	// MarkProcessed records that branchTag persisted this candidate during
	// runDate, so a retried invocation can skip it.
	MarkProcessed(ctx context.Context, runDate time.Time, branchTag, articleURL, title string) error
}
