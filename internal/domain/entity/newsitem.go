// Package entity defines the core domain entities and validation logic for the
// orchestration engine: sources, in-flight candidates, persisted news items,
// run context, and the digest produced by synthesis.
package entity

import (
	"time"

	"catchup-feed/internal/utils/text"
)

// maxTitleRunes bounds candidate titles, counted in runes rather than bytes
// so multi-byte headlines (Japanese, Chinese, emoji) aren't penalized for
// their UTF-8 encoding size.
const maxTitleRunes = 500

// SourceType identifies which gatherer branch originated a CandidateItem or
// NewsItem. It is set once by the extractor and never changed by later merges.
type SourceType string

const (
	SourceTypeWeb   SourceType = "web"
	SourceTypeFeed  SourceType = "feed"
	SourceTypeVideo SourceType = "video"
)

// Valid reports whether t is one of the three recognized source types.
func (t SourceType) Valid() bool {
	switch t {
	case SourceTypeWeb, SourceTypeFeed, SourceTypeVideo:
		return true
	default:
		return false
	}
}

// CandidateItem is an in-memory, not-yet-persisted news item produced by an
// extractor. Its lifetime is a single gatherer pipeline run: it is either
// persisted by Dedup & Persist or dropped, and never escapes the pipeline.
type CandidateItem struct {
	Title          string
	Summary        string
	SourceType     SourceType
	SourceName     string
	SourceURL      string
	ArticleURL     string // optional: stable origin link, when the provider supplies one
	RawContent     string
	RelevanceScore int // 0-10; extractors that cannot score default to 5
}

// Validate checks the invariants extractors must uphold before a candidate is
// handed to Dedup & Persist. Candidates failing validation are dropped
// silently by the caller, not propagated as a branch failure.
func (c *CandidateItem) Validate() error {
	if c.Title == "" {
		return &ValidationError{Field: "title", Message: "candidate title must not be empty"}
	}
	if text.CountRunes(c.Title) > maxTitleRunes {
		return &ValidationError{Field: "title", Message: "candidate title exceeds maximum length"}
	}
	if c.Summary == "" {
		return &ValidationError{Field: "summary", Message: "candidate summary must not be empty"}
	}
	if !c.SourceType.Valid() {
		return &ValidationError{Field: "source_type", Message: "source type must be web, feed, or video"}
	}
	if c.RelevanceScore < 0 || c.RelevanceScore > 10 {
		return &ValidationError{Field: "relevance_score", Message: "relevance score must be between 0 and 10"}
	}
	return nil
}

// NewsItem is a persisted, deduplicated record for a single run-date.
// MentionCount starts at 1 and is incremented each time a later candidate is
// found to be a duplicate of this row during the same run-date.
type NewsItem struct {
	ID             int64
	RunDate        time.Time // calendar date, time-of-day truncated
	Title          string
	Summary        string
	RelevanceScore int
	MentionCount   int
	SourceType     SourceType
	SourceURL      string
	SourceName     string
	ArticleURL     string
	RawContent     string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Score computes the ranking score used by the synthesizer:
// mention_count * weight + relevance_score.
func (n *NewsItem) Score(mentionWeight int) int {
	return n.MentionCount*mentionWeight + n.RelevanceScore
}
