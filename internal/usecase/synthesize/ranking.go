// Package synthesize implements the Synthesizer (C6): reading the
// persisted news items for a run-date, collapsing any residual
// duplicates, ranking, and composing the digest summary.
package synthesize

import (
	"sort"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/usecase/dedup"
)

// defaultMentionWeight is the coefficient applied to mention-count in the
// ranking score when no override is configured.
const defaultMentionWeight = 2

const (
	minDigestItems = 5
	maxDigestItems = 10
)

// collapseDuplicates applies the dedup rule once more, defensively, across
// the full read set: URL exact-match primary, title-Jaccard secondary. When
// two items collide, the row with the higher mention-count survives (ties
// broken by higher relevance-score, then earlier created-at).
func collapseDuplicates(items []*entity.NewsItem) []*entity.NewsItem {
	kept := make([]*entity.NewsItem, 0, len(items))
	for _, candidate := range items {
		if idx := findDuplicateIndex(kept, candidate); idx >= 0 {
			if preferred(candidate, kept[idx]) {
				kept[idx] = candidate
			}
			continue
		}
		kept = append(kept, candidate)
	}
	return kept
}

func findDuplicateIndex(kept []*entity.NewsItem, candidate *entity.NewsItem) int {
	for i, existing := range kept {
		if dedup.URLsEqual(candidate.ArticleURL, existing.ArticleURL) {
			return i
		}
		score := dedup.TitleSimilarity(candidate.Title, existing.Title)
		if score > dedup.SimilarityThreshold {
			return i
		}
	}
	return -1
}

// preferred reports whether candidate should replace incumbent under the
// survivor rule: higher mention-count, then higher relevance-score, then
// earlier created-at wins.
func preferred(candidate, incumbent *entity.NewsItem) bool {
	if candidate.MentionCount != incumbent.MentionCount {
		return candidate.MentionCount > incumbent.MentionCount
	}
	if candidate.RelevanceScore != incumbent.RelevanceScore {
		return candidate.RelevanceScore > incumbent.RelevanceScore
	}
	return candidate.CreatedAt.Before(incumbent.CreatedAt)
}

// rank sorts items descending by score (mention-count * weight +
// relevance-score), ties broken by mention-count descending then
// created-at ascending. It sorts in place and also returns the slice.
func rank(items []*entity.NewsItem, mentionWeight int) []*entity.NewsItem {
	sort.SliceStable(items, func(i, j int) bool {
		si := items[i].Score(mentionWeight)
		sj := items[j].Score(mentionWeight)
		if si != sj {
			return si > sj
		}
		if items[i].MentionCount != items[j].MentionCount {
			return items[i].MentionCount > items[j].MentionCount
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items
}

// selectTopK clamps the selection count to [5, 10], returning fewer than 5
// only when the distinct-item set itself has fewer than 5 entries
// (best-effort per the configured DigestMinItemsPolicy).
func selectTopK(ranked []*entity.NewsItem) []*entity.NewsItem {
	k := len(ranked)
	if k > maxDigestItems {
		k = maxDigestItems
	}
	return ranked[:k]
}
