// Package dedup implements the duplicate-detection and persistence rule
// shared by all three gatherer branches and, defensively, by the
// synthesizer.
package dedup

import (
	"log/slog"
	"strings"

	"github.com/hbollon/go-edlib"
)

// titleWordSet returns the lowercased, whitespace-tokenized word set of a
// title, with duplicate words collapsed (Jaccard operates on sets).
func titleWordSet(title string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(title))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// TitleSimilarity computes the word-set Jaccard similarity of two titles:
// |A ∩ B| / |A ∪ B|, with two empty sets yielding 0. This is the frozen
// definition the persisted dedup decision relies on; it is deliberately not
// go-edlib's n-gram-character Jaccard, which measures a different thing and
// would change which pairs cross the 0.70 threshold.
func TitleSimilarity(a, b string) float64 {
	setA := titleWordSet(a)
	setB := titleWordSet(b)

	if len(setA) == 0 && len(setB) == 0 {
		return 0
	}

	intersection := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// SimilarityThreshold is the strict lower bound a title-similarity score
// must exceed (not reach) for two candidates to be treated as duplicates.
const SimilarityThreshold = 0.70

// URLsEqual reports whether two article URLs are byte-equal after trimming
// surrounding whitespace. Both must be non-empty for the primary dedup rule
// to apply.
func URLsEqual(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return false
	}
	return a == b
}

// LogNearDuplicateSignal surfaces an auxiliary JaroWinkler similarity
// between two titles that did not cross the Jaccard dedup threshold. It is
// diagnostic only: nothing here feeds back into the persisted dedup
// decision, since go-edlib's character-level measure is tuned differently
// than the frozen word-set Jaccard rule.
func LogNearDuplicateSignal(a, b string, jaccardScore float64) {
	jw, err := edlib.StringsSimilarity(strings.ToLower(a), strings.ToLower(b), edlib.JaroWinkler)
	if err != nil {
		return
	}
	if jw >= 0.80 && jaccardScore <= SimilarityThreshold {
		slog.Debug("near-duplicate signal below dedup threshold",
			slog.String("title_a", a),
			slog.String("title_b", b),
			slog.Float64("jaccard", jaccardScore),
			slog.Float64("jaro_winkler", float64(jw)))
	}
}
