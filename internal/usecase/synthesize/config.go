package synthesize

// DigestMinItemsPolicy controls what happens when fewer than 5 distinct
// items survive deduplication for a run-date.
type DigestMinItemsPolicy int

const (
	// PolicyBestEffort returns whatever distinct items exist, even if
	// fewer than 5. This is the default, per spec.md's open-question
	// resolution: the 5-minimum is an aspiration, not an invariant.
	PolicyBestEffort DigestMinItemsPolicy = iota
	// PolicyFail treats fewer than 5 distinct items as a fatal run
	// failure instead of producing a short digest.
	PolicyFail
)
