package entity

import "time"

// RunContext is created once per orchestrator invocation and held immutable
// for its lifetime. Branches receive it by value; they hold no back-reference
// to the orchestrator that created it.
type RunContext struct {
	RunDate   time.Time // calendar date, local time zone, time-of-day truncated
	RunID     string    // opaque identifier, used for log correlation
	StartedAt time.Time
	Deadline  time.Time // StartedAt + run_deadline_seconds
}

// Digest is the final ranked output of a run: 5-10 NewsItems (best-effort
// when fewer exist) plus a human-readable summary.
type Digest struct {
	Items       []*NewsItem
	Summary     string
	RunDate     time.Time
	GeneratedAt time.Time
}
