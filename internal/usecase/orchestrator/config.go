package orchestrator

import "time"

// defaultRunDeadline is the whole-run timeout applied when no override is
// configured: run_deadline_seconds default 1800.
const defaultRunDeadline = 30 * time.Minute

// drainGrace is how long the orchestrator waits for in-flight branch work
// to finish after the run deadline fires, before proceeding to synthesis
// with whatever was persisted.
const drainGrace = 30 * time.Second
