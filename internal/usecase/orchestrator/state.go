package orchestrator

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"catchup-feed/internal/domain/entity"
)

// branchStatus records how one branch of the state graph finished.
type branchStatus int

const (
	branchPending branchStatus = iota
	branchSucceeded
	branchFailed
	branchCancelled
)

func (s branchStatus) String() string {
	switch s {
	case branchSucceeded:
		return "succeeded"
	case branchFailed:
		return "failed"
	case branchCancelled:
		return "cancelled"
	default:
		return "pending"
	}
}

// branchOutcome is the single-writer record one branch goroutine leaves in
// the run's state: its own field, written exactly once, by exactly one
// goroutine.
type branchOutcome struct {
	Status branchStatus
	Err    error
}

// runState is the orchestrator's state-graph object for one run: the three
// source lists populated by the load node, one independent outcome slot
// per branch (the append-only, single-writer buffers of §4.5), a barrier
// counter, and the run's context.
//
// The branch outcomes are bookkeeping for logging and the barrier, not the
// synthesizer's input — the synthesizer re-reads the store, which is the
// authoritative cross-branch merge per §4.6 step 1.
type runState struct {
	Run entity.RunContext

	Sources *entity.SourceSet

	Web   branchOutcome
	Feed  branchOutcome
	Video branchOutcome

	arrived int32
}

// newRunState builds the state object once load has populated the source
// set.
func newRunState(run entity.RunContext, sources *entity.SourceSet) *runState {
	return &runState{Run: run, Sources: sources}
}

// arrive records one branch's completion at the barrier, whatever its
// outcome. The barrier is strict: synthesize waits for exactly three
// arrivals, counted whether a branch succeeded, failed, or was cancelled.
// which is that branch's own outcome slot, written only from its own
// goroutine, so the two field writes need no synchronization; arrived is
// shared across all three branch goroutines and is incremented atomically.
func (st *runState) arrive(which *branchOutcome, status branchStatus, err error) {
	which.Status = status
	which.Err = err
	atomic.AddInt32(&st.arrived, 1)
}

func newRunContext(runDate time.Time, deadline time.Time) entity.RunContext {
	return entity.RunContext{
		RunDate:   runDate,
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Deadline:  deadline,
	}
}
