// Package orchestrator implements the Orchestrator (C5): the
// load -> {web, feed, video} -> synthesize state graph that drives one
// run.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/observability/tracing"
)

// webRunner, feedRunner, and videoRunner are the narrow interfaces the
// orchestrator depends on. gather.WebBranch/FeedBranch/VideoBranch satisfy
// these directly; tests substitute fakes without touching the gather
// package.
type webRunner interface {
	Run(ctx context.Context, topics []*entity.Topic, runDate time.Time) error
}

type feedRunner interface {
	Run(ctx context.Context, feeds []*entity.Feed, runDate time.Time) error
}

type videoRunner interface {
	Run(ctx context.Context, channels []*entity.Channel, runDate time.Time) error
}

// sourceLoader is the narrow interface over the Source Loader (C1).
type sourceLoader interface {
	LoadSources(ctx context.Context) (*entity.SourceSet, error)
}

// synthesizer is the narrow interface over the Synthesizer (C6).
type synthesizer interface {
	Synthesize(ctx context.Context, runDate time.Time) (*entity.Digest, error)
}

// Service drives one run of the state graph: load, then the three
// gatherer branches concurrently, then synthesize.
type Service struct {
	Loader sourceLoader
	Web    webRunner
	Feed   feedRunner
	Video  videoRunner
	Synth  synthesizer

	// RunDeadline bounds loading and the gatherer branches; the drain
	// grace and synthesis run after it. It defaults to 30 minutes when zero.
	RunDeadline time.Duration
	// DrainGrace is the extra time branches get to finish in-flight work
	// after RunDeadline fires; it defaults to 30 seconds when zero.
	DrainGrace time.Duration
}

// Run executes run(run-date) -> Digest: load sources, fan out the three
// gatherer branches under a per-run deadline, wait for all three to reach
// the barrier (success, failure, or cancellation all count as arrival),
// then synthesize the digest from whatever was persisted.
func (s *Service) Run(ctx context.Context, runDate time.Time) (*entity.Digest, error) {
	ctx, span := tracing.GetTracer().Start(ctx, "orchestrator.run")
	defer span.End()

	deadline := s.runDeadline()
	runCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	run := newRunContext(runDate, time.Now().Add(deadline))
	logger := slog.With(slog.String("run_id", run.RunID), slog.Time("run_date", run.RunDate))

	sources, err := s.Loader.LoadSources(runCtx)
	if err != nil {
		return nil, fmt.Errorf("%w: load sources: %v", entity.ErrSourceUnavailable, err)
	}
	state := newRunState(run, sources)

	logger.InfoContext(runCtx, "run started",
		slog.Int("topics", len(sources.Topics)), slog.Int("feeds", len(sources.Feeds)), slog.Int("channels", len(sources.Channels)))

	s.runBranches(runCtx, state, logger)

	digest, err := s.Synth.Synthesize(context.WithoutCancel(runCtx), run.RunDate)
	if err != nil {
		return nil, err
	}

	logger.InfoContext(runCtx, "run finished",
		slog.String("web_status", state.Web.Status.String()),
		slog.String("feed_status", state.Feed.Status.String()),
		slog.String("video_status", state.Video.Status.String()),
		slog.Int("digest_items", len(digest.Items)))

	return digest, nil
}

// runBranches fans out the three gatherer branches concurrently, enforces
// the strict barrier (all three must arrive, whatever their outcome), and
// grants a drain grace period to branches still running when the run
// deadline fires.
func (s *Service) runBranches(runCtx context.Context, state *runState, logger *slog.Logger) {
	eg, egCtx := errgroup.WithContext(runCtx)

	eg.Go(func() error {
		spanCtx, span := tracing.GetTracer().Start(egCtx, "orchestrator.branch.web")
		defer span.End()
		err := s.Web.Run(spanCtx, state.Sources.Topics, state.Run.RunDate)
		state.arrive(&state.Web, outcomeFor(err), err)
		return nil
	})
	eg.Go(func() error {
		spanCtx, span := tracing.GetTracer().Start(egCtx, "orchestrator.branch.feed")
		defer span.End()
		err := s.Feed.Run(spanCtx, state.Sources.Feeds, state.Run.RunDate)
		state.arrive(&state.Feed, outcomeFor(err), err)
		return nil
	})
	eg.Go(func() error {
		spanCtx, span := tracing.GetTracer().Start(egCtx, "orchestrator.branch.video")
		defer span.End()
		err := s.Video.Run(spanCtx, state.Sources.Channels, state.Run.RunDate)
		state.arrive(&state.Video, outcomeFor(err), err)
		return nil
	})

	done := make(chan struct{})
	go func() {
		_ = eg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return
	case <-runCtx.Done():
		s.waitWithDrainGrace(done, logger)
	}
}

// waitWithDrainGrace gives branches still running an additional window to
// finish in-flight persists after the run deadline has already fired, per
// §4.5's cancellation policy. It does not block past that window: any
// branch that has not arrived by then is simply left at branchPending and
// is logged as "pending" (synthesis proceeds regardless, since the store is
// authoritative).
func (s *Service) waitWithDrainGrace(done <-chan struct{}, logger *slog.Logger) {
	grace := s.drainGrace()
	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		logger.Warn("run deadline exceeded, proceeding to synthesis after drain grace", slog.Duration("drain_grace", grace))
	}
}

func (s *Service) runDeadline() time.Duration {
	if s.RunDeadline <= 0 {
		return defaultRunDeadline
	}
	return s.RunDeadline
}

func (s *Service) drainGrace() time.Duration {
	if s.DrainGrace <= 0 {
		return drainGrace
	}
	return s.DrainGrace
}

func outcomeFor(err error) branchStatus {
	switch {
	case err == nil:
		return branchSucceeded
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return branchCancelled
	default:
		return branchFailed
	}
}
