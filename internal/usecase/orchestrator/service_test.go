package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"catchup-feed/internal/domain/entity"
)

type fakeLoader struct {
	sources *entity.SourceSet
	err     error
}

func (f *fakeLoader) LoadSources(context.Context) (*entity.SourceSet, error) {
	return f.sources, f.err
}

type fakeRunner struct {
	delay   time.Duration
	err     error
	started chan struct{}
}

// run ignores context cancellation for the configured delay, simulating a
// branch mid-flight on a provider call that keeps draining after the run
// deadline has fired.
func (f *fakeRunner) run(context.Context) error {
	if f.started != nil {
		close(f.started)
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.err
}

type fakeWebRunner struct{ fakeRunner }

func (f *fakeWebRunner) Run(ctx context.Context, _ []*entity.Topic, _ time.Time) error {
	return f.run(ctx)
}

type fakeFeedRunner struct{ fakeRunner }

func (f *fakeFeedRunner) Run(ctx context.Context, _ []*entity.Feed, _ time.Time) error {
	return f.run(ctx)
}

type fakeVideoRunner struct{ fakeRunner }

func (f *fakeVideoRunner) Run(ctx context.Context, _ []*entity.Channel, _ time.Time) error {
	return f.run(ctx)
}

type fakeSynthesizer struct {
	digest *entity.Digest
	err    error
	calls  int
}

func (f *fakeSynthesizer) Synthesize(_ context.Context, runDate time.Time) (*entity.Digest, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.digest != nil {
		return f.digest, nil
	}
	return &entity.Digest{RunDate: runDate, Summary: "ok"}, nil
}

func testSources() *entity.SourceSet {
	return &entity.SourceSet{
		Topics:   []*entity.Topic{{ID: 1, Text: "t"}},
		Feeds:    []*entity.Feed{{ID: 1, Name: "f"}},
		Channels: []*entity.Channel{{ID: 1, Name: "c"}},
	}
}

func TestService_Run_Success(t *testing.T) {
	svc := &Service{
		Loader: &fakeLoader{sources: testSources()},
		Web:    &fakeWebRunner{},
		Feed:   &fakeFeedRunner{},
		Video:  &fakeVideoRunner{},
		Synth:  &fakeSynthesizer{},
	}

	digest, err := svc.Run(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("Run err=%v", err)
	}
	if digest.Summary != "ok" {
		t.Fatalf("unexpected digest: %+v", digest)
	}
}

func TestService_Run_LoadFailureIsFatal(t *testing.T) {
	svc := &Service{
		Loader: &fakeLoader{err: errors.New("db unreachable")},
		Web:    &fakeWebRunner{},
		Feed:   &fakeFeedRunner{},
		Video:  &fakeVideoRunner{},
		Synth:  &fakeSynthesizer{},
	}

	if _, err := svc.Run(context.Background(), time.Now()); err == nil {
		t.Fatal("expected error when source loading fails")
	}
}

func TestService_Run_BranchFailureDoesNotFailRun(t *testing.T) {
	synth := &fakeSynthesizer{}
	svc := &Service{
		Loader: &fakeLoader{sources: testSources()},
		Web:    &fakeWebRunner{fakeRunner{err: errors.New("web branch exploded")}},
		Feed:   &fakeFeedRunner{},
		Video:  &fakeVideoRunner{},
		Synth:  synth,
	}

	digest, err := svc.Run(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("a failing branch must not fail the run, got %v", err)
	}
	if digest == nil {
		t.Fatal("expected a digest even when one branch failed")
	}
	if synth.calls != 1 {
		t.Fatalf("expected synthesize to run exactly once, got %d calls", synth.calls)
	}
}

func TestService_Run_AllThreeBranchesReachBarrier(t *testing.T) {
	webStarted := make(chan struct{})
	feedStarted := make(chan struct{})
	videoStarted := make(chan struct{})

	svc := &Service{
		Loader: &fakeLoader{sources: testSources()},
		Web:    &fakeWebRunner{fakeRunner{started: webStarted}},
		Feed:   &fakeFeedRunner{fakeRunner{started: feedStarted}},
		Video:  &fakeVideoRunner{fakeRunner{started: videoStarted}},
		Synth:  &fakeSynthesizer{},
	}

	done := make(chan struct{})
	go func() {
		svc.Run(context.Background(), time.Now())
		close(done)
	}()

	for _, ch := range []chan struct{}{webStarted, feedStarted, videoStarted} {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatal("expected all three branches to start concurrently")
		}
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected Run to finish promptly once branches complete")
	}
}

func TestService_Run_DeadlineTriggersDrainThenSynthesizes(t *testing.T) {
	svc := &Service{
		Loader:      &fakeLoader{sources: testSources()},
		Web:         &fakeWebRunner{fakeRunner{delay: 200 * time.Millisecond}},
		Feed:        &fakeFeedRunner{},
		Video:       &fakeVideoRunner{},
		Synth:       &fakeSynthesizer{},
		RunDeadline: 20 * time.Millisecond,
		DrainGrace:  300 * time.Millisecond,
	}

	start := time.Now()
	digest, err := svc.Run(context.Background(), time.Now())
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("Run err=%v", err)
	}
	if digest == nil {
		t.Fatal("expected a digest after deadline + drain")
	}
	if elapsed < 200*time.Millisecond {
		t.Fatalf("expected Run to wait for the slow branch to drain, elapsed=%v", elapsed)
	}
}
