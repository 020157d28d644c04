package timetable

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeMatrixSource struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *fakeMatrixSource) FetchMatrix(ctx context.Context) (OptionMatrix, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return OptionMatrix{}, s.err
	}
	return testMatrix(), nil
}

type fakeFetcher struct {
	mu      sync.Mutex
	fetched []Target
	fail    map[string]error
	panicOn string
}

func (f *fakeFetcher) Fetch(ctx context.Context, target Target, matrix OptionMatrix) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if target.CourseCode == f.panicOn {
		panic("exploded on " + target.CourseCode)
	}
	f.fetched = append(f.fetched, target)
	return f.fail[target.CourseCode]
}

func (f *fakeFetcher) courses() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, t := range f.fetched {
		out = append(out, t.CourseCode)
	}
	return out
}

func sweepTargets() []Target {
	return []Target{
		{CourseCode: "RIT", Grade: 2, GroupLabel: "G1"},
		{CourseCode: "EKN", Grade: 1, GroupLabel: "S1"},
		{CourseCode: "MEH", Grade: 3, GroupLabel: "M2"},
	}
}

func quickSweepConfig() SweepConfig {
	return SweepConfig{
		Targets:         sweepTargets(),
		InterItemDelay:  time.Millisecond,
		ErrorBackoff:    time.Millisecond,
		CycleDelay:      time.Millisecond,
		CriticalBackoff: time.Millisecond,
	}
}

func TestSweepVisitsEveryTarget(t *testing.T) {
	source := &fakeMatrixSource{}
	fetcher := &fakeFetcher{}
	s := NewSweeper(quickSweepConfig(), source, fetcher)

	delay := s.sweep(context.Background())

	require.Equal(t, []string{"RIT", "EKN", "MEH"}, fetcher.courses())
	require.Equal(t, time.Millisecond, delay)
	require.Equal(t, 1, source.calls)
}

func TestSweepEnumeratesTargetsFromPortal(t *testing.T) {
	cfg := quickSweepConfig()
	cfg.Targets = nil
	cfg.Courses = []TrackedCourse{
		{Code: "RIT", GroupLabel: "G1"},
		{Code: "NOPE", GroupLabel: "X"},
	}
	source := &fakeMatrixSource{}
	fetcher := &fakeFetcher{}
	s := NewSweeper(cfg, source, fetcher)

	s.sweep(context.Background())

	// every grade and project the portal offers, tracked courses only
	fetcher.mu.Lock()
	defer fetcher.mu.Unlock()
	require.Len(t, fetcher.fetched, 6)
	seen := map[string]bool{}
	for _, target := range fetcher.fetched {
		require.Equal(t, "RIT", target.CourseCode)
		require.Equal(t, "G1", target.GroupLabel)
		seen[fmt.Sprintf("%d/%s", target.Grade, target.Project)] = true
	}
	require.Len(t, seen, 6)
	require.True(t, seen["2/redni"])
	require.True(t, seen["3/izredni"])
}

func TestSweepWithNothingTrackedIdles(t *testing.T) {
	cfg := quickSweepConfig()
	cfg.Targets = nil
	source := &fakeMatrixSource{}
	fetcher := &fakeFetcher{}
	s := NewSweeper(cfg, source, fetcher)

	delay := s.sweep(context.Background())

	require.Equal(t, cfg.CycleDelay, delay)
	require.Empty(t, fetcher.courses())
}

func TestSweepContinuesPastFailedTarget(t *testing.T) {
	source := &fakeMatrixSource{}
	fetcher := &fakeFetcher{fail: map[string]error{"EKN": fmt.Errorf("portal hiccup")}}
	s := NewSweeper(quickSweepConfig(), source, fetcher)

	s.sweep(context.Background())

	require.Equal(t, []string{"RIT", "EKN", "MEH"}, fetcher.courses())
}

func TestSweepWithoutMatrixBacksOff(t *testing.T) {
	cfg := quickSweepConfig()
	cfg.CriticalBackoff = 5 * time.Millisecond
	source := &fakeMatrixSource{err: fmt.Errorf("portal is down")}
	fetcher := &fakeFetcher{}
	s := NewSweeper(cfg, source, fetcher)

	delay := s.sweep(context.Background())

	require.Equal(t, 5*time.Millisecond, delay)
	require.Empty(t, fetcher.courses())
}

func TestSweepRecoversFromPanic(t *testing.T) {
	cfg := quickSweepConfig()
	cfg.CriticalBackoff = 5 * time.Millisecond
	source := &fakeMatrixSource{}
	fetcher := &fakeFetcher{panicOn: "EKN"}
	s := NewSweeper(cfg, source, fetcher)

	var delay time.Duration
	require.NotPanics(t, func() {
		delay = s.sweep(context.Background())
	})
	require.Equal(t, 5*time.Millisecond, delay)
	// targets before the panic were still fetched
	require.Equal(t, []string{"RIT"}, fetcher.courses())
}

func TestRunStopsOnCancellation(t *testing.T) {
	source := &fakeMatrixSource{}
	fetcher := &fakeFetcher{}
	s := NewSweeper(quickSweepConfig(), source, fetcher)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	// let at least one full cycle happen
	require.Eventually(t, func() bool {
		source.mu.Lock()
		defer source.mu.Unlock()
		return source.calls >= 2
	}, time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
}
