package timetable

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/codes"
)

// MatrixSource rebuilds the portal's option matrix. The sweeper asks
// for a fresh one at the start of every cycle so portal-side renames
// show up without a restart.
type MatrixSource interface {
	FetchMatrix(ctx context.Context) (OptionMatrix, error)
}

// TargetFetcher exports one target's workbook and reconciles it.
type TargetFetcher interface {
	Fetch(ctx context.Context, target Target, matrix OptionMatrix) error
}

// TrackedCourse names a program to sweep and the group whose sessions
// to keep. Which grades and projects to cover is not configured here,
// it comes from the portal's own dropdowns each cycle.
type TrackedCourse struct {
	Code       string `json:"code"`
	GroupLabel string `json:"group_label"`
}

type SweepConfig struct {
	// Courses are expanded against the scraped option matrix at the
	// start of every cycle, one target per (grade, project) the portal
	// currently offers for each of them.
	Courses []TrackedCourse `json:"courses"`
	// Targets pins explicit (course, grade, project) tuples on top of
	// the expansion, mainly for chasing a single combination.
	Targets []Target `json:"targets"`

	// InterItemDelay spaces out the portal load between targets.
	InterItemDelay time.Duration `json:"inter_item_delay"`
	// ErrorBackoff replaces InterItemDelay after a failed target.
	ErrorBackoff time.Duration `json:"error_backoff"`
	// CycleDelay is the pause between full sweeps.
	CycleDelay time.Duration `json:"cycle_delay"`
	// CriticalBackoff is the pause after a panic or a cycle that could
	// not even build the option matrix.
	CriticalBackoff time.Duration `json:"critical_backoff"`
}

func (c SweepConfig) withDefaults() SweepConfig {
	if c.InterItemDelay == 0 {
		c.InterItemDelay = 10 * time.Second
	}
	if c.ErrorBackoff == 0 {
		c.ErrorBackoff = time.Minute
	}
	if c.CycleDelay == 0 {
		c.CycleDelay = time.Hour
	}
	if c.CriticalBackoff == 0 {
		c.CriticalBackoff = 15 * time.Minute
	}
	return c
}

// Sweeper enumerates targets from the portal's dropdowns and walks
// them in a loop until its context is cancelled. One bad target never
// stops the sweep, it just earns a longer pause before the next one.
type Sweeper struct {
	cfg     SweepConfig
	source  MatrixSource
	fetcher TargetFetcher
}

func NewSweeper(cfg SweepConfig, source MatrixSource, fetcher TargetFetcher) Sweeper {
	return Sweeper{cfg: cfg.withDefaults(), source: source, fetcher: fetcher}
}

// Run sweeps until ctx is cancelled. It never returns an error; every
// failure mode is logged and slept off.
func (s Sweeper) Run(ctx context.Context) {
	for {
		delay := s.sweep(ctx)
		if !sleep(ctx, delay) {
			return
		}
	}
}

// sweep runs one full cycle and reports how long to wait before the
// next one.
func (s Sweeper) sweep(ctx context.Context) (nextDelay time.Duration) {
	ctx, span := tracer.Start(ctx, "sweep")
	defer span.End()

	// a panic anywhere in a cycle must not take the daemon down
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "sweep cycle panicked", "panic", r)
			span.SetStatus(codes.Error, "panic")
			nextDelay = s.cfg.CriticalBackoff
		}
	}()

	matrix, err := s.source.FetchMatrix(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to build option matrix", "err", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "no option matrix")
		return s.cfg.CriticalBackoff
	}

	targets := append(matrix.Expand(s.cfg.Courses), s.cfg.Targets...)
	if len(targets) == 0 {
		slog.WarnContext(ctx, "nothing to sweep, no tracked course matches the portal")
		return s.cfg.CycleDelay
	}

	for i, target := range targets {
		if ctx.Err() != nil {
			return s.cfg.CycleDelay
		}

		err := s.fetcher.Fetch(ctx, target, matrix)

		delay := s.cfg.InterItemDelay
		if err != nil {
			slog.ErrorContext(
				ctx, "failed to fetch target",
				"course", target.CourseCode,
				"grade", target.Grade,
				"err", err,
			)
			delay = s.cfg.ErrorBackoff
		}

		if i < len(targets)-1 {
			if !sleep(ctx, delay) {
				return s.cfg.CycleDelay
			}
		}
	}

	slog.InfoContext(ctx, "sweep cycle finished", "targets", len(targets))
	return s.cfg.CycleDelay
}

// sleep waits for d or until ctx is cancelled, reporting whether the
// caller should keep going.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
