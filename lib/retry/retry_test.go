package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingHandler struct {
	warns  atomic.Int64
	errors atomic.Int64
}

func (h *countingHandler) Enabled(context.Context, slog.Level) bool { return true }
func (h *countingHandler) Handle(_ context.Context, r slog.Record) error {
	switch r.Level {
	case slog.LevelWarn:
		h.warns.Add(1)
	case slog.LevelError:
		h.errors.Add(1)
	}
	return nil
}
func (h *countingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *countingHandler) WithGroup(string) slog.Handler      { return h }

func withCountingLogger(t *testing.T) *countingHandler {
	h := &countingHandler{}
	prev := slog.Default()
	slog.SetDefault(slog.New(h))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return h
}

func TestSucceedsAfterTwoFailures(t *testing.T) {
	h := withCountingLogger(t)

	attempts := 0
	start := time.Now()
	out, err := Do(context.Background(), "flaky", Options{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond * 20,
		MaxDelay:     time.Second,
	}, func() (string, error) {
		attempts++
		if attempts < 3 {
			return "", fmt.Errorf("transient %d", attempts)
		}
		return "ok", nil
	})
	elapsed := time.Since(start)

	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "ok", out)
	require.Equal(t, 3, attempts)
	// 20ms + 40ms of backoff sleeps
	require.GreaterOrEqual(t, elapsed, time.Millisecond*60)
	require.EqualValues(t, 2, h.warns.Load())
	require.EqualValues(t, 0, h.errors.Load())
}

func TestExhaustionReturnsLastError(t *testing.T) {
	withCountingLogger(t)

	attempts := 0
	_, err := Do(context.Background(), "hopeless", Options{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond * 4,
	}, func() (struct{}, error) {
		attempts++
		return struct{}{}, fmt.Errorf("boom %d", attempts)
	})

	require.Equal(t, 3, attempts)
	require.EqualError(t, err, "boom 3")
}

func TestPermanentStopsImmediately(t *testing.T) {
	withCountingLogger(t)

	sentinel := errors.New("bad config")
	attempts := 0
	_, err := Do(context.Background(), "misconfigured", Options{
		MaxAttempts:  5,
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond * 4,
	}, func() (int, error) {
		attempts++
		return 0, Permanent(sentinel)
	})

	require.Equal(t, 1, attempts)
	require.ErrorIs(t, err, sentinel)
}

func TestCancellationIsNotLoggedAsFailure(t *testing.T) {
	h := withCountingLogger(t)

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	_, err := Do(ctx, "cancelled", Options{
		MaxAttempts:  10,
		InitialDelay: time.Millisecond * 50,
		MaxDelay:     time.Second,
	}, func() (int, error) {
		attempts++
		cancel()
		return 0, errors.New("will not be retried")
	})

	require.Equal(t, 1, attempts)
	require.ErrorIs(t, err, context.Canceled)
	// the single attempt's retry notification may or may not fire before
	// the context is observed, but cancellation itself is never an error
	require.EqualValues(t, 0, h.errors.Load())
}
