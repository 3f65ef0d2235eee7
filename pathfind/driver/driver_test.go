package driver

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/gridpath/pathfind/service"
)

// fakeStepper reports found after a fixed number of steps
type fakeStepper struct {
	mu        sync.Mutex
	steps     int
	finishAt  int
	err       error
	autoStart []bool
}

func (f *fakeStepper) Step(ctx context.Context, sessionID string, autoStart bool) (*service.StepResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.steps++
	f.autoStart = append(f.autoStart, autoStart)
	status := "continue"
	if f.finishAt > 0 && f.steps >= f.finishAt {
		status = "found"
	}
	return &service.StepResult{Status: status}, nil
}

func (f *fakeStepper) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.steps
}

func TestRun(t *testing.T) {
	t.Run("stops at terminal status", func(t *testing.T) {
		stepper := &fakeStepper{finishAt: 3}
		var ticks []string

		result, err := Run(context.Background(), stepper, "abcd", time.Millisecond, func(id string, r *service.StepResult) {
			assert.Equal(t, "abcd", id)
			ticks = append(ticks, r.Status)
		})
		require.NoError(t, err)
		assert.Equal(t, "found", result.Status)
		assert.Equal(t, []string{"continue", "continue", "found"}, ticks)
		assert.Equal(t, []bool{true, true, true}, stepper.autoStart)
	})

	t.Run("returns step errors", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := Run(context.Background(), &fakeStepper{err: boom}, "abcd", time.Millisecond, nil)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("honors cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		stepper := &fakeStepper{}
		_, err := Run(ctx, stepper, "abcd", time.Hour, nil)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, stepper.count())
	})
}

func TestDriver_PlayPause(t *testing.T) {
	stepper := &fakeStepper{}
	d := New(stepper, time.Millisecond, nil)
	defer d.Stop()

	var ticks atomic.Int32
	require.NoError(t, d.Play("ABCD", func(string, *service.StepResult) { ticks.Add(1) }))
	assert.True(t, d.Playing("abcd"))
	assert.ErrorIs(t, d.Play("abcd", nil), ErrAlreadyPlaying)

	require.Eventually(t, func() bool { return ticks.Load() >= 3 }, time.Second, time.Millisecond)

	assert.True(t, d.Pause("abcd"))
	require.Eventually(t, func() bool { return !d.Playing("abcd") }, time.Second, time.Millisecond)
	assert.False(t, d.Pause("abcd"))

	paused := stepper.count()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, paused, stepper.count(), "no steps after pause")
}

func TestDriver_FinishesOnTerminal(t *testing.T) {
	d := New(&fakeStepper{finishAt: 2}, time.Millisecond, nil)
	defer d.Stop()

	require.NoError(t, d.Play("done", nil))
	require.Eventually(t, func() bool { return !d.Playing("done") }, time.Second, time.Millisecond)
}

func TestDriver_Stop(t *testing.T) {
	d := New(&fakeStepper{}, time.Millisecond, nil)
	require.NoError(t, d.Play("one", nil))
	require.NoError(t, d.Play("two", nil))

	d.Stop()
	assert.False(t, d.Playing("one"))
	assert.False(t, d.Playing("two"))
	assert.Error(t, d.Play("three", nil), "stopped driver refuses new runs")
	assert.Equal(t, DefaultInterval, New(&fakeStepper{}, 0, nil).Interval())
}
