// Package driver paces a search at a fixed interval, one step per tick.
package driver

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/wricardo/gridpath/pathfind/service"
)

// DefaultInterval is the autoplay pace
const DefaultInterval = 50 * time.Millisecond

var ErrAlreadyPlaying = errors.New("session is already playing")

// Stepper performs one search step for a session
type Stepper interface {
	Step(ctx context.Context, sessionID string, autoStart bool) (*service.StepResult, error)
}

// TickFunc observes every step result
type TickFunc func(sessionID string, result *service.StepResult)

// Run steps sessionID once per interval until the search reaches a terminal
// status, a step fails, or ctx is done. An idle search is started on the
// first tick.
func Run(ctx context.Context, stepper Stepper, sessionID string, interval time.Duration, onTick TickFunc) (*service.StepResult, error) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last *service.StepResult
	for {
		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-ticker.C:
		}

		result, err := stepper.Step(ctx, sessionID, true)
		if err != nil {
			return last, err
		}
		last = result
		if onTick != nil {
			onTick(sessionID, result)
		}
		if result.Status != "continue" {
			return result, nil
		}
	}
}

// Driver runs autoplay loops in the background, at most one per session
type Driver struct {
	stepper  Stepper
	interval time.Duration
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
	runs   map[string]context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a driver. A nil logger uses slog.Default().
func New(stepper Stepper, interval time.Duration, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Driver{
		stepper:  stepper,
		interval: interval,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		runs:     make(map[string]context.CancelFunc),
	}
}

// Interval returns the pace between steps
func (d *Driver) Interval() time.Duration { return d.interval }

// Play starts stepping sessionID in the background
func (d *Driver) Play(sessionID string, onTick TickFunc) error {
	key := strings.ToLower(sessionID)

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ctx.Err() != nil {
		return d.ctx.Err()
	}
	if _, exists := d.runs[key]; exists {
		return ErrAlreadyPlaying
	}

	ctx, cancel := context.WithCancel(d.ctx)
	d.runs[key] = cancel
	d.wg.Add(1)

	go func() {
		defer d.wg.Done()
		defer func() {
			d.mu.Lock()
			delete(d.runs, key)
			d.mu.Unlock()
			cancel()
		}()

		result, err := Run(ctx, d.stepper, sessionID, d.interval, onTick)
		switch {
		case errors.Is(err, context.Canceled):
			d.logger.Debug("autoplay paused", "session", sessionID)
		case err != nil:
			d.logger.Warn("autoplay stopped", "session", sessionID, "error", err)
		case result != nil:
			d.logger.Debug("autoplay finished", "session", sessionID, "status", result.Status)
		}
	}()

	return nil
}

// Pause stops autoplay for sessionID. It reports whether a run was active.
func (d *Driver) Pause(sessionID string) bool {
	d.mu.Lock()
	cancel, exists := d.runs[strings.ToLower(sessionID)]
	d.mu.Unlock()

	if exists {
		cancel()
	}
	return exists
}

// Playing reports whether sessionID has an active autoplay loop
func (d *Driver) Playing(sessionID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, exists := d.runs[strings.ToLower(sessionID)]
	return exists
}

// Stop cancels every loop and waits for them to exit
func (d *Driver) Stop() {
	d.cancel()
	d.wg.Wait()
}
