package build

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"patchpanel/internal/catalog"
	"patchpanel/internal/clock"
	"patchpanel/internal/logging"
)

// DefaultStepInterval is the pause before each step.
const DefaultStepInterval = 600 * time.Millisecond

// Log lines emitted during a run.
const (
	MsgNoPatches = "No patches selected."
	MsgSucceeded = "SUCCESS: Binary built. Use the launch command to install."
)

// StartMessage is the info line naming the target application.
func StartMessage(appName string) string {
	return fmt.Sprintf("BUILD: Processing %s via PowerShell agent...", appName)
}

// StepMessage is the info line for a step below 100.
func StepMessage(progress int) string {
	return fmt.Sprintf("BUILD: Verifying patched output [%d%%]", progress)
}

// Sink receives every transition and log line of a run.
type Sink interface {
	Progress(m Machine)
	Log(level catalog.LogLevel, msg string)
}

// Runner steps a Machine from Running{0} to Complete.
type Runner struct {
	clock    clock.Clock
	interval time.Duration
}

// NewRunner creates a Runner. A nil clock uses the system clock; a
// non-positive interval uses DefaultStepInterval.
func NewRunner(clk clock.Clock, interval time.Duration) *Runner {
	if clk == nil {
		clk = clock.Real{}
	}
	if interval <= 0 {
		interval = DefaultStepInterval
	}
	return &Runner{clock: clk, interval: interval}
}

// Run drives m, which must be Running, through steps 0..100. Every step is
// preceded by one pause. If ctx ends mid-run the machine is aborted and the
// context error returned.
func (r *Runner) Run(ctx context.Context, m Machine, sink Sink) (Machine, error) {
	log := logging.Get(logging.CategoryBuild)
	if !m.Running() {
		return m, ErrNotRunning
	}

	for pct := 0; pct <= 100; pct += StepSize {
		if err := r.clock.Sleep(ctx, r.interval); err != nil {
			m = m.Abort()
			sink.Progress(m)
			sink.Log(catalog.LevelError, fmt.Sprintf("BUILD: aborted at %d%%: %v", m.Progress(), err))
			log.Warn("build aborted", zap.Int("progress", m.Progress()), zap.Error(err))
			return m, err
		}

		next, err := m.Advance(pct)
		if err != nil {
			return m, err
		}
		m = next
		sink.Progress(m)

		if pct < 100 {
			sink.Log(catalog.LevelInfo, StepMessage(pct))
		} else {
			sink.Log(catalog.LevelSuccess, MsgSucceeded)
		}
		log.Debug("build step", zap.Stringer("state", m))
	}
	return m, nil
}
