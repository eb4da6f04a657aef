// Package build simulates the patch build: an explicit state machine
// (Idle, Running{progress}, Complete) and a Runner that steps it on an
// injected clock, reporting progress and log lines to a Sink.
package build

import (
	"errors"
	"fmt"
)

// Guard failures. None of them changes state.
var (
	ErrRunning    = errors.New("build already running")
	ErrNotReady   = errors.New("catalog not ready")
	ErrNoPatches  = errors.New("no patches selected")
	ErrNotRunning = errors.New("build not running")
)

// Phase is the coarse state of the build.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseRunning  Phase = "running"
	PhaseComplete Phase = "complete"
)

// StepSize is the progress increment per step.
const StepSize = 20

// Machine is the build state. It is a value; transitions return a new Machine.
type Machine struct {
	phase    Phase
	progress int
}

// Phase returns the current phase. The zero Machine is idle.
func (m Machine) Phase() Phase {
	if m.phase == "" {
		return PhaseIdle
	}
	return m.phase
}

// Progress returns the last reported percentage.
func (m Machine) Progress() int {
	return m.progress
}

// Running reports whether a run is in flight.
func (m Machine) Running() bool {
	return m.Phase() == PhaseRunning
}

// Check applies the start guards in order: running, readiness, selection.
func (m Machine) Check(ready bool, selected int) error {
	switch {
	case m.Running():
		return ErrRunning
	case !ready:
		return ErrNotReady
	case selected == 0:
		return ErrNoPatches
	}
	return nil
}

// Start moves Idle or Complete to Running{0}.
func (m Machine) Start() (Machine, error) {
	if m.Running() {
		return m, ErrRunning
	}
	return Machine{phase: PhaseRunning, progress: 0}, nil
}

// Advance records a step. Progress never moves backwards; reaching 100
// completes the run.
func (m Machine) Advance(progress int) (Machine, error) {
	if !m.Running() {
		return m, ErrNotRunning
	}
	if progress < m.progress || progress > 100 {
		return m, fmt.Errorf("invalid progress %d after %d", progress, m.progress)
	}
	if progress == 100 {
		return Machine{phase: PhaseComplete, progress: 100}, nil
	}
	return Machine{phase: PhaseRunning, progress: progress}, nil
}

// Abort ends an interrupted run, keeping the last progress.
func (m Machine) Abort() Machine {
	if !m.Running() {
		return m
	}
	return Machine{phase: PhaseIdle, progress: m.progress}
}

func (m Machine) String() string {
	if m.Running() {
		return fmt.Sprintf("running(%d%%)", m.progress)
	}
	return string(m.Phase())
}
