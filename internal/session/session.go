// Package session owns the panel state: the merged catalog, the user's
// selection, the log pane and the build machine. Every surface (CLI, panel,
// HTTP API) drives the same Session; reads return copies and every write
// replaces whole values under one lock.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"patchpanel/internal/build"
	"patchpanel/internal/catalog"
	"patchpanel/internal/clock"
	"patchpanel/internal/command"
	"patchpanel/internal/logging"
)

var (
	ErrSyncInProgress   = errors.New("sync already in progress")
	ErrVerifyInProgress = errors.New("verification already in progress")
	ErrUnknownApp       = errors.New("unknown application")
	ErrUnknownPatch     = errors.New("unknown patch")
	ErrRemoteDisabled   = errors.New("remote catalog disabled: no API key")
)

// Fetcher is the remote catalog source. Implementations never fail; they
// return empty results instead.
type Fetcher interface {
	FetchApps(ctx context.Context) ([]catalog.Application, []catalog.GroundingLink)
	FetchPatches(ctx context.Context) ([]catalog.Patch, []catalog.GroundingLink)
	FetchRepos(ctx context.Context) ([]catalog.SourceRepository, []catalog.GroundingLink)
	VerifyCompatibility(ctx context.Context, app catalog.Application, patches []catalog.Patch) (map[string]catalog.Verdict, []catalog.GroundingLink)
}

// EventKind classifies a state change.
type EventKind string

const (
	EventCatalog   EventKind = "catalog"
	EventSelection EventKind = "selection"
	EventLog       EventKind = "log"
	EventBuild     EventKind = "build"
	EventProgress  EventKind = "progress"
)

// Event is delivered to Options.OnChange after every mutation, outside the lock.
type Event struct {
	Kind  EventKind
	State State
}

// Options configures a Session.
type Options struct {
	// Fetcher is nil when no API key is configured.
	Fetcher      Fetcher
	Clock        clock.Clock
	StepInterval time.Duration
	SetupCommand string
	// Seed overrides the built-in fallback catalog.
	Seed     *catalog.Seed
	OnChange func(Event)
}

// Session is the single owner of panel state.
type Session struct {
	mu    sync.RWMutex
	state State

	fetcher  Fetcher
	clock    clock.Clock
	runner   *build.Runner
	setup    string
	onChange func(Event)
}

// New creates a Session seeded with the fallback catalog. The first
// application is selected and the filename is the "none" sentinel.
func New(opts Options) (*Session, error) {
	seed := opts.Seed
	if seed == nil {
		fb, err := catalog.Fallback()
		if err != nil {
			return nil, fmt.Errorf("load fallback catalog: %w", err)
		}
		seed = &fb
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real{}
	}

	st := State{
		Apps:     append([]catalog.Application(nil), seed.Applications...),
		Patches:  catalog.ClonePatches(seed.Patches),
		Filename: command.NoFile,
	}
	if len(st.Apps) > 0 {
		st.SelectedAppID = st.Apps[0].ID
	}

	return &Session{
		state:    st,
		fetcher:  opts.Fetcher,
		clock:    clk,
		runner:   build.NewRunner(clk, opts.StepInterval),
		setup:    opts.SetupCommand,
		onChange: opts.OnChange,
	}, nil
}

// RemoteEnabled reports whether a remote fetcher is configured.
func (s *Session) RemoteEnabled() bool {
	return s.fetcher != nil
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// update applies fn to a copy of the state and installs the result.
func (s *Session) update(kind EventKind, fn func(st *State) error) error {
	s.mu.Lock()
	next := s.state.clone()
	if err := fn(&next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.state = next
	var snap State
	if s.onChange != nil {
		snap = next.clone()
	}
	s.mu.Unlock()

	if s.onChange != nil {
		s.onChange(Event{Kind: kind, State: snap})
	}
	return nil
}

func (s *Session) appendLog(st *State, level catalog.LogLevel, msg string) {
	st.Logs = append(st.Logs, catalog.NewLogEntry(s.clock.Now(), level, msg))
}

// Log appends one entry to the log pane.
func (s *Session) Log(level catalog.LogLevel, msg string) {
	_ = s.update(EventLog, func(st *State) error {
		s.appendLog(st, level, msg)
		return nil
	})
}

// Logs returns the log pane entries.
func (s *Session) Logs() []catalog.LogEntry {
	return s.Snapshot().Logs
}

// ClearLogs empties the log pane.
func (s *Session) ClearLogs() {
	_ = s.update(EventLog, func(st *State) error {
		st.Logs = nil
		return nil
	})
}

// SelectApp changes the target application.
func (s *Session) SelectApp(id string) error {
	return s.update(EventSelection, func(st *State) error {
		if _, ok := catalog.FindApp(st.Apps, id); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownApp, id)
		}
		st.SelectedAppID = id
		return nil
	})
}

// SetFilename sets the input APK name. Empty means no file.
func (s *Session) SetFilename(name string) {
	_ = s.update(EventSelection, func(st *State) error {
		if name == "" {
			name = command.NoFile
		}
		st.Filename = name
		return nil
	})
}

// SetQuery sets the patch search query.
func (s *Session) SetQuery(q string) {
	_ = s.update(EventSelection, func(st *State) error {
		st.Query = q
		return nil
	})
}

// TogglePatch flips the enabled flag of one patch and returns the new value.
func (s *Session) TogglePatch(id string) (bool, error) {
	var enabled bool
	err := s.update(EventSelection, func(st *State) error {
		i := patchIndex(st.Patches, id)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrUnknownPatch, id)
		}
		st.Patches[i].Enabled = !st.Patches[i].Enabled
		enabled = st.Patches[i].Enabled
		return nil
	})
	return enabled, err
}

// SetPatchEnabled sets the enabled flag of one patch.
func (s *Session) SetPatchEnabled(id string, enabled bool) error {
	return s.update(EventSelection, func(st *State) error {
		i := patchIndex(st.Patches, id)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrUnknownPatch, id)
		}
		st.Patches[i].Enabled = enabled
		return nil
	})
}

func patchIndex(patches []catalog.Patch, id string) int {
	for i, p := range patches {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// CompatiblePatches returns the patches applicable to the selected application.
func (s *Session) CompatiblePatches() []catalog.Patch {
	return s.Snapshot().CompatiblePatches()
}

// VisiblePatches returns the compatible patches matching the current query.
func (s *Session) VisiblePatches() []catalog.Patch {
	return s.Snapshot().VisiblePatches()
}

// Command synthesizes the build command from the current state.
func (s *Session) Command() string {
	st := s.Snapshot()
	return command.Synthesize(st.SelectedApp(), st.Patches, st.Filename)
}

// LaunchCommand returns the install helper for the current filename.
func (s *Session) LaunchCommand() string {
	return command.LaunchCommand(s.Snapshot().Filename)
}

// SetupCommand returns the environment setup one-liner.
func (s *Session) SetupCommand() string {
	return command.SetupCommand(s.setup)
}

func logger() *zap.Logger {
	return logging.Get(logging.CategoryCatalog)
}
