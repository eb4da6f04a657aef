package session

import (
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"patchpanel/internal/build"
	"patchpanel/internal/catalog"
	"patchpanel/internal/clock"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	pkgYouTube = "com.google.android.youtube"
	pkgMusic   = "com.google.android.apps.youtube.music"
)

func testSeed() *catalog.Seed {
	return &catalog.Seed{
		Applications: []catalog.Application{
			{ID: "youtube", Name: "YouTube", Icon: "▶️", PackageName: pkgYouTube, RecommendedVersion: "19.16.39"},
			{ID: "music", Name: "YT Music", Icon: "🎵", PackageName: pkgMusic},
		},
		Patches: []catalog.Patch{
			{ID: "hide-ads", Name: "Hide ads", Description: "Removes video ads", CompatibleApps: []string{pkgYouTube}, Status: catalog.StatusUnknown},
			{ID: "theme", Name: "Theme", Description: "Custom colors", Status: catalog.StatusUnknown},
			{ID: "bg-play", Name: "Background play", Description: "Play in background", CompatibleApps: []string{pkgMusic}, Status: catalog.StatusUnknown},
			{ID: "broken", Name: "Broken", Description: "Never offered", Status: catalog.StatusIncompatible},
		},
	}
}

func testClock() *clock.Fake {
	return clock.NewFake(time.Date(2024, 3, 1, 9, 30, 0, 0, time.Local))
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) record(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) progress() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []int
	for _, e := range r.events {
		if e.Kind == EventProgress {
			out = append(out, e.State.Build.Progress())
		}
	}
	return out
}

func newTestSession(t *testing.T, f Fetcher) (*Session, *recorder) {
	t.Helper()
	rec := &recorder{}
	s, err := New(Options{
		Fetcher:      f,
		Clock:        testClock(),
		StepInterval: time.Millisecond,
		Seed:         testSeed(),
		OnChange:     rec.record,
	})
	require.NoError(t, err)
	return s, rec
}

func levels(entries []catalog.LogEntry) []catalog.LogLevel {
	out := make([]catalog.LogLevel, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Level)
	}
	return out
}

func patchIDs(patches []catalog.Patch) []string {
	out := make([]string, 0, len(patches))
	for _, p := range patches {
		out = append(out, p.ID)
	}
	return out
}

func TestNew_UsesFallbackCatalog(t *testing.T) {
	s, err := New(Options{})
	require.NoError(t, err)

	st := s.Snapshot()
	assert.Len(t, st.Apps, 9)
	assert.NotEmpty(t, st.Patches)
	assert.Equal(t, st.Apps[0].ID, st.SelectedAppID)
	assert.Equal(t, "none", st.Filename)
	assert.False(t, st.Ready)
	assert.False(t, s.RemoteEnabled())
	assert.Equal(t, build.PhaseIdle, st.Build.Phase())
}

func TestSnapshot_IsACopy(t *testing.T) {
	s, _ := newTestSession(t, nil)
	st := s.Snapshot()
	st.Patches[0].Enabled = true
	st.Apps[0].Name = "mutated"

	again := s.Snapshot()
	assert.False(t, again.Patches[0].Enabled)
	assert.Equal(t, "YouTube", again.Apps[0].Name)
}

func TestSelectionOperations(t *testing.T) {
	s, _ := newTestSession(t, nil)

	assert.Equal(t, []string{"hide-ads", "theme"}, patchIDs(s.CompatiblePatches()))

	require.NoError(t, s.SelectApp("music"))
	assert.Equal(t, []string{"theme", "bg-play"}, patchIDs(s.CompatiblePatches()))

	err := s.SelectApp("nope")
	assert.ErrorIs(t, err, ErrUnknownApp)
	assert.Equal(t, "music", s.Snapshot().SelectedAppID)

	s.SetQuery("  BACKGROUND ")
	assert.Equal(t, []string{"bg-play"}, patchIDs(s.VisiblePatches()))
	s.SetQuery("")
	assert.Equal(t, patchIDs(s.CompatiblePatches()), patchIDs(s.VisiblePatches()))

	on, err := s.TogglePatch("theme")
	require.NoError(t, err)
	assert.True(t, on)
	on, err = s.TogglePatch("theme")
	require.NoError(t, err)
	assert.False(t, on)

	_, err = s.TogglePatch("ghost")
	assert.ErrorIs(t, err, ErrUnknownPatch)
	assert.ErrorIs(t, s.SetPatchEnabled("ghost", true), ErrUnknownPatch)
}

func TestCommand_TracksState(t *testing.T) {
	s, _ := newTestSession(t, nil)

	empty := s.Command()
	assert.Equal(t, "java -jar revanced-cli.jar patch -p patches.rvp -o Output.apk input.apk ", empty)

	_, err := s.TogglePatch("hide-ads")
	require.NoError(t, err)
	require.NoError(t, s.SetPatchEnabled("bg-play", true))
	assert.Equal(t,
		`java -jar revanced-cli.jar patch -p patches.rvp -o Output.apk input.apk --include "hide-ads"`,
		s.Command())

	s.SetFilename("yt.apk")
	assert.Equal(t,
		`java -jar revanced-cli.jar patch -p patches.rvp -o patched_yt.apk yt.apk --include "hide-ads"`,
		s.Command())
	assert.Equal(t, `adb install -r .\patched_yt.apk; Write-Host "Build Succeeded" -ForegroundColor Cyan`, s.LaunchCommand())

	require.NoError(t, s.SelectApp("music"))
	assert.Equal(t,
		`java -jar revanced-cli.jar patch -p patches.rvp -o patched_yt.apk yt.apk --include "bg-play"`,
		s.Command())

	s.SetFilename("")
	assert.Equal(t, "none", s.Snapshot().Filename)
	assert.Equal(t, s.Command(), s.Command())
}

func TestSetupCommand(t *testing.T) {
	s, _ := newTestSession(t, nil)
	assert.Contains(t, s.SetupCommand(), "setup.ps1 | iex")

	custom, err := New(Options{Seed: testSeed(), SetupCommand: "scoop install revanced"})
	require.NoError(t, err)
	assert.Equal(t, "scoop install revanced", custom.SetupCommand())
}

func TestClearLogs(t *testing.T) {
	s, _ := newTestSession(t, nil)
	s.Log(catalog.LevelInfo, "one")
	s.Log(catalog.LevelWarn, "two")
	require.Len(t, s.Logs(), 2)
	assert.Equal(t, "09:30:00", s.Logs()[0].Timestamp)

	s.ClearLogs()
	assert.Empty(t, s.Logs())
}

func TestOnChange_ReceivesEvents(t *testing.T) {
	s, rec := newTestSession(t, nil)
	s.SetQuery("ads")
	s.Log(catalog.LevelInfo, "hello")

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.events, 2)
	assert.Equal(t, EventSelection, rec.events[0].Kind)
	assert.Equal(t, "ads", rec.events[0].State.Query)
	assert.Equal(t, EventLog, rec.events[1].Kind)
	assert.Empty(t, cmp.Diff([]catalog.LogLevel{catalog.LevelInfo}, levels(rec.events[1].State.Logs)))
}
