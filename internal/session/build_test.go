package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patchpanel/internal/build"
	"patchpanel/internal/catalog"
	"patchpanel/internal/clock"
)

// gateClock blocks every pause until the gate is closed.
type gateClock struct {
	*clock.Fake
	gate chan struct{}
}

func (c *gateClock) Sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-c.gate:
		return c.Fake.Sleep(ctx, d)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func readySession(t *testing.T) (*Session, *recorder) {
	t.Helper()
	s, rec := newTestSession(t, nil)
	require.NoError(t, s.Sync(context.Background()))
	s.ClearLogs()
	return s, rec
}

func TestStartBuild_NotReadyIsSilent(t *testing.T) {
	s, _ := newTestSession(t, nil)
	require.NoError(t, s.SetPatchEnabled("hide-ads", true))

	_, err := s.StartBuild(context.Background())
	assert.ErrorIs(t, err, build.ErrNotReady)
	assert.Empty(t, s.Logs())
	assert.Equal(t, build.PhaseIdle, s.Snapshot().Build.Phase())
}

func TestStartBuild_NoPatchesLogsOnce(t *testing.T) {
	s, rec := readySession(t)
	// Enabled but incompatible with the selected app: still nothing to build.
	require.NoError(t, s.SetPatchEnabled("bg-play", true))
	require.NoError(t, s.SetPatchEnabled("broken", true))

	_, err := s.StartBuild(context.Background())
	assert.ErrorIs(t, err, build.ErrNoPatches)

	logs := s.Logs()
	require.Len(t, logs, 1)
	assert.Equal(t, catalog.LevelError, logs[0].Level)
	assert.Equal(t, build.MsgNoPatches, logs[0].Message)
	assert.Equal(t, 0, s.Snapshot().Build.Progress())
	assert.Empty(t, rec.progress())
}

func TestBuild_Progression(t *testing.T) {
	s, rec := readySession(t)
	require.NoError(t, s.SetPatchEnabled("hide-ads", true))

	require.NoError(t, s.Build(context.Background()))

	assert.Equal(t, []int{0, 20, 40, 60, 80, 100}, rec.progress())

	st := s.Snapshot()
	assert.Equal(t, build.PhaseComplete, st.Build.Phase())
	assert.Equal(t, 100, st.Build.Progress())

	require.Len(t, st.Logs, 7)
	assert.Equal(t, build.StartMessage("YouTube"), st.Logs[0].Message)
	for i, pct := range []int{0, 20, 40, 60, 80} {
		assert.Equal(t, catalog.LevelInfo, st.Logs[i+1].Level)
		assert.Equal(t, build.StepMessage(pct), st.Logs[i+1].Message)
	}
	assert.Equal(t, catalog.LevelSuccess, st.Logs[6].Level)

	// Complete accepts a new run.
	require.NoError(t, s.Build(context.Background()))
	assert.Equal(t, []int{0, 20, 40, 60, 80, 100, 0, 20, 40, 60, 80, 100}, rec.progress())
}

func TestStartBuild_RunningIsSilent(t *testing.T) {
	clk := &gateClock{Fake: testClock(), gate: make(chan struct{})}
	s, err := New(Options{Clock: clk, Seed: testSeed()})
	require.NoError(t, err)
	require.NoError(t, s.Sync(context.Background()))
	require.NoError(t, s.SetPatchEnabled("theme", true))
	s.ClearLogs()

	done, err := s.StartBuild(context.Background())
	require.NoError(t, err)
	assert.True(t, s.Snapshot().Build.Running())
	logs := len(s.Logs())

	_, err = s.StartBuild(context.Background())
	assert.ErrorIs(t, err, build.ErrRunning)
	assert.Len(t, s.Logs(), logs)

	close(clk.gate)
	require.NoError(t, <-done)
	_, open := <-done
	assert.False(t, open)
	assert.Equal(t, build.PhaseComplete, s.Snapshot().Build.Phase())
}

func TestStartBuild_CancelledRunCanRestart(t *testing.T) {
	clk := &gateClock{Fake: testClock(), gate: make(chan struct{})}
	s, err := New(Options{Clock: clk, Seed: testSeed()})
	require.NoError(t, err)
	require.NoError(t, s.Sync(context.Background()))
	require.NoError(t, s.SetPatchEnabled("theme", true))

	ctx, cancel := context.WithCancel(context.Background())
	done, err := s.StartBuild(ctx)
	require.NoError(t, err)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	st := s.Snapshot()
	assert.Equal(t, build.PhaseIdle, st.Build.Phase())
	assert.Equal(t, catalog.LevelError, st.Logs[len(st.Logs)-1].Level)

	close(clk.gate)
	require.NoError(t, s.Build(context.Background()))
}
