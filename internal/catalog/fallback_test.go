package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallback_Seed(t *testing.T) {
	seed, err := Fallback()
	require.NoError(t, err)

	require.Len(t, seed.Applications, 9)
	assert.Equal(t, "youtube", seed.Applications[0].ID)
	assert.Equal(t, "com.google.android.youtube", seed.Applications[0].PackageName)
	require.NotEmpty(t, seed.Patches)

	packages := make(map[string]bool)
	for _, a := range seed.Applications {
		assert.NotEmpty(t, a.PackageName, "app %s", a.ID)
		assert.False(t, packages[a.PackageName], "duplicate package %s", a.PackageName)
		packages[a.PackageName] = true
	}

	patchIDs := make(map[string]bool)
	for _, p := range seed.Patches {
		assert.False(t, patchIDs[p.ID], "duplicate patch %s", p.ID)
		patchIDs[p.ID] = true
		assert.Equal(t, StatusUnknown, p.Status)
		for _, pkg := range p.CompatibleApps {
			assert.True(t, packages[pkg], "patch %s references unknown package %s", p.ID, pkg)
		}
	}
}

func TestFallback_ReturnsIndependentCopies(t *testing.T) {
	first, err := Fallback()
	require.NoError(t, err)
	first.Patches[0].Enabled = !first.Patches[0].Enabled
	first.Applications[0].Name = "changed"

	second, err := Fallback()
	require.NoError(t, err)
	assert.NotEqual(t, first.Patches[0].Enabled, second.Patches[0].Enabled)
	assert.Equal(t, "YouTube", second.Applications[0].Name)
}

func TestParseSeed_Invalid(t *testing.T) {
	_, err := ParseSeed([]byte("applications: [unterminated"))
	assert.Error(t, err)
}

func TestNewLogEntry(t *testing.T) {
	now := time.Date(2024, 1, 2, 15, 4, 5, 0, time.Local)
	e := NewLogEntry(now, LevelSuccess, "done")
	assert.Equal(t, "15:04:05", e.Timestamp)
	assert.Equal(t, LevelSuccess, e.Level)
	assert.Equal(t, "done", e.Message)
}
