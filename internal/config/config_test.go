package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"API_KEY", "GEMINI_API_KEY", "PATCHPANEL_MODEL", "PATCHPANEL_ADDR", "PATCHPANEL_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "gemini-3-pro-preview", cfg.LLM.Model)
	assert.True(t, cfg.LLM.GoogleSearch)
	assert.Equal(t, 3, cfg.GetMaxRetries())
	assert.Equal(t, 2500*time.Millisecond, cfg.GetRetryBaseDelay())
	assert.Equal(t, 600*time.Millisecond, cfg.GetBuildStepInterval())
	assert.Equal(t, 120*time.Second, cfg.GetLLMTimeout())
	assert.False(t, cfg.RemoteEnabled())
	assert.NoError(t, cfg.Validate())
}

func TestConfig_SaveLoad(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.LLM.APIKey = "file-key"
	cfg.Build.StepInterval = "10ms"
	cfg.Commands.Setup = "curl -fsSL example.com/setup.sh | sh"

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "file-key", loaded.LLM.APIKey)
	assert.Equal(t, 10*time.Millisecond, loaded.GetBuildStepInterval())
	assert.Equal(t, cfg.Commands.Setup, loaded.Commands.Setup)
	assert.True(t, loaded.RemoteEnabled())
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: [oops"), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Run("API_KEY sets key", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("API_KEY", "generic")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "generic", cfg.LLM.APIKey)
	})

	t.Run("GEMINI_API_KEY wins over API_KEY", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("API_KEY", "generic")
		t.Setenv("GEMINI_API_KEY", "gemini")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "gemini", cfg.LLM.APIKey)
	})

	t.Run("model, addr and level", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PATCHPANEL_MODEL", "gemini-2.5-flash")
		t.Setenv("PATCHPANEL_ADDR", ":9000")
		t.Setenv("PATCHPANEL_LOG_LEVEL", "debug")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "gemini-2.5-flash", cfg.LLM.Model)
		assert.Equal(t, ":9000", cfg.Server.Addr)
		assert.Equal(t, "debug", cfg.Logging.Level)
	})
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.Provider = "openai"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.LLM.Model = ""
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Retry.MaxRetries = -1
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Build.StepInterval = "fast"
	assert.Error(t, cfg.Validate())
}

func TestDurationFallbacks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.Timeout = "soon"
	cfg.Retry.BaseDelay = ""
	cfg.Build.StepInterval = "-1s"

	assert.Equal(t, 120*time.Second, cfg.GetLLMTimeout())
	assert.Equal(t, 2500*time.Millisecond, cfg.GetRetryBaseDelay())
	assert.Equal(t, 600*time.Millisecond, cfg.GetBuildStepInterval())
}
