package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().TargetCount, cfg.TargetCount)
}

func TestLoad_ParsesYAMLOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "synapse.yaml")
	yaml := []byte("target_count: 25\ncandidate_pool_max: 100\nllm:\n  provider: offline\n")
	require.NoError(t, os.WriteFile(path, yaml, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.TargetCount)
	assert.Equal(t, 100, cfg.CandidatePoolMax)
}

func TestLoad_EnvOverridesTakePrecedence(t *testing.T) {
	t.Setenv("SYNAPSE_TARGET_COUNT", "7")
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.TargetCount)
	assert.Equal(t, "genai", cfg.LLM.Provider)
	assert.Equal(t, "test-key", cfg.LLM.APIKey)
}

func TestSave_RoundTripsThroughYAML(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TargetCount = 33
	path := filepath.Join(t.TempDir(), "nested", "synapse.yaml")
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 33, loaded.TargetCount)
}

func TestRunDeadlineDuration_FallsBackOnBadValue(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RunDeadline = "not-a-duration"
	assert.Equal(t, 90*time.Second, cfg.RunDeadlineDuration())
}

func TestValidate_RejectsNonPositiveTargetCount(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TargetCount = 0
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsPoolSmallerThanTargetCount(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CandidatePoolMax = cfg.TargetCount - 1
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsGenaiProviderWithoutAPIKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.Provider = "genai"
	cfg.LLM.APIKey = ""
	assert.Error(t, cfg.Validate())
}

func TestValidate_AcceptsDefaults(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}
