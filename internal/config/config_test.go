package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"refengine/internal/recursor"
	"refengine/internal/state"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(DataDirEnv, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.MaxDepth)
	assert.Equal(t, 0.7, cfg.TensionThreshold)
	assert.Equal(t, 0.001, cfg.ConvergenceEpsilon)
	assert.Equal(t, 1.05, cfg.GrowthFactor)
	assert.Equal(t, state.State{1, 2, 3}, cfg.SeedState())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "refengine.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
max_depth: 15
tension_threshold: 0.2
seed: [1.0, 1.5, 2.0]
log_format: json
`), 0o644))

	t.Setenv(DataDirEnv, dir)
	t.Setenv("REF_TENSION_THRESHOLD", "0.3")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 15, cfg.MaxDepth, "file overrides default")
	assert.Equal(t, 0.3, cfg.TensionThreshold, "env overrides file")
	assert.Equal(t, state.State{1.0, 1.5, 2.0}, cfg.SeedState())
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, filepath.Join(dir, ArchiveFileName), cfg.ArchivePath())
}

func TestLoad_EnvSeed(t *testing.T) {
	t.Setenv(DataDirEnv, t.TempDir())
	t.Setenv("REF_SEED", "4,5,6")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, state.State{4, 5, 6}, cfg.SeedState())
}

func TestLoad_Errors(t *testing.T) {
	t.Setenv(DataDirEnv, t.TempDir())

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("max_depth: [oops"), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)

	t.Setenv("REF_MAX_DEPTH", "ten")
	_, err = Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.MaxDepth = -1
	assert.ErrorIs(t, cfg.Validate(), recursor.ErrInvalidConfig)

	cfg = Default()
	cfg.Concurrency = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.LogFormat = "xml"
	assert.Error(t, cfg.Validate())
}

func TestRecursorAndTransition(t *testing.T) {
	cfg := Default()
	cfg.GrowthFactor = 2

	rc := cfg.Recursor()
	assert.Equal(t, recursor.Config{MaxDepth: 10, TensionThreshold: 0.7, ConvergenceEpsilon: 0.001}, rc)

	next, err := cfg.Transition().Next(state.State{1, 2}, nil)
	require.NoError(t, err)
	assert.Equal(t, state.State{2, 4}, next)
}
