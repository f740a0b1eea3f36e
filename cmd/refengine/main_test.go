package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"refengine/internal/config"
	"refengine/internal/telemetry"
)

// execute runs the CLI with args against an isolated data dir.
func execute(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.DataDirEnv, dataDir)
	t.Setenv(telemetry.EndpointEnv, "")

	var out, errOut bytes.Buffer
	root := newRootCmd(&out, &errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRun_DefaultSeed(t *testing.T) {
	out, err := execute(t, t.TempDir(), "run")
	require.NoError(t, err)

	assert.Equal(t,
		"Final State: [1.628894626777442, 3.257789253554884, 4.886683880332327]\n"+
			"Last Glyph: 3c82bd8516a0\n"+
			"Halt Reason: depth_limit\n",
		out)
}

func TestRun_TensionHalt(t *testing.T) {
	out, err := execute(t, t.TempDir(), "run", "--seed-json", "[1.0, 1.5, 2.0]", "--max-depth", "15", "--threshold", "0.2")
	require.NoError(t, err)

	assert.Contains(t, out, "Final State: [1.0, 1.5, 2.0]\n")
	assert.Contains(t, out, "Last Glyph: 23f16f3f8ee1\n")
	assert.Contains(t, out, "Halt Reason: tension_exceeded\n")
}

func TestRun_ConvergedWithIdentityGrowth(t *testing.T) {
	out, err := execute(t, t.TempDir(), "run", "--seed", "1,2,3", "--growth", "1")
	require.NoError(t, err)

	assert.Contains(t, out, "Final State: [1.0, 2.0, 3.0]\n")
	assert.Contains(t, out, "Last Glyph: 6fcfde68cc27\n")
	assert.Contains(t, out, "Halt Reason: converged\n")
}

func TestRun_EmptySeedZeroDepth(t *testing.T) {
	out, err := execute(t, t.TempDir(), "run", "--seed-json", "[]", "--max-depth", "0")
	require.NoError(t, err)
	assert.Equal(t, "Final State: []\nLast Glyph: \nHalt Reason: depth_limit\n", out)
}

func TestRun_TraceAndChart(t *testing.T) {
	out, err := execute(t, t.TempDir(), "run", "--trace", "--chart")
	require.NoError(t, err)

	assert.Contains(t, out, "Depth 00 → 6fcfde68cc27\n")
	assert.Contains(t, out, "Depth 09 → 3c82bd8516a0\n")
	assert.Contains(t, out, "State evolution")
}

func TestRun_JSON(t *testing.T) {
	out, err := execute(t, t.TempDir(), "run", "--json")
	require.NoError(t, err)

	var got struct {
		HaltReason string `json:"halt_reason"`
		Iterations int    `json:"iterations"`
		LastGlyph  string `json:"last_glyph"`
		Trace      []struct {
			Depth int    `json:"depth"`
			Glyph string `json:"glyph"`
		} `json:"trace"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "depth_limit", got.HaltReason)
	assert.Equal(t, 10, got.Iterations)
	assert.Equal(t, "3c82bd8516a0", got.LastGlyph)
	require.Len(t, got.Trace, 10)
	assert.Equal(t, "3600ba749473", got.Trace[1].Glyph)
}

func TestRun_InvalidInput(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, dir, "run", "--max-depth", "-1")
	assert.Error(t, err)

	_, err = execute(t, dir, "run", "--seed", "1,x")
	assert.Error(t, err)

	_, err = execute(t, dir, "run", "--seed-json", "[1, null, 3]")
	assert.ErrorContains(t, err, "element 1 is null")

	_, err = execute(t, dir, "run", "--seed", "1", "--seed-json", "[1]")
	assert.Error(t, err, "seed flags are mutually exclusive")
}

func TestRun_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "refengine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("seed: [1.0, 1.5, 2.0]\ntension_threshold: 0.2\n"), 0o644))

	out, err := execute(t, dir, "--config", path, "run")
	require.NoError(t, err)
	assert.Contains(t, out, "Halt Reason: tension_exceeded\n")
}

func TestRun_MetricsFile(t *testing.T) {
	dir := t.TempDir()
	metricsPath := filepath.Join(dir, "refengine.prom")

	_, err := execute(t, dir, "run", "--metrics-file", metricsPath)
	require.NoError(t, err)

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `refengine_runs_total{halt_reason="depth_limit"} 1`)
}

func TestArchiveHistoryShow(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, dir, "run", "--archive")
	require.NoError(t, err)

	var id string
	for _, line := range strings.Split(out, "\n") {
		if v, ok := strings.CutPrefix(line, "Run ID: "); ok {
			id = v
		}
	}
	require.NotEmpty(t, id, "run --archive should print the run ID")

	out, err = execute(t, dir, "history")
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "depth_limit")
	assert.Contains(t, out, "3c82bd8516a0")

	out, err = execute(t, dir, "show", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Seed: [1.0, 2.0, 3.0]\n")
	assert.Contains(t, out, "Last Glyph: 3c82bd8516a0\n")
	assert.Contains(t, out, "Depth 00 → 6fcfde68cc27\n")

	_, err = execute(t, dir, "show", "no-such-run")
	assert.Error(t, err)
}

func TestHistory_Empty(t *testing.T) {
	out, err := execute(t, t.TempDir(), "history")
	require.NoError(t, err)
	assert.Equal(t, "no archived runs\n", out)
}

func TestBatch(t *testing.T) {
	out, err := execute(t, t.TempDir(), "batch", "--seeds-json", "[[1,2,3],[1.0,1.5,2.0],[]]", "--threshold", "0.3", "--concurrency", "2")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "[0] [1.0, 2.0, 3.0] → tension_exceeded 6fcfde68cc27"), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "[1] [1.0, 1.5, 2.0] → depth_limit"), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "[2] [] → depth_limit"), lines[2])
}

func TestBatch_RequiresSeeds(t *testing.T) {
	_, err := execute(t, t.TempDir(), "batch")
	assert.Error(t, err)

	_, err = execute(t, t.TempDir(), "batch", "--seeds-json", "[]")
	assert.Error(t, err)
}
