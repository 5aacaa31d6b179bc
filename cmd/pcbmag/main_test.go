package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/soypat/pcbmag/export"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(context.Background(), args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestExportDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.stl")
	code, stdout, stderr := runCLI(t, "--nogui", "--out", path)
	require.Equal(t, 0, code, stderr)
	abs, err := filepath.Abs(path)
	require.NoError(t, err)
	assert.Equal(t, "Exported to: "+abs+"\n", stdout)
	assert.Contains(t, stderr, "Build complete")

	rep, err := export.Inspect(path)
	require.NoError(t, err)
	assert.InDelta(t, 120, rep.Bounds().Size().Z, 1e-4)
}

func TestExportFrameStep(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frame.step")
	code, _, stderr := runCLI(t, "--nogui", "--component", "frame", "-a", "60", "-n", "3", "--fmt", "step", "--out", path)
	require.Equal(t, 0, code, stderr)

	code, stdout, stderr := runCLI(t, "--inspect", path)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "frame")
	assert.Contains(t, stdout, "1 bodies")
}

func TestFormatSetsExtension(t *testing.T) {
	dir := t.TempDir()
	wd, wdErr := os.Getwd()
	require.NoError(t, wdErr)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	code, stdout, stderr := runCLI(t, "--nogui", "--component", "bone", "--fmt", "step")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "model.step")
	_, err := os.Stat(filepath.Join(dir, "model.step"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "model.stl"))
	assert.True(t, os.IsNotExist(err))

	// A path from the config file follows the format too.
	cfg := filepath.Join(dir, "job.yaml")
	out := filepath.Join(dir, "parts", "bone.stl")
	require.NoError(t, os.WriteFile(cfg, []byte("component: bone\noutput: {path: "+out+"}\n"), 0o644))
	code, _, stderr = runCLI(t, "--nogui", "--config", cfg, "--fmt", "step")
	require.Equal(t, 0, code, stderr)
	rep, err := export.Inspect(filepath.Join(dir, "parts", "bone.step"))
	require.NoError(t, err)
	assert.InDelta(t, 120, rep.Bounds().Size().Y, 1e-4)

	// An explicit --out wins.
	code, _, stderr = runCLI(t, "--nogui", "--component", "bone", "--fmt", "step", "--out", "bone.stl")
	require.Equal(t, 0, code, stderr)
	_, err = os.Stat(filepath.Join(dir, "bone.stl"))
	assert.NoError(t, err)
}

func TestConfigFileAndOverride(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "job.yaml")
	out := filepath.Join(dir, "bone.stl")
	require.NoError(t, os.WriteFile(cfg, []byte("component: bone\nparams: {b: 80}\noutput: {path: "+out+"}\n"), 0o644))

	code, stdout, stderr := runCLI(t, "--nogui", "--config", cfg, "-b", "60")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "bone.stl")
	rep, err := export.Inspect(out)
	require.NoError(t, err)
	assert.InDelta(t, 60, rep.Bounds().Size().Y, 1e-4)
}

func TestInvalidParameters(t *testing.T) {
	cases := map[string][]string{
		"fractional n":  {"-n", "2.5"},
		"negative a":    {"--a=-5"},
		"bad component": {"--component", "lid"},
		"bad format":    {"--fmt", "obj"},
		"no bone":       {"--component", "bone", "-c", "0.2"},
		"missing file":  {"--config", "does-not-exist.yaml"},
		"watch alone":   {"--watch", "--nogui"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			out := filepath.Join(t.TempDir(), "model.stl")
			code, stdout, stderr := runCLI(t, append([]string{"--nogui", "--out", out}, args...)...)
			assert.NotEqual(t, 0, code)
			assert.True(t, strings.HasPrefix(stderr, "error:"), stderr)
			assert.Empty(t, stdout)
			_, err := os.Stat(out)
			assert.ErrorIs(t, err, os.ErrNotExist)
		})
	}
}

func TestParseErrors(t *testing.T) {
	code, _, stderr := runCLI(t, "--bogus")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "error:")

	code, stdout, _ := runCLI(t, "--help")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "--nogui")
}

func TestInspectMissing(t *testing.T) {
	code, _, stderr := runCLI(t, "--inspect", filepath.Join(t.TempDir(), "none.stl"))
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "error:")
}

func TestWatchStopsWithContext(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "job.yaml")
	out := filepath.Join(dir, "frame.stl")
	require.NoError(t, os.WriteFile(cfg, []byte("component: frame\noutput: {path: "+out+"}\n"), 0o644))

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	var stdout, stderr bytes.Buffer
	code := run(ctx, []string{"--watch", "--config", cfg}, &stdout, &stderr)
	assert.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "Exported to:")
	assert.Contains(t, stderr.String(), "Watching for changes")
}
