package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/soypat/pcbmag/export"
	"github.com/soypat/pcbmag/magazine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultResolves(t *testing.T) {
	job, err := Default().Resolve()
	require.NoError(t, err)
	assert.Equal(t, magazine.ModeAssembly, job.Mode)
	assert.Equal(t, magazine.DefaultParams(), job.Params)
	assert.Equal(t, magazine.DefaultConfig(), job.Config)
	assert.Equal(t, "model.stl", job.Path)
	assert.Equal(t, export.STL, job.Options.Format)
	assert.False(t, job.Options.ASCII)
	assert.Empty(t, job.Preview)
	assert.Empty(t, job.Drawing)
}

func TestParseOverlaysDefaults(t *testing.T) {
	f, err := Parse([]byte(`
component: frame
material: pla
params:
  a: 60
  n: 4
tunables:
  clearance: 0.3
output:
  format: step
  path: out/frame.step
`))
	require.NoError(t, err)
	job, err := f.Resolve()
	require.NoError(t, err)

	assert.Equal(t, magazine.ModeFrame, job.Mode)
	assert.Equal(t, "pla", job.Material)
	assert.Equal(t, magazine.Params{A: 60, B: 120, C: 1.6, D: 10, N: 4}, job.Params)
	want := magazine.DefaultConfig()
	want.Clearance = 0.3
	assert.Equal(t, want, job.Config)
	assert.Equal(t, export.STEP, job.Options.Format)
	assert.Equal(t, "out/frame.step", job.Path)
}

func TestParseEmpty(t *testing.T) {
	f, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), f)
}

func TestParseUnknownKey(t *testing.T) {
	_, err := Parse([]byte("params:\n  e: 3\n"))
	require.Error(t, err)
	_, err = Parse([]byte("colour: red\n"))
	require.Error(t, err)
}

func TestResolveErrors(t *testing.T) {
	cases := map[string]string{
		"fractional n":  "params: {n: 2.5}",
		"zero n":        "params: {n: 0}",
		"negative a":    "params: {a: -1}",
		"bad component": "component: lid",
		"bad tunable":   "tunables: {clearance: 0}",
		"empty path":    "output: {path: \"\"}",
		"bad material":  "material: wood",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			f, err := Parse([]byte(src))
			require.NoError(t, err)
			_, err = f.Resolve()
			assert.ErrorIs(t, err, magazine.ErrInvalidParameter)
		})
	}

	f, err := Parse([]byte("output: {format: obj}"))
	require.NoError(t, err)
	_, err = f.Resolve()
	assert.ErrorIs(t, err, export.ErrUnsupportedFormat)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "job.yaml")
	f := Default()
	f.Component = "bone"
	f.Params.C = 2
	data, err := f.Marshal()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, f, got)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
