package job

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/soypat/pcbmag/export"
	"github.com/soypat/pcbmag/helpers/matter"
	"github.com/soypat/pcbmag/internal/config"
	"github.com/soypat/pcbmag/magazine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunAssembly(t *testing.T) {
	dir := t.TempDir()
	j, err := config.Default().Resolve()
	require.NoError(t, err)
	j.Path = filepath.Join(dir, "out", "model.stl")
	j.Preview = filepath.Join(dir, "preview.png")
	j.Drawing = filepath.Join(dir, "profiles.svg")

	res, err := Run(j)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(res.Path))
	assert.Equal(t, 6, res.Solids)
	assert.Equal(t, "109.0 × 150.0 × 120.0 mm", res.Size())
	for _, p := range []string{res.Path, res.Preview, res.Drawing} {
		fi, err := os.Stat(p)
		require.NoError(t, err, p)
		assert.NotZero(t, fi.Size(), p)
	}

	rep, err := export.Inspect(res.Path)
	require.NoError(t, err)
	assert.True(t, rep.Bounds().Equals(res.Bounds, 1e-3))
}

func TestRunBoneStep(t *testing.T) {
	j, err := config.Default().Resolve()
	require.NoError(t, err)
	j.Mode = magazine.ModeBone
	j.Path = filepath.Join(t.TempDir(), "bone.step")
	j.Options.Format = export.STEP

	res, err := Run(j)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Solids)
	assert.Empty(t, res.Preview)
	assert.InDelta(t, j.Params.B, res.Bounds.Size().Y, 1e-9)

	rep, err := export.Inspect(res.Path)
	require.NoError(t, err)
	require.Len(t, rep.Bodies, 1)
	assert.Equal(t, "bone", rep.Bodies[0].Name)
}

func TestRunGeometryError(t *testing.T) {
	j, err := config.Default().Resolve()
	require.NoError(t, err)
	j.Mode = magazine.ModeBone
	j.Params.C = 0.2 // Clearance leaves no bone.
	j.Path = filepath.Join(t.TempDir(), "bone.stl")

	_, err = Run(j)
	assert.ErrorIs(t, err, magazine.ErrGeometry)
	_, statErr := os.Stat(j.Path)
	assert.ErrorIs(t, statErr, os.ErrNotExist)
}

func TestBounds(t *testing.T) {
	p, cfg := magazine.DefaultParams(), magazine.DefaultConfig()
	box, err := Bounds(magazine.ModeAssembly, p, cfg)
	require.NoError(t, err)
	assert.Equal(t, "109.0 × 150.0 × 120.0 mm", magazine.FormatSize(box))

	p.N = 0
	_, err = Bounds(magazine.ModeFrame, p, cfg)
	assert.ErrorIs(t, err, magazine.ErrInvalidParameter)
}

func TestBuildMaterial(t *testing.T) {
	j, err := config.Default().Resolve()
	require.NoError(t, err)
	j.Mode = magazine.ModeBone
	nominal, err := Build(j)
	require.NoError(t, err)

	j.Material = "pla"
	printed, err := Build(j)
	require.NoError(t, err)
	require.Len(t, printed, 1)
	require.NoError(t, printed[0].Validate())
	k := 1 / (1 - 0.002)
	assert.InDelta(t, nominal[0].Bounds().Size().Y*k, printed[0].Bounds().Size().Y, 1e-9)
	// The bone is an external dimension: only the shrink scale applies.
	assert.InDelta(t, nominal[0].Bounds().Size().X*k, printed[0].Bounds().Size().X, 1e-9)

	// The frame's slots and sockets are widened to print at c.
	j.Mode = magazine.ModeFrame
	j.Material = ""
	nominal, err = Build(j)
	require.NoError(t, err)
	j.Material = "pla"
	printed, err = Build(j)
	require.NoError(t, err)
	cut, err := matter.PLA.InternalDimScale(j.Params.C)
	require.NoError(t, err)
	wantY := (nominal[0].Bounds().Size().Y + float64(j.Params.N)*(cut-j.Params.C)) * k
	assert.InDelta(t, wantY, printed[0].Bounds().Size().Y, 1e-9)
	assert.InDelta(t, nominal[0].Bounds().Size().X*k, printed[0].Bounds().Size().X, 1e-9)

	j.Material = "wood"
	_, err = Build(j)
	assert.ErrorIs(t, err, magazine.ErrInvalidParameter)
}
