package preview

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fogleman/fauxgl"
	"github.com/soypat/pcbmag/magazine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPNG(t *testing.T) {
	a, err := magazine.Assemble(magazine.DefaultParams(), magazine.DefaultConfig())
	require.NoError(t, err)
	solids := a.Placed()
	mesh, err := solids[0].Triangulate()
	require.NoError(t, err)
	for _, s := range solids[1:] {
		m, err := s.Triangulate()
		require.NoError(t, err)
		mesh = append(mesh, m...)
	}

	v := DefaultView()
	v.Width, v.Height = 160, 90
	var buf bytes.Buffer
	require.NoError(t, RenderPNG(&buf, mesh, v))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 160, img.Bounds().Dx())
	assert.Equal(t, 90, img.Bounds().Dy())

	bg := fauxgl.HexColor(v.Background).NRGBA()
	br, bgc, bb, _ := bg.RGBA()
	drawn := 0
	for y := 0; y < 90; y++ {
		for x := 0; x < 160; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			if r != br || g != bgc || b != bb {
				drawn++
			}
		}
	}
	assert.Greater(t, drawn, 160*90/20, "model covers part of the view")

	path := filepath.Join(t.TempDir(), "fig", "preview.png")
	require.NoError(t, WritePNGFile(path, mesh, v))
	fp, err := os.Open(path)
	require.NoError(t, err)
	defer fp.Close()
	_, err = png.Decode(fp)
	assert.NoError(t, err)

	_, err = Render(nil, v)
	assert.Error(t, err)
	v.Width = 0
	_, err = Render(mesh, v)
	assert.Error(t, err)
}

func TestDrawProfiles(t *testing.T) {
	profiles, err := MagazineProfiles(magazine.DefaultParams(), magazine.DefaultConfig())
	require.NoError(t, err)
	require.Len(t, profiles, 3)
	assert.Greater(t, profiles[2].Offset.X, 0.0)

	var buf bytes.Buffer
	require.NoError(t, DrawProfiles(&buf, "svg", profiles...))
	assert.True(t, strings.Contains(buf.String(), "<svg"))

	buf.Reset()
	require.NoError(t, DrawProfiles(&buf, "png", profiles...))
	_, err = png.Decode(&buf)
	assert.NoError(t, err)

	path := filepath.Join(t.TempDir(), "profiles.svg")
	require.NoError(t, WriteDrawingFile(path, profiles...))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.NotZero(t, info.Size())

	assert.Error(t, DrawProfiles(&buf, "svg"))
	assert.Error(t, WriteDrawingFile(filepath.Join(t.TempDir(), "noext"), profiles...))

	p := magazine.DefaultParams()
	p.C = 0
	_, err = MagazineProfiles(p, magazine.DefaultConfig())
	assert.ErrorIs(t, err, magazine.ErrInvalidParameter)
}
