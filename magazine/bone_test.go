package magazine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoneLayout(t *testing.T) {
	p, cfg := DefaultParams(), DefaultConfig()
	l, err := NewBoneLayout(p, cfg)
	require.NoError(t, err)
	assert.Equal(t, p.B, l.Length)
	assert.InDelta(t, p.C-cfg.Clearance, l.Waist, 1e-12)
	assert.InDelta(t, l.Waist+8, l.Tip, 1e-12)
	assert.InDelta(t, l.Waist+4, l.Body, 1e-12)
	assert.Equal(t, cfg.PlateThickness, l.Dovetail)
	assert.Len(t, l.Profile().Outer, 12)
}

func TestBoneSolid(t *testing.T) {
	p, cfg := DefaultParams(), DefaultConfig()
	s, err := Bone(p, cfg)
	require.NoError(t, err)
	require.NoError(t, s.Validate())
	assert.Equal(t, 14, s.NumFaces())

	l, err := NewBoneLayout(p, cfg)
	require.NoError(t, err)
	b := s.Bounds()
	assert.InDelta(t, p.B, b.Size().Y, 1e-12)
	assert.InDelta(t, l.Tip, b.Size().X, 1e-12)
	assert.InDelta(t, cfg.SocketDepth, b.Size().Z, 1e-12)

	area := 2*l.Dovetail*(l.Tip+l.Waist)/2 + l.Body*(l.Length-2*l.Dovetail)
	assert.InDelta(t, area, l.Profile().Area(), 1e-9)
	assert.InDelta(t, area*cfg.SocketDepth, s.Volume(), 1e-9)
}

func TestBoneErrors(t *testing.T) {
	p, cfg := DefaultParams(), DefaultConfig()
	cfg.Clearance = p.C
	_, err := Bone(p, cfg)
	assert.ErrorIs(t, err, ErrGeometry)

	p, cfg = DefaultParams(), DefaultConfig()
	p.B = 2 * cfg.PlateThickness
	_, err = Bone(p, cfg)
	assert.ErrorIs(t, err, ErrGeometry)

	p = DefaultParams()
	p.B = 0
	_, err = Bone(p, DefaultConfig())
	assert.ErrorIs(t, err, ErrInvalidParameter)
}
