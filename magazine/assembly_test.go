package magazine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestAssemble(t *testing.T) {
	for _, tt := range []struct {
		n    int
		size string
	}{
		{1, "109.0 × 45.6 × 120.0 mm"},
		{10, "109.0 × 150.0 × 120.0 mm"},
		{200, "109.0 × 2354.0 × 120.0 mm"},
	} {
		t.Run(fmt.Sprint(tt.n), func(t *testing.T) {
			p, cfg := DefaultParams(), DefaultConfig()
			p.N = tt.n
			testAssemble(t, p, cfg, tt.size)
		})
	}
}

func testAssemble(t *testing.T, p Params, cfg Config, size string) {
	t.Helper()
	a, err := Assemble(p, cfg)
	require.NoError(t, err)
	require.Equal(t, 6, a.Len())
	assert.Equal(t, []string{FrameLeft, FrameRight, Bone1, Bone2, Bone3, Bone4}, a.Names())

	l, err := NewFrameLayout(p, cfg)
	require.NoError(t, err)
	require.Len(t, l.Slots, p.N)
	const tol = 1e-9
	b := a.Bounds()
	assert.InDelta(t, 0, b.Min.Z, tol)
	assert.InDelta(t, p.B, b.Max.Z, tol)
	assert.InDelta(t, l.OuterX, b.Size().X, tol)
	assert.InDelta(t, l.OuterY, b.Size().Y, 1e-6)
	assert.Equal(t, size, a.SizeString())

	for _, s := range a.Placed() {
		assert.NoError(t, s.Validate(), s.Name())
	}

	left, ok := a.Instance(FrameLeft)
	require.True(t, ok)
	lb := left.Placed().Bounds()
	assert.InDelta(t, 0, lb.Min.Z, tol)
	assert.InDelta(t, cfg.PlateThickness, lb.Max.Z, tol)

	right, ok := a.Instance(FrameRight)
	require.True(t, ok)
	rb := right.Placed().Bounds()
	assert.InDelta(t, p.B-cfg.PlateThickness, rb.Min.Z, tol)
	assert.InDelta(t, p.B, rb.Max.Z, tol)
	assert.InDelta(t, left.Solid.Volume(), right.Placed().Volume(), 1e-6)

	for _, name := range []string{Bone1, Bone2, Bone3, Bone4} {
		in, ok := a.Instance(name)
		require.True(t, ok)
		bb := in.Placed().Bounds()
		assert.InDelta(t, 0, bb.Min.Z, tol, name)
		assert.InDelta(t, p.B, bb.Max.Z, tol, name)
		// Seated in the sockets of both frames.
		cx := (bb.Min.X + bb.Max.X) / 2
		assert.InDelta(t, l.SocketX, abs(cx), tol, name)
		assert.Less(t, bb.Size().X, l.SocketBottom, name)
		assert.InDelta(t, cfg.SocketDepth, bb.Size().Y, tol, name)
		assert.True(t, bb.Min.Y >= -l.OuterY/2-tol && bb.Max.Y <= l.OuterY/2+tol, name)
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func TestAssembleDovetailsClearSockets(t *testing.T) {
	p, cfg := DefaultParams(), DefaultConfig()
	a, err := Assemble(p, cfg)
	require.NoError(t, err)
	bl, err := NewBoneLayout(p, cfg)
	require.NoError(t, err)
	fl, err := NewFrameLayout(p, cfg)
	require.NoError(t, err)
	left, _ := a.Instance(FrameLeft)
	right, _ := a.Instance(FrameRight)
	bone, _ := a.Instance(Bone1)
	frameL, frameR, b1 := left.Placed(), right.Placed(), bone.Placed()

	y := fl.OuterY/2 - cfg.SocketDepth/2
	// halfWidth is the half width of the dovetail at height z above its tip.
	halfWidth := func(z float64) float64 {
		return bl.Tip/2 - (bl.Tip-bl.Waist)/2*z/bl.Dovetail
	}
	for _, z := range []float64{0.1, cfg.PlateThickness / 2, cfg.PlateThickness - 0.1} {
		for _, pt := range []r3.Vec{
			{X: fl.SocketX + halfWidth(z) - 0.02, Y: y, Z: z},
			{X: fl.SocketX - halfWidth(z) + 0.02, Y: y, Z: p.B - z},
		} {
			assert.True(t, b1.Contains(pt), "bone at %v", pt)
			assert.False(t, frameL.Contains(pt), "bottom frame at %v", pt)
			assert.False(t, frameR.Contains(pt), "top frame at %v", pt)
		}
	}
	const e = 0.05
	// Just outside the socket the frames are solid.
	outside := r3.Vec{X: fl.SocketX + fl.SocketBottom/2 + e, Y: y, Z: 2 * e}
	assert.True(t, frameL.Contains(outside))
	outside.Z = p.B - 2*e
	assert.True(t, frameR.Contains(outside))
}

func TestBuild(t *testing.T) {
	p, cfg := DefaultParams(), DefaultConfig()
	for _, tt := range []struct {
		mode  Mode
		count int
		name  string
	}{
		{ModeFrame, 1, "frame"},
		{ModeBone, 1, "bone"},
		{ModeAssembly, 6, FrameLeft},
	} {
		solids, err := Build(tt.mode, p, cfg)
		require.NoError(t, err, tt.mode.String())
		require.Len(t, solids, tt.count)
		assert.Equal(t, tt.name, solids[0].Name())
	}
	p.C = -1
	_, err := Build(ModeAssembly, p, cfg)
	assert.ErrorIs(t, err, ErrInvalidParameter)

	_, err = Build(Mode(9), DefaultParams(), cfg)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}
