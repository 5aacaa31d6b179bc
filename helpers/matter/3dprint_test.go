package matter

import (
	"testing"

	"github.com/soypat/pcbmag/brep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestLookup(t *testing.T) {
	m, err := Lookup("PLA")
	require.NoError(t, err)
	assert.Equal(t, PLA, m)
	assert.Equal(t, "pla", m.Name())
	_, err = Lookup("wood")
	assert.Error(t, err)
}

func TestInternalDimScale(t *testing.T) {
	got, err := PLA.InternalDimScale(1.6)
	require.NoError(t, err)
	assert.InDelta(t, 1.6*1.002+0.45, got, 1e-12)
	_, err = PLA.InternalDimScale(0)
	assert.Error(t, err)
}

func TestScale(t *testing.T) {
	sq := brep.Region{Outer: []r2.Vec{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}}
	s, err := brep.Extrude("cube", sq, 0, 10)
	require.NoError(t, err)
	scaled := PLA.Scale(s)
	require.NoError(t, scaled.Validate())
	k := 1 / (1 - 0.002)
	assert.InDelta(t, 1000*k*k*k, scaled.Volume(), 1e-9)
	assert.InDelta(t, 10*k, scaled.Bounds().Size().X, 1e-12)
}
