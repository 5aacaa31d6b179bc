// Package matter compensates part dimensions for how printed material
// behaves as it cools.
package matter

import (
	"fmt"
	"strings"

	"github.com/soypat/pcbmag/brep"
	"github.com/soypat/pcbmag/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// PLA (polylactic acid) is the most widely used plastic filament material in 3D printing.
	PLA = ViscousMaterial{name: "pla", shrink: 0.2e-2, pullShrink: .45} // 0.2% shrinkage
)

var materials = []ViscousMaterial{PLA}

type ViscousMaterial struct {
	name string
	// shrink is the thermal contraction shrinkage of a material once the material
	// cools to room temperature after the heated bed is turned off.
	shrink float64
	// pullShrink takes into account viscoelastic shrinkage of internal
	// dimensions such as slots and holes, in millimetres.
	pullShrink float64
}

// Lookup returns the material with the given name, ignoring case.
func Lookup(name string) (ViscousMaterial, error) {
	for _, m := range materials {
		if strings.EqualFold(m.name, name) {
			return m, nil
		}
	}
	return ViscousMaterial{}, fmt.Errorf("unknown material %q", name)
}

func (m ViscousMaterial) Name() string { return m.name }

// Scale enlarges s about the origin so it cools down to its modelled size.
func (m ViscousMaterial) Scale(s brep.Solid) brep.Solid {
	k := 1 / (1 - m.shrink)
	return s.Transform(d3.Scaling(r3.Vec{X: k, Y: k, Z: k}))
}

// InternalDimScale returns the size to model an internal dimension at so it
// prints at real.
func (m ViscousMaterial) InternalDimScale(real float64) (float64, error) {
	if real <= 0 {
		return 0, fmt.Errorf("internal dimension %g must be positive", real)
	}
	return real*(m.shrink+1) + m.pullShrink, nil
}
