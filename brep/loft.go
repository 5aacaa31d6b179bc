package brep

import (
	"fmt"
	"math"

	"github.com/soypat/pcbmag/internal/d2"
	"github.com/soypat/pcbmag/internal/d3"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Extrude sweeps the region r along Z from z0 to z1.
func Extrude(name string, r Region, z0, z1 float64) (Solid, error) {
	return Loft(name, r, r, z0, z1)
}

// Loft joins region bottom at height z0 with region top at height z1 by
// planar side faces. Rings correspond vertex for vertex and each pair of
// corresponding edges must be parallel so side faces stay planar.
func Loft(name string, bottom, top Region, z0, z1 float64) (Solid, error) {
	if !(z1 > z0) || math.IsInf(z1-z0, 0) {
		return Solid{}, fmt.Errorf("%w: loft %q from z=%g to z=%g", ErrDegenerate, name, z0, z1)
	}
	if len(bottom.Holes) != len(top.Holes) {
		return Solid{}, fmt.Errorf("%w: loft %q has %d bottom holes and %d top holes", ErrTopology, name, len(bottom.Holes), len(top.Holes))
	}
	type pair struct{ b, t []r2.Vec }
	pairs := []pair{{bottom.Outer, top.Outer}}
	for i := range bottom.Holes {
		pairs = append(pairs, pair{bottom.Holes[i], top.Holes[i]})
	}
	var faces []Face
	botFace := Face{}
	topFace := Face{}
	for k, p := range pairs {
		rings, err := cleanRings(p.b, p.t)
		if err != nil {
			return Solid{}, fmt.Errorf("loft %q ring %d: %w", name, k, err)
		}
		b, t := d2.Set(rings[0]), d2.Set(rings[1])
		if err := checkRing(b); err != nil {
			return Solid{}, fmt.Errorf("loft %q bottom ring %d: %w", name, k, err)
		}
		if err := checkRing(t); err != nil {
			return Solid{}, fmt.Errorf("loft %q top ring %d: %w", name, k, err)
		}
		if (b.SignedArea() > 0) != (t.SignedArea() > 0) {
			return Solid{}, fmt.Errorf("%w: loft %q ring %d winds opposite ways", ErrTopology, name, k)
		}
		if wantCCW := k == 0; (b.SignedArea() > 0) != wantCCW {
			b, t = b.Reversed(), t.Reversed()
		}
		bot3 := lift(b, z0)
		top3 := lift(t, z1)
		if k == 0 {
			botFace.Outer = reversed(dedup(bot3))
			topFace.Outer = dedup(top3)
		} else {
			botFace.Holes = append(botFace.Holes, reversed(dedup(bot3)))
			topFace.Holes = append(topFace.Holes, dedup(top3))
		}
		n := len(b)
		for i := 0; i < n; i++ {
			j := (i + 1) % n
			eb, et := r2.Sub(b[j], b[i]), r2.Sub(t[j], t[i])
			lb, lt := r2.Norm(eb), r2.Norm(et)
			if lb > tol && lt > tol {
				if math.Abs(r2.Cross(eb, et)) > tol*lb*lt {
					return Solid{}, fmt.Errorf("%w: loft %q ring %d edge %d is twisted", ErrNonPlanar, name, k, i)
				}
				if r2.Dot(eb, et) < 0 {
					return Solid{}, fmt.Errorf("%w: loft %q ring %d edge %d flips direction", ErrTopology, name, k, i)
				}
			}
			faces = append(faces, Face{Outer: dedup([]r3.Vec{bot3[i], bot3[j], top3[j], top3[i]})})
		}
	}
	faces = append([]Face{botFace, topFace}, faces...)
	s := Solid{name: name, faces: faces}
	if err := s.Validate(); err != nil {
		return Solid{}, err
	}
	return s, nil
}

func lift(ring []r2.Vec, z float64) []r3.Vec {
	out := make([]r3.Vec, len(ring))
	for i, v := range ring {
		out[i] = d3.FromR2(v, z)
	}
	return out
}

func reversed(loop []r3.Vec) []r3.Vec {
	out := make([]r3.Vec, len(loop))
	for i, v := range loop {
		out[len(loop)-1-i] = v
	}
	return out
}

// dedup drops vertices equal to their predecessor, including the wrap
// around from last to first.
func dedup(loop []r3.Vec) []r3.Vec {
	out := make([]r3.Vec, 0, len(loop))
	for _, v := range loop {
		if len(out) == 0 || out[len(out)-1] != v {
			out = append(out, v)
		}
	}
	for len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	return out
}
