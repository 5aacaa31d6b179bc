package brep

import (
	"fmt"
	"math"

	"github.com/soypat/pcbmag/internal/d2"
	"gonum.org/v1/gonum/spatial/r2"
)

// tol is the length below which two vertices are the same vertex and a
// vertex is considered to lie on a line. Units are millimetres.
const tol = 1e-9

// Region is a planar polygon with holes. Rings are closed implicitly.
type Region struct {
	Outer []r2.Vec
	Holes [][]r2.Vec
}

// Normalize returns a copy of the region with the outer ring wound
// counter-clockwise and every hole wound clockwise. Duplicate and collinear
// vertices are removed.
func (r Region) Normalize() (Region, error) {
	outer, err := normalizeRing(r.Outer, true)
	if err != nil {
		return Region{}, fmt.Errorf("outer ring: %w", err)
	}
	nr := Region{Outer: outer}
	for i, h := range r.Holes {
		hole, err := normalizeRing(h, false)
		if err != nil {
			return Region{}, fmt.Errorf("hole %d: %w", i, err)
		}
		nr.Holes = append(nr.Holes, hole)
	}
	return nr, nil
}

// Area returns the area enclosed by the outer ring less the area of the holes.
func (r Region) Area() float64 {
	a := math.Abs(d2.Set(r.Outer).SignedArea())
	for _, h := range r.Holes {
		a -= math.Abs(d2.Set(h).SignedArea())
	}
	return a
}

// Bounds returns the bounding box of the outer ring.
func (r Region) Bounds() d2.Box {
	return d2.Set(r.Outer).Bounds()
}

// Contains reports whether p lies inside the outer ring and outside of
// every hole.
func (r Region) Contains(p r2.Vec) bool {
	if !r.Bounds().Contains(p) || d2.Set(r.Outer).Winding(p) == 0 {
		return false
	}
	for _, h := range r.Holes {
		if d2.Set(h).Winding(p) != 0 {
			return false
		}
	}
	return true
}

func normalizeRing(ring []r2.Vec, ccw bool) ([]r2.Vec, error) {
	clean, err := cleanRings(ring)
	if err != nil {
		return nil, err
	}
	if err := checkRing(clean[0]); err != nil {
		return nil, err
	}
	out := d2.Set(clean[0])
	if (out.SignedArea() > 0) != ccw {
		out = out.Reversed()
	}
	return out, nil
}

func checkRing(ring []r2.Vec) error {
	if len(ring) < 3 {
		return fmt.Errorf("%w: ring has %d vertices", ErrDegenerate, len(ring))
	}
	for _, v := range ring {
		if math.IsNaN(v.X+v.Y) || math.IsInf(v.X+v.Y, 0) {
			return fmt.Errorf("%w: non-finite vertex %v", ErrDegenerate, v)
		}
	}
	if math.Abs(d2.Set(ring).SignedArea()) <= tol {
		return fmt.Errorf("%w: ring has zero area", ErrDegenerate)
	}
	return nil
}

// cleanRings removes the vertex at an index when it is redundant in every
// ring: a repeat of its predecessor or a point on the straight segment
// joining its neighbours. Rings must have equal length; removing vertices
// jointly keeps them in correspondence.
func cleanRings(rings ...[]r2.Vec) ([][]r2.Vec, error) {
	n := len(rings[0])
	out := make([][]r2.Vec, len(rings))
	for k, r := range rings {
		if len(r) != n {
			return nil, fmt.Errorf("%w: ring %d has %d vertices, want %d", ErrTopology, k, len(r), n)
		}
		out[k] = append([]r2.Vec(nil), r...)
	}
	for changed := true; changed && len(out[0]) > 3; {
		changed = false
		for i := 0; i < len(out[0]) && len(out[0]) > 3; i++ {
			if !redundantInAll(out, i) {
				continue
			}
			for k := range out {
				out[k] = append(out[k][:i], out[k][i+1:]...)
			}
			changed = true
			i--
		}
	}
	return out, nil
}

func redundantInAll(rings [][]r2.Vec, i int) bool {
	for _, r := range rings {
		n := len(r)
		prev, cur, next := r[(i+n-1)%n], r[i], r[(i+1)%n]
		if !d2.EqualWithin(prev, cur, tol) && !straight(prev, cur, next) {
			return false
		}
	}
	return true
}

// straight reports whether b lies on the segment from a to c.
func straight(a, b, c r2.Vec) bool {
	ac := r2.Sub(c, a)
	l := r2.Norm(ac)
	if l <= tol {
		return false
	}
	if math.Abs(d2.Orient(a, b, c))/l > tol {
		return false
	}
	return r2.Dot(r2.Sub(b, a), ac) >= 0 && r2.Dot(r2.Sub(c, b), ac) >= 0
}
