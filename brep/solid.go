package brep

import (
	"fmt"
	"math"

	"github.com/soypat/pcbmag/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Face is a planar polygonal face. The outer loop winds counter-clockwise
// seen from outside the solid, holes wind the opposite way.
type Face struct {
	Outer []r3.Vec
	Holes [][]r3.Vec
}

// AreaVector returns the Newell area vector of the face: its direction is
// the outward normal and its norm is twice the face area.
func (f Face) AreaVector() r3.Vec {
	n := d3.Newell(f.Outer)
	for _, h := range f.Holes {
		n = r3.Add(n, d3.Newell(h))
	}
	return n
}

// Normal returns the unit outward normal of the face.
func (f Face) Normal() r3.Vec {
	return r3.Unit(f.AreaVector())
}

// Area returns the area of the face.
func (f Face) Area() float64 {
	return r3.Norm(f.AreaVector()) / 2
}

// Loops returns the outer loop followed by the hole loops.
func (f Face) Loops() [][]r3.Vec {
	return append([][]r3.Vec{f.Outer}, f.Holes...)
}

func (f Face) clone() Face {
	c := Face{Outer: append([]r3.Vec(nil), f.Outer...)}
	for _, h := range f.Holes {
		c.Holes = append(c.Holes, append([]r3.Vec(nil), h...))
	}
	return c
}

func (f Face) mapVertices(fn func(r3.Vec) r3.Vec, reverse bool) Face {
	apply := func(loop []r3.Vec) []r3.Vec {
		out := make([]r3.Vec, len(loop))
		for i, v := range loop {
			if reverse {
				out[len(loop)-1-i] = fn(v)
			} else {
				out[i] = fn(v)
			}
		}
		return out
	}
	c := Face{Outer: apply(f.Outer)}
	for _, h := range f.Holes {
		c.Holes = append(c.Holes, apply(h))
	}
	return c
}

// Solid is an immutable closed polyhedral body bounded by planar faces.
type Solid struct {
	name  string
	faces []Face
}

// NewSolid copies faces into a new Solid and checks it is a closed,
// consistently oriented surface.
func NewSolid(name string, faces []Face) (Solid, error) {
	s := Solid{name: name, faces: make([]Face, len(faces))}
	for i, f := range faces {
		s.faces[i] = f.clone()
	}
	if err := s.Validate(); err != nil {
		return Solid{}, err
	}
	return s, nil
}

// Name returns the name of the solid.
func (s Solid) Name() string { return s.name }

// Renamed returns the same solid under a new name.
func (s Solid) Renamed(name string) Solid {
	s.name = name
	return s
}

// NumFaces returns the number of faces of the solid.
func (s Solid) NumFaces() int { return len(s.faces) }

// Faces returns a copy of the faces of the solid.
func (s Solid) Faces() []Face {
	faces := make([]Face, len(s.faces))
	for i, f := range s.faces {
		faces[i] = f.clone()
	}
	return faces
}

// NumVertices returns the number of distinct vertices of the solid.
func (s Solid) NumVertices() int {
	seen := make(map[r3.Vec]struct{})
	for _, f := range s.faces {
		for _, loop := range f.Loops() {
			for _, v := range loop {
				seen[v] = struct{}{}
			}
		}
	}
	return len(seen)
}

// Bounds returns the bounding box of the solid.
func (s Solid) Bounds() d3.Box {
	b := d3.EmptyBox()
	for _, f := range s.faces {
		for _, v := range f.Outer {
			b = b.Include(v)
		}
	}
	return b
}

// Volume returns the enclosed volume using the divergence theorem.
func (s Solid) Volume() float64 {
	var v float64
	for _, f := range s.faces {
		v += r3.Dot(f.Outer[0], f.AreaVector())
	}
	return v / 6
}

// Area returns the total surface area of the solid.
func (s Solid) Area() float64 {
	var a float64
	for _, f := range s.faces {
		a += f.Area()
	}
	return a
}

// Transform returns the solid with t applied to every vertex. Loops are
// reversed when t mirrors so faces keep pointing outwards.
func (s Solid) Transform(t d3.Transform) Solid {
	mirror := t.Det() < 0
	out := Solid{name: s.name, faces: make([]Face, len(s.faces))}
	for i, f := range s.faces {
		out.faces[i] = f.mapVertices(t.Transform, mirror)
	}
	return out
}

type edge struct{ a, b r3.Vec }

// Validate checks every face is planar with non-zero area and that the
// faces close up: each directed edge appears once and is matched by
// exactly one edge running the other way. It also checks the volume is
// positive, so faces point outwards.
func (s Solid) Validate() error {
	if len(s.faces) < 4 {
		return fmt.Errorf("%w: solid %q has %d faces", ErrTopology, s.name, len(s.faces))
	}
	edges := make(map[edge]int)
	scale := math.Max(1, d3.Max(s.Bounds().Size()))
	for i, f := range s.faces {
		if err := f.check(scale); err != nil {
			return fmt.Errorf("solid %q face %d: %w", s.name, i, err)
		}
		for _, loop := range f.Loops() {
			for j, a := range loop {
				edges[edge{a, loop[(j+1)%len(loop)]}]++
			}
		}
	}
	for e, count := range edges {
		if count != 1 {
			return fmt.Errorf("%w: solid %q edge %v->%v used %d times", ErrTopology, s.name, e.a, e.b, count)
		}
		if edges[edge{e.b, e.a}] != 1 {
			return fmt.Errorf("%w: solid %q edge %v->%v has no twin", ErrTopology, s.name, e.a, e.b)
		}
	}
	if v := s.Volume(); v <= 0 {
		return fmt.Errorf("%w: solid %q has volume %g", ErrTopology, s.name, v)
	}
	return nil
}

func (f Face) check(scale float64) error {
	for _, loop := range f.Loops() {
		if len(loop) < 3 {
			return fmt.Errorf("%w: loop with %d vertices", ErrDegenerate, len(loop))
		}
		for j, v := range loop {
			if !d3.IsFinite(v) {
				return fmt.Errorf("%w: non-finite vertex", ErrDegenerate)
			}
			if v == loop[(j+1)%len(loop)] {
				return fmt.Errorf("%w: repeated vertex %v", ErrDegenerate, v)
			}
		}
	}
	n := f.AreaVector()
	if r3.Norm(n) <= tol {
		return fmt.Errorf("%w: zero area face", ErrDegenerate)
	}
	n = r3.Unit(n)
	d := r3.Dot(n, f.Outer[0])
	for _, loop := range f.Loops() {
		for _, v := range loop {
			if off := math.Abs(r3.Dot(n, v) - d); off > 1e-9*scale {
				return fmt.Errorf("%w: vertex %v is %g off the face plane", ErrNonPlanar, v, off)
			}
		}
	}
	return nil
}

// rayDir is the direction used for containment queries. It is chosen so
// rays from grid aligned points do not graze axis aligned edges.
var rayDir = r3.Unit(r3.Vec{X: 0.5772156649, Y: 0.6180339887, Z: 0.7071067812})

// Contains reports whether p lies inside the solid. Points on the
// boundary may report either way.
func (s Solid) Contains(p r3.Vec) bool {
	if !s.Bounds().Contains(p) {
		return false
	}
	crossings := 0
	for _, f := range s.faces {
		n := f.AreaVector()
		denom := r3.Dot(n, rayDir)
		if denom == 0 {
			continue
		}
		t := r3.Dot(n, r3.Sub(f.Outer[0], p)) / denom
		if t <= 0 {
			continue
		}
		if f.containsCoplanar(r3.Add(p, r3.Scale(t, rayDir)), n) {
			crossings++
		}
	}
	return crossings%2 == 1
}

// containsCoplanar reports whether a point on the face plane lies in the face.
func (f Face) containsCoplanar(p, n r3.Vec) bool {
	pr := newProjector(n)
	if pr.set(f.Outer).Winding(pr.project(p)) == 0 {
		return false
	}
	for _, h := range f.Holes {
		if pr.set(h).Winding(pr.project(p)) != 0 {
			return false
		}
	}
	return true
}
