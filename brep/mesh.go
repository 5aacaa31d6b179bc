package brep

import (
	"github.com/soypat/pcbmag/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Triangle is a 3D triangle wound counter-clockwise about its normal.
type Triangle [3]r3.Vec

// Normal returns the unit normal of the triangle.
func (t Triangle) Normal() r3.Vec {
	n := r3.Cross(r3.Sub(t[1], t[0]), r3.Sub(t[2], t[0]))
	if n == (r3.Vec{}) {
		return n
	}
	return r3.Unit(n)
}

// Area returns the area of the triangle.
func (t Triangle) Area() float64 {
	return r3.Norm(r3.Cross(r3.Sub(t[1], t[0]), r3.Sub(t[2], t[0]))) / 2
}

// Mesh is a triangle soup.
type Mesh []Triangle

// Bounds returns the bounding box of the mesh.
func (m Mesh) Bounds() d3.Box {
	b := d3.EmptyBox()
	for _, t := range m {
		for _, v := range t {
			b = b.Include(v)
		}
	}
	return b
}

// Volume returns the signed volume enclosed by the mesh. It is positive for
// closed meshes with outward facing triangles.
func (m Mesh) Volume() float64 {
	var v float64
	for _, t := range m {
		v += r3.Dot(t[0], r3.Cross(t[1], t[2]))
	}
	return v / 6
}

// Area returns the total area of the mesh triangles.
func (m Mesh) Area() float64 {
	var a float64
	for _, t := range m {
		a += t.Area()
	}
	return a
}
