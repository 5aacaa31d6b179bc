package brep

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"
)

// PolygonBuilder stores a set of 2d polygon vertices.
type PolygonBuilder struct {
	closed bool            // is the polygon closed or open?
	vlist  []polygonVertex // list of polygon vertices
}

// polygonVertex is a polygon vertex.
type polygonVertex struct {
	relative bool    // vertex position is relative to previous vertex
	vertex   r2.Vec  // vertex coordinates
	chamfer  float64 // distance cut along both adjacent edges (0 == none)
}

// Vertex is a handle to the last vertex added to a PolygonBuilder. It is
// valid until the next call to Add.
type Vertex struct {
	v *polygonVertex
}

// Rel positions the polygon vertex relative to the prior vertex.
func (v Vertex) Rel() Vertex {
	v.v.relative = true
	return v
}

// Chamfer marks the polygon vertex for chamfering. The corner is replaced
// by two vertices placed size away from it along each adjacent edge.
func (v Vertex) Chamfer(size float64) Vertex {
	v.v.chamfer = size
	return v
}

// NewPolygon returns an empty polygon.
func NewPolygon() *PolygonBuilder {
	return &PolygonBuilder{}
}

// Close closes the polygon: the last vertex connects back to the first.
// Only closed polygons may chamfer their first and last vertices.
func (p *PolygonBuilder) Close() {
	p.closed = true
}

// Add an x,y vertex to a polygon.
func (p *PolygonBuilder) Add(x, y float64) Vertex {
	return p.AddV2(r2.Vec{X: x, Y: y})
}

// AddV2 adds a V2 vertex to a polygon.
func (p *PolygonBuilder) AddV2(x r2.Vec) Vertex {
	p.vlist = append(p.vlist, polygonVertex{vertex: x})
	return Vertex{v: &p.vlist[len(p.vlist)-1]}
}

// Vertices returns the vertices of the polygon with relative positions
// resolved and chamfers applied.
func (p *PolygonBuilder) Vertices() ([]r2.Vec, error) {
	if len(p.vlist) < 3 {
		return nil, fmt.Errorf("%w: polygon has %d vertices", ErrDegenerate, len(p.vlist))
	}
	abs, err := p.absolute()
	if err != nil {
		return nil, err
	}
	return p.chamfered(abs)
}

// absolute converts relative vertices to absolute vertices.
func (p *PolygonBuilder) absolute() ([]r2.Vec, error) {
	abs := make([]r2.Vec, len(p.vlist))
	for i, v := range p.vlist {
		if !v.relative {
			abs[i] = v.vertex
			continue
		}
		if i == 0 {
			return nil, errors.New("relative vertex needs an absolute reference")
		}
		abs[i] = r2.Add(abs[i-1], v.vertex)
	}
	return abs, nil
}

func (p *PolygonBuilder) chamfered(abs []r2.Vec) ([]r2.Vec, error) {
	n := len(abs)
	out := make([]r2.Vec, 0, n+4)
	for i, pv := range p.vlist {
		if pv.chamfer == 0 {
			out = append(out, abs[i])
			continue
		}
		if !p.closed && (i == 0 || i == n-1) {
			return nil, fmt.Errorf("cannot chamfer end vertex %d of open polygon", i)
		}
		if pv.chamfer < 0 {
			return nil, fmt.Errorf("negative chamfer %g at vertex %d", pv.chamfer, i)
		}
		v := abs[i]
		prev := abs[(i+n-1)%n]
		next := abs[(i+1)%n]
		inLen := r2.Norm(r2.Sub(prev, v))
		outLen := r2.Norm(r2.Sub(next, v))
		prevCut := p.vlist[(i+n-1)%n].chamfer
		nextCut := p.vlist[(i+1)%n].chamfer
		if pv.chamfer+prevCut >= inLen || pv.chamfer+nextCut >= outLen {
			return nil, fmt.Errorf("%w: chamfer %g at vertex %d does not fit its edges", ErrDegenerate, pv.chamfer, i)
		}
		out = append(out,
			r2.Add(v, r2.Scale(pv.chamfer/inLen, r2.Sub(prev, v))),
			r2.Add(v, r2.Scale(pv.chamfer/outLen, r2.Sub(next, v))),
		)
	}
	return out, nil
}
