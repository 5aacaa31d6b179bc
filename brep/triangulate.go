package brep

import (
	"fmt"
	"math"
	"sort"

	"github.com/soypat/pcbmag/internal/d2"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// projector maps points of a plane with normal n onto the coordinate plane
// most parallel to it, keeping counter-clockwise loops about n
// counter-clockwise in 2D.
type projector struct {
	axis int
	flip bool
}

func newProjector(n r3.Vec) projector {
	a := r3.Vec{X: math.Abs(n.X), Y: math.Abs(n.Y), Z: math.Abs(n.Z)}
	switch {
	case a.X >= a.Y && a.X >= a.Z:
		return projector{axis: 0, flip: n.X < 0}
	case a.Y >= a.Z:
		return projector{axis: 1, flip: n.Y < 0}
	default:
		return projector{axis: 2, flip: n.Z < 0}
	}
}

func (pr projector) project(v r3.Vec) r2.Vec {
	var p r2.Vec
	switch pr.axis {
	case 0:
		p = r2.Vec{X: v.Y, Y: v.Z}
	case 1:
		p = r2.Vec{X: v.Z, Y: v.X}
	default:
		p = r2.Vec{X: v.X, Y: v.Y}
	}
	if pr.flip {
		p.X = -p.X
	}
	return p
}

func (pr projector) set(loop []r3.Vec) d2.Set {
	s := make(d2.Set, len(loop))
	for i, v := range loop {
		s[i] = pr.project(v)
	}
	return s
}

// Triangulate tessellates every face of the solid. Triangles wind
// counter-clockwise about the outward face normal and reuse the exact face
// vertices.
func (s Solid) Triangulate() (Mesh, error) {
	var m Mesh
	for i, f := range s.faces {
		tris, err := f.Triangulate()
		if err != nil {
			return nil, fmt.Errorf("solid %q face %d: %w", s.name, i, err)
		}
		m = append(m, tris...)
	}
	return m, nil
}

// earNode is a vertex in the doubly linked ring being clipped.
type earNode struct {
	p          r2.Vec
	v          r3.Vec
	prev, next int
}

type earRing struct {
	nodes []earNode
	eps   float64
}

// addLoop links loop into a new ring and returns the index of its first node.
func (er *earRing) addLoop(pr projector, loop []r3.Vec, ccw bool) int {
	pts := pr.set(loop)
	start := len(er.nodes)
	n := len(loop)
	for i := range loop {
		j := i
		if (pts.SignedArea() > 0) != ccw {
			j = n - 1 - i
		}
		er.nodes = append(er.nodes, earNode{
			p:    pts[j],
			v:    loop[j],
			prev: start + (i+n-1)%n,
			next: start + (i+1)%n,
		})
	}
	return start
}

// Triangulate ear clips the face. Holes are first bridged into the outer
// loop following D. Eberly, "Triangulation by Ear Clipping".
func (f Face) Triangulate() ([]Triangle, error) {
	pr := newProjector(f.AreaVector())
	er := &earRing{}
	start := er.addLoop(pr, f.Outer, true)
	type hole struct {
		right int
		maxX  float64
	}
	holes := make([]hole, 0, len(f.Holes))
	for _, h := range f.Holes {
		hs := er.addLoop(pr, h, false)
		best := hs
		for i := hs; i < len(er.nodes); i++ {
			if er.nodes[i].p.X > er.nodes[best].p.X {
				best = i
			}
		}
		holes = append(holes, hole{right: best, maxX: er.nodes[best].p.X})
	}
	bb := d2.EmptyBox()
	for _, nd := range er.nodes {
		bb = bb.Include(nd.p)
	}
	diag := r2.Norm(bb.Size())
	er.eps = 1e-14 * diag * diag
	sort.SliceStable(holes, func(i, j int) bool { return holes[i].maxX > holes[j].maxX })
	for _, h := range holes {
		p, err := er.bridgeTarget(start, h.right)
		if err != nil {
			return nil, err
		}
		er.split(p, h.right)
	}
	return er.clip(start)
}

// bridgeTarget finds a vertex of the outer ring mutually visible with the
// hole vertex m, which must have the largest X of its hole.
func (er *earRing) bridgeTarget(start, m int) (int, error) {
	mp := er.nodes[m].p
	bestX := math.Inf(1)
	hitA, hitB := -1, -1
	i := start
	for {
		a, b := er.nodes[i], er.nodes[er.nodes[i].next]
		if (a.p.Y <= mp.Y && mp.Y <= b.p.Y) || (b.p.Y <= mp.Y && mp.Y <= a.p.Y) {
			var x float64
			if a.p.Y == b.p.Y {
				x = math.Min(a.p.X, b.p.X)
			} else {
				x = a.p.X + (mp.Y-a.p.Y)*(b.p.X-a.p.X)/(b.p.Y-a.p.Y)
			}
			if x >= mp.X && x < bestX {
				bestX, hitA, hitB = x, i, er.nodes[i].next
			}
		}
		i = er.nodes[i].next
		if i == start {
			break
		}
	}
	if hitA < 0 {
		return -1, fmt.Errorf("%w: hole is not inside the outer loop", ErrTriangulation)
	}
	hit := r2.Vec{X: bestX, Y: mp.Y}
	switch {
	case er.nodes[hitA].p == hit:
		return er.pickVisible(hitA, m), nil
	case er.nodes[hitB].p == hit:
		return er.pickVisible(hitB, m), nil
	}
	cand := hitA
	if er.nodes[hitB].p.X > er.nodes[hitA].p.X {
		cand = hitB
	}
	// A vertex inside triangle (m, hit, cand) may block the view of cand.
	// The one making the smallest angle with the ray is visible.
	cp := er.nodes[cand].p
	bestTan := math.Inf(1)
	bestDist := math.Inf(1)
	i = start
	for {
		q := er.nodes[i].p
		inside := pointInTriangle(mp, hit, cp, q, er.eps) || pointInTriangle(mp, cp, hit, q, er.eps)
		if i != cand && q.X > mp.X && q != cp && inside && er.inCone(i, mp) {
			tan := math.Abs(q.Y-mp.Y) / (q.X - mp.X)
			dist := r2.Norm(r2.Sub(q, mp))
			if tan < bestTan || (tan == bestTan && dist < bestDist) {
				cand, bestTan, bestDist = i, tan, dist
			}
		}
		i = er.nodes[i].next
		if i == start {
			break
		}
	}
	return er.pickVisible(cand, m), nil
}

// pickVisible returns, among the nodes sharing the position of node i, one
// whose interior angle contains the direction to m. Earlier bridges
// duplicate vertices.
func (er *earRing) pickVisible(i, m int) int {
	target := er.nodes[m].p
	if er.inCone(i, target) {
		return i
	}
	for j := er.nodes[i].next; j != i; j = er.nodes[j].next {
		if er.nodes[j].p == er.nodes[i].p && er.inCone(j, target) {
			return j
		}
	}
	return i
}

// inCone reports whether the diagonal from node i towards q starts inside
// the polygon. See J. O'Rourke, "Computational Geometry in C", InCone.
func (er *earRing) inCone(i int, q r2.Vec) bool {
	a := er.nodes[i].p
	a0 := er.nodes[er.nodes[i].prev].p
	a1 := er.nodes[er.nodes[i].next].p
	if d2.Orient(a, a1, a0) >= 0 {
		return d2.Orient(a, q, a0) > 0 && d2.Orient(q, a, a1) > 0
	}
	return !(d2.Orient(a, q, a1) >= 0 && d2.Orient(q, a, a0) >= 0)
}

// split joins the ring containing a with the ring containing b through a
// pair of coincident bridge edges a->b and b'->a'.
func (er *earRing) split(a, b int) {
	a2 := len(er.nodes)
	b2 := a2 + 1
	an, bp := er.nodes[a].next, er.nodes[b].prev
	er.nodes = append(er.nodes, er.nodes[a], er.nodes[b])
	er.nodes[a].next = b
	er.nodes[b].prev = a
	er.nodes[a2].next = an
	er.nodes[an].prev = a2
	er.nodes[b2].next = a2
	er.nodes[a2].prev = b2
	er.nodes[bp].next = b2
	er.nodes[b2].prev = bp
}

func (er *earRing) remove(i int) {
	p, n := er.nodes[i].prev, er.nodes[i].next
	er.nodes[p].next = n
	er.nodes[n].prev = p
}

func (er *earRing) orient(i int) float64 {
	nd := er.nodes[i]
	return d2.Orient(er.nodes[nd.prev].p, nd.p, er.nodes[nd.next].p)
}

func (er *earRing) isEar(i int) bool {
	if er.orient(i) <= er.eps {
		return false
	}
	pa := er.nodes[er.nodes[i].prev].p
	pb := er.nodes[i].p
	pc := er.nodes[er.nodes[i].next].p
	stop := er.nodes[i].prev
	for j := er.nodes[er.nodes[i].next].next; j != stop; j = er.nodes[j].next {
		q := er.nodes[j].p
		if q == pa || q == pb || q == pc {
			continue
		}
		if pointInTriangle(pa, pb, pc, q, er.eps) {
			return false
		}
	}
	return true
}

func (er *earRing) clip(start int) ([]Triangle, error) {
	count := 1
	for j := er.nodes[start].next; j != start; j = er.nodes[j].next {
		count++
	}
	tris := make([]Triangle, 0, count-2)
	emit := func(i int) {
		nd := er.nodes[i]
		tris = append(tris, Triangle{er.nodes[nd.prev].v, nd.v, er.nodes[nd.next].v})
	}
	ear, stop := start, start
	for count > 3 {
		next := er.nodes[ear].next
		if er.isEar(ear) {
			emit(ear)
			er.remove(ear)
			count--
			ear, stop = next, next
			continue
		}
		ear = next
		if ear != stop {
			continue
		}
		// A full turn found no ear. Drop a zero area corner if there is one.
		dropped := false
		for j, k := ear, 0; k < count; j, k = er.nodes[j].next, k+1 {
			if math.Abs(er.orient(j)) <= er.eps {
				next := er.nodes[j].next
				er.remove(j)
				count--
				ear, stop = next, next
				dropped = true
				break
			}
		}
		if !dropped {
			return nil, fmt.Errorf("%w: no ear among %d remaining vertices", ErrTriangulation, count)
		}
	}
	if er.orient(ear) > er.eps {
		emit(ear)
	}
	return tris, nil
}

// pointInTriangle reports whether p lies inside or on the boundary of the
// counter-clockwise triangle abc. Clockwise triangles contain nothing.
func pointInTriangle(a, b, c, p r2.Vec, eps float64) bool {
	return d2.Orient(a, b, p) >= -eps && d2.Orient(b, c, p) >= -eps && d2.Orient(c, a, p) >= -eps
}
