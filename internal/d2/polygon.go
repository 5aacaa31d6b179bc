package d2

import "gonum.org/v1/gonum/spatial/r2"

// Set is a closed polygon ring. The last vertex connects back to the first.
type Set []r2.Vec

// SignedArea returns the area enclosed by the ring, positive for
// counter-clockwise winding.
func (s Set) SignedArea() float64 {
	var a float64
	for i, p := range s {
		q := s[(i+1)%len(s)]
		a += p.X*q.Y - q.X*p.Y
	}
	return a / 2
}

// Bounds returns the bounding box of the ring.
func (s Set) Bounds() Box {
	b := EmptyBox()
	for _, v := range s {
		b = b.Include(v)
	}
	return b
}

// Winding returns the winding number of the ring around p. It is non-zero
// for points strictly inside. Points on the boundary may report either side.
// See http://geomalgorithms.com/a03-_inclusion.html
func (s Set) Winding(p r2.Vec) int {
	wn := 0
	for i, a := range s {
		b := s[(i+1)%len(s)]
		if a.Y <= p.Y {
			if b.Y > p.Y && Orient(a, b, p) > 0 { // upward crossing, p left of edge
				wn++
			}
		} else if b.Y <= p.Y && Orient(a, b, p) < 0 { // downward crossing, p right of edge
			wn--
		}
	}
	return wn
}

// Reversed returns a copy of the ring with the opposite winding.
func (s Set) Reversed() Set {
	r := make(Set, len(s))
	for i, v := range s {
		r[len(s)-1-i] = v
	}
	return r
}
