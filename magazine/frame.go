package magazine

import (
	"fmt"
	"math"

	"github.com/soypat/pcbmag/brep"
	"gonum.org/v1/gonum/spatial/r2"
)

// Span is a closed interval along one axis.
type Span struct {
	Min, Max float64
}

// Width returns the length of the span.
func (s Span) Width() float64 { return s.Max - s.Min }

// FrameLayout is the flat description of a frame computed from the
// parameters. The frame is centred on the origin with its plate spanning
// Z in [-Thickness/2, Thickness/2].
type FrameLayout struct {
	InnerX, InnerY float64 // Window size.
	OuterX, OuterY float64 // Plate size.
	Thickness      float64
	RailDepth      float64
	CornerChamfer  float64

	// Sockets are centred at X=±SocketX on both Y edges. Their width
	// grows linearly from SocketTop at the top face to SocketBottom at
	// the bottom face.
	SocketX      float64
	SocketDepth  float64
	SocketTop    float64
	SocketBottom float64

	Slots []Span // Y extent of each slot, bottom to top.
	Webs  []Span // Y extent of the material between and around slots.

	cfg Config
}

// NewFrameLayout validates the parameters and computes the frame layout.
// The returned layout has passed Check.
func NewFrameLayout(p Params, cfg Config) (FrameLayout, error) {
	if err := validate(p, cfg); err != nil {
		return FrameLayout{}, err
	}
	cut := p.C + cfg.CutAllowance
	l := FrameLayout{
		InnerX:        p.A + cfg.WindowExtra,
		InnerY:        float64(p.N)*cut + float64(p.N+1)*p.D,
		Thickness:     cfg.PlateThickness,
		RailDepth:     cfg.RailDepth,
		CornerChamfer: cfg.CornerChamfer,
		SocketDepth:   cfg.SocketDepth,
		SocketTop:     cut,
		SocketBottom:  cut + 2*cfg.DovetailFlare,
		cfg:           cfg,
	}
	l.OuterX = l.InnerX + 2*cfg.WallX
	l.OuterY = l.InnerY + 2*(cfg.WallY+cfg.SlotMargin)
	l.SocketX = l.OuterX/2 - cfg.SocketInset - p.C/2
	y := -l.InnerY / 2
	for i := 0; i < p.N; i++ {
		l.Webs = append(l.Webs, Span{Min: y, Max: y + p.D})
		y += p.D
		l.Slots = append(l.Slots, Span{Min: y, Max: y + cut})
		y += cut
	}
	l.Webs = append(l.Webs, Span{Min: y, Max: l.InnerY / 2})
	if err := l.Check(); err != nil {
		return FrameLayout{}, err
	}
	return l, nil
}

// Check reports an ErrGeometry error when a cut of the layout runs out of
// the material it is cut from.
func (l FrameLayout) Check() error {
	wallY := l.cfg.WallY + l.cfg.SlotMargin
	bottomGap := l.SocketX - l.SocketBottom/2
	cornerGap := l.OuterX/2 - l.SocketX - l.SocketBottom/2
	switch {
	case 2*l.RailDepth >= l.InnerX:
		return geometryErrorf("rails of depth %g close the %g wide window", l.RailDepth, l.InnerX)
	case l.SocketDepth >= wallY:
		return geometryErrorf("socket depth %g breaks through the %g wall into the window", l.SocketDepth, wallY)
	case cornerGap <= l.CornerChamfer:
		return geometryErrorf("socket reaches the %g corner chamfer", l.CornerChamfer)
	case bottomGap <= 0:
		return geometryErrorf("sockets overlap: %g wide sockets centred at x=±%g", l.SocketBottom, l.SocketX)
	case 2*l.CornerChamfer >= math.Min(l.OuterX, l.OuterY) || l.CornerChamfer >= l.cfg.WallX+wallY:
		return geometryErrorf("corner chamfer %g does not fit the frame", l.CornerChamfer)
	case l.cfg.MaxSpan > 0 && math.Max(l.OuterX, l.OuterY) > l.cfg.MaxSpan:
		return geometryErrorf("slot field and walls span %gx%g, more than the available %g",
			l.OuterX, l.OuterY, l.cfg.MaxSpan)
	}
	return nil
}

// Profiles returns the cross sections of the frame at its bottom and top
// faces. They differ only in the width of the sockets and their vertices
// correspond one to one.
func (l FrameLayout) Profiles() (bottom, top brep.Region, err error) {
	window := l.window()
	outerBot, err := l.outline(l.SocketBottom / 2)
	if err != nil {
		return bottom, top, err
	}
	outerTop, err := l.outline(l.SocketTop / 2)
	if err != nil {
		return bottom, top, err
	}
	bottom = brep.Region{Outer: outerBot, Holes: [][]r2.Vec{window}}
	top = brep.Region{Outer: outerTop, Holes: [][]r2.Vec{window}}
	return bottom, top, nil
}

// outline returns the plate outline with sockets of half width s.
func (l FrameLayout) outline(s float64) ([]r2.Vec, error) {
	ox, oy := l.OuterX/2, l.OuterY/2
	p := brep.NewPolygon()
	corner := func(x, y float64) {
		v := p.Add(x, y)
		if l.CornerChamfer > 0 {
			v.Chamfer(l.CornerChamfer)
		}
	}
	// notch cuts a socket into the edge at y, walking along the edge in
	// direction dir.
	notch := func(x, y, dir float64) {
		p.Add(x-s*dir, y)
		p.Add(0, l.SocketDepth*dir).Rel()
		p.Add(2*s*dir, 0).Rel()
		p.Add(0, -l.SocketDepth*dir).Rel()
	}
	corner(-ox, -oy)
	notch(-l.SocketX, -oy, 1)
	notch(l.SocketX, -oy, 1)
	corner(ox, -oy)
	corner(ox, oy)
	notch(l.SocketX, oy, -1)
	notch(-l.SocketX, oy, -1)
	corner(-ox, oy)
	p.Close()
	return p.Vertices()
}

// window returns the opening of the frame: a rectangle with a slot channel
// cut into the rail on either side for every slot.
func (l FrameLayout) window() []r2.Vec {
	ix, iy := l.InnerX/2, l.InnerY/2
	rx := ix - l.RailDepth
	ring := make([]r2.Vec, 0, 4+8*len(l.Slots))
	ring = append(ring, r2.Vec{X: -rx, Y: -iy}, r2.Vec{X: rx, Y: -iy})
	for _, s := range l.Slots {
		ring = append(ring,
			r2.Vec{X: rx, Y: s.Min}, r2.Vec{X: ix, Y: s.Min},
			r2.Vec{X: ix, Y: s.Max}, r2.Vec{X: rx, Y: s.Max},
		)
	}
	ring = append(ring, r2.Vec{X: rx, Y: iy}, r2.Vec{X: -rx, Y: iy})
	for i := len(l.Slots) - 1; i >= 0; i-- {
		s := l.Slots[i]
		ring = append(ring,
			r2.Vec{X: -rx, Y: s.Max}, r2.Vec{X: -ix, Y: s.Max},
			r2.Vec{X: -ix, Y: s.Min}, r2.Vec{X: -rx, Y: s.Min},
		)
	}
	return ring
}

// Frame builds one side frame of the magazine.
func Frame(p Params, cfg Config) (brep.Solid, error) {
	l, err := NewFrameLayout(p, cfg)
	if err != nil {
		return brep.Solid{}, err
	}
	bottom, top, err := l.Profiles()
	if err != nil {
		return brep.Solid{}, fmt.Errorf("%w: frame profile: %w", ErrGeometry, err)
	}
	s, err := brep.Loft("frame", bottom, top, -l.Thickness/2, l.Thickness/2)
	if err != nil {
		return brep.Solid{}, fmt.Errorf("%w: frame: %w", ErrGeometry, err)
	}
	return s, nil
}
