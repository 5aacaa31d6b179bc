package magazine

import (
	"fmt"

	"github.com/soypat/pcbmag/brep"
	"gonum.org/v1/gonum/spatial/r2"
)

// BoneLayout is the outline of a bone: a dovetail at each end of a
// straight body. The profile lies in the XY plane centred on the origin
// with its length along Y, and is extruded along +Z by Depth.
type BoneLayout struct {
	Length   float64 // Tip to tip.
	Dovetail float64 // Length of each dovetail.
	Depth    float64 // Extrusion depth.
	Tip      float64 // Width at the tips.
	Waist    float64 // Width where a dovetail meets the body.
	Body     float64 // Width of the body.
}

// NewBoneLayout validates the parameters and computes the bone layout.
func NewBoneLayout(p Params, cfg Config) (BoneLayout, error) {
	if err := validate(p, cfg); err != nil {
		return BoneLayout{}, err
	}
	w := p.C - cfg.Clearance
	if w <= 0 {
		return BoneLayout{}, geometryErrorf("clearance %g leaves no bone in a %g wide socket", cfg.Clearance, p.C)
	}
	if p.B <= 2*cfg.PlateThickness {
		return BoneLayout{}, geometryErrorf("bone length %g leaves no body between two %g dovetails", p.B, cfg.PlateThickness)
	}
	return BoneLayout{
		Length:   p.B,
		Dovetail: cfg.PlateThickness,
		Depth:    cfg.SocketDepth,
		Tip:      w + 2*cfg.DovetailFlare,
		Waist:    w,
		Body:     w + 2*cfg.BoneShoulder,
	}, nil
}

// Profile returns the outline of the bone.
func (l BoneLayout) Profile() brep.Region {
	ht, hw, hb := l.Tip/2, l.Waist/2, l.Body/2
	tip := l.Length / 2
	shoulder := tip - l.Dovetail
	return brep.Region{Outer: []r2.Vec{
		{X: -ht, Y: -tip},
		{X: ht, Y: -tip},
		{X: hw, Y: -shoulder},
		{X: hb, Y: -shoulder},
		{X: hb, Y: shoulder},
		{X: hw, Y: shoulder},
		{X: ht, Y: tip},
		{X: -ht, Y: tip},
		{X: -hw, Y: shoulder},
		{X: -hb, Y: shoulder},
		{X: -hb, Y: -shoulder},
		{X: -hw, Y: -shoulder},
	}}
}

// Bone builds one dovetail connector.
func Bone(p Params, cfg Config) (brep.Solid, error) {
	l, err := NewBoneLayout(p, cfg)
	if err != nil {
		return brep.Solid{}, err
	}
	s, err := brep.Extrude("bone", l.Profile(), 0, l.Depth)
	if err != nil {
		return brep.Solid{}, fmt.Errorf("%w: bone: %w", ErrGeometry, err)
	}
	return s, nil
}
