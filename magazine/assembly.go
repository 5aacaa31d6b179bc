package magazine

import (
	"fmt"
	"math"

	"github.com/soypat/pcbmag/brep"
	"github.com/soypat/pcbmag/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Instance names of an assembly, in assembly order.
const (
	FrameLeft  = "frame_left"
	FrameRight = "frame_right"
	Bone1      = "bone_1"
	Bone2      = "bone_2"
	Bone3      = "bone_3"
	Bone4      = "bone_4"
)

// rigidTol is the tolerance on orthonormality of placements.
const rigidTol = 1e-9

// Instance is a part placed in an assembly.
type Instance struct {
	Name      string
	Solid     brep.Solid // Part in its own coordinates.
	Transform d3.Transform
}

// Placed returns the instance solid in assembly coordinates, named after
// the instance.
func (in Instance) Placed() brep.Solid {
	return in.Solid.Transform(in.Transform).Renamed(in.Name)
}

// Assembly is a complete magazine: two frames and four bones. The bottom
// frame rests on Z=0 and the top frame reaches Z=B.
type Assembly struct {
	instances []Instance
}

// Assemble builds both frames and all bones and places them.
func Assemble(p Params, cfg Config) (Assembly, error) {
	layout, err := NewFrameLayout(p, cfg)
	if err != nil {
		return Assembly{}, err
	}
	t := cfg.PlateThickness
	var a Assembly
	frames := []struct {
		name string
		tf   d3.Transform
	}{
		{FrameLeft, d3.Translation(r3.Vec{Z: t / 2})},
		{FrameRight, d3.Translation(r3.Vec{Z: p.B - t/2}).Mul(d3.MirrorXY())},
	}
	for _, f := range frames {
		s, err := Frame(p, cfg)
		if err != nil {
			return Assembly{}, err
		}
		if err := a.add(f.name, s, f.tf); err != nil {
			return Assembly{}, err
		}
	}
	upright := d3.RotationX(math.Pi / 2)
	x, y := layout.SocketX, layout.OuterY/2
	lowY := -y + layout.SocketDepth
	bones := []struct {
		name string
		pos  r3.Vec
	}{
		{Bone1, r3.Vec{X: x, Y: y, Z: p.B / 2}},
		{Bone2, r3.Vec{X: -x, Y: y, Z: p.B / 2}},
		{Bone3, r3.Vec{X: -x, Y: lowY, Z: p.B / 2}},
		{Bone4, r3.Vec{X: x, Y: lowY, Z: p.B / 2}},
	}
	for _, b := range bones {
		s, err := Bone(p, cfg)
		if err != nil {
			return Assembly{}, err
		}
		if err := a.add(b.name, s, d3.Translation(b.pos).Mul(upright)); err != nil {
			return Assembly{}, err
		}
	}
	return a, nil
}

func (a *Assembly) add(name string, s brep.Solid, tf d3.Transform) error {
	if err := tf.Rigid(rigidTol); err != nil {
		return fmt.Errorf("%w: placing %s: %w", ErrAssembly, name, err)
	}
	a.instances = append(a.instances, Instance{Name: name, Solid: s, Transform: tf})
	return nil
}

// Len returns the number of instances.
func (a Assembly) Len() int { return len(a.instances) }

// Names returns the instance names in assembly order.
func (a Assembly) Names() []string {
	names := make([]string, len(a.instances))
	for i, in := range a.instances {
		names[i] = in.Name
	}
	return names
}

// Instance returns the named instance.
func (a Assembly) Instance(name string) (Instance, bool) {
	for _, in := range a.instances {
		if in.Name == name {
			return in, true
		}
	}
	return Instance{}, false
}

// Placed returns every instance solid in assembly coordinates.
func (a Assembly) Placed() []brep.Solid {
	solids := make([]brep.Solid, len(a.instances))
	for i, in := range a.instances {
		solids[i] = in.Placed()
	}
	return solids
}

// Bounds returns the bounding box of the placed assembly.
func (a Assembly) Bounds() d3.Box {
	b := d3.EmptyBox()
	for _, s := range a.Placed() {
		b = b.Extend(s.Bounds())
	}
	return b
}

// SizeString formats the overall size of the assembly as X × Y × Z.
func (a Assembly) SizeString() string {
	return FormatSize(a.Bounds())
}

// FormatSize formats the size of a bounding box in millimetres as X × Y × Z.
func FormatSize(b d3.Box) string {
	sz := b.Size()
	return fmt.Sprintf("%.1f × %.1f × %.1f mm", sz.X, sz.Y, sz.Z)
}
