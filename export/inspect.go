package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/soypat/pcbmag/brep"
	"github.com/soypat/pcbmag/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Body summarizes one body of a model file.
type Body struct {
	Name      string
	Faces     int // Planar faces, zero for STL.
	Triangles int // Zero for STEP.
	Vertices  int
	Bounds    d3.Box
	Volume    float64
}

// Report summarizes the contents of a model file.
type Report struct {
	Path   string
	Format Format
	Bodies []Body
}

// Inspect reads back an STL or STEP file.
func Inspect(path string) (Report, error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return Report{}, err
	}
	fp, err := os.Open(path)
	if err != nil {
		return Report{}, &IOError{Op: "open", Path: path, Err: err}
	}
	defer fp.Close()
	rep := Report{Path: path, Format: f}
	switch f {
	case STEP:
		solids, err := ReadSTEP(fp)
		if err != nil {
			return Report{}, err
		}
		for _, s := range solids {
			rep.Bodies = append(rep.Bodies, Body{
				Name:     s.Name(),
				Faces:    s.NumFaces(),
				Vertices: s.NumVertices(),
				Bounds:   s.Bounds(),
				Volume:   s.Volume(),
			})
		}
	case STL:
		mesh, err := ReadSTL(fp)
		if err != nil {
			return Report{}, err
		}
		rep.Bodies = append(rep.Bodies, meshBody(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)), mesh))
	}
	return rep, nil
}

func meshBody(name string, mesh brep.Mesh) Body {
	seen := make(map[r3.Vec]struct{})
	for _, t := range mesh {
		for _, v := range t {
			seen[v] = struct{}{}
		}
	}
	return Body{
		Name:      name,
		Triangles: len(mesh),
		Vertices:  len(seen),
		Bounds:    mesh.Bounds(),
		Volume:    mesh.Volume(),
	}
}

// Bounds returns the bounding box of all bodies.
func (r Report) Bounds() d3.Box {
	b := d3.EmptyBox()
	for _, body := range r.Bodies {
		b = b.Extend(body.Bounds)
	}
	return b
}

func (r Report) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s): %d bodies\n", r.Path, r.Format, len(r.Bodies))
	for _, b := range r.Bodies {
		sz := b.Bounds.Size()
		fmt.Fprintf(&sb, "  %-12s", b.Name)
		if b.Faces > 0 {
			fmt.Fprintf(&sb, " faces=%d", b.Faces)
		}
		if b.Triangles > 0 {
			fmt.Fprintf(&sb, " triangles=%d", b.Triangles)
		}
		fmt.Fprintf(&sb, " vertices=%d size=%.3fx%.3fx%.3f volume=%.3f\n", b.Vertices, sz.X, sz.Y, sz.Z, b.Volume)
	}
	return sb.String()
}
