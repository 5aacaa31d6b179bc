// Package preview draws models for a quick look without a CAD viewer: a
// shaded offscreen render of the triangulated model and plots of the 2D
// outlines of the part profiles.
package preview

import (
	"errors"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/fogleman/fauxgl"
	"github.com/nfnt/resize"
	"github.com/soypat/pcbmag/brep"
	"github.com/soypat/pcbmag/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// View configures the camera of a render. Positions are given in the
// coordinates of the model scaled to fit the cube [-1, 1]^3.
type View struct {
	Width, Height int // Output size in pixels.
	// Supersample renders at this many times the output size and
	// downsamples for antialiasing.
	Supersample int
	Eye         r3.Vec // Camera position.
	LookAt      r3.Vec // View centre.
	Up          r3.Vec
	Near, Far   float64
	FovY        float64 // Vertical field of view in degrees.
	Color       string  // Object colour in hex.
	Background  string  // Background colour in hex.
}

// DefaultView returns an isometric view.
func DefaultView() View {
	const fhdScale = 0.4
	return View{
		Width:       int(1920 * fhdScale),
		Height:      int(1080 * fhdScale),
		Supersample: 2,
		Eye:         d3.Elem(2.4),
		Up:          r3.Vec{Z: 1},
		Near:        1,
		Far:         10,
		FovY:        30,
		Color:       "#468966",
		Background:  "#FFF8E3",
	}
}

func toFaux(v r3.Vec) fauxgl.Vector { return fauxgl.V(v.X, v.Y, v.Z) }

// Render draws mesh as seen from v.
func Render(mesh brep.Mesh, v View) (image.Image, error) {
	if len(mesh) == 0 {
		return nil, errors.New("empty mesh")
	}
	if v.Width <= 0 || v.Height <= 0 {
		return nil, errors.New("render size must be positive")
	}
	scale := v.Supersample
	if scale < 1 {
		scale = 1
	}
	tris := make([]*fauxgl.Triangle, len(mesh))
	for i, t := range mesh {
		tris[i] = fauxgl.NewTriangleForPoints(toFaux(t[0]), toFaux(t[1]), toFaux(t[2]))
	}
	fm := fauxgl.NewTriangleMesh(tris)
	// fit mesh in a bi-unit cube centered at the origin
	fm.BiUnitCube()

	context := fauxgl.NewContext(v.Width*scale, v.Height*scale)
	context.ClearColorBufferWith(fauxgl.HexColor(v.Background))
	aspect := float64(v.Width) / float64(v.Height)
	eye := toFaux(v.Eye)
	matrix := fauxgl.LookAt(eye, toFaux(v.LookAt), toFaux(v.Up)).Perspective(v.FovY, aspect, v.Near, v.Far)
	light := fauxgl.V(-0.75, 1, 0.25).Normalize()
	shader := fauxgl.NewPhongShader(matrix, light, eye)
	shader.ObjectColor = fauxgl.HexColor(v.Color)
	context.Shader = shader
	context.DrawMesh(fm)
	img := context.Image()
	if scale > 1 {
		img = resize.Resize(uint(v.Width), uint(v.Height), img, resize.Bilinear)
	}
	return img, nil
}

// RenderPNG draws mesh and encodes the image as PNG to w.
func RenderPNG(w io.Writer, mesh brep.Mesh, v View) error {
	img, err := Render(mesh, v)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// WritePNGFile draws mesh to a PNG file at path, creating missing parent
// directories.
func WritePNGFile(path string, mesh brep.Mesh, v View) error {
	img, err := Render(mesh, v)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return fauxgl.SavePNG(path, img)
}
