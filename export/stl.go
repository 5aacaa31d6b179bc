package export

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/chewxy/math32"
	"github.com/hschendel/stl"
	"github.com/soypat/pcbmag/brep"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	stlHeaderSize   = 84
	stlTriangleSize = 50
)

// stlHeader defines the STL file header.
type stlHeader struct {
	_     [80]uint8 // Header
	Count uint32    // Number of triangles
}

// WriteSTL writes mesh triangles to a writer in binary STL file format.
func WriteSTL(w io.Writer, mesh brep.Mesh) error {
	if len(mesh) == 0 {
		return errors.New("empty triangle slice")
	}
	if uint64(len(mesh)) > math.MaxUint32 {
		return fmt.Errorf("%d triangles do not fit in a binary STL", len(mesh))
	}
	bw := bufio.NewWriter(w)
	header := stlHeader{
		Count: uint32(len(mesh)),
	}
	if err := binary.Write(bw, binary.LittleEndian, &header); err != nil {
		return err
	}
	var b [stlTriangleSize]byte
	for _, triangle := range mesh {
		d := stlFromTriangle(triangle)
		if err := d.validate(); err != nil && !errors.Is(err, errCalculatedNormalMismatch) {
			return err
		}
		d.put(b[:])
		if _, err := bw.Write(b[:]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteASCIISTL writes mesh triangles to a writer in ASCII STL file format
// under the solid name.
func WriteASCIISTL(w io.Writer, name string, mesh brep.Mesh) error {
	if len(mesh) == 0 {
		return errors.New("empty triangle slice")
	}
	s := stl.Solid{Name: name, IsAscii: true, Triangles: make([]stl.Triangle, len(mesh))}
	for i, triangle := range mesh {
		d := stlFromTriangle(triangle)
		if err := d.validate(); err != nil && !errors.Is(err, errCalculatedNormalMismatch) {
			return err
		}
		s.Triangles[i] = stl.Triangle{
			Normal:   stl.Vec3(d.Normal),
			Vertices: [3]stl.Vec3{d.Vertex1, d.Vertex2, d.Vertex3},
		}
	}
	bw := bufio.NewWriter(w)
	if err := s.WriteAll(bw); err != nil {
		return err
	}
	return bw.Flush()
}

// ReadSTL reads a binary or ASCII STL file.
func ReadSTL(r io.Reader) (brep.Mesh, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if isBinarySTL(data) {
		return readBinarySTL(bytes.NewReader(data))
	}
	s, err := stl.ReadAll(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("reading STL: %w", err)
	}
	if len(s.Triangles) == 0 {
		return nil, errors.New("STL contains no triangles")
	}
	mesh := make(brep.Mesh, len(s.Triangles))
	for i, t := range s.Triangles {
		d := stlTriangle{Normal: t.Normal, Vertex1: t.Vertices[0], Vertex2: t.Vertices[1], Vertex3: t.Vertices[2]}
		if err := d.validate(); err != nil && !errors.Is(err, errCalculatedNormalMismatch) {
			return nil, fmt.Errorf("STL triangle %d: %w", i, err)
		}
		mesh[i] = d.toTriangle()
	}
	return mesh, nil
}

// isBinarySTL reports whether the triangle count in the header matches the
// data length. ASCII files may also begin with "solid".
func isBinarySTL(data []byte) bool {
	if len(data) < stlHeaderSize {
		return false
	}
	count := binary.LittleEndian.Uint32(data[80:])
	return int64(len(data)) == stlHeaderSize+int64(count)*stlTriangleSize
}

func readBinarySTL(r io.Reader) (output brep.Mesh, readErr error) {
	var header stlHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, errors.New("encountered EOF while reading STL header")
		}
		return nil, errors.New("STL header read failed: " + err.Error())
	}
	if header.Count == 0 {
		return nil, errors.New("STL header indicates 0 triangles present")
	}
	var (
		buf [stlTriangleSize]byte
		d   stlTriangle
		i   int
	)
	defer func() {
		if readErr != nil {
			readErr = fmt.Errorf("%d/%d STL triangles read: %w", i+1, header.Count, readErr)
		}
	}()
	output = make(brep.Mesh, 0, header.Count)
	for i = 0; i < int(header.Count); i++ {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, err
		}
		d.get(buf[:])
		// Normals are recomputed from the vertex order on read.
		if err := d.validate(); err != nil && !errors.Is(err, errCalculatedNormalMismatch) {
			return nil, err
		}
		output = append(output, d.toTriangle())
	}
	return output, nil
}

// stlTriangle defines the triangle data within an STL file.
type stlTriangle struct {
	Normal  [3]float32
	Vertex1 [3]float32
	Vertex2 [3]float32
	Vertex3 [3]float32
	_       uint16 // Attribute byte count
}

func stlFromTriangle(t brep.Triangle) stlTriangle {
	return stlTriangle{
		Normal:  f32From(t.Normal()),
		Vertex1: f32From(t[0]),
		Vertex2: f32From(t[1]),
		Vertex3: f32From(t[2]),
	}
}

func f32From(v r3.Vec) [3]float32 {
	return [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
}

func (t stlTriangle) put(b []byte) {
	if len(b) < stlTriangleSize {
		panic("need length 50 to marshal stlTriangle")
	}
	put3F32(b, t.Normal)
	put3F32(b[12:], t.Vertex1)
	put3F32(b[24:], t.Vertex2)
	put3F32(b[36:], t.Vertex3)
	binary.LittleEndian.PutUint16(b[48:], 0)
}

func (t *stlTriangle) get(b []byte) {
	if len(b) < stlTriangleSize {
		panic("need length 50 to unmarshal stlTriangle")
	}
	get3F32(b, &t.Normal)
	get3F32(b[12:], &t.Vertex1)
	get3F32(b[24:], &t.Vertex2)
	get3F32(b[36:], &t.Vertex3)
}

func put3F32(b []byte, f [3]float32) {
	_ = b[11] // early bounds check
	binary.LittleEndian.PutUint32(b, math.Float32bits(f[0]))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(f[1]))
	binary.LittleEndian.PutUint32(b[8:], math.Float32bits(f[2]))
}

func get3F32(b []byte, f *[3]float32) {
	_ = b[11] // early bounds check
	f[0] = math.Float32frombits(binary.LittleEndian.Uint32(b))
	f[1] = math.Float32frombits(binary.LittleEndian.Uint32(b[4:]))
	f[2] = math.Float32frombits(binary.LittleEndian.Uint32(b[8:]))
}

func bad3F32(f [3]float32) bool {
	return math32.IsNaN(f[0]) || math32.IsInf(f[0], 0) ||
		math32.IsNaN(f[1]) || math32.IsInf(f[1], 0) ||
		math32.IsNaN(f[2]) || math32.IsInf(f[2], 0)
}

var errCalculatedNormalMismatch = errors.New("triangle normal not approximately equal to calculated normal from vertices")

func (t stlTriangle) validate() error {
	const normTol = 5e-2
	if bad3F32(t.Normal) {
		return errors.New("inf/NaN STL triangle normal")
	}
	if bad3F32(t.Vertex1) || bad3F32(t.Vertex2) || bad3F32(t.Vertex3) {
		return errors.New("inf/NaN STL triangle vertex")
	}
	if t.degenerate() {
		return errors.New("triangle is degenerate")
	}
	if !equalWithin3F32(t.normalFromVertices(), t.Normal, normTol) {
		return errCalculatedNormalMismatch
	}
	return nil
}

func (t stlTriangle) normalFromVertices() [3]float32 {
	return f32From(t.toTriangle().Normal())
}

// degenerate reports whether float32 rounding merged two vertices.
func (t stlTriangle) degenerate() bool {
	return t.Vertex1 == t.Vertex2 || t.Vertex2 == t.Vertex3 || t.Vertex3 == t.Vertex1
}

func equalWithin3F32(a, b [3]float32, tol float32) bool {
	return math32.Abs(a[0]-b[0]) <= tol &&
		math32.Abs(a[1]-b[1]) <= tol &&
		math32.Abs(a[2]-b[2]) <= tol
}

func r3From3F32(f [3]float32) r3.Vec {
	return r3.Vec{X: float64(f[0]), Y: float64(f[1]), Z: float64(f[2])}
}

func (t stlTriangle) toTriangle() brep.Triangle {
	return brep.Triangle{r3From3F32(t.Vertex1), r3From3F32(t.Vertex2), r3From3F32(t.Vertex3)}
}
