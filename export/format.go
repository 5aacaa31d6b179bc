package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/soypat/pcbmag/brep"
)

var (
	// ErrUnsupportedFormat is returned for output formats other than STL and STEP.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrIO is returned when the output file cannot be written.
	ErrIO = errors.New("i/o error")
)

// IOError records a failed file operation. It matches both ErrIO and the
// underlying error with errors.Is.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string { return e.Op + " " + e.Path + ": " + e.Err.Error() }

func (e *IOError) Unwrap() []error { return []error{ErrIO, e.Err} }

// Format is an output file format.
type Format int

const (
	STL Format = iota
	STEP
)

func (f Format) String() string {
	switch f {
	case STL:
		return "stl"
	case STEP:
		return "step"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// Ext returns the file extension of the format, with the dot.
func (f Format) Ext() string { return "." + f.String() }

// ParseFormat parses a format name. "stp" is accepted for STEP.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "stl":
		return STL, nil
	case "step", "stp":
		return STEP, nil
	}
	return 0, fmt.Errorf("%w: %q, want stl or step", ErrUnsupportedFormat, s)
}

// FormatFromPath picks the format from the file extension of path.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// ReplaceExt gives path the extension of f when it ends in the extension
// of another format. Other paths are returned unchanged.
func ReplaceExt(path string, f Format) string {
	old, err := FormatFromPath(path)
	if err != nil || old == f {
		return path
	}
	return strings.TrimSuffix(path, filepath.Ext(path)) + f.Ext()
}

// Options configure an export.
type Options struct {
	Format Format
	// ASCII selects ASCII instead of binary STL.
	ASCII bool
	// Name of the model written to the file. Defaults to the name of the
	// first solid.
	Name string
}

func (o Options) name(solids []brep.Solid) string {
	if o.Name != "" {
		return o.Name
	}
	if len(solids) > 0 && solids[0].Name() != "" {
		return solids[0].Name()
	}
	return "model"
}

// Write encodes solids to w.
func Write(w io.Writer, opts Options, solids ...brep.Solid) error {
	if len(solids) == 0 {
		return errors.New("no solids to export")
	}
	switch opts.Format {
	case STL:
		mesh, err := triangulate(solids)
		if err != nil {
			return err
		}
		if opts.ASCII {
			return WriteASCIISTL(w, opts.name(solids), mesh)
		}
		return WriteSTL(w, mesh)
	case STEP:
		return WriteSTEP(w, opts.name(solids), solids...)
	}
	return fmt.Errorf("%w: %v", ErrUnsupportedFormat, opts.Format)
}

func triangulate(solids []brep.Solid) (brep.Mesh, error) {
	var mesh brep.Mesh
	for _, s := range solids {
		m, err := s.Triangulate()
		if err != nil {
			return nil, err
		}
		mesh = append(mesh, m...)
	}
	return mesh, nil
}

// Export writes solids to the file at path, creating missing parent
// directories and replacing any existing file. The file is encoded in full
// before it is written so a failed encode leaves no file. It returns the
// absolute path written.
func Export(path string, opts Options, solids ...brep.Solid) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", &IOError{Op: "resolve", Path: path, Err: err}
	}
	var buf bytes.Buffer
	if err := Write(&buf, opts, solids...); err != nil {
		return "", err
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &IOError{Op: "mkdir", Path: dir, Err: err}
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(abs)+".*")
	if err != nil {
		return "", &IOError{Op: "create", Path: abs, Err: err}
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return "", &IOError{Op: "write", Path: abs, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return "", &IOError{Op: "write", Path: abs, Err: err}
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return "", &IOError{Op: "chmod", Path: abs, Err: err}
	}
	if err := os.Rename(tmp.Name(), abs); err != nil {
		return "", &IOError{Op: "rename", Path: abs, Err: err}
	}
	return abs, nil
}
