// Package job builds, exports and previews a resolved magazine job.
package job

import (
	"fmt"

	"github.com/soypat/pcbmag/brep"
	"github.com/soypat/pcbmag/export"
	"github.com/soypat/pcbmag/helpers/matter"
	"github.com/soypat/pcbmag/internal/config"
	"github.com/soypat/pcbmag/internal/d3"
	"github.com/soypat/pcbmag/magazine"
	"github.com/soypat/pcbmag/preview"
)

// Result reports what a run wrote.
type Result struct {
	Path    string // Absolute path of the exported model.
	Preview string // Preview image path, empty when none was requested.
	Drawing string // Profile drawing path, empty when none was requested.
	Bounds  d3.Box
	Solids  int
}

// Size returns the overall size of everything built in job.
func (r Result) Size() string { return magazine.FormatSize(r.Bounds) }

// Bounds builds the selected component and returns its overall bounds.
func Bounds(m magazine.Mode, p magazine.Params, cfg magazine.Config) (d3.Box, error) {
	solids, err := magazine.Build(m, p, cfg)
	if err != nil {
		return d3.Box{}, err
	}
	return bounds(solids), nil
}

func bounds(solids []brep.Solid) d3.Box {
	box := d3.EmptyBox()
	for _, s := range solids {
		box = box.Extend(s.Bounds())
	}
	return box
}

// Build builds the solids of j. With a material set, the frame's slots and
// sockets are widened and every solid is enlarged to cancel its shrinkage.
// Bones are external dimensions and only get the enlargement.
func Build(j config.Job) ([]brep.Solid, error) {
	if j.Material == "" {
		return magazine.Build(j.Mode, j.Params, j.Config)
	}
	m, err := matter.Lookup(j.Material)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", magazine.ErrInvalidParameter, err)
	}
	cut, err := m.InternalDimScale(j.Params.C)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", magazine.ErrInvalidParameter, err)
	}
	cfg := j.Config
	cfg.CutAllowance += cut - j.Params.C
	solids, err := magazine.Build(j.Mode, j.Params, cfg)
	if err != nil {
		return nil, err
	}
	for i := range solids {
		solids[i] = m.Scale(solids[i])
	}
	return solids, nil
}

// Run builds the component, exports it and writes the optional preview
// and drawing.
func Run(j config.Job) (Result, error) {
	solids, err := Build(j)
	if err != nil {
		return Result{}, err
	}
	path, err := export.Export(j.Path, j.Options, solids...)
	if err != nil {
		return Result{}, err
	}
	res := Result{Path: path, Bounds: bounds(solids), Solids: len(solids)}
	if j.Preview != "" {
		if err := Preview(j.Preview, solids); err != nil {
			return res, err
		}
		res.Preview = j.Preview
	}
	if j.Drawing != "" {
		profiles, err := preview.MagazineProfiles(j.Params, j.Config)
		if err != nil {
			return res, err
		}
		if err := preview.WriteDrawingFile(j.Drawing, profiles...); err != nil {
			return res, err
		}
		res.Drawing = j.Drawing
	}
	return res, nil
}

// Preview renders solids to a PNG file with the default view.
func Preview(path string, solids []brep.Solid) error {
	var mesh brep.Mesh
	for _, s := range solids {
		m, err := s.Triangulate()
		if err != nil {
			return fmt.Errorf("%w: %w", magazine.ErrGeometry, err)
		}
		mesh = append(mesh, m...)
	}
	return preview.WritePNGFile(path, mesh, preview.DefaultView())
}
