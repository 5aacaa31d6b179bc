package preview

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/soypat/pcbmag/brep"
	"github.com/soypat/pcbmag/internal/d2"
	"github.com/soypat/pcbmag/magazine"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Profile is a named 2D outline to draw.
type Profile struct {
	Name   string
	Region brep.Region
	Offset r2.Vec // Added to every vertex before drawing.
}

// MagazineProfiles returns the frame cross sections at both faces and the
// bone outline beside them.
func MagazineProfiles(p magazine.Params, cfg magazine.Config) ([]Profile, error) {
	fl, err := magazine.NewFrameLayout(p, cfg)
	if err != nil {
		return nil, err
	}
	bottom, top, err := fl.Profiles()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", magazine.ErrGeometry, err)
	}
	bl, err := magazine.NewBoneLayout(p, cfg)
	if err != nil {
		return nil, err
	}
	gap := math.Max(10, fl.OuterX/10)
	return []Profile{
		{Name: "frame bottom", Region: bottom},
		{Name: "frame top", Region: top},
		{Name: "bone", Region: bl.Profile(), Offset: r2.Vec{X: fl.OuterX/2 + gap + bl.Tip/2}},
	}, nil
}

func ringXYs(ring []r2.Vec, off r2.Vec) plotter.XYs {
	xys := make(plotter.XYs, len(ring)+1)
	for i, v := range ring {
		xys[i] = plotter.XY{X: v.X + off.X, Y: v.Y + off.Y}
	}
	xys[len(ring)] = xys[0]
	return xys
}

// DrawProfiles plots the outlines of profiles to w. Format is any image
// format supported by gonum/plot such as "svg", "png" or "pdf". Axes share
// one scale so the drawing is true to shape.
func DrawProfiles(w io.Writer, format string, profiles ...Profile) error {
	if len(profiles) == 0 {
		return fmt.Errorf("no profiles to draw")
	}
	p := plot.New()
	p.Title.Text = "Profiles"
	p.X.Label.Text = "x [mm]"
	p.Y.Label.Text = "y [mm]"
	p.Add(plotter.NewGrid())
	bb := d2.EmptyBox()
	for i, prof := range profiles {
		rings := append([][]r2.Vec{prof.Region.Outer}, prof.Region.Holes...)
		for j, ring := range rings {
			xys := ringXYs(ring, prof.Offset)
			line, err := plotter.NewLine(xys)
			if err != nil {
				return fmt.Errorf("profile %q: %w", prof.Name, err)
			}
			line.LineStyle.Color = plotutil.Color(i)
			line.LineStyle.Width = vg.Points(1)
			line.LineStyle.Dashes = plotutil.Dashes(i)
			p.Add(line)
			if j == 0 {
				p.Legend.Add(prof.Name, line)
			}
		}
		rb := prof.Region.Bounds()
		bb = bb.Extend(d2.Box{Min: r2.Add(rb.Min, prof.Offset), Max: r2.Add(rb.Max, prof.Offset)})
	}
	size := bb.Size()
	margin := 0.05 * math.Max(size.X, size.Y)
	p.X.Min, p.X.Max = bb.Min.X-margin, bb.Max.X+margin
	p.Y.Min, p.Y.Max = bb.Min.Y-margin, bb.Max.Y+margin
	p.Legend.Top = true

	const height = 12 * vg.Centimeter
	width := height * vg.Length((size.X+2*margin)/(size.Y+2*margin))
	wt, err := p.WriterTo(width, height, format)
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

// WriteDrawingFile draws profiles to path in the format of its extension.
func WriteDrawingFile(path string, profiles ...Profile) error {
	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if format == "" {
		return fmt.Errorf("drawing %q has no file extension", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	fp, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := DrawProfiles(fp, format, profiles...); err != nil {
		fp.Close()
		return err
	}
	return fp.Close()
}
