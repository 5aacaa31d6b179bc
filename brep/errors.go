package brep

import "errors"

var (
	// ErrDegenerate is returned for rings or faces with too few vertices or zero area.
	ErrDegenerate = errors.New("degenerate geometry")
	// ErrTopology is returned when loft rings do not correspond or a solid is not closed.
	ErrTopology = errors.New("invalid topology")
	// ErrNonPlanar is returned when a face would not lie in a single plane.
	ErrNonPlanar = errors.New("non-planar face")
	// ErrTriangulation is returned when a face could not be ear clipped.
	ErrTriangulation = errors.New("triangulation failed")
)
