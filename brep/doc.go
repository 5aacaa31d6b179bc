// Package brep implements exact boundary representations of planar faced
// solids. Solids are built from 2D regions by extrusion or by lofting
// between two regions with matching vertices, and are immutable: every
// operation returns a new value.
//
// The representation is what the STEP writer consumes directly and what
// the STL writer tessellates, so both exporters see the same geometry.
package brep
