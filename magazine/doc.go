// Package magazine builds the parts of a 3D printable PCB magazine: two
// slotted side frames that hold boards by their edges and four dovetail
// bones that join the frames at a fixed separation.
//
// Builders are pure functions of a Params value and a Config value and
// return immutable brep solids. Parameters are validated before any
// geometry is built.
package magazine
