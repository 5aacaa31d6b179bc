package magazine

import (
	"fmt"
	"math"
)

// Params are the user facing dimensions of a magazine, in millimetres.
type Params struct {
	A float64 // Inner width of a slot along X.
	B float64 // Bone tip to tip length, which is the assembly height.
	C float64 // Slot width, the thickness of one PCB.
	D float64 // Material between adjacent slots.
	N int     // Number of slots.
}

// DefaultParams returns the parameters used when none are given.
func DefaultParams() Params {
	return Params{A: 90, B: 120, C: 1.6, D: 10, N: 10}
}

// Limit is the accepted closed range of a parameter.
type Limit struct {
	Field    string
	Min, Max float64
}

// Limits lists the accepted range of every field of Params in field order.
var Limits = [...]Limit{
	{Field: "a", Min: 10, Max: 10000},
	{Field: "b", Min: 1, Max: 1000},
	{Field: "c", Min: 0.1, Max: 50},
	{Field: "d", Min: 0.1, Max: 100},
	{Field: "n", Min: 1, Max: 200},
}

// Validate checks every field is finite and within Limits. The first
// offending field is reported as a *ParamError.
func (p Params) Validate() error {
	vals := [...]float64{p.A, p.B, p.C, p.D, float64(p.N)}
	for i, lim := range Limits {
		if err := lim.check(vals[i]); err != nil {
			return err
		}
	}
	return nil
}

func (lim Limit) check(v float64) error {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		return &ParamError{Field: lim.Field, Value: v, Reason: "must be finite"}
	case v <= 0:
		return &ParamError{Field: lim.Field, Value: v, Reason: "must be positive"}
	case v < lim.Min || v > lim.Max:
		return &ParamError{Field: lim.Field, Value: v, Reason: fmt.Sprintf("must be within [%g, %g]", lim.Min, lim.Max)}
	}
	return nil
}

// Count converts a slot count read from a float source to an int. It
// rejects values with a fractional part.
func Count(v float64) (int, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &ParamError{Field: "n", Value: v, Reason: "must be finite"}
	}
	if v != math.Trunc(v) {
		return 0, &ParamError{Field: "n", Value: v, Reason: "must be an integer"}
	}
	if v < 1 {
		return 0, &ParamError{Field: "n", Value: v, Reason: "must be at least 1"}
	}
	if v > Limits[4].Max {
		return 0, &ParamError{Field: "n", Value: v, Reason: fmt.Sprintf("must be within [%g, %g]", Limits[4].Min, Limits[4].Max)}
	}
	return int(v), nil
}

func (p Params) String() string {
	return fmt.Sprintf("a=%g b=%g c=%g d=%g n=%d", p.A, p.B, p.C, p.D, p.N)
}
