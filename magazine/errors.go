package magazine

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameter is returned when a parameter or tunable is
	// missing, non-finite or out of range.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrGeometry is returned when valid parameters still describe a part
	// that cannot be built, such as cuts running out of the base profile.
	ErrGeometry = errors.New("geometry error")
	// ErrAssembly is returned when parts cannot be placed in the assembly.
	ErrAssembly = errors.New("assembly error")
)

// ParamError describes a rejected parameter.
type ParamError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("invalid parameter %s=%g: %s", e.Field, e.Value, e.Reason)
}

func (e *ParamError) Unwrap() error { return ErrInvalidParameter }

func geometryErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrGeometry, fmt.Sprintf(format, args...))
}
