package magazine

import (
	"fmt"
	"strings"

	"github.com/soypat/pcbmag/brep"
)

// Mode selects which part to build.
type Mode int

const (
	ModeFrame Mode = iota
	ModeBone
	ModeAssembly
)

var modeNames = [...]string{ModeFrame: "frame", ModeBone: "bone", ModeAssembly: "assembly"}

// Modes returns the names of all modes.
func Modes() []string { return append([]string(nil), modeNames[:]...) }

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// ParseMode parses a mode name, ignoring case.
func ParseMode(s string) (Mode, error) {
	for i, name := range modeNames {
		if strings.EqualFold(s, name) {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown component %q, want one of %s", ErrInvalidParameter, s, strings.Join(modeNames[:], ", "))
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Build builds the solids of the selected part. Assemblies return their
// placed instances in assembly order.
func Build(m Mode, p Params, cfg Config) ([]brep.Solid, error) {
	switch m {
	case ModeFrame:
		s, err := Frame(p, cfg)
		if err != nil {
			return nil, err
		}
		return []brep.Solid{s}, nil
	case ModeBone:
		s, err := Bone(p, cfg)
		if err != nil {
			return nil, err
		}
		return []brep.Solid{s}, nil
	case ModeAssembly:
		a, err := Assemble(p, cfg)
		if err != nil {
			return nil, err
		}
		return a.Placed(), nil
	}
	return nil, fmt.Errorf("%w: unknown mode %v", ErrInvalidParameter, m)
}
