package magazine

import "math"

// Config holds the construction constants of the parts. The zero value is
// not usable, start from DefaultConfig.
type Config struct {
	WindowExtra    float64 `yaml:"window_extra"`    // Window width over A.
	PlateThickness float64 `yaml:"plate_thickness"` // Frame thickness and dovetail length.
	RailDepth      float64 `yaml:"rail_depth"`      // How far slotted rails reach into the window.
	WallX          float64 `yaml:"wall_x"`          // Frame wall beside the window.
	WallY          float64 `yaml:"wall_y"`          // Frame wall above and below the slot field.
	SlotMargin     float64 `yaml:"slot_margin"`     // Extra wall above and below the slot field.
	SocketDepth    float64 `yaml:"socket_depth"`    // Socket depth and bone thickness.
	SocketInset    float64 `yaml:"socket_inset"`    // Outer edge to socket narrow side.
	DovetailFlare  float64 `yaml:"dovetail_flare"`  // Per side widening of sockets and dovetails.
	BoneShoulder   float64 `yaml:"bone_shoulder"`   // Per side widening of the bone body over its waist.
	CornerChamfer  float64 `yaml:"corner_chamfer"`  // Cut on the outer vertical frame corners.
	Clearance      float64 `yaml:"clearance"`       // Play between bone and socket.
	MaxSpan        float64 `yaml:"max_span"`        // Largest frame extent, 0 for no limit.
	CutAllowance   float64 `yaml:"cut_allowance"`   // Extra slot and socket width over C. The bone keeps C.
}

// DefaultConfig returns the construction constants of the reference design.
func DefaultConfig() Config {
	return Config{
		WindowExtra:    5,
		PlateThickness: 8,
		RailDepth:      3,
		WallX:          7,
		WallY:          10,
		SlotMargin:     2,
		SocketDepth:    5,
		SocketInset:    8,
		DovetailFlare:  4,
		BoneShoulder:   2,
		CornerChamfer:  2,
		Clearance:      0.2,
		MaxSpan:        0,
		CutAllowance:   0,
	}
}

// Validate checks all constants are finite, lengths are positive and
// optional cuts are not negative.
func (c Config) Validate() error {
	positive := []struct {
		name string
		v    float64
	}{
		{"window_extra", c.WindowExtra},
		{"plate_thickness", c.PlateThickness},
		{"rail_depth", c.RailDepth},
		{"wall_x", c.WallX},
		{"wall_y", c.WallY},
		{"socket_depth", c.SocketDepth},
		{"socket_inset", c.SocketInset},
		{"clearance", c.Clearance},
	}
	for _, f := range positive {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return &ParamError{Field: f.name, Value: f.v, Reason: "must be finite"}
		}
		if f.v <= 0 {
			return &ParamError{Field: f.name, Value: f.v, Reason: "must be positive"}
		}
	}
	optional := []struct {
		name string
		v    float64
	}{
		{"slot_margin", c.SlotMargin},
		{"dovetail_flare", c.DovetailFlare},
		{"bone_shoulder", c.BoneShoulder},
		{"corner_chamfer", c.CornerChamfer},
		{"max_span", c.MaxSpan},
		{"cut_allowance", c.CutAllowance},
	}
	for _, f := range optional {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return &ParamError{Field: f.name, Value: f.v, Reason: "must be finite"}
		}
		if f.v < 0 {
			return &ParamError{Field: f.name, Value: f.v, Reason: "must not be negative"}
		}
	}
	return nil
}

func validate(p Params, cfg Config) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return cfg.Validate()
}
