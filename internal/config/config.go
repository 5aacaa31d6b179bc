// Package config loads magazine jobs from YAML files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/soypat/pcbmag/export"
	"github.com/soypat/pcbmag/helpers/matter"
	"github.com/soypat/pcbmag/magazine"
	"gopkg.in/yaml.v3"
)

// File is the YAML shape of a job file. Keys missing from a file keep
// their Default value.
type File struct {
	Component string          `yaml:"component"`
	Material  string          `yaml:"material"` // Print material to compensate for, empty for none.
	Params    Params          `yaml:"params"`
	Tunables  magazine.Config `yaml:"tunables"`
	Output    Output          `yaml:"output"`
}

// Params mirrors magazine.Params. N is read as a float so a fractional
// count is reported as a parameter error instead of a YAML type error.
type Params struct {
	A float64 `yaml:"a"`
	B float64 `yaml:"b"`
	C float64 `yaml:"c"`
	D float64 `yaml:"d"`
	N float64 `yaml:"n"`
}

// Output selects what is written and where.
type Output struct {
	Format  string `yaml:"format"`
	Path    string `yaml:"path"`
	ASCII   bool   `yaml:"ascii"`
	Preview string `yaml:"preview"` // PNG render path, empty to skip.
	Drawing string `yaml:"drawing"` // SVG or PNG profile drawing path, empty to skip.
}

// Job is a File resolved to typed values.
type Job struct {
	Mode     magazine.Mode
	Params   magazine.Params
	Config   magazine.Config
	Material string
	Path     string
	Options  export.Options
	Preview  string
	Drawing  string
}

// Default returns the job run when no flags or file are given.
func Default() File {
	p := magazine.DefaultParams()
	return File{
		Component: magazine.ModeAssembly.String(),
		Params:    Params{A: p.A, B: p.B, C: p.C, D: p.D, N: float64(p.N)},
		Tunables:  magazine.DefaultConfig(),
		Output:    Output{Format: export.STL.String(), Path: "model.stl"},
	}
}

// Load reads the file at path over the defaults.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to read config file: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return File{}, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes YAML over the defaults. Unknown keys are rejected.
func Parse(data []byte) (File, error) {
	f := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return File{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return f, nil
}

// ParamsValue converts the parameters, checking the slot count is integral.
func (f File) ParamsValue() (magazine.Params, error) {
	n, err := magazine.Count(f.Params.N)
	if err != nil {
		return magazine.Params{}, err
	}
	return magazine.Params{A: f.Params.A, B: f.Params.B, C: f.Params.C, D: f.Params.D, N: n}, nil
}

// Resolve validates the file and converts it to a Job.
func (f File) Resolve() (Job, error) {
	mode, err := magazine.ParseMode(f.Component)
	if err != nil {
		return Job{}, err
	}
	p, err := f.ParamsValue()
	if err != nil {
		return Job{}, err
	}
	if err := p.Validate(); err != nil {
		return Job{}, err
	}
	if err := f.Tunables.Validate(); err != nil {
		return Job{}, err
	}
	if f.Material != "" {
		if _, err := matter.Lookup(f.Material); err != nil {
			return Job{}, fmt.Errorf("%w: %w", magazine.ErrInvalidParameter, err)
		}
	}
	format, err := export.ParseFormat(f.Output.Format)
	if err != nil {
		return Job{}, err
	}
	if f.Output.Path == "" {
		return Job{}, fmt.Errorf("%w: output path is empty", magazine.ErrInvalidParameter)
	}
	return Job{
		Mode:     mode,
		Params:   p,
		Config:   f.Tunables,
		Material: f.Material,
		Path:     f.Output.Path,
		Options:  export.Options{Format: format, ASCII: f.Output.ASCII},
		Preview:  f.Output.Preview,
		Drawing:  f.Output.Drawing,
	}, nil
}

// Marshal encodes f as YAML.
func (f File) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
