// Package patch loads and saves arpeggiator settings as YAML files
package patch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/james-see/arp32/pkg/arp"
)

// ErrInvalid is wrapped by every validation failure
var ErrInvalid = errors.New("invalid patch")

// Patch holds the panel settings and persisted preferences
type Patch struct {
	Pattern    arp.Shape     `yaml:"pattern" json:"pattern"`
	Length     int           `yaml:"length" json:"length"`
	StepSize   int           `yaml:"stepSize" json:"stepSize"`
	Scale      arp.ScaleMode `yaml:"scale" json:"scale"`
	Offset     int           `yaml:"offset" json:"offset"`
	GateMode   arp.GateMode  `yaml:"gateMode" json:"gateMode"`
	RepeatLast bool          `yaml:"repeatLast" json:"repeatLast"`
}

// Default returns the panel defaults
func Default() Patch {
	k := arp.DefaultKnobs()
	return Patch{
		Pattern:  arp.Shape(k.Pattern),
		Length:   k.Length,
		StepSize: k.StepSize,
		Scale:    arp.ScaleMode(k.Scale),
		Offset:   k.Offset,
		GateMode: arp.Trigger,
	}
}

// Validate checks every field against its panel range
func (p Patch) Validate() error {
	switch {
	case p.Pattern < 0 || int(p.Pattern) >= arp.NumShapes:
		return fmt.Errorf("%w: pattern %d out of range 0..%d", ErrInvalid, int(p.Pattern), arp.NumShapes-1)
	case p.Length < 1 || p.Length > arp.MaxLength:
		return fmt.Errorf("%w: length %d out of range 1..%d", ErrInvalid, p.Length, arp.MaxLength)
	case p.StepSize < -arp.MaxStepSize || p.StepSize > arp.MaxStepSize:
		return fmt.Errorf("%w: step size %d out of range -%d..%d", ErrInvalid, p.StepSize, arp.MaxStepSize, arp.MaxStepSize)
	case p.Scale < 0 || int(p.Scale) >= arp.NumScaleModes:
		return fmt.Errorf("%w: scale %d out of range 0..%d", ErrInvalid, int(p.Scale), arp.NumScaleModes-1)
	case p.Offset < 0 || p.Offset > arp.MaxOffset:
		return fmt.Errorf("%w: offset %d out of range 0..%d", ErrInvalid, p.Offset, arp.MaxOffset)
	case p.GateMode < 0 || int(p.GateMode) >= arp.NumGateModes:
		return fmt.Errorf("%w: gate mode %d out of range 0..%d", ErrInvalid, int(p.GateMode), arp.NumGateModes-1)
	}
	return nil
}

// Knobs returns the patch as panel knob values
func (p Patch) Knobs() arp.Knobs {
	return arp.Knobs{
		Pattern:  int(p.Pattern),
		Length:   p.Length,
		StepSize: p.StepSize,
		Scale:    int(p.Scale),
		Offset:   p.Offset,
	}
}

// Preferences returns the persisted preferences
func (p Patch) Preferences() arp.Preferences {
	return arp.Preferences{GateMode: p.GateMode, RepeatLast: p.RepeatLast}
}

// Params returns the generator parameters described by the patch
func (p Patch) Params() arp.Params {
	return arp.Params{
		Length:     p.Length,
		StepSize:   p.StepSize,
		Scale:      p.Scale,
		Offset:     p.Offset,
		RepeatLast: p.RepeatLast,
	}
}

// Apply configures a module with the patch
func (p Patch) Apply(m *arp.Module) {
	m.Knobs = p.Knobs()
	m.Prefs = p.Preferences()
}

// Parse decodes YAML patch data. Missing fields keep their defaults.
func Parse(data []byte) (Patch, error) {
	p := Default()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Patch{}, fmt.Errorf("failed to parse patch: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Patch{}, err
	}
	return p, nil
}

// Load reads a patch file
func Load(filename string) (Patch, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Patch{}, fmt.Errorf("failed to read patch file: %w", err)
	}
	return Parse(data)
}

// Marshal encodes the patch as YAML
func (p Patch) Marshal() ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return yaml.Marshal(p)
}

// Save writes the patch to filename, creating parent directories
func (p Patch) Save(filename string) error {
	data, err := p.Marshal()
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filename); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create patch directory: %w", err)
		}
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write patch file: %w", err)
	}
	return nil
}
