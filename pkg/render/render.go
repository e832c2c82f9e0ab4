// Package render drives an arpeggiator module with a synthetic clock and
// turns its gate and pitch outputs into MIDI notes, either offline into a
// Standard MIDI File or live to an output port.
package render

import (
	"errors"
	"fmt"
	"math"

	"github.com/james-see/arp32/pkg/arp"
	"github.com/james-see/arp32/pkg/patch"
)

// Defaults
const (
	DefaultBPM           = 120.0
	DefaultPulsesPerBeat = 4 // 16th notes
	DefaultControlRate   = 1000.0
	DefaultSteps         = 16
	DefaultVelocity      = 100

	// Tempo range. The SMF tempo event holds 24 bits of microseconds per
	// beat, which rules out anything much slower than 4 BPM.
	MinBPM = 10.0
	MaxBPM = 999.0

	// warmupFrames keeps the clock low while the module settles
	warmupFrames = 16
)

// Config describes a clocked run
type Config struct {
	Patch         patch.Patch
	BPM           float64
	PulsesPerBeat int     // Clock pulses per quarter note
	ControlRate   float64 // Module ticks per second
	Steps         int     // Sounding steps; 0 with Play means run until cancelled
	Root          float64 // Root pitch in volts (0V = C4)
	Hold          bool
	Seed          uint64
	Channel       uint8
	Velocity      uint8

	// Trace, if not nil, receives the sequencer's state transitions
	Trace func(arp.Event)
}

// DefaultConfig returns a config rendering 16 steps of the default patch
func DefaultConfig() Config {
	return Config{
		Patch:         patch.Default(),
		BPM:           DefaultBPM,
		PulsesPerBeat: DefaultPulsesPerBeat,
		ControlRate:   DefaultControlRate,
		Steps:         DefaultSteps,
		Velocity:      DefaultVelocity,
	}
}

// Validate checks the config
func (c Config) Validate() error {
	if err := c.Patch.Validate(); err != nil {
		return err
	}
	if !(c.BPM >= MinBPM && c.BPM <= MaxBPM) {
		return fmt.Errorf("invalid tempo %v: must be %v..%v BPM", c.BPM, MinBPM, MaxBPM)
	}
	if c.PulsesPerBeat <= 0 {
		return fmt.Errorf("invalid pulses per beat %d", c.PulsesPerBeat)
	}
	if c.ControlRate <= 0 || math.IsNaN(c.ControlRate) || math.IsInf(c.ControlRate, 0) {
		return fmt.Errorf("invalid control rate %v", c.ControlRate)
	}
	if c.Steps < 0 {
		return fmt.Errorf("invalid step count %d", c.Steps)
	}
	if c.Channel > 15 {
		return fmt.Errorf("invalid MIDI channel %d", c.Channel)
	}
	if c.Velocity > 127 {
		return fmt.Errorf("invalid velocity %d", c.Velocity)
	}
	if c.FramesPerPulse() < 2 {
		return errors.New("control rate too low for tempo: need at least 2 ticks per clock pulse")
	}
	return nil
}

// PulseSeconds returns the clock period
func (c Config) PulseSeconds() float64 {
	return 60.0 / (c.BPM * float64(c.PulsesPerBeat))
}

// FramesPerPulse returns the number of module ticks per clock pulse
func (c Config) FramesPerPulse() int {
	return int(math.Round(c.PulseSeconds() * c.ControlRate))
}

// Frames returns the number of module ticks a run of Steps takes, or -1
// when Steps is 0 and the run is open-ended. The first pulse starts the
// cycle without sounding, so Steps notes need Steps+1 pulses.
func (c Config) Frames() int {
	if c.Steps == 0 {
		return -1
	}
	return warmupFrames + (c.Steps+1)*c.FramesPerPulse()
}

// VoltsToKey converts a 1V/octave pitch to a MIDI key, 0V being middle C
func VoltsToKey(v float64) uint8 {
	k := 60 + math.Round(v*12)
	if k < 0 {
		return 0
	}
	if k > 127 {
		return 127
	}
	return uint8(k)
}

// EventKind identifies a performance event
type EventKind int

const (
	NoteOn EventKind = iota
	NoteOff
	EndOfCycle
)

// Event is a note or end-of-cycle event produced by the tracker
type Event struct {
	Kind  EventKind
	Key   uint8
	Volts float64
}

// tracker turns per-tick outputs into note events
type tracker struct {
	active bool
	key    uint8
	eoc    bool
}

func (t *tracker) update(out arp.Output, emit func(Event)) {
	key := VoltsToKey(out.Pitch)
	if t.active && (!out.Gate || key != t.key) {
		emit(Event{Kind: NoteOff, Key: t.key})
		t.active = false
	}
	if out.Gate && !t.active {
		emit(Event{Kind: NoteOn, Key: key, Volts: out.Pitch})
		t.active = true
		t.key = key
	}
	if out.EOC && !t.eoc {
		emit(Event{Kind: EndOfCycle})
	}
	t.eoc = out.EOC
}

// flush releases a sounding note
func (t *tracker) flush(emit func(Event)) {
	if t.active {
		emit(Event{Kind: NoteOff, Key: t.key})
		t.active = false
	}
}

// Step records the module output on one clock edge
type Step struct {
	Pulse  int
	Time   float64 // Seconds from the first sounding step
	Index  int     // Cursor position after the edge
	Output arp.Output
	State  arp.State
}

// driver clocks a module frame by frame
type driver struct {
	cfg            Config
	module         *arp.Module
	framesPerPulse int
	frame          int
	total          int // Frames to run; the first pulse starts the cycle without sounding
	tracker        tracker
}

func newDriver(cfg Config) *driver {
	m := arp.NewModule(arp.NewSeeded(cfg.Seed))
	cfg.Patch.Apply(m)
	m.Sequencer().OnEvent = cfg.Trace
	return &driver{cfg: cfg, module: m, framesPerPulse: cfg.FramesPerPulse(), total: cfg.Frames()}
}

func (d *driver) done() bool {
	return d.total >= 0 && d.frame >= d.total
}

// seconds returns the time of frame f relative to the first sounding step
func (d *driver) seconds(f int) float64 {
	origin := warmupFrames + d.framesPerPulse
	return float64(f-origin) / d.cfg.ControlRate
}

// step runs one frame. It reports the pulse number when a clock edge
// occurred on this frame, or -1.
func (d *driver) step(emit func(Event)) (arp.Output, int) {
	pulse := -1
	clock := 0.0
	if f := d.frame - warmupFrames; f >= 0 {
		if f%d.framesPerPulse < d.framesPerPulse/2 {
			clock = arp.HighVolts
		}
		if f%d.framesPerPulse == 0 {
			pulse = f / d.framesPerPulse
		}
	}

	var hold float64
	if d.cfg.Hold {
		hold = arp.HighVolts
	}

	jacks := arp.Jacks{
		Clock: arp.Jack{Volts: clock, Connected: true},
		Pitch: arp.Jack{Volts: d.cfg.Root, Connected: true},
		Hold:  arp.Jack{Volts: hold, Connected: d.cfg.Hold},
	}
	out := d.module.Process(jacks, 1/d.cfg.ControlRate)
	d.tracker.update(out, emit)
	d.frame++
	return out, pulse
}

// Note is a rendered note
type Note struct {
	Start float64 // Seconds
	End   float64
	Key   uint8
	Volts float64
}

// Performance is the result of an offline run
type Performance struct {
	Config   Config
	Notes    []Note
	EOCs     []float64 // End-of-cycle pulse times in seconds
	Steps    []Step
	Duration float64
}

// Run renders cfg offline
func Run(cfg Config) (*Performance, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Steps == 0 {
		return nil, errors.New("offline render needs a step count")
	}

	d := newDriver(cfg)
	perf := &Performance{Config: cfg}

	open := -1
	var now float64
	emit := func(e Event) {
		switch e.Kind {
		case NoteOn:
			perf.Notes = append(perf.Notes, Note{Start: now, End: now, Key: e.Key, Volts: e.Volts})
			open = len(perf.Notes) - 1
		case NoteOff:
			if open >= 0 {
				perf.Notes[open].End = now
				open = -1
			}
		case EndOfCycle:
			perf.EOCs = append(perf.EOCs, now)
		}
	}

	seq := d.module.Sequencer()
	for !d.done() {
		now = d.seconds(d.frame)
		out, pulse := d.step(emit)
		if pulse >= 0 {
			perf.Steps = append(perf.Steps, Step{
				Pulse:  pulse,
				Time:   now,
				Index:  seq.Cursor().Index(),
				Output: out,
				State:  seq.State(),
			})
		}
	}
	now = d.seconds(d.frame)
	d.tracker.flush(emit)
	perf.Duration = now

	// Triggers are too short to hear; stretch them to half a pulse
	minLen := cfg.PulseSeconds() / 2
	for i := range perf.Notes {
		n := &perf.Notes[i]
		if n.End-n.Start >= minLen {
			continue
		}
		end := n.Start + minLen
		if i+1 < len(perf.Notes) && perf.Notes[i+1].Start < end {
			end = perf.Notes[i+1].Start
		}
		if end > n.End {
			n.End = end
		}
	}

	return perf, nil
}
