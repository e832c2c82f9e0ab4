package arp

import (
	"fmt"
	"math/rand/v2"
)

// Output pitch range in volts
const (
	MinVolts = -10.0
	MaxVolts = 10.0

	// SemitoneVolts is one semitone at 1V/octave
	SemitoneVolts = 1.0 / 12.0
)

// GateMode shapes the gate output relative to the per-step pulse
type GateMode int

const (
	// Trigger raises the gate only during the step pulse
	Trigger GateMode = iota
	// Retrigger holds the gate high except for a short blip during the pulse
	Retrigger
	// Continuous holds the gate high while running
	Continuous
)

// NumGateModes is the number of gate modes
const NumGateModes = 3

var gateModeNames = [NumGateModes]string{"Trigger", "Retrigger", "Continuous"}
var gateModeSlugs = [NumGateModes]string{"trigger", "retrigger", "continuous"}

// String returns the display name of the gate mode
func (g GateMode) String() string {
	if g < 0 || int(g) >= NumGateModes {
		return fmt.Sprintf("GateMode(%d)", int(g))
	}
	return gateModeNames[g]
}

// MarshalText encodes the gate mode by slug
func (g GateMode) MarshalText() ([]byte, error) {
	if g < 0 || int(g) >= NumGateModes {
		return nil, fmt.Errorf("invalid gate mode %d", int(g))
	}
	return []byte(gateModeSlugs[g]), nil
}

// UnmarshalText accepts a slug, display name or numeric index
func (g *GateMode) UnmarshalText(text []byte) error {
	i, err := lookup(string(text), gateModeSlugs[:], gateModeNames[:])
	if err != nil {
		return fmt.Errorf("gate mode: %w", err)
	}
	*g = GateMode(i)
	return nil
}

// GateModes returns all gate modes in index order
func GateModes() []GateMode {
	return []GateMode{Trigger, Retrigger, Continuous}
}

// State is the sequencer run state
type State int

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "Running"
	}
	return "Idle"
}

// Input is the per-tick parameter snapshot
type Input struct {
	ClockEdge      bool    // Rising clock edge this tick
	ClockConnected bool    // Clock source present
	Pitch          float64 // Root pitch in volts, 0 if unconnected
	Shape          Shape
	Length         int
	StepSize       int
	Scale          ScaleMode
	Offset         int
	Hold           bool // Replay the current table instead of regenerating
	RandomizeEdge  bool // Rising randomize trigger this tick
	GateMode       GateMode
	RepeatLast     bool
	SampleTime     float64 // Seconds per tick; 0 gives one-tick pulses
}

// Output is the per-tick output record
type Output struct {
	Pitch  float64 // Volts, clamped to ±10V
	Offset int     // Semitone offset of the last played step
	Gate   bool
	EOC    bool
}

// GateVolts returns the gate level
func (o Output) GateVolts() float64 {
	if o.Gate {
		return HighVolts
	}
	return LowVolts
}

// EOCVolts returns the end-of-cycle level
func (o Output) EOCVolts() float64 {
	if o.EOC {
		return HighVolts
	}
	return LowVolts
}

// EventKind identifies a trace event
type EventKind int

const (
	EventCycleStart EventKind = iota
	EventCycleFinished
	EventHoldReplay
	EventRandomize
	EventClockLost
	EventLengthZero // Emitted once on entering the zero-length state
)

var eventNames = [...]string{"cycle-start", "cycle-finished", "hold-replay", "randomize", "clock-lost", "length-zero"}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventNames) {
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
	return eventNames[k]
}

// Event is a trace record passed to Sequencer.OnEvent
type Event struct {
	Kind   EventKind
	Tick   uint64
	Shape  Shape
	Params Params
	Root   float64
	Offset int
}

// Sequencer is the clock-driven arpeggio controller. It is not safe for
// concurrent use; drive it from a single callback.
type Sequencer struct {
	// OnEvent, when set, receives trace events. It runs on the tick path.
	OnEvent func(Event)

	cursor     Cursor
	loaded     bool
	state      State
	shape      Shape
	params     Params
	rootPitch  float64
	outVolts   float64
	lastOffset int
	eocPending bool
	gateMode   GateMode
	zeroLength bool // Length was 0 on the previous tick

	gatePulse PulseGenerator
	eocPulse  PulseGenerator

	rng  Rand
	tick uint64
	out  Output
}

// New creates an idle sequencer. A nil rng falls back to a randomly seeded
// PCG source.
func New(rng Rand) *Sequencer {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Sequencer{rng: rng}
}

// NewSeeded creates an idle sequencer with a deterministic random source
func NewSeeded(seed uint64) *Sequencer {
	return New(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// Reset returns to Idle and clears pending pulses. The gate mode and the
// last output pitch are kept.
func (s *Sequencer) Reset() {
	s.state = Idle
	s.eocPending = false
	s.gatePulse.Reset()
	s.eocPulse.Reset()
}

// Tick advances the sequencer by one control-rate sample
func (s *Sequencer) Tick(in Input) Output {
	s.tick++

	if in.Length <= 0 {
		if !s.zeroLength {
			s.zeroLength = true
			s.emit(Event{Kind: EventLengthZero})
		}
		return s.out
	}
	s.zeroLength = false

	s.gateMode = in.GateMode

	if !in.ClockConnected && s.state == Running {
		s.state = Idle
		s.emit(Event{Kind: EventClockLost})
	}

	restart := false

	if in.ClockEdge {
		// EOC latched by the previous edge fires now
		if s.eocPending {
			s.eocPulse.Trigger(TriggerDuration)
			s.eocPending = false
		}

		if s.state == Running {
			if s.cursor.Finished() {
				s.eocPending = true
				restart = true
				s.emit(Event{Kind: EventCycleFinished})
			}

			s.lastOffset = s.cursor.Offset()
			s.outVolts = clamp(s.rootPitch+SemitoneVolts*float64(s.lastOffset), MinVolts, MaxVolts)
			s.gatePulse.Trigger(TriggerDuration)
			s.cursor.Advance()
		} else {
			restart = true
		}
	}

	if in.RandomizeEdge && s.state == Running && !in.Hold {
		s.cursor.Randomize(s.rng)
		s.emit(Event{Kind: EventRandomize})
	}

	if restart {
		s.restart(in)
	}

	gPulse := s.gatePulse.Process(in.SampleTime)
	cPulse := s.eocPulse.Process(in.SampleTime)

	gate := s.state == Running
	switch s.gateMode {
	case Trigger:
		gate = gate && gPulse
	case Retrigger:
		gate = gate && !gPulse
	}

	s.out = Output{
		Pitch:  s.outVolts,
		Offset: s.lastOffset,
		Gate:   gate,
		EOC:    cPulse,
	}
	return s.out
}

// restart begins a new cycle, or replays the current one under hold
func (s *Sequencer) restart(in Input) {
	if in.Hold && s.loaded {
		s.cursor.Reset()
		s.state = Running
		s.emit(Event{Kind: EventHoldReplay})
		return
	}

	s.shape = in.Shape
	if s.shape < 0 || int(s.shape) >= NumShapes {
		s.shape = Diverge
	}
	s.params = Params{
		Length:     in.Length,
		StepSize:   in.StepSize,
		Scale:      in.Scale,
		Offset:     in.Offset,
		RepeatLast: in.RepeatLast,
	}
	s.rootPitch = in.Pitch
	s.cursor.Load(s.shape, s.params)
	s.loaded = true
	s.state = Running
	s.emit(Event{Kind: EventCycleStart})
}

func (s *Sequencer) emit(e Event) {
	if s.OnEvent == nil {
		return
	}
	e.Tick = s.tick
	e.Shape = s.shape
	e.Params = s.params
	e.Root = s.rootPitch
	e.Offset = s.lastOffset
	s.OnEvent(e)
}

// State returns the run state
func (s *Sequencer) State() State {
	return s.state
}

// Running reports whether a cycle is in progress
func (s *Sequencer) Running() bool {
	return s.state == Running
}

// Cursor returns a copy of the active pattern cursor
func (s *Sequencer) Cursor() Cursor {
	return s.cursor
}

// Shape returns the shape of the active cycle
func (s *Sequencer) Shape() Shape {
	return s.shape
}

// Params returns the parameters captured for the active cycle
func (s *Sequencer) Params() Params {
	return s.params
}

// RootPitch returns the pitch captured at the last cycle start
func (s *Sequencer) RootPitch() float64 {
	return s.rootPitch
}

// EOCPending reports whether an end-of-cycle pulse is latched for the next edge
func (s *Sequencer) EOCPending() bool {
	return s.eocPending
}

// Output returns the most recent output
func (s *Sequencer) Output() Output {
	return s.out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
