package arp

// warmupTicks is how many ticks the module ignores while inputs settle
const warmupTicks = 10

// holdThreshold is the hold input level above which hold is asserted
const holdThreshold = 0.001

// Jack is a voltage input
type Jack struct {
	Volts     float64
	Connected bool
}

// Jacks is the set of module inputs sampled on one tick
type Jacks struct {
	Clock     Jack
	Pitch     Jack
	Pattern   Jack
	Length    Jack
	StepSize  Jack
	Hold      Jack
	Randomize Jack
}

// Knobs holds the configured panel values. A connected jack overrides
// the matching knob.
type Knobs struct {
	Pattern  int
	Length   int
	StepSize int
	Scale    int
	Offset   int
}

// DefaultKnobs returns the panel defaults
func DefaultKnobs() Knobs {
	return Knobs{Pattern: int(Diverge), Length: 1, StepSize: 1, Scale: int(Semitone)}
}

// Preferences are the user settings persisted outside a patch cycle
type Preferences struct {
	GateMode   GateMode
	RepeatLast bool
}

// Module adapts voltage jacks and knobs to a Sequencer
type Module struct {
	Knobs Knobs
	Prefs Preferences

	seq       *Sequencer
	clock     SchmittTrigger
	randomize SchmittTrigger
	steps     int
	last      Input
}

// NewModule creates a module around seq. A nil seq gets a fresh sequencer.
func NewModule(seq *Sequencer) *Module {
	if seq == nil {
		seq = New(nil)
	}
	return &Module{Knobs: DefaultKnobs(), seq: seq}
}

// Sequencer returns the wrapped sequencer
func (m *Module) Sequencer() *Sequencer {
	return m.seq
}

// Reset returns the module to Idle and restarts the warm-up
func (m *Module) Reset() {
	m.seq.Reset()
	m.clock.Reset()
	m.randomize.Reset()
	m.steps = 0
}

// LastInput returns the snapshot resolved on the most recent tick
func (m *Module) LastInput() Input {
	return m.last
}

// Process samples the jacks for one tick and returns the outputs
func (m *Module) Process(j Jacks, sampleTime float64) Output {
	m.steps++
	if m.steps <= warmupTicks {
		return m.seq.Output()
	}

	in := m.Resolve(j)
	in.SampleTime = sampleTime
	in.ClockEdge = m.clock.Process(j.Clock.Volts)
	in.RandomizeEdge = j.Randomize.Connected && m.randomize.Process(j.Randomize.Volts)
	m.last = in
	return m.seq.Tick(in)
}

// Resolve builds the parameter snapshot from jacks and knobs without
// touching the edge detectors.
func (m *Module) Resolve(j Jacks) Input {
	in := Input{
		ClockConnected: j.Clock.Connected,
		Shape:          Shape(clampInt(pick(j.Pattern, m.Knobs.Pattern), 0, NumShapes-1)),
		Length:         clampInt(pick(j.Length, m.Knobs.Length), 0, MaxLength),
		StepSize:       clampInt(pick(j.StepSize, m.Knobs.StepSize), -MaxStepSize, MaxStepSize),
		Scale:          ScaleMode(clampInt(m.Knobs.Scale, 0, NumScaleModes-1)),
		Offset:         clampInt(m.Knobs.Offset, 0, MaxOffset),
		Hold:           j.Hold.Connected && j.Hold.Volts > holdThreshold,
		GateMode:       m.Prefs.GateMode,
		RepeatLast:     m.Prefs.RepeatLast,
	}
	if j.Pitch.Connected {
		in.Pitch = j.Pitch.Volts
	}
	return in
}

// pick returns the jack voltage truncated toward zero if connected,
// otherwise the knob value.
func pick(j Jack, knob int) int {
	if j.Connected {
		return int(j.Volts)
	}
	return knob
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
