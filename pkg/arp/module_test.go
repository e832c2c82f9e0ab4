package arp

import "testing"

func connected(v float64) Jack {
	return Jack{Volts: v, Connected: true}
}

func TestModuleWarmup(t *testing.T) {
	m := NewModule(NewSeeded(1))
	m.Knobs.Length = 4

	j := Jacks{Clock: connected(10)}
	for i := 0; i < warmupTicks; i++ {
		m.Process(j, 0)
		j.Clock.Volts = 10 - j.Clock.Volts
	}
	if m.Sequencer().State() != Idle {
		t.Fatalf("State() during warm-up = %v, want Idle", m.Sequencer().State())
	}

	m.Process(Jacks{Clock: connected(0)}, 0)
	m.Process(Jacks{Clock: connected(10)}, 0)
	if m.Sequencer().State() != Running {
		t.Errorf("State() after warm-up edge = %v, want Running", m.Sequencer().State())
	}
}

func TestModuleClockHysteresis(t *testing.T) {
	m := NewModule(NewSeeded(1))
	m.Knobs.Length = 8
	m.Knobs.StepSize = 1
	for i := 0; i < warmupTicks; i++ {
		m.Process(Jacks{}, 0)
	}

	pulse := func(volts ...float64) {
		for _, v := range volts {
			m.Process(Jacks{Clock: connected(v)}, 0)
		}
	}
	pulse(10, 10, 10, 0.5, 10, 0) // one edge: never fell to 0V in between
	if idx := m.Sequencer().Cursor().Index(); idx != 0 {
		t.Fatalf("Cursor().Index() = %d, want 0 after the start edge only", idx)
	}
	pulse(10, 0, 10, 0)
	if idx := m.Sequencer().Cursor().Index(); idx != 2 {
		t.Errorf("Cursor().Index() = %d, want 2 after two more edges", idx)
	}
}

func TestModuleResolve(t *testing.T) {
	tests := []struct {
		name  string
		knobs Knobs
		jacks Jacks
		check func(Input) bool
	}{
		{"knobs used when unplugged", Knobs{Pattern: 3, Length: 7, StepSize: -3, Scale: 2, Offset: 4}, Jacks{},
			func(in Input) bool {
				return in.Shape == Bounce && in.Length == 7 && in.StepSize == -3 && in.Scale == MinorInterval && in.Offset == 4
			}},
		{"jacks override knobs", Knobs{Pattern: 0, Length: 7, StepSize: 1},
			Jacks{Pattern: connected(4.9), Length: connected(2.7), StepSize: connected(-5.5)},
			func(in Input) bool { return in.Shape == FixedRez && in.Length == 2 && in.StepSize == -5 }},
		{"jacks clamped", DefaultKnobs(),
			Jacks{Pattern: connected(9), Length: connected(30), StepSize: connected(-40)},
			func(in Input) bool { return in.Shape == FixedOnTheRun && in.Length == MaxLength && in.StepSize == -MaxStepSize }},
		{"negative length becomes zero", DefaultKnobs(), Jacks{Length: connected(-3)},
			func(in Input) bool { return in.Length == 0 }},
		{"knobs clamped", Knobs{Pattern: -1, Length: 1, Scale: 5, Offset: 15}, Jacks{},
			func(in Input) bool { return in.Shape == Diverge && in.Scale == MinorInterval && in.Offset == MaxOffset }},
		{"pitch unplugged is zero", DefaultKnobs(), Jacks{Pitch: Jack{Volts: 3}},
			func(in Input) bool { return in.Pitch == 0 }},
		{"pitch plugged", DefaultKnobs(), Jacks{Pitch: connected(-1.25)},
			func(in Input) bool { return in.Pitch == -1.25 }},
		{"hold below threshold", DefaultKnobs(), Jacks{Hold: connected(0.0005)},
			func(in Input) bool { return !in.Hold }},
		{"hold above threshold", DefaultKnobs(), Jacks{Hold: connected(0.002)},
			func(in Input) bool { return in.Hold }},
		{"clock connection passes through", DefaultKnobs(), Jacks{Clock: connected(0)},
			func(in Input) bool { return in.ClockConnected }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewModule(nil)
			m.Knobs = tt.knobs
			in := m.Resolve(tt.jacks)
			if !tt.check(in) {
				t.Errorf("Resolve() = %+v", in)
			}
		})
	}
}

func TestModulePreferences(t *testing.T) {
	m := NewModule(NewSeeded(1))
	m.Prefs = Preferences{GateMode: Continuous, RepeatLast: true}
	in := m.Resolve(Jacks{})
	if in.GateMode != Continuous || !in.RepeatLast {
		t.Errorf("Resolve() preferences = %v/%v, want Continuous/true", in.GateMode, in.RepeatLast)
	}
}

func TestModuleRandomizeJack(t *testing.T) {
	m := NewModule(NewSeeded(1))
	for i := 0; i < warmupTicks; i++ {
		m.Process(Jacks{}, 0)
	}

	m.Process(Jacks{Clock: connected(0), Randomize: Jack{Volts: 10}}, 0)
	if m.LastInput().RandomizeEdge {
		t.Error("unplugged randomize jack should not produce edges")
	}
	m.Process(Jacks{Clock: connected(0), Randomize: connected(10)}, 0)
	if !m.LastInput().RandomizeEdge {
		t.Error("plugged randomize jack should produce an edge")
	}
}

func TestModuleReset(t *testing.T) {
	m := NewModule(NewSeeded(1))
	m.Knobs.Length = 4
	for i := 0; i < warmupTicks; i++ {
		m.Process(Jacks{}, 0)
	}
	m.Process(Jacks{Clock: connected(10)}, 0)
	m.Reset()
	if m.Sequencer().State() != Idle {
		t.Errorf("State() after Reset = %v, want Idle", m.Sequencer().State())
	}
	m.Process(Jacks{Clock: connected(10)}, 0)
	if m.Sequencer().State() != Idle {
		t.Error("Reset() should restart the warm-up")
	}
}
