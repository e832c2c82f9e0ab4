package arp

import (
	"math"
	"reflect"
	"testing"
)

func baseInput() Input {
	return Input{
		ClockConnected: true,
		Shape:          Diverge,
		Length:         4,
		StepSize:       2,
		Scale:          Semitone,
		GateMode:       Trigger,
	}
}

func clockEdge(s *Sequencer, in Input) Output {
	in.ClockEdge = true
	return s.Tick(in)
}

func clockRest(s *Sequencer, in Input) Output {
	in.ClockEdge = false
	return s.Tick(in)
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSequencerFirstCycle(t *testing.T) {
	s := NewSeeded(1)
	in := baseInput()

	out := clockEdge(s, in)
	if s.State() != Running {
		t.Fatalf("State() after first edge = %v, want Running", s.State())
	}
	if out.Gate || out.EOC {
		t.Errorf("start edge output = %+v, want no gate and no EOC", out)
	}

	for i, want := range []int{0, 2, 4, 6} {
		out = clockEdge(s, in)
		if out.Offset != want {
			t.Errorf("edge %d: Offset = %d, want %d", i+2, out.Offset, want)
		}
		if !approx(out.Pitch, float64(want)/12) {
			t.Errorf("edge %d: Pitch = %v, want %v", i+2, out.Pitch, float64(want)/12)
		}
		if !out.Gate {
			t.Errorf("edge %d: Gate should be high", i+2)
		}
		if out.EOC {
			t.Errorf("edge %d: EOC should not fire yet", i+2)
		}
		if rest := clockRest(s, in); rest.Gate || rest.EOC {
			t.Errorf("tick after edge %d = %+v, want gate and EOC low", i+2, rest)
		}
	}

	if !s.EOCPending() {
		t.Error("EOC should be latched after the last step")
	}

	out = clockEdge(s, in)
	if !out.EOC {
		t.Error("EOC should fire one edge after the last step")
	}
	if out.Offset != 0 {
		t.Errorf("first step of next cycle Offset = %d, want 0", out.Offset)
	}
	if rest := clockRest(s, in); rest.EOC {
		t.Error("EOC should last a single tick")
	}
}

func TestSequencerRootPitchCapturedPerCycle(t *testing.T) {
	s := NewSeeded(1)
	in := baseInput()
	in.Length = 2
	in.Pitch = 1.0

	clockEdge(s, in)
	in.Pitch = 3.0
	if out := clockEdge(s, in); !approx(out.Pitch, 1.0) {
		t.Errorf("Pitch = %v, want 1.0 (root captured at cycle start)", out.Pitch)
	}
	if out := clockEdge(s, in); !approx(out.Pitch, 1.0+2.0/12) {
		t.Errorf("Pitch = %v, want %v", out.Pitch, 1.0+2.0/12)
	}
	if out := clockEdge(s, in); !approx(out.Pitch, 3.0) {
		t.Errorf("Pitch = %v, want 3.0 after restart", out.Pitch)
	}
	if s.RootPitch() != 3.0 {
		t.Errorf("RootPitch() = %v, want 3.0", s.RootPitch())
	}
}

func TestSequencerPitchClamped(t *testing.T) {
	s := NewSeeded(1)
	in := baseInput()
	in.Shape = FixedRez
	in.Pitch = 9.5

	clockEdge(s, in)
	clockEdge(s, in)
	out := clockEdge(s, in)
	if out.Offset != 12 {
		t.Fatalf("Offset = %d, want 12", out.Offset)
	}
	if out.Pitch != MaxVolts {
		t.Errorf("Pitch = %v, want %v", out.Pitch, MaxVolts)
	}
}

func TestSequencerParamsFrozenDuringCycle(t *testing.T) {
	s := NewSeeded(1)
	in := baseInput()
	clockEdge(s, in)
	clockEdge(s, in)

	in.StepSize = 5
	in.Length = 2
	if out := clockEdge(s, in); out.Offset != 2 {
		t.Errorf("Offset = %d, want 2 (parameters change only at restart)", out.Offset)
	}
	if s.Params().StepSize != 2 {
		t.Errorf("Params().StepSize = %d, want 2", s.Params().StepSize)
	}
}

func TestSequencerClockLoss(t *testing.T) {
	s := NewSeeded(1)
	in := baseInput()
	clockEdge(s, in)
	clockEdge(s, in)
	clockEdge(s, in)

	lost := in
	lost.ClockConnected = false
	s.Tick(lost)
	if s.State() != Idle {
		t.Fatalf("State() after clock loss = %v, want Idle", s.State())
	}
	if out := clockRest(s, lost); out.Gate {
		t.Error("Gate should be low while idle")
	}

	in.Length = 2
	in.StepSize = 5
	clockEdge(s, in)
	if s.State() != Running {
		t.Fatalf("State() after reconnect edge = %v, want Running", s.State())
	}
	for i, want := range []int{0, 5} {
		if out := clockEdge(s, in); out.Offset != want {
			t.Errorf("step %d after reconnect: Offset = %d, want %d", i, out.Offset, want)
		}
	}
}

func TestSequencerHold(t *testing.T) {
	s := NewSeeded(1)
	in := baseInput()
	in.StepSize = 1
	in.Offset = 1

	clockEdge(s, in)
	for _, want := range []int{1, 2} {
		if out := clockEdge(s, in); out.Offset != want {
			t.Fatalf("Offset = %d, want %d", out.Offset, want)
		}
	}

	in.Hold = true
	in.StepSize = 5
	in.Pitch = 2.0
	if out := clockEdge(s, in); out.Offset != 3 {
		t.Fatalf("last step Offset = %d, want 3", out.Offset)
	}
	out := clockEdge(s, in)
	if out.Offset != 1 {
		t.Errorf("held replay Offset = %d, want 1 (same table from start offset)", out.Offset)
	}
	if !approx(out.Pitch, 1.0/12) {
		t.Errorf("held replay Pitch = %v, want %v (root not recaptured)", out.Pitch, 1.0/12)
	}
	if !out.EOC {
		t.Error("EOC should still fire on a held replay")
	}
}

func TestSequencerHoldBeforeFirstCycle(t *testing.T) {
	s := NewSeeded(1)
	in := baseInput()
	in.Hold = true
	clockEdge(s, in)
	if s.Cursor().Len() != 4 {
		t.Fatalf("Cursor().Len() = %d, want 4 (hold with no table generates one)", s.Cursor().Len())
	}
	if out := clockEdge(s, in); out.Offset != 0 || !out.Gate {
		t.Errorf("first step = %+v, want offset 0 with gate", out)
	}
}

func TestSequencerRandomize(t *testing.T) {
	r := &scriptedRand{draws: []int{0, 3}}
	s := New(r)
	in := baseInput()

	idle := in
	idle.RandomizeEdge = true
	s.Tick(idle)
	if r.calls != 0 {
		t.Fatalf("randomize while idle drew %d times, want 0", r.calls)
	}

	clockEdge(s, in)
	held := in
	held.RandomizeEdge = true
	held.Hold = true
	s.Tick(held)
	if r.calls != 0 {
		t.Fatalf("randomize under hold drew %d times, want 0", r.calls)
	}

	rnd := in
	rnd.RandomizeEdge = true
	s.Tick(rnd)
	table := s.Cursor().Table()
	if got, want := table.Notes(), []int{6, 2, 4, 0}; !reflect.DeepEqual(got, want) {
		t.Errorf("table after randomize = %v, want %v", got, want)
	}
	if out := clockEdge(s, in); out.Offset != 6 {
		t.Errorf("Offset = %d, want 6 after randomize", out.Offset)
	}
}

func TestSequencerLengthZero(t *testing.T) {
	s := NewSeeded(1)
	in := baseInput()
	clockEdge(s, in)
	prev := clockEdge(s, in)
	index := s.Cursor().Index()

	zero := in
	zero.Length = 0
	zero.ClockConnected = false
	out := clockEdge(s, zero)
	if out != prev {
		t.Errorf("length zero output = %+v, want unchanged %+v", out, prev)
	}
	if s.State() != Running {
		t.Errorf("State() = %v, want Running (length zero is a no-op)", s.State())
	}
	if s.Cursor().Index() != index {
		t.Errorf("Cursor().Index() = %d, want %d", s.Cursor().Index(), index)
	}
}

func TestSequencerLengthZeroEventOnce(t *testing.T) {
	s := NewSeeded(1)
	zeros := 0
	s.OnEvent = func(e Event) {
		if e.Kind == EventLengthZero {
			zeros++
		}
	}

	in := baseInput()
	zero := in
	zero.Length = 0
	for i := 0; i < 100; i++ {
		s.Tick(zero)
	}
	if zeros != 1 {
		t.Fatalf("length-zero events = %d, want 1 for one zero-length stretch", zeros)
	}

	clockEdge(s, in)
	for i := 0; i < 100; i++ {
		s.Tick(zero)
	}
	if zeros != 2 {
		t.Errorf("length-zero events = %d, want 2 after leaving and re-entering", zeros)
	}
}

func TestSequencerGateModes(t *testing.T) {
	tests := []struct {
		mode      GateMode
		onEdge    bool
		betweenIt bool
	}{
		{Trigger, true, false},
		{Retrigger, false, true},
		{Continuous, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			s := NewSeeded(1)
			in := baseInput()
			in.GateMode = tt.mode

			if out := clockRest(s, in); out.Gate {
				t.Error("Gate should be low before the first cycle")
			}
			clockEdge(s, in)
			if out := clockEdge(s, in); out.Gate != tt.onEdge {
				t.Errorf("Gate on step edge = %v, want %v", out.Gate, tt.onEdge)
			}
			if out := clockRest(s, in); out.Gate != tt.betweenIt {
				t.Errorf("Gate between steps = %v, want %v", out.Gate, tt.betweenIt)
			}
		})
	}
}

func TestSequencerPulseWidth(t *testing.T) {
	s := NewSeeded(1)
	in := baseInput()
	in.SampleTime = 1.0 / 48000
	clockEdge(s, in)
	clockEdge(s, in)

	high := 1
	for i := 0; i < 200; i++ {
		if clockRest(s, in).Gate {
			high++
		}
	}
	// 1 ms at 48 kHz
	if high < 47 || high > 49 {
		t.Errorf("gate pulse lasted %d ticks, want about 48", high)
	}
}

func TestSequencerEvents(t *testing.T) {
	s := NewSeeded(1)
	var kinds []EventKind
	s.OnEvent = func(e Event) { kinds = append(kinds, e.Kind) }

	in := baseInput()
	in.Length = 1
	clockEdge(s, in)
	clockEdge(s, in)
	lost := in
	lost.ClockConnected = false
	s.Tick(lost)

	expected := []EventKind{EventCycleStart, EventCycleFinished, EventCycleStart, EventClockLost}
	if !reflect.DeepEqual(kinds, expected) {
		t.Errorf("events = %v, want %v", kinds, expected)
	}
}

func TestSequencerReset(t *testing.T) {
	s := NewSeeded(1)
	in := baseInput()
	in.Length = 1
	clockEdge(s, in)
	clockEdge(s, in)
	s.Reset()
	if s.State() != Idle || s.EOCPending() {
		t.Errorf("after Reset: State() = %v, EOCPending() = %v, want Idle and false", s.State(), s.EOCPending())
	}
}

func BenchmarkSequencerTick(b *testing.B) {
	s := NewSeeded(1)
	in := baseInput()
	in.Shape = Bounce
	in.Length = 16
	in.SampleTime = 1.0 / 48000

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		in.ClockEdge = i%2400 == 0
		in.RandomizeEdge = i%9600 == 0
		s.Tick(in)
	}
}
