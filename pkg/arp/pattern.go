package arp

import "fmt"

// Pattern limits
const (
	MaxLength   = 16            // Maximum steps in a generated ramp
	MaxTableLen = 2 * MaxLength // Room for the symmetric shapes
	MaxStepSize = 24            // Largest step size magnitude
	MaxOffset   = 10            // Largest configurable start offset
)

// Shape selects the pattern generation algorithm
type Shape int

const (
	Diverge Shape = iota
	Converge
	Return
	Bounce
	FixedRez
	FixedOnTheRun
)

// NumShapes is the number of selectable pattern shapes
const NumShapes = 6

var shapeNames = [NumShapes]string{"Diverge", "Converge", "Return", "Bounce", "Rez", "On The Run"}
var shapeSlugs = [NumShapes]string{"diverge", "converge", "return", "bounce", "rez", "ontherun"}

// Preset riffs, semitones above the root.
var (
	rezNotes      = [...]int{0, 12, 0, 0, 8, 0, 0, 3, 0, 0, 3, 0, 3, 0, 8, 0}
	onTheRunNotes = [...]int{0, 4, 6, 4, 9, 11, 13, 11}
)

// String returns the display name of the shape
func (s Shape) String() string {
	if s < 0 || int(s) >= NumShapes {
		return fmt.Sprintf("Shape(%d)", int(s))
	}
	return shapeNames[s]
}

// Fixed reports whether the shape replays a preset riff and ignores
// length, step size and scale.
func (s Shape) Fixed() bool {
	return s == FixedRez || s == FixedOnTheRun
}

// MarshalText encodes the shape by slug
func (s Shape) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= NumShapes {
		return nil, fmt.Errorf("invalid shape %d", int(s))
	}
	return []byte(shapeSlugs[s]), nil
}

// UnmarshalText accepts a slug, display name or numeric index
func (s *Shape) UnmarshalText(text []byte) error {
	i, err := lookup(string(text), shapeSlugs[:], shapeNames[:])
	if err != nil {
		return fmt.Errorf("shape: %w", err)
	}
	*s = Shape(i)
	return nil
}

// Shapes returns all shapes in index order
func Shapes() []Shape {
	return []Shape{Diverge, Converge, Return, Bounce, FixedRez, FixedOnTheRun}
}

// Params fully determines the note table of a non-fixed shape.
// It is captured once per cycle and never changes while the cycle runs.
type Params struct {
	Length     int       // Steps in the ramp (1..16)
	StepSize   int       // Scale-degree distance per step (-24..24)
	Scale      ScaleMode // How step counts map to semitones
	Offset     int       // Table index the cycle starts from
	RepeatLast bool      // Symmetric shapes revisit their first note
}

// NoteTable is an ordered sequence of semitone offsets relative to the
// cycle's root pitch. It is stored inline so that regeneration never
// allocates.
type NoteTable struct {
	notes [MaxTableLen]int
	n     int
}

// Len returns the number of entries
func (t NoteTable) Len() int {
	return t.n
}

// At returns entry i, or 0 if i is out of range
func (t NoteTable) At(i int) int {
	if i < 0 || i >= t.n {
		return 0
	}
	return t.notes[i]
}

// Notes returns a copy of the table entries
func (t NoteTable) Notes() []int {
	out := make([]int, t.n)
	copy(out, t.notes[:t.n])
	return out
}

func (t *NoteTable) push(v int) {
	if t.n < MaxTableLen {
		t.notes[t.n] = v
		t.n++
	}
}

func (t *NoteTable) swap(i, j int) {
	t.notes[i], t.notes[j] = t.notes[j], t.notes[i]
}

// Generate builds the note table for one full cycle of shape.
// Length is clamped into 1..MaxLength; the result is never empty.
func Generate(shape Shape, p Params) NoteTable {
	var t NoteTable

	length := p.Length
	if length < 1 {
		length = 1
	} else if length > MaxLength {
		length = MaxLength
	}

	// note maps a scale-degree count to semitones
	note := func(count int) int {
		return MapInterval(count*p.StepSize, p.Scale)
	}

	// Symmetric shapes stop one short of the starting note unless RepeatLast
	end := 1
	if p.RepeatLast {
		end = 0
	}

	switch shape {
	case Converge:
		for c := length - 1; c >= 0; c-- {
			t.push(note(c))
		}
	case Return:
		for c := 0; c < length; c++ {
			t.push(note(c))
		}
		for c := length - 2; c >= end; c-- {
			t.push(note(c))
		}
	case Bounce:
		for c := length - 1; c >= 0; c-- {
			t.push(note(c))
		}
		for c := 1; c <= length-1-end; c++ {
			t.push(note(c))
		}
	case FixedRez:
		for _, v := range rezNotes {
			t.push(v)
		}
	case FixedOnTheRun:
		for _, v := range onTheRunNotes {
			t.push(v)
		}
	default: // Diverge
		for c := 0; c < length; c++ {
			t.push(note(c))
		}
	}

	return t
}
