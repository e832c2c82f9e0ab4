// Package arp implements a clock-driven arpeggio sequencer.
//
// A Sequencer is ticked once per control-rate sample. On clock edges it
// walks a note table generated from a pattern shape and emits pitch, gate
// and end-of-cycle signals.
package arp

import "fmt"

// ScaleMode selects how a step count is turned into semitones
type ScaleMode int

const (
	Semitone ScaleMode = iota
	MajorInterval
	MinorInterval
)

// NumScaleModes is the number of selectable scale modes
const NumScaleModes = 3

// Scale degree tables, one octave.
var (
	majorDegrees = [7]int{0, 2, 4, 5, 7, 9, 11}
	minorDegrees = [7]int{0, 2, 3, 5, 7, 8, 10}
)

var scaleNames = [NumScaleModes]string{"Semitone", "Major interval", "Minor interval"}
var scaleSlugs = [NumScaleModes]string{"semitone", "major", "minor"}
var scaleSuffixes = [NumScaleModes]string{"st", "M", "m"}

// MapInterval converts a step count into a semitone offset.
// Semitone mode returns count unchanged; the interval modes treat count as a
// scale-degree distance, wrapping every 7 degrees into an octave.
func MapInterval(count int, mode ScaleMode) int {
	var table *[7]int
	switch mode {
	case MajorInterval:
		table = &majorDegrees
	case MinorInterval:
		table = &minorDegrees
	default:
		return count
	}

	// Unsigned magnitude so that math.MinInt does not overflow
	mag := uint(count)
	sign := 1
	if count < 0 {
		mag = -mag
		sign = -1
	}
	return sign * (int(mag/7)*12 + table[mag%7])
}

// String returns the display name of the scale mode
func (m ScaleMode) String() string {
	if m < 0 || int(m) >= NumScaleModes {
		return fmt.Sprintf("ScaleMode(%d)", int(m))
	}
	return scaleNames[m]
}

// Suffix returns the short unit label used for step sizes (st, M, m)
func (m ScaleMode) Suffix() string {
	if m < 0 || int(m) >= NumScaleModes {
		return "?"
	}
	return scaleSuffixes[m]
}

// MarshalText encodes the scale mode by slug
func (m ScaleMode) MarshalText() ([]byte, error) {
	if m < 0 || int(m) >= NumScaleModes {
		return nil, fmt.Errorf("invalid scale mode %d", int(m))
	}
	return []byte(scaleSlugs[m]), nil
}

// UnmarshalText accepts a slug or a numeric index
func (m *ScaleMode) UnmarshalText(text []byte) error {
	i, err := lookup(string(text), scaleSlugs[:], scaleNames[:])
	if err != nil {
		return fmt.Errorf("scale mode: %w", err)
	}
	*m = ScaleMode(i)
	return nil
}

// ScaleModes returns all scale modes in index order
func ScaleModes() []ScaleMode {
	return []ScaleMode{Semitone, MajorInterval, MinorInterval}
}
