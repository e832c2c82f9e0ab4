package arp

import (
	"math"
	"testing"
)

func TestMapInterval(t *testing.T) {
	tests := []struct {
		name     string
		count    int
		mode     ScaleMode
		expected int
	}{
		{"semitone passthrough", 5, Semitone, 5},
		{"semitone negative", -13, Semitone, -13},
		{"major root", 0, MajorInterval, 0},
		{"major third", 2, MajorInterval, 4},
		{"major seventh", 6, MajorInterval, 11},
		{"major octave", 7, MajorInterval, 12},
		{"major ninth down", -8, MajorInterval, -14},
		{"minor third", 2, MinorInterval, 3},
		{"minor sixth", 5, MinorInterval, 8},
		{"minor two octaves", 14, MinorInterval, 24},
		{"minor negative", -9, MinorInterval, -15},
		{"unknown mode is semitone", 4, ScaleMode(9), 4},
		{"semitone min int", math.MinInt, Semitone, math.MinInt},
		{"semitone max int", math.MaxInt, Semitone, math.MaxInt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := MapInterval(tt.count, tt.mode)
			if result != tt.expected {
				t.Errorf("MapInterval(%d, %v) = %d, want %d", tt.count, tt.mode, result, tt.expected)
			}
		})
	}
}

func TestMapIntervalExtremes(t *testing.T) {
	for _, mode := range append(ScaleModes(), ScaleMode(9)) {
		for _, count := range []int{math.MinInt, math.MinInt + 1, math.MaxInt - 1, math.MaxInt} {
			func() {
				defer func() {
					if r := recover(); r != nil {
						t.Errorf("MapInterval(%d, %v) panicked: %v", count, mode, r)
					}
				}()
				MapInterval(count, mode)
			}()
		}
		if got, want := MapInterval(-math.MaxInt, mode), -MapInterval(math.MaxInt, mode); got != want {
			t.Errorf("MapInterval(%d, %v) = %d, want %d", -math.MaxInt, mode, got, want)
		}
	}
}

func TestMapIntervalSymmetry(t *testing.T) {
	for _, mode := range ScaleModes() {
		for n := -400; n <= 400; n++ {
			if got, want := MapInterval(-n, mode), -MapInterval(n, mode); got != want {
				t.Fatalf("MapInterval(%d, %v) = %d, want %d", -n, mode, got, want)
			}
		}
	}
}

func TestScaleModeText(t *testing.T) {
	tests := []struct {
		text     string
		expected ScaleMode
		wantErr  bool
	}{
		{"semitone", Semitone, false},
		{"MAJOR", MajorInterval, false},
		{"Minor interval", MinorInterval, false},
		{"1", MajorInterval, false},
		{"3", Semitone, true},
		{"dorian", Semitone, true},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			var m ScaleMode
			err := m.UnmarshalText([]byte(tt.text))
			if (err != nil) != tt.wantErr {
				t.Fatalf("UnmarshalText(%q) error = %v, wantErr %v", tt.text, err, tt.wantErr)
			}
			if !tt.wantErr && m != tt.expected {
				t.Errorf("UnmarshalText(%q) = %v, want %v", tt.text, m, tt.expected)
			}
		})
	}

	if _, err := ScaleMode(7).MarshalText(); err == nil {
		t.Error("MarshalText() of invalid mode should fail")
	}
	if MinorInterval.Suffix() != "m" || MajorInterval.Suffix() != "M" || Semitone.Suffix() != "st" {
		t.Error("Suffix() labels do not match st/M/m")
	}
}
