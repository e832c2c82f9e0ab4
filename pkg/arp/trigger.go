package arp

// Signal levels
const (
	HighVolts = 10.0
	LowVolts  = 0.0

	// TriggerDuration is the length of gate and EOC pulses in seconds
	TriggerDuration = 1e-3
)

// SchmittTrigger detects rising edges with hysteresis: it fires once when
// the input reaches 1V and re-arms only after the input falls to 0V.
type SchmittTrigger struct {
	high bool
}

// Process feeds one sample and reports a rising edge
func (s *SchmittTrigger) Process(v float64) bool {
	if s.high {
		if v <= 0 {
			s.high = false
		}
		return false
	}
	if v >= 1 {
		s.high = true
		return true
	}
	return false
}

// High reports whether the trigger is latched high
func (s *SchmittTrigger) High() bool {
	return s.high
}

// Reset re-arms the trigger
func (s *SchmittTrigger) Reset() {
	s.high = false
}

// PulseGenerator stays active for a fixed duration after Trigger.
type PulseGenerator struct {
	remaining float64
}

// Trigger starts (or extends) a pulse of d seconds
func (p *PulseGenerator) Trigger(d float64) {
	if d > p.remaining {
		p.remaining = d
	}
}

// Process advances by dt seconds and reports whether the pulse was active.
// A non-positive dt consumes the whole pulse, so it lasts a single tick.
func (p *PulseGenerator) Process(dt float64) bool {
	if p.remaining <= 0 {
		return false
	}
	if dt <= 0 {
		p.remaining = 0
	} else {
		p.remaining -= dt
	}
	return true
}

// Reset cancels any active pulse
func (p *PulseGenerator) Reset() {
	p.remaining = 0
}
