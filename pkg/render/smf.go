package render

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// TicksPerQuarter is the SMF resolution
const TicksPerQuarter = 480

// timedMessage is a message at an absolute tick
type timedMessage struct {
	tick  uint32
	order int // Note offs sort before markers and note ons on the same tick
	msg   []byte
}

// Ticks converts seconds to SMF ticks at the performance tempo
func (p *Performance) Ticks(seconds float64) uint32 {
	if seconds <= 0 {
		return 0
	}
	return uint32(math.Round(seconds * p.Config.BPM / 60 * TicksPerQuarter))
}

// MIDI encodes the performance as a single-track Standard MIDI File
func (p *Performance) MIDI() ([]byte, error) {
	if p == nil {
		return nil, errors.New("nil performance")
	}

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(TicksPerQuarter)

	var track smf.Track

	name := fmt.Sprintf("arp32 %s", p.Config.Patch.Pattern)
	track.Add(0, metaText(0x03, name))

	// Tempo meta event (FF 51 03 tttttt)
	microsecondsPerBeat := uint32(60000000.0 / p.Config.BPM)
	track.Add(0, smf.Message([]byte{
		0xFF, 0x51, 0x03,
		byte(microsecondsPerBeat >> 16),
		byte(microsecondsPerBeat >> 8),
		byte(microsecondsPerBeat),
	}))

	// 4/4
	track.Add(0, smf.Message([]byte{0xFF, 0x58, 0x04, 0x04, 0x02, 0x18, 0x08}))

	velocity := p.Config.Velocity
	if velocity == 0 {
		velocity = DefaultVelocity
	}
	channel := p.Config.Channel

	var events []timedMessage
	for _, n := range p.Notes {
		on := p.Ticks(n.Start)
		off := p.Ticks(n.End)
		if off <= on {
			off = on + 1
		}
		events = append(events,
			timedMessage{tick: on, order: 2, msg: midi.NoteOn(channel, n.Key, velocity)},
			timedMessage{tick: off, order: 0, msg: midi.NoteOff(channel, n.Key)},
		)
	}
	for _, eoc := range p.EOCs {
		events = append(events, timedMessage{tick: p.Ticks(eoc), order: 1, msg: metaText(0x06, "EOC")})
	}

	sort.SliceStable(events, func(i, j int) bool {
		if events[i].tick != events[j].tick {
			return events[i].tick < events[j].tick
		}
		return events[i].order < events[j].order
	})

	var current uint32
	for _, ev := range events {
		track.Add(ev.tick-current, ev.msg)
		current = ev.tick
	}

	end := p.Ticks(p.Duration)
	if end < current {
		end = current
	}
	track.Close(end - current)

	if err := s.Add(track); err != nil {
		return nil, fmt.Errorf("failed to add track: %w", err)
	}

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write MIDI: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteMIDIFile writes the performance to filename
func (p *Performance) WriteMIDIFile(filename string) error {
	data, err := p.MIDI()
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

// metaText builds a text-class meta event (FF tt len text)
func metaText(typ byte, text string) smf.Message {
	if len(text) > 127 {
		text = text[:127]
	}
	msg := make([]byte, 0, 3+len(text))
	msg = append(msg, 0xFF, typ, byte(len(text)))
	msg = append(msg, text...)
	return smf.Message(msg)
}
