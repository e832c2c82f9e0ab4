package render

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// Sink receives live note events
type Sink interface {
	NoteOn(channel, key, velocity uint8) error
	NoteOff(channel, key uint8) error
}

// PortSink sends notes to a MIDI output port
type PortSink struct {
	port drivers.Out
	send func(msg midi.Message) error
}

// NewPortSink wraps an output port
func NewPortSink(port drivers.Out) (*PortSink, error) {
	if port == nil {
		return nil, errors.New("no MIDI output port")
	}
	send, err := midi.SendTo(port)
	if err != nil {
		return nil, fmt.Errorf("failed to open MIDI port %s: %w", port.String(), err)
	}
	return &PortSink{port: port, send: send}, nil
}

// OpenPort finds an output port by name (substring match) and opens it
func OpenPort(name string) (*PortSink, error) {
	port, err := midi.FindOutPort(name)
	if err != nil {
		return nil, fmt.Errorf("MIDI port %q not found: %w", name, err)
	}
	return NewPortSink(port)
}

// ListPorts returns the names of the available output ports
func ListPorts() []string {
	var names []string
	for _, port := range midi.GetOutPorts() {
		names = append(names, port.String())
	}
	return names
}

// NoteOn sends a note on message
func (p *PortSink) NoteOn(channel, key, velocity uint8) error {
	return p.send(midi.NoteOn(channel, key, velocity))
}

// NoteOff sends a note off message
func (p *PortSink) NoteOff(channel, key uint8) error {
	return p.send(midi.NoteOff(channel, key))
}

// Close closes the port
func (p *PortSink) Close() error {
	return p.port.Close()
}

// Play runs cfg in real time, sending notes to sink until the configured
// steps have played or ctx is cancelled. onStep, if not nil, is called on
// every clock edge.
func Play(ctx context.Context, cfg Config, sink Sink, onStep func(Step)) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if sink == nil {
		return errors.New("no sink")
	}

	d := newDriver(cfg)
	velocity := cfg.Velocity
	if velocity == 0 {
		velocity = DefaultVelocity
	}

	var sendErr error
	emit := func(e Event) {
		if sendErr != nil {
			return
		}
		switch e.Kind {
		case NoteOn:
			sendErr = sink.NoteOn(cfg.Channel, e.Key, velocity)
		case NoteOff:
			sendErr = sink.NoteOff(cfg.Channel, e.Key)
		}
	}
	defer func() {
		d.tracker.flush(func(e Event) { _ = sink.NoteOff(cfg.Channel, e.Key) })
	}()

	period := time.Duration(float64(time.Second) / cfg.ControlRate)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	start := time.Now()
	seq := d.module.Sequencer()
	for !d.done() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			// Catch up on frames the ticker skipped
			target := int(now.Sub(start).Seconds() * cfg.ControlRate)
			for d.frame <= target && !d.done() {
				at := d.seconds(d.frame)
				out, pulse := d.step(emit)
				if sendErr != nil {
					return fmt.Errorf("failed to send MIDI: %w", sendErr)
				}
				if pulse >= 0 && onStep != nil {
					onStep(Step{Pulse: pulse, Time: at, Index: seq.Cursor().Index(), Output: out, State: seq.State()})
				}
			}
		}
	}
	return nil
}
