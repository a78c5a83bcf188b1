package sound

import (
	"strconv"
	"sync"

	"github.com/jsphweid/songreplay/model"
	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

const allNotesOff = 123

type noteKey struct {
	channel uint8
	note    uint8
}

// PortSink writes events to a MIDI out port. It remembers which notes are
// sounding so StopAll can release them.
type PortSink struct {
	mu       sync.Mutex
	send     func(msg midi.Message) error
	channels []ChannelInfo
	sounding map[noteKey]int
}

func NewPortSink(out drivers.Out) (*PortSink, error) {
	send, err := midi.SendTo(out)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open out port %v", out)
	}
	return &PortSink{send: send, sounding: make(map[noteKey]int)}, nil
}

// FindOutPort looks a port up by number or by (part of) its name. An empty
// name picks the first port.
func FindOutPort(name string) (drivers.Out, error) {
	if name == "" {
		return midi.OutPort(0)
	}
	if n, err := strconv.Atoi(name); err == nil {
		return midi.OutPort(n)
	}
	return midi.FindOutPort(name)
}

func (p *PortSink) Configure(channels []ChannelInfo) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.channels = channels
	for _, c := range channels {
		if c.IsDrum {
			continue
		}
		if err := p.send(midi.ProgramChange(c.ChannelNum, uint8(c.Instrument))); err != nil {
			return errors.Wrapf(err, "could not set program on channel %d", c.ChannelNum)
		}
	}
	return nil
}

func (p *PortSink) Execute(evt model.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := noteKey{evt.ChannelNum, evt.NoteNum}
	switch evt.Kind {
	case model.NoteOn:
		p.sounding[key]++
	case model.NoteOff:
		if p.sounding[key] <= 1 {
			delete(p.sounding, key)
		} else {
			p.sounding[key]--
		}
	}
	return p.send(evt.Message())
}

func (p *PortSink) StopAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var firstErr error
	for key := range p.sounding {
		if err := p.send(midi.NoteOff(key.channel, key.note)); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	p.sounding = make(map[noteKey]int)
	for _, c := range p.channels {
		if err := p.send(midi.ControlChange(c.ChannelNum, allNotesOff, 0)); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Sounding is the number of notes currently held.
func (p *PortSink) Sounding() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sounding)
}
