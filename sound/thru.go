package sound

import (
	"sync"

	"github.com/jsphweid/songreplay/chord"
	"github.com/jsphweid/songreplay/constants"
	"github.com/jsphweid/songreplay/model"
	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// Thru plays what comes in on a MIDI in port through a sink on the live input
// channel, next to a running replay. onChord gets every change of the held
// notes.
type Thru struct {
	mu      sync.Mutex
	sink    Sink
	held    map[uint8]bool
	onChord func(chord.Chord)
}

func NewThru(sink Sink, onChord func(chord.Chord)) *Thru {
	return &Thru{sink: sink, held: make(map[uint8]bool), onChord: onChord}
}

// Handle routes one incoming message. Anything but notes is ignored.
func (t *Thru) Handle(msg midi.Message) error {
	var ch, key, vel uint8
	t.mu.Lock()
	defer t.mu.Unlock()
	var evt model.Event
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		t.held[key] = true
		evt = model.NoteOnEvent(constants.LiveInputChannel, key, vel)
	case msg.GetNoteEnd(&ch, &key):
		delete(t.held, key)
		evt = model.NoteOffEvent(constants.LiveInputChannel, key)
	default:
		return nil
	}
	if t.onChord != nil {
		t.onChord(chord.FromHeld(t.held))
	}
	return t.sink.Execute(evt)
}

// Listen forwards in until the returned stop func is called.
func (t *Thru) Listen(in drivers.In, onErr func(error)) (func(), error) {
	stop, err := midi.ListenTo(in, func(msg midi.Message, timestampms int32) {
		if err := t.Handle(msg); err != nil && onErr != nil {
			onErr(err)
		}
	})
	if err != nil {
		return nil, errors.Wrapf(err, "could not listen to %v", in)
	}
	return stop, nil
}
