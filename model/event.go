package model

import (
	"fmt"

	"gitlab.com/gomidi/midi/v2"
)

type EventKind uint8

const (
	NoteOff EventKind = iota
	ProgramChange
	NoteOn
)

func (k EventKind) String() string {
	switch k {
	case NoteOff:
		return "NoteOff"
	case ProgramChange:
		return "ProgramChange"
	case NoteOn:
		return "NoteOn"
	}
	return fmt.Sprintf("EventKind(%d)", uint8(k))
}

// Event is one instruction for a sound sink.
type Event struct {
	Kind       EventKind
	ChannelNum uint8
	NoteNum    uint8
	Velocity   uint8
	Program    Instrument
}

func NoteOnEvent(channelNum, noteNum, velocity uint8) Event {
	return Event{Kind: NoteOn, ChannelNum: channelNum, NoteNum: noteNum, Velocity: velocity}
}

func NoteOffEvent(channelNum, noteNum uint8) Event {
	return Event{Kind: NoteOff, ChannelNum: channelNum, NoteNum: noteNum}
}

func ProgramChangeEvent(channelNum uint8, program Instrument) Event {
	return Event{Kind: ProgramChange, ChannelNum: channelNum, Program: program}
}

// Message encodes the event as a MIDI channel message.
func (e Event) Message() midi.Message {
	switch e.Kind {
	case NoteOn:
		return midi.NoteOn(e.ChannelNum, e.NoteNum, e.Velocity)
	case ProgramChange:
		return midi.ProgramChange(e.ChannelNum, uint8(e.Program))
	}
	return midi.NoteOff(e.ChannelNum, e.NoteNum)
}

func (e Event) String() string {
	switch e.Kind {
	case NoteOn:
		return fmt.Sprintf("NoteOn ch=%d note=%d vel=%d", e.ChannelNum, e.NoteNum, e.Velocity)
	case ProgramChange:
		return fmt.Sprintf("ProgramChange ch=%d program=%v", e.ChannelNum, e.Program)
	}
	return fmt.Sprintf("NoteOff ch=%d note=%d", e.ChannelNum, e.NoteNum)
}
