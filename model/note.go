package model

import (
	"time"

	"github.com/jsphweid/songreplay/frac"
)

type MidiNote struct {
	NoteNum    uint8
	Velocity   uint8
	ChannelNum uint8

	// Recorded performance offsets of this note, zero when not recorded.
	// They size roll windows and grace note lead-ins.
	StartTime time.Duration
	EndTime   time.Duration
}

// NoteGroup is one or more simultaneous notes (or a rest when MidiNotes is
// empty) occupying [Start8n, End8n).
type NoteGroup struct {
	Start8n frac.Frac
	End8n   frac.Frac
	// RealEnd8n is how long the notes are meant to sound, which can differ
	// from the notated End8n.
	RealEnd8n frac.Frac
	MidiNotes []MidiNote

	IsStaccato         bool
	IsRollingUp        bool
	IsRollingDown      bool
	IsLogicalGraceNote bool
}

func NewNoteGroup(start8n, end8n frac.Frac, notes ...MidiNote) NoteGroup {
	return NoteGroup{
		Start8n:   start8n,
		End8n:     end8n,
		RealEnd8n: end8n,
		MidiNotes: notes,
	}
}

func NewRest(start8n, end8n frac.Frac) NoteGroup {
	return NewNoteGroup(start8n, end8n)
}

func (ng NoteGroup) IsRest() bool {
	return len(ng.MidiNotes) == 0
}

func (ng NoteGroup) IsRolling() bool {
	return ng.IsRollingUp || ng.IsRollingDown
}

func (ng NoteGroup) Dur8n() frac.Frac {
	return ng.End8n.Minus(ng.Start8n)
}

func (ng NoteGroup) Clone() NoteGroup {
	res := ng
	if ng.MidiNotes != nil {
		res.MidiNotes = append([]MidiNote(nil), ng.MidiNotes...)
	}
	return res
}

// Shifted returns a copy moved by shift8n.
func (ng NoteGroup) Shifted(shift8n frac.Frac) NoteGroup {
	res := ng.Clone()
	res.Start8n = ng.Start8n.Plus(shift8n)
	res.End8n = ng.End8n.Plus(shift8n)
	res.RealEnd8n = ng.RealEnd8n.Plus(shift8n)
	return res
}

func (ng NoteGroup) EarliestStartTime() time.Duration {
	var res time.Duration
	for i, n := range ng.MidiNotes {
		if i == 0 || n.StartTime < res {
			res = n.StartTime
		}
	}
	return res
}

func (ng NoteGroup) LatestStartTime() time.Duration {
	var res time.Duration
	for i, n := range ng.MidiNotes {
		if i == 0 || n.StartTime > res {
			res = n.StartTime
		}
	}
	return res
}

func (ng NoteGroup) LatestEndTime() time.Duration {
	var res time.Duration
	for i, n := range ng.MidiNotes {
		if i == 0 || n.EndTime > res {
			res = n.EndTime
		}
	}
	return res
}
