package chord

import (
	"fmt"
	"sort"

	"gitlab.com/gomidi/midi/v2/smf"
)

// Chord is what a chord change series holds. Symbol is the lead-sheet text
// (spelling is done elsewhere); Notes are the sounding pitches when known.
type Chord struct {
	Symbol string
	Notes  []uint8
}

func (c Chord) String() string {
	if c.Symbol != "" {
		return c.Symbol
	}
	return CreateChordKey(c.Notes)
}

func (c Chord) Clone() Chord {
	res := Chord{Symbol: c.Symbol}
	if c.Notes != nil {
		res.Notes = append([]uint8(nil), c.Notes...)
	}
	return res
}

func (c Chord) IsEmpty() bool {
	return c.Symbol == "" && len(c.Notes) == 0
}

func CreateChordKey(notes []uint8) string {
	sorted := append([]uint8(nil), notes...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})
	var res string
	for i, note := range sorted {
		res += fmt.Sprintf("%v", note)
		if i < len(sorted)-1 {
			res += "-"
		}
	}
	return res
}

type reducedEvent struct {
	absTicks  int64
	isNoteOff bool
	note      uint8
}

// TimedChord is a set of simultaneously held notes and the tick it started at.
type TimedChord struct {
	AbsTicks int64
	Chord    Chord
}

// FromHeld is the chord made of the held notes.
func FromHeld(pressed map[uint8]bool) Chord {
	var notes []uint8
	for note := range pressed {
		notes = append(notes, note)
	}
	sort.Slice(notes, func(i, j int) bool {
		return notes[i] < notes[j]
	})
	return Chord{Notes: notes}
}

// GetChords returns every distinct set of held notes in s, ordered by time.
// Sets with fewer than minNotes notes are skipped.
func GetChords(s *smf.SMF, minNotes int) (chords []TimedChord, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("could not read chords: %v", r)
		}
	}()

	var reducedEvents []reducedEvent
	for _, events := range s.Tracks {
		var absTicks int64
		for _, event := range events {
			absTicks += int64(event.Delta)
			var channel, key, velocity uint8
			switch {
			case event.Message.GetNoteOn(&channel, &key, &velocity):
				reducedEvents = append(reducedEvents, reducedEvent{absTicks: absTicks, note: key, isNoteOff: velocity == 0})
			case event.Message.GetNoteOff(&channel, &key, &velocity):
				reducedEvents = append(reducedEvents, reducedEvent{absTicks: absTicks, isNoteOff: true, note: key})
			}
		}
	}

	// prioritize smaller offset values then note off
	sort.SliceStable(reducedEvents, func(i, j int) bool {
		if reducedEvents[i].absTicks != reducedEvents[j].absTicks {
			return reducedEvents[i].absTicks < reducedEvents[j].absTicks
		}
		return reducedEvents[i].isNoteOff && !reducedEvents[j].isNoteOff
	})

	ticksToChord := make(map[int64]Chord)
	pressed := make(map[uint8]bool)
	for _, evt := range reducedEvents {
		if evt.isNoteOff {
			delete(pressed, evt.note)
		} else {
			pressed[evt.note] = true
		}
		ticksToChord[evt.absTicks] = FromHeld(pressed)
	}

	ticks := make([]int64, 0, len(ticksToChord))
	for k := range ticksToChord {
		ticks = append(ticks, k)
	}
	sort.Slice(ticks, func(i, j int) bool {
		return ticks[i] < ticks[j]
	})

	var prevKey string
	for _, tick := range ticks {
		c := ticksToChord[tick]
		if len(c.Notes) < minNotes {
			prevKey = ""
			continue
		}
		// NOTE: a note joining or leaving the same set makes a new chord, an
		// identical set right after does not.
		key := CreateChordKey(c.Notes)
		if key == prevKey {
			continue
		}
		prevKey = key
		chords = append(chords, TimedChord{AbsTicks: tick, Chord: c})
	}
	return chords, nil
}
