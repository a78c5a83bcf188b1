package drum

import (
	"github.com/jsphweid/songreplay/constants"
	"github.com/jsphweid/songreplay/frac"
	"github.com/jsphweid/songreplay/model"
)

// General MIDI percussion keys.
const (
	BassDrum     uint8 = 36
	SideStick    uint8 = 37
	ClosedHiHat  uint8 = 42
	PedalHiHat   uint8 = 44
	downbeatVel  uint8 = 100
	beatVel      uint8 = 80
	divisionsVel uint8 = 50
)

type Pulse uint8

const (
	Downbeat Pulse = iota
	Beat
	Division
)

// GridPoint is one position of the beat grid.
type GridPoint struct {
	Time8n frac.Frac
	Pulse  Pulse
}

// Grid lists the beat grid of song from from8n (inclusive) up to the end of
// the song (exclusive). Measures are anchored at time 0 so pickup beats fall
// on the same grid as the rest of the song. numBeatDivisions < 1 counts as 1.
func Grid(song *model.Song, from8n frac.Frac, numBeatDivisions int) []GridPoint {
	if numBeatDivisions < 1 {
		numBeatDivisions = 1
	}
	end8n := song.End8n()
	measureStart := frac.Zero
	for measureStart.GreaterThan(from8n) {
		measureStart = measureStart.Minus(song.DurPerMeasure8n(measureStart.MinusInt(1)))
	}

	var res []GridPoint
	for measureStart.LessThan(end8n) {
		ts := song.TimeSigChanges.ValAt(measureStart)
		step := ts.DurPerBeat8n().OverInt(int64(numBeatDivisions))
		numSteps := ts.UpperNumeral * numBeatDivisions
		for i := 0; i < numSteps; i++ {
			t := measureStart.Plus(step.TimesInt(int64(i)))
			if t.GreaterThan(end8n) || t.Equals(end8n) {
				break
			}
			if t.LessThan(from8n) {
				continue
			}
			pulse := Division
			switch {
			case i == 0:
				pulse = Downbeat
			case i%numBeatDivisions == 0:
				pulse = Beat
			}
			res = append(res, GridPoint{Time8n: t, Pulse: pulse})
		}
		measureStart = measureStart.Plus(ts.DurPerMeasure8n())
	}
	return res
}

// Beat8ns is Grid without the pulse kinds.
func Beat8ns(song *model.Song, from8n frac.Frac, numBeatDivisions int) []frac.Frac {
	grid := Grid(song, from8n, numBeatDivisions)
	res := make([]frac.Frac, len(grid))
	for i, p := range grid {
		res[i] = p.Time8n
	}
	return res
}

// CountInStart8n is where playback from start8n begins when a measure of
// count-in is requested.
func CountInStart8n(song *model.Song, start8n frac.Frac) frac.Frac {
	return start8n.Minus(song.DurPerMeasure8n(start8n))
}

// Voice builds a metronome-like drum voice hitting every grid point from
// from8n on: bass drum on downbeats, closed hi-hat on beats and a soft pedal
// hi-hat on subdivisions.
func Voice(song *model.Song, from8n frac.Frac, numBeatDivisions int) model.Voice {
	grid := Grid(song, from8n, numBeatDivisions)
	end8n := song.End8n()
	groups := make([]model.NoteGroup, 0, len(grid))
	for i, p := range grid {
		next := end8n
		if i+1 < len(grid) {
			next = grid[i+1].Time8n
		}
		note := model.MidiNote{ChannelNum: constants.DrumChannel}
		switch p.Pulse {
		case Downbeat:
			note.NoteNum, note.Velocity = BassDrum, downbeatVel
		case Beat:
			note.NoteNum, note.Velocity = ClosedHiHat, beatVel
		default:
			note.NoteNum, note.Velocity = PedalHiHat, divisionsVel
		}
		ng := model.NewNoteGroup(p.Time8n, next, note)
		ng.IsStaccato = true
		ng.RealEnd8n = frac.Min(next, p.Time8n.Plus(frac.Make(1, 2)))
		groups = append(groups, ng)
	}
	return model.NewVoice(model.VoiceSettings{
		Instrument:    model.AcousticGrandPiano,
		VolumePercent: 100,
		Name:          "drums",
	}, groups...)
}
