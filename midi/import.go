package midi

import (
	"sort"

	"github.com/jsphweid/songreplay/chord"
	"github.com/jsphweid/songreplay/constants"
	"github.com/jsphweid/songreplay/frac"
	"github.com/jsphweid/songreplay/model"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
	"go.uber.org/multierr"
)

// Chords need at least this many held notes to become a chord change.
const minChordNotes = 3

type importedNote struct {
	start, end int64
	key, vel   uint8
}

type trackReader struct {
	song  *model.Song
	to8n  func(ticks int64) frac.Frac
	base  model.Voice
	notes []importedNote
}

// ImportSong turns every track of s into voices. Notes that overlap inside a
// track are spread over extra voices so that no voice overlaps itself.
// Percussion channel notes are left out.
func ImportSong(s *smf.SMF, title string) (*model.Song, error) {
	mt, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok || mt == 0 {
		return nil, &model.ConfigurationError{Reason: "only metric time formats can be imported"}
	}
	to8n := func(ticks int64) frac.Frac {
		return frac.Make(ticks*2, int64(mt))
	}

	song := model.NewSong(title)
	for _, track := range s.Tracks {
		tr := &trackReader{
			song: song,
			to8n: to8n,
			base: model.NewVoice(model.DefaultVoiceSettings()),
		}
		tr.read(track)
		song.Voices = append(song.Voices, tr.voices()...)
	}

	chords, err := chord.GetChords(s, minChordNotes)
	if err != nil {
		return nil, err
	}
	for _, c := range chords {
		song.ChordChanges.Upsert(to8n(c.AbsTicks), c.Chord)
	}
	// a blank chord marks where the music ends
	if end8n := song.End8n(); end8n.Sign() > 0 && !end8n.Equals(song.FinalChordTime8n()) {
		song.ChordChanges.Upsert(end8n, chord.Chord{})
	}
	return song, multierr.Combine(song.Validate(), song.ValidatePlayback())
}

func (tr *trackReader) read(track smf.Track) {
	type noteKey struct{ channel, key uint8 }
	open := make(map[noteKey]importedNote)

	var absTicks int64
	for _, event := range track {
		absTicks += int64(event.Delta)
		msg := event.Message
		var bpm float64
		var num, denom uint8
		var name string
		var ch, key, vel, program uint8
		switch {
		case msg.GetMetaTempo(&bpm):
			if absTicks == 0 {
				tr.song.Tempo8nPerMinChanges = tr.song.Tempo8nPerMinChanges.WithDefault(bpm * 2)
			} else {
				tr.song.Tempo8nPerMinChanges.Upsert(tr.to8n(absTicks), bpm*2)
			}
		case msg.GetMetaMeter(&num, &denom):
			ts := model.TimeSig{UpperNumeral: int(num), LowerNumeral: int(denom)}
			if absTicks == 0 {
				tr.song.TimeSigChanges = tr.song.TimeSigChanges.WithDefault(ts)
			} else {
				tr.song.TimeSigChanges.Upsert(tr.to8n(absTicks), ts)
			}
		case msg.GetMetaTrackName(&name):
			tr.updateSettings(absTicks, func(vs *model.VoiceSettings) { vs.Name = name })
		case gomidi.Message(msg).GetProgramChange(&ch, &program):
			if ch != constants.DrumChannel {
				tr.updateSettings(absTicks, func(vs *model.VoiceSettings) { vs.Instrument = model.Instrument(program) })
			}
		case gomidi.Message(msg).GetNoteStart(&ch, &key, &vel):
			if ch == constants.DrumChannel {
				continue
			}
			nk := noteKey{ch, key}
			if prev, ok := open[nk]; ok {
				// restruck without a note off
				prev.end = absTicks
				tr.add(prev)
			}
			open[nk] = importedNote{start: absTicks, key: key, vel: vel}
		case gomidi.Message(msg).GetNoteEnd(&ch, &key):
			nk := noteKey{ch, key}
			if n, ok := open[nk]; ok {
				n.end = absTicks
				tr.add(n)
				delete(open, nk)
			}
		}
	}
	for _, n := range open {
		n.end = absTicks
		tr.add(n)
	}
}

func (tr *trackReader) add(n importedNote) {
	if n.end > n.start {
		tr.notes = append(tr.notes, n)
	}
}

// updateSettings changes the voice settings from absTicks on. Anything
// before the first note is taken as the default.
func (tr *trackReader) updateSettings(absTicks int64, f func(*model.VoiceSettings)) {
	series := tr.base.SettingsChanges
	if len(tr.notes) == 0 && series.Len() == 0 {
		vs := series.DefaultVal()
		f(&vs)
		tr.base.SettingsChanges = series.WithDefault(vs)
		return
	}
	t := tr.to8n(absTicks)
	vs := series.ValAt(t)
	f(&vs)
	tr.base.SettingsChanges.Upsert(t, vs)
}

// voices clusters notes sharing start and end into groups and deals the
// groups out to the first voice that is free at their start.
func (tr *trackReader) voices() []model.Voice {
	if len(tr.notes) == 0 {
		return nil
	}
	sort.Slice(tr.notes, func(i, j int) bool {
		a, b := tr.notes[i], tr.notes[j]
		if a.start != b.start {
			return a.start < b.start
		}
		if a.end != b.end {
			return a.end < b.end
		}
		return a.key < b.key
	})

	var groups []model.NoteGroup
	for i := 0; i < len(tr.notes); {
		j := i
		var notes []model.MidiNote
		for ; j < len(tr.notes) && tr.notes[j].start == tr.notes[i].start && tr.notes[j].end == tr.notes[i].end; j++ {
			notes = append(notes, model.MidiNote{NoteNum: tr.notes[j].key, Velocity: tr.notes[j].vel})
		}
		groups = append(groups, model.NewNoteGroup(tr.to8n(tr.notes[i].start), tr.to8n(tr.notes[i].end), notes...))
		i = j
	}

	var lanes [][]model.NoteGroup
	for _, ng := range groups {
		placed := false
		for idx, lane := range lanes {
			if lane[len(lane)-1].End8n.Leq(ng.Start8n) {
				lanes[idx] = append(lane, ng)
				placed = true
				break
			}
		}
		if !placed {
			lanes = append(lanes, []model.NoteGroup{ng})
		}
	}

	res := make([]model.Voice, len(lanes))
	for idx, lane := range lanes {
		v := tr.base.Clone()
		v.NoteGroups = lane
		res[idx] = v
	}
	return res
}
