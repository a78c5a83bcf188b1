package timeline

import (
	"errors"
	"testing"
	"time"

	"github.com/jsphweid/songreplay/constants"
	"github.com/jsphweid/songreplay/frac"
	"github.com/jsphweid/songreplay/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func n8(n int) frac.Frac {
	return frac.FromInt(n)
}

func note(num uint8) model.MidiNote {
	return model.MidiNote{NoteNum: num, Velocity: 100}
}

func songWith(voices ...model.Voice) *model.Song {
	s := model.NewSong("")
	s.Voices = voices
	return s
}

func compile(t *testing.T, s *model.Song, opts Options) *Timeline {
	channels := make([]uint8, len(s.Voices))
	for i := range channels {
		channels[i] = uint8(i + 1)
	}
	tl, err := Compile(s, s.Voices, channels, opts)
	require.NoError(t, err)
	return tl
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

func TestSingleWholeNote(t *testing.T) {
	s := songWith(model.NewVoice(model.DefaultVoiceSettings(), model.NewNoteGroup(n8(0), n8(8), note(60))))
	tl := compile(t, s, Options{})

	assert := assert.New(t)
	require.Equal(t, 2, tl.Len())
	assert.Equal(ms(0), tl.Entries()[0].Time)
	assert.Equal([]model.Event{model.NoteOnEvent(1, 60, 100)}, tl.Entries()[0].Events)
	assert.Equal(ms(2000), tl.Entries()[1].Time)
	assert.Equal([]model.Event{model.NoteOffEvent(1, 60)}, tl.Entries()[1].Events)
	assert.Equal(ms(2000), tl.Duration())
}

func TestCompileIsIdempotentAndOrdered(t *testing.T) {
	melody := model.NewVoice(model.DefaultVoiceSettings(),
		model.NewNoteGroup(n8(-1), n8(0), note(67)),
		model.NewNoteGroup(n8(0), n8(1), note(72)),
		model.NewNoteGroup(n8(1), n8(3), note(71)),
		model.NewRest(n8(3), n8(4)),
		model.NewNoteGroup(n8(4), n8(8), note(72)),
	)
	bass := model.NewVoice(model.VoiceSettings{Instrument: model.AcousticBass, VolumePercent: 80},
		model.NewNoteGroup(n8(0), n8(4), note(36), note(43)),
		model.NewNoteGroup(n8(4), n8(8), note(41)),
	)
	s := songWith(melody, bass)
	s.Pickup8n = n8(-1)
	s.SwingChanges = s.SwingChanges.WithDefault(model.ParseSwing("triplet"))

	first := compile(t, s, Options{Start8n: s.Start8n()})
	second := compile(t, s, Options{Start8n: s.Start8n()})
	assert.True(t, first.Equal(second))

	entries := first.Entries()
	for i := 1; i < len(entries); i++ {
		assert.LessOrEqual(t, entries[i-1].Time, entries[i].Time)
	}
	assert.Less(t, entries[0].Time, time.Duration(0))
}

func TestRestrikeReleasesFirst(t *testing.T) {
	s := songWith(model.NewVoice(model.DefaultVoiceSettings(),
		model.NewNoteGroup(n8(0), n8(2), note(60)),
		model.NewNoteGroup(n8(2), n8(4), note(60)),
	))
	tl := compile(t, s, Options{})
	require.Equal(t, 3, tl.Len())
	assert.Equal(t, []model.Event{model.NoteOffEvent(1, 60), model.NoteOnEvent(1, 60, 100)}, tl.Entries()[1].Events)
}

func TestSeekDiscardsEarlierGroups(t *testing.T) {
	s := songWith(model.NewVoice(model.DefaultVoiceSettings(),
		model.NewNoteGroup(n8(0), n8(4), note(60)),
		model.NewNoteGroup(n8(4), n8(8), note(62)),
	))
	tl := compile(t, s, Options{Start8n: n8(4)})
	require.Equal(t, 2, tl.Len())
	assert.Equal(t, ms(1000), tl.Entries()[0].Time)
	assert.Equal(t, uint8(62), tl.Entries()[0].Events[0].NoteNum)
}

func TestResumeAtFinalChordIsEmpty(t *testing.T) {
	s := songWith(model.NewVoice(model.DefaultVoiceSettings(),
		model.NewNoteGroup(n8(0), n8(8), note(60)),
	))
	s.ChordChanges.Upsert(n8(8), s.ChordChanges.DefaultVal())
	tl := compile(t, s, Options{Start8n: s.FinalChordTime8n()})
	assert.True(t, tl.IsEmpty())
}

func TestSwingMovesOffbeats(t *testing.T) {
	s := songWith(model.NewVoice(model.DefaultVoiceSettings(),
		model.NewNoteGroup(n8(0), n8(1), note(60)),
		model.NewNoteGroup(n8(1), n8(2), note(62)),
		model.NewNoteGroup(n8(2), n8(3), note(64)),
	))
	s.Tempo8nPerMinChanges = s.Tempo8nPerMinChanges.WithDefault(180)
	s.SwingChanges = s.SwingChanges.WithDefault(model.ParseSwing("triplet"))
	tl := compile(t, s, Options{})

	// 333.33ms per eighth, the offbeat lands at 4/3
	var times []time.Duration
	for _, e := range tl.Entries() {
		times = append(times, e.Time)
	}
	assert.Equal(t, []time.Duration{0, 444444444, 666666667, 1000 * time.Millisecond}, times)
}

func TestStaccatoAndRealEnd(t *testing.T) {
	staccato := model.NewNoteGroup(n8(0), n8(4), note(60))
	staccato.IsStaccato = true
	staccato.RealEnd8n = n8(1)
	short := model.NewNoteGroup(n8(4), n8(8), note(62))
	short.RealEnd8n = n8(6)
	long := model.NewNoteGroup(n8(8), n8(10), note(64))
	long.RealEnd8n = n8(12)
	s := songWith(model.NewVoice(model.DefaultVoiceSettings(), staccato, short, long))

	offs := map[uint8]time.Duration{}
	for _, e := range compile(t, s, Options{}).Entries() {
		for _, evt := range e.Events {
			if evt.Kind == model.NoteOff {
				offs[evt.NoteNum] = e.Time
			}
		}
	}
	assert.Equal(t, ms(250), offs[60])
	assert.Equal(t, ms(1500), offs[62])
	assert.Equal(t, ms(2500), offs[64])
}

func TestGraceNoteLeadsIn(t *testing.T) {
	grace := model.NewNoteGroup(n8(4), n8(5), note(61))
	grace.IsLogicalGraceNote = true
	recorded := model.NewNoteGroup(n8(8), n8(9), model.MidiNote{
		NoteNum: 63, Velocity: 100, StartTime: ms(100), EndTime: ms(500),
	})
	recorded.IsLogicalGraceNote = true
	s := songWith(model.NewVoice(model.DefaultVoiceSettings(), grace, recorded))

	entries := compile(t, s, Options{}).Entries()
	require.Len(t, entries, 4)
	assert.Equal(t, ms(750), entries[0].Time)
	assert.Equal(t, model.NoteOn, entries[0].Events[0].Kind)
	assert.Equal(t, ms(1000), entries[1].Time)
	assert.Equal(t, ms(1600), entries[2].Time)
	assert.Equal(t, ms(2000), entries[3].Time)
}

func rolled(start, end int, down bool, notes ...model.MidiNote) model.NoteGroup {
	ng := model.NewNoteGroup(n8(start), n8(end), notes...)
	ng.IsRollingUp = !down
	ng.IsRollingDown = down
	return ng
}

func noteOnTimes(tl *Timeline) map[uint8]time.Duration {
	res := map[uint8]time.Duration{}
	for _, e := range tl.Entries() {
		for _, evt := range e.Events {
			if evt.Kind == model.NoteOn {
				res[evt.NoteNum] = e.Time
			}
		}
	}
	return res
}

func TestRollingSpansBothHands(t *testing.T) {
	treble := model.NewVoice(model.DefaultVoiceSettings(), rolled(0, 8, false,
		model.MidiNote{NoteNum: 64, Velocity: 90, StartTime: ms(40)},
		model.MidiNote{NoteNum: 67, Velocity: 90, StartTime: ms(90)},
	))
	bass := model.NewVoice(model.DefaultVoiceSettings(), rolled(0, 8, false,
		model.MidiNote{NoteNum: 48, Velocity: 90, StartTime: ms(0)},
		model.MidiNote{NoteNum: 64, Velocity: 90, StartTime: ms(30)},
	))
	starts := noteOnTimes(compile(t, songWith(treble, bass), Options{}))
	assert.Equal(t, ms(0), starts[48])
	assert.Equal(t, ms(45), starts[64])
	assert.Equal(t, ms(90), starts[67])

	down := model.NewVoice(model.DefaultVoiceSettings(), rolled(0, 8, true,
		model.MidiNote{NoteNum: 48, Velocity: 90, StartTime: ms(0)},
		model.MidiNote{NoteNum: 52, Velocity: 90, StartTime: ms(60)},
		model.MidiNote{NoteNum: 55, Velocity: 90, StartTime: ms(20)},
	))
	starts = noteOnTimes(compile(t, songWith(down), Options{}))
	assert.Equal(t, ms(60), starts[48])
	assert.Equal(t, ms(30), starts[52])
	assert.Equal(t, ms(0), starts[55])
}

func TestSingleNoteNeverRolls(t *testing.T) {
	s := songWith(model.NewVoice(model.DefaultVoiceSettings(), rolled(2, 4, false,
		model.MidiNote{NoteNum: 60, Velocity: 90, StartTime: ms(0)},
		model.MidiNote{NoteNum: 60, Velocity: 90, StartTime: ms(200)},
	)))
	assert.Equal(t, ms(500), noteOnTimes(compile(t, s, Options{}))[60])
}

func TestVolumeAndProgramChanges(t *testing.T) {
	v := model.NewVoice(model.VoiceSettings{Instrument: model.ElectricPiano1, VolumePercent: 50},
		model.NewNoteGroup(n8(0), n8(4), note(60)),
		model.NewNoteGroup(n8(4), n8(8), note(62)),
		model.NewNoteGroup(n8(8), n8(12), note(64)),
	)
	v.SettingsChanges.Upsert(n8(4), model.VoiceSettings{Instrument: model.Vibraphone, VolumePercent: 100})
	v.SettingsChanges.Upsert(n8(8), model.VoiceSettings{Instrument: model.Vibraphone, VolumePercent: 0})
	entries := compile(t, songWith(v), Options{}).Entries()

	assert := assert.New(t)
	require.Len(t, entries, 3)
	assert.Equal(model.NoteOnEvent(1, 60, 50), entries[0].Events[0])
	assert.Equal([]model.Event{
		model.NoteOffEvent(1, 60),
		model.ProgramChangeEvent(1, model.Vibraphone),
		model.NoteOnEvent(1, 62, 100),
	}, entries[1].Events)
	assert.Equal([]model.Event{model.NoteOffEvent(1, 62)}, entries[2].Events)
}

func TestTempoChangesIntegrate(t *testing.T) {
	s := songWith(model.NewVoice(model.DefaultVoiceSettings(),
		model.NewNoteGroup(n8(0), n8(4), note(60)),
		model.NewNoteGroup(n8(4), n8(8), note(62)),
	))
	s.Tempo8nPerMinChanges.Upsert(n8(4), 480)
	entries := compile(t, s, Options{}).Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, ms(1000), entries[1].Time)
	assert.Equal(t, ms(1500), entries[2].Time)

	tm, err := NewTempoMap(s.Tempo8nPerMinChanges)
	require.NoError(t, err)
	assert.Equal(t, ms(-500), tm.Time(n8(-2)))
}

func TestCountInKeepsDrums(t *testing.T) {
	drums := model.NewVoice(model.DefaultVoiceSettings(),
		model.NewNoteGroup(n8(0), n8(2), model.MidiNote{NoteNum: 36, Velocity: 100}),
		model.NewNoteGroup(n8(8), n8(10), model.MidiNote{NoteNum: 36, Velocity: 100}),
	)
	piano := model.NewVoice(model.DefaultVoiceSettings(),
		model.NewNoteGroup(n8(0), n8(8), note(60)),
		model.NewNoteGroup(n8(8), n8(16), note(62)),
	)
	s := songWith(piano, drums)
	tl, err := Compile(s, s.Voices, []uint8{1, constants.DrumChannel}, Options{Start8n: n8(8), CountIn8n: n8(8)})
	require.NoError(t, err)
	assert.Equal(t, ms(0), tl.Entries()[0].Time)
	assert.Equal(t, []model.Event{model.NoteOnEvent(constants.DrumChannel, 36, 100)}, tl.Entries()[0].Events)
}

func TestCompileErrors(t *testing.T) {
	s := songWith(model.NewVoice(model.DefaultVoiceSettings(), model.NewNoteGroup(n8(0), n8(8), note(60))))
	s.Tempo8nPerMinChanges = s.Tempo8nPerMinChanges.WithDefault(0)
	_, err := Compile(s, s.Voices, []uint8{1}, Options{})
	var confErr *model.ConfigurationError
	assert.True(t, errors.As(err, &confErr))

	s = songWith(model.NewVoice(model.DefaultVoiceSettings(),
		model.NewNoteGroup(n8(0), n8(8), note(60)),
		model.NewNoteGroup(n8(4), n8(8), note(62)),
	))
	_, err = Compile(s, s.Voices, []uint8{1}, Options{})
	var invErr *model.ScoreInvariantError
	assert.True(t, errors.As(err, &invErr))

	_, err = Compile(s, s.Voices, nil, Options{})
	assert.True(t, errors.As(err, &confErr))
}

func TestBeatTimes(t *testing.T) {
	s := songWith()
	beats, err := BeatTimes(s, []frac.Frac{n8(-2), n8(0), n8(2)})
	require.NoError(t, err)
	assert.Equal(t, "-2", beats[ms(-500)].String())
	assert.Equal(t, "2", beats[ms(500)].String())
}
