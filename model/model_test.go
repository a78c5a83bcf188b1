package model

import (
	"errors"
	"testing"
	"time"

	"github.com/jsphweid/songreplay/chord"
	"github.com/jsphweid/songreplay/frac"
	"github.com/stretchr/testify/assert"
	"go.uber.org/multierr"
)

func n8(n int) frac.Frac {
	return frac.FromInt(n)
}

func TestNoteGroupDefaults(t *testing.T) {
	assert := assert.New(t)
	ng := NewNoteGroup(n8(0), n8(4), MidiNote{NoteNum: 60, Velocity: 100})
	assert.Equal(n8(4), ng.RealEnd8n)
	assert.False(ng.IsRest())
	assert.True(NewRest(n8(0), n8(2)).IsRest())
	assert.Equal(n8(4), ng.Dur8n())
}

func TestNoteGroupPerformanceTimes(t *testing.T) {
	assert := assert.New(t)
	ng := NewNoteGroup(n8(0), n8(2),
		MidiNote{NoteNum: 60, StartTime: 30 * time.Millisecond, EndTime: 400 * time.Millisecond},
		MidiNote{NoteNum: 64, StartTime: 10 * time.Millisecond, EndTime: 500 * time.Millisecond},
		MidiNote{NoteNum: 67, StartTime: 90 * time.Millisecond, EndTime: 450 * time.Millisecond},
	)
	assert.Equal(10*time.Millisecond, ng.EarliestStartTime())
	assert.Equal(90*time.Millisecond, ng.LatestStartTime())
	assert.Equal(500*time.Millisecond, ng.LatestEndTime())
	assert.Equal(time.Duration(0), NewRest(n8(0), n8(1)).LatestEndTime())
}

func TestNoteGroupShiftedAndClone(t *testing.T) {
	ng := NewNoteGroup(n8(1), n8(3), MidiNote{NoteNum: 60})
	shifted := ng.Shifted(n8(8))
	shifted.MidiNotes[0].NoteNum = 61

	assert := assert.New(t)
	assert.Equal(n8(9), shifted.Start8n)
	assert.Equal(n8(11), shifted.End8n)
	assert.Equal(n8(11), shifted.RealEnd8n)
	assert.Equal(uint8(60), ng.MidiNotes[0].NoteNum)
}

func TestTimeSigAndSwingParsing(t *testing.T) {
	assert := assert.New(t)
	ts, err := ParseTimeSig("3/4")
	assert.NoError(err)
	assert.Equal(n8(6), ts.DurPerMeasure8n())
	assert.Equal(n8(2), ts.DurPerBeat8n())
	_, err = ParseTimeSig("3")
	assert.Error(err)

	assert.Equal(frac.Make(3, 2), ParseSwing("light").Ratio)
	assert.Equal(frac.Make(3, 2), ParseSwing("yes").Ratio)
	assert.Equal(n8(2), ParseSwing("triplet").Ratio)
	assert.Equal(frac.Make(5, 2), ParseSwing("hard").Ratio)
	assert.False(ParseSwing("").IsSwung())
}

func TestSongStartAndEnd(t *testing.T) {
	assert := assert.New(t)
	s := NewSong("test")
	s.Pickup8n = n8(-2)
	s.Voices = []Voice{NewVoice(DefaultVoiceSettings(),
		NewRest(n8(-2), n8(0)),
		NewNoteGroup(n8(0), n8(8), MidiNote{NoteNum: 60}),
	)}
	s.ChordChanges.Upsert(n8(0), chord.Chord{Symbol: "C"})
	s.ChordChanges.Upsert(n8(16), chord.Chord{Symbol: "G"})

	assert.Equal(n8(-2), s.Start8n())
	assert.Equal(n8(16), s.End8n())
	assert.Equal(n8(16), s.FinalChordTime8n())
	assert.Equal(n8(8), s.DurPerMeasure8n(n8(0)))

	pos, ok := s.ResumePosition(n8(4), true)
	assert.True(ok)
	assert.Equal(n8(4), pos)
	pos, ok = s.ResumePosition(n8(20), true)
	assert.False(ok)
	assert.Equal(n8(-2), pos)
}

func TestNewSongHasCanonicalZeroPickup(t *testing.T) {
	s := NewSong("")
	assert.True(t, s.Pickup8n == frac.Zero)
	assert.True(t, s.Clone().Pickup8n == frac.Zero)
}

func TestSoundingVoices(t *testing.T) {
	s := NewSong("")
	muted := NewVoice(VoiceSettings{VolumePercent: 0}, NewNoteGroup(n8(0), n8(1), MidiNote{NoteNum: 60}))
	restsOnly := NewVoice(DefaultVoiceSettings(), NewRest(n8(0), n8(4)))
	later := NewVoice(VoiceSettings{VolumePercent: 0}, NewNoteGroup(n8(0), n8(1), MidiNote{NoteNum: 62}))
	later.SettingsChanges.Upsert(n8(8), DefaultVoiceSettings())
	s.Voices = []Voice{muted, restsOnly, later}

	voices := s.SoundingVoices()
	assert.Len(t, voices, 1)
	assert.Equal(t, uint8(62), voices[0].NoteGroups[0].MidiNotes[0].NoteNum)
}

func TestValidateReportsEveryViolation(t *testing.T) {
	s := NewSong("")
	s.Voices = []Voice{NewVoice(DefaultVoiceSettings(),
		NewNoteGroup(n8(0), n8(4), MidiNote{NoteNum: 60}),
		NewNoteGroup(n8(2), n8(6), MidiNote{NoteNum: 62}),
		NewNoteGroup(n8(8), n8(7), MidiNote{NoteNum: 64}),
		NewNoteGroup(n8(9), n8(9), MidiNote{NoteNum: 65}),
	)}
	err := s.Validate()
	assert := assert.New(t)
	assert.Error(err)
	assert.Len(multierr.Errors(err), 3)
	var invErr *ScoreInvariantError
	assert.True(errors.As(err, &invErr))
	assert.Equal(0, invErr.VoiceIdx)
}

func TestValidateAcceptsPickupMarker(t *testing.T) {
	s := NewSong("")
	s.Voices = []Voice{NewVoice(DefaultVoiceSettings(),
		NewRest(n8(0), n8(0)),
		NewNoteGroup(n8(0), n8(2), MidiNote{NoteNum: 60}),
	)}
	assert.NoError(t, s.Validate())
}

func TestValidatePlayback(t *testing.T) {
	s := NewSong("")
	assert.NoError(t, s.ValidatePlayback())

	s.Tempo8nPerMinChanges = s.Tempo8nPerMinChanges.WithDefault(0)
	s.SwingChanges.Upsert(n8(4), Swing{Ratio: n8(2), Dur8n: frac.Zero})
	err := s.ValidatePlayback()
	var confErr *ConfigurationError
	assert.True(t, errors.As(err, &confErr))
	assert.Len(t, multierr.Errors(err), 2)
}

func TestValidatePlaybackRejectsEmptyMeters(t *testing.T) {
	for _, ts := range []TimeSig{{0, 4}, {4, 0}, {-3, 4}} {
		t.Run(ts.String(), func(t *testing.T) {
			s := NewSong("")
			s.TimeSigChanges.Upsert(n8(8), ts)
			var confErr *ConfigurationError
			assert.ErrorAs(t, s.ValidatePlayback(), &confErr)
		})
	}
}

func TestAppendJoinsParts(t *testing.T) {
	assert := assert.New(t)
	a := NewSong("a")
	a.Voices = []Voice{NewVoice(DefaultVoiceSettings(), NewNoteGroup(n8(0), n8(8), MidiNote{NoteNum: 60}))}
	a.ChordChanges.Upsert(n8(0), chord.Chord{Symbol: "C"})

	b := NewSong("b")
	b.Tempo8nPerMinChanges = b.Tempo8nPerMinChanges.WithDefault(180)
	b.Pickup8n = n8(-1)
	b.Voices = []Voice{
		NewVoice(VoiceSettings{Instrument: Vibraphone, VolumePercent: 50},
			NewRest(n8(-1), n8(0)),
			NewNoteGroup(n8(0), n8(8), MidiNote{NoteNum: 62})),
		NewVoice(DefaultVoiceSettings(), NewNoteGroup(n8(0), n8(8), MidiNote{NoteNum: 36})),
	}
	b.ChordChanges.Upsert(n8(0), chord.Chord{Symbol: "Dm"})

	song := a.Clone()
	song.Append(b)

	assert.Len(song.Voices, 2)
	assert.Len(song.Voices[0].NoteGroups, 2)
	assert.Equal(n8(8), song.Voices[0].NoteGroups[1].Start8n)
	assert.Equal(Vibraphone, song.Voices[0].SettingsAt(n8(8)).Instrument)
	assert.Equal(AcousticGrandPiano, song.Voices[0].SettingsAt(n8(7)).Instrument)
	assert.Equal(0, song.Voices[1].SettingsAt(n8(0)).VolumePercent)
	assert.Equal(100, song.Voices[1].SettingsAt(n8(8)).VolumePercent)
	assert.Equal("Dm", song.ChordChanges.ValAt(n8(8)).Symbol)
	assert.Equal(float64(DefaultTempo8nPerMin), song.Tempo8nPerMinChanges.ValAt(n8(7)))
	assert.Equal(180.0, song.Tempo8nPerMinChanges.ValAt(n8(8)))
	assert.Equal(n8(16), song.End8n())
	// the original part is untouched
	assert.Len(a.Voices[0].NoteGroups, 1)
}

func TestEventMessages(t *testing.T) {
	assert := assert.New(t)
	assert.Equal([]byte{0x91, 60, 100}, []byte(NoteOnEvent(1, 60, 100).Message()))
	assert.Equal([]byte{0x81, 60, 0}, []byte(NoteOffEvent(1, 60).Message()))
	assert.Equal([]byte{0xC2, 11}, []byte(ProgramChangeEvent(2, Vibraphone).Message()))
	assert.Equal("NoteOn ch=1 note=60 vel=100", NoteOnEvent(1, 60, 100).String())
}

func TestParseInstrument(t *testing.T) {
	inst, err := ParseInstrument("Vibraphone")
	assert.NoError(t, err)
	assert.Equal(t, Vibraphone, inst)
	inst, err = ParseInstrument("33")
	assert.NoError(t, err)
	assert.Equal(t, Instrument(33), inst)
	_, err = ParseInstrument("kazoo")
	assert.Error(t, err)
}
