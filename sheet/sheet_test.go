package sheet

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jsphweid/songreplay/frac"
	"github.com/jsphweid/songreplay/model"
	"github.com/jsphweid/songreplay/timeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tune = `
title: Test Tune
headers:
  meter: 4/4
  tempo: 240
  sub: 3
parts:
  - headers: {p: Intro}
    chords: ["C"]
  - headers: {part: A, swing: medium, k: Am}
    pickup: ["_ G7"]
    chords: ["Am7 | D7", "G", "- Em", "_"]
    voices:
      - name: melody
        instrument: flute
        volume: 80
        notes:
          - {start: 0, end: 2, pitches: [69], staccato: true, realEnd: 1}
          - {start: 2, end: 4, pitches: [60, 64, 67], roll: up, velocity: 70}
          - {start: 4, end: 6}
  - headers: {p: B, copy: A}
    chords: ["F Bb"]
    turnaround: 4
form:
  intro: Intro
  body: [A, B]
  repeats: 1
`

func n8(n int) frac.Frac {
	return frac.FromInt(n)
}

func TestSongFromSheet(t *testing.T) {
	assert := assert.New(t)
	s, err := Parse([]byte(tune))
	require.NoError(t, err)
	song, err := s.Song()
	require.NoError(t, err)

	assert.Equal("Test Tune", song.Title)
	assert.Equal("88", song.End8n().String())
	assert.True(song.Start8n().IsZero())

	type change struct{ at, symbol string }
	var got []change
	for _, c := range song.ChordChanges.GetChanges() {
		got = append(got, change{c.Start8n.String(), c.Val.Symbol})
	}
	// B copies the pickup of A, the pickup of the second A replaces the Bb
	// of the first B and the final B drops its turnaround
	assert.Equal([]change{
		{"0", "C"}, {"4", "G7"},
		{"8", "Am7"}, {"12", "D7"}, {"16", "G"}, {"28", "Em"},
		{"36", "G7"}, {"40", "F"}, {"44", "G7"},
		{"48", "Am7"}, {"52", "D7"}, {"56", "G"}, {"68", "Em"},
		{"76", "G7"}, {"80", "F"},
	}, got)

	assert.False(song.SwingChanges.ValAt(n8(0)).IsSwung())
	assert.Equal("2", song.SwingChanges.ValAt(n8(8)).Ratio.String())
	assert.Equal(model.KeySig{Tonic: "A", Minor: true}, song.KeySigChanges.ValAt(n8(8)))
	assert.Equal(240.0, song.Tempo8nPerMinChanges.ValAt(n8(80)))
	assert.Equal(3, song.NumBeatDivisions)

	require.Len(t, song.Voices, 1)
	melody := song.Voices[0]
	assert.Equal(model.Flute, melody.SettingsAt(n8(8)).Instrument)
	assert.Equal(80, melody.SettingsAt(n8(8)).VolumePercent)
	assert.Equal(model.AcousticGrandPiano, melody.SettingsAt(n8(0)).Instrument)

	var sounding []model.NoteGroup
	for _, ng := range melody.NoteGroups {
		if !ng.IsRest() {
			sounding = append(sounding, ng)
		}
	}
	// A, B, A, B
	require.Len(t, sounding, 8)
	first := sounding[0]
	assert.Equal("8", first.Start8n.String())
	assert.True(first.IsStaccato)
	assert.Equal("9", first.RealEnd8n.String())
	assert.Equal(uint8(100), first.MidiNotes[0].Velocity)
	assert.True(sounding[1].IsRollingUp)
	assert.Equal(uint8(70), sounding[1].MidiNotes[0].Velocity)
	assert.Equal("40", sounding[2].Start8n.String())
	assert.Equal("80", sounding[6].Start8n.String())
}

func TestDefaultForm(t *testing.T) {
	s, err := Parse([]byte(`
parts:
  - headers: {p: outro}
    chords: ["C"]
  - headers: {p: head, m: 3/4}
    chords: ["Dm", "G7"]
  - headers: {p: intro}
    chords: ["G7"]
`))
	require.NoError(t, err)
	song, err := s.Song()
	require.NoError(t, err)

	var symbols []string
	var times []string
	for _, c := range song.ChordChanges.GetChanges() {
		symbols = append(symbols, c.Val.Symbol)
		times = append(times, c.Start8n.String())
	}
	// the meter of head carries over into intro
	assert.Equal(t, []string{"G7", "Dm", "G7", "C"}, symbols)
	assert.Equal(t, []string{"0", "6", "12", "18"}, times)
	assert.Equal(t, "26", song.End8n().String())
}

func TestPickupSetsSongStart(t *testing.T) {
	s, err := Parse([]byte(`
parts:
  - pickup: ["_ _ D7 -"]
    chords: ["G"]
`))
	require.NoError(t, err)
	song, err := s.Song()
	require.NoError(t, err)
	assert.Equal(t, "-4", song.Start8n().String())
	assert.Equal(t, "D7", song.ChordChanges.ValAt(n8(-1)).Symbol)
	assert.Equal(t, "G", song.ChordChanges.ValAt(n8(0)).Symbol)
}

func TestApplyCellIsIdempotent(t *testing.T) {
	song := model.NewSong("cells")
	measure := n8(8)
	applyCell(song, "C F", n8(8), measure)
	applyCell(song, "C F", n8(8), measure)
	assert.Equal(t, 2, song.ChordChanges.Len())

	// a leading slot keeps what is there
	applyCell(song, "- G", n8(8), measure)
	assert.Equal(t, "C", song.ChordChanges.ValAt(n8(8)).Symbol)
	assert.Equal(t, "G", song.ChordChanges.ValAt(n8(12)).Symbol)

	applyCell(song, "_", n8(8), measure)
	assert.Equal(t, 0, song.ChordChanges.Len())
}

func TestRolledChordsSpreadOut(t *testing.T) {
	ms := time.Millisecond
	cases := []struct {
		name   string
		note   string
		onsets map[uint8]time.Duration
	}{
		{"up", "{start: 0, end: 8, pitches: [67, 60, 64], roll: up, rollMs: 40}", map[uint8]time.Duration{60: 0, 64: 40 * ms, 67: 80 * ms}},
		{"down", "{start: 0, end: 8, pitches: [60, 64, 67], roll: down, rollMs: 40}", map[uint8]time.Duration{67: 0, 64: 40 * ms, 60: 80 * ms}},
		{"default gap", "{start: 0, end: 8, pitches: [60, 64], roll: up}", map[uint8]time.Duration{60: 0, 64: defaultRollGap}},
		{"not rolled", "{start: 0, end: 8, pitches: [60, 64]}", map[uint8]time.Duration{60: 0, 64: 0}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s, err := Parse([]byte("parts:\n  - chords: [C]\n    voices: [{notes: [" + c.note + "]}]\n"))
			require.NoError(t, err)
			song, err := s.Song()
			require.NoError(t, err)
			tl, err := timeline.Compile(song, song.SoundingVoices(), []uint8{1}, timeline.Options{})
			require.NoError(t, err)

			onsets := make(map[uint8]time.Duration)
			for _, entry := range tl.Entries() {
				for _, evt := range entry.Events {
					if evt.Kind == model.NoteOn {
						onsets[evt.NoteNum] = entry.Time
					}
				}
			}
			assert.Equal(t, c.onsets, onsets)
		})
	}
}

func TestParseKey(t *testing.T) {
	cases := map[string]model.KeySig{
		"C":     {Tonic: "C"},
		"bb":    {Tonic: "Bb"},
		"F#m":   {Tonic: "F#", Minor: true},
		"Ebmin": {Tonic: "Eb", Minor: true},
		"D-":    {Tonic: "D", Minor: true},
	}
	for in, want := range cases {
		t.Run(in, func(t *testing.T) {
			got, err := parseKey(in)
			assert.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
	_, err := parseKey("H")
	assert.Error(t, err)
}

func TestSheetErrors(t *testing.T) {
	cases := map[string]string{
		"unknown header":  "parts:\n  - headers: {color: red}\n    chords: [C]\n",
		"unknown copy":    "parts:\n  - headers: {copy: Z}\n    chords: [C]\n",
		"unknown part":    "parts:\n  - headers: {p: A}\n    chords: [C]\nform: {body: [B]}\n",
		"duplicate part":  "parts:\n  - headers: {p: A}\n    chords: [C]\n  - headers: {p: A}\n    chords: [D]\n",
		"bad roll":        "parts:\n  - chords: [C]\n    voices: [{notes: [{start: 0, end: 1, pitches: [60], roll: sideways}]}]\n",
		"negative roll":   "parts:\n  - chords: [C]\n    voices: [{notes: [{start: 0, end: 1, pitches: [60], roll: up, rollMs: -5}]}]\n",
		"empty part":      "parts:\n  - headers: {p: A}\n",
		"bad tempo":       "headers: {tempo: fast}\nparts:\n  - chords: [C]\n",
		"bad subdivision": "headers: {subdivision: 0}\nparts:\n  - chords: [C]\n",
		"no parts":        "title: nothing\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			s, err := Parse([]byte(doc))
			require.NoError(t, err)
			_, err = s.Song()
			var confErr *model.ConfigurationError
			assert.True(t, errors.As(err, &confErr), "got %v", err)
		})
	}

	_, err := Parse([]byte("parts:\n  - chordz: [C]\n"))
	assert.Error(t, err)
}

func TestOverlappingNotesFailValidation(t *testing.T) {
	s, err := Parse([]byte("parts:\n  - chords: [C]\n    voices: [{notes: [{start: 0, end: 4, pitches: [60]}, {start: 2, end: 6, pitches: [62]}]}]\n"))
	require.NoError(t, err)
	_, err = s.Song()
	var invErr *model.ScoreInvariantError
	assert.True(t, errors.As(err, &invErr))
}

func TestLoadUsesFileName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blue-bossa.yaml")
	require.NoError(t, os.WriteFile(path, []byte("parts:\n  - chords: [Cm7]\n"), 0644))
	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "blue-bossa", s.Title)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
