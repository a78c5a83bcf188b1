package drum

import (
	"testing"

	"github.com/jsphweid/songreplay/constants"
	"github.com/jsphweid/songreplay/frac"
	"github.com/jsphweid/songreplay/model"
	"github.com/stretchr/testify/assert"
)

func twoBarSong() *model.Song {
	s := model.NewSong("")
	s.Voices = []model.Voice{model.NewVoice(model.DefaultVoiceSettings(),
		model.NewNoteGroup(frac.Zero, frac.FromInt(16), model.MidiNote{NoteNum: 60, Velocity: 100}),
	)}
	return s
}

func strs(fs []frac.Frac) []string {
	var res []string
	for _, f := range fs {
		res = append(res, f.String())
	}
	return res
}

func TestBeat8ns(t *testing.T) {
	s := twoBarSong()
	assert.Equal(t, []string{"0", "2", "4", "6", "8", "10", "12", "14"}, strs(Beat8ns(s, frac.Zero, 1)))
	assert.Equal(t, []string{"8", "9", "10", "11", "12", "13", "14", "15"}, strs(Beat8ns(s, frac.FromInt(8), 2)))
}

func TestGridPulses(t *testing.T) {
	s := twoBarSong()
	grid := Grid(s, frac.Zero, 2)
	assert := assert.New(t)
	assert.Len(grid, 16)
	assert.Equal(Downbeat, grid[0].Pulse)
	assert.Equal(Division, grid[1].Pulse)
	assert.Equal(Beat, grid[2].Pulse)
	assert.Equal(Downbeat, grid[8].Pulse)
}

func TestGridCoversPickupAndCountIn(t *testing.T) {
	s := twoBarSong()
	s.Pickup8n = frac.FromInt(-2)
	assert.Equal(t, []string{"-2", "0", "2"}, strs(Beat8ns(s, s.Start8n(), 1))[:3])

	from := CountInStart8n(s, frac.FromInt(8))
	assert.Equal(t, "0", from.String())

	from = CountInStart8n(s, frac.Zero)
	grid := Grid(s, from, 1)
	assert.Equal(t, "-8", grid[0].Time8n.String())
	assert.Equal(t, Downbeat, grid[0].Pulse)
	assert.Equal(t, Beat, grid[1].Pulse)
}

func TestGridFollowsMeterChanges(t *testing.T) {
	s := twoBarSong()
	s.TimeSigChanges = s.TimeSigChanges.WithDefault(model.TimeSig{UpperNumeral: 3, LowerNumeral: 4})
	s.TimeSigChanges.Upsert(frac.FromInt(6), model.TimeSig{UpperNumeral: 6, LowerNumeral: 8})
	assert.Equal(t,
		[]string{"0", "2", "4", "6", "7", "8", "9", "10", "11", "12", "13", "14", "15"},
		strs(Beat8ns(s, frac.Zero, 1)))
}

func TestVoice(t *testing.T) {
	assert := assert.New(t)
	s := twoBarSong()
	v := Voice(s, frac.Zero, 1)
	assert.Len(v.NoteGroups, 8)
	first := v.NoteGroups[0]
	assert.Equal(BassDrum, first.MidiNotes[0].NoteNum)
	assert.Equal(constants.DrumChannel, first.MidiNotes[0].ChannelNum)
	assert.True(first.IsStaccato)
	assert.Equal("1/2", first.RealEnd8n.String())
	assert.Equal("2", first.End8n.String())
	assert.Equal(ClosedHiHat, v.NoteGroups[1].MidiNotes[0].NoteNum)
	assert.Equal("16", v.End8n().String())
	assert.NoError(model.ValidateVoice(0, v))
}
