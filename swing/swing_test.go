package swing

import (
	"testing"

	"github.com/jsphweid/songreplay/frac"
	"github.com/jsphweid/songreplay/model"
	"github.com/stretchr/testify/assert"
)

func group(start, end int) model.NoteGroup {
	return model.NewNoteGroup(frac.FromInt(start), frac.FromInt(end), model.MidiNote{NoteNum: 60, Velocity: 100})
}

func swingOf(n, d int) model.Swing {
	return model.Swing{Ratio: frac.Make(n, d), Dur8n: frac.FromInt(1)}
}

func TestIdentityWhenStraight(t *testing.T) {
	groups := []model.NoteGroup{group(0, 1), group(1, 2), group(2, 5), group(5, 6), group(6, 8)}
	for i, ng := range groups {
		var next *model.NoteGroup
		if i+1 < len(groups) {
			next = &groups[i+1]
		}
		start, end := Apply(ng, next, model.NoSwing())
		assert.True(t, start.Equals(ng.Start8n), "start of group %d", i)
		assert.True(t, end.Equals(ng.End8n), "end of group %d", i)
	}
}

func TestTripletFeelMovesOffbeat(t *testing.T) {
	assert := assert.New(t)
	first, second, third := group(0, 1), group(1, 2), group(2, 3)

	start, end := Apply(first, &second, swingOf(2, 1))
	assert.Equal("0", start.String())
	assert.Equal("4/3", end.String())

	start, end = Apply(second, &third, swingOf(2, 1))
	assert.Equal("4/3", start.String())
	assert.Equal("2", end.String())
}

func TestShiftPerRatio(t *testing.T) {
	tests := []struct {
		name  string
		sw    model.Swing
		shift string
	}{
		{"straight", swingOf(1, 1), "0"},
		{"light", swingOf(3, 2), "1/5"},
		{"triplet", swingOf(2, 1), "1/3"},
		{"hard", swingOf(5, 2), "3/7"},
		{"quarter unit", model.Swing{Ratio: frac.FromInt(2), Dur8n: frac.FromInt(2)}, "2/3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.shift, Shift8n(tt.sw).String())
		})
	}
}

func TestEvenBoundariesStayPut(t *testing.T) {
	ng, next := group(2, 4), group(4, 6)
	start, end := Apply(ng, &next, swingOf(2, 1))
	assert.Equal(t, "2", start.String())
	assert.Equal(t, "4", end.String())
}

func TestShortOccupantIsNotSwung(t *testing.T) {
	assert := assert.New(t)
	ornament := model.NewNoteGroup(frac.FromInt(1), frac.Make(3, 2), model.MidiNote{NoteNum: 62})
	start, _ := Apply(ornament, nil, swingOf(2, 1))
	assert.Equal("1", start.String())

	// the end lands on an offbeat but the group after it is too short
	ng := group(0, 1)
	start, end := Apply(ng, &ornament, swingOf(2, 1))
	assert.Equal("0", start.String())
	assert.Equal("1", end.String())
}

func TestNoNextMeansEndUnswung(t *testing.T) {
	start, end := Apply(group(0, 3), nil, swingOf(2, 1))
	assert.Equal(t, "0", start.String())
	assert.Equal(t, "3", end.String())
}

func TestNegativeOffbeatIsSwung(t *testing.T) {
	pickup := group(-1, 0)
	start, _ := Apply(pickup, nil, swingOf(2, 1))
	assert.Equal(t, "-2/3", start.String())
}
