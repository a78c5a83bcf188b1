package timeline

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/jsphweid/songreplay/constants"
	"github.com/jsphweid/songreplay/frac"
	"github.com/jsphweid/songreplay/model"
	"github.com/jsphweid/songreplay/swing"
	"github.com/jsphweid/songreplay/util"
	"go.uber.org/multierr"
)

type Options struct {
	// Note groups starting before Start8n are left out.
	Start8n frac.Frac
	// Groups on the drum channel are kept from Start8n - CountIn8n so a
	// count-in can be heard before the music starts.
	CountIn8n frac.Frac
}

// Entry is every event due at Time, measured from song time 0.
type Entry struct {
	Time   time.Duration
	Events []model.Event
}

type Timeline struct {
	entries []Entry
}

func (tl *Timeline) Entries() []Entry {
	return tl.entries
}

func (tl *Timeline) Len() int {
	return len(tl.entries)
}

func (tl *Timeline) IsEmpty() bool {
	return len(tl.entries) == 0
}

// Duration is the time between the first and the last entry.
func (tl *Timeline) Duration() time.Duration {
	if len(tl.entries) == 0 {
		return 0
	}
	return tl.entries[len(tl.entries)-1].Time - tl.entries[0].Time
}

func (tl *Timeline) Equal(o *Timeline) bool {
	if len(tl.entries) != len(o.entries) {
		return false
	}
	for i, e := range tl.entries {
		oe := o.entries[i]
		if e.Time != oe.Time || len(e.Events) != len(oe.Events) {
			return false
		}
		for j := range e.Events {
			if e.Events[j] != oe.Events[j] {
				return false
			}
		}
	}
	return true
}

type rollWindow struct {
	noteNums []uint8
	earliest time.Duration
	latest   time.Duration
}

// offsetMs is how far into the roll noteNum starts.
func (w *rollWindow) offsetMs(noteNum uint8, rollingDown bool) float64 {
	biggestIdx := len(w.noteNums) - 1
	if biggestIdx <= 0 {
		return 0
	}
	idx := sort.Search(len(w.noteNums), func(i int) bool { return w.noteNums[i] >= noteNum })
	if idx == len(w.noteNums) || w.noteNums[idx] != noteNum {
		return 0
	}
	if rollingDown {
		idx = biggestIdx - idx
	}
	return msOfDuration(w.latest-w.earliest) * float64(idx) / float64(biggestIdx)
}

// rollKey puts t in canonical form so equal times share a map key.
func rollKey(t frac.Frac) frac.Frac {
	return t.Plus(frac.Zero)
}

// rollWindows gathers the rolled chords of every voice by start time, so a
// chord spread over two hands rolls as one.
func rollWindows(voices []model.Voice) map[frac.Frac]*rollWindow {
	res := make(map[frac.Frac]*rollWindow)
	for _, v := range voices {
		for _, ng := range v.NoteGroups {
			if !ng.IsRolling() || ng.IsRest() {
				continue
			}
			key := rollKey(ng.Start8n)
			w, ok := res[key]
			if !ok {
				w = &rollWindow{earliest: ng.EarliestStartTime(), latest: ng.LatestStartTime()}
				res[key] = w
			}
			w.earliest = util.Min(w.earliest, ng.EarliestStartTime())
			w.latest = util.Max(w.latest, ng.LatestStartTime())
			for _, n := range ng.MidiNotes {
				w.noteNums = append(w.noteNums, n.NoteNum)
			}
			w.noteNums = util.SortedUnique(w.noteNums)
		}
	}
	return res
}

type builder struct {
	byTime map[time.Duration][]model.Event
}

func (b *builder) add(at time.Duration, evt model.Event) {
	b.byTime[at] = append(b.byTime[at], evt)
}

func (b *builder) build() *Timeline {
	times := util.GetKeys(b.byTime)
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })
	tl := &Timeline{entries: make([]Entry, 0, len(times))}
	for _, at := range times {
		evts := b.byTime[at]
		// a re-struck pitch is released before it sounds again
		sort.SliceStable(evts, func(i, j int) bool { return evts[i].Kind < evts[j].Kind })
		tl.entries = append(tl.entries, Entry{Time: at, Events: evts})
	}
	return tl
}

func scaleVelocity(velocity uint8, volumePercent int) uint8 {
	v := math.Round(float64(velocity) * float64(volumePercent) / 100)
	return uint8(util.Clamp(v, 0, 127))
}

type span struct {
	startMs float64
	endMs   float64
}

func (c *compiler) span(ng model.NoteGroup, next *model.NoteGroup) span {
	start8n, end8n := swing.Apply(ng, next, c.song.SwingChanges.ValAt(ng.Start8n))
	normalStartMs := c.tempo.Ms(start8n)
	normalEndMs := c.tempo.Ms(end8n)
	realEndMs := c.tempo.Ms(ng.RealEnd8n)
	switch {
	case ng.IsStaccato:
		return span{normalStartMs, realEndMs}
	case ng.IsLogicalGraceNote:
		lead := util.Max(ng.LatestEndTime()-ng.LatestStartTime(), constants.MinGraceLead)
		return span{normalStartMs - msOfDuration(lead), normalStartMs}
	}
	return span{normalStartMs, math.Min(realEndMs, normalEndMs)}
}

type compiler struct {
	song  *model.Song
	tempo *TempoMap
	opts  Options
	rolls map[frac.Frac]*rollWindow
	b     *builder
}

func (c *compiler) from8n(channel uint8) frac.Frac {
	if channel == constants.DrumChannel {
		return c.opts.Start8n.Minus(c.opts.CountIn8n)
	}
	return c.opts.Start8n
}

func (c *compiler) voice(v model.Voice, channel uint8) {
	from8n := c.from8n(channel)
	for idx, ng := range v.NoteGroups {
		if ng.IsRest() || ng.Start8n.LessThan(from8n) {
			continue
		}
		var next *model.NoteGroup
		if idx+1 < len(v.NoteGroups) {
			next = &v.NoteGroups[idx+1]
		}
		sp := c.span(ng, next)
		volumePercent := v.SettingsAt(ng.Start8n).VolumePercent
		for _, note := range ng.MidiNotes {
			velocity := scaleVelocity(note.Velocity, volumePercent)
			if velocity == 0 {
				continue
			}
			startMs := sp.startMs
			if ng.IsRolling() {
				if w, ok := c.rolls[rollKey(ng.Start8n)]; ok {
					startMs += w.offsetMs(note.NoteNum, ng.IsRollingDown)
				}
			}
			start := durationOfMs(startMs)
			end := durationOfMs(sp.endMs)
			if end <= start {
				end = start + time.Millisecond
			}
			c.b.add(start, model.NoteOnEvent(channel, note.NoteNum, velocity))
			c.b.add(end, model.NoteOffEvent(channel, note.NoteNum))
		}
	}
	c.programChanges(v, channel, from8n)
}

// programChanges emits the instrument switches that happen after from8n. The
// instrument in effect at from8n is set when the sink is configured.
func (c *compiler) programChanges(v model.Voice, channel uint8, from8n frac.Frac) {
	if channel == constants.DrumChannel {
		return
	}
	curr := v.SettingsAt(from8n).Instrument
	for _, change := range v.SettingsChanges.GetChanges() {
		if !change.Start8n.GreaterThan(from8n) || change.Val.Instrument == curr {
			continue
		}
		curr = change.Val.Instrument
		c.b.add(c.tempo.Time(change.Start8n), model.ProgramChangeEvent(channel, curr))
	}
}

// Compile turns voices of song into a timeline of events. channels[i] is the
// channel voices[i] plays on. Compile has no side effects, compiling the same
// input twice gives equal timelines.
func Compile(song *model.Song, voices []model.Voice, channels []uint8, opts Options) (*Timeline, error) {
	if len(voices) != len(channels) {
		return nil, &model.ConfigurationError{
			Reason: fmt.Sprintf("%d voices but %d channels", len(voices), len(channels)),
		}
	}
	err := song.ValidatePlayback()
	for idx, v := range voices {
		err = multierr.Append(err, model.ValidateVoice(idx, v))
	}
	if err != nil {
		return nil, err
	}
	tempo, err := NewTempoMap(song.Tempo8nPerMinChanges)
	if err != nil {
		return nil, err
	}

	c := &compiler{
		song:  song,
		tempo: tempo,
		opts:  opts,
		rolls: rollWindows(voices),
		b:     &builder{byTime: make(map[time.Duration][]model.Event)},
	}
	for idx, v := range voices {
		c.voice(v, channels[idx])
	}
	return c.b.build(), nil
}

// BeatTimes maps the time of every beat to its song position. Times come from
// the same tempo map Compile uses, so entries on a beat match exactly.
func BeatTimes(song *model.Song, beats []frac.Frac) (map[time.Duration]frac.Frac, error) {
	tempo, err := NewTempoMap(song.Tempo8nPerMinChanges)
	if err != nil {
		return nil, err
	}
	res := make(map[time.Duration]frac.Frac, len(beats))
	for _, beat := range beats {
		res[tempo.Time(beat)] = beat
	}
	return res, nil
}
