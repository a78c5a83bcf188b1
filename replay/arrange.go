package replay

import (
	"time"

	"github.com/jsphweid/songreplay/drum"
	"github.com/jsphweid/songreplay/frac"
	"github.com/jsphweid/songreplay/model"
	"github.com/jsphweid/songreplay/sound"
	"github.com/jsphweid/songreplay/timeline"
	"go.uber.org/multierr"
)

// Arrangement is a song laid out for one playback: its voices on channels,
// compiled to wall clock time.
type Arrangement struct {
	Start8n  frac.Frac
	Timeline *timeline.Timeline
	Channels []sound.ChannelInfo
	// Beats maps timeline times to the beat of the grid they sound on.
	Beats map[time.Duration]frac.Frac
}

// Arrange compiles song the way Play would. A nil drumVoice uses the default
// drum overlay.
func Arrange(song *model.Song, opts Options, drumVoice DrumVoiceFunc) (*Arrangement, error) {
	if err := multierr.Combine(song.Validate(), song.ValidatePlayback()); err != nil {
		return nil, err
	}
	if drumVoice == nil {
		drumVoice = defaultDrumVoice()
	}
	start8n := song.Start8n()
	if opts.Start8n != nil {
		start8n = *opts.Start8n
	}
	divisions := opts.NumBeatDivisions
	if divisions < 1 {
		divisions = song.NumBeatDivisions
	}
	if divisions < 1 {
		divisions = 1
	}
	countIn8n := frac.Zero
	gridFrom := song.Start8n()
	if opts.PadLeft {
		countInFrom := drum.CountInStart8n(song, start8n)
		countIn8n = start8n.Minus(countInFrom)
		gridFrom = frac.Min(gridFrom, countInFrom)
	}

	voices := song.SoundingVoices()
	numMelodic := len(voices)
	withDrums := opts.AddDrumBeat || opts.PadLeft
	if withDrums {
		dv := drumVoice(song, gridFrom, divisions)
		if !opts.AddDrumBeat {
			dv.NoteGroups = countInOnly(dv.NoteGroups, start8n)
		}
		voices = append(voices, dv)
	}
	channels, err := AssignChannels(numMelodic, withDrums)
	if err != nil {
		return nil, err
	}

	tl, err := timeline.Compile(song, voices, channels, timeline.Options{Start8n: start8n, CountIn8n: countIn8n})
	if err != nil {
		return nil, err
	}
	beats, err := timeline.BeatTimes(song, drum.Beat8ns(song, gridFrom, divisions))
	if err != nil {
		return nil, err
	}

	infos := make([]sound.ChannelInfo, len(voices))
	for i, v := range voices {
		settings := v.SettingsAt(start8n)
		infos[i] = sound.ChannelInfo{
			ChannelNum: channels[i],
			Instrument: settings.Instrument,
			Name:       settings.Name,
			IsDrum:     withDrums && i == len(voices)-1,
		}
	}
	return &Arrangement{Start8n: start8n, Timeline: tl, Channels: infos, Beats: beats}, nil
}

func countInOnly(groups []model.NoteGroup, start8n frac.Frac) []model.NoteGroup {
	var res []model.NoteGroup
	for _, ng := range groups {
		if ng.Start8n.LessThan(start8n) {
			res = append(res, ng)
		}
	}
	return res
}
