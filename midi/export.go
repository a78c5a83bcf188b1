package midi

import (
	"io"
	"math"
	"time"

	"github.com/jsphweid/songreplay/constants"
	"github.com/jsphweid/songreplay/sound"
	"github.com/jsphweid/songreplay/timeline"
	"github.com/pkg/errors"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// Exported files run at a fixed tempo, every tempo change of the song is
// already part of the timeline.
const exportBPM = 120

func ticksOf(d time.Duration) int64 {
	ticksPerSec := float64(exportBPM) / 60 * constants.TicksPerQuarter
	return int64(math.Round(d.Seconds() * ticksPerSec))
}

// DurationOfTicks is the time ticks take in an exported file.
func DurationOfTicks(ticks int64) time.Duration {
	ticksPerSec := float64(exportBPM) / 60 * constants.TicksPerQuarter
	return time.Duration(math.Round(float64(ticks) / ticksPerSec * float64(time.Second)))
}

// Export writes tl as a single track SMF. The first entry lands on tick 0.
func Export(tl *timeline.Timeline, channels []sound.ChannelInfo, title string) (*smf.SMF, error) {
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(constants.TicksPerQuarter)

	var track smf.Track
	track.Add(0, smf.MetaTrackSequenceName(title))
	track.Add(0, smf.MetaTempo(exportBPM))
	for _, c := range channels {
		if !c.IsDrum {
			track.Add(0, gomidi.ProgramChange(c.ChannelNum, uint8(c.Instrument)))
		}
	}

	entries := tl.Entries()
	var lastTick int64
	for _, entry := range entries {
		tick := ticksOf(entry.Time - entries[0].Time)
		msgs := make([][]byte, len(entry.Events))
		for i, evt := range entry.Events {
			msgs[i] = evt.Message()
		}
		track.Add(uint32(tick-lastTick), msgs...)
		lastTick = tick
	}
	track.Close(0)
	if err := s.Add(track); err != nil {
		return nil, errors.Wrap(err, "could not add track")
	}
	return s, nil
}

func WriteSMF(w io.Writer, s *smf.SMF) error {
	_, err := s.WriteTo(w)
	return errors.Wrap(err, "could not write midi file")
}
