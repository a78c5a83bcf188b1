package replay

import (
	"github.com/jsphweid/songreplay/clock"
	"github.com/jsphweid/songreplay/drum"
	"github.com/jsphweid/songreplay/frac"
	"github.com/jsphweid/songreplay/model"
	"go.uber.org/zap"
)

// Options control one playback.
type Options struct {
	// Start8n is where playback resumes. Nil starts at the song start.
	Start8n *frac.Frac
	// AddDrumBeat plays the beat grid on the drum channel.
	AddDrumBeat bool
	// PadLeft counts one measure of beats in before Start8n.
	PadLeft bool
	// NumBeatDivisions splits every beat of the grid. When unset the song's
	// own subdivision is used, or 1.
	NumBeatDivisions int
}

func StartAt(t frac.Frac) *frac.Frac {
	return &t
}

// DrumVoiceFunc builds the drum overlay for song from from8n on.
type DrumVoiceFunc func(song *model.Song, from8n frac.Frac, numBeatDivisions int) model.Voice

// Option configures a Replayer.
type Option func(*Replayer)

// WithClock sets the clock timers are armed on.
func WithClock(c clock.Clock) Option {
	return func(r *Replayer) {
		r.clock = c
	}
}

// WithLogger sets the logger for the replayer.
func WithLogger(l *zap.Logger) Option {
	return func(r *Replayer) {
		r.logger = l
	}
}

// WithBeatSubscriber registers the callback beats are published to.
func WithBeatSubscriber(sub BeatSubscriber) Option {
	return func(r *Replayer) {
		r.beatSub = sub
	}
}

// WithDrumVoice replaces the drum overlay.
func WithDrumVoice(f DrumVoiceFunc) Option {
	return func(r *Replayer) {
		r.drumVoice = f
	}
}

func defaultDrumVoice() DrumVoiceFunc {
	return drum.Voice
}
