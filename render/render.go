package render

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/jsphweid/songreplay/constants"
	"github.com/jsphweid/songreplay/logger"
	"github.com/jsphweid/songreplay/model"
	"github.com/jsphweid/songreplay/sound"
	"github.com/jsphweid/songreplay/timeline"
	"github.com/pkg/errors"
	meltysynth "github.com/sinshu/go-meltysynth/meltysynth"
	"go.uber.org/zap"
)

const (
	// Notes are triggered on block boundaries, so this is also the timing
	// resolution of a render (about 23ms).
	block = 1024

	// tailSamples leaves room for releases and reverb after the last event.
	tailSamples = constants.SampleRate

	// fadeOutSamples is rendered after the tail and faded to silence.
	fadeOutSamples = 2 * constants.SampleRate
)

// synthesizer is the part of meltysynth.Synthesizer the renderer drives.
type synthesizer interface {
	ProcessMidiMessage(channel int32, command int32, data1, data2 int32)
	NoteOn(channel, key, vel int32)
	NoteOff(channel, key int32)
	Render(left, right []float32)
}

// newSynthesizer is replaced in tests.
var newSynthesizer = func(sf *meltysynth.SoundFont, settings *meltysynth.SynthesizerSettings) (synthesizer, error) {
	return meltysynth.NewSynthesizer(sf, settings)
}

func LoadSoundFont(path string) (*meltysynth.SoundFont, error) {
	dat, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "could not read soundfont")
	}
	sf, err := meltysynth.NewSoundFont(bytes.NewReader(dat))
	if err != nil {
		return nil, errors.Wrapf(err, "could not parse soundfont %s", path)
	}
	return sf, nil
}

// Renderer turns compiled timelines into audio. A fresh synthesizer is built
// per render so one Renderer can be shared by concurrent jobs.
type Renderer struct {
	soundFont *meltysynth.SoundFont
	settings  *meltysynth.SynthesizerSettings
	logger    *zap.Logger
}

func New(sf *meltysynth.SoundFont, l *zap.Logger) *Renderer {
	settings := meltysynth.NewSynthesizerSettings(constants.SampleRate)
	settings.BlockSize = block
	return &Renderer{
		soundFont: sf,
		settings:  settings,
		logger:    logger.OrNop(l).Named("render"),
	}
}

func samplesOf(d time.Duration) int {
	return int((d.Nanoseconds()*int64(constants.SampleRate) + int64(time.Second/2)) / int64(time.Second))
}

// Render plays tl through the synthesizer and returns the raw left and right
// samples. Channels are set up the way a live sink would configure them.
func (r *Renderer) Render(tl *timeline.Timeline, channels []sound.ChannelInfo) ([]float32, []float32, error) {
	syn, err := newSynthesizer(r.soundFont, r.settings)
	if err != nil {
		return nil, nil, errors.Wrap(err, "could not create synthesizer")
	}
	for _, c := range channels {
		if !c.IsDrum {
			syn.ProcessMidiMessage(int32(c.ChannelNum), 0xC0, int32(c.Instrument), 0)
		}
	}

	entries := tl.Entries()
	if len(entries) == 0 {
		return nil, nil, nil
	}
	base := entries[0].Time
	positions := make([]int, len(entries))
	for i, entry := range entries {
		positions[i] = samplesOf(entry.Time - base)
	}
	totalSamples := positions[len(positions)-1] + tailSamples + fadeOutSamples

	leftAll := make([]float32, 0, totalSamples)
	rightAll := make([]float32, 0, totalSamples)
	next := 0
	for pos := 0; pos < totalSamples; pos += block {
		n := block
		if pos+n > totalSamples {
			n = totalSamples - pos
		}
		for ; next < len(entries) && positions[next] < pos+n; next++ {
			for _, evt := range entries[next].Events {
				trigger(syn, evt)
			}
		}
		left := make([]float32, block)
		right := make([]float32, block)
		if err := safeRender(syn, left, right); err != nil {
			return nil, nil, err
		}
		leftAll = append(leftAll, left[:n]...)
		rightAll = append(rightAll, right[:n]...)
	}
	r.logger.Debug("rendered",
		zap.Int("entries", len(entries)),
		zap.Int("samples", totalSamples))
	return leftAll, rightAll, nil
}

func trigger(syn synthesizer, evt model.Event) {
	ch := int32(evt.ChannelNum)
	switch evt.Kind {
	case model.NoteOn:
		syn.NoteOn(ch, int32(evt.NoteNum), int32(evt.Velocity))
	case model.NoteOff:
		syn.NoteOff(ch, int32(evt.NoteNum))
	case model.ProgramChange:
		syn.ProcessMidiMessage(ch, 0xC0, int32(evt.Program), 0)
	}
}

// safeRender turns a panic inside the synthesizer into an error.
func safeRender(s synthesizer, left, right []float32) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("synth render: %v", r)
		}
	}()
	s.Render(left, right)
	return nil
}

// MixPCM fades out the end, normalizes and interleaves the samples as 16-bit
// little endian stereo PCM.
func MixPCM(leftAll, rightAll []float32) []byte {
	if len(leftAll) == len(rightAll) && len(leftAll) > 0 {
		n := len(leftAll)
		fadeSamples := fadeOutSamples
		if fadeSamples > n {
			fadeSamples = n
		}
		start := n - fadeSamples
		for i := start; i < n; i++ {
			g := 1 - float32(i-start)/float32(fadeSamples)
			leftAll[i] *= g
			rightAll[i] *= g
		}
	}

	var peak float32
	for i := range leftAll {
		if v := float32(math.Abs(float64(leftAll[i]))); v > peak {
			peak = v
		}
		if v := float32(math.Abs(float64(rightAll[i]))); v > peak {
			peak = v
		}
	}
	if peak > 0 {
		g := float32(0.99) / peak
		for i := range leftAll {
			leftAll[i] *= g
			rightAll[i] *= g
		}
	}

	pcm := make([]byte, len(leftAll)*4)
	for i := range leftAll {
		putSample(pcm[4*i:], leftAll[i])
		putSample(pcm[4*i+2:], rightAll[i])
	}
	return pcm
}
