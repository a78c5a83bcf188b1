package replay

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jsphweid/songreplay/clock"
	"github.com/jsphweid/songreplay/frac"
	"github.com/jsphweid/songreplay/logger"
	"github.com/jsphweid/songreplay/model"
	"github.com/jsphweid/songreplay/sound"
	"github.com/jsphweid/songreplay/timeline"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Beat is published whenever playback reaches a point of the beat grid.
type Beat struct {
	Time   time.Time
	Time8n frac.Frac
	// IsPickup marks count-in and pickup beats before the requested start.
	IsPickup bool
}

// BeatSubscriber is called synchronously once per beat and must not block.
type BeatSubscriber func(Beat)

type playback struct {
	id       uuid.UUID
	start8n  frac.Frac
	entries  []timeline.Entry
	beats    map[time.Duration]frac.Frac
	startAt  time.Time
	baseTime time.Duration
}

// due is the wall clock time entry idx is scheduled for. Deadlines are taken
// from the playback start, not from the previous tick, so lateness does not
// add up.
func (p *playback) due(idx int) time.Time {
	return p.startAt.Add(p.entries[idx].Time - p.baseTime)
}

// Replayer plays songs on a sink, one at a time. It is Idle until Play and
// goes back to Idle when the last entry is done or Stop is called.
type Replayer struct {
	sink      sound.Sink
	clock     clock.Clock
	logger    *zap.Logger
	beatSub   BeatSubscriber
	drumVoice DrumVoiceFunc
	errLimit  *rate.Limiter

	mu         sync.Mutex
	gen        uint64
	playing    bool
	timer      clock.Timer
	curr       *playback
	currTime8n frac.Frac
	hasCurr    bool
}

func New(sink sound.Sink, opts ...Option) *Replayer {
	r := &Replayer{
		sink:      sink,
		clock:     clock.Real(),
		drumVoice: defaultDrumVoice(),
		errLimit:  rate.NewLimiter(rate.Every(time.Second), 5),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logger.OrNop(r.logger).Named("replay")
	return r
}

// Play starts playing song. It does nothing when already playing. Any error
// leaves the replayer Idle.
func (r *Replayer) Play(song *model.Song, opts Options) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.playing {
		return nil
	}

	a, err := Arrange(song, opts, r.drumVoice)
	if err != nil {
		return err
	}
	if err := r.sink.Configure(a.Channels); err != nil {
		return err
	}
	p := &playback{
		id:      uuid.New(),
		start8n: a.Start8n,
		entries: a.Timeline.Entries(),
		beats:   a.Beats,
	}
	r.logger.Info("play",
		zap.Stringer("playback", p.id),
		zap.Stringer("start8n", p.start8n),
		zap.Int("entries", len(p.entries)))
	if len(p.entries) == 0 {
		r.stopLocked()
		return nil
	}

	r.gen++
	gen := r.gen
	r.playing = true
	r.curr = p
	p.startAt = r.clock.Now()
	p.baseTime = p.entries[0].Time
	r.timer = r.clock.AfterFunc(0, func() { r.step(gen, 0) })
	return nil
}

// step runs entry idx and arms the timer for the next one.
func (r *Replayer) step(gen uint64, idx int) {
	r.mu.Lock()
	if !r.playing || gen != r.gen {
		r.mu.Unlock()
		return
	}
	p := r.curr
	entry := p.entries[idx]
	for _, evt := range entry.Events {
		if err := r.sink.Execute(evt); err != nil && r.errLimit.Allow() {
			r.logger.Warn("sink rejected event",
				zap.Stringer("playback", p.id),
				zap.Stringer("event", evt),
				zap.Error(err))
		}
	}

	var beat *Beat
	if beat8n, ok := p.beats[entry.Time]; ok {
		r.currTime8n, r.hasCurr = beat8n, true
		if r.beatSub != nil {
			beat = &Beat{Time: r.clock.Now(), Time8n: beat8n, IsPickup: beat8n.LessThan(p.start8n)}
		}
	}

	if idx >= len(p.entries)-1 {
		r.stopLocked()
	} else {
		wait := p.due(idx + 1).Sub(r.clock.Now())
		if wait < 0 {
			wait = 0
		}
		r.timer = r.clock.AfterFunc(wait, func() { r.step(gen, idx+1) })
	}
	sub := r.beatSub
	r.mu.Unlock()

	if beat != nil {
		sub(*beat)
	}
}

// Stop cancels playback and silences the sink. It is safe to call at any
// time from any goroutine, calling it while Idle only silences the sink
// again.
func (r *Replayer) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
}

func (r *Replayer) stopLocked() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.gen++
	if r.playing && r.curr != nil {
		r.logger.Info("stop", zap.Stringer("playback", r.curr.id))
	}
	r.playing = false
	r.curr = nil
	if err := r.sink.StopAll(); err != nil {
		r.logger.Warn("sink could not stop all notes", zap.Error(err))
	}
}

func (r *Replayer) IsPlaying() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playing
}

// CurrTime8n is the last beat playback reached, false before the first beat.
func (r *Replayer) CurrTime8n() (frac.Frac, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currTime8n, r.hasCurr
}
