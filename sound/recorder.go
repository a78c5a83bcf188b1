package sound

import (
	"sync"
	"time"

	"github.com/jsphweid/songreplay/clock"
	"github.com/jsphweid/songreplay/model"
)

type Recorded struct {
	At    time.Time
	Event model.Event
}

// Recorder keeps every call it gets, stamped with the clock's time.
type Recorder struct {
	mu           sync.Mutex
	clock        clock.Clock
	channels     []ChannelInfo
	events       []Recorded
	stopAllCount int
	// FailOn makes Execute fail for matching events.
	FailOn func(evt model.Event) error
}

func NewRecorder(c clock.Clock) *Recorder {
	return &Recorder{clock: c}
}

func (r *Recorder) Configure(channels []ChannelInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels = append([]ChannelInfo(nil), channels...)
	return nil
}

func (r *Recorder) Execute(evt model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailOn != nil {
		if err := r.FailOn(evt); err != nil {
			return err
		}
	}
	r.events = append(r.events, Recorded{At: r.clock.Now(), Event: evt})
	return nil
}

func (r *Recorder) StopAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopAllCount++
	return nil
}

func (r *Recorder) Channels() []ChannelInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ChannelInfo(nil), r.channels...)
}

func (r *Recorder) Events() []Recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Recorded(nil), r.events...)
}

// Count is the number of recorded events of kind.
func (r *Recorder) Count(kind model.EventKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, rec := range r.events {
		if rec.Event.Kind == kind {
			n++
		}
	}
	return n
}

func (r *Recorder) StopAllCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopAllCount
}
