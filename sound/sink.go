package sound

import (
	"github.com/jsphweid/songreplay/model"
	"go.uber.org/multierr"
)

// ChannelInfo tells a sink what plays on a channel.
type ChannelInfo struct {
	ChannelNum uint8
	Instrument model.Instrument
	Name       string
	IsDrum     bool
}

// Sink makes sound out of events. Implementations are driven by one replayer
// at a time.
type Sink interface {
	Configure(channels []ChannelInfo) error
	Execute(evt model.Event) error
	// StopAll silences every sounding note.
	StopAll() error
}

type multi []Sink

// Multi fans out to every sink. Each sink gets every call even when an
// earlier one fails, the errors are combined.
func Multi(sinks ...Sink) Sink {
	return multi(sinks)
}

func (m multi) Configure(channels []ChannelInfo) error {
	var err error
	for _, s := range m {
		err = multierr.Append(err, s.Configure(channels))
	}
	return err
}

func (m multi) Execute(evt model.Event) error {
	var err error
	for _, s := range m {
		err = multierr.Append(err, s.Execute(evt))
	}
	return err
}

func (m multi) StopAll() error {
	var err error
	for _, s := range m {
		err = multierr.Append(err, s.StopAll())
	}
	return err
}
