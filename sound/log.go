package sound

import (
	"github.com/jsphweid/songreplay/logger"
	"github.com/jsphweid/songreplay/model"
	"go.uber.org/zap"
)

// LogSink makes no sound. It logs every event at debug level, which is handy
// to dry run a song without a synth attached.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(l *zap.Logger) *LogSink {
	return &LogSink{logger: logger.OrNop(l).Named("sink")}
}

func (s *LogSink) Configure(channels []ChannelInfo) error {
	for _, c := range channels {
		s.logger.Info("channel",
			zap.Uint8("channel", c.ChannelNum),
			zap.Stringer("instrument", c.Instrument),
			zap.String("name", c.Name),
			zap.Bool("drum", c.IsDrum))
	}
	return nil
}

func (s *LogSink) Execute(evt model.Event) error {
	s.logger.Debug("event", zap.Stringer("event", evt))
	return nil
}

func (s *LogSink) StopAll() error {
	s.logger.Debug("stop all")
	return nil
}
