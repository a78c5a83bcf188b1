package cmd

import (
	"os"
	"os/signal"
	"time"

	"github.com/jsphweid/songreplay/chord"
	"github.com/jsphweid/songreplay/constants"
	"github.com/jsphweid/songreplay/replay"
	"github.com/jsphweid/songreplay/sound"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // autoregisters driver
	"go.uber.org/zap"
)

var (
	playFlags arrangeFlags
	playPort  string
	playThru  string
)

func init() {
	playFlags.register(playCmd)
	playCmd.Flags().StringVar(&playPort, "port", constants.GetMidiOutPort(), "MIDI out port, by name or number")
	playCmd.Flags().StringVar(&playThru, "thru", "", "MIDI in port to play along on")
	rootCmd.AddCommand(playCmd)
}

var playCmd = &cobra.Command{
	Use:   "play FILE",
	Short: "Plays a song on a MIDI port",
	Long:  `Plays a song on a MIDI port until it is done or interrupted.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defer midi.CloseDriver()
		song, err := LoadSong(args[0])
		if err != nil {
			return err
		}
		opts, err := playFlags.options()
		if err != nil {
			return err
		}
		out, err := sound.FindOutPort(playPort)
		if err != nil {
			return errors.Wrap(err, "could not find out port")
		}
		sink, err := sound.NewPortSink(out)
		if err != nil {
			return err
		}

		r := replay.New(sink,
			replay.WithLogger(log),
			replay.WithBeatSubscriber(func(b replay.Beat) {
				log.Debug("beat", zap.Stringer("time8n", b.Time8n), zap.Bool("pickup", b.IsPickup))
			}))

		if playThru != "" {
			stop, err := listenThru(sink, playThru)
			if err != nil {
				return err
			}
			defer stop()
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer cancel()
		log.Info("playing", zap.String("title", song.Title), zap.Stringer("port", out))
		if err := r.Play(song, opts); err != nil {
			return err
		}
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for r.IsPlaying() {
			select {
			case <-ctx.Done():
				r.Stop()
				return nil
			case <-ticker.C:
			}
		}
		return nil
	},
}

func listenThru(sink sound.Sink, port string) (func(), error) {
	in, err := midi.FindInPort(port)
	if err != nil {
		return nil, errors.Wrap(err, "could not find in port")
	}
	thru := sound.NewThru(sink, func(c chord.Chord) {
		if !c.IsEmpty() {
			log.Info("live", zap.Stringer("chord", c))
		}
	})
	return thru.Listen(in, func(err error) {
		log.Warn("could not play live input", zap.Error(err))
	})
}
