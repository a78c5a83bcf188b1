package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/jsphweid/songreplay/constants"
	"github.com/jsphweid/songreplay/replay"
	"github.com/jsphweid/songreplay/sound"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gitlab.com/gomidi/midi/v2"
	"go.uber.org/zap"
)

var (
	serveAddr string
	servePort string
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", constants.GetServeAddr(), "address to listen on")
	serveCmd.Flags().StringVar(&servePort, "port", "", "also play on this MIDI out port")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve FILE",
	Short: "Serves playback of a song over HTTP",
	Long: `Serves playback of a song over HTTP. MIDI and beats are broadcast to
websocket clients on /ws.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		song, err := LoadSong(args[0])
		if err != nil {
			return err
		}

		hub := sound.NewHub(log)
		hubSink, err := sound.NewPortSink(hub)
		if err != nil {
			return err
		}
		sinks := []sound.Sink{hubSink, sound.NewLogSink(log)}
		if servePort != "" {
			defer midi.CloseDriver()
			out, err := sound.FindOutPort(servePort)
			if err != nil {
				return errors.Wrap(err, "could not find out port")
			}
			portSink, err := sound.NewPortSink(out)
			if err != nil {
				return err
			}
			sinks = append(sinks, portSink)
		}

		r := replay.New(sound.Multi(sinks...),
			replay.WithLogger(log),
			replay.WithBeatSubscriber(func(b replay.Beat) {
				if err := hub.PublishBeat(b.Time8n, b.IsPickup); err != nil {
					log.Debug("dropped beat", zap.Error(err))
				}
			}))

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer cancel()
		go hub.Run(ctx)

		srv := &http.Server{Addr: serveAddr, Handler: NewServer(song, r, hub, log).Router()}
		go func() {
			<-ctx.Done()
			r.Stop()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		log.Info("serving", zap.String("title", song.Title), zap.String("addr", serveAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server failed")
		}
		return nil
	},
}
