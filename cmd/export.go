package cmd

import (
	"os"

	"github.com/dustin/go-humanize"
	"github.com/jsphweid/songreplay/midi"
	"github.com/jsphweid/songreplay/model"
	"github.com/jsphweid/songreplay/replay"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var exportFlags arrangeFlags

func init() {
	exportFlags.register(exportCmd)
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export FILE OUT.mid",
	Short: "Writes a song as a MIDI file",
	Long:  `Writes the compiled timeline of a song as a Standard MIDI File, swing and rolls included.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		song, err := LoadSong(args[0])
		if err != nil {
			return err
		}
		opts, err := exportFlags.options()
		if err != nil {
			return err
		}
		size, err := exportSong(song, opts, args[1])
		if err != nil {
			return err
		}
		log.Info("exported", zap.String("path", args[1]), zap.String("size", humanize.Bytes(uint64(size))))
		return nil
	},
}

func exportSong(song *model.Song, opts replay.Options, path string) (int64, error) {
	a, err := replay.Arrange(song, opts, nil)
	if err != nil {
		return 0, err
	}
	s, err := midi.Export(a.Timeline, a.Channels, song.Title)
	if err != nil {
		return 0, err
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, errors.Wrap(err, "could not create MIDI file")
	}
	if err := midi.WriteSMF(f, s); err != nil {
		f.Close()
		return 0, err
	}
	if err := f.Close(); err != nil {
		return 0, errors.Wrap(err, "could not close MIDI file")
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, errors.Wrap(err, "could not stat MIDI file")
	}
	return info.Size(), nil
}
