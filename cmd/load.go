package cmd

import (
	"path/filepath"
	"strings"

	"github.com/jsphweid/songreplay/frac"
	"github.com/jsphweid/songreplay/midi"
	"github.com/jsphweid/songreplay/model"
	"github.com/jsphweid/songreplay/replay"
	"github.com/jsphweid/songreplay/sheet"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// LoadSong reads a lead sheet (.yaml, .yml) or a MIDI file (.mid, .midi).
func LoadSong(path string) (*model.Song, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		s, err := sheet.Load(path)
		if err != nil {
			return nil, err
		}
		song, err := s.Song()
		return song, errors.Wrapf(err, "in %s", path)
	case ".mid", ".midi":
		return midi.LoadSong(path)
	}
	return nil, errors.Errorf("%s is neither a sheet nor a MIDI file", path)
}

type arrangeFlags struct {
	start     string
	drums     bool
	padLeft   bool
	divisions int
}

func (f *arrangeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.start, "start", "", "where to start, in eighth notes (e.g. 16 or -3/2)")
	cmd.Flags().BoolVar(&f.drums, "drums", false, "play the beat on the drum channel")
	cmd.Flags().BoolVar(&f.padLeft, "pad-left", false, "count in one measure before the start")
	cmd.Flags().IntVar(&f.divisions, "divisions", 0, "drum hits per beat, 0 for the song's subdivision")
}

func (f *arrangeFlags) options() (replay.Options, error) {
	opts := replay.Options{AddDrumBeat: f.drums, PadLeft: f.padLeft, NumBeatDivisions: f.divisions}
	if f.start != "" {
		t, err := frac.Parse(f.start)
		if err != nil {
			return opts, errors.Wrap(err, "bad --start")
		}
		opts.Start8n = replay.StartAt(t)
	}
	return opts, nil
}
