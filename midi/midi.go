package midi

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jsphweid/songreplay/model"
	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2/smf"
)

func ReadMidiFile(path string) (s *smf.SMF, e error) {
	// handle panics
	// https://github.com/gomidi/midi/issues/20
	defer func() {
		if r := recover(); r != nil {
			s, e = nil, fmt.Errorf("could not parse midi file %s: %v", path, r)
		}
	}()

	dat, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "error reading midi file")
	}
	res, err := smf.ReadFrom(bytes.NewReader(dat))
	if err != nil {
		return nil, errors.Wrap(err, "error parsing midi file")
	}
	return res, nil
}

// LoadSong reads a Standard MIDI File and imports it. The title is the file
// name without its extension.
func LoadSong(path string) (*model.Song, error) {
	s, err := ReadMidiFile(path)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	song, err := ImportSong(s, title)
	if err != nil {
		return nil, errors.Wrapf(err, "could not import %s", path)
	}
	return song, nil
}
