package sheet

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/jsphweid/songreplay/frac"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Note is one note group of a voice. No pitches makes a rest.
type Note struct {
	Start    frac.Frac  `yaml:"start"`
	End      frac.Frac  `yaml:"end"`
	RealEnd  *frac.Frac `yaml:"realEnd"`
	Pitches  []uint8    `yaml:"pitches"`
	Velocity uint8      `yaml:"velocity"`
	Staccato bool       `yaml:"staccato"`
	// Roll is "up" or "down". RollMs is the gap between successive pitches
	// of the roll, 30ms when unset.
	Roll   string `yaml:"roll"`
	RollMs int    `yaml:"rollMs"`
	Grace  bool   `yaml:"grace"`
}

type Voice struct {
	Name       string `yaml:"name"`
	Instrument string `yaml:"instrument"`
	Volume     *int   `yaml:"volume"`
	Hide       bool   `yaml:"hide"`
	Notes      []Note `yaml:"notes"`
}

// Part is a section of the lead sheet. Every chord cell is one measure.
type Part struct {
	Headers map[string]string `yaml:"headers"`
	// Pickup cells come right before the first measure.
	Pickup []string `yaml:"pickup"`
	Chords []string `yaml:"chords"`
	Voices []Voice  `yaml:"voices"`
	// Turnaround drops the chords from this time on when the part ends the
	// song.
	Turnaround *frac.Frac `yaml:"turnaround"`
}

// Form is the order parts are played in. Body is played Repeats+1 times.
type Form struct {
	Intro   string   `yaml:"intro"`
	Body    []string `yaml:"body"`
	Outro   string   `yaml:"outro"`
	Repeats int      `yaml:"repeats"`
}

type Sheet struct {
	Title string `yaml:"title"`
	// Headers apply from the first part on until a part changes them.
	Headers map[string]string `yaml:"headers"`
	Parts   []Part            `yaml:"parts"`
	Form    *Form             `yaml:"form"`
}

func Parse(data []byte) (*Sheet, error) {
	var s Sheet
	if err := yaml.UnmarshalStrict(data, &s); err != nil {
		return nil, errors.Wrap(err, "could not decode sheet")
	}
	return &s, nil
}

// Load reads a sheet file. Sheets without a title are named after the file.
func Load(path string) (*Sheet, error) {
	dat, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "could not read sheet")
	}
	s, err := Parse(dat)
	if err != nil {
		return nil, errors.Wrapf(err, "in %s", path)
	}
	if s.Title == "" {
		s.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}
