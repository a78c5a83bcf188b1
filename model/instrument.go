package model

import (
	"fmt"
	"strings"
)

// Instrument is a General MIDI program number (0-127).
type Instrument uint8

const (
	AcousticGrandPiano  Instrument = 0
	ElectricGrandPiano  Instrument = 2
	ElectricPiano1      Instrument = 4
	ElectricPiano2      Instrument = 5
	Vibraphone          Instrument = 11
	AcousticGuitarNylon Instrument = 24
	ElectricGuitarClean Instrument = 27
	AcousticBass        Instrument = 32
	StringEnsemble1     Instrument = 48
	Flute               Instrument = 73
)

var instrumentNames = map[Instrument]string{
	AcousticGrandPiano:  "acoustic_grand_piano",
	ElectricGrandPiano:  "electric_grand_piano",
	ElectricPiano1:      "electric_piano_1",
	ElectricPiano2:      "electric_piano_2",
	Vibraphone:          "vibraphone",
	AcousticGuitarNylon: "acoustic_guitar_nylon",
	ElectricGuitarClean: "electric_guitar_clean",
	AcousticBass:        "acoustic_bass",
	StringEnsemble1:     "string_ensemble_1",
	Flute:               "flute",
}

func (i Instrument) String() string {
	if name, ok := instrumentNames[i]; ok {
		return name
	}
	return fmt.Sprintf("program_%d", uint8(i))
}

// ParseInstrument accepts a known name or a program number.
func ParseInstrument(s string) (Instrument, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for inst, name := range instrumentNames {
		if name == s {
			return inst, nil
		}
	}
	var program int
	if _, err := fmt.Sscanf(s, "%d", &program); err == nil && program >= 0 && program < 128 {
		return Instrument(program), nil
	}
	return 0, &ConfigurationError{Reason: fmt.Sprintf("unknown instrument %q", s)}
}
