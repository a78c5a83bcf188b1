package constants

import (
	"os"
	"time"
)

func GetSoundFontPath() string {
	path := os.Getenv("SOUNDFONT_PATH")
	if path != "" {
		return path
	}

	panic("SOUNDFONT_PATH environment variable is not set!")
}

// GetMidiOutPort is the name (or number) of the output port, empty for the
// first one found.
func GetMidiOutPort() string {
	return os.Getenv("MIDI_OUT_PORT")
}

func GetLogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level != "" {
		return level
	}
	return "info"
}

func GetServeAddr() string {
	addr := os.Getenv("SERVE_ADDR")
	if addr != "" {
		return addr
	}
	return ":8080"
}

func GetOutDir() string {
	path := os.Getenv("OUT_DIR")
	if path != "" {
		return path
	}
	return "./out"
}

// Channel 0 takes live input and is never used for replay.
const LiveInputChannel uint8 = 0

// General MIDI percussion channel (channel 10 counting from 1).
const DrumChannel uint8 = 9

const NumChannels = 16

// Shortest time a grace note is played ahead of its main note.
const MinGraceLead = 250 * time.Millisecond

const SampleRate = 44100

// Ticks per quarter note in exported files.
const TicksPerQuarter = 960

// How long seek requests are collected before playback restarts.
const SeekDebounce = 150 * time.Millisecond
