package model

import "fmt"

// ConfigurationError reports playback settings that cannot be honored, such
// as a non-positive tempo or more voices than sound channels.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// ScoreInvariantError reports a malformed song. It points at a bug in
// whatever built the song, so it is never skipped over.
type ScoreInvariantError struct {
	VoiceIdx int // -1 when not about a voice
	Reason   string
}

func (e *ScoreInvariantError) Error() string {
	if e.VoiceIdx < 0 {
		return "score invariant violated: " + e.Reason
	}
	return fmt.Sprintf("score invariant violated in voice %d: %s", e.VoiceIdx, e.Reason)
}
