package model

import (
	"fmt"

	"go.uber.org/multierr"
)

// ValidateVoice checks that the voice's note groups are well formed and
// never overlap. voiceIdx is only used in error messages.
func ValidateVoice(voiceIdx int, v Voice) error {
	var err error
	for i, ng := range v.NoteGroups {
		switch {
		case ng.End8n.LessThan(ng.Start8n):
			err = multierr.Append(err, &ScoreInvariantError{
				VoiceIdx: voiceIdx,
				Reason:   fmt.Sprintf("note group %d ends at %v before it starts at %v", i, ng.End8n, ng.Start8n),
			})
		case ng.End8n.Equals(ng.Start8n) && !ng.IsRest():
			// zero-length rests mark pickups, anything sounding needs a length
			err = multierr.Append(err, &ScoreInvariantError{
				VoiceIdx: voiceIdx,
				Reason:   fmt.Sprintf("note group %d at %v has no duration", i, ng.Start8n),
			})
		}
		if i > 0 && ng.Start8n.LessThan(v.NoteGroups[i-1].End8n) {
			err = multierr.Append(err, &ScoreInvariantError{
				VoiceIdx: voiceIdx,
				Reason: fmt.Sprintf("note group %d [%v, %v) overlaps note group %d [%v, %v)",
					i, ng.Start8n, ng.End8n, i-1, v.NoteGroups[i-1].Start8n, v.NoteGroups[i-1].End8n),
			})
		}
	}
	return err
}

// Validate checks the song's invariants. All violations are reported, joined
// with multierr.
func (s *Song) Validate() error {
	var err error
	for idx, v := range s.Voices {
		err = multierr.Append(err, ValidateVoice(idx, v))
	}
	chordChanges := s.ChordChanges.GetChanges()
	for i := 1; i < len(chordChanges); i++ {
		if !chordChanges[i-1].Start8n.LessThan(chordChanges[i].Start8n) {
			err = multierr.Append(err, &ScoreInvariantError{
				VoiceIdx: -1,
				Reason:   fmt.Sprintf("chord changes at %v and %v are not strictly increasing", chordChanges[i-1].Start8n, chordChanges[i].Start8n),
			})
		}
	}
	if s.Pickup8n.Sign() > 0 {
		err = multierr.Append(err, &ScoreInvariantError{
			VoiceIdx: -1,
			Reason:   fmt.Sprintf("pickup %v must not be positive", s.Pickup8n),
		})
	}
	return err
}

// ValidatePlayback checks the settings the compiler depends on.
func (s *Song) ValidatePlayback() error {
	var err error
	for _, tempo := range s.Tempo8nPerMinChanges.AllVals() {
		if tempo <= 0 {
			err = multierr.Append(err, &ConfigurationError{Reason: fmt.Sprintf("tempo must be positive, got %v", tempo)})
		}
	}
	for _, ts := range s.TimeSigChanges.AllVals() {
		if ts.UpperNumeral <= 0 || ts.LowerNumeral <= 0 {
			err = multierr.Append(err, &ConfigurationError{Reason: fmt.Sprintf("meter must be positive, got %v", ts)})
		}
	}
	for _, sw := range s.SwingChanges.AllVals() {
		if sw.Dur8n.Sign() <= 0 {
			err = multierr.Append(err, &ConfigurationError{Reason: fmt.Sprintf("swing unit must be positive, got %v", sw.Dur8n)})
		}
		if sw.Ratio.Sign() <= 0 {
			err = multierr.Append(err, &ConfigurationError{Reason: fmt.Sprintf("swing ratio must be positive, got %v", sw.Ratio)})
		}
	}
	return err
}
