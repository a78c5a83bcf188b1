package model

import (
	"fmt"
	"strings"

	"github.com/jsphweid/songreplay/changes"
	"github.com/jsphweid/songreplay/chord"
	"github.com/jsphweid/songreplay/frac"
)

// DefaultTempo8nPerMin is 120 quarter notes per minute.
const DefaultTempo8nPerMin = 240

type TimeSig struct {
	UpperNumeral int
	LowerNumeral int
}

func (ts TimeSig) DurPerMeasure8n() frac.Frac {
	return frac.Make(ts.UpperNumeral*8, ts.LowerNumeral)
}

func (ts TimeSig) DurPerBeat8n() frac.Frac {
	return frac.Make(8, ts.LowerNumeral)
}

func (ts TimeSig) String() string {
	return fmt.Sprintf("%d/%d", ts.UpperNumeral, ts.LowerNumeral)
}

func ParseTimeSig(s string) (TimeSig, error) {
	var ts TimeSig
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d/%d", &ts.UpperNumeral, &ts.LowerNumeral); err != nil {
		return TimeSig{}, &ConfigurationError{Reason: fmt.Sprintf("malformed meter %q", s)}
	}
	if ts.UpperNumeral <= 0 || ts.LowerNumeral <= 0 {
		return TimeSig{}, &ConfigurationError{Reason: fmt.Sprintf("malformed meter %q", s)}
	}
	return ts, nil
}

// Swing delays the second half of every swing unit pair. A ratio of 1 is
// straight, 3/2 light, 2 triplet feel and 5/2 hard.
type Swing struct {
	Ratio frac.Frac
	Dur8n frac.Frac
}

func NoSwing() Swing {
	return Swing{Ratio: frac.FromInt(1), Dur8n: frac.FromInt(1)}
}

func (s Swing) IsSwung() bool {
	return s.Ratio.GreaterThan(frac.FromInt(1))
}

func ParseSwing(s string) Swing {
	res := NoSwing()
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "straight", "off":
	case "heavy", "hard":
		res.Ratio = frac.Make(5, 2)
	case "medium", "triplet":
		res.Ratio = frac.FromInt(2)
	default:
		res.Ratio = frac.Make(3, 2)
	}
	return res
}

type KeySig struct {
	Tonic string
	Minor bool
}

func (k KeySig) String() string {
	if k.Minor {
		return k.Tonic + "m"
	}
	return k.Tonic
}

// Song is the score handed to the compiler and the replayer.
type Song struct {
	Title                string
	TimeSigChanges       changes.Series[TimeSig]
	Tempo8nPerMinChanges changes.Series[float64]
	SwingChanges         changes.Series[Swing]
	KeySigChanges        changes.Series[KeySig]
	ChordChanges         changes.Series[chord.Chord]
	// Pickup8n is the lead-in before beat 1, as a non-positive time.
	Pickup8n frac.Frac
	Voices   []Voice
	// NumBeatDivisions is how many drum hits a beat gets when playback does
	// not ask for a number, 0 for one.
	NumBeatDivisions int
}

func NewSong(title string) *Song {
	return &Song{
		Title:                title,
		Pickup8n:             frac.Zero,
		TimeSigChanges:       changes.New(TimeSig{4, 4}),
		Tempo8nPerMinChanges: changes.New(float64(DefaultTempo8nPerMin)),
		SwingChanges:         changes.New(NoSwing()),
		KeySigChanges:        changes.New(KeySig{Tonic: "C"}),
		ChordChanges:         changes.New(chord.Chord{}),
	}
}

func (s *Song) Clone() *Song {
	res := &Song{
		Title:                s.Title,
		TimeSigChanges:       s.TimeSigChanges.Clone(),
		Tempo8nPerMinChanges: s.Tempo8nPerMinChanges.Clone(),
		SwingChanges:         s.SwingChanges.Clone(),
		KeySigChanges:        s.KeySigChanges.Clone(),
		ChordChanges:         s.ChordChanges.Clone(),
		Pickup8n:             s.Pickup8n,
		NumBeatDivisions:     s.NumBeatDivisions,
	}
	for _, v := range s.Voices {
		res.Voices = append(res.Voices, v.Clone())
	}
	return res
}

func (s *Song) Start8n() frac.Frac {
	return s.Pickup8n
}

func (s *Song) End8n() frac.Frac {
	end := frac.Zero
	for _, v := range s.Voices {
		end = frac.Max(end, v.End8n())
	}
	if last, ok := s.ChordChanges.Last(); ok {
		end = frac.Max(end, last.Start8n)
	}
	return end
}

func (s *Song) FinalChordTime8n() frac.Frac {
	last, _ := s.ChordChanges.Last()
	return last.Start8n
}

func (s *Song) DurPerMeasure8n(t frac.Frac) frac.Frac {
	return s.TimeSigChanges.ValAt(t).DurPerMeasure8n()
}

// ResumePosition returns where playback continues from given the last
// reached beat. Beats past the final chord restart the song.
func (s *Song) ResumePosition(last frac.Frac, hasLast bool) (frac.Frac, bool) {
	if hasLast && last.Leq(s.FinalChordTime8n()) {
		return last, true
	}
	return s.Start8n(), false
}

// SoundingVoices returns copies of the voices that have notes and are not
// muted throughout.
func (s *Song) SoundingVoices() []Voice {
	var res []Voice
	for _, v := range s.Voices {
		if v.HasNotes() && !v.IsMuted() {
			res = append(res, v.Clone())
		}
	}
	return res
}

// Append joins part onto the end of s. Pickup rests of part are dropped and
// the part's settings take effect where it starts.
func (s *Song) Append(part *Song) {
	shift8n := s.End8n()
	for idx, pv := range part.Voices {
		var groups []NoteGroup
		for _, ng := range pv.NoteGroups {
			if !ng.IsRest() || ng.Start8n.Sign() >= 0 {
				groups = append(groups, ng)
			}
		}
		if idx >= len(s.Voices) {
			// silent until the part that introduces it
			s.Voices = append(s.Voices, NewVoice(VoiceSettings{Instrument: pv.SettingsChanges.DefaultVal().Instrument}))
		}
		v := &s.Voices[idx]
		v.Upsert(groups, shift8n)
		v.SettingsChanges.Upsert(shift8n, pv.SettingsChanges.DefaultVal())
		for _, c := range pv.SettingsChanges.GetChanges() {
			v.SettingsChanges.Upsert(c.Start8n.Plus(shift8n), c.Val)
		}
	}
	for _, c := range part.ChordChanges.GetChanges() {
		s.ChordChanges.Upsert(c.Start8n.Plus(shift8n), c.Val)
	}
	appendSeries(&s.TimeSigChanges, part.TimeSigChanges, shift8n)
	appendSeries(&s.Tempo8nPerMinChanges, part.Tempo8nPerMinChanges, shift8n)
	appendSeries(&s.SwingChanges, part.SwingChanges, shift8n)
	appendSeries(&s.KeySigChanges, part.KeySigChanges, shift8n)
}

func appendSeries[T comparable](dst *changes.Series[T], src changes.Series[T], shift8n frac.Frac) {
	if dst.ValAt(shift8n) != src.DefaultVal() {
		dst.Upsert(shift8n, src.DefaultVal())
	}
	for _, c := range src.GetChanges() {
		dst.Upsert(c.Start8n.Plus(shift8n), c.Val)
	}
}
