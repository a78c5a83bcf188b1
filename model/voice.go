package model

import (
	"github.com/jsphweid/songreplay/changes"
	"github.com/jsphweid/songreplay/frac"
)

type VoiceSettings struct {
	Instrument    Instrument
	VolumePercent int
	Hide          bool
	Name          string
}

func DefaultVoiceSettings() VoiceSettings {
	return VoiceSettings{Instrument: AcousticGrandPiano, VolumePercent: 100}
}

type Voice struct {
	NoteGroups      []NoteGroup
	SettingsChanges changes.Series[VoiceSettings]
}

func NewVoice(settings VoiceSettings, noteGroups ...NoteGroup) Voice {
	return Voice{
		NoteGroups:      noteGroups,
		SettingsChanges: changes.New(settings),
	}
}

func (v Voice) SettingsAt(t frac.Frac) VoiceSettings {
	return v.SettingsChanges.ValAt(t)
}

func (v Voice) Clone() Voice {
	res := Voice{SettingsChanges: v.SettingsChanges.Clone()}
	if v.NoteGroups != nil {
		res.NoteGroups = make([]NoteGroup, len(v.NoteGroups))
		for i, ng := range v.NoteGroups {
			res.NoteGroups[i] = ng.Clone()
		}
	}
	return res
}

func (v Voice) End8n() frac.Frac {
	if len(v.NoteGroups) == 0 {
		return frac.Zero
	}
	return v.NoteGroups[len(v.NoteGroups)-1].End8n
}

// HasNotes is true when at least one note group is not a rest.
func (v Voice) HasNotes() bool {
	for _, ng := range v.NoteGroups {
		if !ng.IsRest() {
			return true
		}
	}
	return false
}

// IsMuted is true when the voice is silent at every point in time.
func (v Voice) IsMuted() bool {
	if v.SettingsChanges.DefaultVal().VolumePercent > 0 {
		return false
	}
	for _, c := range v.SettingsChanges.GetChanges() {
		if c.Val.VolumePercent > 0 {
			return false
		}
	}
	return true
}

// Upsert replaces everything in the voice from the first shifted group on
// with noteGroups moved by shift8n.
func (v *Voice) Upsert(noteGroups []NoteGroup, shift8n frac.Frac) {
	if len(noteGroups) == 0 {
		return
	}
	from := noteGroups[0].Start8n.Plus(shift8n)
	kept := make([]NoteGroup, 0, len(v.NoteGroups)+len(noteGroups))
	for _, ng := range v.NoteGroups {
		if ng.Start8n.LessThan(from) {
			kept = append(kept, ng)
		}
	}
	for _, ng := range noteGroups {
		kept = append(kept, ng.Shifted(shift8n))
	}
	v.NoteGroups = kept
}
