package sheet

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jsphweid/songreplay/chord"
	"github.com/jsphweid/songreplay/frac"
	"github.com/jsphweid/songreplay/model"
	"github.com/pkg/errors"
)

const defaultRollGap = 30 * time.Millisecond

const (
	blankCell = "_"
	slotCell  = "-"
	barLine   = "|"
)

type builtPart struct {
	song       *model.Song
	end8n      frac.Frac
	turnaround *frac.Frac
}

type builder struct {
	curr  headers
	parts map[string]builtPart
	order []string
}

// Song builds the parts of s and joins them in form order.
func (s *Sheet) Song() (*model.Song, error) {
	sheetHeaders, err := parseHeaders(s.Headers)
	if err != nil {
		return nil, err
	}
	b := &builder{curr: sheetHeaders, parts: make(map[string]builtPart)}
	for idx, p := range s.Parts {
		if err := b.addPart(idx, p); err != nil {
			return nil, err
		}
	}

	sequence, err := b.sequence(s.Form)
	if err != nil {
		return nil, err
	}
	song := joinParts(sequence, s.Title)
	return song, song.Validate()
}

func (b *builder) addPart(idx int, p Part) error {
	h, err := parseHeaders(p.Headers)
	if err != nil {
		return errors.Wrapf(err, "part %d", idx+1)
	}
	b.curr = b.curr.merge(h)
	name := b.curr.part
	if name == "" {
		name = fmt.Sprintf("part %d", idx+1)
	}
	if _, ok := b.parts[name]; ok {
		return &model.ConfigurationError{Reason: fmt.Sprintf("part %q is defined twice", name)}
	}

	song := model.NewSong(name)
	var end8n frac.Frac
	if b.curr.copy != "" {
		src, ok := b.parts[b.curr.copy]
		if !ok {
			return &model.ConfigurationError{Reason: fmt.Sprintf("part %q copies unknown part %q", name, b.curr.copy)}
		}
		song = src.song.Clone()
		song.Title = name
		end8n = src.end8n
	}
	b.curr.apply(song)

	measure8n := song.TimeSigChanges.DefaultVal().DurPerMeasure8n()
	for i, cell := range p.Pickup {
		cellStart8n := measure8n.TimesInt(int64(i - len(p.Pickup)))
		first, ok := applyCell(song, cell, cellStart8n, measure8n)
		if ok && song.Pickup8n.IsZero() {
			song.Pickup8n = first
		}
	}
	for i, cell := range p.Chords {
		applyCell(song, cell, measure8n.TimesInt(int64(i)), measure8n)
	}
	if len(p.Chords) > 0 {
		end8n = measure8n.TimesInt(int64(len(p.Chords)))
		song.ChordChanges.RemoveWithinInterval(end8n)
	}

	if len(p.Voices) > 0 {
		song.Voices = nil
		for vIdx, v := range p.Voices {
			voice, err := buildVoice(v)
			if err != nil {
				return errors.Wrapf(err, "part %q voice %d", name, vIdx+1)
			}
			song.Voices = append(song.Voices, voice)
		}
	}
	end8n = frac.Max(end8n, song.End8n())
	if end8n.Sign() <= 0 {
		return &model.ConfigurationError{Reason: fmt.Sprintf("part %q has no chords and no notes", name)}
	}
	b.parts[name] = builtPart{song: song, end8n: end8n, turnaround: p.Turnaround}
	b.order = append(b.order, name)
	return nil
}

// applyCell spreads the chords of one measure evenly over it. It returns the
// time of the first chord in the cell.
func applyCell(song *model.Song, cell string, cellStart8n, measure8n frac.Frac) (frac.Frac, bool) {
	var tokens []string
	for _, tok := range strings.Fields(cell) {
		if tok != barLine {
			tokens = append(tokens, tok)
		}
	}
	if len(tokens) == 0 {
		tokens = []string{blankCell}
	}

	var first frac.Frac
	found := false
	for k, tok := range tokens {
		if tok == slotCell {
			continue
		}
		if k == 0 {
			// re-parsing a cell replaces what it held before
			song.ChordChanges.RemoveWithinInterval(cellStart8n, cellStart8n.Plus(measure8n))
		}
		if tok == blankCell {
			continue
		}
		t := cellStart8n.Plus(measure8n.TimesInt(int64(k)).OverInt(int64(len(tokens))))
		song.ChordChanges.Upsert(t, chord.Chord{Symbol: tok})
		if !found {
			first, found = t, true
		}
	}
	return first, found
}

func buildVoice(v Voice) (model.Voice, error) {
	settings := model.DefaultVoiceSettings()
	settings.Name = v.Name
	settings.Hide = v.Hide
	if v.Instrument != "" {
		inst, err := model.ParseInstrument(v.Instrument)
		if err != nil {
			return model.Voice{}, err
		}
		settings.Instrument = inst
	}
	if v.Volume != nil {
		settings.VolumePercent = *v.Volume
	}

	groups := make([]model.NoteGroup, 0, len(v.Notes))
	for _, n := range v.Notes {
		ng, err := buildNoteGroup(n)
		if err != nil {
			return model.Voice{}, err
		}
		groups = append(groups, ng)
	}
	return model.NewVoice(settings, groups...), nil
}

func buildNoteGroup(n Note) (model.NoteGroup, error) {
	if len(n.Pitches) == 0 {
		return model.NewRest(n.Start, n.End), nil
	}
	velocity := n.Velocity
	if velocity == 0 {
		velocity = 100
	}
	notes := make([]model.MidiNote, len(n.Pitches))
	for i, p := range n.Pitches {
		notes[i] = model.MidiNote{NoteNum: p, Velocity: velocity}
	}
	ng := model.NewNoteGroup(n.Start, n.End, notes...)
	if n.RealEnd != nil {
		ng.RealEnd8n = *n.RealEnd
	}
	ng.IsStaccato = n.Staccato
	ng.IsLogicalGraceNote = n.Grace
	switch strings.ToLower(n.Roll) {
	case "":
	case "up":
		ng.IsRollingUp = true
	case "down":
		ng.IsRollingDown = true
	default:
		return ng, &model.ConfigurationError{Reason: fmt.Sprintf("unknown roll %q", n.Roll)}
	}
	if n.RollMs < 0 {
		return ng, &model.ConfigurationError{Reason: fmt.Sprintf("negative roll gap %dms", n.RollMs)}
	}
	if ng.IsRolling() {
		gap := defaultRollGap
		if n.RollMs > 0 {
			gap = time.Duration(n.RollMs) * time.Millisecond
		}
		spreadRoll(ng.MidiNotes, gap)
	}
	return ng, nil
}

// spreadRoll records the notes as struck gap apart from the lowest pitch up,
// which is what sizes the roll when the chord is compiled.
func spreadRoll(notes []model.MidiNote, gap time.Duration) {
	order := make([]int, len(notes))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return notes[order[a]].NoteNum < notes[order[b]].NoteNum })
	for rank, idx := range order {
		notes[idx].StartTime = time.Duration(rank) * gap
	}
}

// padToEnd makes the first voice last until end8n so that the next part is
// joined at the right time.
func padToEnd(song *model.Song, end8n frac.Frac) {
	if len(song.Voices) == 0 {
		song.Voices = []model.Voice{model.NewVoice(model.DefaultVoiceSettings(), model.NewRest(frac.Zero, end8n))}
		return
	}
	v := &song.Voices[0]
	if last := v.End8n(); last.LessThan(end8n) {
		v.NoteGroups = append(v.NoteGroups, model.NewRest(frac.Max(last, frac.Zero), end8n))
	}
}

// sequence lists the parts in playing order. Without a form, parts named
// intro and outro frame the rest in definition order.
func (b *builder) sequence(form *Form) ([]builtPart, error) {
	if form == nil {
		form = &Form{}
		for _, name := range b.order {
			switch strings.ToLower(strings.TrimSpace(name)) {
			case "intro":
				form.Intro = name
			case "outro":
				form.Outro = name
			default:
				form.Body = append(form.Body, name)
			}
		}
	}

	var names []string
	if form.Intro != "" {
		names = append(names, form.Intro)
	}
	for i := 0; i < form.Repeats+1; i++ {
		names = append(names, form.Body...)
	}
	if form.Outro != "" {
		names = append(names, form.Outro)
	}
	if len(names) == 0 {
		return nil, &model.ConfigurationError{Reason: "the form has no parts"}
	}

	res := make([]builtPart, len(names))
	for i, name := range names {
		p, ok := b.parts[name]
		if !ok {
			return nil, &model.ConfigurationError{Reason: fmt.Sprintf("form names unknown part %q", name)}
		}
		res[i] = p
	}
	return res, nil
}

func joinParts(parts []builtPart, title string) *model.Song {
	var res *model.Song
	for idx, p := range parts {
		part := p.song.Clone()
		padToEnd(part, p.end8n)
		if idx == len(parts)-1 && p.turnaround != nil {
			part.ChordChanges.RemoveWithinInterval(*p.turnaround)
		}
		if res == nil {
			res = part
			res.Title = title
			continue
		}
		res.Append(part)
	}
	return res
}
