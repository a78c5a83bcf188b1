package sheet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jsphweid/songreplay/model"
)

type headers struct {
	key   *model.KeySig
	meter *model.TimeSig
	swing *model.Swing
	tempo *float64
	// beat subdivision for the drums
	subdivision int
	part        string
	copy        string
}

func parseHeaders(raw map[string]string) (headers, error) {
	var h headers
	for k, v := range raw {
		val := strings.TrimSpace(v)
		switch strings.ToLower(strings.TrimSpace(k)) {
		case "key", "k":
			key, err := parseKey(val)
			if err != nil {
				return h, err
			}
			h.key = &key
		case "meter", "time", "m":
			ts, err := model.ParseTimeSig(val)
			if err != nil {
				return h, err
			}
			h.meter = &ts
		case "swing":
			sw := model.ParseSwing(val)
			h.swing = &sw
		case "tempo", "q", "8th-note-tempo":
			tempo, err := strconv.ParseFloat(val, 64)
			if err != nil || tempo <= 0 {
				return h, &model.ConfigurationError{Reason: fmt.Sprintf("malformed tempo %q", val)}
			}
			h.tempo = &tempo
		case "subdivision", "subdivisions", "sub":
			n, err := strconv.Atoi(val)
			if err != nil || n < 1 {
				return h, &model.ConfigurationError{Reason: fmt.Sprintf("malformed subdivision %q", val)}
			}
			h.subdivision = n
		case "part", "section", "p":
			h.part = val
		case "copy", "repeat":
			h.copy = val
		default:
			return h, &model.ConfigurationError{Reason: fmt.Sprintf("unknown header %q", k)}
		}
	}
	return h, nil
}

// parseKey reads a tonic with an optional minor suffix, e.g. "Bb" or "F#m".
func parseKey(s string) (model.KeySig, error) {
	res := model.KeySig{Tonic: s}
	for _, suffix := range []string{"min", "m", "-"} {
		if strings.HasSuffix(s, suffix) && len(s) > len(suffix) {
			res = model.KeySig{Tonic: strings.TrimSuffix(s, suffix), Minor: true}
			break
		}
	}
	if res.Tonic == "" || !strings.ContainsAny(res.Tonic[:1], "ABCDEFGabcdefg") || len(res.Tonic) > 2 {
		return model.KeySig{}, &model.ConfigurationError{Reason: fmt.Sprintf("malformed key %q", s)}
	}
	res.Tonic = strings.ToUpper(res.Tonic[:1]) + res.Tonic[1:]
	return res, nil
}

// merge overrides the settings in h that o sets. Part names never carry
// over.
func (h headers) merge(o headers) headers {
	if o.key != nil {
		h.key = o.key
	}
	if o.meter != nil {
		h.meter = o.meter
	}
	if o.swing != nil {
		h.swing = o.swing
	}
	if o.tempo != nil {
		h.tempo = o.tempo
	}
	if o.subdivision != 0 {
		h.subdivision = o.subdivision
	}
	h.part, h.copy = o.part, o.copy
	return h
}

func (h headers) apply(song *model.Song) {
	if h.key != nil {
		song.KeySigChanges = song.KeySigChanges.WithDefault(*h.key)
	}
	if h.meter != nil {
		song.TimeSigChanges = song.TimeSigChanges.WithDefault(*h.meter)
	}
	if h.swing != nil {
		song.SwingChanges = song.SwingChanges.WithDefault(*h.swing)
	}
	if h.tempo != nil {
		song.Tempo8nPerMinChanges = song.Tempo8nPerMinChanges.WithDefault(*h.tempo)
	}
	if h.subdivision != 0 {
		song.NumBeatDivisions = h.subdivision
	}
}
