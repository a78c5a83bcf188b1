package swing

import (
	"github.com/jsphweid/songreplay/frac"
	"github.com/jsphweid/songreplay/model"
)

// Shift8n is how far a swung boundary moves for sw.
func Shift8n(sw model.Swing) frac.Frac {
	n, d := sw.Ratio.Numer(), sw.Ratio.Denom()
	unitShift := frac.Make(2*n, n+d).MinusInt(1)
	return unitShift.Times(sw.Dur8n)
}

// IsSwung reports whether t sits on the second half of a swing cell and the
// group occupying that half lasts at least one swing unit.
func IsSwung(t frac.Frac, occupant *model.NoteGroup, sw model.Swing) bool {
	if occupant == nil || !sw.IsSwung() {
		return false
	}
	units := t.Over(sw.Dur8n)
	if !units.IsWhole() || units.Numer()%2 == 0 {
		return false
	}
	return occupant.Dur8n().Geq(sw.Dur8n)
}

// Apply returns the swing adjusted start and end of ng. next is the group
// that follows ng in the same voice, or nil when there is none, in which case
// the end is left alone.
func Apply(ng model.NoteGroup, next *model.NoteGroup, sw model.Swing) (start8n, end8n frac.Frac) {
	start8n, end8n = ng.Start8n, ng.End8n
	if !sw.IsSwung() {
		return
	}
	shift := Shift8n(sw)
	if IsSwung(ng.Start8n, &ng, sw) {
		start8n = start8n.Plus(shift)
	}
	if IsSwung(ng.End8n, next, sw) {
		end8n = end8n.Plus(shift)
	}
	return
}
