package timeline

import (
	"fmt"
	"math"
	"time"

	"github.com/jsphweid/songreplay/changes"
	"github.com/jsphweid/songreplay/frac"
	"github.com/jsphweid/songreplay/model"
)

// TempoMap converts song time into time since song time 0. Tempo changes are
// integrated piecewise, a song with one tempo maps linearly.
type TempoMap struct {
	tempos changes.Series[float64]
}

func NewTempoMap(tempos changes.Series[float64]) (*TempoMap, error) {
	for _, tempo := range tempos.AllVals() {
		if tempo <= 0 || math.IsNaN(tempo) || math.IsInf(tempo, 0) {
			return nil, &model.ConfigurationError{Reason: fmt.Sprintf("tempo must be positive, got %v", tempo)}
		}
	}
	return &TempoMap{tempos: tempos}, nil
}

func msPer8n(tempo8nPerMin float64) float64 {
	return 60000 / tempo8nPerMin
}

// elapsedMs integrates from a to b, a <= b.
func (m *TempoMap) elapsedMs(a, b frac.Frac) float64 {
	var ms float64
	x := a
	for _, c := range m.tempos.Within(a, b) {
		if !c.Start8n.GreaterThan(x) {
			continue
		}
		ms += c.Start8n.Minus(x).Float() * msPer8n(m.tempos.ValAt(x))
		x = c.Start8n
	}
	return ms + b.Minus(x).Float()*msPer8n(m.tempos.ValAt(x))
}

// Ms is the time of t8n in milliseconds, negative for pickups.
func (m *TempoMap) Ms(t8n frac.Frac) float64 {
	if t8n.Sign() >= 0 {
		return m.elapsedMs(frac.Zero, t8n)
	}
	return -m.elapsedMs(t8n, frac.Zero)
}

func (m *TempoMap) Time(t8n frac.Frac) time.Duration {
	return durationOfMs(m.Ms(t8n))
}

func durationOfMs(ms float64) time.Duration {
	return time.Duration(math.Round(ms * float64(time.Millisecond)))
}

func msOfDuration(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
