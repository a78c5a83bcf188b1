package changes

import (
	"sort"

	"github.com/jsphweid/songreplay/frac"
)

// Change is a value that takes effect at Start8n and lasts until the next change.
type Change[T any] struct {
	Start8n frac.Frac
	Val     T
}

// Series is a sparse, time ordered record of what value is in effect from
// each point on. Times before the first change (and every time when there
// are no changes) use the default value.
type Series[T any] struct {
	defaultVal T
	changes    []Change[T]
}

func New[T any](defaultVal T) Series[T] {
	return Series[T]{defaultVal: defaultVal}
}

func (s Series[T]) DefaultVal() T {
	return s.defaultVal
}

// WithDefault returns a copy of s that uses defaultVal. s is left untouched.
func (s Series[T]) WithDefault(defaultVal T) Series[T] {
	res := s.Clone()
	res.defaultVal = defaultVal
	return res
}

func (s Series[T]) Clone() Series[T] {
	res := Series[T]{defaultVal: s.defaultVal}
	if len(s.changes) > 0 {
		res.changes = make([]Change[T], len(s.changes))
		copy(res.changes, s.changes)
	}
	return res
}

func (s Series[T]) Len() int {
	return len(s.changes)
}

// search returns the index of the first change with a start >= t.
func (s *Series[T]) search(t frac.Frac) int {
	return sort.Search(len(s.changes), func(i int) bool {
		return s.changes[i].Start8n.Geq(t)
	})
}

// Upsert inserts val at t, replacing any change already at t. The backing
// slice is never shared with copies of s.
func (s *Series[T]) Upsert(t frac.Frac, val T) {
	idx := s.search(t)
	res := make([]Change[T], 0, len(s.changes)+1)
	res = append(res, s.changes[:idx]...)
	res = append(res, Change[T]{Start8n: t, Val: val})
	if idx < len(s.changes) && s.changes[idx].Start8n.Equals(t) {
		idx++
	}
	res = append(res, s.changes[idx:]...)
	s.changes = res
}

// RemoveWithinInterval deletes every change in [from, to). Without to, every
// change at or after from is deleted.
func (s *Series[T]) RemoveWithinInterval(from frac.Frac, to ...frac.Frac) {
	start := s.search(from)
	end := len(s.changes)
	if len(to) > 0 {
		end = s.search(to[0])
	}
	if end <= start {
		return
	}
	res := make([]Change[T], 0, len(s.changes)-(end-start))
	res = append(res, s.changes[:start]...)
	res = append(res, s.changes[end:]...)
	s.changes = res
}

// GetChange returns the latest change at or before t (strictly before t when
// inclusive is false). When there is none, it returns a change holding the
// default value and false.
func (s Series[T]) GetChange(t frac.Frac, inclusive bool) (Change[T], bool) {
	idx := sort.Search(len(s.changes), func(i int) bool {
		if inclusive {
			return s.changes[i].Start8n.GreaterThan(t)
		}
		return s.changes[i].Start8n.Geq(t)
	})
	if idx == 0 {
		return Change[T]{Val: s.defaultVal}, false
	}
	return s.changes[idx-1], true
}

// ValAt is the value in effect at t.
func (s Series[T]) ValAt(t frac.Frac) T {
	c, _ := s.GetChange(t, true)
	return c.Val
}

// GetChanges returns a copy of all changes in time order.
func (s Series[T]) GetChanges() []Change[T] {
	res := make([]Change[T], len(s.changes))
	copy(res, s.changes)
	return res
}

// Within returns the changes in [from, to).
func (s Series[T]) Within(from, to frac.Frac) []Change[T] {
	var res []Change[T]
	for _, c := range s.changes {
		if c.Start8n.Geq(from) && c.Start8n.LessThan(to) {
			res = append(res, c)
		}
	}
	return res
}

// Last returns the final change, or the default when there are no changes.
func (s Series[T]) Last() (Change[T], bool) {
	if len(s.changes) == 0 {
		return Change[T]{Val: s.defaultVal}, false
	}
	return s.changes[len(s.changes)-1], true
}

// Shifted returns a copy with every change moved by shift8n.
func (s Series[T]) Shifted(shift8n frac.Frac) Series[T] {
	res := s.Clone()
	for i := range res.changes {
		res.changes[i].Start8n = res.changes[i].Start8n.Plus(shift8n)
	}
	return res
}

// AllVals returns the default followed by every change's value.
func (s Series[T]) AllVals() []T {
	res := make([]T, 0, len(s.changes)+1)
	res = append(res, s.defaultVal)
	for _, c := range s.changes {
		res = append(res, c.Val)
	}
	return res
}
