package frac

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/exp/constraints"
)

// Frac is an exact rational number kept in lowest terms with a positive
// denominator. Musical time is counted in eighth notes (8n) with it.
// The zero value Frac{} reads as 0 but is only == to Zero once it has been
// through arithmetic; compare with Equals or Cmp.
type Frac struct {
	numer int64
	denom int64
}

var Zero = Frac{0, 1}

type ArithmeticError struct {
	Op string
}

func (e *ArithmeticError) Error() string {
	return "frac: " + e.Op
}

func gcd(a, b int64) int64 {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func reduce(numer, denom int64) Frac {
	if denom < 0 {
		numer, denom = -numer, -denom
	}
	if g := gcd(numer, denom); g > 1 {
		numer /= g
		denom /= g
	}
	if numer == 0 {
		denom = 1
	}
	return Frac{numer, denom}
}

func New(numer, denom int64) (Frac, error) {
	if denom == 0 {
		return Frac{}, &ArithmeticError{Op: fmt.Sprintf("zero denominator in %d/0", numer)}
	}
	return reduce(numer, denom), nil
}

// Make is New for constants known to be valid. It panics on a zero denominator.
func Make[A constraints.Integer](numer, denom A) Frac {
	f, err := New(int64(numer), int64(denom))
	if err != nil {
		panic(err)
	}
	return f
}

func FromInt[A constraints.Integer](n A) Frac {
	return Frac{int64(n), 1}
}

func (f Frac) Numer() int64 {
	return f.numer
}

func (f Frac) Denom() int64 {
	if f.denom == 0 {
		return 1
	}
	return f.denom
}

func (f Frac) norm() Frac {
	// The zero value Frac{} is treated as 0/1.
	if f.denom == 0 {
		return Zero
	}
	return f
}

func (f Frac) Plus(o Frac) Frac {
	f, o = f.norm(), o.norm()
	g := gcd(f.denom, o.denom)
	return reduce(f.numer*(o.denom/g)+o.numer*(f.denom/g), f.denom/g*o.denom)
}

func (f Frac) PlusInt(n int64) Frac {
	return f.Plus(Frac{n, 1})
}

func (f Frac) Minus(o Frac) Frac {
	return f.Plus(o.Negative())
}

func (f Frac) MinusInt(n int64) Frac {
	return f.Plus(Frac{-n, 1})
}

func (f Frac) Negative() Frac {
	f = f.norm()
	return Frac{-f.numer, f.denom}
}

func (f Frac) Times(o Frac) Frac {
	f, o = f.norm(), o.norm()
	// cross-reduce first to keep intermediates small
	g1 := gcd(f.numer, o.denom)
	g2 := gcd(o.numer, f.denom)
	if g1 == 0 {
		g1 = 1
	}
	if g2 == 0 {
		g2 = 1
	}
	return reduce((f.numer/g1)*(o.numer/g2), (f.denom/g2)*(o.denom/g1))
}

func (f Frac) TimesInt(n int64) Frac {
	return f.Times(Frac{n, 1})
}

// Over divides f by o. It panics with an *ArithmeticError when o is zero.
func (f Frac) Over(o Frac) Frac {
	o = o.norm()
	if o.numer == 0 {
		panic(&ArithmeticError{Op: fmt.Sprintf("division of %v by zero", f)})
	}
	return f.Times(Frac{o.denom, o.numer}.normSign())
}

func (f Frac) OverInt(n int64) Frac {
	return f.Over(Frac{n, 1})
}

func (f Frac) normSign() Frac {
	if f.denom < 0 {
		return Frac{-f.numer, -f.denom}
	}
	return f
}

func (f Frac) Cmp(o Frac) int {
	d := f.Minus(o)
	switch {
	case d.numer < 0:
		return -1
	case d.numer > 0:
		return 1
	}
	return 0
}

func (f Frac) Equals(o Frac) bool {
	return f.norm() == o.norm()
}

func (f Frac) LessThan(o Frac) bool {
	return f.Cmp(o) < 0
}

func (f Frac) Leq(o Frac) bool {
	return f.Cmp(o) <= 0
}

func (f Frac) GreaterThan(o Frac) bool {
	return f.Cmp(o) > 0
}

func (f Frac) Geq(o Frac) bool {
	return f.Cmp(o) >= 0
}

func (f Frac) IsZero() bool {
	return f.norm().numer == 0
}

func (f Frac) Sign() int {
	switch {
	case f.numer < 0:
		return -1
	case f.numer > 0:
		return 1
	}
	return 0
}

func (f Frac) IsWhole() bool {
	return f.Denom() == 1
}

// Float is lossy. Only use it when converting to wall-clock time.
func (f Frac) Float() float64 {
	f = f.norm()
	return float64(f.numer) / float64(f.denom)
}

func Min(a, b Frac) Frac {
	if b.LessThan(a) {
		return b
	}
	return a
}

func Max(a, b Frac) Frac {
	if b.GreaterThan(a) {
		return b
	}
	return a
}

func (f Frac) String() string {
	f = f.norm()
	if f.denom == 1 {
		return fmt.Sprintf("%d", f.numer)
	}
	return fmt.Sprintf("%d/%d", f.numer, f.denom)
}

// Parse reads "n", "n/d" or a mixed "w+n/d" form.
func Parse(s string) (Frac, error) {
	s = strings.TrimSpace(s)
	if whole, rest, ok := strings.Cut(s, "+"); ok && whole != "" {
		w, err := Parse(whole)
		if err != nil {
			return Frac{}, err
		}
		r, err := Parse(rest)
		if err != nil {
			return Frac{}, err
		}
		return w.Plus(r), nil
	}
	numerStr, denomStr, hasDenom := strings.Cut(s, "/")
	numer, err := strconv.ParseInt(strings.TrimSpace(numerStr), 10, 64)
	if err != nil {
		return Frac{}, &ArithmeticError{Op: fmt.Sprintf("malformed fraction %q", s)}
	}
	if !hasDenom {
		return Frac{numer, 1}, nil
	}
	denom, err := strconv.ParseInt(strings.TrimSpace(denomStr), 10, 64)
	if err != nil {
		return Frac{}, &ArithmeticError{Op: fmt.Sprintf("malformed fraction %q", s)}
	}
	return New(numer, denom)
}

func (f Frac) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Frac) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// UnmarshalYAML accepts plain numbers as well as fraction strings.
func (f *Frac) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return f.UnmarshalText([]byte(s))
}
