package indicator

import "math"

// Level is a possibly-undefined indicator value. Indicators yield undefined
// levels when their lookback is not yet populated or a division edge case
// (zero average loss, zero session volume) occurs. Undefined is NaN-backed:
// arithmetic propagates it and every comparison involving an undefined level
// is false, so a rule condition can never be satisfied by missing data.
//
// The zero value of Level is a defined 0, not undefined; a missing value
// must be set with Undefined explicitly.
type Level float64

// Undefined returns the undefined level.
func Undefined() Level {
	return Level(math.NaN())
}

// LevelOf wraps a plain float. NaN inputs stay undefined.
func LevelOf(v float64) Level {
	return Level(v)
}

// Defined reports whether the level carries a value.
func (l Level) Defined() bool {
	return !math.IsNaN(float64(l))
}

// Float unwraps the level; NaN when undefined.
func (l Level) Float() float64 {
	return float64(l)
}

// Ptr returns the value for nullable persistence, nil when undefined.
func (l Level) Ptr() *float64 {
	if !l.Defined() {
		return nil
	}
	v := float64(l)
	return &v
}

// GreaterThan is l > o; false unless both sides are defined.
func (l Level) GreaterThan(o Level) bool {
	return l > o
}

// LessThan is l < o; false unless both sides are defined.
func (l Level) LessThan(o Level) bool {
	return l < o
}

// AtLeast is l >= o; false unless both sides are defined.
func (l Level) AtLeast(o Level) bool {
	return l >= o
}

// AtMost is l <= o; false unless both sides are defined.
func (l Level) AtMost(o Level) bool {
	return l <= o
}

// Above is l > v for a plain threshold.
func (l Level) Above(v float64) bool {
	return float64(l) > v
}

// Below is l < v for a plain threshold.
func (l Level) Below(v float64) bool {
	return float64(l) < v
}

// Add returns l + o, undefined if either side is.
func (l Level) Add(o Level) Level {
	return l + o
}

// Sub returns l - o, undefined if either side is.
func (l Level) Sub(o Level) Level {
	return l - o
}

// Scale returns l * f, undefined if l is.
func (l Level) Scale(f float64) Level {
	return Level(float64(l) * f)
}
