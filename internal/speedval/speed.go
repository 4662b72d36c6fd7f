// Package speedval wraps shopspring/decimal so speed arithmetic never
// accumulates the float drift that would violate the endpoint law.
package speedval

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	zero = decimal.Zero
	one  = decimal.NewFromInt(1)
)

// Speed is a value in [0, 1]. The zero value is a valid, clamped zero speed.
type Speed struct {
	value decimal.Decimal
}

// Zero is the zero speed.
var Zero = Speed{value: zero}

// Full is maximum speed, 1.0.
var Full = Speed{value: one}

// New clamps f into [0, 1] and returns the corresponding Speed.
func New(f float64) Speed {
	return Speed{value: decimal.NewFromFloat(f)}.Clamp(Zero, Full)
}

// FromDecimal clamps d into [0, 1].
func FromDecimal(d decimal.Decimal) Speed {
	return Speed{value: d}.Clamp(Zero, Full)
}

// Clamp restricts s to [lo, hi]. lo must not exceed hi.
func (s Speed) Clamp(lo, hi Speed) Speed {
	if s.value.LessThan(lo.value) {
		return lo
	}
	if s.value.GreaterThan(hi.value) {
		return hi
	}
	return s
}

// Add returns s + other, unclamped.
func (s Speed) Add(other Speed) Speed {
	return Speed{value: s.value.Add(other.value)}
}

// Sub returns s - other, unclamped.
func (s Speed) Sub(other Speed) Speed {
	return Speed{value: s.value.Sub(other.value)}
}

// Mul returns s * factor, unclamped.
func (s Speed) Mul(factor decimal.Decimal) Speed {
	return Speed{value: s.value.Mul(factor)}
}

// Abs returns the absolute value of s, unclamped — used for the
// magnitude of a from/to delta, which is not itself a valid Speed.
func (s Speed) Abs() Speed {
	return Speed{value: s.value.Abs()}
}

// Decimal exposes the underlying decimal.Decimal for callers (e.g.
// Momentum) that need to do unclamped intermediate arithmetic on a
// from/to delta, which is not itself a valid Speed.
func (s Speed) Decimal() decimal.Decimal {
	return s.value
}

// Sign returns -1, 0, or 1.
func (s Speed) Sign() int {
	return s.value.Sign()
}

// Cmp compares two speeds: -1, 0, or 1.
func (s Speed) Cmp(other Speed) int {
	return s.value.Cmp(other.value)
}

// Equal reports exact equality.
func (s Speed) Equal(other Speed) bool {
	return s.value.Equal(other.value)
}

// LessThan reports s < other.
func (s Speed) LessThan(other Speed) bool {
	return s.value.LessThan(other.value)
}

// GreaterThan reports s > other.
func (s Speed) GreaterThan(other Speed) bool {
	return s.value.GreaterThan(other.value)
}

// IsZero reports whether s is exactly zero.
func (s Speed) IsZero() bool {
	return s.value.IsZero()
}

// Float64 returns the float64 approximation, for HAL/display consumers
// that only need a PWM duty cycle, not exact arithmetic.
func (s Speed) Float64() float64 {
	f, _ := s.value.Float64()
	return f
}

// String renders a fixed 4-decimal representation.
func (s Speed) String() string {
	return s.value.StringFixed(4)
}

// MarshalJSON renders the speed as a JSON number, not a quoted decimal
// string, so transports don't need to know this is decimal-backed.
func (s Speed) MarshalJSON() ([]byte, error) {
	return []byte(s.value.StringFixed(4)), nil
}

// UnmarshalJSON accepts any JSON number and clamps it into [0, 1].
func (s *Speed) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("speedval: invalid speed %q: %w", data, err)
	}
	*s = New(f)
	return nil
}

// FromMillis converts a millisecond duration to a decimal number of
// seconds, the unit Momentum's acceleration and max-rate are expressed in.
func FromMillis(ms int64) decimal.Decimal {
	return decimal.NewFromInt(ms).Div(decimal.NewFromInt(1000))
}
