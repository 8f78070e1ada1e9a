package value

import (
	"math"
	"strconv"

	"github.com/wippyai/jsonabi/errors"
)

// NumberKind identifies the representation held by a Number.
type NumberKind uint8

const (
	NumberInt NumberKind = iota
	NumberUint
	NumberFloat
	// NumberRaw keeps the literal exactly as it appeared in the input.
	NumberRaw
)

// Number is a JSON number in one of four representations.
type Number struct {
	raw  string
	f    float64
	i    int64
	u    uint64
	kind NumberKind
}

// IntNumber returns an int64 number.
func IntNumber(i int64) Number { return Number{kind: NumberInt, i: i} }

// UintNumber returns a uint64 number.
func UintNumber(u uint64) Number { return Number{kind: NumberUint, u: u} }

// FloatNumber returns a float64 number.
func FloatNumber(f float64) Number { return Number{kind: NumberFloat, f: f} }

// RawNumber returns a number that keeps its literal text. The text is
// assumed to be a valid JSON number literal.
func RawNumber(text string) Number { return Number{kind: NumberRaw, raw: text} }

// Kind returns the representation.
func (n Number) Kind() NumberKind { return n.kind }

// IsRaw reports whether n keeps its source literal.
func (n Number) IsRaw() bool { return n.kind == NumberRaw }

// Int64 returns n as int64 if it is an integer that fits.
func (n Number) Int64() (int64, bool) {
	switch n.kind {
	case NumberInt:
		return n.i, true
	case NumberUint:
		if n.u <= math.MaxInt64 {
			return int64(n.u), true
		}
	case NumberRaw:
		i, err := strconv.ParseInt(n.raw, 10, 64)
		return i, err == nil
	}
	return 0, false
}

// Uint64 returns n as uint64 if it is a non-negative integer that fits.
func (n Number) Uint64() (uint64, bool) {
	switch n.kind {
	case NumberInt:
		if n.i >= 0 {
			return uint64(n.i), true
		}
	case NumberUint:
		return n.u, true
	case NumberRaw:
		u, err := strconv.ParseUint(n.raw, 10, 64)
		return u, err == nil
	}
	return 0, false
}

// Float64 returns n converted to float64.
func (n Number) Float64() (float64, bool) {
	switch n.kind {
	case NumberInt:
		return float64(n.i), true
	case NumberUint:
		return float64(n.u), true
	case NumberFloat:
		return n.f, true
	case NumberRaw:
		f, err := strconv.ParseFloat(n.raw, 64)
		return f, err == nil && !math.IsInf(f, 0)
	}
	return 0, false
}

// Raw returns the literal text of a raw number.
func (n Number) Raw() (string, bool) {
	return n.raw, n.kind == NumberRaw
}

// String returns the JSON text of n. Non-finite floats render as "null".
func (n Number) String() string {
	b, err := n.AppendText(nil)
	if err != nil {
		return "null"
	}
	return string(b)
}

// AppendText appends the JSON text of n to dst.
func (n Number) AppendText(dst []byte) ([]byte, error) {
	switch n.kind {
	case NumberInt:
		return strconv.AppendInt(dst, n.i, 10), nil
	case NumberUint:
		return strconv.AppendUint(dst, n.u, 10), nil
	case NumberRaw:
		return append(dst, n.raw...), nil
	default:
		if math.IsNaN(n.f) || math.IsInf(n.f, 0) {
			return dst, errors.InvalidData(errors.PhaseSerialize, "float must be finite, not Infinity or NaN")
		}
		return appendFloat(dst, n.f), nil
	}
}

// appendFloat writes the shortest round-trip digits of f. Exponents in
// [-5, 16) use decimal notation and integral values keep a ".0" suffix;
// everything else is written as d.ddde[-]x.
func appendFloat(dst []byte, f float64) []byte {
	var scratch [32]byte
	b := strconv.AppendFloat(scratch[:0], f, 'e', -1, 64)
	if b[0] == '-' {
		dst = append(dst, '-')
		b = b[1:]
	}

	e := 0
	for e < len(b) && b[e] != 'e' {
		e++
	}
	exp, _ := strconv.Atoi(string(b[e+1:]))

	var digits [24]byte
	nd := 0
	for _, c := range b[:e] {
		if c != '.' {
			digits[nd] = c
			nd++
		}
	}
	d := digits[:nd]

	switch {
	case exp >= 0 && exp < 16:
		intLen := exp + 1
		if len(d) <= intLen {
			dst = append(dst, d...)
			for i := len(d); i < intLen; i++ {
				dst = append(dst, '0')
			}
			return append(dst, '.', '0')
		}
		dst = append(dst, d[:intLen]...)
		dst = append(dst, '.')
		return append(dst, d[intLen:]...)
	case exp < 0 && exp >= -5:
		dst = append(dst, '0', '.')
		for i := 0; i < -exp-1; i++ {
			dst = append(dst, '0')
		}
		return append(dst, d...)
	default:
		dst = append(dst, d[0])
		if len(d) > 1 {
			dst = append(dst, '.')
			dst = append(dst, d[1:]...)
		}
		dst = append(dst, 'e')
		return strconv.AppendInt(dst, int64(exp), 10)
	}
}

// Equal reports whether n and o denote the same number. Raw numbers compare
// by text against other raw numbers and by value against parsed numbers.
// An integer never equals a float, so 1 and 1.0 differ.
func (n Number) Equal(o Number) bool {
	if n.kind == NumberRaw && o.kind == NumberRaw {
		return n.raw == o.raw
	}
	n, o = n.parsed(), o.parsed()
	if n.kind == NumberFloat || o.kind == NumberFloat {
		return n.kind == o.kind && n.f == o.f
	}
	if a, ok := n.Int64(); ok {
		b, ok := o.Int64()
		return ok && a == b
	}
	a, _ := n.Uint64()
	b, ok := o.Uint64()
	return ok && a == b
}

// parsed converts a raw number into the representation the parser would
// have chosen for the same literal.
func (n Number) parsed() Number {
	if n.kind != NumberRaw {
		return n
	}
	if i, err := strconv.ParseInt(n.raw, 10, 64); err == nil {
		return IntNumber(i)
	}
	if u, err := strconv.ParseUint(n.raw, 10, 64); err == nil {
		return UintNumber(u)
	}
	f, _ := strconv.ParseFloat(n.raw, 64)
	return FloatNumber(f)
}
