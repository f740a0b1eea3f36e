package state

import (
	"math"
	"strconv"
	"strings"
)

// Canonical serializes s as a JSON array in a fixed textual form:
// elements separated by ", ", every finite float written with its shortest
// round-trip digits and always carrying a fraction or exponent ("1.0",
// "1e-05", "1e+16"), and non-finite values written as NaN, Infinity and
// -Infinity. Two equal states always produce the same bytes.
func Canonical(s State) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range s {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(FormatFloat(v))
	}
	b.WriteByte(']')
	return b.String()
}

// FormatFloat formats one element in canonical form. Fixed notation is used
// for decimal exponents in [-4, 16); scientific notation otherwise.
func FormatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case v == 0:
		if math.Signbit(v) {
			return "-0.0"
		}
		return "0.0"
	}

	sci := strconv.FormatFloat(v, 'e', -1, 64)
	exp, err := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if err != nil {
		return sci
	}
	if exp < -4 || exp >= 16 {
		return sci
	}

	fixed := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsRune(fixed, '.') {
		fixed += ".0"
	}
	return fixed
}
