package model

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
)

var ErrBadRange = errors.New("malformed numeric range")

// NumOrRange is a catalog number that is either a literal (Min == Max) or a
// min-max range resolved uniformly at draw time.
type NumOrRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func Num(v float64) NumOrRange {
	return NumOrRange{Min: v, Max: v}
}

func Span(min, max float64) NumOrRange {
	return NumOrRange{Min: min, Max: max}
}

func (n NumOrRange) Fixed() bool {
	return n.Min == n.Max
}

func (n NumOrRange) Valid() bool {
	return n.Min <= n.Max
}

// Resolve draws a concrete value: the literal itself, or a uniform value in
// [Min, Max] for a range.
func (n NumOrRange) Resolve(r *rand.Rand) float64 {
	if n.Fixed() {
		return n.Min
	}
	return n.Min + r.Float64()*(n.Max-n.Min)
}

// ParseNumOrRange accepts "12", "12.5" or "5-10" catalog notation. Negative
// literals are not part of the notation; a '-' always separates a range.
func ParseNumOrRange(s string) (NumOrRange, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return NumOrRange{}, fmt.Errorf("%w: empty", ErrBadRange)
	}
	if lo, hi, ok := strings.Cut(s, "-"); ok {
		min, err := strconv.ParseFloat(strings.TrimSpace(lo), 64)
		if err != nil {
			return NumOrRange{}, fmt.Errorf("%w: %q", ErrBadRange, s)
		}
		max, err := strconv.ParseFloat(strings.TrimSpace(hi), 64)
		if err != nil {
			return NumOrRange{}, fmt.Errorf("%w: %q", ErrBadRange, s)
		}
		if min > max {
			return NumOrRange{}, fmt.Errorf("%w: %q", ErrBadRange, s)
		}
		return NumOrRange{Min: min, Max: max}, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return NumOrRange{}, fmt.Errorf("%w: %q", ErrBadRange, s)
	}
	return Num(v), nil
}

// ParseDirection accepts the catalog notations "+", "-", and "rand" along
// with their spelled-out forms.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "+", "forward", "fwd", "":
		return Forward, nil
	case "-", "reverse", "rev":
		return Reverse, nil
	case "rand", "random":
		return RandomStrand, nil
	default:
		return Forward, fmt.Errorf("unknown direction %q", s)
	}
}
