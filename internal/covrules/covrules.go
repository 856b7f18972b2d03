package covrules

import (
	"encoding"
	"fmt"
)

// Reason represents a covgate skip reason code (CVG-series).
type Reason int

const (
	reasonInvalid Reason = iota

	CVG000NotFnLike
	CVG010AutomaticallyDerived
	CVG020Naked
	CVG030CoverageOff
)

// String returns the canonical code and short name of the reason.
// Example: "CVG020: Naked"
func (r Reason) String() string {
	switch r {
	case CVG000NotFnLike:
		return "CVG000: NotFnLike"
	case CVG010AutomaticallyDerived:
		return "CVG010: AutomaticallyDerived"
	case CVG020Naked:
		return "CVG020: Naked"
	case CVG030CoverageOff:
		return "CVG030: CoverageOff"
	default:
		return fmt.Sprintf("reason-unknown(%d)", r)
	}
}

// Description returns the human-readable explanation of the reason.
func (r Reason) Description() string {
	switch r {
	case CVG000NotFnLike:
		return "Only functions, methods and closures are instrumented; constants are evaluated at compile time."
	case CVG010AutomaticallyDerived:
		return "Methods of generated implementation blocks are not instrumented."
	case CVG020Naked:
		return "Functions with hand-written machine code bodies cannot be instrumented."
	case CVG030CoverageOff:
		return "Coverage is switched off by a directive on the function or an enclosing definition."
	default:
		return fmt.Sprintf("unknown-reason(%d)", r)
	}
}

var _ encoding.TextUnmarshaler = (*Reason)(nil)

// UnmarshalText accepts both the full form "CVG020: Naked" and the bare code "CVG020".
func (r *Reason) UnmarshalText(b []byte) error {
	text := string(b)
	for _, v := range []Reason{CVG000NotFnLike, CVG010AutomaticallyDerived, CVG020Naked, CVG030CoverageOff} {
		s := v.String()
		if s == text || s[:len("CVG000")] == text {
			*r = v
			return nil
		}
	}

	return fmt.Errorf("unknown skip reason %q", text)
}

// Canonical constructors.

func NotFnLike() Reason            { return CVG000NotFnLike }
func AutomaticallyDerived() Reason { return CVG010AutomaticallyDerived }
func Naked() Reason                { return CVG020Naked }
func CoverageOff() Reason          { return CVG030CoverageOff }
