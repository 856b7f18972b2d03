package defs

import (
	"encoding"
	"fmt"
)

// DefKind classifies a definition.
type DefKind int

const (
	defKindInvalid DefKind = iota

	// DefKindMod is a package or a file: a lexical container with no body.
	DefKindMod

	// DefKindFn is a package-level function.
	DefKindFn

	// DefKindAssocFn is a method, it belongs to an implementation block.
	DefKindAssocFn

	// DefKindClosure is a function literal.
	DefKindClosure

	// DefKindConst is a constant, evaluated at compile time.
	DefKindConst

	// DefKindStatic is a package-level variable.
	DefKindStatic

	// DefKindType is a type declaration.
	DefKindType

	// DefKindImpl is an implementation block: the methods of a type declared together.
	DefKindImpl
)

var defKindValueMap = map[DefKind]string{
	DefKindMod:     "mod",
	DefKindFn:      "fn",
	DefKindAssocFn: "assoc-fn",
	DefKindClosure: "closure",
	DefKindConst:   "const",
	DefKindStatic:  "static",
	DefKindType:    "type",
	DefKindImpl:    "impl",
}

// IsFnLike reports whether definitions of this kind have a body of their own:
// functions, methods and closures.
func (k DefKind) IsFnLike() bool {
	switch k {
	case DefKindFn, DefKindAssocFn, DefKindClosure:
		return true
	default:
		return false
	}
}

func (k DefKind) String() string {
	v, ok := defKindValueMap[k]
	if !ok {
		return fmt.Sprintf("def-kind-invalid(%d)", k)
	}

	return v
}

var (
	_ encoding.TextUnmarshaler = (*DefKind)(nil)
	_ encoding.TextMarshaler   = DefKind(0)
)

// UnmarshalText for setting values with dumps, CLI, etc.
func (k *DefKind) UnmarshalText(b []byte) error {
	text := string(b)
	for kind, v := range defKindValueMap {
		if v == text {
			*k = kind
			return nil
		}
	}

	return fmt.Errorf("unknown definition kind %q", text)
}

func (k DefKind) MarshalText() ([]byte, error) {
	v, ok := defKindValueMap[k]
	if !ok {
		return nil, fmt.Errorf("cannot marshal invalid DefKind(%d)", k)
	}

	return []byte(v), nil
}
