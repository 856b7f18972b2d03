package defs

import (
	"fmt"
	"go/token"
	"strings"
)

// Names of attributes the coverage machinery looks at.
const (
	// AttrCoverage switches coverage on or off for a definition and everything nested in it.
	// Well-formed instances carry exactly one argument, either "on" or "off".
	AttrCoverage = "coverage"

	// AttrAutomaticallyDerived marks implementation blocks produced by a generator.
	AttrAutomaticallyDerived = "automatically_derived"
)

// Attr is an attribute attached directly to a definition.
type Attr struct {
	Name string
	Args []string
	Pos  token.Position
}

func (a Attr) String() string {
	if len(a.Args) == 0 {
		return a.Name
	}

	return a.Name + "(" + strings.Join(a.Args, ", ") + ")"
}

// CodegenFlags is a set of code generation properties of a function.
type CodegenFlags uint32

const (
	// CodegenNaked marks functions whose body is hand-written machine code with
	// no normal prologue: Go functions declared without a body and implemented in assembly.
	CodegenNaked CodegenFlags = 1 << iota

	// CodegenNoInline marks functions under //go:noinline.
	CodegenNoInline

	// CodegenNoSplit marks functions under //go:nosplit.
	CodegenNoSplit
)

var codegenFlagNames = []struct {
	flag CodegenFlags
	name string
}{
	{CodegenNaked, "naked"},
	{CodegenNoInline, "noinline"},
	{CodegenNoSplit, "nosplit"},
}

// Contains checks if all flags of other are set in f.
func (f CodegenFlags) Contains(other CodegenFlags) bool {
	return f&other == other
}

func (f CodegenFlags) String() string {
	var parts []string
	for _, n := range codegenFlagNames {
		if f.Contains(n.flag) {
			parts = append(parts, n.name)
		}
	}

	return "{" + strings.Join(parts, ", ") + "}"
}

// ParseCodegenFlag maps a flag name back to its value.
func ParseCodegenFlag(name string) (CodegenFlags, error) {
	for _, n := range codegenFlagNames {
		if n.name == name {
			return n.flag, nil
		}
	}

	return 0, fmt.Errorf("unknown codegen flag %q", name)
}
