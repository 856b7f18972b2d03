package defs

import (
	"fmt"
	"go/token"
	"strings"
)

// DefID identifies a definition inside the [Table] arena.
type DefID uint32

// NoDefID marks the absence of a definition reference.
const NoDefID DefID = 0

// IsValid reports whether the ID refers to an allocated definition.
func (id DefID) IsValid() bool { return id != NoDefID }

func (id DefID) String() string { return fmt.Sprintf("DefId(%d)", uint32(id)) }

// Def is a single definition record.
type Def struct {
	Kind DefKind
	Name string
	Pos  token.Position

	// Parent is the lexically enclosing definition, NoDefID for roots.
	Parent DefID

	// Impl is the implementation block owning a method, NoDefID otherwise.
	Impl DefID

	Attrs []Attr
	Flags CodegenFlags
}

// Table is an arena of definitions.
type Table struct {
	defs []Def
}

// NewTable is [Table] constructor.
func NewTable() *Table {
	// Slot zero stays reserved for NoDefID.
	return &Table{defs: make([]Def, 1)}
}

// Add allocates a new definition. Parent and Impl must refer to definitions
// added before, which keeps the enclosure relation acyclic.
func (t *Table) Add(d Def) DefID {
	id := DefID(len(t.defs))
	if d.Parent.IsValid() && d.Parent >= id {
		panic(fmt.Sprintf("defs: parent %s of %q is not allocated yet", d.Parent, d.Name))
	}
	if d.Impl.IsValid() && d.Impl >= id {
		panic(fmt.Sprintf("defs: impl %s of %q is not allocated yet", d.Impl, d.Name))
	}

	t.defs = append(t.defs, d)
	return id
}

// Def gives access to the definition record.
func (t *Table) Def(id DefID) *Def {
	if !id.IsValid() || int(id) >= len(t.defs) {
		panic(fmt.Sprintf("defs: %s is out of table", id))
	}

	return &t.defs[id]
}

// Len returns the number of allocated definitions.
func (t *Table) Len() int {
	return len(t.defs) - 1
}

// IDs returns all allocated definition IDs in allocation order.
func (t *Table) IDs() []DefID {
	res := make([]DefID, 0, t.Len())
	for i := 1; i < len(t.defs); i++ {
		res = append(res, DefID(i))
	}

	return res
}

// --- Definition graph provider --------------------------------------------------------------------------------------

// DefKind returns the kind of the definition.
func (t *Table) DefKind(id DefID) DefKind {
	return t.Def(id).Kind
}

// OptParent returns the lexically enclosing definition if any.
func (t *Table) OptParent(id DefID) (DefID, bool) {
	p := t.Def(id).Parent
	return p, p.IsValid()
}

// ImplOfMethod returns the implementation block of a method.
func (t *Table) ImplOfMethod(id DefID) (DefID, bool) {
	d := t.Def(id)
	if d.Kind != DefKindAssocFn || !d.Impl.IsValid() {
		return NoDefID, false
	}

	return d.Impl, true
}

// IsAutomaticallyDerived checks if the definition carries the automatically_derived attribute.
func (t *Table) IsAutomaticallyDerived(id DefID) bool {
	return len(t.Attrs(id, AttrAutomaticallyDerived)) > 0
}

// CodegenFlags returns codegen flags of the definition.
func (t *Table) CodegenFlags(id DefID) CodegenFlags {
	return t.Def(id).Flags
}

// Attrs returns attributes with the given name attached directly to the definition.
func (t *Table) Attrs(id DefID, name string) []Attr {
	var res []Attr
	for _, a := range t.Def(id).Attrs {
		if a.Name == name {
			res = append(res, a)
		}
	}

	return res
}

// DefSpan returns the source position of the definition.
func (t *Table) DefSpan(id DefID) token.Position {
	return t.Def(id).Pos
}

// DefPath renders the definition with all its lexical parents, like "pkg::file.go::Fn::{closure#0}".
func (t *Table) DefPath(id DefID) string {
	var parts []string
	for cur := id; cur.IsValid(); cur = t.Def(cur).Parent {
		parts = append(parts, t.Def(cur).Name)
	}

	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}

	return strings.Join(parts, "::")
}

// Lookup finds a definition by its path or, failing that, by its own name.
// The first match in allocation order wins.
func (t *Table) Lookup(name string) (DefID, bool) {
	for _, id := range t.IDs() {
		if t.DefPath(id) == name {
			return id, true
		}
	}
	for _, id := range t.IDs() {
		if t.Def(id).Name == name {
			return id, true
		}
	}

	return NoDefID, false
}
