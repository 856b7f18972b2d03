package mir

import (
	"fmt"
	"go/token"
)

// InstanceID identifies a compiled function instance.
type InstanceID string

// BlockID is an index of a basic block in [Body.Blocks].
type BlockID uint32

// ScopeID is an index of a source scope in [Body.SourceScopes].
type ScopeID uint32

// OutermostScope is the scope of the function itself.
const OutermostScope ScopeID = 0

// Body is a lowered function body.
type Body struct {
	Instance     InstanceID
	Blocks       []BasicBlockData
	SourceScopes []SourceScopeData
}

// BasicBlockData is a straight-line sequence of statements.
type BasicBlockData struct {
	Statements []Statement
	Succs      []BlockID
}

// Statement of a basic block.
type Statement struct {
	SourceInfo SourceInfo
	Kind       StatementKind
}

// SourceInfo locates a statement in source code and in the scope tree.
type SourceInfo struct {
	Pos   token.Position
	Scope ScopeID
}

// SourceScopeData is a node of the scope tree.
type SourceScopeData struct {
	Parent *ScopeID

	// Inlined is set on the root scope of a callee body copied in by inlining.
	Inlined *InlinedCallee

	// InlinedParentScope is set on scopes nested inside an inlined callee body.
	// It points to the nearest ancestor scope that is not part of that inlining.
	InlinedParentScope *ScopeID
}

// InlinedCallee describes where an inlined scope came from.
type InlinedCallee struct {
	Callee   string
	CallSite token.Position
}

// Scope gives access to the scope data.
func (b *Body) Scope(id ScopeID) *SourceScopeData {
	if int(id) >= len(b.SourceScopes) {
		panic(fmt.Sprintf("mir: scope %d is out of %s scopes", id, b.Instance))
	}

	return &b.SourceScopes[id]
}

// StatementKind is a payload of a statement.
type StatementKind interface {
	isStatementKind()
}

// StatementCoverage is a coverage marker.
type StatementCoverage struct {
	Kind CoverageKind
}

// StatementOther is any statement coverage analysis does not care about.
type StatementOther struct {
	Text string
}

func (*StatementCoverage) isStatementKind() {}
func (*StatementOther) isStatementKind()    {}
