package dump

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sirkon/covgate/internal/mir"
)

// BodiesFile is a YAML dump of lowered bodies.
//
//	bodies:
//	  - instance: example.com/pkg.Fn
//	    scopes:
//	      - {}
//	      - parent: 0
//	        inlined:
//	          callee: example.com/pkg.helper
//	          call_site: pkg.go:12:3
//	    blocks:
//	      - statements:
//	          - counter: 0
//	          - counter: 1
//	            scope: 1
//	          - other: "t0 = x + 1"
//	        succs: [1]
//	      - statements:
//	          - expression: 2
//
// A statement sets exactly one of counter, expression, span, block and other.
// The outermost scope is implied when scopes are omitted. A scope is listed after
// its parent. Scopes nested in an inlined scope get inlined_parent_scope filled in
// when the dump leaves it out.
type BodiesFile struct {
	Bodies []BodyEntry `yaml:"bodies"`
}

// BodyEntry is a lowered body of an instance.
type BodyEntry struct {
	Instance string       `yaml:"instance"`
	Scopes   []ScopeEntry `yaml:"scopes"`
	Blocks   []BlockEntry `yaml:"blocks"`
}

// ScopeEntry is a source scope.
type ScopeEntry struct {
	Parent             *uint32       `yaml:"parent"`
	Inlined            *InlinedEntry `yaml:"inlined"`
	InlinedParentScope *uint32       `yaml:"inlined_parent_scope"`
}

// InlinedEntry describes an inlined callee.
type InlinedEntry struct {
	Callee   string   `yaml:"callee"`
	CallSite Position `yaml:"call_site"`
}

// BlockEntry is a basic block.
type BlockEntry struct {
	Statements []StatementEntry `yaml:"statements"`
	Succs      []uint32         `yaml:"succs"`
}

// StatementEntry is a statement of a basic block.
type StatementEntry struct {
	Counter    *uint32  `yaml:"counter"`
	Expression *uint32  `yaml:"expression"`
	Span       bool     `yaml:"span"`
	Block      *uint32  `yaml:"block"`
	Other      *string  `yaml:"other"`
	Scope      uint32   `yaml:"scope"`
	Pos        Position `yaml:"pos"`
}

// Bodies is a set of lowered bodies by instance.
type Bodies struct {
	order  []mir.InstanceID
	bodies map[mir.InstanceID]*mir.Body
}

// InstanceMIR implements query.BodySource.
func (b *Bodies) InstanceMIR(inst mir.InstanceID) (*mir.Body, bool) {
	body, ok := b.bodies[inst]
	return body, ok
}

// Instances lists instances in dump order.
func (b *Bodies) Instances() []mir.InstanceID {
	return b.order
}

// LoadBodies reads a bodies dump from the file at path.
func LoadBodies(path string) (*Bodies, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bodies dump: %w", err)
	}
	defer f.Close()

	b, err := ReadBodies(f)
	if err != nil {
		return nil, fmt.Errorf("read bodies dump %s: %w", path, err)
	}

	return b, nil
}

// ReadBodies decodes a bodies dump.
func ReadBodies(r io.Reader) (*Bodies, error) {
	var file BodiesFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	res := &Bodies{
		bodies: make(map[mir.InstanceID]*mir.Body, len(file.Bodies)),
	}
	for i, e := range file.Bodies {
		if e.Instance == "" {
			return nil, fmt.Errorf("body #%d: instance is required", i)
		}

		inst := mir.InstanceID(e.Instance)
		if _, ok := res.bodies[inst]; ok {
			return nil, fmt.Errorf("body %s: duplicate instance", inst)
		}

		body, err := e.Body()
		if err != nil {
			return nil, fmt.Errorf("body %s: %w", inst, err)
		}

		res.order = append(res.order, inst)
		res.bodies[inst] = body
	}

	return res, nil
}

// Body builds the lowered body of the entry.
func (e *BodyEntry) Body() (*mir.Body, error) {
	body := &mir.Body{
		Instance: mir.InstanceID(e.Instance),
	}

	scopes := e.Scopes
	if len(scopes) == 0 {
		scopes = []ScopeEntry{{}}
	}

	scopeRef := func(v *uint32) (*mir.ScopeID, error) {
		if v == nil {
			return nil, nil
		}
		if int(*v) >= len(scopes) {
			return nil, fmt.Errorf("scope %d is out of %d scopes", *v, len(scopes))
		}

		id := mir.ScopeID(*v)
		return &id, nil
	}

	for i, s := range scopes {
		var data mir.SourceScopeData
		var err error
		if data.Parent, err = scopeRef(s.Parent); err != nil {
			return nil, fmt.Errorf("scope #%d: parent: %w", i, err)
		}
		if data.Parent != nil && int(*data.Parent) >= i {
			return nil, fmt.Errorf("scope #%d: parent %d must be declared before", i, *data.Parent)
		}
		if data.InlinedParentScope, err = scopeRef(s.InlinedParentScope); err != nil {
			return nil, fmt.Errorf("scope #%d: inlined parent scope: %w", i, err)
		}
		if s.Inlined != nil {
			if data.Parent == nil {
				return nil, fmt.Errorf("scope #%d: inlined scope must have a parent", i)
			}
			data.Inlined = &mir.InlinedCallee{
				Callee:   s.Inlined.Callee,
				CallSite: s.Inlined.CallSite.Position(),
			}
		}
		if data.Inlined == nil && data.InlinedParentScope == nil && data.Parent != nil {
			data.InlinedParentScope = inlinedParentOf(body.SourceScopes, *data.Parent)
		}
		body.SourceScopes = append(body.SourceScopes, data)
	}

	for i, b := range e.Blocks {
		var data mir.BasicBlockData
		for j, st := range b.Statements {
			stmt, err := st.statement(len(scopes))
			if err != nil {
				return nil, fmt.Errorf("block #%d: statement #%d: %w", i, j, err)
			}
			data.Statements = append(data.Statements, stmt)
		}

		for _, succ := range b.Succs {
			if int(succ) >= len(e.Blocks) {
				return nil, fmt.Errorf("block #%d: successor %d is out of %d blocks", i, succ, len(e.Blocks))
			}
			data.Succs = append(data.Succs, mir.BlockID(succ))
		}

		body.Blocks = append(body.Blocks, data)
	}

	return body, nil
}

func (s *StatementEntry) statement(scopes int) (mir.Statement, error) {
	if int(s.Scope) >= scopes {
		return mir.Statement{}, fmt.Errorf("scope %d is out of %d scopes", s.Scope, scopes)
	}

	var kinds []mir.StatementKind
	if s.Counter != nil {
		kinds = append(kinds, &mir.StatementCoverage{Kind: mir.CounterIncrement{ID: mir.CounterID(*s.Counter)}})
	}
	if s.Expression != nil {
		kinds = append(kinds, &mir.StatementCoverage{Kind: mir.ExpressionUsed{ID: mir.ExpressionID(*s.Expression)}})
	}
	if s.Span {
		kinds = append(kinds, &mir.StatementCoverage{Kind: mir.SpanMarker{}})
	}
	if s.Block != nil {
		kinds = append(kinds, &mir.StatementCoverage{Kind: mir.BlockMarker{ID: *s.Block}})
	}
	if s.Other != nil {
		kinds = append(kinds, &mir.StatementOther{Text: *s.Other})
	}

	switch len(kinds) {
	case 0:
		return mir.Statement{}, fmt.Errorf("statement kind is missing: want one of counter, expression, span, block, other")
	case 1:
	default:
		return mir.Statement{}, fmt.Errorf("statement sets %d kinds, exactly one is allowed", len(kinds))
	}

	return mir.Statement{
		SourceInfo: mir.SourceInfo{
			Pos:   s.Pos.Position(),
			Scope: mir.ScopeID(s.Scope),
		},
		Kind: kinds[0],
	}, nil
}

// inlinedParentOf finds the nearest scope outside of the inlining the parent
// scope belongs to. Nil means the parent is not part of an inlined body.
func inlinedParentOf(scopes []mir.SourceScopeData, parent mir.ScopeID) *mir.ScopeID {
	p := scopes[parent]
	switch {
	case p.InlinedParentScope != nil:
		id := *p.InlinedParentScope
		return &id
	case p.Inlined != nil:
		id := *p.Parent
		return &id
	default:
		return nil
	}
}
