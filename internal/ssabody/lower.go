package ssabody

import (
	"go/constant"
	"go/token"
	"go/types"
	"sync"

	"golang.org/x/tools/go/ssa"

	"github.com/sirkon/covgate/internal/config"
	"github.com/sirkon/covgate/internal/mir"
)

// Source lowers registered SSA functions into bodies on demand.
type Source struct {
	fset    *token.FileSet
	markers map[config.Reference]config.MarkerKind

	mu     sync.Mutex
	funcs  map[mir.InstanceID]*ssa.Function
	bodies map[mir.InstanceID]*mir.Body
}

// NewSource is [Source] constructor.
func NewSource(fset *token.FileSet, markers map[config.Reference]config.MarkerKind) *Source {
	return &Source{
		fset:    fset,
		markers: markers,
		funcs:   map[mir.InstanceID]*ssa.Function{},
		bodies:  map[mir.InstanceID]*mir.Body{},
	}
}

// InstanceOf names the instance of an SSA function.
func InstanceOf(fn *ssa.Function) mir.InstanceID {
	return mir.InstanceID(fn.String())
}

// Add registers a function and returns its instance ID.
func (s *Source) Add(fn *ssa.Function) mir.InstanceID {
	inst := InstanceOf(fn)

	s.mu.Lock()
	s.funcs[inst] = fn
	s.mu.Unlock()

	return inst
}

// InstanceMIR implements query.BodySource.
func (s *Source) InstanceMIR(inst mir.InstanceID) (*mir.Body, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if body, ok := s.bodies[inst]; ok {
		return body, true
	}

	fn, ok := s.funcs[inst]
	if !ok {
		return nil, false
	}

	body := Lower(s.fset, fn, s.markers)
	s.bodies[inst] = body
	return body, true
}

// Lower builds the body of fn.
//
// Calls of marker functions with a constant argument become coverage statements.
// Code whose //line-adjusted file differs from the file the function itself is
// attributed to was pasted in from elsewhere, such code gets an inlined scope per
// origin file. A function declared under a //line directive owns the code of that
// directive's file.
func Lower(fset *token.FileSet, fn *ssa.Function, markers map[config.Reference]config.MarkerKind) *mir.Body {
	l := &lowering{
		fset:    fset,
		markers: markers,
		home:    homeFile(fset, fn),
		body: &mir.Body{
			Instance:     InstanceOf(fn),
			Blocks:       make([]mir.BasicBlockData, len(fn.Blocks)),
			SourceScopes: []mir.SourceScopeData{{}},
		},
		origins: map[string]mir.ScopeID{},
	}

	for _, block := range fn.Blocks {
		data := &l.body.Blocks[block.Index]
		for _, succ := range block.Succs {
			data.Succs = append(data.Succs, mir.BlockID(succ.Index))
		}
		for _, instr := range block.Instrs {
			data.Statements = append(data.Statements, l.statement(instr))
		}
	}

	return l.body
}

type lowering struct {
	fset    *token.FileSet
	markers map[config.Reference]config.MarkerKind
	home    string
	body    *mir.Body
	origins map[string]mir.ScopeID
}

// homeFile is the adjusted file of the function declaration, empty for synthetic functions.
func homeFile(fset *token.FileSet, fn *ssa.Function) string {
	if !fn.Pos().IsValid() {
		return ""
	}

	return fset.Position(fn.Pos()).Filename
}

func (l *lowering) statement(instr ssa.Instruction) mir.Statement {
	pos := instr.Pos()
	stmt := mir.Statement{
		SourceInfo: mir.SourceInfo{
			Pos:   l.fset.Position(pos),
			Scope: l.scope(pos),
		},
	}

	if kind, ok := l.coverage(instr); ok {
		stmt.Kind = &mir.StatementCoverage{Kind: kind}
	} else {
		stmt.Kind = &mir.StatementOther{Text: instr.String()}
	}

	return stmt
}

func (l *lowering) scope(pos token.Pos) mir.ScopeID {
	if !pos.IsValid() {
		return mir.OutermostScope
	}

	adjusted := l.fset.Position(pos)
	raw := l.fset.PositionFor(pos, false)
	home := l.home
	if home == "" {
		home = raw.Filename
	}
	if adjusted.Filename == home {
		return mir.OutermostScope
	}

	if id, ok := l.origins[adjusted.Filename]; ok {
		return id
	}

	parent := mir.OutermostScope
	id := mir.ScopeID(len(l.body.SourceScopes))
	l.body.SourceScopes = append(l.body.SourceScopes, mir.SourceScopeData{
		Parent: &parent,
		Inlined: &mir.InlinedCallee{
			Callee:   adjusted.Filename,
			CallSite: raw,
		},
	})
	l.origins[adjusted.Filename] = id

	return id
}

func (l *lowering) coverage(instr ssa.Instruction) (mir.CoverageKind, bool) {
	call, ok := instr.(*ssa.Call)
	if !ok {
		return nil, false
	}

	callee := call.Call.StaticCallee()
	if callee == nil {
		return nil, false
	}

	kind, ok := l.markers[referenceOf(callee)]
	if !ok {
		return nil, false
	}

	// Static method calls pass the receiver first.
	args := call.Call.Args
	if callee.Signature.Recv() != nil && len(args) > 0 {
		args = args[1:]
	}
	if len(args) != 1 {
		return nil, false
	}

	c, ok := args[0].(*ssa.Const)
	if !ok || c.Value == nil || c.Value.Kind() != constant.Int {
		return nil, false
	}
	id, exact := constant.Uint64Val(c.Value)
	if !exact || id > uint64(^uint32(0)) {
		return nil, false
	}

	switch kind {
	case config.MarkerKindCounter:
		return mir.CounterIncrement{ID: mir.CounterID(id)}, true
	case config.MarkerKindExpression:
		return mir.ExpressionUsed{ID: mir.ExpressionID(id)}, true
	default:
		return nil, false
	}
}

func referenceOf(fn *ssa.Function) config.Reference {
	obj, _ := fn.Object().(*types.Func)
	return config.ReferenceOf(obj)
}
