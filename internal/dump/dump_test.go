package dump

import (
	"go/token"
	"reflect"
	"strings"
	"testing"

	"github.com/sirkon/deepequal"

	"github.com/sirkon/covgate/internal/coverage"
	"github.com/sirkon/covgate/internal/covrules"
	"github.com/sirkon/covgate/internal/defs"
	"github.com/sirkon/covgate/internal/diag"
	"github.com/sirkon/covgate/internal/mir"
	"github.com/sirkon/covgate/internal/query"
)

const defsDump = `
defs:
  - name: pkg
    kind: mod
    attrs:
      - name: coverage
        args: ["off"]
  - name: src
    kind: mod
    parent: pkg
    pos: src.go:1:1
    attrs:
      - name: coverage
        args: ["on"]
  - name: Fn
    kind: fn
    parent: src
    pos: src.go:3:1
  - name: Closure
    kind: closure
    parent: Fn
    pos: src.go:4:7
  - name: Off
    kind: fn
    parent: pkg
    pos: off.go:1:1
  - name: Asm
    kind: fn
    parent: src
    flags: [naked, nosplit]
  - name: impl T
    kind: impl
    parent: src
    attrs:
      - name: automatically_derived
  - name: T.String
    kind: assoc-fn
    parent: impl T
    impl: impl T
  - name: Limit
    kind: const
    parent: src
  - name: Broken
    kind: fn
    parent: src
    attrs:
      - name: coverage
        args: ["maybe"]
        pos: src.go:20:1
`

func TestReadDefs(t *testing.T) {
	table, err := ReadDefs(strings.NewReader(defsDump))
	if err != nil {
		t.Fatal(err)
	}

	if table.Len() != 10 {
		t.Fatalf("10 definitions expected, got %d", table.Len())
	}

	fn, ok := table.Lookup("Fn")
	if !ok {
		t.Fatal("Fn must be found")
	}
	if got := table.DefPath(fn); got != "pkg::src::Fn" {
		t.Errorf("unexpected path %q", got)
	}
	if got := table.DefSpan(fn); got != (token.Position{Filename: "src.go", Line: 3, Column: 1}) {
		t.Errorf("unexpected position %v", got)
	}

	asm, _ := table.Lookup("Asm")
	if got := table.CodegenFlags(asm); got != defs.CodegenNaked|defs.CodegenNoSplit {
		t.Errorf("unexpected flags %s", got)
	}

	method, _ := table.Lookup("T.String")
	impl, ok := table.ImplOfMethod(method)
	if !ok || table.Def(impl).Name != "impl T" {
		t.Errorf("method must belong to impl T")
	}

	// Attributes without own position take one of the definition.
	pkg, _ := table.Lookup("pkg")
	src, _ := table.Lookup("src")
	wantAttrs := []defs.Attr{{Name: "coverage", Args: []string{"on"}, Pos: token.Position{Filename: "src.go", Line: 1, Column: 1}}}
	if got := table.Attrs(src, defs.AttrCoverage); !reflect.DeepEqual(wantAttrs, got) {
		deepequal.SideBySide(t, "attrs", wantAttrs, got)
	}
	if got := table.Attrs(pkg, defs.AttrCoverage); len(got) != 1 || got[0].Pos.IsValid() {
		t.Errorf("unexpected root attrs %v", got)
	}
}

func TestDefsIntoQueries(t *testing.T) {
	table, err := ReadDefs(strings.NewReader(defsDump))
	if err != nil {
		t.Fatal(err)
	}

	var p query.Providers
	coverage.Provide(&p)
	reporter := diag.NewReporter(nil)
	tcx := query.NewCtx(p, table, nil, reporter)

	tests := []struct {
		name     string
		eligible bool
		reason   covrules.Reason
	}{
		{name: "Fn", eligible: true},
		{name: "Closure", eligible: true},
		{name: "Off", reason: covrules.CVG030CoverageOff},
		{name: "Asm", reason: covrules.CVG020Naked},
		{name: "T.String", reason: covrules.CVG010AutomaticallyDerived},
		{name: "Limit", reason: covrules.CVG000NotFnLike},
		{name: "pkg", reason: covrules.CVG000NotFnLike},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := table.Lookup(tt.name)
			if !ok {
				t.Fatalf("%s must be found", tt.name)
			}

			if got := tcx.IsEligibleForCoverage(id); got != tt.eligible {
				t.Errorf("eligible: got %t, want %t", got, tt.eligible)
			}
			if got := reporter.Skipped()[id]; got != tt.reason {
				t.Errorf("reason: got %s, want %s", got, tt.reason)
			}
		})
	}

	broken, _ := table.Lookup("Broken")
	err = diag.CatchICE(func() {
		tcx.IsEligibleForCoverage(broken)
	})
	if err == nil {
		t.Fatal("malformed coverage attribute must be an internal error")
	}
	if !strings.HasPrefix(err.Error(), "src.go:20:1: internal compiler error: ") {
		t.Errorf("unexpected error %q", err)
	}
}

func TestReadDefsErrors(t *testing.T) {
	tests := []struct {
		name string
		dump string
		want string
	}{
		{
			name: "no-name",
			dump: "defs:\n  - kind: fn\n",
			want: "definition #0: name is required",
		},
		{
			name: "duplicate",
			dump: "defs:\n  - {name: a, kind: mod}\n  - {name: a, kind: fn}\n",
			want: "definition a: duplicate name",
		},
		{
			name: "no-kind",
			dump: "defs:\n  - name: a\n",
			want: "definition a: kind is required",
		},
		{
			name: "unknown-kind",
			dump: "defs:\n  - {name: a, kind: module}\n",
			want: `unknown definition kind "module"`,
		},
		{
			name: "forward-parent",
			dump: "defs:\n  - {name: a, kind: fn, parent: b}\n  - {name: b, kind: mod}\n",
			want: `definition a: parent: unknown definition "b", it must be declared before`,
		},
		{
			name: "impl-not-impl",
			dump: "defs:\n  - {name: a, kind: mod}\n  - {name: b, kind: assoc-fn, impl: a}\n",
			want: "definition b: impl a is mod",
		},
		{
			name: "unknown-flag",
			dump: "defs:\n  - {name: a, kind: fn, flags: [inline]}\n",
			want: `definition a: unknown codegen flag "inline"`,
		},
		{
			name: "bad-position",
			dump: "defs:\n  - {name: a, kind: fn, pos: nowhere}\n",
			want: `invalid position "nowhere"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadDefs(strings.NewReader(tt.dump))
			if err == nil {
				t.Fatal("error expected")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q must contain %q", err, tt.want)
			}
		})
	}
}

const bodiesDump = `
bodies:
  - instance: pkg.Fn
    scopes:
      - {}
      - parent: 0
      - parent: 0
        inlined:
          callee: pkg.helper
          call_site: fn.go:7:2
      - parent: 2
        inlined_parent_scope: 0
    blocks:
      - statements:
          - counter: 0
            pos: fn.go:3:2
          - other: "t0 = x + 1"
          - counter: 9
            scope: 2
        succs: [1, 2]
      - statements:
          - counter: 3
            scope: 1
          - expression: 11
          - span: true
          - block: 12
        succs: [2]
      - statements:
          - counter: 14
            scope: 3
  - instance: pkg.Empty
    blocks:
      - statements:
          - other: return
`

func TestReadBodies(t *testing.T) {
	bodies, err := ReadBodies(strings.NewReader(bodiesDump))
	if err != nil {
		t.Fatal(err)
	}

	wantOrder := []mir.InstanceID{"pkg.Fn", "pkg.Empty"}
	if got := bodies.Instances(); !reflect.DeepEqual(wantOrder, got) {
		deepequal.SideBySide(t, "instances", wantOrder, got)
	}

	fn, ok := bodies.InstanceMIR("pkg.Fn")
	if !ok {
		t.Fatal("pkg.Fn must be found")
	}
	if len(fn.SourceScopes) != 4 || len(fn.Blocks) != 3 {
		t.Fatalf("unexpected body shape: %d scopes, %d blocks", len(fn.SourceScopes), len(fn.Blocks))
	}

	wantScope := mir.SourceScopeData{
		Parent: scopeRef(0),
		Inlined: &mir.InlinedCallee{
			Callee:   "pkg.helper",
			CallSite: token.Position{Filename: "fn.go", Line: 7, Column: 2},
		},
	}
	if got := *fn.Scope(2); !reflect.DeepEqual(wantScope, got) {
		deepequal.SideBySide(t, "scope", wantScope, got)
	}

	wantStmt := mir.Statement{
		SourceInfo: mir.SourceInfo{Pos: token.Position{Filename: "fn.go", Line: 3, Column: 2}},
		Kind:       &mir.StatementCoverage{Kind: mir.CounterIncrement{ID: 0}},
	}
	if got := fn.Blocks[0].Statements[0]; !reflect.DeepEqual(wantStmt, got) {
		deepequal.SideBySide(t, "statement", wantStmt, got)
	}

	empty, _ := bodies.InstanceMIR("pkg.Empty")
	if len(empty.SourceScopes) != 1 {
		t.Errorf("outermost scope must be implied, got %d scopes", len(empty.SourceScopes))
	}
}

func TestBodiesIntoQueries(t *testing.T) {
	bodies, err := ReadBodies(strings.NewReader(bodiesDump))
	if err != nil {
		t.Fatal(err)
	}

	var p query.Providers
	coverage.Provide(&p)
	tcx := query.NewCtx(p, defs.NewTable(), bodies, diag.NewReporter(nil))

	tests := []struct {
		inst mir.InstanceID
		want mir.CoverageIDsInfo
	}{
		{inst: "pkg.Fn", want: mir.CoverageIDsInfo{MaxCounterID: 3, HasCounters: true}},
		{inst: "pkg.Empty", want: mir.CoverageIDsInfo{}},
	}

	for _, tt := range tests {
		t.Run(string(tt.inst), func(t *testing.T) {
			if got := tcx.CoverageIDsInfo(tt.inst); got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}

	err = diag.CatchICE(func() {
		tcx.CoverageIDsInfo("pkg.Missing")
	})
	if err == nil || !strings.Contains(err.Error(), "no lowered body for pkg.Missing") {
		t.Errorf("missing body must be an internal error, got %v", err)
	}
}

func TestReadBodiesInlinedDescendants(t *testing.T) {
	const dump = `
bodies:
  - instance: pkg.F
    scopes:
      - {}
      - parent: 0
        inlined:
          callee: pkg.g
      - parent: 1
      - parent: 2
    blocks:
      - statements:
          - counter: 5
          - counter: 9
            scope: 2
          - counter: 12
            scope: 3
`
	bodies, err := ReadBodies(strings.NewReader(dump))
	if err != nil {
		t.Fatal(err)
	}

	body, _ := bodies.InstanceMIR("pkg.F")
	for _, id := range []mir.ScopeID{2, 3} {
		want := scopeRef(0)
		if got := body.Scope(id).InlinedParentScope; !reflect.DeepEqual(want, got) {
			deepequal.SideBySide(t, "inlined parent scope", want, got)
		}
	}

	var p query.Providers
	coverage.Provide(&p)
	tcx := query.NewCtx(p, defs.NewTable(), bodies, nil)

	want := mir.CoverageIDsInfo{MaxCounterID: 5, HasCounters: true}
	if got := tcx.CoverageIDsInfo("pkg.F"); got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestReadBodiesErrors(t *testing.T) {
	tests := []struct {
		name string
		dump string
		want string
	}{
		{
			name: "no-instance",
			dump: "bodies:\n  - blocks: []\n",
			want: "body #0: instance is required",
		},
		{
			name: "duplicate",
			dump: "bodies:\n  - instance: a\n  - instance: a\n",
			want: "body a: duplicate instance",
		},
		{
			name: "scope-parent",
			dump: "bodies:\n  - instance: a\n    scopes: [{}, {parent: 5}]\n",
			want: "body a: scope #1: parent: scope 5 is out of 2 scopes",
		},
		{
			name: "scope-forward-parent",
			dump: "bodies:\n  - instance: a\n    scopes: [{}, {parent: 2}, {parent: 0}]\n",
			want: "body a: scope #1: parent 2 must be declared before",
		},
		{
			name: "inlined-root",
			dump: "bodies:\n  - instance: a\n    scopes: [{inlined: {callee: g}}]\n",
			want: "body a: scope #0: inlined scope must have a parent",
		},
		{
			name: "statement-scope",
			dump: "bodies:\n  - instance: a\n    blocks:\n      - statements: [{counter: 1, scope: 1}]\n",
			want: "body a: block #0: statement #0: scope 1 is out of 1 scopes",
		},
		{
			name: "no-kind",
			dump: "bodies:\n  - instance: a\n    blocks:\n      - statements: [{scope: 0}]\n",
			want: "statement kind is missing",
		},
		{
			name: "many-kinds",
			dump: "bodies:\n  - instance: a\n    blocks:\n      - statements: [{counter: 1, other: x}]\n",
			want: "statement sets 2 kinds, exactly one is allowed",
		},
		{
			name: "successor",
			dump: "bodies:\n  - instance: a\n    blocks:\n      - succs: [1]\n",
			want: "body a: block #0: successor 1 is out of 1 blocks",
		},
		{
			name: "negative-counter",
			dump: "bodies:\n  - instance: a\n    blocks:\n      - statements: [{counter: -1}]\n",
			want: "decode yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadBodies(strings.NewReader(tt.dump))
			if err == nil {
				t.Fatal("error expected")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q must contain %q", err, tt.want)
			}
		})
	}
}

func TestPositionText(t *testing.T) {
	tests := []struct {
		text string
		want token.Position
	}{
		{text: "a.go:3:7", want: token.Position{Filename: "a.go", Line: 3, Column: 7}},
		{text: "a.go:3", want: token.Position{Filename: "a.go", Line: 3}},
		{text: `C:\src\a.go:3:7`, want: token.Position{Filename: `C:\src\a.go`, Line: 3, Column: 7}},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			var p Position
			if err := p.UnmarshalText([]byte(tt.text)); err != nil {
				t.Fatal(err)
			}
			if p.Position() != tt.want {
				t.Errorf("got %v, want %v", p.Position(), tt.want)
			}

			text, err := p.MarshalText()
			if err != nil {
				t.Fatal(err)
			}
			if string(text) != tt.text {
				t.Errorf("marshal: got %q, want %q", text, tt.text)
			}
		})
	}
}

func scopeRef(id mir.ScopeID) *mir.ScopeID { return &id }
