package gosrc

import (
	"go/ast"
	"go/parser"
	"go/token"
	"reflect"
	"slices"
	"testing"

	"github.com/sirkon/deepequal"
	"golang.org/x/tools/go/ast/inspector"

	"github.com/sirkon/covgate/internal/defs"
)

const sourceMain = `//coverage:off

// Package sample is a test subject.
package sample

//coverage:on
func Plain() {
	f := func() {
		//coverage:off
		g := func() {}
		g()
	}
	f()
}

//go:nosplit
func Asm(x int) int

const (
	//coverage:off
	A = 1
	B = 2
)

var handler = func() {}

type T struct{}

func (t *T) Method() {
	const local = 3
}

//coverage:maybe
func Malformed() {}

//coverage:on
//coverage:off
func Repeated() {}
`

const sourceGenerated = `// Code generated by stringer. DO NOT EDIT.

package sample

func (t T) String() string { return "T" }

func Helper() {}
`

type defView struct {
	Kind   defs.DefKind
	Path   string
	Attrs  []string
	Flags  defs.CodegenFlags
	Impl   string
	Parent string
}

func viewOf(t *defs.Table, id defs.DefID) defView {
	d := t.Def(id)
	v := defView{
		Kind:  d.Kind,
		Path:  t.DefPath(id),
		Flags: d.Flags,
	}
	for _, a := range d.Attrs {
		v.Attrs = append(v.Attrs, a.String())
	}
	if d.Impl.IsValid() {
		v.Impl = t.DefPath(d.Impl)
	}
	if d.Parent.IsValid() {
		v.Parent = t.DefPath(d.Parent)
	}

	return v
}

func buildSample(t *testing.T) (*Unit, []*ast.File, []string) {
	t.Helper()

	fset := token.NewFileSet()
	var files []*ast.File
	for _, src := range []struct{ name, text string }{
		{"main.go", sourceMain},
		{"zz_generated.go", sourceGenerated},
	} {
		f, err := parser.ParseFile(fset, src.name, src.text, parser.ParseComments)
		if err != nil {
			t.Fatalf("parse %s: %s", src.name, err)
		}
		files = append(files, f)
	}

	var reports []string
	unit := Build(fset, "example.com/sample", inspector.New(files), func(pos token.Pos, msg string) {
		reports = append(reports, fset.Position(pos).String()+": "+msg)
	})

	return unit, files, reports
}

func TestBuild(t *testing.T) {
	unit, _, reports := buildSample(t)

	var got []defView
	for _, id := range unit.Table.IDs() {
		got = append(got, viewOf(unit.Table, id))
	}

	const (
		root = "example.com/sample"
		main = root + "::main.go"
		gen  = root + "::zz_generated.go"
	)
	want := []defView{
		{Kind: defs.DefKindMod, Path: root},
		{Kind: defs.DefKindMod, Path: main, Attrs: []string{"coverage(off)"}, Parent: root},
		{Kind: defs.DefKindFn, Path: main + "::Plain", Attrs: []string{"coverage(on)"}, Parent: main},
		{Kind: defs.DefKindClosure, Path: main + "::Plain::{closure#0}", Parent: main + "::Plain"},
		{
			Kind:   defs.DefKindClosure,
			Path:   main + "::Plain::{closure#0}::{closure#0}",
			Attrs:  []string{"coverage(off)"},
			Parent: main + "::Plain::{closure#0}",
		},
		{Kind: defs.DefKindFn, Path: main + "::Asm", Flags: defs.CodegenNaked | defs.CodegenNoSplit, Parent: main},
		{Kind: defs.DefKindConst, Path: main + "::A", Attrs: []string{"coverage(off)"}, Parent: main},
		{Kind: defs.DefKindConst, Path: main + "::B", Parent: main},
		{Kind: defs.DefKindStatic, Path: main + "::handler", Parent: main},
		{Kind: defs.DefKindClosure, Path: main + "::handler::{closure#0}", Parent: main + "::handler"},
		{Kind: defs.DefKindType, Path: main + "::T", Parent: main},
		{Kind: defs.DefKindImpl, Path: main + "::impl T", Parent: main},
		{Kind: defs.DefKindAssocFn, Path: main + "::impl T::T.Method", Impl: main + "::impl T", Parent: main + "::impl T"},
		{Kind: defs.DefKindConst, Path: main + "::impl T::T.Method::local", Parent: main + "::impl T::T.Method"},
		{Kind: defs.DefKindFn, Path: main + "::Malformed", Parent: main},
		{Kind: defs.DefKindFn, Path: main + "::Repeated", Attrs: []string{"coverage(on)"}, Parent: main},
		{Kind: defs.DefKindMod, Path: gen, Parent: root},
		{Kind: defs.DefKindImpl, Path: gen + "::impl T", Attrs: []string{"automatically_derived"}, Parent: gen},
		{Kind: defs.DefKindAssocFn, Path: gen + "::impl T::T.String", Impl: gen + "::impl T", Parent: gen + "::impl T"},
		{Kind: defs.DefKindFn, Path: gen + "::Helper", Parent: gen},
	}

	if !reflect.DeepEqual(want, got) {
		deepequal.SideBySide(t, "definitions", want, got)
	}

	wantReports := []string{
		`main.go:33:1: malformed coverage directive "//coverage:maybe": want //coverage:on or //coverage:off`,
		`main.go:37:1: repeated coverage directive "//coverage:off", the first one //coverage:on is in effect`,
	}
	if !slices.Equal(wantReports, reports) {
		deepequal.SideBySide(t, "reports", wantReports, reports)
	}
}

func TestBuildDefOf(t *testing.T) {
	unit, files, _ := buildSample(t)

	var names []string
	ast.Inspect(files[0], func(n ast.Node) bool {
		switch n.(type) {
		case *ast.FuncDecl, *ast.FuncLit:
			id, ok := unit.DefOf(n)
			if !ok {
				t.Errorf("no definition for %T at %d", n, n.Pos())
				return true
			}
			if back, _ := unit.NodeOf(id); back != n {
				t.Errorf("%s maps back to another node", unit.Table.DefPath(id))
			}
			names = append(names, unit.Table.Def(id).Name)
		}
		return true
	})

	want := []string{
		"Plain", "{closure#0}", "{closure#0}", "Asm", "{closure#0}", "T.Method", "Malformed", "Repeated",
	}
	if !slices.Equal(want, names) {
		t.Errorf("got %v, want %v", names, want)
	}
}
