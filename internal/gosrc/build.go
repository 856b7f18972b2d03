package gosrc

import (
	"fmt"
	"go/ast"
	"go/token"
	"path/filepath"
	"strings"

	"golang.org/x/tools/go/ast/inspector"

	"github.com/sirkon/covgate/internal/defs"
)

// Unit is the definition graph of a single Go package.
type Unit struct {
	Table *defs.Table
	Root  defs.DefID

	funcs map[ast.Node]defs.DefID
	nodes map[defs.DefID]ast.Node
}

// DefOf returns the definition of a *ast.FuncDecl or *ast.FuncLit.
func (u *Unit) DefOf(n ast.Node) (defs.DefID, bool) {
	id, ok := u.funcs[n]
	return id, ok
}

// NodeOf is the reverse of [Unit.DefOf].
func (u *Unit) NodeOf(def defs.DefID) (ast.Node, bool) {
	n, ok := u.nodes[def]
	return n, ok
}

func (u *Unit) addFunc(n ast.Node, def defs.DefID) {
	u.funcs[n] = def
	u.nodes[def] = n
}

// ReportFunc receives diagnostics about malformed directives.
type ReportFunc func(pos token.Pos, msg string)

// Build collects definitions of the package files.
//
// The package is the root. Each file is a child of the root, package-level declarations
// are children of their file, methods are children of their file's implementation block
// for the receiver type, closures and local constants are children of the innermost
// definition enclosing them.
func Build(fset *token.FileSet, pkgPath string, insp *inspector.Inspector, report ReportFunc) *Unit {
	b := &builder{
		fset:   fset,
		report: report,
		unit: &Unit{
			Table: defs.NewTable(),
			funcs: map[ast.Node]defs.DefID{},
			nodes: map[defs.DefID]ast.Node{},
		},
		closures: map[defs.DefID]int{},
	}
	b.unit.Root = b.unit.Table.Add(defs.Def{Kind: defs.DefKindMod, Name: pkgPath})

	nodeFilter := []ast.Node{
		(*ast.File)(nil),
		(*ast.GenDecl)(nil),
		(*ast.FuncDecl)(nil),
		(*ast.FuncLit)(nil),
	}
	insp.WithStack(nodeFilter, func(n ast.Node, push bool, stack []ast.Node) bool {
		if !push {
			return true
		}

		switch node := n.(type) {
		case *ast.File:
			b.enterFile(node)
		case *ast.GenDecl:
			b.genDecl(node, len(stack) == 2)
		case *ast.FuncDecl:
			b.funcDecl(node)
		case *ast.FuncLit:
			b.funcLit(node)
		}

		return true
	})

	return b.unit
}

type builder struct {
	fset   *token.FileSet
	report ReportFunc
	unit   *Unit

	closures map[defs.DefID]int

	// Per file state.
	file       defs.DefID
	generated  bool
	spans      *spanIndex
	directives map[int][]directive // by the last line of the comment group
	impls      map[string]defs.DefID
}

func (b *builder) enterFile(f *ast.File) {
	b.generated = ast.IsGenerated(f)
	b.spans = newSpanIndex()
	b.impls = map[string]defs.DefID{}
	b.directives = map[int][]directive{}

	var fileAttrs []defs.Attr
	for _, group := range f.Comments {
		ds := b.parseDirectives(group)
		if len(ds) == 0 {
			continue
		}

		if group.End() < f.Package {
			fileAttrs = append(fileAttrs, b.attrs(ds)...)
			continue
		}
		b.directives[b.line(group.End())] = ds
	}

	b.file = b.unit.Table.Add(defs.Def{
		Kind:   defs.DefKindMod,
		Name:   filepath.Base(b.position(f.Package).Filename),
		Pos:    b.position(f.Package),
		Parent: b.unit.Root,
		Attrs:  fileAttrs,
	})
}

func (b *builder) genDecl(decl *ast.GenDecl, topLevel bool) {
	var kind defs.DefKind
	switch {
	case decl.Tok == token.CONST:
		kind = defs.DefKindConst
	case decl.Tok == token.VAR && topLevel:
		kind = defs.DefKindStatic
	case decl.Tok == token.TYPE && topLevel:
		kind = defs.DefKindType
	default:
		return
	}

	// Directives above a parenthesized declaration apply to specs having none of their own.
	var declAttrs []defs.Attr
	if decl.Lparen.IsValid() {
		declAttrs = b.attrsBefore(decl)
	}

	for _, spec := range decl.Specs {
		attrs := b.attrsBefore(spec)
		if len(attrs) == 0 {
			attrs = declAttrs
		}
		parent := b.parentOf(spec.Pos())

		switch s := spec.(type) {
		case *ast.ValueSpec:
			ids := make([]defs.DefID, len(s.Names))
			for i, name := range s.Names {
				ids[i] = b.unit.Table.Add(defs.Def{
					Kind:   kind,
					Name:   name.Name,
					Pos:    b.position(name.Pos()),
					Parent: parent,
					Attrs:  attrs,
				})
			}

			if len(s.Values) == len(s.Names) {
				for i, v := range s.Values {
					b.spans.Add(ids[i], v.Pos(), v.End())
				}
			} else if len(ids) > 0 {
				b.spans.Add(ids[0], s.Pos(), s.End())
			}

		case *ast.TypeSpec:
			b.unit.Table.Add(defs.Def{
				Kind:   kind,
				Name:   s.Name.Name,
				Pos:    b.position(s.Name.Pos()),
				Parent: parent,
				Attrs:  attrs,
			})
		}
	}
}

func (b *builder) funcDecl(decl *ast.FuncDecl) {
	d := defs.Def{
		Kind:   defs.DefKindFn,
		Name:   decl.Name.Name,
		Pos:    b.position(decl.Name.Pos()),
		Parent: b.file,
		Attrs:  b.attrsBefore(decl),
		Flags:  codegenFlags(decl),
	}

	if decl.Recv != nil && len(decl.Recv.List) > 0 {
		typeName := receiverTypeName(decl.Recv.List[0].Type)
		impl := b.implOf(typeName, decl.Pos())

		d.Kind = defs.DefKindAssocFn
		d.Name = typeName + "." + decl.Name.Name
		d.Parent = impl
		d.Impl = impl
	}

	id := b.unit.Table.Add(d)
	b.unit.addFunc(decl, id)
	b.spans.Add(id, decl.Pos(), decl.End())
}

func (b *builder) funcLit(lit *ast.FuncLit) {
	parent := b.parentOf(lit.Pos())
	n := b.closures[parent]
	b.closures[parent] = n + 1

	id := b.unit.Table.Add(defs.Def{
		Kind:   defs.DefKindClosure,
		Name:   fmt.Sprintf("{closure#%d}", n),
		Pos:    b.position(lit.Pos()),
		Parent: parent,
		Attrs:  b.attrsBefore(lit),
	})
	b.unit.addFunc(lit, id)
	b.spans.Add(id, lit.Pos(), lit.End())
}

// implOf returns the implementation block for methods of typeName declared in the current file.
func (b *builder) implOf(typeName string, pos token.Pos) defs.DefID {
	if id, ok := b.impls[typeName]; ok {
		return id
	}

	d := defs.Def{
		Kind:   defs.DefKindImpl,
		Name:   "impl " + typeName,
		Pos:    b.position(pos),
		Parent: b.file,
	}
	if b.generated {
		d.Attrs = []defs.Attr{{Name: defs.AttrAutomaticallyDerived, Pos: d.Pos}}
	}

	id := b.unit.Table.Add(d)
	b.impls[typeName] = id
	return id
}

func (b *builder) parentOf(pos token.Pos) defs.DefID {
	if id, ok := b.spans.Innermost(pos); ok {
		return id
	}

	return b.file
}

// attrsBefore returns coverage attributes of directives placed right above the node.
func (b *builder) attrsBefore(n ast.Node) []defs.Attr {
	ds, ok := b.directives[b.line(n.Pos())-1]
	if !ok {
		return nil
	}

	return b.attrs(ds)
}

func (b *builder) attrs(ds []directive) []defs.Attr {
	res := make([]defs.Attr, 0, len(ds))
	for _, d := range ds {
		res = append(res, defs.Attr{
			Name: defs.AttrCoverage,
			Args: []string{d.value},
			Pos:  b.position(d.pos),
		})
	}

	return res
}

// line is a line number with //line directives ignored: directives are matched
// against declarations by their physical placement.
func (b *builder) line(pos token.Pos) int {
	return b.fset.PositionFor(pos, false).Line
}

func (b *builder) position(pos token.Pos) token.Position {
	return b.fset.Position(pos)
}

func codegenFlags(decl *ast.FuncDecl) defs.CodegenFlags {
	var flags defs.CodegenFlags
	if decl.Body == nil {
		flags |= defs.CodegenNaked
	}

	if decl.Doc == nil {
		return flags
	}
	for _, c := range decl.Doc.List {
		switch strings.TrimSpace(c.Text) {
		case "//go:noinline":
			flags |= defs.CodegenNoInline
		case "//go:nosplit":
			flags |= defs.CodegenNoSplit
		}
	}

	return flags
}

func receiverTypeName(expr ast.Expr) string {
	switch v := expr.(type) {
	case *ast.StarExpr:
		return receiverTypeName(v.X)
	case *ast.ParenExpr:
		return receiverTypeName(v.X)
	case *ast.IndexExpr:
		return receiverTypeName(v.X)
	case *ast.IndexListExpr:
		return receiverTypeName(v.X)
	case *ast.Ident:
		return v.Name
	default:
		return "_"
	}
}
