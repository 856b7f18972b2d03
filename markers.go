package main

import (
	"go/ast"
	"go/constant"
	"math"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/ast/inspector"
	"golang.org/x/tools/go/types/typeutil"

	"github.com/sirkon/covgate/internal/config"
)

// knownMarkerChecker detects calls of coverage marker functions.
type knownMarkerChecker struct {
	known map[config.Reference]config.MarkerKind
	pass  *analysis.Pass
}

func newKnownMarkerChecker(pass *analysis.Pass, known map[config.Reference]config.MarkerKind) *knownMarkerChecker {
	return &knownMarkerChecker{
		known: known,
		pass:  pass,
	}
}

// markerKind checks if given call expression calls a marker function.
func (c *knownMarkerChecker) markerKind(call *ast.CallExpr) (config.MarkerKind, bool) {
	fn := typeutil.StaticCallee(c.pass.TypesInfo, call)
	if fn == nil {
		// Markers called through function values are not markers anymore.
		return config.MarkerKindInvalid, false
	}

	kind, ok := c.known[config.ReferenceOf(fn)]
	return kind, ok
}

// checkCall reports marker calls the lowering will not recognize: the ID must be
// a constant fitting into uint32.
func (c *knownMarkerChecker) checkCall(call *ast.CallExpr) {
	kind, ok := c.markerKind(call)
	if !ok {
		return
	}

	if len(call.Args) != 1 {
		c.pass.Reportf(call.Pos(), "%s marker call must have exactly one argument", kind)
		return
	}

	tv, ok := c.pass.TypesInfo.Types[call.Args[0]]
	if !ok || tv.Value == nil {
		c.pass.Reportf(call.Args[0].Pos(), "%s marker id must be a constant, the call is ignored", kind)
		return
	}

	if tv.Value.Kind() != constant.Int {
		c.pass.Reportf(call.Args[0].Pos(), "%s marker id must be an integer, the call is ignored", kind)
		return
	}
	if id, exact := constant.Uint64Val(tv.Value); !exact || id > math.MaxUint32 {
		c.pass.Reportf(call.Args[0].Pos(), "%s marker id %s is out of uint32 range, the call is ignored", kind, tv.Value)
	}
}

func checkMarkerCalls(pass *analysis.Pass, pector *inspector.Inspector, known map[config.Reference]config.MarkerKind) {
	c := newKnownMarkerChecker(pass, known)

	nodeFilter := []ast.Node{
		(*ast.CallExpr)(nil),
	}
	pector.Preorder(nodeFilter, func(node ast.Node) {
		c.checkCall(node.(*ast.CallExpr)) // No need to assert check since we only get call exprs.
	})
}
