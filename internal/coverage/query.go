package coverage

import (
	"fmt"
	"iter"

	"github.com/sirkon/covgate/internal/covrules"
	"github.com/sirkon/covgate/internal/defs"
	"github.com/sirkon/covgate/internal/mir"
	"github.com/sirkon/covgate/internal/query"
)

// MaxNestingDepth bounds the lexical enclosure walk. Deeper chains mean the
// enclosure relation has a cycle.
const MaxNestingDepth = 4096

// Provide registers hook and query implementations related to coverage.
func Provide(p *query.Providers) {
	p.Hooks.IsEligibleForCoverage = IsEligibleForCoverage
	p.Queries.CoverageAttrOn = CoverageAttrOn
	p.Queries.CoverageIDsInfo = CoverageIDsInfo
}

// IsEligibleForCoverage is the hook implementation for [query.Ctx.IsEligibleForCoverage].
func IsEligibleForCoverage(tcx *query.Ctx, def defs.DefID) bool {
	g := tcx.Defs

	// Only functions, methods and closures. Constants are evaluated at compile time,
	// there is nothing to count.
	if !g.DefKind(def).IsFnLike() {
		skip(tcx, def, covrules.NotFnLike())
		return false
	}

	// Methods of generated implementation blocks are noise for most users.
	if impl, ok := g.ImplOfMethod(def); ok && g.IsAutomaticallyDerived(impl) {
		skip(tcx, def, covrules.AutomaticallyDerived())
		return false
	}

	if g.CodegenFlags(def).Contains(defs.CodegenNaked) {
		skip(tcx, def, covrules.Naked())
		return false
	}

	if !tcx.CoverageAttrOn(def) {
		skip(tcx, def, covrules.CoverageOff())
		return false
	}

	return true
}

func skip(tcx *query.Ctx, def defs.DefID, reason covrules.Reason) {
	if tcx.Diag == nil {
		return
	}

	tcx.Diag.Skip(def, tcx.Defs.DefPath(def), reason, tcx.Defs.DefSpan(def))
}

// CoverageAttrOn is the query implementation for [query.Ctx.CoverageAttrOn].
//
// A definition without a coverage directive resolves as its lexical parent, through
// the query, so every ancestor on the way gets memoized too.
func CoverageAttrOn(tcx *query.Ctx, def defs.DefID) bool {
	// A directive on the definition itself wins.
	if on, ok := directCoverageAttr(tcx, def); ok {
		return on
	}

	parent, ok := tcx.Defs.OptParent(def)
	if !ok {
		// Reached the root without seeing a directive.
		return true
	}

	checkNestingDepth(tcx, def)
	return tcx.CoverageAttrOn(parent)
}

// checkNestingDepth walks the enclosure chain of def up to MaxNestingDepth levels.
func checkNestingDepth(tcx *query.Ctx, def defs.DefID) {
	cur := def
	for range MaxNestingDepth + 1 {
		parent, ok := tcx.Defs.OptParent(cur)
		if !ok {
			return
		}
		cur = parent
	}

	panic(tcx.Bug(
		tcx.Defs.DefSpan(def),
		fmt.Sprintf("lexical nesting of %s exceeds %d levels", tcx.Defs.DefPath(def), MaxNestingDepth),
	))
}

func directCoverageAttr(tcx *query.Ctx, def defs.DefID) (on bool, found bool) {
	attrs := tcx.Defs.Attrs(def, defs.AttrCoverage)
	switch len(attrs) {
	case 0:
		return false, false
	case 1:
	default:
		panic(tcx.Bug(attrs[1].Pos, "multiple coverage attributes"))
	}

	attr := attrs[0]
	if len(attr.Args) == 1 {
		switch attr.Args[0] {
		case "off":
			return false, true
		case "on":
			return true, true
		}
	}

	// Anything else must have been rejected when directives were parsed.
	panic(tcx.Bug(attr.Pos, "unexpected value of coverage attribute "+attr.String()))
}

// CoverageIDsInfo is the query implementation for [query.Ctx.CoverageIDsInfo].
func CoverageIDsInfo(tcx *query.Ctx, inst mir.InstanceID) mir.CoverageIDsInfo {
	body := tcx.InstanceMIR(inst)

	info := mir.CoverageIDsInfo{MaxCounterID: mir.CounterZero}
	for kind := range AllCoverageInBody(body) {
		inc, ok := kind.(mir.CounterIncrement)
		if !ok {
			continue
		}

		if !info.HasCounters || inc.ID > info.MaxCounterID {
			info.MaxCounterID = inc.ID
		}
		info.HasCounters = true
	}

	return info
}

// AllCoverageInBody yields coverage markers of the body's own statements in
// block order, skipping markers copied in from inlined callees.
func AllCoverageInBody(body *mir.Body) iter.Seq[mir.CoverageKind] {
	return func(yield func(mir.CoverageKind) bool) {
		for _, bb := range body.Blocks {
			for i := range bb.Statements {
				stmt := &bb.Statements[i]
				cov, ok := stmt.Kind.(*mir.StatementCoverage)
				if !ok || IsInlined(body, stmt) {
					continue
				}

				if !yield(cov.Kind) {
					return
				}
			}
		}
	}
}

// IsInlined checks if the statement was copied in from another body.
func IsInlined(body *mir.Body, stmt *mir.Statement) bool {
	scope := body.Scope(stmt.SourceInfo.Scope)
	return scope.Inlined != nil || scope.InlinedParentScope != nil
}
