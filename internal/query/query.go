package query

import (
	"fmt"
	"go/token"
	"sync"

	"github.com/sirkon/covgate/internal/defs"
	"github.com/sirkon/covgate/internal/diag"
	"github.com/sirkon/covgate/internal/mir"
)

// DefGraph provides definition data of the compilation unit.
type DefGraph interface {
	DefKind(id defs.DefID) defs.DefKind
	OptParent(id defs.DefID) (defs.DefID, bool)
	ImplOfMethod(id defs.DefID) (defs.DefID, bool)
	IsAutomaticallyDerived(id defs.DefID) bool
	CodegenFlags(id defs.DefID) defs.CodegenFlags
	Attrs(id defs.DefID, name string) []defs.Attr
	DefSpan(id defs.DefID) token.Position
	DefPath(id defs.DefID) string
}

// BodySource provides lowered bodies of compiled instances.
type BodySource interface {
	InstanceMIR(inst mir.InstanceID) (*mir.Body, bool)
}

var _ DefGraph = (*defs.Table)(nil)

// Providers is the table of on-demand computations. It is filled once at startup
// and never changes afterwards.
type Providers struct {
	Hooks   Hooks
	Queries Queries
}

// Hooks are computations invoked by name but never cached.
type Hooks struct {
	IsEligibleForCoverage func(tcx *Ctx, def defs.DefID) bool
}

// Queries are cached computations.
type Queries struct {
	CoverageAttrOn  func(tcx *Ctx, def defs.DefID) bool
	CoverageIDsInfo func(tcx *Ctx, inst mir.InstanceID) mir.CoverageIDsInfo
}

// Ctx dispatches computations of a single compilation unit and memoizes query results.
type Ctx struct {
	Defs   DefGraph
	Bodies BodySource
	Diag   diag.Sink

	providers Providers

	mu      sync.Mutex
	attrOn  map[defs.DefID]bool
	idsInfo map[mir.InstanceID]mir.CoverageIDsInfo
}

// NewCtx is [Ctx] constructor.
func NewCtx(p Providers, g DefGraph, bodies BodySource, sink diag.Sink) *Ctx {
	return &Ctx{
		Defs:      g,
		Bodies:    bodies,
		Diag:      sink,
		providers: p,
		attrOn:    map[defs.DefID]bool{},
		idsInfo:   map[mir.InstanceID]mir.CoverageIDsInfo{},
	}
}

// IsEligibleForCoverage runs the hook of the same name.
func (tcx *Ctx) IsEligibleForCoverage(def defs.DefID) bool {
	if tcx.providers.Hooks.IsEligibleForCoverage == nil {
		panic(tcx.Bug(token.Position{}, "hook is_eligible_for_coverage is not provided"))
	}

	return tcx.providers.Hooks.IsEligibleForCoverage(tcx, def)
}

// CoverageAttrOn runs the query of the same name.
func (tcx *Ctx) CoverageAttrOn(def defs.DefID) bool {
	if tcx.providers.Queries.CoverageAttrOn == nil {
		panic(tcx.Bug(token.Position{}, "query coverage_attr_on is not provided"))
	}

	return cached(tcx, tcx.attrOn, def, tcx.providers.Queries.CoverageAttrOn)
}

// CoverageIDsInfo runs the query of the same name.
func (tcx *Ctx) CoverageIDsInfo(inst mir.InstanceID) mir.CoverageIDsInfo {
	if tcx.providers.Queries.CoverageIDsInfo == nil {
		panic(tcx.Bug(token.Position{}, "query coverage_ids_info is not provided"))
	}

	return cached(tcx, tcx.idsInfo, inst, tcx.providers.Queries.CoverageIDsInfo)
}

// InstanceMIR fetches the lowered body of the instance.
func (tcx *Ctx) InstanceMIR(inst mir.InstanceID) *mir.Body {
	body, ok := tcx.Bodies.InstanceMIR(inst)
	if !ok {
		panic(tcx.Bug(token.Position{}, fmt.Sprintf("no lowered body for %s", inst)))
	}

	return body
}

// Bug reports an internal consistency failure and returns it for the caller to panic with:
//
//	panic(tcx.Bug(pos, "unexpected value of coverage attribute"))
func (tcx *Ctx) Bug(pos token.Position, msg string) *diag.ICE {
	ice := &diag.ICE{Pos: pos, Msg: msg}
	if tcx.Diag != nil {
		tcx.Diag.Bug(ice)
	}

	return ice
}

// cached computes the value outside the lock: queries are pure, so a racing
// duplicate computation yields the same value.
func cached[K comparable, V any](tcx *Ctx, cache map[K]V, key K, compute func(*Ctx, K) V) V {
	tcx.mu.Lock()
	v, ok := cache[key]
	tcx.mu.Unlock()
	if ok {
		return v
	}

	v = compute(tcx, key)

	tcx.mu.Lock()
	cache[key] = v
	tcx.mu.Unlock()

	return v
}
