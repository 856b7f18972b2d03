package main

import (
	"github.com/sirkon/covgate/internal/covrules"
	"github.com/sirkon/covgate/internal/defs"
	"github.com/sirkon/covgate/internal/mir"
)

// Result of the analyzer for a package, other analyzers can depend on it.
type Result struct {
	// Funcs maps definition paths of functions, methods and closures to their info.
	Funcs map[string]*FuncInfo

	order []*FuncInfo
}

// FuncInfo describes coverage instrumentation of a single function.
type FuncInfo struct {
	Def      defs.DefID
	Eligible bool

	// Reason is set for functions that are not eligible.
	Reason covrules.Reason

	// Instance and Counters are set for eligible functions having a body.
	Instance mir.InstanceID
	Counters mir.CoverageIDsInfo
}

// Ordered returns function infos in declaration order.
func (r *Result) Ordered() []*FuncInfo {
	return r.order
}
