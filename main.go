package main

import (
	"fmt"
	"go/token"
	"io"
	"os"
	"reflect"
	"sync"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/buildssa"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/analysis/singlechecker"
	"golang.org/x/tools/go/ast/inspector"
	"golang.org/x/tools/go/ssa"

	"github.com/sirkon/covgate/internal/config"
	"github.com/sirkon/covgate/internal/coverage"
	"github.com/sirkon/covgate/internal/defs"
	"github.com/sirkon/covgate/internal/diag"
	"github.com/sirkon/covgate/internal/gosrc"
	"github.com/sirkon/covgate/internal/logging"
	"github.com/sirkon/covgate/internal/query"
	"github.com/sirkon/covgate/internal/ssabody"
)

const doc = `covgate decides which functions are eligible for coverage instrumentation

Functions, methods and closures are eligible unless they are methods declared in
generated files, have no Go body, or have coverage switched off by a directive:

	//coverage:off
	func noisy() { ... }

A directive applies to the definition right below it and everything nested in it,
a directive above the package clause applies to the whole file. The innermost
directive wins. For eligible functions covgate also counts physical counters used
by the function's own coverage markers, markers copied in under //line directives
naming another file are not counted.`

// Analyzer is the main entry point for the linter
var Analyzer = &analysis.Analyzer{
	Name:       "covgate",
	Doc:        doc,
	Requires:   []*analysis.Analyzer{inspect.Analyzer, buildssa.Analyzer},
	Run:        run,
	ResultType: reflect.TypeOf((*Result)(nil)),
}

var (
	flagConfig         string
	flagCounterFunc    config.Reference
	flagExpressionFunc config.Reference
	flagReportSkipped  bool
	flagReportCounters bool
)

func init() {
	Analyzer.Flags.StringVar(&flagConfig, "config", "", "path to YAML configuration file")
	Analyzer.Flags.TextVar(&flagCounterFunc, "counter-func", config.Reference{}, `additional counter marker function, like "example.com/cover".Hit`)
	Analyzer.Flags.TextVar(&flagExpressionFunc, "expression-func", config.Reference{}, `additional expression marker function, like "example.com/cover".Expr`)
	Analyzer.Flags.BoolVar(&flagReportSkipped, "report-skipped", false, "report functions skipped from instrumentation")
	Analyzer.Flags.BoolVar(&flagReportCounters, "report-counters", false, "report counters used by eligible functions")
}

var providers = sync.OnceValue(func() query.Providers {
	var p query.Providers
	coverage.Provide(&p)
	return p
})

// settings merges the configuration file with flags. Flags win.
func settings() (*config.Config, error) {
	cfg := config.Default()
	if flagConfig != "" {
		var err error
		if cfg, err = config.Load(flagConfig); err != nil {
			return nil, err
		}
	}

	if !flagCounterFunc.IsZero() {
		cfg.Markers = append(cfg.Markers, config.MarkerSpec{Func: flagCounterFunc, Kind: config.MarkerKindCounter})
	}
	if !flagExpressionFunc.IsZero() {
		cfg.Markers = append(cfg.Markers, config.MarkerSpec{Func: flagExpressionFunc, Kind: config.MarkerKindExpression})
	}
	cfg.Report.Skipped = cfg.Report.Skipped || flagReportSkipped
	cfg.Report.Counters = cfg.Report.Counters || flagReportCounters

	return cfg, nil
}

var logOutput io.Writer = os.Stderr

func run(pass *analysis.Pass) (any, error) {
	cfg, err := settings()
	if err != nil {
		return nil, fmt.Errorf("setup: %w", err)
	}
	log := logging.New(logOutput, cfg.Log.Level, cfg.Log.Format).With("package", pass.Pkg.Path())

	pector := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)
	ssaResult := pass.ResultOf[buildssa.Analyzer].(*buildssa.SSA)

	markers := cfg.KnownMarkers()
	checkMarkerCalls(pass, pector, markers)

	unit := gosrc.Build(pass.Fset, pass.Pkg.Path(), pector, func(pos token.Pos, msg string) {
		pass.Reportf(pos, "%s", msg)
	})

	ssaFuncs := make(map[defs.DefID]*ssa.Function, len(ssaResult.SrcFuncs))
	for _, fn := range ssaResult.SrcFuncs {
		if def, ok := unit.DefOf(fn.Syntax()); ok {
			ssaFuncs[def] = fn
		}
	}

	bodies := ssabody.NewSource(pass.Fset, markers)
	reporter := diag.NewReporter(log)
	tcx := query.NewCtx(providers(), unit.Table, bodies, reporter)
	counters := reporter.Phase(diag.ReportCounters)

	res := &Result{
		Funcs: map[string]*FuncInfo{},
	}
	err = diag.CatchICE(func() {
		for _, def := range unit.Table.IDs() {
			node, ok := unit.NodeOf(def)
			if !ok {
				continue
			}

			info := &FuncInfo{
				Def:      def,
				Eligible: tcx.IsEligibleForCoverage(def),
			}
			res.Funcs[unit.Table.DefPath(def)] = info
			res.order = append(res.order, info)

			if !info.Eligible {
				continue
			}

			fn, ok := ssaFuncs[def]
			if !ok || fn.Blocks == nil {
				continue
			}
			info.Instance = bodies.Add(fn)
			info.Counters = tcx.CoverageIDsInfo(info.Instance)
			counters.Report(unit.Table.DefPath(def), info.Counters.String(), pass.Fset.Position(node.Pos()))

			if cfg.Report.Counters && info.Counters.HasCounters {
				pass.Reportf(
					node.Pos(),
					"%s uses %d coverage counters",
					unit.Table.DefPath(def),
					info.Counters.NumCounters(),
				)
			}
		}
	})
	if err != nil {
		return nil, err
	}

	skipped := reporter.Skipped()
	for _, info := range res.order {
		reason, ok := skipped[info.Def]
		if !ok {
			continue
		}
		info.Reason = reason

		if cfg.Report.Skipped {
			node, _ := unit.NodeOf(info.Def)
			pass.Reportf(node.Pos(), "%s is not instrumented: %s", unit.Table.DefPath(info.Def), reason)
		}
	}

	return res, nil
}

func main() {
	singlechecker.Main(Analyzer)
}
