// Command covq runs coverage queries over YAML dumps of definition tables and
// lowered bodies.
//
//	covq eligible defs.yaml              # every definition of the dump
//	covq eligible defs.yaml Fn T.String  # selected definitions
//	covq ids bodies.yaml
//	covq --summary ids bodies.yaml      # also list collected diagnostics on stderr
package main

import (
	"fmt"
	"go/token"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/sirkon/covgate/internal/coverage"
	"github.com/sirkon/covgate/internal/defs"
	"github.com/sirkon/covgate/internal/diag"
	"github.com/sirkon/covgate/internal/dump"
	"github.com/sirkon/covgate/internal/logging"
	"github.com/sirkon/covgate/internal/mir"
	"github.com/sirkon/covgate/internal/query"
)

// CLI defines the command-line interface of covq.
type CLI struct {
	LogLevel  logging.Level  `name:"log-level" default:"warn" help:"Log level: debug, info, warn, error."`
	LogFormat logging.Format `name:"log-format" default:"text" help:"Log format: text, json."`
	Summary   bool           `name:"summary" help:"Print collected diagnostics to stderr when done."`

	Eligible EligibleCmd `cmd:"" help:"Tell which definitions are eligible for coverage instrumentation."`
	IDs      IDsCmd      `cmd:"" name:"ids" help:"Summarize counter IDs used by lowered bodies."`
}

// app is shared by all commands.
type app struct {
	out       io.Writer
	log       *slog.Logger
	summary   io.Writer
	providers query.Providers
}

func newApp(out, errOut io.Writer, cli *CLI) *app {
	a := &app{
		out: out,
		log: logging.New(errOut, cli.LogLevel, cli.LogFormat),
	}
	if cli.Summary {
		a.summary = errOut
	}
	coverage.Provide(&a.providers)

	return a
}

func (a *app) printSummary(r *diag.Reporter) {
	if a.summary == nil {
		return
	}

	r.PrintSummary(a.summary)
}

// EligibleCmd runs the eligibility gate over a definitions dump.
type EligibleCmd struct {
	Defs  string   `arg:"" help:"Definitions dump." type:"existingfile"`
	Names []string `arg:"" optional:"" help:"Definition paths or names, all definitions when omitted."`
}

func (c *EligibleCmd) Run(a *app) error {
	table, err := dump.LoadDefs(c.Defs)
	if err != nil {
		return fmt.Errorf("load definitions: %w", err)
	}

	ids := table.IDs()
	if len(c.Names) > 0 {
		ids = ids[:0]
		for _, name := range c.Names {
			id, ok := table.Lookup(name)
			if !ok {
				return fmt.Errorf("definition %q not found in %s", name, c.Defs)
			}
			ids = append(ids, id)
		}
	}

	reporter := diag.NewReporter(a.log)
	defer a.printSummary(reporter)
	tcx := query.NewCtx(a.providers, table, nil, reporter)

	eligible := make(map[defs.DefID]bool, len(ids))
	err = diag.CatchICE(func() {
		for _, id := range ids {
			eligible[id] = tcx.IsEligibleForCoverage(id)
		}
	})
	if err != nil {
		return fmt.Errorf("check eligibility: %w", err)
	}

	skipped := reporter.Skipped()
	for _, id := range ids {
		if eligible[id] {
			fmt.Fprintf(a.out, "%s\teligible\n", table.DefPath(id))
			continue
		}

		fmt.Fprintf(a.out, "%s\tskipped\t%s\n", table.DefPath(id), skipped[id])
	}

	return nil
}

// IDsCmd runs the counter usage analysis over a bodies dump.
type IDsCmd struct {
	Bodies    string   `arg:"" help:"Bodies dump." type:"existingfile"`
	Instances []string `arg:"" optional:"" help:"Instances to analyze, all instances when omitted."`
}

func (c *IDsCmd) Run(a *app) error {
	bodies, err := dump.LoadBodies(c.Bodies)
	if err != nil {
		return fmt.Errorf("load bodies: %w", err)
	}

	instances := bodies.Instances()
	if len(c.Instances) > 0 {
		instances = make([]mir.InstanceID, 0, len(c.Instances))
		for _, inst := range c.Instances {
			if _, ok := bodies.InstanceMIR(mir.InstanceID(inst)); !ok {
				return fmt.Errorf("instance %q not found in %s", inst, c.Bodies)
			}
			instances = append(instances, mir.InstanceID(inst))
		}
	}

	reporter := diag.NewReporter(a.log)
	defer a.printSummary(reporter)
	tcx := query.NewCtx(a.providers, defs.NewTable(), bodies, reporter)
	counters := reporter.Phase(diag.ReportCounters)

	infos := make([]mir.CoverageIDsInfo, len(instances))
	err = diag.CatchICE(func() {
		for i, inst := range instances {
			infos[i] = tcx.CoverageIDsInfo(inst)
			counters.Report(string(inst), infos[i].String(), token.Position{})
		}
	})
	if err != nil {
		return fmt.Errorf("analyze counters: %w", err)
	}

	for i, inst := range instances {
		info := infos[i]
		fmt.Fprintf(a.out, "%s\tmax_counter_id=%d\tnum_counters=%d\n", inst, info.MaxCounterID, info.NumCounters())
	}

	return nil
}

func run(args []string, stdout, stderr io.Writer) error {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("covq"),
		kong.Description("Coverage eligibility and counter queries over YAML dumps."),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
	)
	if err != nil {
		return fmt.Errorf("setup command line parser: %w", err)
	}

	ctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	return ctx.Run(newApp(stdout, stderr, &cli))
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "covq:", err)
		os.Exit(1)
	}
}
