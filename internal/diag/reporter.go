package diag

import (
	"fmt"
	"go/token"
	"io"
	"log/slog"
	"sync"

	"github.com/sirkon/covgate/internal/covrules"
	"github.com/sirkon/covgate/internal/defs"
)

// Sink accepts diagnostics produced by coverage queries.
type Sink interface {
	// Skip traces a definition disqualified from coverage instrumentation.
	Skip(def defs.DefID, subject string, reason covrules.Reason, pos token.Position)

	// Bug records an internal consistency failure. The caller aborts right after.
	Bug(ice *ICE)
}

var _ Sink = (*Reporter)(nil)

// Reporter collects diagnostics and mirrors them into a structured log.
type Reporter struct {
	mu      sync.Mutex
	reports []Report
	log     *slog.Logger
}

// NewReporter is [Reporter] constructor. Nil logger means no logging, as with the zero Reporter.
func NewReporter(log *slog.Logger) *Reporter {
	return &Reporter{log: log}
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func (r *Reporter) logger() *slog.Logger {
	if r.log == nil {
		return discard
	}

	return r.log
}

// Report represents a single diagnostic entry.
type Report struct {
	Phase   ReportPhase
	Reason  covrules.Reason
	Def     defs.DefID
	Subject string
	Pos     token.Position
	Message string
}

// ReportPhase marks the stage where a report was generated.
type ReportPhase int

const (
	reportPhaseInvalid ReportPhase = iota
	ReportGate                     // eligibility gate
	ReportCounters                 // counter usage analysis
	ReportBug                      // internal consistency failures
)

func (p ReportPhase) String() string {
	switch p {
	case ReportGate:
		return "gate"
	case ReportCounters:
		return "counters"
	case ReportBug:
		return "bug"
	default:
		return fmt.Sprintf("unknown-phase(%d)", p)
	}
}

// ReporterPhase binds a Reporter to a fixed phase.
type ReporterPhase struct {
	parent *Reporter
	phase  ReportPhase
}

// Phase returns a pointer to a phase-bound reporter that automatically
// sets the given phase for all reports produced through it.
func (r *Reporter) Phase(p ReportPhase) *ReporterPhase {
	return &ReporterPhase{parent: r, phase: p}
}

// Report adds a new record to the reporter.
func (r *Reporter) Report(rep Report) {
	r.mu.Lock()
	r.reports = append(r.reports, rep)
	r.mu.Unlock()
}

// Report records a message under the bound phase.
func (rp *ReporterPhase) Report(subject, message string, pos token.Position) {
	rp.parent.Report(Report{
		Phase:   rp.phase,
		Subject: subject,
		Message: message,
		Pos:     pos,
	})
	rp.parent.logger().Debug(rp.phase.String()+" report", "subject", subject, "message", message, "pos", pos.String())
}

// Skip implements [Sink].
func (r *Reporter) Skip(def defs.DefID, subject string, reason covrules.Reason, pos token.Position) {
	r.Report(Report{
		Phase:   ReportGate,
		Reason:  reason,
		Def:     def,
		Subject: subject,
		Pos:     pos,
		Message: reason.Description(),
	})
	r.logger().Debug("InstrumentCoverage skipped", "def", subject, "reason", reason.String(), "pos", pos.String())
}

// Bug implements [Sink].
func (r *Reporter) Bug(ice *ICE) {
	r.Report(Report{
		Phase:   ReportBug,
		Pos:     ice.Pos,
		Message: ice.Msg,
	})
	r.logger().Error("internal compiler error", "msg", ice.Msg, "pos", ice.Pos.String())
}

// Reports returns a snapshot of all collected records.
func (r *Reporter) Reports() []Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Report, len(r.reports))
	copy(out, r.reports)
	return out
}

// Skipped returns skip reasons by definition.
func (r *Reporter) Skipped() map[defs.DefID]covrules.Reason {
	res := map[defs.DefID]covrules.Reason{}
	for _, rep := range r.Reports() {
		if rep.Phase == ReportGate {
			res[rep.Def] = rep.Reason
		}
	}

	return res
}

// PrintSummary prints all collected reports in a compact, human-readable form.
func (r *Reporter) PrintSummary(w io.Writer) {
	for _, rep := range r.Reports() {
		switch rep.Phase {
		case ReportGate:
			fmt.Fprintf(w, "[%s] %s: %s", rep.Phase, rep.Subject, rep.Reason)
		case ReportCounters:
			fmt.Fprintf(w, "[%s] %s: %s", rep.Phase, rep.Subject, rep.Message)
		default:
			fmt.Fprintf(w, "[%s] %s", rep.Phase, rep.Message)
		}
		if rep.Pos.IsValid() {
			fmt.Fprintf(w, " (%s:%d)", rep.Pos.Filename, rep.Pos.Line)
		}
		fmt.Fprintln(w)
	}
}
