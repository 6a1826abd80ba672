package sema

import (
	"context"
	"fmt"

	"veq/internal/diag"
	"veq/internal/source"
	"veq/internal/unit"
	"veq/internal/unit/dag"
)

// perTypeDiagCap bounds the diagnostics one declaration may produce.
const perTypeDiagCap = 32

// Options configure an equality analysis pass over a unit.
type Options struct {
	Reporter diag.Reporter
}

// Result stores the artefacts of one pass: the frozen per-type specs and
// the call-site resolutions.
type Result struct {
	Analysis    *Analysis
	Resolutions []Resolution
}

// Check runs the whole pipeline for one unit: wrap DAG, cycle
// validation, per-type analysis in dependency order, then call-site
// resolution. Diagnostics arrive on opts.Reporter in deterministic
// order: cycles first, then types in declaration order, then call sites
// in manifest order. Cancellation is honored between batches; a
// cancelled pass returns with the remaining specs unresolved.
//
// The driver composes NewAnalysis, AnalyzeType and ResolveCalls itself
// to run batches in parallel; Check is the sequential reference path.
func Check(ctx context.Context, u *unit.Unit, opts Options) Result {
	res := Result{Analysis: NewAnalysis(u)}
	if u == nil {
		return res
	}

	graph := dag.BuildWrapGraph(u)
	topo := dag.ToposortKahn(graph)
	dag.ReportCycles(u, topo, opts.Reporter)

	bags := make([]*diag.Bag, u.DeclCount()+1)
	for _, batch := range topo.Batches {
		if ctx != nil && ctx.Err() != nil {
			return res
		}
		for _, id := range batch {
			bag := diag.NewBag(perTypeDiagCap)
			bags[id] = bag
			res.Analysis.AnalyzeType(id, &diag.BagReporter{Bag: bag})
		}
	}

	// Batches ran in dependency order; replaying per-type bags in
	// declaration order keeps the output stream stable.
	if opts.Reporter != nil {
		for id := 1; id < len(bags); id++ {
			ReplayBag(bags[id], opts.Reporter)
		}
	}

	res.Resolutions = res.Analysis.ResolveCalls(opts.Reporter)
	return res
}

// ReplayBag forwards every diagnostic in the bag to the reporter.
func ReplayBag(bag *diag.Bag, reporter diag.Reporter) {
	if bag == nil || reporter == nil {
		return
	}
	for _, d := range bag.Items() {
		reporter.Report(d.Code, d.Severity, d.Primary, d.Message, d.Notes)
	}
}

// AnalyzeType runs the scanner, synthesizer and contract checker for one
// declaration; the spec ends in a terminal state. Distinct declarations
// may be analyzed concurrently, provided every type this declaration
// wraps is already terminal.
func (a *Analysis) AnalyzeType(id unit.TypeDeclID, reporter diag.Reporter) {
	spec := a.Spec(id)
	decl := a.unit.Decl(id)
	if spec == nil || decl == nil || spec.State != StateUnresolved {
		return
	}

	ta := &typeAnalyzer{
		analysis: a,
		declID:   id,
		decl:     decl,
		spec:     spec,
		reporter: reporter,
	}
	ta.scan()
	ta.synthesize()
	ta.checkContract()
}

// typeAnalyzer carries the scan/synthesize/check passes over one
// declaration. It counts its own errors so the checker can pick the
// terminal state without inspecting the reporter.
type typeAnalyzer struct {
	analysis *Analysis
	declID   unit.TypeDeclID
	decl     *unit.TypeDecl
	spec     *EqualsSpec
	reporter diag.Reporter
	errors   int
}

func (ta *typeAnalyzer) report(code diag.Code, sev diag.Severity, span source.Span, format string, args ...any) {
	if sev == diag.SevError {
		ta.errors++
	}
	if ta.reporter == nil {
		return
	}
	diag.NewReportBuilder(ta.reporter, sev, code, span, fmt.Sprintf(format, args...)).Emit()
}
