package driver

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"veq/internal/diag"
	"veq/internal/observ"
	"veq/internal/sema"
	"veq/internal/unit"
	"veq/internal/unit/dag"
)

// perTypeDiagCap bounds the diagnostics one declaration may produce.
const perTypeDiagCap = 32

// Options configure one analysis run.
type Options struct {
	// Jobs caps parallel per-type analysis inside a batch; 0 = GOMAXPROCS.
	Jobs int
	// MaxDiagnostics caps the merged output bag; 0 = 100.
	MaxDiagnostics int
	// IgnoreWarnings drops SevWarning diagnostics from the result.
	IgnoreWarnings bool
	// WarningsAsErrors promotes SevWarning to SevError.
	WarningsAsErrors bool
	// Progress receives per-type events; may be nil. Events within one
	// batch arrive concurrently.
	Progress ProgressSink
	// Cache replays a previous run with the same unit digest; may be nil.
	Cache *DiskCache
	// Timer collects phase timings; may be nil.
	Timer *observ.Timer
}

// RunResult is everything one analysis run produces.
type RunResult struct {
	Unit *unit.Unit
	// Analysis holds the frozen specs; nil when the run was replayed
	// from the disk cache.
	Analysis    *sema.Analysis
	Resolutions []sema.Resolution
	Specs       []SpecSummary
	Bag         *diag.Bag
	CacheHit    bool
}

// AnalyzeManifest loads a unit manifest and runs the pipeline over it.
// I/O and manifest-shape problems return an error; everything the
// analysis itself finds lands in the result bag.
func AnalyzeManifest(ctx context.Context, path string, opts Options) (*RunResult, error) {
	bag := diag.NewBag(maxDiagnostics(opts))
	emit(opts.Progress, Event{Stage: StageLoad, Status: StatusWorking})

	loadStart := time.Now()
	idx := timerBegin(opts.Timer, "load")
	u, err := unit.Load(path, &diag.BagReporter{Bag: bag})
	timerEnd(opts.Timer, idx, path)
	if err != nil {
		emit(opts.Progress, Event{Stage: StageLoad, Status: StatusError, Err: err, Elapsed: time.Since(loadStart)})
		return nil, err
	}
	emit(opts.Progress, Event{Stage: StageLoad, Status: StatusDone, Elapsed: time.Since(loadStart)})

	res, err := Run(ctx, u, opts, bag)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Run executes the pipeline for an already-loaded unit. Diagnostics are
// appended to bag (a fresh one is allocated when nil) and post-processed
// according to opts. Types inside one dependency wave are analyzed in
// parallel; each works against its own bag, so the only shared state is
// the spec arena slots already frozen by earlier waves.
func Run(ctx context.Context, u *unit.Unit, opts Options, bag *diag.Bag) (*RunResult, error) {
	if bag == nil {
		bag = diag.NewBag(maxDiagnostics(opts))
	}
	res := &RunResult{Unit: u, Bag: bag}
	// Manifest loading may have reported into the bag already; the cache
	// covers only what this run adds, loading re-reports on replay.
	preloaded := bag.Len()

	if payload, ok := cacheLookup(opts.Cache, u); ok {
		restorePayload(payload, res)
		finishBag(res.Bag, opts)
		emit(opts.Progress, Event{Stage: StageResolve, Status: StatusDone})
		res.CacheHit = true
		return res, nil
	}

	idx := timerBegin(opts.Timer, "graph")
	graph := dag.BuildWrapGraph(u)
	topo := dag.ToposortKahn(graph)
	dag.ReportCycles(u, topo, &diag.BagReporter{Bag: bag})
	timerEnd(opts.Timer, idx, "")

	idx = timerBegin(opts.Timer, "analyze")
	analysis := sema.NewAnalysis(u)
	bags, err := analyzeBatches(ctx, analysis, topo.Batches, opts)
	if err != nil {
		timerEnd(opts.Timer, idx, "cancelled")
		return nil, err
	}
	// Batches ran in dependency order; merging per-type bags in
	// declaration order keeps the stream deterministic.
	for id := 1; id < len(bags); id++ {
		bag.Merge(bags[id])
	}
	timerEnd(opts.Timer, idx, "")

	idx = timerBegin(opts.Timer, "resolve")
	emit(opts.Progress, Event{Stage: StageResolve, Status: StatusWorking})
	res.Analysis = analysis
	res.Resolutions = analysis.ResolveCalls(&diag.BagReporter{Bag: bag})
	res.Specs = Summarize(analysis)
	emit(opts.Progress, Event{Stage: StageResolve, Status: StatusDone})
	timerEnd(opts.Timer, idx, "")

	cacheStore(opts.Cache, u, res, preloaded)
	finishBag(res.Bag, opts)
	return res, nil
}

// analyzeBatches runs every dependency wave, with the types inside one
// wave analyzed in parallel. The returned slice holds one bag per
// declaration, indexed by TypeDeclID.
func analyzeBatches(ctx context.Context, analysis *sema.Analysis, batches [][]unit.TypeDeclID, opts Options) ([]*diag.Bag, error) {
	u := analysis.Unit()
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	bags := make([]*diag.Bag, u.DeclCount()+1)
	for _, batch := range batches {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(min(jobs, len(batch)))

		for _, id := range batch {
			id := id
			g.Go(func() error {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}

				name := declName(u, id)
				start := time.Now()
				emit(opts.Progress, Event{Type: name, Stage: StageAnalyze, Status: StatusWorking})

				// Slot id is written by this goroutine only.
				bags[id] = diag.NewBag(perTypeDiagCap)
				analysis.AnalyzeType(id, &diag.BagReporter{Bag: bags[id]})

				status := StatusDone
				if bags[id].HasErrors() {
					status = StatusError
				}
				emit(opts.Progress, Event{Type: name, Stage: StageAnalyze, Status: status, Elapsed: time.Since(start)})
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}
	return bags, nil
}

// TypeNames lists the unit's declarations in order, for progress UIs.
func TypeNames(u *unit.Unit) []string {
	names := make([]string, 0, u.DeclCount())
	for id := unit.TypeDeclID(1); int(id) <= u.DeclCount(); id++ {
		names = append(names, declName(u, id))
	}
	return names
}

// finishBag applies the warning policy and freezes the output order.
func finishBag(bag *diag.Bag, opts Options) {
	if opts.IgnoreWarnings {
		bag.Filter(func(d diag.Diagnostic) bool {
			return d.Severity != diag.SevWarning
		})
	}
	if opts.WarningsAsErrors {
		bag.Transform(func(d diag.Diagnostic) diag.Diagnostic {
			if d.Severity == diag.SevWarning {
				d.Severity = diag.SevError
			}
			return d
		})
	}
}

func declName(u *unit.Unit, id unit.TypeDeclID) string {
	decl := u.Decl(id)
	if decl == nil {
		return ""
	}
	return u.Strings.MustLookup(decl.Name)
}

func maxDiagnostics(opts Options) int {
	if opts.MaxDiagnostics > 0 {
		return opts.MaxDiagnostics
	}
	return 100
}

func timerBegin(t *observ.Timer, name string) int {
	if t == nil {
		return -1
	}
	return t.Begin(name)
}

func timerEnd(t *observ.Timer, idx int, note string) {
	if t == nil || idx < 0 {
		return
	}
	t.End(idx, note)
}
