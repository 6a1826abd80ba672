package dag

import (
	"fmt"
	"slices"
	"strings"

	"veq/internal/diag"
	"veq/internal/types"
	"veq/internal/unit"
)

// Graph is the wrap-dependency graph over one unit's declarations.
// Edges[from] lists the declarations that wrap `from` and therefore wait
// for its analysis; index 0 is the unused sentinel slot.
type Graph struct {
	Edges   [][]unit.TypeDeclID
	Indeg   []int
	Present []bool
}

// BuildWrapGraph derives the graph from the unit's wrapped-field types.
// Only wraps that erase to a value nominal declared in the same unit
// create edges; primitives and unresolved wraps depend on nothing.
func BuildWrapGraph(u *unit.Unit) Graph {
	nodeCount := u.DeclCount() + 1
	g := Graph{
		Edges:   make([][]unit.TypeDeclID, nodeCount),
		Indeg:   make([]int, nodeCount),
		Present: make([]bool, nodeCount),
	}

	for id := unit.TypeDeclID(1); int(id) < nodeCount; id++ {
		g.Present[id] = true
	}
	for id := unit.TypeDeclID(1); int(id) < nodeCount; id++ {
		decl := u.Decl(id)
		if decl == nil || decl.Wraps == types.NoTypeID {
			continue
		}
		dep, ok := u.DeclByType(decl.Wraps)
		if !ok {
			continue
		}
		g.Edges[dep] = append(g.Edges[dep], id)
		g.Indeg[id]++
	}
	for from := range g.Edges {
		if len(g.Edges[from]) > 1 {
			slices.Sort(g.Edges[from])
		}
	}
	return g
}

// ReportCycles emits a UnitWrapCycle diagnostic on every declaration left
// inside a cycle. Binder exports of valid programs are acyclic; this is
// manifest validation.
func ReportCycles(u *unit.Unit, topo *Topo, reporter diag.Reporter) {
	if reporter == nil || topo == nil || !topo.Cyclic || len(topo.Cycles) == 0 {
		return
	}
	names := make([]string, 0, len(topo.Cycles))
	for _, id := range topo.Cycles {
		names = append(names, u.Strings.MustLookup(u.Decl(id).Name))
	}
	summary := strings.Join(names, " -> ")

	for i, id := range topo.Cycles {
		decl := u.Decl(id)
		msg := fmt.Sprintf("value type %q participates in a wrap cycle: %s", names[i], summary)
		reporter.Report(diag.UnitWrapCycle, diag.SevError, decl.Span, msg, nil)
	}
}
