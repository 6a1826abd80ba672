package dag

import (
	"fmt"
	"slices"

	"fortio.org/safecast"

	"veq/internal/unit"
)

// Topo is the result of ordering the wrap graph.
type Topo struct {
	Order   []unit.TypeDeclID   // linear order, wrapped types before wrappers
	Batches [][]unit.TypeDeclID // waves of mutually independent declarations
	Cyclic  bool
	Cycles  []unit.TypeDeclID // nodes left inside a cycle
}

// ToposortKahn orders the graph into batches: every declaration appears
// after everything it wraps, and declarations inside one batch never wrap
// each other, so a batch can be analyzed in parallel.
func ToposortKahn(g Graph) *Topo {
	nodeCount := len(g.Edges)
	indeg := make([]int, len(g.Indeg))
	copy(indeg, g.Indeg)

	topo := &Topo{
		Order:   make([]unit.TypeDeclID, 0, nodeCount),
		Batches: make([][]unit.TypeDeclID, 0),
	}

	active := 0
	for i := 0; i < nodeCount; i++ {
		if g.Present[i] {
			active++
		}
	}

	current := make([]unit.TypeDeclID, 0, nodeCount)
	for i := 0; i < nodeCount; i++ {
		if !g.Present[i] {
			continue
		}
		if indeg[i] == 0 {
			current = append(current, declID(i))
		}
	}
	slices.Sort(current)

	visited := 0
	for len(current) > 0 {
		batch := make([]unit.TypeDeclID, len(current))
		copy(batch, current)
		topo.Batches = append(topo.Batches, batch)

		next := make([]unit.TypeDeclID, 0)
		for _, id := range batch {
			topo.Order = append(topo.Order, id)
			visited++
			for _, to := range g.Edges[int(id)] {
				if !g.Present[int(to)] {
					continue
				}
				indeg[int(to)]--
				if indeg[int(to)] == 0 {
					next = append(next, to)
				}
			}
		}
		slices.Sort(next)
		current = next
	}

	if visited != active {
		topo.Cyclic = true
		for i := 0; i < nodeCount; i++ {
			if !g.Present[i] {
				continue
			}
			if indeg[i] > 0 {
				topo.Cycles = append(topo.Cycles, declID(i))
			}
		}
		slices.Sort(topo.Cycles)
	}

	return topo
}

func declID(i int) unit.TypeDeclID {
	id, err := safecast.Conv[unit.TypeDeclID](i)
	if err != nil {
		panic(fmt.Errorf("decl id overflow: %w", err))
	}
	return id
}
