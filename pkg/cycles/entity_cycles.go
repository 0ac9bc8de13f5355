package cycles

import (
	"sort"

	"gonum.org/v1/gonum/graph/topo"

	"github.com/ritzau/ng-graph/pkg/graph"
)

// EntityCycle represents a circular dependency between entities
type EntityCycle struct {
	Entities []string `json:"entities"` // Entity ids in insertion order
}

// FindEntityCycles finds all circular dependencies in the entity graph, one
// per strongly connected component of two or more entities.
// Cycles are ordered by their first entity.
func FindEntityCycles(eg *graph.EntityGraph) []EntityCycle {
	var sccs [][]int64
	for _, component := range topo.TarjanSCC(eg.Graph()) {
		if len(component) < 2 {
			continue
		}
		scc := make([]int64, 0, len(component))
		for _, n := range component {
			scc = append(scc, n.ID())
		}
		sort.Slice(scc, func(i, j int) bool { return scc[i] < scc[j] })
		sccs = append(sccs, scc)
	}
	sort.Slice(sccs, func(i, j int) bool { return sccs[i][0] < sccs[j][0] })

	cycles := make([]EntityCycle, 0, len(sccs))
	for _, scc := range sccs {
		entities := make([]string, 0, len(scc))
		for _, nodeID := range scc {
			if node := eg.GetNodeByID(nodeID); node != nil {
				entities = append(entities, node.ID)
			}
		}

		if len(entities) > 1 {
			cycles = append(cycles, EntityCycle{Entities: entities})
		}
	}

	return cycles
}
