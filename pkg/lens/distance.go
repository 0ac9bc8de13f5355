package lens

import (
	"sort"

	"github.com/ritzau/ng-graph/pkg/model"
)

// distanceQueueNode represents a node in the BFS queue
type distanceQueueNode struct {
	nodeID   string
	distance int
}

// ComputeDistances calculates the shortest distance from each node to the
// nearest selected node. Edges are followed in both directions; nodes that
// cannot be reached are absent from the result. Selected ids that name no
// node are ignored.
func ComputeDistances(g *model.Graph, selected []string, include func(*model.Relationship) bool) map[string]int {
	distances := make(map[string]int)
	if len(selected) == 0 {
		return distances
	}

	adjacency := buildAdjacencyList(g, include)

	queue := []distanceQueueNode{}
	for _, nodeID := range selected {
		if _, seen := distances[nodeID]; seen {
			continue
		}
		if !g.Entities.Has(nodeID) && len(adjacency[nodeID]) == 0 {
			continue
		}
		distances[nodeID] = 0
		queue = append(queue, distanceQueueNode{nodeID: nodeID, distance: 0})
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, neighbor := range adjacency[current.nodeID] {
			if _, exists := distances[neighbor]; !exists {
				distances[neighbor] = current.distance + 1
				queue = append(queue, distanceQueueNode{nodeID: neighbor, distance: current.distance + 1})
			}
		}
	}

	return distances
}

// buildAdjacencyList creates an undirected adjacency list with sorted neighbors
func buildAdjacencyList(g *model.Graph, include func(*model.Relationship) bool) map[string][]string {
	seen := make(map[[2]string]bool)
	adjacency := make(map[string][]string)

	link := func(a, b string) {
		if a == b || seen[[2]string{a, b}] {
			return
		}
		seen[[2]string{a, b}] = true
		adjacency[a] = append(adjacency[a], b)
	}

	for i := range g.Relationships {
		r := &g.Relationships[i]
		if include != nil && !include(r) {
			continue
		}
		link(r.Source, r.Target)
		link(r.Target, r.Source)
	}

	for _, neighbors := range adjacency {
		sort.Strings(neighbors)
	}
	return adjacency
}
