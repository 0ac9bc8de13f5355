package graph

import (
	"sort"

	"github.com/ritzau/ng-graph/pkg/model"
	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
)

// EntityNode represents a collected entity in the dependency graph
type EntityNode struct {
	ID   string           // Entity id, e.g. "service:src/app/user.service.ts:UserService"
	Type model.EntityType // Empty if the entity is not in the entity map
}

// Edge is a dependency between two entities with the relationship types that produced it
type Edge struct {
	Source string                   `json:"source"`
	Target string                   `json:"target"`
	Types  []model.RelationshipType `json:"types"`
}

// EntityGraph is the entity-level projection of resolved internal relationships.
// Graph ids are assigned in insertion order, so iteration is deterministic.
type EntityGraph struct {
	graph *simple.DirectedGraph
	nodes []*EntityNode    // Indexed by graph id
	ids   map[string]int64 // Map from entity id to graph id
	types map[[2]int64][]model.RelationshipType
}

// NewEntityGraph creates a new empty entity graph
func NewEntityGraph() *EntityGraph {
	return &EntityGraph{
		graph: simple.NewDirectedGraph(),
		ids:   make(map[string]int64),
		types: make(map[[2]int64][]model.RelationshipType),
	}
}

// AddEntity adds an entity node to the graph
func (eg *EntityGraph) AddEntity(id string, t model.EntityType) {
	if _, exists := eg.ids[id]; exists {
		return
	}

	nodeID := int64(len(eg.nodes))
	eg.nodes = append(eg.nodes, &EntityNode{ID: id, Type: t})
	eg.ids[id] = nodeID

	eg.graph.AddNode(simple.Node(nodeID))
}

// AddDependency adds a dependency edge from source to target.
// Missing nodes are added; self references are ignored.
func (eg *EntityGraph) AddDependency(source, target string, t model.RelationshipType) {
	eg.AddEntity(source, "")
	eg.AddEntity(target, "")

	sourceID := eg.ids[source]
	targetID := eg.ids[target]
	if sourceID == targetID {
		return
	}

	if !eg.graph.HasEdgeFromTo(sourceID, targetID) {
		eg.graph.SetEdge(eg.graph.NewEdge(eg.graph.Node(sourceID), eg.graph.Node(targetID)))
	}

	key := [2]int64{sourceID, targetID}
	for _, existing := range eg.types[key] {
		if existing == t {
			return
		}
	}
	eg.types[key] = append(eg.types[key], t)
}

// GetNode returns an entity node by entity id
func (eg *EntityGraph) GetNode(id string) (*EntityNode, bool) {
	nodeID, exists := eg.ids[id]
	if !exists {
		return nil, false
	}
	return eg.nodes[nodeID], true
}

// GetNodeByID returns an entity node by its graph id
func (eg *EntityGraph) GetNodeByID(id int64) *EntityNode {
	if id < 0 || id >= int64(len(eg.nodes)) {
		return nil
	}
	return eg.nodes[id]
}

// Graph returns the underlying directed graph
func (eg *EntityGraph) Graph() *simple.DirectedGraph {
	return eg.graph
}

// Nodes returns all entity nodes in insertion order
func (eg *EntityGraph) Nodes() []*EntityNode {
	return append([]*EntityNode(nil), eg.nodes...)
}

// Edges returns all dependency edges ordered by source, then target insertion order
func (eg *EntityGraph) Edges() []Edge {
	keys := make([][2]int64, 0, len(eg.types))
	for key := range eg.types {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})

	edges := make([]Edge, 0, len(keys))
	for _, key := range keys {
		edges = append(edges, Edge{
			Source: eg.nodes[key[0]].ID,
			Target: eg.nodes[key[1]].ID,
			Types:  append([]model.RelationshipType(nil), eg.types[key]...),
		})
	}
	return edges
}

// GetDependencies returns the entities the given entity depends on
func (eg *EntityGraph) GetDependencies(id string) []string {
	nodeID, exists := eg.ids[id]
	if !exists {
		return nil
	}
	return eg.entityIDs(eg.graph.From(nodeID))
}

// GetDependents returns the entities that depend on the given entity
func (eg *EntityGraph) GetDependents(id string) []string {
	nodeID, exists := eg.ids[id]
	if !exists {
		return nil
	}
	return eg.entityIDs(eg.graph.To(nodeID))
}

// entityIDs maps graph nodes to entity ids in insertion order
func (eg *EntityGraph) entityIDs(iter gonum.Nodes) []string {
	var nodeIDs []int64
	for iter.Next() {
		nodeIDs = append(nodeIDs, iter.Node().ID())
	}
	sort.Slice(nodeIDs, func(i, j int) bool { return nodeIDs[i] < nodeIDs[j] })

	ids := make([]string, 0, len(nodeIDs))
	for _, id := range nodeIDs {
		ids = append(ids, eg.nodes[id].ID)
	}
	return ids
}

// BuildEntityGraph projects the internal relationships of a resolved graph onto
// its entities. Only relationships whose target is a collected entity become
// edges. With no types given, every relationship type is included.
func BuildEntityGraph(g *model.Graph, types ...model.RelationshipType) *EntityGraph {
	eg := NewEntityGraph()

	include := make(map[model.RelationshipType]bool, len(types))
	for _, t := range types {
		include[t] = true
	}

	for _, e := range g.Entities.Entities() {
		eg.AddEntity(e.ID, e.Type)
	}

	for i := range g.Relationships {
		r := &g.Relationships[i]
		if r.Classification() != model.Internal {
			continue
		}
		if len(include) > 0 && !include[r.Type] {
			continue
		}
		if !g.Entities.Has(r.Source) || !g.Entities.Has(r.Target) {
			continue
		}
		eg.AddDependency(r.Source, r.Target, r.Type)
	}

	return eg
}
