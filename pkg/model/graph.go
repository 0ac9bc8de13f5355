package model

import (
	"encoding/json"
)

// EntityMap is an insertion-ordered map of entity id -> entity.
// Iteration order is the order in which ids were first inserted.
type EntityMap struct {
	order []string
	byID  map[string]*Entity
}

// NewEntityMap creates a new empty entity map
func NewEntityMap() *EntityMap {
	return &EntityMap{
		order: make([]string, 0),
		byID:  make(map[string]*Entity),
	}
}

// Set inserts or replaces an entity. A replaced entity keeps its original position.
func (m *EntityMap) Set(e *Entity) {
	if _, exists := m.byID[e.ID]; !exists {
		m.order = append(m.order, e.ID)
	}
	m.byID[e.ID] = e
}

// Get returns the entity with the given id
func (m *EntityMap) Get(id string) (*Entity, bool) {
	e, ok := m.byID[id]
	return e, ok
}

// Has returns true if an entity with the given id exists
func (m *EntityMap) Has(id string) bool {
	_, ok := m.byID[id]
	return ok
}

// Len returns the number of entities
func (m *EntityMap) Len() int {
	return len(m.order)
}

// IDs returns all entity ids in insertion order
func (m *EntityMap) IDs() []string {
	ids := make([]string, len(m.order))
	copy(ids, m.order)
	return ids
}

// Entities returns all entities in insertion order
func (m *EntityMap) Entities() []*Entity {
	entities := make([]*Entity, 0, len(m.order))
	for _, id := range m.order {
		entities = append(entities, m.byID[id])
	}
	return entities
}

// MarshalJSON encodes the map as an ordered array of entities
func (m *EntityMap) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Entities())
}

// Graph is the resolved knowledge graph handed to downstream consumers
type Graph struct {
	Entities      *EntityMap     `json:"entities"`
	Relationships []Relationship `json:"relationships"`
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		Entities:      NewEntityMap(),
		Relationships: make([]Relationship, 0),
	}
}

// Stats summarizes the classification outcome of a graph
type Stats struct {
	Total           int      `json:"total"`
	Resolved        int      `json:"resolved"`
	Unresolved      int      `json:"unresolved"`
	Internal        int      `json:"internal"`
	External        int      `json:"external"`
	UnresolvedNames []string `json:"unresolvedNames"` // Distinct, sorted
}
