package lens

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/ritzau/ng-graph/pkg/model"
)

// GraphDiff represents the difference between two resolutions
type GraphDiff struct {
	AddedEntities         []string             `json:"addedEntities"`
	RemovedEntities       []string             `json:"removedEntities"`
	ModifiedEntities      []string             `json:"modifiedEntities"`      // Same id, changed declaration
	AddedRelationships    []model.Relationship `json:"addedRelationships"`
	RemovedRelationships  []model.Relationship `json:"removedRelationships"`
	ModifiedRelationships []model.Relationship `json:"modifiedRelationships"` // Same key, changed metadata
	Reclassified          []Reclassification   `json:"reclassified"`
	FullGraph             bool                 `json:"fullGraph"`             // True when there was nothing to compare with
}

// Reclassification is a relationship whose target or classification changed
// while its source and type stayed the same
type Reclassification struct {
	Source string                 `json:"source"`
	Type   model.RelationshipType `json:"type"`
	Before string                 `json:"before"`
	After  string                 `json:"after"`
}

// Empty returns true if nothing changed
func (d *GraphDiff) Empty() bool {
	return !d.FullGraph &&
		len(d.AddedEntities) == 0 && len(d.RemovedEntities) == 0 && len(d.ModifiedEntities) == 0 &&
		len(d.AddedRelationships) == 0 && len(d.RemovedRelationships) == 0 && len(d.ModifiedRelationships) == 0
}

// GraphSnapshot represents a cached graph state for diffing
type GraphSnapshot struct {
	Hash          string
	Entities      map[string]string             // id -> hash of the entity
	Relationships map[string]model.Relationship // Key() -> relationship
}

// CreateSnapshot creates a snapshot from a resolved graph
func CreateSnapshot(g *model.Graph) *GraphSnapshot {
	snapshot := &GraphSnapshot{
		Entities:      make(map[string]string, g.Entities.Len()),
		Relationships: make(map[string]model.Relationship, len(g.Relationships)),
	}

	for _, e := range g.Entities.Entities() {
		snapshot.Entities[e.ID] = hashJSON(e)
	}
	for _, r := range g.Relationships {
		snapshot.Relationships[r.Key()] = r
	}
	snapshot.Hash = hashJSON(g)

	return snapshot
}

func hashJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%x", sha256.Sum256(data))
}

// ComputeDiff computes the difference between a snapshot and a new graph.
// All lists are sorted.
func ComputeDiff(old *GraphSnapshot, g *model.Graph) *GraphDiff {
	diff := &GraphDiff{
		AddedEntities:         []string{},
		RemovedEntities:       []string{},
		ModifiedEntities:      []string{},
		AddedRelationships:    []model.Relationship{},
		RemovedRelationships:  []model.Relationship{},
		ModifiedRelationships: []model.Relationship{},
		Reclassified:          []Reclassification{},
	}

	if old == nil {
		diff.FullGraph = true
		diff.AddedEntities = g.Entities.IDs()
		sort.Strings(diff.AddedEntities)
		diff.AddedRelationships = append(diff.AddedRelationships, g.Relationships...)
		sortRelationships(diff.AddedRelationships)
		return diff
	}

	current := CreateSnapshot(g)
	if current.Hash == old.Hash {
		return diff
	}

	for id, hash := range current.Entities {
		oldHash, exists := old.Entities[id]
		switch {
		case !exists:
			diff.AddedEntities = append(diff.AddedEntities, id)
		case oldHash != hash:
			diff.ModifiedEntities = append(diff.ModifiedEntities, id)
		}
	}
	for id := range old.Entities {
		if _, exists := current.Entities[id]; !exists {
			diff.RemovedEntities = append(diff.RemovedEntities, id)
		}
	}

	for key, r := range current.Relationships {
		before, exists := old.Relationships[key]
		switch {
		case !exists:
			diff.AddedRelationships = append(diff.AddedRelationships, r)
		case hashJSON(before) != hashJSON(r):
			diff.ModifiedRelationships = append(diff.ModifiedRelationships, r)
		}
	}
	for key, r := range old.Relationships {
		if _, exists := current.Relationships[key]; !exists {
			diff.RemovedRelationships = append(diff.RemovedRelationships, r)
		}
	}

	sort.Strings(diff.AddedEntities)
	sort.Strings(diff.RemovedEntities)
	sort.Strings(diff.ModifiedEntities)
	sortRelationships(diff.AddedRelationships)
	sortRelationships(diff.RemovedRelationships)
	sortRelationships(diff.ModifiedRelationships)
	diff.Reclassified = reclassifications(diff.RemovedRelationships, diff.AddedRelationships)

	return diff
}

// reclassifications pairs removed and added relationships that share source
// and type and differ only in target, e.g. unresolved:Foo -> an entity id.
// Only unambiguous pairs are reported.
func reclassifications(removed, added []model.Relationship) []Reclassification {
	type slot struct {
		source string
		t      model.RelationshipType
	}
	before := make(map[slot][]model.Relationship)
	for _, r := range removed {
		before[slot{r.Source, r.Type}] = append(before[slot{r.Source, r.Type}], r)
	}
	after := make(map[slot][]model.Relationship)
	for _, r := range added {
		after[slot{r.Source, r.Type}] = append(after[slot{r.Source, r.Type}], r)
	}

	out := []Reclassification{}
	for _, r := range added {
		s := slot{r.Source, r.Type}
		if len(before[s]) != 1 || len(after[s]) != 1 {
			continue
		}
		out = append(out, Reclassification{
			Source: r.Source,
			Type:   r.Type,
			Before: before[s][0].Target,
			After:  r.Target,
		})
	}
	return out
}

func sortRelationships(rels []model.Relationship) {
	sort.Slice(rels, func(i, j int) bool {
		return rels[i].Key() < rels[j].Key()
	})
}
