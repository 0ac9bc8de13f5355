package resolve

import (
	"github.com/ritzau/ng-graph/pkg/model"
)

// NameIndex maps entity names to the ids of all entities sharing that name.
// Both the name list and each id list keep insertion (file-processing) order,
// which the disambiguation fallback relies on.
type NameIndex struct {
	names []string
	ids   map[string][]string
}

// BuildNameIndex indexes all entities by name in entity-map order
func BuildNameIndex(entities *model.EntityMap) *NameIndex {
	idx := &NameIndex{
		names: make([]string, 0, entities.Len()),
		ids:   make(map[string][]string, entities.Len()),
	}
	for _, e := range entities.Entities() {
		if e.Name == "" {
			continue
		}
		if _, seen := idx.ids[e.Name]; !seen {
			idx.names = append(idx.names, e.Name)
		}
		idx.ids[e.Name] = append(idx.ids[e.Name], e.ID)
	}
	return idx
}

// Lookup returns the ids registered for name, in insertion order
func (idx *NameIndex) Lookup(name string) []string {
	return idx.ids[name]
}

// Names returns all indexed names in insertion order
func (idx *NameIndex) Names() []string {
	names := make([]string, len(idx.names))
	copy(names, idx.names)
	return names
}

// Len returns the number of distinct names
func (idx *NameIndex) Len() int {
	return len(idx.names)
}
