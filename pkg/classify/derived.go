package classify

import (
	"strings"

	"github.com/ritzau/ng-graph/pkg/model"
)

// DeriveRelationships turns the decorator metadata of entities (module
// declarations, imports, exports and providers) into raw relationships.
func DeriveRelationships(entities *model.EntityMap) []model.RawRelationship {
	var raw []model.RawRelationship

	add := func(source string, t model.RelationshipType, names []string) {
		for _, name := range names {
			if name == "" {
				continue
			}
			raw = append(raw, model.RawRelationship{Type: t, Source: source, Target: name})
		}
	}

	for _, e := range entities.Entities() {
		switch e.Type {
		case model.EntityModule:
			add(e.ID, model.RelDeclares, e.Declarations)
			add(e.ID, model.RelImports, e.Imports)
			add(e.ID, model.RelExports, e.Exports)
			add(e.ID, model.RelProvides, e.Providers)

		case model.EntityComponent, model.EntityDirective:
			if e.Standalone {
				add(e.ID, model.RelImports, e.Imports)
			}
			add(e.ID, model.RelProvides, e.Providers)
		}
	}

	return raw
}

// DropCovered removes derived relationships that a collector already
// reported. A derived (source, type, name) is covered when an explicit
// relationship with the same source and type targets that name, directly,
// as the last segment of an id or placeholder, or as its original name.
func DropCovered(derived []model.RawRelationship, explicit ...[]model.RawRelationship) []model.RawRelationship {
	covered := make(map[string]bool)
	mark := func(r *model.RawRelationship, name string) {
		if name != "" {
			covered[coverKey(r.Source, r.Type, name)] = true
		}
	}

	for _, pass := range explicit {
		for i := range pass {
			r := &pass[i]
			if text, ok := r.Target.(string); ok {
				mark(r, text)
				mark(r, text[strings.LastIndex(text, ":")+1:])
			}
			if r.Metadata != nil {
				mark(r, r.Metadata.OriginalName)
			}
		}
	}

	out := make([]model.RawRelationship, 0, len(derived))
	for _, r := range derived {
		if name, ok := r.Target.(string); ok && covered[coverKey(r.Source, r.Type, name)] {
			continue
		}
		out = append(out, r)
	}
	return out
}

func coverKey(source string, t model.RelationshipType, name string) string {
	return source + "\x00" + string(t) + "\x00" + name
}
