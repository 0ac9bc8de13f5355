package classify

import (
	"sort"
	"strings"

	"github.com/ritzau/ng-graph/pkg/model"
)

// Finalize concatenates the relationships of all passes, keeps the first
// relationship per (source, target, type) and makes sure every survivor is
// classified. Unclassified relationships and unknown classifications become
// unresolved; an unresolved relationship is never marked as resolved.
// Inputs are not modified.
func Finalize(passes ...[]model.Relationship) []model.Relationship {
	total := 0
	for _, p := range passes {
		total += len(p)
	}

	out := make([]model.Relationship, 0, total)
	seen := make(map[string]bool, total)

	for _, pass := range passes {
		for _, r := range pass {
			key := r.Key()
			if seen[key] {
				continue
			}
			seen[key] = true

			if r.ID == "" {
				r.ID = model.RelationshipID(r.Source, r.Type, r.Target)
			}

			switch {
			case r.Metadata == nil:
				r.Metadata = &model.Metadata{Classification: model.Unresolved}

			case !r.Metadata.Classification.IsKnown():
				r.Metadata = r.Metadata.Clone()
				r.Metadata.Classification = model.Unresolved
				r.Metadata.Resolved = false

			case r.Metadata.Classification == model.Unresolved && r.Metadata.Resolved:
				r.Metadata = r.Metadata.Clone()
				r.Metadata.Resolved = false
			}

			out = append(out, r)
		}
	}

	return out
}

// ComputeStats summarizes classified relationships
func ComputeStats(rels []model.Relationship) model.Stats {
	stats := model.Stats{Total: len(rels), UnresolvedNames: []string{}}
	names := make(map[string]bool)

	for i := range rels {
		r := &rels[i]
		if r.Metadata != nil && r.Metadata.Resolved {
			stats.Resolved++
		}

		switch r.Classification() {
		case model.Internal:
			stats.Internal++
		case model.External:
			stats.External++
		default:
			stats.Unresolved++
			names[unresolvedName(r)] = true
		}
	}

	for name := range names {
		stats.UnresolvedNames = append(stats.UnresolvedNames, name)
	}
	sort.Strings(stats.UnresolvedNames)

	return stats
}

// unresolvedName is the name a relationship failed to resolve
func unresolvedName(r *model.Relationship) string {
	if r.Metadata != nil && r.Metadata.OriginalName != "" {
		return r.Metadata.OriginalName
	}
	return strings.TrimPrefix(r.Target, model.UnresolvedPrefix)
}

// Unresolved returns the unresolved relationships, in order
func Unresolved(rels []model.Relationship) []model.Relationship {
	var out []model.Relationship
	for _, r := range rels {
		if r.Classification() != model.Internal && r.Classification() != model.External {
			out = append(out, r)
		}
	}
	return out
}
