package lens

import (
	"github.com/ritzau/ng-graph/pkg/model"
)

// Focus returns the entities and relationships within cfg.MaxDistance hops of
// the selected entities. Relationships are kept when both ends are in view,
// in graph order.
func Focus(g *model.Graph, cfg FocusConfig) *View {
	distances := ComputeDistances(g, cfg.Selected, cfg.includes)

	inView := func(id string) bool {
		d, ok := distances[id]
		return ok && (cfg.MaxDistance == Unlimited || d <= cfg.MaxDistance)
	}

	view := &View{
		Entities:      []*model.Entity{},
		Relationships: []model.Relationship{},
		Distances:     make(map[string]int),
	}

	for _, e := range g.Entities.Entities() {
		if inView(e.ID) {
			view.Entities = append(view.Entities, e)
		}
	}

	for i := range g.Relationships {
		r := &g.Relationships[i]
		if !cfg.includes(r) || !inView(r.Source) || !inView(r.Target) {
			continue
		}
		view.Relationships = append(view.Relationships, *r)
	}

	for id, d := range distances {
		if inView(id) {
			view.Distances[id] = d
		}
	}

	return view
}
