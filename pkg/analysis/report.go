package analysis

import (
	"time"

	"github.com/ritzau/ng-graph/pkg/classify"
	"github.com/ritzau/ng-graph/pkg/collect"
	"github.com/ritzau/ng-graph/pkg/cycles"
	"github.com/ritzau/ng-graph/pkg/graph"
	"github.com/ritzau/ng-graph/pkg/lens"
	"github.com/ritzau/ng-graph/pkg/model"
	"github.com/ritzau/ng-graph/pkg/resolve"
)

// Report is the outcome of one resolution run
type Report struct {
	Graph        *model.Graph         `json:"graph"`
	Stats        model.Stats          `json:"stats"`
	Cycles       []cycles.EntityCycle `json:"cycles"`
	CrossFeature []CrossFeatureDep    `json:"crossFeature"`
	Ambiguities  []resolve.Ambiguity  `json:"ambiguities"`
	Collisions   []collect.Collision  `json:"collisions"`
	Skipped      []classify.Skipped   `json:"skipped"`
	Changes      *lens.GraphDiff      `json:"changes,omitempty"` // Set by Runner, relative to its previous run
	Reason       string               `json:"reason,omitempty"`
	Duration     time.Duration        `json:"durationNs"`

	entityGraph *graph.EntityGraph
}

func newReport(g *model.Graph, engine *classify.Engine, collector *collect.Collector) *Report {
	eg := graph.BuildEntityGraph(g)

	return &Report{
		Graph:        g,
		Stats:        classify.ComputeStats(g.Relationships),
		Cycles:       cycles.FindEntityCycles(eg),
		CrossFeature: FindCrossFeatureDeps(g.Entities, eg),
		Ambiguities:  nonNil(engine.Ambiguities()),
		Collisions:   nonNil(collector.Collisions()),
		Skipped:      nonNil(engine.Skipped()),
		entityGraph:  eg,
	}
}

// EntityGraph returns the projection of internal relationships between entities
func (r *Report) EntityGraph() *graph.EntityGraph {
	if r.entityGraph == nil {
		r.entityGraph = graph.BuildEntityGraph(r.Graph)
	}
	return r.entityGraph
}

// Outgoing returns the relationships whose source is the given entity
func (r *Report) Outgoing(id string) []model.Relationship {
	out := []model.Relationship{}
	for _, rel := range r.Graph.Relationships {
		if rel.Source == id {
			out = append(out, rel)
		}
	}
	return out
}

// Incoming returns the relationships whose target is the given entity
func (r *Report) Incoming(id string) []model.Relationship {
	in := []model.Relationship{}
	for _, rel := range r.Graph.Relationships {
		if rel.Target == id {
			in = append(in, rel)
		}
	}
	return in
}

// Unresolved returns the relationships that could not be resolved
func (r *Report) Unresolved() []model.Relationship {
	return nonNil(classify.Unresolved(r.Graph.Relationships))
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
