// Package classify turns raw collector relationships into classified, resolved
// relationships and finalizes the relationship set of a graph.
package classify

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ritzau/ng-graph/pkg/imports"
	"github.com/ritzau/ng-graph/pkg/logging"
	"github.com/ritzau/ng-graph/pkg/model"
	"github.com/ritzau/ng-graph/pkg/resolve"
	"github.com/ritzau/ng-graph/pkg/selector"
)

// Skipped is a raw relationship that could not be classified at all
type Skipped struct {
	Index  int    `json:"index"`
	Source string `json:"source"`
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// Engine classifies the relationships of one resolution run.
// Its indices are built once at construction and never updated.
type Engine struct {
	entities   *model.EntityMap
	origins    map[string]string
	names      *resolve.Resolver
	selectors  *selector.Index
	classifier *imports.Classifier
	skipped    []Skipped
	logger     *slog.Logger
}

// NewEngine creates an engine over the collected entities. classifier may be nil,
// in which case names that fail resolution are unresolved.
func NewEngine(entities *model.EntityMap, origins map[string]string, classifier *imports.Classifier) *Engine {
	return &Engine{
		entities:   entities,
		origins:    origins,
		names:      resolve.NewResolver(entities, origins),
		selectors:  selector.BuildIndex(entities),
		classifier: classifier,
		logger:     logging.New("classify"),
	}
}

// Ambiguities returns the name-resolution warnings recorded so far
func (e *Engine) Ambiguities() []resolve.Ambiguity {
	return e.names.Ambiguities()
}

// Skipped returns the malformed relationships dropped so far
func (e *Engine) Skipped() []Skipped {
	return append([]Skipped(nil), e.skipped...)
}

// Selectors returns the selector index of this run
func (e *Engine) Selectors() *selector.Index {
	return e.selectors
}

// Classify classifies one pass of raw relationships, in input order.
// Template usages are deduplicated per (source, resolved target) within the pass.
func (e *Engine) Classify(raw []model.RawRelationship) []model.Relationship {
	out := make([]model.Relationship, 0, len(raw))
	templateSeen := make(map[string]bool)

	for i, r := range raw {
		text, ok := r.Target.(string)
		if !ok || text == "" {
			reason := fmt.Sprintf("target is %T, not a name", r.Target)
			if ok {
				reason = "target is empty"
			}
			e.skipped = append(e.skipped, Skipped{Index: i, Source: r.Source, Type: string(r.Type), Reason: reason})
			e.logger.Warn("Skipping malformed relationship",
				"index", i, "source", r.Source, "type", r.Type, "reason", reason)
			continue
		}

		target := model.ParseTarget(r.Type, text)
		meta := r.Metadata.Clone()
		if meta == nil {
			meta = &model.Metadata{}
		}
		if meta.Classification != "" && !meta.Classification.IsKnown() {
			e.logger.Debug("Ignoring unknown classification",
				"source", r.Source, "target", text, "classification", meta.Classification)
			meta.Classification = ""
		}

		switch target.Kind {
		case model.TargetEntityID:
			out = append(out, e.classifyEntityID(r, target.Value, meta))

		case model.TargetPlaceholder:
			out = append(out, e.classifyPlaceholder(r, target.Value, meta))

		case model.TargetSelector:
			for _, rel := range e.classifyTemplateUsage(r, target.Value, meta) {
				key := rel.Source + "\x00" + rel.Target
				if templateSeen[key] {
					continue
				}
				templateSeen[key] = true
				out = append(out, rel)
			}

		default:
			out = append(out, e.classifyName(r, target.Value, meta))
		}
	}

	return out
}

// classifyEntityID handles targets that are already entity ids
func (e *Engine) classifyEntityID(r model.RawRelationship, id string, meta *model.Metadata) model.Relationship {
	exists := e.entities.Has(id)

	switch {
	case meta.Classification == model.Internal && !exists:
		e.logger.Debug("Demoting relationship to missing entity", "source", r.Source, "target", id)
		meta.Classification = model.Unresolved
		meta.Resolved = false

	case (meta.Classification == "" || meta.Classification == model.Internal) && exists:
		meta.Classification = model.Internal
		meta.Resolved = true

	case meta.Classification == "":
		meta.Classification = model.Unresolved
		meta.Resolved = false
	}

	return build(r, id, meta)
}

// classifyPlaceholder keeps the output of an earlier classification. Missing
// metadata is recovered from the placeholder prefix.
func (e *Engine) classifyPlaceholder(r model.RawRelationship, target string, meta *model.Metadata) model.Relationship {
	if meta.Classification == "" {
		switch {
		case strings.HasPrefix(target, model.ExternalPrefix), strings.HasPrefix(target, model.BuiltinPrefix):
			meta.Classification = model.External
			meta.Resolved = true
		case strings.HasPrefix(target, model.InternalFilePrefix):
			meta.Classification = model.Internal
			meta.Resolved = false
		default:
			meta.Classification = model.Unresolved
			meta.Resolved = false
		}
	}
	return build(r, target, meta)
}

// classifyName resolves a bare name: entity first, then its import, then unresolved
func (e *Engine) classifyName(r model.RawRelationship, name string, meta *model.Metadata) model.Relationship {
	originFile := e.originFile(r.Source)

	if id, ok := e.names.Resolve(name, &resolve.Context{OriginFile: originFile, ImportPath: meta.ImportPath}); ok {
		meta.Classification = model.Internal
		meta.Resolved = true
		meta.OriginalName = name
		return build(r, id, meta)
	}

	if meta.ImportPath != "" && e.classifier != nil {
		if v, ok := e.classifier.Classify(name, meta.ImportPath, originFile); ok {
			v.Apply(meta)
			meta.OriginalName = name
			return build(r, v.Target, meta)
		}
	}

	meta.Classification = model.Unresolved
	meta.Resolved = false
	meta.OriginalName = name
	return build(r, model.UnresolvedPrefix+name, meta)
}

// classifyTemplateUsage resolves a selector or pipe usage to every matching
// entity, then falls back to framework builtins
func (e *Engine) classifyTemplateUsage(r model.RawRelationship, text string, meta *model.Metadata) []model.Relationship {
	var matches []selector.Match
	switch meta.Usage {
	case model.UsagePipe:
		matches = e.selectors.ResolvePipe(text)
	case model.UsageClass:
		matches = e.selectors.ResolveClass(text)
	default:
		matches = e.selectors.Resolve(text)
	}

	if len(matches) > 0 {
		rels := make([]model.Relationship, 0, len(matches))
		for _, m := range matches {
			hit := meta.Clone()
			hit.Classification = model.Internal
			hit.Resolved = true
			hit.OriginalName = text

			rel := build(r, m.EntityID, hit)
			if len(matches) > 1 {
				rel.ID = model.RelationshipID(rel.Source, rel.Type, rel.Target)
			}
			rels = append(rels, rel)
		}
		return rels
	}

	if b, ok := LookupBuiltin(text, meta.Usage); ok {
		meta.Classification = model.External
		meta.Resolved = true
		meta.PackageName = b.PackageName
		meta.OriginalName = text
		return []model.Relationship{build(r, model.BuiltinPrefix+b.Name, meta)}
	}

	e.logger.Debug("Unresolved template usage", "source", r.Source, "usage", meta.Usage, "text", text)
	meta.Classification = model.Unresolved
	meta.Resolved = false
	return []model.Relationship{build(r, text, meta)}
}

// originFile returns the file an entity was collected from
func (e *Engine) originFile(id string) string {
	if file, ok := e.origins[id]; ok {
		return file
	}
	if ent, ok := e.entities.Get(id); ok {
		return ent.Location.FilePath
	}
	return ""
}

// build assembles a classified relationship, deriving an id when the collector gave none
func build(r model.RawRelationship, target string, meta *model.Metadata) model.Relationship {
	id := r.ID
	if id == "" {
		id = model.RelationshipID(r.Source, r.Type, target)
	}
	return model.Relationship{
		ID:       id,
		Type:     r.Type,
		Source:   r.Source,
		Target:   target,
		Metadata: meta,
	}
}
