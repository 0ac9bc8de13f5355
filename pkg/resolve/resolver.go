// Package resolve resolves bare symbol names to entity ids.
//
// Names are not unique across a project: two files may both declare a
// SharedService. When a name has several candidates the resolver uses the
// referencing file and the import path to pick one, and falls back to the
// first-indexed candidate so that results never depend on map iteration order.
package resolve

import (
	"context"
	"log/slog"
	"path"
	"strings"

	"github.com/ritzau/ng-graph/pkg/logging"
	"github.com/ritzau/ng-graph/pkg/model"
)

// Context carries the disambiguation signals of a reference
type Context struct {
	OriginFile string // File containing the reference
	ImportPath string // Module specifier the name was imported from, if known
}

// Ambiguity records a name that could only be resolved by the order-based fallback
type Ambiguity struct {
	Name       string   `json:"name"`
	OriginFile string   `json:"originFile,omitempty"`
	Candidates []string `json:"candidates"`
	Chosen     string   `json:"chosen"`
}

// Resolver resolves names against a NameIndex built once per run
type Resolver struct {
	index       *NameIndex
	entities    *model.EntityMap
	origins     map[string]string
	ambiguities []Ambiguity
	logger      *slog.Logger
}

// NewResolver builds a fresh name index over entities.
// origins maps entity ids to the file they were collected from.
func NewResolver(entities *model.EntityMap, origins map[string]string) *Resolver {
	return &Resolver{
		index:    BuildNameIndex(entities),
		entities: entities,
		origins:  origins,
		logger:   logging.New("resolve.names"),
	}
}

// Index returns the name index used by the resolver
func (r *Resolver) Index() *NameIndex {
	return r.index
}

// Ambiguities returns the fallback resolutions recorded so far
func (r *Resolver) Ambiguities() []Ambiguity {
	return r.ambiguities
}

// Resolve returns the id of the entity a name refers to.
// ctx may be nil when the reference has no location.
func (r *Resolver) Resolve(name string, ctx *Context) (string, bool) {
	if ctx == nil {
		ctx = &Context{}
	}
	for _, variant := range nameVariants(name) {
		if id, ok := r.resolveName(variant, ctx); ok {
			if variant != name {
				r.logger.Log(context.Background(), logging.LevelTrace, "resolved name variant", "name", name, "variant", variant, "id", id)
			}
			return id, true
		}
	}
	return "", false
}

// nameVariants returns the bare name followed by its fallback spellings
func nameVariants(name string) []string {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}

	variants := []string{name}
	add := func(v string) {
		if v == "" {
			return
		}
		for _, existing := range variants {
			if existing == v {
				return
			}
		}
		variants = append(variants, v)
	}

	// Decorator marker: "@Component" -> "Component"
	if strings.HasPrefix(name, "@") {
		add(name[1:])
	}

	// Module path: "shared/button/ButtonComponent" -> "ButtonComponent"
	if strings.Contains(name, "/") {
		trimmed := strings.TrimRight(name, "/")
		add(trimmed[strings.LastIndex(trimmed, "/")+1:])
	}

	return variants
}

func (r *Resolver) resolveName(name string, ctx *Context) (string, bool) {
	candidates := r.index.Lookup(name)
	switch len(candidates) {
	case 0:
		return "", false
	case 1:
		return candidates[0], true
	}

	if ctx.ImportPath != "" {
		if id, ok := r.matchImportPath(candidates, ctx.ImportPath); ok {
			return id, true
		}
	}

	if ctx.OriginFile != "" {
		if id, ok := r.closestByDirectory(candidates, ctx.OriginFile); ok {
			return id, true
		}
	}

	chosen := candidates[0]
	r.ambiguities = append(r.ambiguities, Ambiguity{
		Name:       name,
		OriginFile: ctx.OriginFile,
		Candidates: append([]string(nil), candidates...),
		Chosen:     chosen,
	})
	r.logger.Warn("ambiguous name, using first candidate",
		"name", name, "origin", ctx.OriginFile, "candidates", len(candidates), "chosen", chosen)
	return chosen, true
}

// matchImportPath returns the first candidate whose storage path contains,
// or is contained by, the normalized import path
func (r *Resolver) matchImportPath(candidates []string, importPath string) (string, bool) {
	imp := normalizeImportPath(importPath)
	if imp == "" {
		return "", false
	}
	for _, id := range candidates {
		stored := stripExt(toSlash(r.storagePath(id)))
		if stored == "" {
			continue
		}
		if strings.Contains(stored, imp) || strings.Contains(imp, stored) {
			return id, true
		}
	}
	return "", false
}

// closestByDirectory returns the candidate sharing the most leading directory
// segments with originFile. Ties go to the earlier candidate; zero overlap is no winner.
func (r *Resolver) closestByDirectory(candidates []string, originFile string) (string, bool) {
	originDir := dirSegments(originFile)
	best, bestOverlap := "", 0
	for _, id := range candidates {
		overlap := commonPrefixLen(originDir, dirSegments(r.storagePath(id)))
		if overlap > bestOverlap {
			best, bestOverlap = id, overlap
		}
	}
	return best, bestOverlap > 0
}

// storagePath is the file an entity was collected from, or its declared location
func (r *Resolver) storagePath(id string) string {
	if p, ok := r.origins[id]; ok && p != "" {
		return p
	}
	if e, ok := r.entities.Get(id); ok {
		return e.Location.FilePath
	}
	return ""
}

var sourceExtensions = map[string]bool{
	".ts": true, ".tsx": true, ".js": true, ".jsx": true, ".mjs": true, ".cjs": true,
}

func toSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

func stripExt(p string) string {
	return strings.TrimSuffix(p, path.Ext(p))
}

// normalizeImportPath drops relative prefixes and source extensions. A bare
// "." or ".." normalizes to "", i.e. no signal:
// "../shared/foo.service.ts" -> "shared/foo.service"
func normalizeImportPath(importPath string) string {
	p := toSlash(strings.TrimSpace(importPath))
	for {
		switch {
		case strings.HasPrefix(p, "./"):
			p = p[2:]
		case strings.HasPrefix(p, "../"):
			p = p[3:]
		case p == "." || p == "..":
			// A directory index says nothing about which candidate is meant
			return ""
		default:
			if ext := path.Ext(p); sourceExtensions[ext] {
				p = strings.TrimSuffix(p, ext)
			}
			return strings.Trim(p, "/")
		}
	}
}

func dirSegments(file string) []string {
	dir := path.Dir(toSlash(file))
	if dir == "." || dir == "/" || dir == "" {
		return nil
	}
	return strings.Split(strings.TrimPrefix(dir, "/"), "/")
}

func commonPrefixLen(a, b []string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}
