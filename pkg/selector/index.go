package selector

import (
	"strings"

	"github.com/ritzau/ng-graph/pkg/model"
)

// Match is an entity registered under a selector or pipe pattern
type Match struct {
	EntityID   string           `json:"entityId"`
	EntityName string           `json:"entityName"`
	EntityType model.EntityType `json:"entityType"`
}

// patternMap is an insertion-ordered pattern -> matches map
type patternMap struct {
	keys    []string
	entries map[string][]Match
}

func newPatternMap() *patternMap {
	return &patternMap{entries: make(map[string][]Match)}
}

// add registers m under key, once per entity
func (p *patternMap) add(key string, m Match) {
	existing, seen := p.entries[key]
	if !seen {
		p.keys = append(p.keys, key)
	}
	for _, e := range existing {
		if e.EntityID == m.EntityID {
			return
		}
	}
	p.entries[key] = append(existing, m)
}

func (p *patternMap) get(key string) []Match {
	return p.entries[key]
}

// Index resolves selector and pipe usages. Several entities may share a pattern
// (e.g., multiple apps in one workspace) and all of them are returned.
type Index struct {
	elements   *patternMap // element names and ".class" patterns
	attributes *patternMap // attribute names
	pipes      *patternMap // pipe names
}

// BuildIndex indexes the selectors of all components and directives and the
// names of all pipes, in entity-map order
func BuildIndex(entities *model.EntityMap) *Index {
	idx := &Index{
		elements:   newPatternMap(),
		attributes: newPatternMap(),
		pipes:      newPatternMap(),
	}

	for _, e := range entities.Entities() {
		m := Match{EntityID: e.ID, EntityName: e.Name, EntityType: e.Type}

		switch {
		case e.Type.HasSelector() && e.Selector != "":
			for _, c := range Parse(e.Selector) {
				if c.Element != "" {
					idx.elements.add(c.Element, m)
				}
				for _, attr := range c.Attributes {
					idx.attributes.add(attr, m)
				}
				for _, class := range c.Classes {
					idx.elements.add("."+class, m)
				}
			}

		case e.Type == model.EntityPipe:
			name := e.PipeName
			if name == "" {
				name = e.Name
			}
			idx.pipes.add(name, m)
		}
	}

	return idx
}

// Resolve returns every entity addressed by a template usage.
// Element and class patterns are tried first, then attributes.
func (idx *Index) Resolve(text string) []Match {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if matches := idx.elements.get(text); len(matches) > 0 {
		return matches
	}

	if strings.HasPrefix(text, "[") && strings.HasSuffix(text, "]") {
		return idx.attributes.get(AttributeName(text[1 : len(text)-1]))
	}
	return idx.attributes.get(text)
}

// ResolveClass returns every entity matching a class usage. Collectors report
// class usages with or without the leading dot.
func (idx *Index) ResolveClass(name string) []Match {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	if !strings.HasPrefix(name, ".") {
		name = "." + name
	}
	return idx.elements.get(name)
}

// ResolvePipe returns every pipe registered under name
func (idx *Index) ResolvePipe(name string) []Match {
	return idx.pipes.get(strings.TrimSpace(name))
}

// ElementPatterns returns the element and class patterns in registration order
func (idx *Index) ElementPatterns() []string {
	return append([]string(nil), idx.elements.keys...)
}

// AttributePatterns returns the attribute patterns in registration order
func (idx *Index) AttributePatterns() []string {
	return append([]string(nil), idx.attributes.keys...)
}
