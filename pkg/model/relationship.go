package model

import (
	"strings"

	"github.com/google/uuid"
)

// RelationshipType represents the kind of relationship between entities
type RelationshipType string

const (
	RelImports        RelationshipType = "imports"
	RelExports        RelationshipType = "exports"
	RelDeclares       RelationshipType = "declares"
	RelProvides       RelationshipType = "provides"
	RelInjects        RelationshipType = "injects"
	RelUses           RelationshipType = "uses"
	RelUsesInTemplate RelationshipType = "usesInTemplate"
)

// Classification is the resolved nature of a relationship target
type Classification string

const (
	Internal   Classification = "internal"   // Resolved to a known entity or an in-project file
	External   Classification = "external"   // Third-party dependency or framework builtin
	Unresolved Classification = "unresolved" // No resolution achieved
)

// IsKnown returns true for internal, external and unresolved
func (c Classification) IsKnown() bool {
	return c == Internal || c == External || c == Unresolved
}

// Usage describes how a template usage references its target
type Usage string

const (
	UsageElement   Usage = "element"
	UsageAttribute Usage = "attribute"
	UsageClass     Usage = "class"
	UsagePipe      Usage = "pipe"
)

// Target prefixes for placeholders produced by classification
const (
	UnresolvedPrefix   = "unresolved:"
	InternalFilePrefix = "internal-file:"
	ExternalPrefix     = "external:"
	BuiltinPrefix      = "angular-builtin:"
)

// Metadata records the classification outcome and its provenance
type Metadata struct {
	Classification Classification `json:"classification,omitempty" yaml:"classification,omitempty"`
	Resolved       bool           `json:"resolved" yaml:"resolved"`
	ImportPath     string         `json:"importPath,omitempty" yaml:"importPath,omitempty"`
	PackageName    string         `json:"packageName,omitempty" yaml:"packageName,omitempty"`
	Version        string         `json:"version,omitempty" yaml:"version,omitempty"`
	OriginalName   string         `json:"originalName,omitempty" yaml:"originalName,omitempty"`
	ResolvedPath   string         `json:"resolvedPath,omitempty" yaml:"resolvedPath,omitempty"`
	Usage          Usage          `json:"usage,omitempty" yaml:"usage,omitempty"`
	Attributes     map[string]any `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// Clone returns a copy of m that shares no mutable state with it
func (m *Metadata) Clone() *Metadata {
	if m == nil {
		return nil
	}
	c := *m
	if m.Attributes != nil {
		c.Attributes = make(map[string]any, len(m.Attributes))
		for k, v := range m.Attributes {
			c.Attributes[k] = v
		}
	}
	return &c
}

// Relationship is a classified, directed edge between a source entity and a target
type Relationship struct {
	ID       string           `json:"id" yaml:"id"`
	Type     RelationshipType `json:"type" yaml:"type"`
	Source   string           `json:"source" yaml:"source"` // Entity id
	Target   string           `json:"target" yaml:"target"` // Entity id or classification placeholder
	Metadata *Metadata        `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Classification returns the relationship's classification, or "" if it has none
func (r *Relationship) Classification() Classification {
	if r.Metadata == nil {
		return ""
	}
	return r.Metadata.Classification
}

// Key returns the (source, target, type) identity used for deduplication
func (r *Relationship) Key() string {
	return r.Source + "\x00" + r.Target + "\x00" + string(r.Type)
}

// RawRelationship is a relationship as handed over by the collector.
// Target is usually a string but is kept untyped so malformed input can be detected.
type RawRelationship struct {
	ID       string           `json:"id,omitempty" yaml:"id,omitempty"`
	Type     RelationshipType `json:"type" yaml:"type"`
	Source   string           `json:"source" yaml:"source"`
	Target   any              `json:"target" yaml:"target"`
	Metadata *Metadata        `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// relationshipNamespace seeds deterministic relationship ids
var relationshipNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("ng-graph/relationship"))

// RelationshipID derives a deterministic id from the relationship identity
func RelationshipID(source string, t RelationshipType, target string) string {
	return uuid.NewSHA1(relationshipNamespace, []byte(source+"|"+string(t)+"|"+target)).String()
}

// TargetKind tags how a raw target string must be interpreted
type TargetKind int

const (
	TargetName        TargetKind = iota // Bare symbol name, needs name resolution
	TargetEntityID                      // Pre-resolved entity id
	TargetPlaceholder                   // Output of a previous classification
	TargetSelector                      // Template selector or pipe name
)

func (k TargetKind) String() string {
	switch k {
	case TargetName:
		return "name"
	case TargetEntityID:
		return "entity-id"
	case TargetPlaceholder:
		return "placeholder"
	case TargetSelector:
		return "selector"
	}
	return "unknown"
}

// Target is a parsed relationship target
type Target struct {
	Kind  TargetKind
	Value string
}

var placeholderPrefixes = []string{UnresolvedPrefix, InternalFilePrefix, ExternalPrefix, BuiltinPrefix}

// ParseTarget interprets a raw target string once, at ingestion time
func ParseTarget(t RelationshipType, raw string) Target {
	if IsEntityID(raw) {
		return Target{Kind: TargetEntityID, Value: raw}
	}
	for _, prefix := range placeholderPrefixes {
		if strings.HasPrefix(raw, prefix) {
			return Target{Kind: TargetPlaceholder, Value: raw}
		}
	}
	if t == RelUsesInTemplate {
		return Target{Kind: TargetSelector, Value: raw}
	}
	return Target{Kind: TargetName, Value: raw}
}
