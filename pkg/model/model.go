package model

import (
	"path/filepath"
	"strings"
)

// EntityType represents the kind of declared framework entity
type EntityType string

const (
	EntityComponent EntityType = "component"
	EntityService   EntityType = "service"
	EntityModule    EntityType = "module"
	EntityDirective EntityType = "directive"
	EntityPipe      EntityType = "pipe"
	EntityConstant  EntityType = "constant"
	EntityClass     EntityType = "class"
	EntityInterface EntityType = "interface"
	EntityEnum      EntityType = "enum"
	EntityFunction  EntityType = "function"
)

// EntityTypes lists every known entity type in a stable order
var EntityTypes = []EntityType{
	EntityComponent,
	EntityService,
	EntityModule,
	EntityDirective,
	EntityPipe,
	EntityConstant,
	EntityClass,
	EntityInterface,
	EntityEnum,
	EntityFunction,
}

// IsKnown returns true if t is one of the declared entity types
func (t EntityType) IsKnown() bool {
	for _, known := range EntityTypes {
		if t == known {
			return true
		}
	}
	return false
}

// HasSelector returns true for entity types addressed by selectors in markup
func (t EntityType) HasSelector() bool {
	return t == EntityComponent || t == EntityDirective
}

// Location identifies where an entity is declared
type Location struct {
	FilePath  string `json:"filePath" yaml:"filePath"`                       // Project-relative path (e.g., "src/app/foo.component.ts")
	StartLine int    `json:"startLine,omitempty" yaml:"startLine,omitempty"` // 1-based
	EndLine   int    `json:"endLine,omitempty" yaml:"endLine,omitempty"`
}

// Decorator is a decorator applied to a declaration, with its literal arguments
type Decorator struct {
	Name      string         `json:"name" yaml:"name"`
	Arguments map[string]any `json:"arguments,omitempty" yaml:"arguments,omitempty"`
}

// Entity represents a declared framework entity (component, service, pipe, ...)
type Entity struct {
	ID            string      `json:"id" yaml:"id"`
	Type          EntityType  `json:"type" yaml:"type"`
	Name          string      `json:"name" yaml:"name"`
	Location      Location    `json:"location" yaml:"location"`
	Documentation string      `json:"documentation,omitempty" yaml:"documentation,omitempty"`
	Decorators    []Decorator `json:"decorators,omitempty" yaml:"decorators,omitempty"`
	Modifiers     []string    `json:"modifiers,omitempty" yaml:"modifiers,omitempty"`

	// Type-specific fields
	Selector     string   `json:"selector,omitempty" yaml:"selector,omitempty"`         // Component, Directive
	ProvidedIn   string   `json:"providedIn,omitempty" yaml:"providedIn,omitempty"`     // Service
	Declarations []string `json:"declarations,omitempty" yaml:"declarations,omitempty"` // Module
	Imports      []string `json:"imports,omitempty" yaml:"imports,omitempty"`           // Module, standalone Component
	Exports      []string `json:"exports,omitempty" yaml:"exports,omitempty"`           // Module
	Providers    []string `json:"providers,omitempty" yaml:"providers,omitempty"`       // Module, Component
	PipeName     string   `json:"pipeName,omitempty" yaml:"pipeName,omitempty"`         // Pipe
	Standalone   bool     `json:"standalone,omitempty" yaml:"standalone,omitempty"`     // Component, Directive, Pipe
	Value        string   `json:"value,omitempty" yaml:"value,omitempty"`               // Constant
}

// MakeEntityID derives the stable identifier of an entity from its type, file and name.
// Format: <type>:<relative/path>:<name>
func MakeEntityID(t EntityType, relPath, name string) string {
	return string(t) + ":" + filepath.ToSlash(relPath) + ":" + name
}

// IsEntityID returns true if s has the shape of an entity identifier (known type prefix)
func IsEntityID(s string) bool {
	prefix, rest, ok := strings.Cut(s, ":")
	if !ok || rest == "" {
		return false
	}
	return EntityType(prefix).IsKnown()
}
