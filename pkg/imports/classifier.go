// Package imports classifies names that failed entity resolution by looking at
// where they were imported from.
package imports

import (
	"log/slog"

	"github.com/ritzau/ng-graph/pkg/logging"
	"github.com/ritzau/ng-graph/pkg/manifest"
	"github.com/ritzau/ng-graph/pkg/model"
	"github.com/ritzau/ng-graph/pkg/modresolve"
)

// Verdict is the classification of an import that names no collected entity
type Verdict struct {
	Classification model.Classification
	Resolved       bool
	Target         string
	PackageName    string
	Version        string
	ResolvedPath   string
}

// Apply writes the verdict into relationship metadata
func (v Verdict) Apply(meta *model.Metadata) {
	meta.Classification = v.Classification
	meta.Resolved = v.Resolved
	if v.PackageName != "" {
		meta.PackageName = v.PackageName
	}
	if v.Version != "" {
		meta.Version = v.Version
	}
	if v.ResolvedPath != "" {
		meta.ResolvedPath = v.ResolvedPath
	}
}

// Classifier decides whether an import points at a third-party package or an
// in-project file whose declarations were not collected
type Classifier struct {
	manifest *manifest.Manifest
	modules  modresolve.Resolver
	logger   *slog.Logger
}

// NewClassifier creates a classifier. Both collaborators may be nil.
func NewClassifier(m *manifest.Manifest, modules modresolve.Resolver) *Classifier {
	return &Classifier{
		manifest: m,
		modules:  modules,
		logger:   logging.New("imports"),
	}
}

// Classify returns a verdict for name imported from importPath in originFile.
// ok is false when neither an external package nor an in-project file matches.
func (c *Classifier) Classify(name, importPath, originFile string) (Verdict, bool) {
	if importPath == "" {
		return Verdict{}, false
	}

	if !modresolve.IsRelative(importPath) {
		pkg := modresolve.PackageName(importPath)
		if version, declared := c.manifest.Version(pkg); declared {
			return external(name, pkg, version), true
		}
	}

	if c.modules == nil {
		return Verdict{}, false
	}

	res := c.modules.Resolve(importPath, originFile)
	switch {
	case res.IsExternal:
		pkg := res.PackageName
		if pkg == "" {
			pkg = modresolve.PackageName(importPath)
		}
		version, _ := c.manifest.Version(pkg)
		return external(name, pkg, version), true

	case res.Exists:
		c.logger.Debug("import points at uncollected project file",
			"name", name, "import", importPath, "file", res.ResolvedPath)
		return Verdict{
			Classification: model.Internal,
			Resolved:       false,
			Target:         model.InternalFilePrefix + res.ResolvedPath + ":" + name,
			ResolvedPath:   res.ResolvedPath,
		}, true
	}

	return Verdict{}, false
}

func external(name, pkg, version string) Verdict {
	return Verdict{
		Classification: model.External,
		Resolved:       true,
		Target:         model.ExternalPrefix + pkg + ":" + name,
		PackageName:    pkg,
		Version:        version,
	}
}
