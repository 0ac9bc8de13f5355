// Package manifest reads the project's declared dependencies from package.json.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// FileName is the manifest file looked up in the project root
const FileName = "package.json"

// Manifest holds the dependency sections of a package.json
type Manifest struct {
	Name             string            `json:"name"`
	PackageVersion   string            `json:"version"` // The project's own version
	Dependencies     map[string]string `json:"dependencies"`
	DevDependencies  map[string]string `json:"devDependencies"`
	PeerDependencies map[string]string `json:"peerDependencies"`
}

// Read parses the manifest at path. A missing file is not an error: it returns nil, nil.
func Read(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return Parse(data)
}

// Parse decodes manifest content
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}

// Version returns the declared version range of a package.
// dependencies take precedence over devDependencies, then peerDependencies.
func (m *Manifest) Version(pkg string) (string, bool) {
	if m == nil {
		return "", false
	}
	for _, section := range []map[string]string{m.Dependencies, m.DevDependencies, m.PeerDependencies} {
		if v, ok := section[pkg]; ok {
			return v, true
		}
	}
	return "", false
}

// Has returns true if pkg is declared in any dependency section
func (m *Manifest) Has(pkg string) bool {
	_, ok := m.Version(pkg)
	return ok
}

// Count returns the number of declared packages across all sections
func (m *Manifest) Count() int {
	if m == nil {
		return 0
	}
	return len(m.Dependencies) + len(m.DevDependencies) + len(m.PeerDependencies)
}
