// Package facts loads the per-file output of the extraction collaborator:
// entities and raw relationships, one document per source file.
package facts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/ritzau/ng-graph/pkg/logging"
	"github.com/ritzau/ng-graph/pkg/model"
)

// ErrUnsupportedFormat is returned for fact files that are neither JSON nor YAML
var ErrUnsupportedFormat = errors.New("unsupported fact file format")

// Suffixes of fact files, in lookup order
var Suffixes = []string{".facts.json", ".facts.yaml", ".facts.yml"}

// skipDirs are never searched for fact files
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	".angular":     true,
}

// Document is the extraction output for one source file
type Document struct {
	File          string                  `json:"file" yaml:"file"` // Project-relative source path
	Entities      []*model.Entity         `json:"entities" yaml:"entities"`
	Relationships []model.RawRelationship `json:"relationships" yaml:"relationships"`
}

// SkipDir returns true for directories that never contain fact files
func SkipDir(name string) bool {
	return skipDirs[name]
}

// IsFactFile returns true if path has a fact file suffix
func IsFactFile(path string) bool {
	return suffix(path) != ""
}

func suffix(path string) string {
	for _, s := range Suffixes {
		if strings.HasSuffix(path, s) {
			return s
		}
	}
	return ""
}

// FindFactFiles walks dir and returns all fact files sorted by path
func FindFactFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path != dir && SkipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if IsFactFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search %s for fact files: %w", dir, err)
	}

	sort.Strings(files)
	return files, nil
}

// Load reads every fact file under dir concurrently. The documents are
// returned in sorted path order regardless of completion order.
func Load(ctx context.Context, dir string) ([]Document, error) {
	logger := logging.New("facts")

	files, err := FindFactFiles(dir)
	if err != nil {
		return nil, err
	}

	docs := make([]Document, len(files))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i, path := range files {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}

			doc, err := ReadFile(path, dir)
			if err != nil {
				return err
			}
			docs[i] = doc
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Debug("Loaded fact files", "dir", dir, "count", len(docs))
	return docs, nil
}

// ReadFile reads and decodes one fact file. base is the facts directory and is
// used to derive the source path of documents that do not name one.
func ReadFile(path, base string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("failed to read fact file: %w", err)
	}

	doc, err := Decode(data, suffix(path))
	if err != nil {
		return Document{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	if doc.File == "" {
		rel, err := filepath.Rel(base, path)
		if err != nil {
			rel = filepath.Base(path)
		}
		doc.File = filepath.ToSlash(strings.TrimSuffix(rel, suffix(path)))
	}

	doc.normalize()
	return doc, nil
}

// Decode decodes a fact document. format is one of Suffixes.
func Decode(data []byte, format string) (Document, error) {
	var doc Document

	switch format {
	case ".facts.json":
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&doc); err != nil {
			return Document{}, err
		}

	case ".facts.yaml", ".facts.yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return Document{}, err
		}

	default:
		return Document{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	return doc, nil
}

// normalize fills in entity locations and ids the collector left out
func (d *Document) normalize() {
	d.File = filepath.ToSlash(d.File)

	entities := d.Entities[:0]
	for _, e := range d.Entities {
		if e == nil {
			continue
		}
		if e.Location.FilePath == "" {
			e.Location.FilePath = d.File
		}
		if e.ID == "" && e.Type != "" && e.Name != "" {
			e.ID = model.MakeEntityID(e.Type, e.Location.FilePath, e.Name)
		}
		entities = append(entities, e)
	}
	d.Entities = entities
}
