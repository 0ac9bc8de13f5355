// Package modresolve answers where a module specifier points: a third-party package,
// an existing file inside the project, or nowhere known.
package modresolve

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	lru "github.com/hashicorp/golang-lru/v2"
)

// ErrInvalidPattern is returned for external patterns that do not compile
var ErrInvalidPattern = errors.New("invalid external pattern")

// DefaultExtensions are probed, in order, when a specifier has no file extension
var DefaultExtensions = []string{".ts", ".tsx", ".d.ts", ".js", ".mjs", ".jsx"}

// DefaultCacheSize bounds the number of cached resolutions
const DefaultCacheSize = 4096

// Resolution is the outcome of resolving one import specifier
type Resolution struct {
	IsExternal   bool
	Exists       bool
	ResolvedPath string // Project-relative, forward slashes
	PackageName  string
}

// Resolver resolves an import specifier as seen from a project file
type Resolver interface {
	Resolve(importPath, originFile string) Resolution
}

// Options configures a FileSystemResolver
type Options struct {
	Root             string            // Project root
	Extensions       []string          // Extensions to probe, DefaultExtensions if empty
	Aliases          map[string]string // Path aliases, e.g. "@app/*" -> "src/app/*"
	ExternalPatterns []string          // Globs of specifiers that are always external, e.g. "@angular/**"
	CacheSize        int               // Zero means DefaultCacheSize, negative disables caching
}

type alias struct {
	pattern  string
	prefix   string
	wildcard bool
	target   string
}

// FileSystemResolver resolves specifiers by probing the project tree
type FileSystemResolver struct {
	root       string
	extensions []string
	aliases    []alias
	external   []glob.Glob
	cache      *lru.Cache[string, Resolution]
}

// NewFileSystemResolver creates a resolver over opts.Root
func NewFileSystemResolver(opts Options) (*FileSystemResolver, error) {
	r := &FileSystemResolver{
		root:       opts.Root,
		extensions: opts.Extensions,
		aliases:    compileAliases(opts.Aliases),
	}
	if len(r.extensions) == 0 {
		r.extensions = DefaultExtensions
	}

	external, err := compileGlobs(opts.ExternalPatterns)
	if err != nil {
		return nil, err
	}
	r.external = external

	size := opts.CacheSize
	if size == 0 {
		size = DefaultCacheSize
	}
	if size > 0 {
		cache, err := lru.New[string, Resolution](size)
		if err != nil {
			return nil, fmt.Errorf("creating resolution cache: %w", err)
		}
		r.cache = cache
	}

	return r, nil
}

// compileGlobs compiles a slice of glob pattern strings into matchers.
func compileGlobs(patterns []string) ([]glob.Glob, error) {
	matchers := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		matcher, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, errors.Join(ErrInvalidPattern, err)
		}
		matchers = append(matchers, matcher)
	}
	return matchers, nil
}

// compileAliases orders aliases by descending prefix length so the most specific
// alias is tried first, with the pattern text as a stable tie-breaker
func compileAliases(aliases map[string]string) []alias {
	compiled := make([]alias, 0, len(aliases))
	for pattern, target := range aliases {
		a := alias{pattern: pattern, prefix: pattern, target: target}
		if strings.HasSuffix(pattern, "*") {
			a.prefix = strings.TrimSuffix(pattern, "*")
			a.wildcard = true
		}
		compiled = append(compiled, a)
	}
	sort.Slice(compiled, func(i, j int) bool {
		if len(compiled[i].prefix) != len(compiled[j].prefix) {
			return len(compiled[i].prefix) > len(compiled[j].prefix)
		}
		return compiled[i].pattern < compiled[j].pattern
	})
	return compiled
}

// Resolve implements Resolver
func (r *FileSystemResolver) Resolve(importPath, originFile string) Resolution {
	specifier := filepath.ToSlash(strings.TrimSpace(importPath))
	originDir := path.Dir(filepath.ToSlash(originFile))
	key := specifier + "\x00" + originDir

	if r.cache != nil {
		if res, ok := r.cache.Get(key); ok {
			return res
		}
	}

	res := r.resolve(specifier, originDir)
	if r.cache != nil {
		r.cache.Add(key, res)
	}
	return res
}

func (r *FileSystemResolver) resolve(specifier, originDir string) Resolution {
	if specifier == "" {
		return Resolution{}
	}

	for _, g := range r.external {
		if g.Match(specifier) {
			return Resolution{IsExternal: true, PackageName: PackageName(specifier)}
		}
	}

	if IsRelative(specifier) {
		joined := path.Clean(path.Join(originDir, specifier))
		if joined == ".." || strings.HasPrefix(joined, "../") {
			// Outside the project root
			return Resolution{IsExternal: true, PackageName: specifier}
		}
		return r.probe(joined)
	}

	if strings.HasPrefix(specifier, "/") {
		return r.probe(path.Clean(strings.TrimPrefix(specifier, "/")))
	}

	for _, a := range r.aliases {
		target, ok := a.expand(specifier)
		if !ok {
			continue
		}
		if res := r.probe(path.Clean(target)); res.Exists {
			return res
		}
	}

	pkg := PackageName(specifier)
	if r.isDir(path.Join("node_modules", pkg)) {
		return Resolution{IsExternal: true, PackageName: pkg}
	}

	// baseUrl-style specifier relative to the project root
	if res := r.probe(path.Clean(specifier)); res.Exists {
		return res
	}

	return Resolution{PackageName: pkg}
}

func (a alias) expand(specifier string) (string, bool) {
	if !a.wildcard {
		return a.target, specifier == a.pattern
	}
	if !strings.HasPrefix(specifier, a.prefix) {
		return "", false
	}
	return strings.Replace(a.target, "*", strings.TrimPrefix(specifier, a.prefix), 1), true
}

// probe looks for rel as a file, with each extension, and as a directory index
func (r *FileSystemResolver) probe(rel string) Resolution {
	candidates := make([]string, 0, 1+2*len(r.extensions))
	candidates = append(candidates, rel)
	for _, ext := range r.extensions {
		candidates = append(candidates, rel+ext)
	}
	for _, ext := range r.extensions {
		candidates = append(candidates, path.Join(rel, "index"+ext))
	}

	for _, candidate := range candidates {
		if r.isFile(candidate) {
			return Resolution{Exists: true, ResolvedPath: candidate}
		}
	}
	return Resolution{}
}

func (r *FileSystemResolver) abs(rel string) string {
	return filepath.Join(r.root, filepath.FromSlash(rel))
}

func (r *FileSystemResolver) isFile(rel string) bool {
	info, err := os.Stat(r.abs(rel))
	return err == nil && !info.IsDir()
}

func (r *FileSystemResolver) isDir(rel string) bool {
	info, err := os.Stat(r.abs(rel))
	return err == nil && info.IsDir()
}

// IsRelative returns true for "./x", "../x", "." and ".."
func IsRelative(specifier string) bool {
	return specifier == "." || specifier == ".." || strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../")
}

// PackageName derives the package a specifier belongs to:
// "rxjs/operators" -> "rxjs", "@angular/core/testing" -> "@angular/core"
func PackageName(specifier string) string {
	specifier = strings.TrimPrefix(filepath.ToSlash(specifier), "/")
	parts := strings.Split(specifier, "/")
	if strings.HasPrefix(specifier, "@") && len(parts) >= 2 {
		return parts[0] + "/" + parts[1]
	}
	return parts[0]
}
