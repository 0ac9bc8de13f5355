package modresolve

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTree creates empty files (and their directories) under root
func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("export {};\n"), 0o644))
	}
}

func newResolver(t *testing.T, opts Options) *FileSystemResolver {
	t.Helper()
	r, err := NewFileSystemResolver(opts)
	require.NoError(t, err)
	return r
}

func TestPackageName(t *testing.T) {
	tests := map[string]string{
		"rxjs":                  "rxjs",
		"rxjs/operators":        "rxjs",
		"@angular/core":         "@angular/core",
		"@angular/core/testing": "@angular/core",
		"@scope":                "@scope",
		"lodash-es/debounce":    "lodash-es",
	}
	for specifier, want := range tests {
		assert.Equal(t, want, PackageName(specifier), specifier)
	}
}

func TestResolveRelative(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root,
		"src/app/shared/user.model.ts",
		"src/app/core/index.ts",
	)
	r := newResolver(t, Options{Root: root})

	res := r.Resolve("../shared/user.model", "src/app/home/home.component.ts")
	assert.Equal(t, Resolution{Exists: true, ResolvedPath: "src/app/shared/user.model.ts"}, res)

	res = r.Resolve("./core", "src/app/app.module.ts")
	assert.Equal(t, Resolution{Exists: true, ResolvedPath: "src/app/core/index.ts"}, res)

	res = r.Resolve("./missing", "src/app/app.module.ts")
	assert.False(t, res.Exists)
	assert.False(t, res.IsExternal)
}

func TestResolveOutsideRootIsExternal(t *testing.T) {
	r := newResolver(t, Options{Root: t.TempDir()})

	res := r.Resolve("../../libs/ui", "src/main.ts")
	assert.True(t, res.IsExternal)
	assert.Equal(t, "../../libs/ui", res.PackageName)
}

func TestResolveNodeModules(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules", "@ngrx", "store"), 0o755))
	r := newResolver(t, Options{Root: root})

	res := r.Resolve("@ngrx/store/testing", "src/app/app.module.ts")
	assert.Equal(t, Resolution{IsExternal: true, PackageName: "@ngrx/store"}, res)

	res = r.Resolve("left-pad", "src/app/app.module.ts")
	assert.Equal(t, Resolution{PackageName: "left-pad"}, res)
}

func TestResolveAliases(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "src/app/shared/api.ts", "src/environments/environment.ts")
	r := newResolver(t, Options{
		Root: root,
		Aliases: map[string]string{
			"@app/*":  "src/app/*",
			"@env":    "src/environments/environment",
			"@app/x*": "nowhere/*",
		},
	})

	res := r.Resolve("@app/shared/api", "src/main.ts")
	assert.Equal(t, Resolution{Exists: true, ResolvedPath: "src/app/shared/api.ts"}, res)

	res = r.Resolve("@env", "src/main.ts")
	assert.Equal(t, Resolution{Exists: true, ResolvedPath: "src/environments/environment.ts"}, res)
}

func TestResolveBaseURL(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "app/feature/feature.service.ts")
	r := newResolver(t, Options{Root: root})

	res := r.Resolve("app/feature/feature.service", "app/main.ts")
	assert.True(t, res.Exists)
	assert.Equal(t, "app/feature/feature.service.ts", res.ResolvedPath)
}

func TestResolveExternalPatterns(t *testing.T) {
	r := newResolver(t, Options{Root: t.TempDir(), ExternalPatterns: []string{"@angular/**", "rxjs*"}})

	res := r.Resolve("@angular/common/http", "src/main.ts")
	assert.Equal(t, Resolution{IsExternal: true, PackageName: "@angular/common"}, res)

	res = r.Resolve("rxjs", "src/main.ts")
	assert.True(t, res.IsExternal)
}

func TestInvalidExternalPattern(t *testing.T) {
	_, err := NewFileSystemResolver(Options{ExternalPatterns: []string{"[unclosed"}})
	assert.ErrorIs(t, err, ErrInvalidPattern)
}

func TestResolveIsCached(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "src/a.ts")
	r := newResolver(t, Options{Root: root})

	first := r.Resolve("./a", "src/main.ts")
	require.True(t, first.Exists)

	// Removing the file does not change a cached answer within the same run
	require.NoError(t, os.Remove(filepath.Join(root, "src", "a.ts")))
	assert.Equal(t, first, r.Resolve("./a", "src/other.ts"))

	uncached := newResolver(t, Options{Root: root, CacheSize: -1})
	assert.False(t, uncached.Resolve("./a", "src/main.ts").Exists)
}
