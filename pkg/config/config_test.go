package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFlags() *pflag.FlagSet {
	f := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f.String("config", DefaultFile, "")
	f.String("root", ".", "")
	f.Bool("strict", false, "")
	f.Int("port", 8080, "")
	f.Bool("json-logs", false, "")
	f.StringSlice("external-patterns", nil, "")
	return f
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.Root)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "text", cfg.Format)
	assert.False(t, cfg.Strict)
	assert.Equal(t, ".", cfg.FactsDir())
	assert.Equal(t, "package.json", cfg.ManifestPath())
}

func TestLoadPriority(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFile), []byte(`
root = "workspace"
facts = "build/facts"
port = 9000
strict = true
cache_size = 128
external_patterns = ["@angular/**"]

[aliases]
"@app/*" = "src/app/*"
`), 0o644))

	t.Setenv("NG_GRAPH_PORT", "9100")

	f := testFlags()
	require.NoError(t, f.Parse([]string{"--port=9200", "--json-logs"}))

	cfg, err := Load(f)
	require.NoError(t, err)

	assert.Equal(t, "workspace", cfg.Root, "file overrides defaults")
	assert.Equal(t, "build/facts", cfg.FactsDir())
	assert.Equal(t, filepath.Join("workspace", "package.json"), cfg.ManifestPath())
	assert.True(t, cfg.Strict, "unchanged flag does not override the file")
	assert.Equal(t, 128, cfg.CacheSize)
	assert.Equal(t, []string{"@angular/**"}, cfg.ExternalPatterns)
	assert.Equal(t, map[string]string{"@app/*": "src/app/*"}, cfg.Aliases)
	assert.Equal(t, 9200, cfg.Port, "flag overrides env")
	assert.True(t, cfg.JSONLogs)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFile), []byte("port = 9000\n"), 0o644))
	t.Setenv("NG_GRAPH_PORT", "9100")
	t.Setenv("NG_GRAPH_CACHE_SIZE", "-1")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, -1, cfg.CacheSize)
}

func TestLoadExplicitConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte("root = \"elsewhere\"\n"), 0o644))

	f := testFlags()
	require.NoError(t, f.Parse([]string{"--config", path}))

	cfg, err := Load(f)
	require.NoError(t, err)
	assert.Equal(t, "elsewhere", cfg.Root)
	assert.Equal(t, path, cfg.ConfigFile)
}

func TestLoadBrokenConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFile), []byte("port = = 1\n"), 0o644))

	_, err := Load(nil)
	assert.Error(t, err)
}
