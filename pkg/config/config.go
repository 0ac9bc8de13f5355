package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/ritzau/ng-graph/pkg/manifest"
)

// DefaultFile is the configuration file looked up when none is given
const DefaultFile = "ng-graph.toml"

// EnvPrefix prefixes environment overrides (e.g., NG_GRAPH_PORT=9090)
const EnvPrefix = "NG_GRAPH_"

// Config holds all configuration for the application
type Config struct {
	ConfigFile       string            `koanf:"config"`
	Root             string            `koanf:"root"`
	Facts            string            `koanf:"facts"`
	Manifest         string            `koanf:"manifest"`
	Strict           bool              `koanf:"strict"`
	Extensions       []string          `koanf:"extensions"`
	Aliases          map[string]string `koanf:"aliases"`
	ExternalPatterns []string          `koanf:"external_patterns"`
	CacheSize        int               `koanf:"cache_size"`
	Watch            bool              `koanf:"watch"`
	Serve            bool              `koanf:"serve"`
	Port             int               `koanf:"port"`
	Format           string            `koanf:"format"` // text or json
	Verbosity        string            `koanf:"verbosity"`
	VerboseCnt       int               `koanf:"verbose"`
	JSONLogs         bool              `koanf:"json_logs"`
}

// Defaults returns the default configuration values
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"config":            DefaultFile,
		"root":              ".",
		"facts":             "",
		"manifest":          "",
		"strict":            false,
		"extensions":        []string{},
		"aliases":           map[string]interface{}{},
		"external_patterns": []string{},
		"cache_size":        0,
		"watch":             false,
		"serve":             false,
		"port":              8080,
		"format":            "text",
		"verbosity":         "",
		"verbose":           0,
		"json_logs":         false,
	}
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(makeMapProvider(Defaults()), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file (optional). The path itself may come from a flag or the env.
	path := DefaultFile
	if v := os.Getenv(EnvPrefix + "CONFIG"); v != "" {
		path = v
	}
	if f != nil {
		if flag := f.Lookup("config"); flag != nil && flag.Changed {
			path = flag.Value.String()
		}
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config file %s: %w", path, err)
	}

	// 3. Environment variables
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags: --json-logs maps to json_logs
	if f != nil {
		if err := k.Load(posflag.ProviderWithFlag(f, ".", k, func(flag *pflag.Flag) (string, interface{}) {
			return strings.ReplaceAll(flag.Name, "-", "_"), posflag.FlagVal(f, flag)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.ConfigFile = path

	return &cfg, nil
}

// FactsDir returns the directory holding fact files, the root by default
func (c *Config) FactsDir() string {
	if c.Facts != "" {
		return c.Facts
	}
	return c.Root
}

// ManifestPath returns the dependency manifest path, <root>/package.json by default
func (c *Config) ManifestPath() string {
	if c.Manifest != "" {
		return c.Manifest
	}
	return filepath.Join(c.Root, manifest.FileName)
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, errors.New("map provider does not support ReadBytes")
}
