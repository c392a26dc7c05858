// Package config loads the plugable configuration file.
//
// The file is TOML and lives at $XDG_CONFIG_HOME/plugable/config.toml
// (~/.config/plugable/config.toml when XDG_CONFIG_HOME is unset). A
// missing file yields [Default]. Unknown keys are reported, not rejected.
package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/liquid-labs/plugable-express-sub000/pkg/archive"
	"github.com/liquid-labs/plugable-express-sub000/pkg/errors"
	"github.com/liquid-labs/plugable-express-sub000/pkg/integrations/github"
	"github.com/liquid-labs/plugable-express-sub000/pkg/integrations/npm"
	"github.com/liquid-labs/plugable-express-sub000/pkg/resolve"
)

const (
	appName  = "plugable"
	fileName = "config.toml"

	DefaultCacheTTL = 24 * time.Hour
)

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Config is the decoded configuration file.
type Config struct {
	RegistryURL    string            `toml:"registry_url"`
	GitHubRawURL   string            `toml:"github_raw_url"`
	GitHubToken    string            `toml:"github_token"`
	CacheBackend   string            `toml:"cache_backend"`
	CacheTTL       time.Duration     `toml:"cache_ttl"`
	RedisAddr      string            `toml:"redis_addr"`
	CacheNamespace string            `toml:"cache_namespace"`
	PluginPkgDir   string            `toml:"plugin_pkg_dir"`
	ArchiveTimeout time.Duration     `toml:"archive_timeout"`
	NpmPath        string            `toml:"npm_path"`
	Limits         Limits            `toml:"limits"`
	DevPaths       map[string]string `toml:"dev_paths"`

	// Undecoded lists keys present in the file but not understood.
	Undecoded []string `toml:"-"`
}

// Limits mirrors resolve.Limits.
type Limits struct {
	MaxPackages               int `toml:"max_packages"`
	MaxDependenciesPerPackage int `toml:"max_dependencies_per_package"`
	MaxIterations             int `toml:"max_iterations"`
}

// Resolve converts l to resolve.Limits with defaults applied.
func (l Limits) Resolve() resolve.Limits {
	return resolve.Limits{
		MaxPackages:               l.MaxPackages,
		MaxDependenciesPerPackage: l.MaxDependenciesPerPackage,
		MaxIterations:             l.MaxIterations,
	}.WithDefaults()
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		RegistryURL:    npm.DefaultRegistry,
		GitHubRawURL:   github.DefaultRawURL,
		CacheBackend:   BackendFile,
		CacheTTL:       DefaultCacheTTL,
		PluginPkgDir:   ".",
		ArchiveTimeout: archive.DefaultTimeout,
		Limits: Limits{
			MaxPackages:               resolve.DefaultMaxPackages,
			MaxDependenciesPerPackage: resolve.DefaultMaxDependenciesPerPackage,
			MaxIterations:             resolve.DefaultMaxIterations,
		},
	}
}

// Path returns the default configuration file path.
func Path() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, fileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, fileName), nil
}

// Load reads the file at path on top of Default. An empty path means
// [Path]. A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := Path()
		if err != nil {
			return Default(), nil
		}
		path = p
	}

	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if stderrors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	for _, key := range md.Undecoded() {
		cfg.Undecoded = append(cfg.Undecoded, key.String())
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	if err := errors.ValidateURL(c.RegistryURL); err != nil {
		return fmt.Errorf("registry_url: %w", err)
	}
	if err := errors.ValidateURL(c.GitHubRawURL); err != nil {
		return fmt.Errorf("github_raw_url: %w", err)
	}
	switch c.CacheBackend {
	case BackendFile, BackendNone:
	case BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("cache_backend %q requires redis_addr", c.CacheBackend)
		}
	default:
		return fmt.Errorf("unknown cache_backend %q", c.CacheBackend)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("cache_ttl must not be negative")
	}
	if c.ArchiveTimeout < 0 {
		return fmt.Errorf("archive_timeout must not be negative")
	}
	return nil
}
