// Package cli implements the plugable command-line interface.
//
// Commands:
//   - install: resolve plugin dependencies and install plugins
//   - resolve: dry run printing the install set and install waves
//   - serve:   run the HTTP API
//   - cache:   manage the registry and manifest cache
//
// All commands accept --verbose (-v) for debug logging, --config to point
// at a configuration file and --no-cache to bypass the cache.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/liquid-labs/plugable-express-sub000/internal/config"
	"github.com/liquid-labs/plugable-express-sub000/pkg/archive"
	"github.com/liquid-labs/plugable-express-sub000/pkg/buildinfo"
	"github.com/liquid-labs/plugable-express-sub000/pkg/cache"
	"github.com/liquid-labs/plugable-express-sub000/pkg/discovery"
	"github.com/liquid-labs/plugable-express-sub000/pkg/install"
	"github.com/liquid-labs/plugable-express-sub000/pkg/integrations/github"
	"github.com/liquid-labs/plugable-express-sub000/pkg/integrations/npm"
	"github.com/liquid-labs/plugable-express-sub000/pkg/resolve"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "plugable"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	noCache    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Plugable resolves and installs plugin packages",
		Long:         `Plugable discovers the plugin dependencies declared by plugin packages, checks them for cycles and resource limits, and installs the complete set in one step.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "configuration file (default $XDG_CONFIG_HOME/plugable/config.toml)")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "bypass the registry and manifest cache")

	root.AddCommand(c.installCommand())
	root.AddCommand(c.resolveCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())

	return root
}

// =============================================================================
// Service Factory
// =============================================================================

// loadConfig reads the configuration file and reports keys it did not
// understand.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	for _, key := range cfg.Undecoded {
		c.Logger.Warn("unknown configuration key", "key", key)
	}
	return cfg, nil
}

// newService wires the resolver and installer from cfg. The returned
// cache must be closed by the caller.
func (c *CLI) newService(ctx context.Context, cfg *config.Config, pluginPkgDir string) (*install.Service, cache.Cache, error) {
	backend, err := c.newCache(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	keyer := cache.NewDefaultKeyer()
	if cfg.CacheNamespace != "" {
		keyer = cache.NewScopedKeyer(keyer, cfg.CacheNamespace+":")
	}

	source := npm.NewClient(backend, cfg.RegistryURL, cfg.CacheTTL, c.Logger)
	disc := &discovery.Discoverer{
		PluginPkgDir: pluginPkgDir,
		Raw:          github.NewRawClient(cfg.GitHubRawURL, cfg.GitHubToken),
		Archive:      archive.NewFetcher(cfg.ArchiveTimeout, archive.DefaultMaxBytes, c.Logger),
		Cache:        backend,
		Keyer:        keyer,
		CacheTTL:     cfg.CacheTTL,
		Logger:       c.Logger,
	}

	svc := &install.Service{
		Resolver: &resolve.Resolver{
			Source:     source,
			Discoverer: disc,
			Options: resolve.Options{
				Limits: cfg.Limits.Resolve(),
				Logger: c.Logger,
			},
		},
		Installer: &install.NpmInstaller{NpmPath: cfg.NpmPath, Logger: c.Logger},
		Logger:    c.Logger,
	}
	return svc, backend, nil
}

func (c *CLI) newCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	if c.noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.CacheBackend {
	case config.BackendNone:
		return cache.NewNullCache(), nil
	case config.BackendRedis:
		return cache.NewRedisCache(ctx, cache.RedisConfig{Addr: cfg.RedisAddr, Prefix: appName + ":"})
	}
	dir, err := cacheDir()
	if err != nil {
		c.Logger.Warn("no cache directory, caching disabled", "error", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/plugable/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
