package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/liquid-labs/plugable-express-sub000/internal/config"
	"github.com/liquid-labs/plugable-express-sub000/pkg/cache"
	"github.com/liquid-labs/plugable-express-sub000/pkg/dag"
	"github.com/liquid-labs/plugable-express-sub000/pkg/errors"
	"github.com/liquid-labs/plugable-express-sub000/pkg/install"
	graphio "github.com/liquid-labs/plugable-express-sub000/pkg/io"
)

func TestRootCommand(t *testing.T) {
	c := New(&bytes.Buffer{}, LogInfo)
	root := c.RootCommand()

	for _, name := range []string{"install", "resolve", "graph", "serve", "cache"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("missing command %q", name)
		}
	}
	for _, flag := range []string{"config", "no-cache"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("missing persistent flag --%s", flag)
		}
	}

	install, _, _ := root.Find([]string{"install"})
	for _, flag := range []string{"dir", "no-implicit", "dev-path"} {
		if install.Flags().Lookup(flag) == nil {
			t.Errorf("install is missing --%s", flag)
		}
	}
}

func TestInstallRequiresArgs(t *testing.T) {
	c := New(&bytes.Buffer{}, LogInfo)
	root := c.RootCommand()
	root.SetArgs([]string{"install"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	if err := root.Execute(); err == nil {
		t.Error("install without packages should fail")
	}
}

func TestInstallOptions(t *testing.T) {
	cfg := config.Default()
	cfg.PluginPkgDir = "/srv/plugins"
	cfg.DevPaths = map[string]string{"a": "/src/a", "b": "/src/b"}

	opts := &installOptions{devPaths: map[string]string{"b": "/work/b"}}

	dir, err := opts.pluginPkgDir(cfg)
	if err != nil || dir != "/srv/plugins" {
		t.Errorf("pluginPkgDir = %q, %v", dir, err)
	}

	merged := opts.mergedDevPaths(cfg)
	if merged["a"] != "/src/a" || merged["b"] != "/work/b" {
		t.Errorf("mergedDevPaths = %v", merged)
	}
	if cfg.DevPaths["b"] != "/src/b" {
		t.Error("config dev paths must not be modified")
	}

	opts.dir = "/tmp/other"
	if dir, _ := opts.pluginPkgDir(cfg); dir != "/tmp/other" {
		t.Errorf("flag should win, got %q", dir)
	}
}

func TestNewCache(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	c := New(&bytes.Buffer{}, LogInfo)
	cfg := config.Default()

	backend, err := c.newCache(context.Background(), cfg)
	if err != nil {
		t.Fatalf("newCache: %v", err)
	}
	if _, ok := backend.(*cache.FileCache); !ok {
		t.Errorf("default backend = %T, want *cache.FileCache", backend)
	}

	cfg.CacheBackend = config.BackendNone
	backend, _ = c.newCache(context.Background(), cfg)
	if _, ok := backend.(*cache.NullCache); !ok {
		t.Errorf("none backend = %T, want *cache.NullCache", backend)
	}

	cfg.CacheBackend = config.BackendFile
	c.noCache = true
	backend, _ = c.newCache(context.Background(), cfg)
	if _, ok := backend.(*cache.NullCache); !ok {
		t.Errorf("--no-cache backend = %T, want *cache.NullCache", backend)
	}
}

func TestLoadConfigWarnsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("colour = \"blue\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	c := New(&buf, log.InfoLevel)
	c.configPath = path

	if _, err := c.loadConfig(); err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if !strings.Contains(buf.String(), "colour") {
		t.Errorf("expected warning about unknown key, got %q", buf.String())
	}
}

func TestFormatPlugin(t *testing.T) {
	line := formatPlugin(install.Plugin{Spec: "plugin-b", IsImplied: true})
	if !strings.Contains(line, "plugin-b") || !strings.Contains(line, "implied") {
		t.Errorf("formatPlugin = %q", line)
	}
	line = formatPlugin(install.Plugin{Spec: "dev", FromLocalSource: true})
	if !strings.Contains(line, "local") || strings.Contains(line, "implied") {
		t.Errorf("formatPlugin = %q", line)
	}
}

func TestFormatWave(t *testing.T) {
	line := formatWave(1, []string{"auth", "cache"})
	if !strings.Contains(line, "wave 1") || !strings.Contains(line, "auth, cache") {
		t.Errorf("formatWave = %q", line)
	}
}

func TestLoadGraphSummary(t *testing.T) {
	g := dag.New()
	for _, n := range []string{"app", "auth", "cache"} {
		_, _ = g.AddNode(n)
	}
	_, _ = g.AddEdge("app", "auth")
	_, _ = g.AddEdge("auth", "cache")

	path := filepath.Join(t.TempDir(), "graph.json")
	if err := graphio.ExportJSON(g, map[string]bool{"cache": true}, path); err != nil {
		t.Fatal(err)
	}

	s, err := loadGraphSummary(path)
	if err != nil {
		t.Fatalf("loadGraphSummary: %v", err)
	}
	if strings.Join(s.order, ",") != "cache,auth,app" {
		t.Errorf("order = %v", s.order)
	}
	if len(s.waves) != 3 || s.waves[0][0] != "cache" {
		t.Errorf("waves = %v", s.waves)
	}
	if len(s.installed) != 1 || s.installed[0] != "cache" {
		t.Errorf("installed = %v", s.installed)
	}
}

func TestLoadGraphSummaryRejectsCycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.json")
	body := `{"nodes":[{"id":"x"},{"id":"y"}],"edges":[{"from":"x","to":"y"},{"from":"y","to":"x"}]}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadGraphSummary(path); !errors.Is(err, errors.ErrCodeDependency) {
		t.Errorf("error = %v, want DEPENDENCY_ERROR", err)
	}
}
