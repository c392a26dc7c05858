package install

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/liquid-labs/plugable-express-sub000/pkg/errors"
	"github.com/liquid-labs/plugable-express-sub000/pkg/pkgspec"
	"github.com/liquid-labs/plugable-express-sub000/pkg/resolve"
)

// MsgAlreadyInstalled is the response message when nothing was installed.
const MsgAlreadyInstalled = "already installed"

// InstalledPlugin identifies a plugin already present in the plugin package
// directory.
type InstalledPlugin struct {
	Name    string `json:"npmName"`
	Version string `json:"version,omitempty"`
}

// Reporter receives progress messages.
type Reporter interface {
	Log(msg string)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(msg string)

// Log calls f(msg).
func (f ReporterFunc) Log(msg string) { f(msg) }

type nopReporter struct{}

func (nopReporter) Log(string) {}

// Request holds the inputs of [Service.InstallPlugins].
type Request struct {
	InstalledPlugins       []InstalledPlugin `json:"installedPlugins"`
	NpmNames               []string          `json:"npmNames"`
	PluginPkgDir           string            `json:"pluginPkgDir"`
	NoImplicitInstallation bool              `json:"noImplicitInstallation"`
	DevPaths               map[string]string `json:"devPaths,omitempty"`

	// ReloadFunc, if set, is called once after a successful install so the
	// caller can rescan the plugin package directory.
	ReloadFunc func(ctx context.Context) error `json:"-"`
	Reporter   Reporter                        `json:"-"`
}

// Response is returned by [Service.InstallPlugins].
type Response struct {
	Msg  string  `json:"msg"`
	Data *Result `json:"data"`
}

// Service resolves and installs plugins.
type Service struct {
	Resolver  *resolve.Resolver
	Installer Installer
	Logger    *log.Logger
}

// InstallPlugins resolves req.NpmNames with their plugin dependencies and
// installs everything not yet installed. Resolution fails as a whole
// before anything is installed.
func (s *Service) InstallPlugins(ctx context.Context, req Request) (*Response, error) {
	reporter := req.Reporter
	if reporter == nil {
		reporter = nopReporter{}
	}
	if req.PluginPkgDir == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "plugin package directory is required")
	}
	if len(req.NpmNames) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no plugin packages requested")
	}
	requested, err := pkgspec.ParseAll(req.NpmNames)
	if err != nil {
		return nil, err
	}

	installed := make(map[string]bool, len(req.InstalledPlugins))
	for _, p := range req.InstalledPlugins {
		installed[p.Name] = true
	}

	r := *s.Resolver
	r.Options.NoImplicitInstallation = req.NoImplicitInstallation
	if r.Options.Logger == nil {
		r.Options.Logger = s.Logger
	}

	reporter.Log("Resolving plugin dependencies...")
	resolved, err := r.Resolve(ctx, requested, installed)
	if err != nil {
		return nil, err
	}

	rec := &Reconciler{
		Installer: s.Installer,
		Dir:       req.PluginPkgDir,
		DevPaths:  req.DevPaths,
		Logger:    s.Logger,
	}
	if len(resolved.Packages) > 0 {
		reporter.Log("Installing " + strings.Join(pkgspec.Strings(resolved.Packages), ", ") + "...")
	}
	result, err := rec.Reconcile(ctx, resolved.Packages, installed, requested)
	if err != nil {
		return nil, err
	}
	reporter.Log(result.Summary)
	if result.Total == 0 {
		return &Response{Msg: MsgAlreadyInstalled, Data: result}, nil
	}

	if req.ReloadFunc != nil {
		if err := req.ReloadFunc(ctx); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "reload plugins")
		}
	}
	return &Response{Msg: result.Summary, Data: result}, nil
}
