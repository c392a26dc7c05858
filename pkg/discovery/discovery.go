// Package discovery locates the plugin dependency manifest of a package.
//
// Sources are tried in order and each one either answers or declines:
//
//  1. local: the package is already installed below the plugin package
//     directory; its manifest file is read directly
//  2. remote: the package's GitHub repository serves the manifest at the
//     release tag ("v<version>", then "<version>")
//  3. archive: the distribution tarball is downloaded, extracted into a
//     temporary directory and searched
//  4. none: no manifest, no plugin dependencies
//
// The remote step declines only when neither the manifest nor package.json
// exists at either tag, meaning the repository cannot serve that release.
// When package.json is present the repository simply has no manifest and
// the archive is not consulted.
//
// Runtime dependencies from registry metadata are never treated as plugin
// dependencies.
package discovery

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/liquid-labs/plugable-express-sub000/pkg/cache"
	"github.com/liquid-labs/plugable-express-sub000/pkg/errors"
	"github.com/liquid-labs/plugable-express-sub000/pkg/integrations"
	"github.com/liquid-labs/plugable-express-sub000/pkg/integrations/github"
	"github.com/liquid-labs/plugable-express-sub000/pkg/integrations/npm"
	"github.com/liquid-labs/plugable-express-sub000/pkg/manifest"
	"github.com/liquid-labs/plugable-express-sub000/pkg/observability"
	"github.com/liquid-labs/plugable-express-sub000/pkg/pkgspec"
)

// Step names the source that answered a discovery.
type Step string

const (
	StepLocal   Step = "local"
	StepRemote  Step = "remote"
	StepArchive Step = "archive"
	StepNone    Step = "none"
)

// probeFile is fetched when the manifest is missing at a tag, to tell a
// repository without a manifest from one that does not serve the tag.
const probeFile = "package.json"

// RawFetcher fetches a single file from a source repository at a ref.
// Implemented by [github.RawClient].
type RawFetcher interface {
	Fetch(ctx context.Context, owner, repo, ref, path string) ([]byte, error)
}

// ArchiveExtractor downloads and extracts an archive for the duration of fn.
// Implemented by archive.Fetcher.
type ArchiveExtractor interface {
	Extract(ctx context.Context, url string, fn func(dir string) error) error
}

// Discoverer runs the fallback chain. A nil Raw disables the remote step
// and a nil Archive disables the archive step.
type Discoverer struct {
	// PluginPkgDir is the directory whose node_modules holds installed plugins.
	PluginPkgDir string

	Raw     RawFetcher
	Archive ArchiveExtractor

	// Cache, when set, stores remote and archive results per package version.
	Cache    cache.Cache
	Keyer    cache.Keyer
	CacheTTL time.Duration

	Logger *log.Logger
}

// Discover returns the plugin dependencies declared by the package
// described by meta.
func (d *Discoverer) Discover(ctx context.Context, meta *npm.Metadata) ([]pkgspec.Spec, error) {
	specs, _, err := d.DiscoverWithStep(ctx, meta)
	return specs, err
}

// DiscoverWithStep is like Discover and also reports which step answered.
func (d *Discoverer) DiscoverWithStep(ctx context.Context, meta *npm.Metadata) ([]pkgspec.Spec, Step, error) {
	specs, step, err := d.discover(ctx, meta)
	if err == nil {
		observability.Resolve().OnPackageDiscovered(ctx, meta.Name, string(step), len(specs))
		d.logger().Debug("discovered plugin dependencies", "package", meta.Name, "step", step, "count", len(specs))
	}
	return specs, step, err
}

func (d *Discoverer) discover(ctx context.Context, meta *npm.Metadata) ([]pkgspec.Spec, Step, error) {
	if meta == nil {
		return nil, StepNone, nil
	}
	if err := errors.ValidatePackageName(meta.Name); err != nil {
		return nil, StepNone, err
	}

	if specs, ok, err := d.local(meta.Name); ok || err != nil {
		return specs, StepLocal, err
	}

	if specs, step, ok := d.cached(ctx, meta); ok {
		return specs, step, nil
	}

	specs, ok, err := d.remote(ctx, meta)
	if err != nil {
		return nil, StepRemote, err
	}
	if ok {
		d.store(ctx, meta, specs, StepRemote)
		return specs, StepRemote, nil
	}

	specs, ok, err = d.archive(ctx, meta)
	if err != nil {
		return nil, StepArchive, err
	}
	if ok {
		d.store(ctx, meta, specs, StepArchive)
		return specs, StepArchive, nil
	}
	return nil, StepNone, nil
}

// local answers when the package directory exists.
func (d *Discoverer) local(name string) ([]pkgspec.Spec, bool, error) {
	if d.PluginPkgDir == "" {
		return nil, false, nil
	}
	dir := filepath.Join(d.PluginPkgDir, "node_modules", filepath.FromSlash(name))
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, false, nil
	}

	path := filepath.Join(dir, manifest.FileName)
	specs, err := manifest.ReadFile(path)
	if errors.Is(err, errors.ErrCodeAccess) {
		d.logger().Warn("cannot read plugin manifest", "path", path, "err", err)
	}
	return specs, true, err
}

// remote answers unless the repository cannot serve the release.
func (d *Discoverer) remote(ctx context.Context, meta *npm.Metadata) ([]pkgspec.Spec, bool, error) {
	if d.Raw == nil || meta.Version == "" {
		return nil, false, nil
	}
	owner, repo, ok := github.ParseRepoURL(meta.Repository)
	if !ok {
		return nil, false, nil
	}

	for _, ref := range []string{"v" + meta.Version, meta.Version} {
		data, err := d.Raw.Fetch(ctx, owner, repo, ref, manifest.FileName)
		if err == nil {
			specs, err := manifest.Parse(data)
			return specs, true, err
		}
		if !stderrors.Is(err, integrations.ErrNotFound) {
			return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "fetching plugin manifest of %s", meta.Name)
		}

		_, err = d.Raw.Fetch(ctx, owner, repo, ref, probeFile)
		if err == nil {
			return nil, true, nil
		}
		if !stderrors.Is(err, integrations.ErrNotFound) {
			return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "probing repository of %s", meta.Name)
		}
	}
	d.logger().Debug("repository does not serve release", "package", meta.Name, "repo", owner+"/"+repo, "version", meta.Version)
	return nil, false, nil
}

// archive answers when the tarball could be downloaded.
func (d *Discoverer) archive(ctx context.Context, meta *npm.Metadata) ([]pkgspec.Spec, bool, error) {
	if d.Archive == nil || meta.Tarball == "" {
		return nil, false, nil
	}

	var specs []pkgspec.Spec
	err := d.Archive.Extract(ctx, meta.Tarball, func(dir string) error {
		// npm tarballs nest the package under package/.
		for _, p := range []string{
			filepath.Join(dir, manifest.FileName),
			filepath.Join(dir, "package", manifest.FileName),
		} {
			if _, err := os.Stat(p); err != nil {
				continue
			}
			var err error
			specs, err = manifest.ReadFile(p)
			return err
		}
		return nil
	})
	if stderrors.Is(err, integrations.ErrNotFound) {
		d.logger().Warn("distribution archive not found", "package", meta.Name, "url", meta.Tarball)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return specs, true, nil
}

type cachedResult struct {
	Specs []pkgspec.Spec `json:"specs"`
	Step  Step           `json:"step"`
}

func (d *Discoverer) cacheKey(meta *npm.Metadata) string {
	keyer := d.Keyer
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	return keyer.ManifestKey(meta.Name, meta.Version)
}

func (d *Discoverer) cached(ctx context.Context, meta *npm.Metadata) ([]pkgspec.Spec, Step, bool) {
	if d.Cache == nil || meta.Version == "" {
		return nil, "", false
	}
	data, ok, err := d.Cache.Get(ctx, d.cacheKey(meta))
	if err != nil || !ok {
		observability.Cache().OnCacheMiss(ctx, "manifest")
		return nil, "", false
	}
	var r cachedResult
	if json.Unmarshal(data, &r) != nil {
		return nil, "", false
	}
	observability.Cache().OnCacheHit(ctx, "manifest")
	return r.Specs, r.Step, true
}

func (d *Discoverer) store(ctx context.Context, meta *npm.Metadata, specs []pkgspec.Spec, step Step) {
	if d.Cache == nil || meta.Version == "" {
		return
	}
	data, err := json.Marshal(cachedResult{Specs: specs, Step: step})
	if err != nil {
		return
	}
	if err := d.Cache.Set(ctx, d.cacheKey(meta), data, d.CacheTTL); err != nil {
		d.logger().Debug("manifest cache write failed", "package", meta.Name, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, "manifest", len(data))
}

var discard = log.New(io.Discard)

func (d *Discoverer) logger() *log.Logger {
	if d.Logger == nil {
		return discard
	}
	return d.Logger
}
