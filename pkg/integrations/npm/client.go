package npm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/liquid-labs/plugable-express-sub000/pkg/cache"
	perrors "github.com/liquid-labs/plugable-express-sub000/pkg/errors"
	"github.com/liquid-labs/plugable-express-sub000/pkg/integrations"
)

// DefaultRegistry is the public npm registry.
const DefaultRegistry = "https://registry.npmjs.org"

// fetchTimeout bounds one shared registry fetch, retries included.
const fetchTimeout = 60 * time.Second

// Metadata describes one published version of a package.
//
// Dependencies holds the ordinary runtime dependencies. They are reported
// for completeness; plugin dependencies come from the package's manifest.
type Metadata struct {
	Name         string            // Package name, scoped names included
	Version      string            // Selected version
	Dependencies map[string]string // Runtime dependencies (name -> range)
	Repository   string            // Normalized source repository URL (may be empty)
	Tarball      string            // Distribution archive URL (may be empty)
	Versions     []string          // All published versions, highest first
}

// Client provides access to the npm registry.
// It handles HTTP requests with caching and automatic retries, and
// collapses concurrent lookups of the same package into one request.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
	logger  *log.Logger
	group   singleflight.Group
}

// NewClient creates an npm client for the registry at baseURL. An empty
// baseURL selects [DefaultRegistry]; a nil backend disables caching.
func NewClient(backend cache.Cache, baseURL string, cacheTTL time.Duration, logger *log.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultRegistry
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Client{
		Client:  integrations.NewClient(backend, "npm:", cacheTTL, map[string]string{"Accept": "application/json"}),
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger,
	}
}

// View returns the metadata of the version of name selected by constraint.
//
// An empty constraint selects the "latest" dist-tag. A constraint naming a
// published version or a dist-tag selects it directly; anything else is
// treated as a semver range and the highest satisfying version wins.
//
// Returns:
//   - [integrations.ErrNotFound] if the package or a matching version doesn't exist
//   - [integrations.ErrNetwork] for HTTP failures (timeout, 5xx, etc.)
func (c *Client) View(ctx context.Context, name, constraint string) (*Metadata, error) {
	if err := perrors.ValidateNpmPackageName(name); err != nil {
		return nil, err
	}
	doc, err := c.document(ctx, name, false)
	if err != nil {
		return nil, err
	}

	version, err := selectVersion(doc, constraint)
	if err != nil {
		return nil, fmt.Errorf("npm package %s@%s: %w", name, constraint, err)
	}
	c.logger.Debug("selected version", "package", name, "constraint", constraint, "version", version)

	v := doc.Versions[version]
	return &Metadata{
		Name:         doc.Name,
		Version:      version,
		Dependencies: v.Dependencies,
		Repository:   v.Repository,
		Tarball:      v.Tarball,
		Versions:     doc.sortedVersions(),
	}, nil
}

// document fetches the registry document once per name, sharing the result
// between concurrent callers. The shared fetch runs detached from every
// caller's cancellation, bounded by fetchTimeout; a caller that gives up
// returns its own context error without failing the others.
func (c *Client) document(ctx context.Context, name string, refresh bool) (*packument, error) {
	name = strings.TrimSpace(name)
	ch := c.group.DoChan(name, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()

		var doc packument
		err := c.Cached(fctx, name, refresh, &doc, func() error {
			return c.fetch(fctx, name, &doc)
		})
		if err != nil {
			return nil, err
		}
		return &doc, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*packument), nil
	}
}

func (c *Client) fetch(ctx context.Context, name string, doc *packument) error {
	var data registryResponse
	if err := c.Get(ctx, c.baseURL+"/"+EscapeName(name), &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: npm package %s", err, name)
		}
		return err
	}

	*doc = packument{
		Name:     data.Name,
		DistTags: data.DistTags,
		Versions: make(map[string]versionInfo, len(data.Versions)),
	}
	if doc.Name == "" {
		doc.Name = name
	}
	for ver, v := range data.Versions {
		doc.Versions[ver] = versionInfo{
			Dependencies: v.Dependencies,
			Repository:   integrations.NormalizeRepoURL(extractField(v.Repository, "url")),
			Tarball:      v.Dist.Tarball,
		}
	}
	return nil
}

// EscapeName returns the registry path segment for a package name.
// Scoped names keep their "@" and have the "/" escaped.
func EscapeName(name string) string {
	return strings.Replace(name, "/", "%2F", 1)
}

func extractField(v any, field string) string {
	switch val := v.(type) {
	case string:
		return val
	case map[string]any:
		if s, ok := val[field].(string); ok {
			return s
		}
	}
	return ""
}

// packument is the cached, trimmed form of a registry document.
type packument struct {
	Name     string                 `json:"name"`
	DistTags map[string]string      `json:"dist_tags"`
	Versions map[string]versionInfo `json:"versions"`
}

type versionInfo struct {
	Dependencies map[string]string `json:"dependencies,omitempty"`
	Repository   string            `json:"repository,omitempty"`
	Tarball      string            `json:"tarball,omitempty"`
}

type registryResponse struct {
	Name     string                    `json:"name"`
	DistTags map[string]string         `json:"dist-tags"`
	Versions map[string]versionDetails `json:"versions"`
}

type versionDetails struct {
	Repository   any               `json:"repository"`
	Dependencies map[string]string `json:"dependencies"`
	Dist         struct {
		Tarball string `json:"tarball"`
	} `json:"dist"`
}
