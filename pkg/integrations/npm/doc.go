// Package npm provides a metadata source backed by the npm registry API.
//
// # Overview
//
// This package fetches package documents from an npm-compatible registry
// (https://registry.npmjs.org by default) and selects one version per
// lookup.
//
// # Usage
//
//	client := npm.NewClient(backend, "", 24*time.Hour, logger)
//
//	meta, err := client.View(ctx, "@acme/plugin-a", "^1.2.0")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(meta.Name, meta.Version, meta.Repository, meta.Tarball)
//
// # Version Selection
//
// Candidates are ordered by semver precedence, highest first, and the first
// one satisfying the constraint is selected. An empty constraint follows the
// "latest" dist-tag. Versions that are not valid semver are never selected
// by a range.
//
// # Caching
//
// The trimmed registry document is cached per package under "npm:<name>",
// so different constraints for the same package share one request.
// Concurrent lookups of the same package are collapsed with singleflight.
package npm
