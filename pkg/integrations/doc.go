// Package integrations provides HTTP clients for the remote services the
// resolver talks to.
//
// # Overview
//
// This package contains the shared HTTP plumbing. Each remote service has
// its own subpackage:
//
//   - [npm]: npm registry, the metadata source for plugin packages
//   - [github]: raw file access to GitHub-hosted source repositories
//
// # Client Pattern
//
// Service clients embed [Client] and add typed lookups on top:
//
//	client := npm.NewClient(backend, "", 24*time.Hour, logger)
//	meta, err := client.View(ctx, "@acme/plugin-a", "^1.0.0")
//
// Clients handle:
//   - HTTP requests with retry on 5xx and transport failures
//   - Response caching through [cache.Cache] with a configurable TTL
//   - Status classification (404 is [ErrNotFound], everything else non-2xx
//     is [ErrNetwork])
//
// # Observability
//
// Every request reports to [observability.HTTP] and every cache lookup to
// [observability.Cache], so registering Prometheus hooks at startup is
// enough to get per-host request metrics.
//
// [npm]: github.com/liquid-labs/plugable-express-sub000/pkg/integrations/npm
// [github]: github.com/liquid-labs/plugable-express-sub000/pkg/integrations/github
// [cache.Cache]: github.com/liquid-labs/plugable-express-sub000/pkg/cache.Cache
// [observability.HTTP]: github.com/liquid-labs/plugable-express-sub000/pkg/observability.HTTP
// [observability.Cache]: github.com/liquid-labs/plugable-express-sub000/pkg/observability.Cache
package integrations
