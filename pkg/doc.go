// Package pkg provides the libraries behind plugable, a plugin dependency
// resolver and installation orchestrator.
//
// # Overview
//
// A plugin package may declare other plugin packages it needs in a
// plugin-dependencies.yaml manifest. Installing one plugin therefore means
// discovering a whole set, checking it and installing it in one step.
//
// The typical data flow:
//
//	requested identifiers
//	         ↓
//	    [pkgspec] (name + version constraint)
//	         ↓
//	    [resolve] worklist, using [integrations/npm] for metadata and
//	    [discovery] for manifests (local copy, GitHub raw file, archive)
//	         ↓
//	    [dag] (incremental cycle checks, overall order, waves)
//	         ↓
//	    [install] (single installer batch, explicit vs implied tagging)
//
// Supporting packages:
//   - [errors]: coded errors and the exposure policy
//   - [cache]: file, Redis and null caches for registry documents and manifests
//   - [manifest]: bounded manifest parsing
//   - [archive]: scoped archive download and extraction
//   - [observability]: hooks with Prometheus implementations
//   - [io]: JSON export of resolved graphs
//
// # Quick Start
//
//	svc := &install.Service{
//	    Resolver: &resolve.Resolver{
//	        Source:     npm.NewClient(cache.NewNullCache(), "", 0, nil),
//	        Discoverer: &discovery.Discoverer{PluginPkgDir: dir},
//	    },
//	    Installer: &install.NpmInstaller{},
//	}
//	resp, err := svc.InstallPlugins(ctx, install.Request{
//	    NpmNames:     []string{"@acme/plugin-auth"},
//	    PluginPkgDir: dir,
//	})
package pkg
