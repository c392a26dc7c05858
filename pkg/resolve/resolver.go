package resolve

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/liquid-labs/plugable-express-sub000/pkg/dag"
	"github.com/liquid-labs/plugable-express-sub000/pkg/errors"
	"github.com/liquid-labs/plugable-express-sub000/pkg/integrations/npm"
	"github.com/liquid-labs/plugable-express-sub000/pkg/observability"
	"github.com/liquid-labs/plugable-express-sub000/pkg/pkgspec"
)

// Source looks up registry metadata for a package version.
// Implemented by [npm.Client].
type Source interface {
	View(ctx context.Context, name, constraint string) (*npm.Metadata, error)
}

// Discoverer returns the plugin dependencies a package declares.
// Implemented by discovery.Discoverer.
type Discoverer interface {
	Discover(ctx context.Context, meta *npm.Metadata) ([]pkgspec.Spec, error)
}

// Resolver turns requested plugin packages into an install set.
// A Resolver holds no per-run state and may be shared.
type Resolver struct {
	Source     Source
	Discoverer Discoverer
	Options    Options
}

// Result is the outcome of one resolution run.
type Result struct {
	RunID    string
	Packages []pkgspec.Spec // Newly resolved packages, in discovery order
	Graph    *dag.DAG       // Every package seen, installed ones included
	Order    []string       // Graph nodes, dependencies first
}

// Names returns the names of the resolved packages.
func (r *Result) Names() []string { return pkgspec.Names(r.Packages) }

// Resolve runs one resolution for requested. Packages whose name is in
// installed are never part of the result.
func (r *Resolver) Resolve(ctx context.Context, requested []pkgspec.Spec, installed map[string]bool) (*Result, error) {
	opts := r.Options.WithDefaults()
	runID := uuid.NewString()
	logger := opts.Logger.With("run", runID)

	hooks := observability.Resolve()
	hooks.OnResolveStart(ctx, runID, len(requested))
	start := time.Now()

	res, err := r.run(ctx, &state{
		opts:      opts,
		logger:    logger,
		guard:     NewGuard(opts.Limits),
		graph:     dag.New(),
		installed: installed,
		processed: make(map[string]bool),
	}, requested)

	count := 0
	if res != nil {
		res.RunID = runID
		count = len(res.Packages)
	}
	hooks.OnResolveComplete(ctx, runID, count, time.Since(start), err)
	if err != nil {
		logger.Debug("resolution failed", "error", err)
		return nil, err
	}
	return res, nil
}

// state is owned by a single run.
type state struct {
	opts      Options
	logger    *log.Logger
	guard     *Guard
	graph     *dag.DAG
	installed map[string]bool
	processed map[string]bool
	packages  []pkgspec.Spec
}

func (r *Resolver) run(ctx context.Context, s *state, requested []pkgspec.Spec) (*Result, error) {
	queue := make([]pkgspec.Spec, 0, len(requested))
	for _, spec := range requested {
		if pkgspec.IsLocalPath(spec.Name) {
			queue = append(queue, spec)
			continue
		}
		if err := errors.ValidatePackageName(spec.Name); err != nil {
			return nil, err
		}
		queue = append(queue, spec)
	}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := s.guard.CheckIteration(); err != nil {
			return nil, err
		}

		spec := queue[0]
		queue = queue[1:]
		if s.processed[spec.Name] {
			continue
		}
		s.processed[spec.Name] = true

		if err := s.addNode(spec.Name); err != nil {
			return nil, err
		}
		installed := s.installed[spec.Name]
		if installed {
			s.logger.Debug("already installed", "package", spec.Name)
		} else {
			s.packages = append(s.packages, spec)
		}
		// Local directories have no registry entry to discover from.
		if s.opts.NoImplicitInstallation || pkgspec.IsLocalPath(spec.Name) {
			continue
		}

		var deps []pkgspec.Spec
		var err error
		if installed {
			deps, err = r.installedDependencies(ctx, spec)
		} else {
			deps, err = r.dependencies(ctx, s, spec)
		}
		if err != nil {
			return nil, err
		}
		if err := s.guard.CheckDependencies(spec.Name, len(deps)); err != nil {
			return nil, err
		}
		for _, dep := range deps {
			if err := s.link(spec.Name, dep.Name); err != nil {
				return nil, err
			}
			if !s.processed[dep.Name] {
				queue = append(queue, dep)
			}
		}
	}

	if err := s.graph.Validate(); err != nil {
		return nil, err
	}
	order, err := s.graph.OverallOrder()
	if err != nil {
		return nil, err
	}
	s.logger.Debug("resolved", "packages", pkgspec.Names(s.packages), "order", order)

	return &Result{Packages: s.packages, Graph: s.graph, Order: order}, nil
}

// dependencies looks up metadata and discovers plugin dependencies for
// spec. A failed lookup degrades to a name-only discovery, which only the
// local copy can answer; a failed discovery aborts the run.
func (r *Resolver) dependencies(ctx context.Context, s *state, spec pkgspec.Spec) ([]pkgspec.Spec, error) {
	if r.Source == nil || r.Discoverer == nil {
		return nil, nil
	}
	meta, err := r.Source.View(ctx, spec.Name, spec.Constraint)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("metadata lookup failed, only a local copy can declare plugin dependencies",
			"package", spec.String(), "error", errors.Wrap(errors.ErrCodeInternal, err, "view %s", spec.Name))
		// Without a version, repository and tarball only the local step can answer.
		meta = &npm.Metadata{Name: spec.Name}
	} else {
		s.logger.Debug("resolved version", "package", spec.Name, "version", meta.Version)
	}

	deps, err := r.Discoverer.Discover(ctx, meta)
	if err != nil {
		return nil, fmt.Errorf("discover plugin dependencies of %s: %w", spec.Name, err)
	}
	return deps, nil
}

// installedDependencies reads the manifest of an installed package from its
// local copy. The registry is not consulted: the installed version, not the
// latest one, declares the edges.
func (r *Resolver) installedDependencies(ctx context.Context, spec pkgspec.Spec) ([]pkgspec.Spec, error) {
	if r.Discoverer == nil {
		return nil, nil
	}
	deps, err := r.Discoverer.Discover(ctx, &npm.Metadata{Name: spec.Name})
	if err != nil {
		return nil, fmt.Errorf("discover plugin dependencies of installed %s: %w", spec.Name, err)
	}
	return deps, nil
}

func (s *state) addNode(name string) error {
	if s.graph.HasNode(name) {
		return nil
	}
	if err := s.guard.CheckPackages(s.graph.NodeCount() + 1); err != nil {
		return err
	}
	_, err := s.graph.AddNode(name)
	return err
}

// link records from→to and fails as soon as the edge closes a cycle.
func (s *state) link(from, to string) error {
	if err := errors.ValidatePackageName(to); err != nil {
		return err
	}
	if err := s.addNode(to); err != nil {
		return err
	}
	added, err := s.graph.AddEdge(from, to)
	if err != nil || !added {
		return err
	}
	if cycle := s.graph.FindCycleFrom(to); cycle != nil {
		return &errors.DependencyError{Package: from, Cycle: cycle}
	}
	return nil
}
