package resolve

import (
	"sync/atomic"

	"github.com/liquid-labs/plugable-express-sub000/pkg/errors"
)

// Default ceilings applied by [Limits.WithDefaults].
const (
	DefaultMaxPackages               = 500
	DefaultMaxDependenciesPerPackage = 100
	DefaultMaxIterations             = 1000
)

// Limit types reported in *errors.ResourceLimitError.
const (
	LimitPackages     = "packages"
	LimitDependencies = "dependencies per package"
	LimitIterations   = "iterations"
)

// Limits bounds a single resolution run.
type Limits struct {
	MaxPackages               int // Distinct packages ever added to the graph
	MaxDependenciesPerPackage int // Plugin dependencies declared by one package
	MaxIterations             int // Worklist items processed
}

// WithDefaults returns a copy of Limits with zero values replaced by defaults.
func (l Limits) WithDefaults() Limits {
	if l.MaxPackages <= 0 {
		l.MaxPackages = DefaultMaxPackages
	}
	if l.MaxDependenciesPerPackage <= 0 {
		l.MaxDependenciesPerPackage = DefaultMaxDependenciesPerPackage
	}
	if l.MaxIterations <= 0 {
		l.MaxIterations = DefaultMaxIterations
	}
	return l
}

// Guard enforces Limits during discovery. Counters are atomic so one Guard
// may be shared by concurrent branches of a run.
type Guard struct {
	limits     Limits
	iterations atomic.Int64
}

// NewGuard creates a Guard for limits, filling zero values with defaults.
func NewGuard(limits Limits) *Guard {
	return &Guard{limits: limits.WithDefaults()}
}

// Limits returns the effective limits.
func (g *Guard) Limits() Limits { return g.limits }

// CheckIteration counts one worklist iteration and fails once the count
// exceeds MaxIterations.
func (g *Guard) CheckIteration() error {
	n := g.iterations.Add(1)
	return check(LimitIterations, int(n), g.limits.MaxIterations)
}

// Iterations returns the number of iterations counted so far.
func (g *Guard) Iterations() int { return int(g.iterations.Load()) }

// CheckDependencies fails when a package declares more than
// MaxDependenciesPerPackage plugin dependencies.
func (g *Guard) CheckDependencies(name string, n int) error {
	if err := check(LimitDependencies, n, g.limits.MaxDependenciesPerPackage); err != nil {
		return errors.Wrap(errors.ErrCodeResourceLimit, err, "package %s declares too many plugin dependencies", name)
	}
	return nil
}

// CheckPackages fails when the graph would hold n distinct packages and n
// exceeds MaxPackages. Call it before adding a node.
func (g *Guard) CheckPackages(n int) error {
	return check(LimitPackages, n, g.limits.MaxPackages)
}

func check(limitType string, current, maximum int) error {
	if current > maximum {
		return &errors.ResourceLimitError{LimitType: limitType, Current: current, Maximum: maximum}
	}
	return nil
}
