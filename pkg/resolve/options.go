package resolve

import (
	"io"

	"github.com/charmbracelet/log"
)

// Options configures a resolution run.
type Options struct {
	Limits Limits      // Resource ceilings (defaults: 500 packages, 100 deps, 1000 iterations)
	Logger *log.Logger // Progress and warnings (optional)

	// NoImplicitInstallation resolves only the requested packages, without
	// looking up metadata or discovering plugin dependencies.
	NoImplicitInstallation bool
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	opts.Limits = opts.Limits.WithDefaults()
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return opts
}
