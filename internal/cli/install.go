package cli

import (
	"context"
	"fmt"
	"maps"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/liquid-labs/plugable-express-sub000/internal/config"
	"github.com/liquid-labs/plugable-express-sub000/pkg/errors"
	"github.com/liquid-labs/plugable-express-sub000/pkg/install"
)

// installOptions holds the flags shared by install and resolve.
type installOptions struct {
	dir        string
	noImplicit bool
	devPaths   map[string]string
}

func (o *installOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.dir, "dir", "", "plugin package directory (default from config)")
	cmd.Flags().BoolVar(&o.noImplicit, "no-implicit", false, "install only the named packages, not their plugin dependencies")
}

// pluginPkgDir returns the flag value, falling back to the configuration.
func (o *installOptions) pluginPkgDir(cfg *config.Config) (string, error) {
	dir := o.dir
	if dir == "" {
		dir = cfg.PluginPkgDir
	}
	return filepath.Abs(dir)
}

// mergedDevPaths overlays the flag values on the configured dev paths.
func (o *installOptions) mergedDevPaths(cfg *config.Config) map[string]string {
	out := maps.Clone(cfg.DevPaths)
	if out == nil {
		out = make(map[string]string)
	}
	maps.Copy(out, o.devPaths)
	return out
}

// installCommand creates the install command.
func (c *CLI) installCommand() *cobra.Command {
	opts := &installOptions{}
	cmd := &cobra.Command{
		Use:   "install <package>...",
		Short: "Install plugins together with their plugin dependencies",
		Long: `Install resolves the plugin dependencies declared by each package, checks the
result for cycles and resource limits, and installs every package that is not
installed yet with a single npm invocation.

Packages are given as "name", "name@range" or "@scope/name@range".`,
		Example: `  plugable install @acme/plugin-auth
  plugable install plugin-a@^1.2.0 plugin-b --dir ./plugins
  plugable install plugin-a --dev-path plugin-a=../plugin-a`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInstall(cmd.Context(), args, opts)
		},
	}
	opts.register(cmd)
	cmd.Flags().StringToStringVar(&opts.devPaths, "dev-path", nil, "install a package from a local directory (name=path)")
	return cmd
}

func (c *CLI) runInstall(ctx context.Context, names []string, opts *installOptions) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	dir, err := opts.pluginPkgDir(cfg)
	if err != nil {
		return err
	}
	installed, err := install.ScanInstalled(dir)
	if err != nil {
		return err
	}

	svc, backend, err := c.newService(ctx, cfg, dir)
	if err != nil {
		return err
	}
	defer backend.Close()

	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, "Resolving plugins...")
	spinner.Start()

	var rescanned int
	resp, err := svc.InstallPlugins(ctx, install.Request{
		InstalledPlugins:       installed,
		NpmNames:               names,
		PluginPkgDir:           dir,
		NoImplicitInstallation: opts.noImplicit,
		DevPaths:               opts.mergedDevPaths(cfg),
		ReloadFunc: func(context.Context) error {
			after, err := install.ScanInstalled(dir)
			rescanned = len(after)
			return err
		},
		Reporter: install.ReporterFunc(func(msg string) {
			spinner.SetMessage(msg)
			reporter(c.Logger)(msg)
		}),
	})
	if err != nil {
		spinner.StopWithError(failureMessage(err))
		return err
	}
	spinner.Stop()

	if resp.Msg == install.MsgAlreadyInstalled {
		printSuccess("All requested plugins are already installed")
		for _, name := range resp.Data.AlreadyInstalled {
			printDetail("%s", name)
		}
		return nil
	}

	prog.done(fmt.Sprintf("Installed %d plugins", resp.Data.Total))
	printSuccess("Installed plugins into %s", dir)
	for _, p := range resp.Data.Installed {
		fmt.Println(formatPlugin(p))
	}
	fmt.Println(formatCounts(resp.Data))
	if len(resp.Data.AlreadyInstalled) > 0 {
		printDetail("already installed: %v", resp.Data.AlreadyInstalled)
	}
	printDetail("%d plugins present after install", rescanned)
	return nil
}

// failureMessage renders err for the terminal using the same exposure
// rules as the HTTP API.
func failureMessage(err error) string {
	code, msg := errors.Expose(err)
	return fmt.Sprintf("%s (%s)", msg, code)
}
