package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/liquid-labs/plugable-express-sub000/pkg/install"
	graphio "github.com/liquid-labs/plugable-express-sub000/pkg/io"
	"github.com/liquid-labs/plugable-express-sub000/pkg/pkgspec"
)

// resolveCommand creates the resolve command, a dry run of install.
func (c *CLI) resolveCommand() *cobra.Command {
	opts := &installOptions{}
	var graphPath string
	cmd := &cobra.Command{
		Use:   "resolve <package>...",
		Short: "Show what install would do without installing anything",
		Long: `Resolve discovers plugin dependencies exactly like install and prints the
packages that would be installed, grouped into waves: every package comes one
wave after its deepest plugin dependency.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runResolve(cmd.Context(), args, opts, graphPath)
		},
	}
	opts.register(cmd)
	cmd.Flags().StringVar(&graphPath, "graph", "", "write the resolved graph as JSON to this file")
	return cmd
}

func (c *CLI) runResolve(ctx context.Context, names []string, opts *installOptions, graphPath string) error {
	requested, err := pkgspec.ParseAll(names)
	if err != nil {
		return err
	}
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	dir, err := opts.pluginPkgDir(cfg)
	if err != nil {
		return err
	}
	plugins, err := install.ScanInstalled(dir)
	if err != nil {
		return err
	}
	installed := make(map[string]bool, len(plugins))
	for _, p := range plugins {
		installed[p.Name] = true
	}

	svc, backend, err := c.newService(ctx, cfg, dir)
	if err != nil {
		return err
	}
	defer backend.Close()

	resolver := *svc.Resolver
	resolver.Options.NoImplicitInstallation = opts.noImplicit

	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, "Resolving plugins...")
	spinner.Start()
	res, err := resolver.Resolve(ctx, requested, installed)
	if err != nil {
		spinner.StopWithError(failureMessage(err))
		return err
	}
	waves, err := res.Graph.Batches()
	if err != nil {
		spinner.StopWithError(failureMessage(err))
		return err
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Resolved %d packages", res.Graph.NodeCount()))

	if graphPath != "" {
		if err := graphio.ExportJSON(res.Graph, installed, graphPath); err != nil {
			return err
		}
		printSuccess("Wrote graph to %s", graphPath)
	}

	if len(res.Packages) == 0 {
		printSuccess("Nothing to install")
		return nil
	}
	printKeyValue("Run", res.RunID)
	printKeyValue("Install", fmt.Sprint(pkgspec.Strings(res.Packages)))
	fmt.Println(StyleTitle.Render("Waves"))
	for i, wave := range waves {
		fmt.Println(formatWave(i, wave))
	}
	for _, name := range res.Order {
		if installed[name] {
			printInfo("%s is already installed", name)
		}
	}
	return nil
}
