package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	graphio "github.com/liquid-labs/plugable-express-sub000/pkg/io"
)

// graphCommand creates the graph command, which inspects a graph written by
// resolve --graph without touching the registry.
func (c *CLI) graphCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "graph <file>",
		Short: "Show the install waves of a previously exported graph",
		Long: `Graph reads a JSON graph written by "plugable resolve --graph", checks it
for cycles and prints its install waves and overall order.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadGraphSummary(args[0])
			if err != nil {
				return err
			}
			c.Logger.Debug("graph loaded", "file", args[0], "nodes", len(s.order))
			printGraphSummary(s)
			return nil
		},
	}
}

type graphSummary struct {
	order     []string
	waves     [][]string
	installed []string
}

func loadGraphSummary(path string) (*graphSummary, error) {
	g, installed, err := graphio.ImportJSON(path)
	if err != nil {
		return nil, err
	}
	order, err := g.OverallOrder()
	if err != nil {
		return nil, err
	}
	waves, err := g.Batches()
	if err != nil {
		return nil, err
	}
	s := &graphSummary{order: order, waves: waves}
	for _, name := range order {
		if installed[name] {
			s.installed = append(s.installed, name)
		}
	}
	return s, nil
}

func printGraphSummary(s *graphSummary) {
	printKeyValue("Packages", fmt.Sprint(len(s.order)))
	fmt.Println(StyleTitle.Render("Waves"))
	for i, wave := range s.waves {
		fmt.Println(formatWave(i, wave))
	}
	for _, name := range s.installed {
		printInfo("%s is already installed", name)
	}
}
