package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/shipyard/internal/config"
	"github.com/Iron-Ham/shipyard/internal/util"
	"github.com/Iron-Ham/shipyard/internal/workspace"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the publish order without publishing",
	Long: `Plan validates the workspace's dependency graph and prints the
packages grouped by dependency level. Packages within a level have no
dependencies on each other and may publish concurrently.`,
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)

	flags := planCmd.Flags()
	flags.StringP("dir", "d", "", "workspace root (default is the current directory)")
	_ = viper.BindPFlag("workspace.dir", flags.Lookup("dir"))
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	dir := cfg.Workspace.Dir
	if dir == "" {
		dir = "."
	}
	ws, err := workspace.Load(dir)
	if err != nil {
		return err
	}
	graph := ws.Graph()
	if err := graph.Validate(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "workspace %s: %d %s\n\n",
		ws.Manifest.Name, len(ws.Packages), util.Pluralize(len(ws.Packages), "package", "packages"))

	for i, group := range graph.Groups() {
		fmt.Fprintf(out, "level %d:\n", i)
		for _, name := range group {
			pkg := ws.Packages[name]
			if pkg != nil && pkg.Manifest.Private {
				fmt.Fprintf(out, "  %s (private, not published)\n", name)
				continue
			}
			fmt.Fprintf(out, "  %s\n", name)
		}
	}
	return nil
}
