package commands

import (
	"runtime"

	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/app"
)

func (c *CLI) newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [components...]",
		Short: "Build components and their dependencies",
		Long: "Build the named components after everything they depend on.\n" +
			"Without arguments the project's default targets are built.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")
			jobs, _ := cmd.Flags().GetInt("jobs")
			download, _ := cmd.Flags().GetBool("download-deps")
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			keepGoing, _ := cmd.Flags().GetBool("keep-going")

			if !cmd.Flags().Changed("jobs") {
				jobs = 0
			}

			return c.app.Build(cmd.Context(), args, app.BuildOptions{
				LoadOptions: c.loadOptions(),
				Force:       force,
				Jobs:        jobs,
				Download:    download,
				DryRun:      dryRun,
				FailFast:    !keepGoing,
			})
		},
	}
	cmd.Flags().BoolP("force", "f", false, "Rebuild every job regardless of timestamps")
	cmd.Flags().IntP("jobs", "j", runtime.NumCPU(), "Maximum number of concurrent jobs")
	cmd.Flags().BoolP("download-deps", "d", false, "Install packages and fetch submodules before building")
	cmd.Flags().BoolP("dry-run", "n", false, "Print the build plan without running it")
	cmd.Flags().BoolP("keep-going", "k", false, "Run every job even after a failure")
	return cmd
}

func (c *CLI) newDepsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deps [components...]",
		Short: "Install packages and fetch submodules the components need",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Deps(cmd.Context(), args, c.loadOptions())
		},
	}
}

func (c *CLI) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the components of the project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.List(cmd.Context(), c.loadOptions())
		},
	}
}
