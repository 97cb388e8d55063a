package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/travetto/travetto-sub016/internal/build"
)

func (c *CLI) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the application version",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "trvc version %s (commit: %s, date: %s)\n", build.Version, build.Commit, build.Date)
		},
	}
}
