package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Clear cached records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			all, _ := cmd.Flags().GetBool("all")
			return c.app.Clean(cmd.Context(), all)
		},
	}
	cmd.Flags().BoolP("all", "a", false, "Also remove compiled outputs and the manifest")
	return cmd
}
