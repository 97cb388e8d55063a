package commands

import (
	"github.com/spf13/cobra"
	"github.com/travetto/travetto-sub016/internal/app"
)

func (c *CLI) newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Build the workspace, then recompile files as they change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			return c.app.Watch(cmd.Context(), app.WatchOptions{
				CompileOptions: compileOptions(cmd),
				Addr:           addr,
			})
		},
	}
	compileFlags(cmd)
	cmd.Flags().String("addr", "", "Serve health, metrics and manifest endpoints on host:port")
	return cmd
}
