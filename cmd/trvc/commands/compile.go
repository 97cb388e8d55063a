package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newCompileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "compile [files...]",
		Aliases: []string{"build"},
		Short:   "Compile the workspace, or only the given files and what depends on them",
		Args:    cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := c.app.Compile(cmd.Context(), args, compileOptions(cmd))
			return err
		},
	}
	compileFlags(cmd)
	return cmd
}
