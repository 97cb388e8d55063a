// Package commands implements the CLI commands for the trvc compiler.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/travetto/travetto-sub016/internal/app"
	"github.com/travetto/travetto-sub016/internal/build"
	"github.com/travetto/travetto-sub016/internal/core/domain"
)

// CLI represents the command line interface for trvc.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	Compile(ctx context.Context, files []string, opts app.CompileOptions) (*domain.CompileResult, error)
	Clean(ctx context.Context, all bool) error
	Watch(ctx context.Context, opts app.WatchOptions) error
	Resolve(ctx context.Context, spec string) (string, error)
	SetPresentation(jsonLogs, verbose bool)
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:           "trvc",
		Short:         "An incremental source transformer for Go workspaces",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().Bool("json", false, "Write logs as JSON")
	rootCmd.PersistentFlags().Bool("verbose", false, "Show debug logs and per-file progress")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		jsonLogs, _ := cmd.Flags().GetBool("json")
		verbose, _ := cmd.Flags().GetBool("verbose")
		c.app.SetPresentation(jsonLogs, verbose)
	}

	rootCmd.AddCommand(c.newCompileCmd())
	rootCmd.AddCommand(c.newCleanCmd())
	rootCmd.AddCommand(c.newWatchCmd())
	rootCmd.AddCommand(c.newResolveCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

// compileFlags registers the flags shared by compile and watch.
func compileFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("parallelism", "p", 0, "Maximum number of files compiled concurrently (default: configured value)")
	cmd.Flags().Bool("force", false, "Bypass cache reads and recompile every affected file")
}

func compileOptions(cmd *cobra.Command) app.CompileOptions {
	parallelism, _ := cmd.Flags().GetInt("parallelism")
	force, _ := cmd.Flags().GetBool("force")
	return app.CompileOptions{Parallelism: parallelism, Force: force}
}
