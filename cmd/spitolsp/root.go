// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/avorty/spito-lsp/internal/issue"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree for app. Without a subcommand the
// language server is started.
func NewRootCommand(app *App) *cobra.Command {
	serveCmd := newServeCommand(app)

	rootCmd := &cobra.Command{
		Use:   "spito-lsp",
		Short: "Language server for spito rule scripts",
		Long: TitleStyle.Render("spito-lsp") + SubtitleStyle.Render(" - Language server for spito rule scripts") + `

spito-lsp completes the spito Lua API inside rule scripts. A script is a
rule when a spito.yml or spito.yaml file in the workspace lists it under
"rules".

` + SubtitleStyle.Render("Examples:") + `
  spito-lsp                       Serve LSP on stdio
  spito-lsp index .               Show which scripts are rules
  spito-lsp complete a.lua 3:9    Show completions at line 3, column 9
  spito-lsp catalog               Show the API catalog`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serveCmd.RunE,
	}
	rootCmd.Flags().AddFlagSet(serveCmd.Flags())

	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable debug logging on stderr")
	rootCmd.PersistentFlags().StringVar(&app.cfgFile, "config", "", "config file (default is $HOME/.config/spito-lsp/config.cue)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(newIndexCommand(app))
	rootCmd.AddCommand(newCompleteCommand(app))
	rootCmd.AddCommand(newCatalogCommand(app))
	rootCmd.AddCommand(newConfigCommand(app))

	rootCmd.SetIn(app.stdin)
	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)
	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and returns the process exit code. It is called by
// main.main().
func Execute() int {
	app := NewApp(Dependencies{})
	err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	)
	if err == nil {
		return 0
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}

// formatErrorForDisplay formats an error for user display. Actionable errors
// list their suggestions; verbose mode adds the error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	return issue.FormatForDisplay(err, verboseMode)
}
