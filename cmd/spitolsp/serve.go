// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/avorty/spito-lsp/internal/issue"
	"github.com/avorty/spito-lsp/internal/lsp"

	"github.com/spf13/cobra"
)

func newServeCommand(app *App) *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the language server protocol on stdio",
		Long: `Serve the language server protocol on stdin/stdout.

The workspace root comes from the client's initialize request. --root is
used when the client sends none; the working directory is the last resort.
Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return app.reportIssue(issue.ConfigLoadFailedId, err)
			}

			logger := app.newLogger(cfg)
			srv := lsp.NewServer(app.stdin, app.stdout,
				lsp.WithConfig(cfg),
				lsp.WithLogger(logger.WithPrefix("lsp")),
				lsp.WithRoot(root),
				lsp.WithVersion(Version),
			)

			if code := srv.Run(cmd.Context()); code != 0 {
				return &ExitError{Code: code}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&root, "root", "", "workspace root when the client sends none")
	return cmd
}
