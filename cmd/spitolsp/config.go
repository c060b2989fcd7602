// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/avorty/spito-lsp/internal/config"
	"github.com/avorty/spito-lsp/internal/issue"
	"github.com/avorty/spito-lsp/internal/pathmatch"

	"github.com/spf13/cobra"
)

func newConfigCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the server configuration",
	}
	cmd.AddCommand(newConfigShowCommand(app))
	cmd.AddCommand(newConfigPathCommand(app))
	cmd.AddCommand(newConfigDumpCommand(app))
	return cmd
}

func newConfigShowCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return app.reportIssue(issue.ConfigLoadFailedId, err)
			}

			path, err := app.Config.Path(app.loadOptions())
			if err != nil {
				return err
			}
			if path == "" {
				path = "(defaults)"
			}

			debounce := "immediate"
			if cfg.Watch.Debounce > 0 {
				debounce = cfg.Watch.Debounce.String()
			}
			parallel := "unlimited"
			if cfg.Discovery.MaxParallelReads > 0 {
				parallel = fmt.Sprint(cfg.Discovery.MaxParallelReads)
			}
			ignore := "(none)"
			if len(cfg.Watch.Ignore) > 0 {
				ignore = strings.Join(cfg.Watch.Ignore, ", ")
			}

			w := app.stdout
			fmt.Fprintln(w, TitleStyle.Render("Configuration"))
			fmt.Fprintf(w, "  %-20s %s\n", "file", PathStyle.Render(path))
			fmt.Fprintf(w, "  %-20s %s\n", "log_level", cfg.LogLevel)
			fmt.Fprintf(w, "  %-20s %s\n", "language_ids", strings.Join(cfg.LanguageIDs, ", "))
			fmt.Fprintf(w, "  %-20s %s\n", "watch.debounce", debounce)
			fmt.Fprintf(w, "  %-20s %s\n", "watch.ignore", ignore)
			fmt.Fprintf(w, "  %-20s %s\n", "built-in ignore", SubtitleStyle.Render(strings.Join(pathmatch.DefaultIgnores(), ", ")))
			fmt.Fprintf(w, "  %-20s %s\n", "max_parallel_reads", parallel)
			return nil
		},
	}
}

func newConfigPathCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := app.Config.Path(app.loadOptions())
			if err != nil {
				return err
			}
			if path == "" {
				def, err := config.DefaultPath(app.loadOptions())
				if err != nil {
					return err
				}
				fmt.Fprintln(app.stdout, PathStyle.Render(def)+" "+SubtitleStyle.Render("(not found, using defaults)"))
				return nil
			}
			fmt.Fprintln(app.stdout, PathStyle.Render(path))
			return nil
		},
	}
}

func newConfigDumpCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Print the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	}
}
