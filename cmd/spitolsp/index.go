// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/avorty/spito-lsp/internal/workspace"

	"github.com/spf13/cobra"
)

func newIndexCommand(app *App) *cobra.Command {
	var scriptsOnly bool

	cmd := &cobra.Command{
		Use:   "index [DIR]",
		Short: "Show the rule scripts declared in a workspace",
		Long: `Discover every spito.yaml and spito.yml below DIR (default: the working
directory) and print which configuration owns each rule script. With
--scripts only the sorted script paths are printed, one per line.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}

			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}

			snap, err := app.loadWorkspace(cmd.Context(), cfg, root)
			if err != nil {
				return app.reportIssue(issueFor(err), err)
			}

			absRoot, err := filepath.Abs(root)
			if err != nil {
				return err
			}
			if scriptsOnly {
				for _, s := range snap.Index.Scripts() {
					fmt.Fprintln(app.stdout, relTo(absRoot, s))
				}
				return nil
			}
			printIndex(app.stdout, absRoot, snap)
			return nil
		},
	}
	cmd.Flags().BoolVar(&scriptsOnly, "scripts", false, "print only the rule script paths")
	return cmd
}

func printIndex(w io.Writer, root string, snap *workspace.Snapshot) {
	fmt.Fprintln(w, TitleStyle.Render("Workspace")+" "+PathStyle.Render(root))
	fmt.Fprintf(w, "%s\n\n", SubtitleStyle.Render(fmt.Sprintf("%d configuration(s), %d rule script(s)", len(snap.Configs), snap.Index.Len())))

	byOwner := snap.Index.ByOwner()
	for _, c := range snap.Configs {
		fmt.Fprintln(w, PathStyle.Render(relTo(root, c.SelfPath)))

		scripts := byOwner[c.SelfPath]
		if len(scripts) == 0 {
			fmt.Fprintln(w, "  "+SubtitleStyle.Render("(no rules)"))
			continue
		}
		for _, s := range scripts {
			fmt.Fprintln(w, "  "+SuccessStyle.Render(relTo(root, s)))
		}
	}
}

func relTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
