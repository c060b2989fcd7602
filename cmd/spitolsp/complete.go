// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/avorty/spito-lsp/internal/completion"

	"github.com/spf13/cobra"
)

var errInvalidPosition = errors.New("invalid position")

func newCompleteCommand(app *App) *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "complete FILE LINE:COL",
		Short: "Print the completions offered at a position",
		Long: `Print the completions the server would offer in FILE at LINE:COL.

LINE and COL are 1-based; COL counts UTF-16 code units like an editor
would. The workspace is loaded from --root (default: the working
directory).`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			line, col, err := parsePosition(args[1])
			if err != nil {
				return err
			}

			file, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}

			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			if root == "" {
				root = "."
			}
			snap, err := app.loadWorkspace(cmd.Context(), cfg, root)
			if err != nil {
				return app.reportIssue(issueFor(err), err)
			}

			provider := completion.NewProvider(snap.Index)
			items := provider.Complete(completion.Request{
				Path:      file,
				Line:      lineAt(string(data), line),
				Character: col,
			})
			if len(items) == 0 {
				if !snap.Index.Contains(file) {
					fmt.Fprintln(app.stdout, WarningStyle.Render("not a rule script: ")+PathStyle.Render(file))
					return nil
				}
				fmt.Fprintln(app.stdout, SubtitleStyle.Render("no completions"))
				return nil
			}
			for _, it := range items {
				kind := it.Kind.String()
				fmt.Fprintf(app.stdout, "%-24s %s\n", it.Label, kindStyles[kind].Render(kind))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&root, "root", "", "workspace root (default is the working directory)")
	return cmd
}

// parsePosition converts a 1-based LINE:COL into 0-based values.
func parsePosition(s string) (line, col int, err error) {
	l, c, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("%w %q: expected LINE:COL", errInvalidPosition, s)
	}
	line, err = strconv.Atoi(l)
	if err != nil || line < 1 {
		return 0, 0, fmt.Errorf("%w %q: line must be a positive integer", errInvalidPosition, s)
	}
	col, err = strconv.Atoi(c)
	if err != nil || col < 1 {
		return 0, 0, fmt.Errorf("%w %q: column must be a positive integer", errInvalidPosition, s)
	}
	return line - 1, col - 1, nil
}

// lineAt returns line n (0-based) of text, or "" past the end.
func lineAt(text string, n int) string {
	for i, l := range strings.Split(text, "\n") {
		if i == n {
			return strings.TrimSuffix(l, "\r")
		}
	}
	return ""
}
