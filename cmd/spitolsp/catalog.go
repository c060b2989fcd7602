// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/avorty/spito-lsp/internal/catalog"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

func newCatalogCommand(app *App) *cobra.Command {
	var (
		style string
		raw   bool
	)

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Show the Lua API offered in rule scripts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			md := catalogMarkdown(catalog.Default())
			if raw {
				fmt.Fprint(app.stdout, md)
				return nil
			}

			out, err := glamour.Render(md, style)
			if err != nil {
				return fmt.Errorf("render catalog: %w", err)
			}
			fmt.Fprint(app.stdout, out)
			return nil
		},
	}
	cmd.Flags().StringVar(&style, "style", "dark", "glamour style (dark, light, notty, ...)")
	cmd.Flags().BoolVar(&raw, "raw", false, "print markdown without rendering")
	return cmd
}

// catalogMarkdown lists every namespace of root as a heading followed by its
// members.
func catalogMarkdown(root *catalog.Node) string {
	var sb strings.Builder
	sb.WriteString("# spito Lua API\n")

	root.Walk(func(path string, node *catalog.Node) bool {
		if !node.IsNamespace() {
			return true
		}
		depth := min(strings.Count(path, ".")+2, 6)
		fmt.Fprintf(&sb, "\n%s `%s`\n\n", strings.Repeat("#", depth), path)
		for name, child := range node.Children() {
			switch child.Kind() {
			case catalog.KindNamespace:
				fmt.Fprintf(&sb, "- `%s` namespace\n", name)
			case catalog.KindMethod:
				fmt.Fprintf(&sb, "- `%s()` method\n", name)
			default:
				fmt.Fprintf(&sb, "- `%s` %s\n", name, child.Value())
			}
		}
		return true
	})
	return sb.String()
}
