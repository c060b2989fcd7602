// SPDX-License-Identifier: MPL-2.0

// Command spito-lsp is a language server for spito rule scripts.
package main

import (
	"os"

	cmd "github.com/avorty/spito-lsp/cmd/spitolsp"
)

func main() {
	os.Exit(cmd.Execute())
}
