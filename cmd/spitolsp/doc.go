// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for spito-lsp.
//
// The default command serves the language server on stdio. The remaining
// commands expose the same machinery for debugging from a terminal: the rule
// index of a workspace, completions at a position, the API catalog and the
// effective server configuration.
package cmd
