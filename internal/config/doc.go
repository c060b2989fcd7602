// SPDX-License-Identifier: MPL-2.0

// Package config handles server configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/spito-lsp/config.cue (or the XDG equivalent on
// Linux, ~/Library/Application Support/spito-lsp/config.cue on macOS,
// %APPDATA%\spito-lsp\config.cue on Windows), or from an explicit path. Files are
// validated against the embedded config_schema.cue before being merged over the
// defaults. Environment variables prefixed with SPITO_LSP_ override both.
package config
