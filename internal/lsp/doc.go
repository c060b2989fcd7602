// SPDX-License-Identifier: MPL-2.0

// Package lsp serves spito API completion over the Language Server Protocol.
//
// The connection is a JSON-RPC 2.0 stream with Content-Length framing
// (normally stdio) handled by sourcegraph/jsonrpc2; message shapes come from
// go.lsp.dev/protocol. Incoming messages are handled one at a time in arrival
// order. Refreshes started by the change watcher notify the client from their
// own goroutines.
package lsp
