// SPDX-License-Identifier: MPL-2.0

package lsp

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.lsp.dev/uri"
)

// ErrNotFileURI is returned for document URIs that do not name a local file.
var ErrNotFileURI = errors.New("lsp: not a file URI")

// URIToPath converts a file:// URI into a clean absolute local path.
func URIToPath(raw string) (string, error) {
	if !strings.HasPrefix(raw, uri.FileScheme+":") {
		return "", fmt.Errorf("%w: %q", ErrNotFileURI, raw)
	}
	u, err := uri.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("lsp: parse uri %q: %w", raw, err)
	}
	// Filename panics on file URIs without an absolute path.
	if !strings.HasPrefix(string(u), uri.FileScheme+":///") {
		return "", fmt.Errorf("%w: %q", ErrNotFileURI, raw)
	}
	return filepath.Clean(u.Filename()), nil
}

// PathToURI converts an absolute local path into a file:// URI.
func PathToURI(path string) string {
	return string(uri.File(path))
}
