// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// MustWriteFile writes content to path, creating missing parent directories.
// The test fails immediately if the operation fails.
func MustWriteFile(t testing.TB, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create directory %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// WriteTree creates files below a fresh temporary directory and returns the
// directory. Keys are slash-separated paths relative to it.
func WriteTree(t testing.TB, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		MustWriteFile(t, filepath.Join(root, filepath.FromSlash(name)), content)
	}
	return root
}

// MustRemoveAll removes path and any children it contains.
// The test fails immediately if the operation fails.
func MustRemoveAll(t testing.TB, path string) {
	t.Helper()
	if err := os.RemoveAll(path); err != nil {
		t.Fatalf("failed to remove %s: %v", path, err)
	}
}

// MustRename moves oldpath to newpath.
// The test fails immediately if the operation fails.
func MustRename(t testing.TB, oldpath, newpath string) {
	t.Helper()
	if err := os.Rename(oldpath, newpath); err != nil {
		t.Fatalf("failed to rename %s to %s: %v", oldpath, newpath, err)
	}
}
