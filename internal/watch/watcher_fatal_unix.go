// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package watch

import (
	"errors"
	"syscall"
)

// isFatalFsnotifyError reports whether err means inotify can no longer
// deliver events: the watch limit (ENOSPC) or a descriptor limit (EMFILE,
// ENFILE) was hit. A language server keeps serving completions without a
// watcher, so Run returns and the caller decides what to log.
func isFatalFsnotifyError(err error) bool {
	return errors.Is(err, syscall.ENOSPC) ||
		errors.Is(err, syscall.EMFILE) ||
		errors.Is(err, syscall.ENFILE)
}
