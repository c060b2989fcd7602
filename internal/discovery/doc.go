// SPDX-License-Identifier: MPL-2.0

// Package discovery finds spito configuration files in a workspace and loads
// them.
//
// Every file named spito.yaml or spito.yml below the workspace root is read
// (concurrently, joined before parsing) and parsed into a
// spitoconf.ConfWithPath. A single unreadable or malformed file fails the
// whole load so callers never see a partial workspace.
package discovery
