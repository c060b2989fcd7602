// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers shared by tests: filesystem fixtures
// that fail the test on error and a manually advanced clock.
package testutil
