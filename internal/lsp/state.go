// SPDX-License-Identifier: MPL-2.0

package lsp

import (
	"errors"
	"fmt"
)

const (
	// StateCreated means initialize has not been received yet.
	StateCreated State = iota
	// StateRunning means initialize succeeded and requests are served.
	StateRunning
	// StateShuttingDown means shutdown was received; only exit is honored.
	StateShuttingDown
	// StateExited is terminal: exit was received or the stream ended.
	StateExited
)

// ErrInvalidState is returned when a State value is not one of the defined lifecycle states.
var ErrInvalidState = errors.New("invalid state")

type (
	// State is the LSP lifecycle state of a Server.
	State int32

	// InvalidStateError is returned when a State value is not recognized.
	// It wraps ErrInvalidState for errors.Is() compatibility.
	InvalidStateError struct {
		Value State
	}
)

// String returns a human-readable representation of the server state.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting down"
	case StateExited:
		return "exited"
	default:
		return "unknown"
	}
}

// Error implements the error interface for InvalidStateError.
func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid state %d (valid: 0=created, 1=running, 2=shutting down, 3=exited)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidStateError) Unwrap() error {
	return ErrInvalidState
}

// Validate returns nil if the State is one of the defined lifecycle states,
// or an error wrapping ErrInvalidState if it is not.
func (s State) Validate() error {
	switch s {
	case StateCreated, StateRunning, StateShuttingDown, StateExited:
		return nil
	default:
		return &InvalidStateError{Value: s}
	}
}

// IsTerminal reports whether no further messages will be processed.
func (s State) IsTerminal() bool {
	return s == StateExited
}
