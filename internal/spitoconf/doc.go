// SPDX-License-Identifier: MPL-2.0

// Package spitoconf models spito configuration files (spito.yml / spito.yaml).
//
// A configuration declares named rules. Each rule points at a script file,
// either as a bare relative path or as a mapping with a required "path" and
// an optional "unsafe" marker:
//
//	rules:
//	  check-sshd: rules/sshd.lua
//	  set-kernel:
//	    path: rules/kernel.lua
//	    unsafe: "true"
//
// Parsing is optimistic: unknown top-level keys are ignored and nothing beyond
// the shape of the rules mapping is validated.
package spitoconf
