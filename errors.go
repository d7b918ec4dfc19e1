// Copyright 2026 The Memora Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memora

import "fmt"

// Kind classifies the different ways Memora can fail, so that callers (in
// particular cmd/memora) can decide how to report an error without string
// matching.
type Kind int

const (
	// KindUnknown is the zero value; it should never appear in a returned error.
	KindUnknown Kind = iota
	// KindConfig indicates a problem with the manifest or its configuration.
	KindConfig
	// KindResolve indicates an artifact name did not resolve, or resolved
	// ambiguously, against the manifest.
	KindResolve
	// KindVCS indicates the version control tool failed or returned something
	// Memora could not interpret.
	KindVCS
	// KindIO indicates a filesystem operation (copy, lock, read) failed.
	KindIO
	// KindInput indicates the caller gave Memora something it can't use, such
	// as the wrong number of command-line arguments or an input path with no
	// commit history.
	KindInput
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config error"
	case KindResolve:
		return "resolve error"
	case KindVCS:
		return "vcs error"
	case KindIO:
		return "io error"
	case KindInput:
		return "input error"
	default:
		return "error"
	}
}

// Error is the error type returned by every exported Memora operation. It
// carries a Kind so callers can branch on the failure category, and wraps an
// underlying cause for diagnostics.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Unwrap exposes the underlying cause to errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.Cause }

func newError(k Kind, msg string) error {
	return &Error{Kind: k, Msg: msg}
}

func wrapError(k Kind, cause error, msg string) error {
	if cause == nil {
		return newError(k, msg)
	}
	return &Error{Kind: k, Msg: msg, Cause: cause}
}

// ConfigError reports a problem loading or interpreting a manifest.
func ConfigError(cause error, msg string) error { return wrapError(KindConfig, cause, msg) }

// ResolveError reports an artifact name that failed to resolve.
func ResolveError(msg string) error { return newError(KindResolve, msg) }

// VCSError reports a failure of the underlying version control tool.
func VCSError(cause error, msg string) error { return wrapError(KindVCS, cause, msg) }

// IOError reports a filesystem failure.
func IOError(cause error, msg string) error { return wrapError(KindIO, cause, msg) }

// InputError reports bad input from a caller, such as a malformed argument
// list. Unknown artifact names are reported with ResolveError instead.
func InputError(msg string) error { return newError(KindInput, msg) }
