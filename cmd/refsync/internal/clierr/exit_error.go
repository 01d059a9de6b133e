// SPDX-License-Identifier: AGPL-3.0-or-later

// Package clierr carries process exit codes through ordinary error returns.
package clierr

import (
	"errors"
	"fmt"
)

// Exit codes used by refsync.
const (
	CodeGeneric    = 1
	CodeUsage      = 2 // bad flags or configuration
	CodeFilesystem = 3 // generating or writing the update files
	CodePublish    = 4 // clone, commit or push
	CodeAborted    = 130
)

type ExitCoder interface {
	error
	ExitCode() int
}

// ExitError is an error that carries an explicit process exit code.
// It supports wrapping via Unwrap so errors.Is/As work as expected.
type ExitError struct {
	code  int
	msg   string
	cause error
}

func (e *ExitError) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return fmt.Sprintf("%s: %v", e.msg, e.cause)
}

func (e *ExitError) ExitCode() int { return e.code }

func (e *ExitError) Unwrap() error { return e.cause }

// New creates an ExitError with a message.
func New(code int, msg string) error {
	return &ExitError{code: normalize(code), msg: msg}
}

// Wrap creates an ExitError that wraps an underlying cause.
func Wrap(code int, msg string, cause error) error {
	if cause == nil {
		return New(code, msg)
	}
	return &ExitError{code: normalize(code), msg: msg, cause: cause}
}

// Usage marks err as a configuration problem.
func Usage(err error) error {
	if err == nil {
		return nil
	}
	return Wrap(CodeUsage, "invalid configuration", err)
}

// ExitCodeOf extracts an exit code from any error, defaulting to 1.
func ExitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	var ec ExitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}
	return CodeGeneric
}

func normalize(code int) int {
	// Exit code 0 means success; errors should never be 0.
	if code <= 0 {
		return CodeGeneric
	}
	return code
}
