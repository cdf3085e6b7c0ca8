// Package command abstracts where deployment commands execute: on the local
// host, inside a Docker container, or on a remote host over SSH. The installer
// layers are written against the Shell interface and do not care which one
// they are driving.
package command

import (
	"context"
	"errors"
	"io"

	"github.com/kballard/go-shellquote"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrCommandFailed is returned when a command exits non-zero and the
	// caller did not opt into MayFail.
	ErrCommandFailed = errors.New("command failed")

	// ErrEmptyCommand is returned when Run is called with no arguments.
	ErrEmptyCommand = errors.New("empty command")
)

// =============================================================================
// Shell Interface
// =============================================================================

// Result holds the outcome of a completed command.
type Result struct {
	Status int    // process exit status
	Stdout string // captured standard output
}

// RunOptions controls a single command invocation.
type RunOptions struct {
	// MayFail makes a non-zero exit status an ordinary Result instead of an
	// error. Transport failures (cannot start, connection lost) are still
	// errors.
	MayFail bool

	// Env holds extra KEY=VALUE pairs appended to the command environment.
	Env []string

	// Stdin, when non-nil, is fed to the command's standard input.
	Stdin io.Reader
}

// Shell runs commands and manipulates files on some target system.
type Shell interface {
	Run(ctx context.Context, argv []string, opts RunOptions) (Result, error)
	FileExists(ctx context.Context, path string) (bool, error)
	WriteFile(ctx context.Context, path string, content []byte) error
}

// =============================================================================
// Command Strings
// =============================================================================

// Split parses a command string into arguments, honoring shell quoting.
func Split(cmd string) ([]string, error) {
	return shellquote.Split(cmd)
}

// Join renders arguments as a single shell-safe command string. Used both for
// logging and for shells that execute through `sh -c`.
func Join(argv []string) string {
	return shellquote.Join(argv...)
}
