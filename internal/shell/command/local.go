package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
)

// =============================================================================
// Local Shell
// =============================================================================

// LocalShell executes commands on the local host, streaming their output
// while capturing stdout for the caller. Each command is echoed to Stdout
// with a "$ " prefix before it runs.
type LocalShell struct {
	Logger *slog.Logger
	Stdout io.Writer // command output and echo; defaults to os.Stdout
	Stderr io.Writer // command error output; defaults to os.Stderr
	Dir    string    // working directory; empty means inherit
}

// NewLocalShell creates a local shell writing to the process stdio.
func NewLocalShell(logger *slog.Logger) *LocalShell {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalShell{
		Logger: logger,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Run executes argv locally.
func (s *LocalShell) Run(ctx context.Context, argv []string, opts RunOptions) (Result, error) {
	if len(argv) == 0 {
		return Result{}, ErrEmptyCommand
	}

	fmt.Fprintf(s.Stdout, "$ %s\n", Join(argv))
	s.Logger.Debug("running local command", "cmd", argv[0], "args", argv[1:])

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = s.Dir

	var captured bytes.Buffer
	cmd.Stdout = io.MultiWriter(&captured, s.Stdout)
	cmd.Stderr = s.Stderr

	if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), opts.Env...)
	}
	if opts.Stdin != nil {
		cmd.Stdin = opts.Stdin
	}

	err := cmd.Run()
	status := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return Result{}, fmt.Errorf("start %s: %w", argv[0], err)
		}
		status = exitErr.ExitCode()
	}

	result := Result{Status: status, Stdout: captured.String()}
	if status != 0 && !opts.MayFail {
		return result, fmt.Errorf("%w: exit status %d", ErrCommandFailed, status)
	}
	return result, nil
}

// FileExists reports whether path exists on the local filesystem.
func (s *LocalShell) FileExists(_ context.Context, path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// WriteFile writes content to path on the local filesystem.
func (s *LocalShell) WriteFile(_ context.Context, path string, content []byte) error {
	return os.WriteFile(path, content, 0o644)
}
