package docker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/phabops/phabctl/internal/shell/command"
)

// =============================================================================
// Container Shell
// =============================================================================

// ContainerShell implements command.Shell by executing commands inside a
// running container via the Docker exec API. Commands are joined into a
// single `sh -c` invocation so environment prefixes and && chains behave as
// they would in an interactive shell.
type ContainerShell struct {
	client    Client
	container string
	logger    *slog.Logger

	Stdout io.Writer // command output and echo; defaults to os.Stdout
	Stderr io.Writer // command error output; defaults to os.Stderr
}

// NewContainerShell creates a shell bound to the named container.
func NewContainerShell(client Client, container string, logger *slog.Logger) *ContainerShell {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContainerShell{
		client:    client,
		container: container,
		logger:    logger,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
	}
}

// Run executes argv inside the container.
func (s *ContainerShell) Run(_ context.Context, argv []string, opts command.RunOptions) (command.Result, error) {
	if len(argv) == 0 {
		return command.Result{}, command.ErrEmptyCommand
	}

	joined := command.Join(argv)
	fmt.Fprintf(s.Stdout, "$ %s\n", joined)
	s.logger.Debug("running container command", "container", s.container, "cmd", joined)

	res, err := s.client.Exec(s.container, ExecOptions{
		Cmd:   []string{"sh", "-c", joined},
		Env:   opts.Env,
		Stdin: opts.Stdin,
	})
	if err != nil {
		return command.Result{}, err
	}

	io.WriteString(s.Stdout, res.Stdout)
	io.WriteString(s.Stderr, res.Stderr)

	result := command.Result{Status: res.ExitCode, Stdout: res.Stdout}
	if res.ExitCode != 0 && !opts.MayFail {
		return result, fmt.Errorf("%w: exit status %d", command.ErrCommandFailed, res.ExitCode)
	}
	return result, nil
}

// FileExists reports whether path exists inside the container.
func (s *ContainerShell) FileExists(_ context.Context, path string) (bool, error) {
	res, err := s.client.Exec(s.container, ExecOptions{
		Cmd: []string{"test", "-e", path},
	})
	if err != nil {
		return false, err
	}
	return res.ExitCode == 0, nil
}

// WriteFile writes content to path inside the container.
func (s *ContainerShell) WriteFile(_ context.Context, path string, content []byte) error {
	return s.client.CopyToContainer(s.container, path, content, 0o644)
}
