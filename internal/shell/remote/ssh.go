// Package remote executes deployment commands on a remote host over SSH.
// It fills the role the paramiko dependency plays for the legacy deploy
// script: the same installer code can drive a host that is not local.
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/phabops/phabctl/internal/shell/command"
)

// =============================================================================
// Configuration
// =============================================================================

// Config describes the SSH target.
type Config struct {
	Host           string
	Port           int // default 22
	User           string
	PrivateKey     []byte        // PEM-encoded private key
	ConnectTimeout time.Duration // default 10s
	CommandTimeout time.Duration // default 10m; installs are slow
}

// =============================================================================
// SSH Shell
// =============================================================================

// SSHShell implements command.Shell against a remote host. The connection is
// established lazily and re-established when a keepalive fails.
type SSHShell struct {
	config Config
	signer ssh.Signer
	logger *slog.Logger

	client *ssh.Client
	mu     sync.Mutex // protects client

	Stdout io.Writer // command output and echo; defaults to os.Stdout
	Stderr io.Writer // command error output; defaults to os.Stderr
}

// NewSSHShell creates a shell for the given target. The private key is
// parsed eagerly so configuration mistakes surface before the first command.
func NewSSHShell(config Config, logger *slog.Logger) (*SSHShell, error) {
	signer, err := ssh.ParsePrivateKey(config.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("parse SSH private key: %w", err)
	}

	if config.Port == 0 {
		config.Port = 22
	}
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = 10 * time.Second
	}
	if config.CommandTimeout == 0 {
		config.CommandTimeout = 10 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &SSHShell{
		config: config,
		signer: signer,
		logger: logger,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}, nil
}

// connect establishes the SSH connection if not already connected.
func (s *SSHShell) connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		_, _, err := s.client.SendRequest("keepalive@phabctl", true, nil)
		if err == nil {
			return nil
		}
		// Connection dead, reconnect
		s.client.Close()
		s.client = nil
	}

	sshConfig := &ssh.ClientConfig{
		User:            s.config.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(s.signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         s.config.ConnectTimeout,
	}

	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	client, err := ssh.Dial("tcp", addr, sshConfig)
	if err != nil {
		return fmt.Errorf("SSH dial %s: %w", addr, err)
	}

	s.client = client
	return nil
}

// Close closes the SSH connection.
func (s *SSHShell) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		err := s.client.Close()
		s.client = nil
		return err
	}
	return nil
}

// newSession creates an SSH session on the (re)connected client.
func (s *SSHShell) newSession() (*ssh.Session, error) {
	if err := s.connect(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	session, err := s.client.NewSession()
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("create SSH session: %w", err)
	}
	return session, nil
}

// Run executes argv on the remote host.
func (s *SSHShell) Run(ctx context.Context, argv []string, opts command.RunOptions) (command.Result, error) {
	if len(argv) == 0 {
		return command.Result{}, command.ErrEmptyCommand
	}

	// Environment via env(1); Setenv is commonly rejected by sshd.
	if len(opts.Env) > 0 {
		withEnv := append([]string{"env"}, opts.Env...)
		argv = append(withEnv, argv...)
	}
	joined := command.Join(argv)

	fmt.Fprintf(s.Stdout, "$ %s\n", joined)
	s.logger.Debug("running remote command", "host", s.config.Host, "cmd", joined)

	session, err := s.newSession()
	if err != nil {
		return command.Result{}, err
	}
	defer session.Close()

	var captured bytes.Buffer
	session.Stdout = io.MultiWriter(&captured, s.Stdout)
	session.Stderr = s.Stderr
	if opts.Stdin != nil {
		session.Stdin = opts.Stdin
	}

	done := make(chan error, 1)
	go func() {
		done <- session.Run(joined)
	}()

	select {
	case <-ctx.Done():
		return command.Result{}, ctx.Err()
	case <-time.After(s.config.CommandTimeout):
		return command.Result{}, fmt.Errorf("command timeout after %v", s.config.CommandTimeout)
	case err = <-done:
	}

	status := 0
	if err != nil {
		var exitErr *ssh.ExitError
		if !errors.As(err, &exitErr) {
			return command.Result{}, fmt.Errorf("run remote command: %w", err)
		}
		status = exitErr.ExitStatus()
	}

	result := command.Result{Status: status, Stdout: captured.String()}
	if status != 0 && !opts.MayFail {
		return result, fmt.Errorf("%w: exit status %d", command.ErrCommandFailed, status)
	}
	return result, nil
}

// FileExists reports whether path exists on the remote host.
func (s *SSHShell) FileExists(ctx context.Context, path string) (bool, error) {
	result, err := s.Run(ctx, []string{"test", "-e", path}, command.RunOptions{MayFail: true})
	if err != nil {
		return false, err
	}
	return result.Status == 0, nil
}

// WriteFile writes content to path on the remote host via `cat`.
func (s *SSHShell) WriteFile(ctx context.Context, path string, content []byte) error {
	cmd := []string{"sh", "-c", fmt.Sprintf("cat > %s", command.Join([]string{path}))}
	_, err := s.Run(ctx, cmd, command.RunOptions{Stdin: bytes.NewReader(content)})
	return err
}
