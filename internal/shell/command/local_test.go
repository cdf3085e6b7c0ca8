package command

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestShell() (*LocalShell, *bytes.Buffer) {
	var out bytes.Buffer
	sh := NewLocalShell(slog.New(slog.NewTextHandler(io.Discard, nil)))
	sh.Stdout = &out
	sh.Stderr = io.Discard
	return sh, &out
}

// =============================================================================
// Run Tests
// =============================================================================

func TestLocalShell_RunCapturesStdout(t *testing.T) {
	sh, _ := newTestShell()

	result, err := sh.Run(context.Background(), []string{"echo", "hello"}, RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Status)
	assert.Equal(t, "hello\n", result.Stdout)
}

func TestLocalShell_RunEchoesCommand(t *testing.T) {
	sh, out := newTestShell()

	_, err := sh.Run(context.Background(), []string{"echo", "hi there"}, RunOptions{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out.String(), "$ echo 'hi there'\n"))
}

func TestLocalShell_RunFailure(t *testing.T) {
	sh, _ := newTestShell()

	result, err := sh.Run(context.Background(), []string{"false"}, RunOptions{})
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrCommandFailed)
	assert.NotEqual(t, 0, result.Status)
}

func TestLocalShell_RunMayFail(t *testing.T) {
	sh, _ := newTestShell()

	result, err := sh.Run(context.Background(), []string{"false"}, RunOptions{MayFail: true})
	require.NoError(t, err)
	assert.NotEqual(t, 0, result.Status)
}

func TestLocalShell_RunMissingBinary(t *testing.T) {
	sh, _ := newTestShell()

	_, err := sh.Run(context.Background(), []string{"definitely-not-a-binary-xyz"}, RunOptions{MayFail: true})
	assert.Error(t, err)
}

func TestLocalShell_RunEmpty(t *testing.T) {
	sh, _ := newTestShell()

	_, err := sh.Run(context.Background(), nil, RunOptions{})
	assert.ErrorIs(t, err, ErrEmptyCommand)
}

func TestLocalShell_RunExtraEnv(t *testing.T) {
	sh, _ := newTestShell()

	result, err := sh.Run(context.Background(),
		[]string{"sh", "-c", "echo $PHABCTL_TEST_VAR"},
		RunOptions{Env: []string{"PHABCTL_TEST_VAR=from-test"}})
	require.NoError(t, err)
	assert.Equal(t, "from-test\n", result.Stdout)
}

func TestLocalShell_RunStdin(t *testing.T) {
	sh, _ := newTestShell()

	result, err := sh.Run(context.Background(), []string{"cat"},
		RunOptions{Stdin: strings.NewReader("piped input")})
	require.NoError(t, err)
	assert.Equal(t, "piped input", result.Stdout)
}

// =============================================================================
// File Tests
// =============================================================================

func TestLocalShell_FileExists(t *testing.T) {
	sh, _ := newTestShell()
	dir := t.TempDir()
	path := filepath.Join(dir, "present")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	exists, err := sh.FileExists(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = sh.FileExists(context.Background(), filepath.Join(dir, "absent"))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLocalShell_WriteFile(t *testing.T) {
	sh, _ := newTestShell()
	path := filepath.Join(t.TempDir(), "out.conf")

	require.NoError(t, sh.WriteFile(context.Background(), path, []byte("content")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))
}

// =============================================================================
// Command String Tests
// =============================================================================

func TestSplit(t *testing.T) {
	argv, err := Split(`mysql -u root --execute "DROP USER 'u'@'localhost';"`)
	require.NoError(t, err)
	assert.Equal(t, []string{"mysql", "-u", "root", "--execute", "DROP USER 'u'@'localhost';"}, argv)
}

func TestJoin(t *testing.T) {
	joined := Join([]string{"echo", "two words"})
	assert.Equal(t, "echo 'two words'", joined)
}
