package remote

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/crypto/ssh"
)

func testPrivateKeyPEM(t *testing.T) []byte {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	block, err := ssh.MarshalPrivateKey(priv, "")
	require.NoError(t, err)

	return pem.EncodeToMemory(block)
}

func TestNewSSHShell_Defaults(t *testing.T) {
	shell, err := NewSSHShell(Config{
		Host:       "203.0.113.10",
		User:       "root",
		PrivateKey: testPrivateKeyPEM(t),
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 22, shell.config.Port)
	assert.Equal(t, 10*time.Second, shell.config.ConnectTimeout)
	assert.Equal(t, 10*time.Minute, shell.config.CommandTimeout)
	assert.NotNil(t, shell.logger)
}

func TestNewSSHShell_InvalidKey(t *testing.T) {
	_, err := NewSSHShell(Config{
		Host:       "203.0.113.10",
		User:       "root",
		PrivateKey: []byte("not a key"),
	}, nil)
	assert.Error(t, err)
}

func TestSSHShell_CloseWithoutConnect(t *testing.T) {
	shell, err := NewSSHShell(Config{
		Host:       "203.0.113.10",
		User:       "root",
		PrivateKey: testPrivateKeyPEM(t),
	}, nil)
	require.NoError(t, err)

	assert.NoError(t, shell.Close())
}
