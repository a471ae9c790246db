package ssh

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fgeck/rsyncrule/internal/rule"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

// Mock implementations
type mockSSHSession struct {
	combinedOutputFunc func(cmd string) ([]byte, error)
	closeFunc          func() error
}

func (m *mockSSHSession) CombinedOutput(cmd string) ([]byte, error) {
	if m.combinedOutputFunc != nil {
		return m.combinedOutputFunc(cmd)
	}
	return []byte(""), nil
}

func (m *mockSSHSession) Close() error {
	if m.closeFunc != nil {
		return m.closeFunc()
	}
	return nil
}

type mockSSHClient struct {
	newSessionFunc func() (SSHSession, error)
	closeFunc      func() error
}

func (m *mockSSHClient) NewSession() (SSHSession, error) {
	if m.newSessionFunc != nil {
		return m.newSessionFunc()
	}
	return &mockSSHSession{}, nil
}

func (m *mockSSHClient) Close() error {
	if m.closeFunc != nil {
		return m.closeFunc()
	}
	return nil
}

type mockClientFactory struct {
	newClientFunc func(network, addr string, config *ssh.ClientConfig) (SSHClient, error)
}

func (m *mockClientFactory) NewClient(network, addr string, config *ssh.ClientConfig) (SSHClient, error) {
	if m.newClientFunc != nil {
		return m.newClientFunc(network, addr, config)
	}
	return &mockSSHClient{}, nil
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

// writeTestKey writes a valid ed25519 key in OpenSSH format to path.
func writeTestKey(t *testing.T, path string) {
	t.Helper()

	_, privateKey, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	pemBlock, err := ssh.MarshalPrivateKey(privateKey, "")
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(pemBlock), 0o600))
}

func testEndpoint(t *testing.T) *rule.SSH {
	keyPath := filepath.Join(t.TempDir(), "id_test")
	writeTestKey(t, keyPath)

	return &rule.SSH{
		URL:       "nas.local",
		Port:      2222,
		User:      "backup",
		Key:       keyPath,
		RsyncPath: "/usr/bin/rsync",
		SSHPath:   rule.DefaultSSHPath,
	}
}

func TestProbe_Success(t *testing.T) {
	var capturedAddr, capturedCommand, capturedUser string

	factory := &mockClientFactory{
		newClientFunc: func(network, addr string, config *ssh.ClientConfig) (SSHClient, error) {
			capturedAddr = addr
			capturedUser = config.User
			return &mockSSHClient{
				newSessionFunc: func() (SSHSession, error) {
					return &mockSSHSession{
						combinedOutputFunc: func(cmd string) ([]byte, error) {
							capturedCommand = cmd
							return []byte("rsync  version 3.2.7  protocol version 31\nCopyright\n"), nil
						},
					}, nil
				},
			}, nil
		},
	}

	svc := NewWithClientFactory(testLogger(), factory)
	result, err := svc.Probe(context.Background(), testEndpoint(t))

	require.NoError(t, err)
	assert.Nil(t, result.Error)
	assert.True(t, result.Connected)
	assert.Equal(t, "rsync  version 3.2.7  protocol version 31", result.RsyncVersion)
	assert.Equal(t, "nas.local:2222", capturedAddr)
	assert.Equal(t, "backup", capturedUser)
	assert.Equal(t, "/usr/bin/rsync --version", capturedCommand)
}

func TestProbe_RemoteCommandFailed(t *testing.T) {
	factory := &mockClientFactory{
		newClientFunc: func(network, addr string, config *ssh.ClientConfig) (SSHClient, error) {
			return &mockSSHClient{
				newSessionFunc: func() (SSHSession, error) {
					return &mockSSHSession{
						combinedOutputFunc: func(cmd string) ([]byte, error) {
							return []byte("sh: /usr/bin/rsync: not found\n"), errors.New("exit status 127")
						},
					}, nil
				},
			}, nil
		},
	}

	svc := NewWithClientFactory(testLogger(), factory)
	result, err := svc.Probe(context.Background(), testEndpoint(t))

	require.NoError(t, err)
	assert.True(t, result.Connected)
	require.Error(t, result.Error)
	assert.Contains(t, result.Error.Error(), "remote rsync check failed")
	assert.Contains(t, result.Output, "not found")
	assert.Empty(t, result.RsyncVersion)
}

func TestProbe_ConnectionFailed(t *testing.T) {
	factory := &mockClientFactory{
		newClientFunc: func(network, addr string, config *ssh.ClientConfig) (SSHClient, error) {
			return nil, errors.New("connection refused")
		},
	}

	svc := NewWithClientFactory(testLogger(), factory)
	result, err := svc.Probe(context.Background(), testEndpoint(t))

	require.NoError(t, err)
	assert.False(t, result.Connected)
	require.Error(t, result.Error)
	assert.Contains(t, result.Error.Error(), "failed to connect")
}

func TestProbe_SessionFailed(t *testing.T) {
	factory := &mockClientFactory{
		newClientFunc: func(network, addr string, config *ssh.ClientConfig) (SSHClient, error) {
			return &mockSSHClient{
				newSessionFunc: func() (SSHSession, error) {
					return nil, errors.New("session creation failed")
				},
			}, nil
		},
	}

	svc := NewWithClientFactory(testLogger(), factory)
	result, err := svc.Probe(context.Background(), testEndpoint(t))

	require.NoError(t, err)
	require.Error(t, result.Error)
	assert.Contains(t, result.Error.Error(), "failed to create session")
}

func TestProbe_InvalidPrivateKey(t *testing.T) {
	endpoint := testEndpoint(t)
	require.NoError(t, os.WriteFile(endpoint.Key, []byte("invalid key"), 0o600))

	svc := NewWithClientFactory(testLogger(), &mockClientFactory{})
	result, err := svc.Probe(context.Background(), endpoint)

	require.NoError(t, err)
	assert.False(t, result.Connected)
	require.Error(t, result.Error)
	assert.Contains(t, result.Error.Error(), "failed to parse private key")
}

func TestProbe_KeyNotFound(t *testing.T) {
	endpoint := testEndpoint(t)
	endpoint.Key = "/nonexistent/path/id_rsa"

	svc := NewWithClientFactory(testLogger(), &mockClientFactory{})
	result, err := svc.Probe(context.Background(), endpoint)

	require.NoError(t, err)
	require.Error(t, result.Error)
	assert.Contains(t, result.Error.Error(), "failed to read private key")
}

func TestProbe_ContextCancelled(t *testing.T) {
	factory := &mockClientFactory{
		newClientFunc: func(network, addr string, config *ssh.ClientConfig) (SSHClient, error) {
			// Simulate slow connection
			time.Sleep(100 * time.Millisecond)
			return &mockSSHClient{}, nil
		},
	}

	svc := NewWithClientFactory(testLogger(), factory)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	result, err := svc.Probe(ctx, testEndpoint(t))

	require.NoError(t, err)
	assert.False(t, result.Connected)
	assert.Equal(t, context.DeadlineExceeded, result.Error)
}

func TestProbe_NilEndpoint(t *testing.T) {
	svc := NewWithClientFactory(testLogger(), &mockClientFactory{})
	_, err := svc.Probe(context.Background(), nil)

	assert.Error(t, err)
}

func TestKeyPath_DefaultIdentity(t *testing.T) {
	home := t.TempDir()
	writeTestKey(t, filepath.Join(home, ".ssh", "id_rsa"))

	svc := NewWithClientFactory(testLogger(), &mockClientFactory{})
	svc.homeDir = func() (string, error) { return home, nil }

	path, err := svc.keyPath(&rule.SSH{URL: "nas.local"})

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".ssh", "id_rsa"), path)
}

func TestKeyPath_PrefersEd25519(t *testing.T) {
	home := t.TempDir()
	writeTestKey(t, filepath.Join(home, ".ssh", "id_rsa"))
	writeTestKey(t, filepath.Join(home, ".ssh", "id_ed25519"))

	svc := NewWithClientFactory(testLogger(), &mockClientFactory{})
	svc.homeDir = func() (string, error) { return home, nil }

	path, err := svc.keyPath(&rule.SSH{URL: "nas.local"})

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".ssh", "id_ed25519"), path)
}

func TestKeyPath_NoIdentity(t *testing.T) {
	svc := NewWithClientFactory(testLogger(), &mockClientFactory{})
	svc.homeDir = func() (string, error) { return t.TempDir(), nil }

	_, err := svc.keyPath(&rule.SSH{URL: "nas.local"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no default identity")
}

func TestBuildConfig_UsesEndpointUser(t *testing.T) {
	svc := NewWithClientFactory(testLogger(), &mockClientFactory{})

	sshConfig, err := svc.buildConfig(testEndpoint(t))

	require.NoError(t, err)
	assert.Equal(t, "backup", sshConfig.User)
	assert.Len(t, sshConfig.Auth, 1)
}
