//go:build e2e

package e2e

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/fgeck/rsyncrule/internal/rule"
	"github.com/fgeck/rsyncrule/internal/services/ssh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getSSHEndpoint(t *testing.T) *rule.SSH {
	t.Helper()

	host := os.Getenv("TEST_SSH_HOST")
	if host == "" {
		t.Skip("TEST_SSH_HOST not set")
	}

	port := rule.DefaultSSHPort
	if portStr := os.Getenv("TEST_SSH_PORT"); portStr != "" {
		var err error
		port, err = strconv.Atoi(portStr)
		require.NoError(t, err)
	}

	user := os.Getenv("TEST_SSH_USER")
	if user == "" {
		user = "root"
	}

	keyPath := os.Getenv("TEST_SSH_KEY_PATH")
	if keyPath == "" {
		t.Skip("TEST_SSH_KEY_PATH not set")
	}

	rsyncPath := os.Getenv("TEST_SSH_RSYNC_PATH")
	if rsyncPath == "" {
		rsyncPath = "rsync"
	}

	return &rule.SSH{
		URL:       host,
		Port:      port,
		User:      user,
		Key:       keyPath,
		RsyncPath: rsyncPath,
		SSHPath:   rule.DefaultSSHPath,
	}
}

func TestSSHProbe_E2E(t *testing.T) {
	endpoint := getSSHEndpoint(t)

	svc := ssh.New(testLogger())

	result, err := svc.Probe(context.Background(), endpoint)

	require.NoError(t, err)
	assert.True(t, result.Connected)
	assert.Contains(t, result.RsyncVersion, "rsync")
	assert.Nil(t, result.Error)
}

func TestSSHConnectionFailed_E2E(t *testing.T) {
	keyPath := os.Getenv("TEST_SSH_KEY_PATH")
	if keyPath == "" {
		t.Skip("TEST_SSH_KEY_PATH not set")
	}

	endpoint := &rule.SSH{
		URL:       "192.168.255.254", // Non-routable IP
		Port:      22,
		User:      "root",
		Key:       keyPath,
		RsyncPath: rule.DefaultRsyncPath,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	svc := ssh.New(testLogger())

	result, err := svc.Probe(ctx, endpoint)

	require.NoError(t, err)
	assert.False(t, result.Connected)
	assert.NotNil(t, result.Error)
}

func TestSSHInvalidKey_E2E(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "id_invalid")
	require.NoError(t, os.WriteFile(keyPath, []byte("invalid key"), 0o600))

	endpoint := &rule.SSH{
		URL:       "localhost",
		Port:      22,
		User:      "root",
		Key:       keyPath,
		RsyncPath: rule.DefaultRsyncPath,
	}

	svc := ssh.New(testLogger())

	result, err := svc.Probe(context.Background(), endpoint)

	require.NoError(t, err)
	assert.False(t, result.Connected)
	require.Error(t, result.Error)
	assert.Contains(t, result.Error.Error(), "parse private key")
}
