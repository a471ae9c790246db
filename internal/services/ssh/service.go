// Package ssh probes remote rsync endpoints over SSH.
package ssh

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"github.com/fgeck/rsyncrule/internal/models"
	"github.com/fgeck/rsyncrule/internal/rule"
	"github.com/fgeck/rsyncrule/internal/services/rsync"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/ssh"
)

// Identity files tried when an endpoint names no key, in order.
var defaultIdentities = []string{"id_ed25519", "id_ecdsa", "id_rsa"}

// Service defines the interface for SSH operations.
type Service interface {
	Probe(ctx context.Context, endpoint *rule.SSH) (*models.ProbeResult, error)
}

// SSHClient wraps ssh.Client for mocking.
type SSHClient interface {
	NewSession() (SSHSession, error)
	Close() error
}

// SSHSession wraps ssh.Session for mocking.
type SSHSession interface {
	CombinedOutput(cmd string) ([]byte, error)
	Close() error
}

// ClientFactory creates SSH clients.
type ClientFactory interface {
	NewClient(network, addr string, config *ssh.ClientConfig) (SSHClient, error)
}

// DefaultClientFactory is the default SSH client factory.
type DefaultClientFactory struct{}

// NewClient creates a new SSH client.
func (f *DefaultClientFactory) NewClient(network, addr string, config *ssh.ClientConfig) (SSHClient, error) {
	client, err := ssh.Dial(network, addr, config)
	if err != nil {
		return nil, err
	}
	return &defaultSSHClient{client: client}, nil
}

type defaultSSHClient struct {
	client *ssh.Client
}

func (c *defaultSSHClient) NewSession() (SSHSession, error) {
	session, err := c.client.NewSession()
	if err != nil {
		return nil, err
	}
	return &defaultSSHSession{session: session}, nil
}

func (c *defaultSSHClient) Close() error {
	return c.client.Close()
}

type defaultSSHSession struct {
	session *ssh.Session
}

func (s *defaultSSHSession) CombinedOutput(cmd string) ([]byte, error) {
	return s.session.CombinedOutput(cmd)
}

func (s *defaultSSHSession) Close() error {
	return s.session.Close()
}

// Impl implements the SSH Service interface.
type Impl struct {
	clientFactory ClientFactory
	logger        zerolog.Logger
	homeDir       func() (string, error)
}

// New creates a new SSH service.
func New(logger zerolog.Logger) *Impl {
	return &Impl{
		clientFactory: &DefaultClientFactory{},
		logger:        logger,
		homeDir:       os.UserHomeDir,
	}
}

// NewWithClientFactory creates a new SSH service with a custom client factory (for testing).
func NewWithClientFactory(logger zerolog.Logger, factory ClientFactory) *Impl {
	return &Impl{
		clientFactory: factory,
		logger:        logger,
		homeDir:       os.UserHomeDir,
	}
}

// keyPath returns the identity file for endpoint: its configured key, or the
// first default identity present in ~/.ssh.
func (s *Impl) keyPath(endpoint *rule.SSH) (string, error) {
	if endpoint.Key != "" {
		return endpoint.Key, nil
	}

	home, err := s.homeDir()
	if err != nil {
		return "", fmt.Errorf("no key configured and home directory unknown: %w", err)
	}
	for _, name := range defaultIdentities {
		path := filepath.Join(home, ".ssh", name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no key configured and no default identity in %s", filepath.Join(home, ".ssh"))
}

func (s *Impl) buildConfig(endpoint *rule.SSH) (*ssh.ClientConfig, error) {
	path, err := s.keyPath(endpoint)
	if err != nil {
		return nil, err
	}

	key, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key from %s: %w", path, err)
	}

	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	username := endpoint.User
	if username == "" {
		current, err := user.Current()
		if err != nil {
			return nil, fmt.Errorf("no user configured: %w", err)
		}
		username = current.Username
	}

	return &ssh.ClientConfig{
		User: username,
		Auth: []ssh.AuthMethod{
			ssh.PublicKeys(signer),
		},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec // homelab environment
		Timeout:         30 * time.Second,
	}, nil
}

// connect dials addr, giving up when ctx is done.
func (s *Impl) connect(ctx context.Context, addr string, config *ssh.ClientConfig) (SSHClient, error) {
	type dialResult struct {
		client SSHClient
		err    error
	}
	clientChan := make(chan dialResult, 1)

	go func() {
		client, err := s.clientFactory.NewClient("tcp", addr, config)
		clientChan <- dialResult{client, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-clientChan:
		if res.err != nil {
			return nil, fmt.Errorf("failed to connect: %w", res.err)
		}
		return res.client, nil
	}
}

// Probe connects to endpoint with its identity and runs the remote rsync
// binary with --version.
func (s *Impl) Probe(ctx context.Context, endpoint *rule.SSH) (*models.ProbeResult, error) {
	if endpoint == nil {
		return nil, fmt.Errorf("no ssh endpoint given")
	}

	result := &models.ProbeResult{}

	s.logger.Debug().
		Str("host", endpoint.URL).
		Int("port", endpoint.Port).
		Str("user", endpoint.User).
		Msg("probing SSH endpoint")

	sshConfig, err := s.buildConfig(endpoint)
	if err != nil {
		result.Error = err
		return result, nil
	}

	client, err := s.connect(ctx, endpoint.Address(), sshConfig)
	if err != nil {
		result.Error = err
		return result, nil
	}
	defer client.Close()
	result.Connected = true

	session, err := client.NewSession()
	if err != nil {
		result.Error = fmt.Errorf("failed to create session: %w", err)
		return result, nil
	}
	defer session.Close()

	cmd := endpoint.RsyncPath + " --version"
	s.logger.Debug().Str("command", cmd).Msg("executing remote command")

	output, err := session.CombinedOutput(cmd)
	result.Output = string(output)
	if err != nil {
		result.Error = fmt.Errorf("remote rsync check failed: %w", err)
		return result, nil
	}

	result.RsyncVersion = rsync.FirstLine(result.Output)

	s.logger.Info().
		Str("host", endpoint.URL).
		Str("rsync", result.RsyncVersion).
		Msg("SSH endpoint reachable")

	return result, nil
}
