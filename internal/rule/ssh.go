package rule

import (
	"net"
	"strconv"
	"strings"
	"time"
)

// SSH default values.
const (
	DefaultSSHPort   = 22
	DefaultRsyncPath = "/bin/rsync"
	DefaultSSHPath   = "/usr/bin/ssh"
)

var sshFields = []FieldSpec{
	{Key: "url", Kind: KindString, Required: true},
	{Key: "port", Kind: KindInt, Default: DefaultSSHPort},
	{Key: "user", Kind: KindString},
	{Key: "key", Kind: KindString},
	{Key: "rsync_path", Kind: KindString, Default: DefaultRsyncPath},
	{Key: "ssh_path", Kind: KindString, Default: DefaultSSHPath},
}

// SSH is a remote endpoint reached through a remote shell.
type SSH struct {
	URL       string
	Port      int
	User      string
	Key       string // path to the identity file
	RsyncPath string // rsync binary on the remote side
	SSHPath   string // local ssh client
}

// NewSSH builds an SSH node from raw.
func NewSSH(raw map[string]any) (*SSH, error) {
	f, err := resolve("ssh", raw, sshFields)
	if err != nil {
		return nil, err
	}
	return &SSH{
		URL:       f.str("url"),
		Port:      f.int("port"),
		User:      f.str("user"),
		Key:       f.str("key"),
		RsyncPath: f.str("rsync_path"),
		SSHPath:   f.str("ssh_path"),
	}, nil
}

func buildSSH(raw map[string]any) (Node, error) {
	s, err := NewSSH(raw)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Shell returns the remote shell command passed to rsync -e.
func (s *SSH) Shell() string {
	parts := []string{s.SSHPath}
	if s.Key != "" {
		parts = append(parts, "-i", s.Key)
	}
	parts = append(parts, "-p", strconv.Itoa(s.Port))
	return strings.Join(parts, " ")
}

// OptionalArgs returns the remote rsync path and the remote shell directive.
func (s *SSH) OptionalArgs(time.Time) ([]string, error) {
	return []string{
		"--rsync-path=" + s.RsyncPath,
		"-e", s.Shell(),
	}, nil
}

// PositionalArgs returns nothing; the owning endpoint uses Prefix instead.
func (s *SSH) PositionalArgs(time.Time) ([]string, error) {
	return nil, nil
}

// Prefix returns "user@host:" (or "host:" without a user) for endpoint paths.
func (s *SSH) Prefix() string {
	var b strings.Builder
	if s.User != "" {
		b.WriteString(s.User)
		b.WriteByte('@')
	}
	b.WriteString(s.URL)
	b.WriteByte(':')
	return b.String()
}

// Address returns host:port for dialing the endpoint.
func (s *SSH) Address() string {
	return net.JoinHostPort(s.URL, strconv.Itoa(s.Port))
}
