package rule

import (
	"strings"
	"time"
)

var sourceFields = []FieldSpec{
	{Key: "dirpath", Kind: KindString, Required: true},
	{Key: "ssh", Kind: KindNode, Build: buildSSH},
}

var destinationFields = []FieldSpec{
	{Key: "dirpath", Kind: KindString, Required: true},
	{Key: "backup", Kind: KindString},
	{Key: "ssh", Kind: KindNode, Build: buildSSH},
}

// Source is the read side of the transfer. Without SSH the path is local.
type Source struct {
	Dirpath string
	SSH     *SSH
}

// NewSource builds a Source node from raw.
func NewSource(raw map[string]any) (*Source, error) {
	f, err := resolve("source", raw, sourceFields)
	if err != nil {
		return nil, err
	}
	return &Source{
		Dirpath: f.str("dirpath"),
		SSH:     f.ssh("ssh"),
	}, nil
}

func buildSource(raw map[string]any) (Node, error) {
	s, err := NewSource(raw)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// OptionalArgs returns the remote shell arguments of a remote source.
func (s *Source) OptionalArgs(at time.Time) ([]string, error) {
	return aggregate(at, false, asNode(s.SSH))
}

// PositionalArgs returns the source endpoint. It always ends with a
// separator so rsync copies the directory contents.
func (s *Source) PositionalArgs(at time.Time) ([]string, error) {
	path, err := endpoint(s.SSH, s.Dirpath, at)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return []string{path}, nil
}

// Remote reports whether the source is reached over SSH.
func (s *Source) Remote() bool {
	return s.SSH != nil
}

// Destination is the write side of the transfer.
type Destination struct {
	Dirpath string
	Backup  string // time-templated directory for replaced files
	SSH     *SSH
}

// NewDestination builds a Destination node from raw.
func NewDestination(raw map[string]any) (*Destination, error) {
	f, err := resolve("dest", raw, destinationFields)
	if err != nil {
		return nil, err
	}
	return &Destination{
		Dirpath: f.str("dirpath"),
		Backup:  f.str("backup"),
		SSH:     f.ssh("ssh"),
	}, nil
}

func buildDestination(raw map[string]any) (Node, error) {
	d, err := NewDestination(raw)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// OptionalArgs returns the backup flags followed by the remote shell arguments.
func (d *Destination) OptionalArgs(at time.Time) ([]string, error) {
	var args []string
	if d.Backup != "" {
		dir, err := Expand(d.Backup, at)
		if err != nil {
			return nil, err
		}
		args = append(args, "--backup", "--backup-dir="+dir)
	}
	remote, err := aggregate(at, false, asNode(d.SSH))
	if err != nil {
		return nil, err
	}
	return append(args, remote...), nil
}

// PositionalArgs returns the destination endpoint as written.
func (d *Destination) PositionalArgs(at time.Time) ([]string, error) {
	path, err := endpoint(d.SSH, d.Dirpath, at)
	if err != nil {
		return nil, err
	}
	return []string{path}, nil
}

// Remote reports whether the destination is reached over SSH.
func (d *Destination) Remote() bool {
	return d.SSH != nil
}

func endpoint(remote *SSH, dirpath string, at time.Time) (string, error) {
	path, err := Expand(dirpath, at)
	if err != nil {
		return "", err
	}
	if remote != nil {
		path = remote.Prefix() + path
	}
	return path, nil
}

func (f fields) ssh(key string) *SSH {
	s, _ := f[key].(*SSH)
	return s
}
