package runner

import (
	"testing"

	"github.com/anmitsu/go-shlex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatCommand(t *testing.T) {
	tests := []struct {
		name     string
		argv     []string
		expected string
	}{
		{
			name:     "plain tokens",
			argv:     []string{"rsync", "--archive", "--timeout=800", "/src/", "/dst"},
			expected: "rsync --archive --timeout=800 /src/ /dst",
		},
		{
			name:     "remote shell with spaces",
			argv:     []string{"rsync", "-e", "/usr/bin/ssh -p 22", "me@nas:/src/"},
			expected: "rsync -e '/usr/bin/ssh -p 22' me@nas:/src/",
		},
		{
			name:     "exclude glob",
			argv:     []string{"rsync", "--exclude", "*.tmp"},
			expected: "rsync --exclude '*.tmp'",
		},
		{
			name:     "embedded single quote",
			argv:     []string{"rsync", "it's"},
			expected: `rsync 'it'"'"'s'`,
		},
		{
			name:     "backup dir with space",
			argv:     []string{"rsync", "--backup-dir=/backup/old files"},
			expected: "rsync '--backup-dir=/backup/old files'",
		},
		{
			name:     "empty token",
			argv:     []string{"rsync", ""},
			expected: "rsync ''",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatCommand(tt.argv))
		})
	}
}

func TestFormatCommand_RoundTrip(t *testing.T) {
	argv := []string{
		"rsync", "--exclude", "*.DS_Store", "--exclude", "@eaDir",
		"--rsync-path=/bin/rsync", "-e", "/usr/bin/ssh -i /root/.ssh/id rsa -p 2222",
		"/volume1/my photos/", "backup@nas:/backup/2024-03-09 14h", "it's",
	}

	split, err := shlex.Split(FormatCommand(argv), true)

	require.NoError(t, err)
	assert.Equal(t, argv, split)
}
