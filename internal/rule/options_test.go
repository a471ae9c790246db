package rule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOptions_Defaults(t *testing.T) {
	o, err := NewOptions(map[string]any{})
	require.NoError(t, err)

	assert.Nil(t, o.Exclude)
	assert.Equal(t, DefaultTimeout, o.Timeout)
	assert.Nil(t, o.ModifyWindow)
	assert.True(t, o.Archive)
	assert.True(t, o.Compress)
	assert.True(t, o.Delete)
	assert.True(t, o.DeleteExcluded)
	assert.True(t, o.NoOwner)
	assert.True(t, o.NoGroup)
	assert.True(t, o.NoPerms)
	assert.True(t, o.OneFileSystem)
	assert.True(t, o.Force)
	assert.False(t, o.DryRun)

	args, err := o.OptionalArgs(time.Time{})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"--timeout=800",
		"--archive",
		"--compress",
		"--delete",
		"--delete-excluded",
		"--no-owner",
		"--no-group",
		"--no-perms",
		"--one-file-system",
		"--force",
	}, args)
}

func TestOptions_FalseTogglesEmitNothing(t *testing.T) {
	for _, tg := range toggles {
		t.Run(tg.key, func(t *testing.T) {
			o, err := NewOptions(map[string]any{tg.key: false})
			require.NoError(t, err)

			args, err := o.OptionalArgs(time.Time{})
			require.NoError(t, err)
			assert.NotContains(t, args, tg.flag)
			assert.NotContains(t, args, "--no-"+tg.flag[2:])
		})
	}
}

func TestOptions_HyphenatedAliases(t *testing.T) {
	o, err := NewOptions(map[string]any{
		"delete-excluded": false,
		"no-owner":        "false",
		"one-file-system": 0,
		"dry-run":         "true",
	})
	require.NoError(t, err)

	assert.False(t, o.DeleteExcluded)
	assert.False(t, o.NoOwner)
	assert.False(t, o.OneFileSystem)
	assert.True(t, o.DryRun)

	args, err := o.OptionalArgs(time.Time{})
	require.NoError(t, err)
	assert.Contains(t, args, "--dry-run")
	assert.NotContains(t, args, "--delete-excluded")
}

func TestOptions_ExcludeTimeoutAndModifyWindow(t *testing.T) {
	o, err := NewOptions(map[string]any{
		"exclude":       []any{"temp", "@eaDir", "*.part"},
		"timeout":       "120",
		"modify_window": 1,
		"archive":       true,
		"compress":      false,
		"delete":        false,
		"force":         false,
	})
	require.NoError(t, err)

	o.DeleteExcluded, o.NoOwner, o.NoGroup, o.NoPerms, o.OneFileSystem = false, false, false, false, false

	args, err := o.OptionalArgs(time.Time{})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"--exclude", "temp",
		"--exclude", "@eaDir",
		"--exclude", "*.part",
		"--timeout=120",
		"--modify-window=1",
		"--archive",
	}, args)

	positional, err := o.PositionalArgs(time.Time{})
	require.NoError(t, err)
	assert.Empty(t, positional)
}

func TestOptions_ZeroTimeoutOmitted(t *testing.T) {
	o, err := NewOptions(map[string]any{"timeout": 0})
	require.NoError(t, err)

	args, err := o.OptionalArgs(time.Time{})
	require.NoError(t, err)
	for _, a := range args {
		assert.NotContains(t, a, "--timeout")
	}
}

func TestOptions_LeadingZeroTimeout(t *testing.T) {
	o, err := NewOptions(map[string]any{"timeout": "0800"})
	require.NoError(t, err)
	assert.Equal(t, 800, o.Timeout)
}

func TestOptions_SingleExcludeString(t *testing.T) {
	o, err := NewOptions(map[string]any{"exclude": "a b", "timeout": 0})
	require.NoError(t, err)

	args, err := o.OptionalArgs(time.Time{})
	require.NoError(t, err)
	assert.Equal(t, []string{"--exclude", "a b"}, args[:2])
	assert.NotContains(t, args, "a")
}
