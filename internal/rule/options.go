package rule

import (
	"strconv"
	"time"
)

// DefaultTimeout is the rsync I/O timeout in seconds.
const DefaultTimeout = 800

// toggle is a boolean option that maps to one rsync flag when true.
type toggle struct {
	key   string
	alias string
	flag  string
	def   bool
}

// toggles are emitted in this order.
var toggles = []toggle{
	{key: "archive", flag: "--archive", def: true},
	{key: "compress", flag: "--compress", def: true},
	{key: "delete", flag: "--delete", def: true},
	{key: "delete_excluded", alias: "delete-excluded", flag: "--delete-excluded", def: true},
	{key: "no_owner", alias: "no-owner", flag: "--no-owner", def: true},
	{key: "no_group", alias: "no-group", flag: "--no-group", def: true},
	{key: "no_perms", alias: "no-perms", flag: "--no-perms", def: true},
	{key: "one_file_system", alias: "one-file-system", flag: "--one-file-system", def: true},
	{key: "force", flag: "--force", def: true},
	{key: "dryrun", alias: "dry-run", flag: "--dry-run", def: false},
}

var optionsFields = func() []FieldSpec {
	specs := []FieldSpec{
		{Key: "exclude", Kind: KindStrings},
		{Key: "timeout", Kind: KindInt, Default: DefaultTimeout},
		{Key: "modify_window", Aliases: []string{"modify-window"}, Kind: KindInt},
	}
	for _, t := range toggles {
		spec := FieldSpec{Key: t.key, Kind: KindBool, Default: t.def}
		if t.alias != "" {
			spec.Aliases = []string{t.alias}
		}
		specs = append(specs, spec)
	}
	return specs
}()

// Options holds the transfer toggles of a rule.
type Options struct {
	Exclude      []string
	Timeout      int  // seconds, 0 disables
	ModifyWindow *int // nil leaves rsync's default

	Archive        bool
	Compress       bool
	Delete         bool
	DeleteExcluded bool
	NoOwner        bool
	NoGroup        bool
	NoPerms        bool
	OneFileSystem  bool
	Force          bool
	DryRun         bool
}

// NewOptions builds an Options node from raw.
func NewOptions(raw map[string]any) (*Options, error) {
	f, err := resolve("options", raw, optionsFields)
	if err != nil {
		return nil, err
	}
	return &Options{
		Exclude:        f.strs("exclude"),
		Timeout:        f.int("timeout"),
		ModifyWindow:   f.intPtr("modify_window"),
		Archive:        f.bool("archive"),
		Compress:       f.bool("compress"),
		Delete:         f.bool("delete"),
		DeleteExcluded: f.bool("delete_excluded"),
		NoOwner:        f.bool("no_owner"),
		NoGroup:        f.bool("no_group"),
		NoPerms:        f.bool("no_perms"),
		OneFileSystem:  f.bool("one_file_system"),
		Force:          f.bool("force"),
		DryRun:         f.bool("dryrun"),
	}, nil
}

func buildOptions(raw map[string]any) (Node, error) {
	o, err := NewOptions(raw)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// values returns the toggle states in the order of toggles.
func (o *Options) values() []bool {
	return []bool{
		o.Archive,
		o.Compress,
		o.Delete,
		o.DeleteExcluded,
		o.NoOwner,
		o.NoGroup,
		o.NoPerms,
		o.OneFileSystem,
		o.Force,
		o.DryRun,
	}
}

// OptionalArgs returns exclude pairs, the timeout, the modify window and then
// one flag per enabled toggle.
func (o *Options) OptionalArgs(time.Time) ([]string, error) {
	var args []string
	for _, pattern := range o.Exclude {
		args = append(args, "--exclude", pattern)
	}
	if o.Timeout > 0 {
		args = append(args, "--timeout="+strconv.Itoa(o.Timeout))
	}
	if o.ModifyWindow != nil {
		args = append(args, "--modify-window="+strconv.Itoa(*o.ModifyWindow))
	}
	for i, on := range o.values() {
		if on {
			args = append(args, toggles[i].flag)
		}
	}
	return args, nil
}

// PositionalArgs returns nothing.
func (o *Options) PositionalArgs(time.Time) ([]string, error) {
	return nil, nil
}
