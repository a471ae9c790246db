// Package models contains the data structures used throughout rsyncrule.
package models

import (
	"time"

	"github.com/fgeck/rsyncrule/internal/rule"
)

// JobConfig holds the complete configuration of one rsync run.
type JobConfig struct {
	Rule   *rule.Rule
	Notify *NotifyConfig // nil if not configured
	Wake   *WakeConfig   // nil if not configured
}

// NotifyConfig holds the post-run notification settings.
type NotifyConfig struct {
	Command  []string        // summary is appended as the last argument
	Telegram *TelegramConfig // nil if not configured
}

// RunOptions holds the invocation flags of the entry point.
type RunOptions struct {
	Tool    string    // rsync binary
	Verbose bool      // progress and errors to the console
	Debug   bool      // print the command instead of running it
	Now     time.Time // timestamp for all path templates
}
