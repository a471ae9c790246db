package models

import (
	"io"
	"time"
)

// TransferRequest describes one external rsync process.
type TransferRequest struct {
	Argv   []string
	Stdout io.Writer
	Stderr io.Writer
}

// TransferResult holds the outcome of the rsync process.
type TransferResult struct {
	ExitCode int
	Duration time.Duration
	Error    error
}

// Outcome summarizes a finished run for notifications.
type Outcome struct {
	Success       bool
	DryRun        bool
	Source        string
	Destination   string
	StartTime     time.Time
	Duration      time.Duration
	ExitCode      int
	LastErrorLine string
}
