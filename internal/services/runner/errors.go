package runner

import "fmt"

// TransferError reports that rsync ran and exited with a non-zero status.
type TransferError struct {
	ExitCode int
	LastLine string // last non-empty line rsync wrote to stderr
}

func (e *TransferError) Error() string {
	if e.LastLine == "" {
		return fmt.Sprintf("rsync exited with status %d", e.ExitCode)
	}
	return fmt.Sprintf("rsync exited with status %d: %s", e.ExitCode, e.LastLine)
}
