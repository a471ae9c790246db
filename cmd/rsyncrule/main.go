// Package main is the entry point for rsyncrule.
package main

import (
	"errors"
	"os"

	"github.com/fgeck/rsyncrule/internal/services/runner"
)

func main() {
	if err := Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

// exitCode passes rsync's own exit status through; any other failure is 1.
func exitCode(err error) int {
	var transferErr *runner.TransferError
	if errors.As(err, &transferErr) && transferErr.ExitCode > 0 {
		return transferErr.ExitCode
	}
	return 1
}
