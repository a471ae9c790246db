// Package notify runs the user-configured notification command after a transfer.
package notify

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/fgeck/rsyncrule/internal/models"
	"github.com/rs/zerolog"
)

// Service defines the interface for command notifications.
type Service interface {
	Notify(ctx context.Context, command []string, outcome models.Outcome) (*models.NotificationResult, error)
}

// CommandExecutor allows mocking command execution.
type CommandExecutor interface {
	CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error)
}

// DefaultExecutor uses os/exec.
type DefaultExecutor struct{}

// CombinedOutput runs the command and returns its stdout and stderr.
func (e *DefaultExecutor) CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}

// Impl implements the notify Service interface.
type Impl struct {
	executor CommandExecutor
	logger   zerolog.Logger
}

// New creates a new notify service.
func New(logger zerolog.Logger) *Impl {
	return &Impl{
		executor: &DefaultExecutor{},
		logger:   logger,
	}
}

// NewWithExecutor creates a new notify service with a custom executor (for testing).
func NewWithExecutor(logger zerolog.Logger, executor CommandExecutor) *Impl {
	return &Impl{
		executor: executor,
		logger:   logger,
	}
}

// Notify runs command with the outcome summary appended as its last argument.
// An empty command sends nothing.
func (s *Impl) Notify(ctx context.Context, command []string, outcome models.Outcome) (*models.NotificationResult, error) {
	result := &models.NotificationResult{}

	if len(command) == 0 {
		return result, nil
	}

	summary := Summary(outcome)
	args := append(append([]string{}, command[1:]...), summary)

	s.logger.Info().
		Str("command", command[0]).
		Str("summary", summary).
		Msg("running notification command")

	output, err := s.executor.CombinedOutput(ctx, command[0], args...)
	if err != nil {
		result.Error = fmt.Errorf("notification command failed: %w: %s", err, strings.TrimSpace(string(output)))
		return result, nil
	}

	result.Sent = true
	return result, nil
}

// Summary returns the one-line human-readable description of an outcome.
func Summary(outcome models.Outcome) string {
	var b strings.Builder

	b.WriteString("rsync of ")
	b.WriteString(outcome.Source)
	if outcome.DryRun {
		b.WriteString(" (dry run)")
	}

	if outcome.Success {
		b.WriteString(" succeeded")
		return b.String()
	}

	b.WriteString(" failed")
	if outcome.ExitCode != 0 {
		fmt.Fprintf(&b, " with exit code %d", outcome.ExitCode)
	}
	if outcome.LastErrorLine != "" {
		b.WriteString(": ")
		b.WriteString(outcome.LastErrorLine)
	}
	return b.String()
}
