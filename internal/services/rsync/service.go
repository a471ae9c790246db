// Package rsync runs the external rsync process.
package rsync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/fgeck/rsyncrule/internal/models"
	"github.com/rs/zerolog"
)

// DefaultTool is the rsync binary looked up in PATH.
const DefaultTool = "rsync"

// Service defines the interface for rsync operations.
type Service interface {
	Transfer(ctx context.Context, req models.TransferRequest) (*models.TransferResult, error)
	Version(ctx context.Context, tool string) (string, error)
}

// CommandExecutor allows mocking exec.Command in tests.
type CommandExecutor interface {
	// Run starts name with args, streams its output to stdout and stderr and
	// returns the process exit code.
	Run(ctx context.Context, stdout, stderr io.Writer, name string, args ...string) (int, error)
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// DefaultExecutor is the default command executor using os/exec.
type DefaultExecutor struct{}

// Run executes the command. A non-zero exit is reported through the exit
// code, not the error.
func (e *DefaultExecutor) Run(ctx context.Context, stdout, stderr io.Writer, name string, args ...string) (int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	if err != nil {
		return -1, err
	}
	return 0, nil
}

// Output runs a command and returns its combined output.
func (e *DefaultExecutor) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}

// Impl implements the Service interface.
type Impl struct {
	executor CommandExecutor
	logger   zerolog.Logger
}

// New creates a new rsync service.
func New(logger zerolog.Logger) *Impl {
	return &Impl{
		executor: &DefaultExecutor{},
		logger:   logger,
	}
}

// NewWithExecutor creates a new rsync service with a custom executor (for testing).
func NewWithExecutor(logger zerolog.Logger, executor CommandExecutor) *Impl {
	return &Impl{
		executor: executor,
		logger:   logger,
	}
}

// Transfer runs the argument vector and waits for the process to exit.
func (s *Impl) Transfer(ctx context.Context, req models.TransferRequest) (*models.TransferResult, error) {
	if len(req.Argv) == 0 {
		return nil, fmt.Errorf("empty argument vector")
	}

	stdout, stderr := req.Stdout, req.Stderr
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	s.logger.Info().
		Str("tool", req.Argv[0]).
		Int("args", len(req.Argv)-1).
		Msg("starting transfer")
	s.logger.Debug().Strs("argv", req.Argv).Msg("transfer command")

	start := time.Now()
	code, err := s.executor.Run(ctx, stdout, stderr, req.Argv[0], req.Argv[1:]...)
	result := &models.TransferResult{
		ExitCode: code,
		Duration: time.Since(start),
	}

	if err != nil {
		result.Error = fmt.Errorf("failed to start %s: %w", req.Argv[0], err)
		return result, nil
	}
	if code != 0 {
		result.Error = fmt.Errorf("%s exited with status %d", req.Argv[0], code)
		return result, nil
	}

	s.logger.Info().
		Dur("duration", result.Duration).
		Msg("transfer completed")

	return result, nil
}

// Version returns the first line of `tool --version`.
func (s *Impl) Version(ctx context.Context, tool string) (string, error) {
	output, err := s.executor.Output(ctx, tool, "--version")
	if err != nil {
		return "", fmt.Errorf("failed to run %s --version: %w, output: %s", tool, err, string(output))
	}
	return FirstLine(string(output)), nil
}
