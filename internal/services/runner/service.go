// Package runner orchestrates one rsync run: wake, transfer, bookkeeping and
// notification.
package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fgeck/rsyncrule/internal/models"
	"github.com/fgeck/rsyncrule/internal/services/notify"
	"github.com/fgeck/rsyncrule/internal/services/rsync"
	"github.com/fgeck/rsyncrule/internal/services/telegram"
	"github.com/fgeck/rsyncrule/internal/services/wol"
	"github.com/rs/zerolog"
)

// notifyTimeout bounds each notification once the run is over.
const notifyTimeout = time.Minute

// Service defines the interface for the rsync runner.
type Service interface {
	Run(ctx context.Context, cfg models.JobConfig, opts models.RunOptions) error
}

// Impl implements the runner Service interface.
type Impl struct {
	rsyncSvc    rsync.Service
	wolSvc      wol.Service
	notifySvc   notify.Service
	telegramSvc telegram.Service
	logger      zerolog.Logger
	stdout      io.Writer
	stderr      io.Writer
}

// New creates a new runner service writing console output to os.Stdout and
// os.Stderr.
func New(logger zerolog.Logger) *Impl {
	return &Impl{
		rsyncSvc:    rsync.New(logger),
		wolSvc:      wol.New(logger),
		notifySvc:   notify.New(logger),
		telegramSvc: telegram.New(logger),
		logger:      logger,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
	}
}

// NewWithServices creates a new runner service with custom services (for testing).
func NewWithServices(
	logger zerolog.Logger,
	rsyncSvc rsync.Service,
	wolSvc wol.Service,
	notifySvc notify.Service,
	telegramSvc telegram.Service,
	stdout io.Writer,
	stderr io.Writer,
) *Impl {
	return &Impl{
		rsyncSvc:    rsyncSvc,
		wolSvc:      wolSvc,
		notifySvc:   notifySvc,
		telegramSvc: telegramSvc,
		logger:      logger,
		stdout:      stdout,
		stderr:      stderr,
	}
}

// Run renders the rule at opts.Now and executes it. In debug mode the command
// line is printed instead. A non-zero rsync exit is returned as *TransferError.
func (s *Impl) Run(ctx context.Context, cfg models.JobConfig, opts models.RunOptions) error {
	if cfg.Rule == nil {
		return fmt.Errorf("no rule configured")
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	tool := opts.Tool
	if tool == "" {
		tool = rsync.DefaultTool
	}

	argv, err := cfg.Rule.Argv(tool, now)
	if err != nil {
		return fmt.Errorf("building rsync command: %w", err)
	}

	if opts.Debug {
		_, err := fmt.Fprintln(s.stdout, FormatCommand(argv))
		return err
	}

	startTime := time.Now()
	outcome := models.Outcome{
		DryRun:      cfg.Rule.Options.DryRun,
		Source:      cfg.Rule.SourceLabel(),
		Destination: cfg.Rule.DestLabel(),
		StartTime:   startTime,
	}

	s.logger.Info().
		Str("source", outcome.Source).
		Str("dest", outcome.Destination).
		Bool("dry_run", outcome.DryRun).
		Msg("starting rsync run")

	runErr := s.execute(ctx, cfg, opts, argv, now, &outcome)

	outcome.Success = runErr == nil
	outcome.Duration = time.Since(startTime)
	if runErr != nil && outcome.LastErrorLine == "" {
		outcome.LastErrorLine = runErr.Error()
	}

	s.sendNotifications(ctx, cfg.Notify, outcome)

	if runErr != nil {
		return runErr
	}

	s.logger.Info().
		Dur("duration", outcome.Duration).
		Msg("rsync run completed successfully")

	return nil
}

func (s *Impl) execute(
	ctx context.Context,
	cfg models.JobConfig,
	opts models.RunOptions,
	argv []string,
	now time.Time,
	outcome *models.Outcome,
) error {
	if cfg.Wake != nil {
		if err := s.runWake(ctx, cfg.Wake); err != nil {
			return err
		}
	}

	paths, err := resolvePaths(cfg.Rule.Log, now)
	if err != nil {
		return err
	}

	sk, err := s.openSinks(paths, opts.Verbose)
	if err != nil {
		return err
	}

	result, err := s.rsyncSvc.Transfer(ctx, models.TransferRequest{
		Argv:   argv,
		Stdout: sk.stdout,
		Stderr: sk.stderr,
	})
	if closeErr := sk.close(); closeErr != nil {
		s.logger.Warn().Err(closeErr).Msg("failed to close log files")
	}
	if err != nil {
		return fmt.Errorf("rsync failed: %w", err)
	}

	outcome.ExitCode = result.ExitCode
	outcome.LastErrorLine = s.cleanup(paths, sk.tail)

	if result.Error != nil {
		if result.ExitCode > 0 {
			return &TransferError{ExitCode: result.ExitCode, LastLine: outcome.LastErrorLine}
		}
		return fmt.Errorf("rsync failed: %w", result.Error)
	}

	return nil
}

func (s *Impl) runWake(ctx context.Context, cfg *models.WakeConfig) error {
	s.logger.Info().
		Str("mac", cfg.MACAddress).
		Str("host", cfg.Host).
		Msg("waking remote host")

	result, err := s.wolSvc.Wake(ctx, *cfg)
	if err != nil {
		return fmt.Errorf("wake failed: %w", err)
	}
	if result.Error != nil {
		return fmt.Errorf("wake failed: %w", result.Error)
	}
	if !result.HostReady {
		return fmt.Errorf("host %s did not become ready after WOL", cfg.Host)
	}

	s.logger.Info().
		Bool("packet_sent", result.PacketSent).
		Dur("wait_duration", result.WaitDuration).
		Msg("remote host is awake")

	return nil
}

// sendNotifications reports the outcome through every configured channel.
// Failures are logged only.
func (s *Impl) sendNotifications(ctx context.Context, cfg *models.NotifyConfig, outcome models.Outcome) {
	if cfg == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	if len(cfg.Command) > 0 {
		result, err := s.notifySvc.Notify(ctx, cfg.Command, outcome)
		switch {
		case err != nil:
			s.logger.Error().Err(err).Msg("failed to run notification command")
		case result.Error != nil:
			s.logger.Error().Err(result.Error).Msg("failed to run notification command")
		default:
			s.logger.Info().Msg("notification command completed")
		}
	}

	if cfg.Telegram != nil {
		result, err := s.telegramSvc.SendNotification(ctx, *cfg.Telegram, outcome)
		switch {
		case err != nil:
			s.logger.Error().Err(err).Msg("failed to send Telegram notification")
		case result.Error != nil:
			s.logger.Error().Err(result.Error).Msg("failed to send Telegram notification")
		default:
			s.logger.Info().Msg("Telegram notification sent")
		}
	}
}
