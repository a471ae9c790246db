package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fgeck/rsyncrule/internal/config"
	"github.com/fgeck/rsyncrule/internal/models"
	"github.com/fgeck/rsyncrule/internal/rule"
	"github.com/fgeck/rsyncrule/internal/services/runner"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute the rule (same as the root command)",
	Long: `Execute the rule:
1. Wake-on-LAN (if configured)
2. Create the log directories
3. Run rsync with output sent to the progress and error logs
4. Remove the progress log and an empty error log
5. Run the notification command and send Telegram (if configured)`,
	RunE: runRule,
}

func init() {
	addRunFlags(runCmd)
}

func runRule(cmd *cobra.Command, args []string) error {
	parser := config.NewParser()
	cfg, err := parser.LoadFile(configFile)
	if err != nil {
		log.Error().Err(err).Str("file", configFile).Msg("failed to load config")
		return err
	}

	if err := config.Validate(cfg); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return err
	}

	applyDryRun(cfg.Rule, dryRun)

	log.Debug().
		Str("config", configFile).
		Str("source", cfg.Rule.SourceLabel()).
		Str("dest", cfg.Rule.DestLabel()).
		Msg("configuration loaded")

	// Set up context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			log.Warn().Str("signal", sig.String()).Msg("received signal, stopping rsync")
			cancel()
		case <-ctx.Done():
		}
	}()

	runnerSvc := runner.New(log.Logger)
	err = runnerSvc.Run(ctx, *cfg, models.RunOptions{
		Tool:    rsyncTool,
		Verbose: verbose,
		Debug:   debug,
		Now:     time.Now(),
	})
	if err != nil {
		log.Error().Err(err).Msg("rsync run failed")
		return err
	}

	return nil
}

// applyDryRun turns on dry run when the flag is set. Without the flag the
// rule keeps its configured dryrun.
func applyDryRun(r *rule.Rule, flag bool) {
	if flag {
		r.SetDryRun(true)
	}
}
