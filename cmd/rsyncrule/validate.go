package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fgeck/rsyncrule/internal/config"
	"github.com/fgeck/rsyncrule/internal/models"
	"github.com/fgeck/rsyncrule/internal/rule"
	"github.com/fgeck/rsyncrule/internal/services/runner"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var renderAt string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the rule file and print the rsync command",
	Long: `Validate the rule file without running rsync. The command line is
rendered for the current time, or for --at (e.g. "2024-03-09 14:05").`,
	RunE: validateConfig,
}

func init() {
	validateCmd.Flags().StringVar(&renderAt, "at", "", "render path templates at this time instead of now")
}

func validateConfig(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		log.Error().Str("file", configFile).Msg("config file not found")
		return fmt.Errorf("config file not found: %s", configFile)
	}

	at := time.Now()
	if renderAt != "" {
		var err error
		at, err = rule.ParseTimestamp(renderAt)
		if err != nil {
			log.Error().Err(err).Msg("invalid --at value")
			return err
		}
	}

	parser := config.NewParser()
	cfg, err := parser.LoadFile(configFile)
	if err != nil {
		log.Error().Err(err).Str("file", configFile).Msg("failed to parse config")
		return err
	}

	if err := config.Validate(cfg); err != nil {
		log.Error().Err(err).Msg("configuration validation failed")
		return err
	}

	argv, err := cfg.Rule.Argv(rsyncTool, at)
	if err != nil {
		log.Error().Err(err).Msg("failed to render rsync command")
		return err
	}

	printSummary(cfg, at)
	fmt.Println()
	fmt.Println("Command:")
	fmt.Printf("  %s\n", runner.FormatCommand(argv))

	return nil
}

func printSummary(cfg *models.JobConfig, at time.Time) {
	r := cfg.Rule

	fmt.Println("Configuration is valid!")
	fmt.Println()
	fmt.Println("Summary:")
	fmt.Printf("  Source: %s\n", r.SourceLabel())
	fmt.Printf("  Destination: %s\n", r.DestLabel())
	fmt.Printf("  Excludes: %v\n", r.Options.Exclude)
	fmt.Printf("  Dry run: %v\n", r.Options.DryRun)
	fmt.Printf("  Rendered at: %s\n", at.Format("2006-01-02 15:04:05"))

	if r.Dest.Backup != "" {
		backup, err := rule.Expand(r.Dest.Backup, at)
		if err == nil {
			fmt.Printf("  Backup dir: %s\n", backup)
		}
	}

	if r.Log != nil {
		fmt.Println()
		fmt.Println("Logs:")
		printPath("Success", r.Log.SuccessPath, at)
		printPath("Progress", r.Log.ProgressPath, at)
		printPath("Error", r.Log.ErrorPath, at)
	}

	fmt.Println()
	fmt.Println("Optional Features:")
	fmt.Printf("  Wake-on-LAN: %v\n", cfg.Wake != nil)
	fmt.Printf("  Notify command: %v\n", cfg.Notify != nil && len(cfg.Notify.Command) > 0)
	fmt.Printf("  Telegram: %v\n", cfg.Notify != nil && cfg.Notify.Telegram != nil)

	if cfg.Wake != nil {
		fmt.Println()
		fmt.Println("WOL Configuration:")
		fmt.Printf("  MAC Address: %s\n", cfg.Wake.MACAddress)
		fmt.Printf("  Broadcast IP: %s\n", cfg.Wake.BroadcastIP)
		fmt.Printf("  Wait for: %s:%d (timeout %s)\n", cfg.Wake.Host, cfg.Wake.Port, cfg.Wake.Timeout)
	}

	if cfg.Notify != nil && cfg.Notify.Telegram != nil {
		fmt.Println()
		fmt.Println("Telegram Configuration:")
		fmt.Printf("  Chat ID: %s\n", cfg.Notify.Telegram.ChatID)
		fmt.Printf("  Bot Token: (configured)\n")
	}
}

func printPath(label string, path func(time.Time) (string, error), at time.Time) {
	p, err := path(at)
	if err != nil || p == "" {
		return
	}
	fmt.Printf("  %s: %s\n", label, p)
}
