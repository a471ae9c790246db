package main

import (
	"io"
	"os"
	"strings"

	"github.com/fgeck/rsyncrule/internal/services/rsync"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// Version is set at build time.
	Version = "dev"

	// Configuration flags.
	configFile string
	verbose    bool
	quiet      bool
	jsonOutput bool
	logFile    string
	rsyncTool  string

	// Run flags.
	dryRun bool
	debug  bool
)

var rootCmd = &cobra.Command{
	Use:   "rsyncrule",
	Short: "Run rsync from a declarative rule file",
	Long: `rsyncrule builds an rsync command line from a rule file and runs it:
  - source and destination, local or over ssh
  - transfer options and excludes
  - time-stamped success, progress and error logs
  - Wake-on-LAN of the remote host before the transfer
  - command and Telegram notifications afterwards

Use as a one-shot command with an external scheduler (cron, systemd timer, etc.)`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
	RunE:         runRule,
	Version:      Version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "rule file (required)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show rsync output on the console and enable debug logs")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "enable quiet mode (errors only)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output logs in JSON format")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write logs to this file (rotated)")
	rootCmd.PersistentFlags().StringVar(&rsyncTool, "rsync", rsync.DefaultTool, "rsync binary to run")
	_ = rootCmd.MarkPersistentFlagRequired("config")

	addRunFlags(rootCmd)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(checkCmd)
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&dryRun, "dryrun", "n", false, "pass --dry-run to rsync")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "print the rsync command instead of running it")
}

func setupLogging() {
	var console io.Writer
	if jsonOutput {
		console = os.Stderr
	} else {
		output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
		output.FormatLevel = func(i interface{}) string {
			if s, ok := i.(string); ok {
				return strings.ToUpper(s)
			}
			return ""
		}
		console = output
	}

	out := console
	if logFile != "" {
		out = zerolog.MultiLevelWriter(console, &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10, // megabytes
			MaxBackups: 5,
			MaxAge:     90, // days
			Compress:   true,
		})
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()

	switch {
	case quiet:
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case verbose:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
