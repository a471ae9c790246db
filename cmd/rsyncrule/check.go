package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fgeck/rsyncrule/internal/config"
	"github.com/fgeck/rsyncrule/internal/rule"
	"github.com/fgeck/rsyncrule/internal/services/rsync"
	"github.com/fgeck/rsyncrule/internal/services/ssh"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var checkTimeout time.Duration

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that rsync is available locally and on every ssh endpoint",
	Long: `Check the local rsync binary, then connect to each ssh endpoint of the
rule with its configured key and run the remote rsync with --version.`,
	RunE: checkEndpoints,
}

func init() {
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 30*time.Second, "timeout for all checks")
}

func checkEndpoints(cmd *cobra.Command, args []string) error {
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

	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	failed := 0

	version, err := rsync.New(log.Logger).Version(ctx, rsyncTool)
	if err != nil {
		log.Error().Err(err).Str("tool", rsyncTool).Msg("local rsync check failed")
		failed++
	} else {
		fmt.Printf("local: %s\n", version)
	}

	endpoints := []struct {
		name string
		ssh  *rule.SSH
	}{
		{"source", cfg.Rule.Source.SSH},
		{"dest", cfg.Rule.Dest.SSH},
	}

	sshSvc := ssh.New(log.Logger)
	for _, ep := range endpoints {
		if ep.ssh == nil {
			continue
		}

		result, err := sshSvc.Probe(ctx, ep.ssh)
		if err == nil {
			err = result.Error
		}
		if err != nil {
			log.Error().Err(err).Str("endpoint", ep.name).Str("host", ep.ssh.URL).Msg("ssh check failed")
			failed++
			continue
		}

		fmt.Printf("%s (%s): %s\n", ep.name, ep.ssh.Address(), result.RsyncVersion)
	}

	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	return nil
}
