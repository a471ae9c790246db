// Package config provides configuration file parsing.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/anmitsu/go-shlex"
	"github.com/fgeck/rsyncrule/internal/models"
	"github.com/fgeck/rsyncrule/internal/rule"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// DefaultConfigType is used when the file extension names no known format.
const DefaultConfigType = "json"

var configTypes = map[string]bool{"json": true, "yaml": true, "yml": true, "toml": true}

// Parser handles configuration file parsing.
type Parser struct {
	v *viper.Viper
}

// NewParser creates a new configuration parser.
func NewParser() *Parser {
	v := viper.New()
	v.SetConfigType(DefaultConfigType)
	return &Parser{v: v}
}

// LoadFile loads configuration from a file path. The format follows the
// file extension and falls back to JSON.
func (p *Parser) LoadFile(path string) (*models.JobConfig, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if configTypes[ext] {
		p.v.SetConfigType(ext)
	}
	p.v.SetConfigFile(path)

	if err := p.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return p.parse()
}

// LoadReader loads configuration from a string in the given format
// (useful for testing). An empty format means JSON.
func (p *Parser) LoadReader(content, format string) (*models.JobConfig, error) {
	if format == "" {
		format = DefaultConfigType
	}
	p.v.SetConfigType(format)

	if err := p.v.ReadConfig(strings.NewReader(content)); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	return p.parse()
}

func (p *Parser) parse() (*models.JobConfig, error) {
	cfg := &models.JobConfig{}

	// The rule document is handed over untyped; unknown keys stay ignored.
	raw := make(map[string]any)
	for _, key := range rule.Keys() {
		if p.v.IsSet(key) {
			raw[key] = p.v.Get(key)
		}
	}

	r, err := rule.New(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing rule: %w", err)
	}
	cfg.Rule = r

	// Parse optional notification config.
	if p.v.IsSet("notify") {
		command, err := parseCommand(p.v.Get("notify.command"))
		if err != nil {
			return nil, fmt.Errorf("parsing notify.command: %w", err)
		}
		cfg.Notify = &models.NotifyConfig{Command: command}

		if p.v.IsSet("notify.telegram") {
			cfg.Notify.Telegram = &models.TelegramConfig{
				BotToken: p.expandEnv(p.v.GetString("notify.telegram.bot_token")),
				ChatID:   p.expandEnv(p.v.GetString("notify.telegram.chat_id")),
			}

			if cfg.Notify.Telegram.BotToken == "" {
				return nil, fmt.Errorf("notify.telegram.bot_token is required when telegram is configured")
			}
			if cfg.Notify.Telegram.ChatID == "" {
				return nil, fmt.Errorf("notify.telegram.chat_id is required when telegram is configured")
			}
		}
	}

	// Parse optional wake config.
	if p.v.IsSet("wake") { //nolint:nestif // config parsing with defaults
		cfg.Wake = &models.WakeConfig{
			MACAddress:    p.v.GetString("wake.mac_address"),
			BroadcastIP:   p.v.GetString("wake.broadcast_ip"),
			Host:          p.v.GetString("wake.host"),
			Port:          p.v.GetInt("wake.port"),
			Timeout:       p.v.GetDuration("wake.timeout"),
			PollInterval:  p.v.GetDuration("wake.poll_interval"),
			StabilizeWait: p.v.GetDuration("wake.stabilize_wait"),
		}

		if cfg.Wake.MACAddress == "" {
			return nil, fmt.Errorf("wake.mac_address is required when wake is configured")
		}

		// Default the polled host to the remote endpoint.
		remote := remoteEndpoint(r)
		if cfg.Wake.Host == "" && remote != nil {
			cfg.Wake.Host = remote.URL
		}
		if cfg.Wake.Port == 0 {
			cfg.Wake.Port = rule.DefaultSSHPort
			if remote != nil {
				cfg.Wake.Port = remote.Port
			}
		}

		// Set defaults.
		if cfg.Wake.BroadcastIP == "" {
			cfg.Wake.BroadcastIP = "255.255.255.255"
		}
		if cfg.Wake.Timeout == 0 {
			cfg.Wake.Timeout = 5 * time.Minute
		}
		if cfg.Wake.PollInterval == 0 {
			cfg.Wake.PollInterval = 10 * time.Second
		}
		if cfg.Wake.StabilizeWait == 0 {
			cfg.Wake.StabilizeWait = 10 * time.Second
		}
	}

	return cfg, nil
}

// remoteEndpoint returns the ssh endpoint of the rule, destination first.
func remoteEndpoint(r *rule.Rule) *rule.SSH {
	if r.Dest.SSH != nil {
		return r.Dest.SSH
	}
	return r.Source.SSH
}

// parseCommand accepts either an argument list or a single shell-quoted string.
func parseCommand(raw any) ([]string, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		return shlex.Split(v, true)
	default:
		return cast.ToStringSliceE(v)
	}
}

// expandEnv expands environment variables in the format ${VAR} or $VAR.
func (p *Parser) expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Validate performs validation on the loaded configuration.
func Validate(cfg *models.JobConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	if cfg.Rule == nil {
		return fmt.Errorf("rule is required")
	}

	if cfg.Rule.Source.Remote() && cfg.Rule.Dest.Remote() {
		return fmt.Errorf("source and dest cannot both be remote")
	}

	if cfg.Wake != nil && cfg.Wake.Host == "" {
		return fmt.Errorf("wake.host is required when neither source nor dest uses ssh")
	}

	return nil
}
