// Package config loads the process-wide configuration surface named by
// spec §6: listen address, domain name, anonymous-login policy, the user
// table, and the share table. It follows dittofs's pkg/adapter/smb
// config.go idiom (mapstructure tags + applyDefaults + go-playground
// validator), layered on viper for file/env loading the way dittofs's
// pkg/config/config.go does.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// TimeoutsConfig groups connection timeout knobs, mirroring dittofs's
// SMBTimeoutsConfig.
type TimeoutsConfig struct {
	Read     time.Duration `mapstructure:"read" validate:"min=0"`
	Write    time.Duration `mapstructure:"write" validate:"min=0"`
	Idle     time.Duration `mapstructure:"idle" validate:"min=0"`
	Shutdown time.Duration `mapstructure:"shutdown" validate:"required,gt=0"`
}

// UserConfig is one configured account's stored credential hashes, hex
// encoded in the config file, per spec §6 ("users: map from lowercase
// account name -> {lmHash: hex, ntlmHash: hex}").
type UserConfig struct {
	LMHash   string `mapstructure:"lm_hash"`
	NTLMHash string `mapstructure:"ntlm_hash"`
}

// ShareConfig is one configured share entry, per spec §6. Backend "disk"
// maps path-relative operations onto a local directory; "ipc" marks the
// reserved named-pipe share auto-created for IPC$ if not already present.
type ShareConfig struct {
	Backend string `mapstructure:"backend" validate:"required,oneof=disk ipc"`
	Root    string `mapstructure:"root"`
	Comment string `mapstructure:"comment"`
}

// ListenConfig groups the TCP bind address/port.
type ListenConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port" validate:"min=0,max=65535"`
}

// MetricsConfig controls the optional Prometheus exposition endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
}

// Config is the complete process-wide configuration surface, per spec §6.
type Config struct {
	Listen         ListenConfig           `mapstructure:"listen"`
	DomainName     string                 `mapstructure:"domain_name"`
	AllowAnonymous bool                   `mapstructure:"allow_anonymous"`
	Users          map[string]UserConfig  `mapstructure:"users"`
	Shares         map[string]ShareConfig `mapstructure:"shares"`
	MaxConnections int                    `mapstructure:"max_connections" validate:"min=0"`
	Timeouts       TimeoutsConfig         `mapstructure:"timeouts"`
	Logging        LoggingConfig          `mapstructure:"logging"`
	Metrics        MetricsConfig          `mapstructure:"metrics"`
}

// LoggingConfig mirrors internal/logger.Config's shape for mapstructure
// decoding from file/env.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"omitempty,oneof=DEBUG INFO WARN ERROR"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=text json"`
	Output string `mapstructure:"output"`
}

// applyDefaults fills in zero values with sensible defaults, mirroring
// dittofs's SMBConfig.applyDefaults.
func (c *Config) applyDefaults() {
	if c.Listen.Port == 0 {
		c.Listen.Port = 445
	}
	if c.Listen.Host == "" {
		c.Listen.Host = "0.0.0.0"
	}
	if c.Timeouts.Read == 0 {
		c.Timeouts.Read = 5 * time.Minute
	}
	if c.Timeouts.Write == 0 {
		c.Timeouts.Write = 30 * time.Second
	}
	if c.Timeouts.Idle == 0 {
		c.Timeouts.Idle = 5 * time.Minute
	}
	if c.Timeouts.Shutdown == 0 {
		c.Timeouts.Shutdown = 30 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "INFO"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	if c.Metrics.Listen == "" {
		c.Metrics.Listen = "127.0.0.1:9445"
	}

	if c.Shares == nil {
		c.Shares = map[string]ShareConfig{}
	}

	normalized := make(map[string]ShareConfig, len(c.Shares))
	for name, share := range c.Shares {
		normalized[strings.ToUpper(name)] = share
	}
	c.Shares = normalized

	// IPC$ is always present, per spec §6; an explicit entry in the file
	// may override its comment but never its backend.
	ipc := c.Shares["IPC$"]
	ipc.Backend = "ipc"
	c.Shares["IPC$"] = ipc

	if c.Users == nil {
		c.Users = map[string]UserConfig{}
	}
	normalizedUsers := make(map[string]UserConfig, len(c.Users))
	for name, u := range c.Users {
		normalizedUsers[strings.ToLower(name)] = u
	}
	c.Users = normalizedUsers
}

var validate = validator.New()

func (c *Config) validateConfig() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	for name, share := range c.Shares {
		if share.Backend == "disk" && share.Root == "" {
			return fmt.Errorf("config: share %q: disk backend requires root", name)
		}
	}
	return nil
}

// Load reads configuration from path (if non-empty), environment
// variables prefixed SMB1D_, and built-in defaults (env overrides file,
// file overrides defaults), mirroring dittofs's viper-based
// pkg/config.Load. No command-line flag is bound to a configuration key.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SMB1D")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			// A missing file is not an error, mirroring dittofs's Load: an
			// explicit --config pointing nowhere just means "use defaults",
			// so the server can start with zero configuration for a quick try.
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validateConfig(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MustLoad is Load, panicking on error — used by cmd/smb1d where a
// misconfigured server should fail fast at startup.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}
