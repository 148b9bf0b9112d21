// Copyright 2021 The fetchgate Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package config loads the fetchgate command configuration from a YAML
// file and FETCHGATE_-prefixed environment variables.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gogama/fetchgate/cooldown"
	"github.com/gogama/fetchgate/ledger"
	"github.com/gogama/fetchgate/netstate"
	"github.com/gogama/fetchgate/store"
)

// Config represents the top-level configuration.
type Config struct {
	Ledger  LedgerConfig  `yaml:"ledger"  envPrefix:"LEDGER_"`
	Store   store.Config  `yaml:"store"   envPrefix:"STORE_"`
	Fetch   FetchConfig   `yaml:"fetch"   envPrefix:"FETCH_"`
	Probe   ProbeConfig   `yaml:"probe"   envPrefix:"PROBE_"`
	Metrics MetricsConfig `yaml:"metrics" envPrefix:"METRICS_"`
	Logging LoggingConfig `yaml:"logging" envPrefix:"LOGGING_"`
}

// LedgerConfig holds the ledger's freshness window, cooldowns and
// persistence queue settings.
type LedgerConfig struct {
	Freshness      time.Duration  `yaml:"freshness"       env:"FRESHNESS"`
	Cooldown       CooldownConfig `yaml:"cooldown"        envPrefix:"COOLDOWN_"`
	QueueSize      int            `yaml:"queue_size"      env:"QUEUE_SIZE"`
	PersistTimeout time.Duration  `yaml:"persist_timeout" env:"PERSIST_TIMEOUT"`
}

// CooldownConfig holds the duration of each cooldown bucket.
type CooldownConfig struct {
	None   time.Duration `yaml:"none"   env:"NONE"`
	Short  time.Duration `yaml:"short"  env:"SHORT"`
	Medium time.Duration `yaml:"medium" env:"MEDIUM"`
	Long   time.Duration `yaml:"long"   env:"LONG"`
}

// Durations converts c for use with cooldown.NewPolicy.
func (c CooldownConfig) Durations() cooldown.Durations {
	return cooldown.Durations{
		None:   c.None,
		Short:  c.Short,
		Medium: c.Medium,
		Long:   c.Long,
	}
}

// FetchConfig holds HTTP fetch settings.
type FetchConfig struct {
	Timeout    time.Duration `yaml:"timeout"     env:"TIMEOUT"`
	RequireTLS bool          `yaml:"require_tls" env:"REQUIRE_TLS"`
	MediaTypes []string      `yaml:"media_types" env:"MEDIA_TYPES" envSeparator:","`
	MaxSize    int64         `yaml:"max_size"    env:"MAX_SIZE"` // 0 = unlimited
	Strategy   string        `yaml:"strategy"    env:"STRATEGY"`
	UserAgent  string        `yaml:"user_agent"  env:"USER_AGENT"`
}

// ProbeConfig holds network reachability probe settings.
type ProbeConfig struct {
	Disabled bool          `yaml:"disabled" env:"DISABLED"`
	Addrs    []string      `yaml:"addrs"    env:"ADDRS" envSeparator:","`
	Interval time.Duration `yaml:"interval" env:"INTERVAL"`
	Timeout  time.Duration `yaml:"timeout"  env:"TIMEOUT"`
}

// MetricsConfig holds the Prometheus endpoint settings.
type MetricsConfig struct {
	Addr string `yaml:"addr" env:"ADDR"` // empty = disabled
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"  env:"LEVEL"`  // debug, info, warn, error
	Format string `yaml:"format" env:"FORMAT"` // text, json
}

// Default returns the configuration used for anything a file or the
// environment does not set.
func Default() *Config {
	d := cooldown.DefaultDurations
	return &Config{
		Ledger: LedgerConfig{
			Freshness: ledger.DefaultFreshness,
			Cooldown: CooldownConfig{
				None:   d.None,
				Short:  d.Short,
				Medium: d.Medium,
				Long:   d.Long,
			},
			QueueSize:      ledger.DefaultQueueSize,
			PersistTimeout: ledger.DefaultPersistTimeout,
		},
		Store: store.Config{
			Driver: store.Memory,
		},
		Fetch: FetchConfig{
			Timeout:   30 * time.Second,
			UserAgent: "fetchgate/1",
		},
		Probe: ProbeConfig{
			Addrs:    append([]string(nil), netstate.DefaultAddrs...),
			Interval: netstate.DefaultInterval,
			Timeout:  netstate.DefaultTimeout,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Ledger.Freshness <= 0 {
		return fmt.Errorf("ledger.freshness must be positive, got %s", c.Ledger.Freshness)
	}
	if err := c.Ledger.Cooldown.Durations().Validate(); err != nil {
		return fmt.Errorf("ledger.cooldown: %w", err)
	}
	if c.Ledger.QueueSize < 0 {
		return fmt.Errorf("ledger.queue_size must not be negative, got %d", c.Ledger.QueueSize)
	}
	if c.Fetch.MaxSize < 0 {
		return fmt.Errorf("fetch.max_size must not be negative, got %d", c.Fetch.MaxSize)
	}
	switch c.Store.Driver {
	case "", store.Memory, store.SQLite, store.Postgres, store.Redis:
	default:
		return fmt.Errorf("store.driver: unknown driver %q", c.Store.Driver)
	}
	if _, err := c.Logging.SlogLevel(); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

// SlogLevel parses Level.
func (c LoggingConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if c.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("logging.level: %w", err)
	}
	return level, nil
}
