// Package config loads the runtime configuration for the radio-network
// control core: the UMTS.* values spec.md section 6 says must be
// honoured, plus the ambient NF/observability sections every service in
// this stack carries.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level runtime configuration.
type Config struct {
	NF            NFConfig            `yaml:"nf"`
	UMTS          UMTSConfig          `yaml:"umts"`
	Server        ServerConfig        `yaml:"server"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// NFConfig names this node instance.
type NFConfig struct {
	Name       string `yaml:"name"`
	InstanceID string `yaml:"instance_id"`
	SRNCID     uint16 `yaml:"srnc_id"`
}

// ServerConfig is the debug/inspection HTTP surface (internal/server).
type ServerConfig struct {
	BindAddress string `yaml:"bind_address"`
	Port        int    `yaml:"port"`
}

// UMTSConfig is the set of named values spec.md section 6 requires this
// core to honour.
type UMTSConfig struct {
	Timers       TimersConfig `yaml:"timers"`
	RLC          RLCConfig    `yaml:"rlc"`
	BestEffort   BestEffortConfig `yaml:"best_effort"`
	UseTurboCodes bool        `yaml:"use_turbo_codes"`
	PRACH        ChannelSFConfig `yaml:"prach"`
	SCCPCH       ChannelSFConfig `yaml:"sccpch"`
}

// TimersConfig holds the inactivity and RLC protocol timers spec.md
// sections 4.2, 4.4, and 5 name.
type TimersConfig struct {
	Inactivity InactivityConfig `yaml:"inactivity"`

	Poll           time.Duration `yaml:"poll"`
	PollProhibit   time.Duration `yaml:"poll_prohibit"`
	StatusProhibit time.Duration `yaml:"status_prohibit"`
	RST            time.Duration `yaml:"rst"`

	T300 time.Duration `yaml:"t300"`
	T308 time.Duration `yaml:"t308"`
	T314 time.Duration `yaml:"t314"`
	T315 time.Duration `yaml:"t315"`
}

// InactivityConfig is `UMTS.Timers.Inactivity.*`.
type InactivityConfig struct {
	Release time.Duration `yaml:"release"`
	Delete  time.Duration `yaml:"delete"`
}

// RLCConfig is `UMTS.RLC.*`.
type RLCConfig struct {
	TransmissionBufferSize int `yaml:"transmission_buffer_size"`
	MaxDAT                 int `yaml:"max_dat"`
	MaxRST                 int `yaml:"max_rst"`
}

// BestEffortConfig is `UMTS.Best.Effort.BytesPerSec`.
type BestEffortConfig struct {
	BytesPerSec int `yaml:"bytes_per_sec"`
}

// ChannelSFConfig is the semi-static spreading factor for a common
// channel (`UMTS.PRACH.SF`, `UMTS.SCCPCH.SF`).
type ChannelSFConfig struct {
	SF int `yaml:"sf"`
}

type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
	Logging LoggingConfig `yaml:"logging"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type TracingConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"`
	Endpoint string `yaml:"endpoint"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and validates a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks the fields this core actually depends on.
func (c *Config) Validate() error {
	if c.NF.Name == "" {
		return fmt.Errorf("nf.name is required")
	}
	if c.NF.SRNCID == 0 || c.NF.SRNCID > 0xfff {
		return fmt.Errorf("nf.srnc_id must be in [1, 4095]")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port: %d", c.Server.Port)
	}
	if c.UMTS.Timers.Inactivity.Release <= 0 {
		return fmt.Errorf("umts.timers.inactivity.release must be positive")
	}
	if c.UMTS.Timers.Inactivity.Delete <= 0 {
		return fmt.Errorf("umts.timers.inactivity.delete must be positive")
	}
	if c.UMTS.RLC.TransmissionBufferSize <= 0 {
		return fmt.Errorf("umts.rlc.transmission_buffer_size must be positive")
	}
	if c.UMTS.RLC.MaxDAT <= 0 {
		return fmt.Errorf("umts.rlc.max_dat must be positive")
	}
	if c.UMTS.RLC.MaxRST <= 0 {
		return fmt.Errorf("umts.rlc.max_rst must be positive")
	}
	if c.UMTS.BestEffort.BytesPerSec <= 0 {
		return fmt.Errorf("umts.best_effort.bytes_per_sec must be positive")
	}
	if c.UMTS.PRACH.SF <= 0 {
		return fmt.Errorf("umts.prach.sf must be positive")
	}
	if c.UMTS.SCCPCH.SF <= 0 {
		return fmt.Errorf("umts.sccpch.sf must be positive")
	}
	return nil
}

// Default returns a configuration with literal values matching the
// worked end-to-end scenarios in spec.md section 8.
func Default() *Config {
	return &Config{
		NF:     NFConfig{Name: "nodeb-1", InstanceID: "nodeb-1", SRNCID: 1},
		Server: ServerConfig{BindAddress: "0.0.0.0", Port: 8080},
		UMTS: UMTSConfig{
			Timers: TimersConfig{
				Inactivity:     InactivityConfig{Release: 10 * time.Second, Delete: 60 * time.Second},
				Poll:           500 * time.Millisecond,
				PollProhibit:   100 * time.Millisecond,
				StatusProhibit: 100 * time.Millisecond,
				RST:            1 * time.Second,
				T300:           2 * time.Second,
				T308:           2 * time.Second,
				T314:           5 * time.Second,
				T315:           5 * time.Second,
			},
			RLC:           RLCConfig{TransmissionBufferSize: 1 << 20, MaxDAT: 4, MaxRST: 3},
			BestEffort:    BestEffortConfig{BytesPerSec: 16000},
			UseTurboCodes: false,
			PRACH:         ChannelSFConfig{SF: 256},
			SCCPCH:        ChannelSFConfig{SF: 128},
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{Enabled: true, Port: 9090},
			Tracing: TracingConfig{Enabled: false, Exporter: "none"},
			Logging: LoggingConfig{Level: "info", Format: "json"},
		},
	}
}
