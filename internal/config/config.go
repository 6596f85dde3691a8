package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all the configuration parameters for the application.
type Config struct {
	Decoder struct {
		// VerifyBlocks is the number of consecutive exact block
		// recoveries required before declaring lock (one full group).
		VerifyBlocks int `mapstructure:"verify_blocks"`
		// LossBlocks is the number of consecutive failed blocks that
		// demotes the synchronizer back to the unlocked state.
		LossBlocks int `mapstructure:"loss_blocks"`
		// MaxCorrectBurst is the widest error burst (in bits) repaired
		// in a received block. 0 disables correction, 5 is the limit of
		// the (26,16) code.
		MaxCorrectBurst int `mapstructure:"max_correct_burst"`
		// SilenceTimeout evicts a station after this long without a
		// valid group for its PI.
		SilenceTimeout time.Duration `mapstructure:"silence_timeout"`
		// EvictionPeriod is how often the stale-station sweep runs.
		EvictionPeriod time.Duration `mapstructure:"eviction_period"`
		// SnapshotQueue is the capacity of the outbound station
		// snapshot queue. When full, the oldest snapshot is dropped.
		SnapshotQueue int `mapstructure:"snapshot_queue"`
		// PTYRegion selects the program type name table: "eu" or "us".
		PTYRegion string `mapstructure:"pty_region"`
	} `mapstructure:"decoder"`
	Input struct {
		// Format of the symbol stream: "auto", "raw" (one byte per
		// symbol), "packed" (8 symbols per byte, MSB first) or "wav"
		// (16-bit PCM hard-sliced symbols).
		Format string `mapstructure:"format"`
		// RingSize is the symbol ring buffer capacity in bits.
		RingSize int `mapstructure:"ring_size"`
		// ChunkSize is how many input bytes are read per syscall.
		ChunkSize int `mapstructure:"chunk_size"`
	} `mapstructure:"input"`
	Server struct {
		// Listen is the HTTP listen address for the state/diagnostics
		// API. Empty disables the server.
		Listen   string `mapstructure:"listen"`
		LogLevel string `mapstructure:"log_level"`
	} `mapstructure:"server"`
}

// New returns a new Config with default values.
func New() *Config {
	cfg := &Config{}
	cfg.Decoder.VerifyBlocks = 4
	cfg.Decoder.LossBlocks = 5
	cfg.Decoder.MaxCorrectBurst = 2
	cfg.Decoder.SilenceTimeout = 60 * time.Second
	cfg.Decoder.EvictionPeriod = 5 * time.Second
	cfg.Decoder.SnapshotQueue = 64
	cfg.Decoder.PTYRegion = "eu"
	cfg.Input.Format = "auto"
	cfg.Input.RingSize = 1 << 20 // ~15 minutes of RDS at 1187.5 bit/s
	cfg.Input.ChunkSize = 8192
	cfg.Server.Listen = ":5000"
	cfg.Server.LogLevel = "info"
	return cfg
}

// Load reads configuration from config.yaml and RDS_* environment
// variables layered over the defaults from New.
func Load() (*Config, error) {
	viper.SetEnvPrefix("RDS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.BindEnv("decoder.verify_blocks")
	viper.BindEnv("decoder.loss_blocks")
	viper.BindEnv("decoder.max_correct_burst")
	viper.BindEnv("decoder.silence_timeout")
	viper.BindEnv("decoder.eviction_period")
	viper.BindEnv("decoder.snapshot_queue")
	viper.BindEnv("decoder.pty_region")
	viper.BindEnv("input.format")
	viper.BindEnv("input.ring_size")
	viper.BindEnv("input.chunk_size")
	viper.BindEnv("server.listen")
	viper.BindEnv("server.log_level")

	defaults := New()
	viper.SetDefault("decoder.verify_blocks", defaults.Decoder.VerifyBlocks)
	viper.SetDefault("decoder.loss_blocks", defaults.Decoder.LossBlocks)
	viper.SetDefault("decoder.max_correct_burst", defaults.Decoder.MaxCorrectBurst)
	viper.SetDefault("decoder.silence_timeout", defaults.Decoder.SilenceTimeout)
	viper.SetDefault("decoder.eviction_period", defaults.Decoder.EvictionPeriod)
	viper.SetDefault("decoder.snapshot_queue", defaults.Decoder.SnapshotQueue)
	viper.SetDefault("decoder.pty_region", defaults.Decoder.PTYRegion)
	viper.SetDefault("input.format", defaults.Input.Format)
	viper.SetDefault("input.ring_size", defaults.Input.RingSize)
	viper.SetDefault("input.chunk_size", defaults.Input.ChunkSize)
	viper.SetDefault("server.listen", defaults.Server.Listen)
	viper.SetDefault("server.log_level", defaults.Server.LogLevel)

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// No config.yaml: defaults and environment only.
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects parameter values the decoder cannot operate with.
func (c *Config) Validate() error {
	if c.Decoder.VerifyBlocks < 1 {
		return fmt.Errorf("decoder.verify_blocks must be >= 1, got %d", c.Decoder.VerifyBlocks)
	}
	if c.Decoder.LossBlocks < 1 {
		return fmt.Errorf("decoder.loss_blocks must be >= 1, got %d", c.Decoder.LossBlocks)
	}
	if c.Decoder.MaxCorrectBurst < 0 || c.Decoder.MaxCorrectBurst > 5 {
		return fmt.Errorf("decoder.max_correct_burst must be in 0..5, got %d", c.Decoder.MaxCorrectBurst)
	}
	if c.Decoder.SilenceTimeout <= 0 {
		return fmt.Errorf("decoder.silence_timeout must be positive, got %s", c.Decoder.SilenceTimeout)
	}
	if c.Decoder.SnapshotQueue < 1 {
		return fmt.Errorf("decoder.snapshot_queue must be >= 1, got %d", c.Decoder.SnapshotQueue)
	}
	switch c.Decoder.PTYRegion {
	case "eu", "us":
	default:
		return fmt.Errorf("decoder.pty_region must be %q or %q, got %q", "eu", "us", c.Decoder.PTYRegion)
	}
	switch c.Input.Format {
	case "auto", "raw", "packed", "wav":
	default:
		return fmt.Errorf("input.format must be one of auto, raw, packed, wav, got %q", c.Input.Format)
	}
	if c.Input.RingSize < 2 {
		return fmt.Errorf("input.ring_size must be >= 2, got %d", c.Input.RingSize)
	}
	if c.Input.ChunkSize < 1 {
		return fmt.Errorf("input.chunk_size must be >= 1, got %d", c.Input.ChunkSize)
	}
	return nil
}
