// Package config loads processor runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap/zapcore"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config controls the processor runtime.
type Config struct {
	// MailboxSize is the buffer of the queue that carries effect outputs back
	// to the dispatcher.
	MailboxSize    int    `env:"PROCESSOR_MAILBOX_SIZE"    envDefault:"64"`
	RegistryShards int    `env:"PROCESSOR_REGISTRY_SHARDS" envDefault:"8"`
	Tracing        bool   `env:"PROCESSOR_TRACING"         envDefault:"false"`
	LogLevel       string `env:"PROCESSOR_LOG_LEVEL"       envDefault:"info"`
	LogBufferSize  int    `env:"PROCESSOR_LOG_BUFFER_SIZE" envDefault:"16"`
	// CloseTimeout bounds how long Close waits for effect goroutines to exit.
	CloseTimeout time.Duration `env:"PROCESSOR_CLOSE_TIMEOUT" envDefault:"1s"`
	// MetricsAddr is the listen address of the demo /metrics endpoint. Empty
	// disables it.
	MetricsAddr string `env:"PROCESSOR_METRICS_ADDR"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		MailboxSize:    64,
		RegistryShards: 8,
		LogLevel:       "info",
		LogBufferSize:  16,
		CloseTimeout:   time.Second,
	}
}

// FromEnv parses the process environment.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// FromMap parses vars instead of the process environment. Unset keys take
// their defaults.
func FromMap(vars map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings the runtime cannot honor.
func (c Config) Validate() error {
	if c.MailboxSize < 0 {
		return fmt.Errorf("%w: mailbox size %d", ErrInvalidConfig, c.MailboxSize)
	}
	if c.RegistryShards < 1 {
		return fmt.Errorf("%w: registry shards %d", ErrInvalidConfig, c.RegistryShards)
	}
	if c.LogBufferSize < 1 {
		return fmt.Errorf("%w: log buffer size %d", ErrInvalidConfig, c.LogBufferSize)
	}
	if c.CloseTimeout < 0 {
		return fmt.Errorf("%w: close timeout %s", ErrInvalidConfig, c.CloseTimeout)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
