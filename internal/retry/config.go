package retry

import (
	"encoding/json"
	"errors"
	"time"
)

// Config defines the configuration for the retry mechanism.
type Config struct {
	Enable      bool          `mapstructure:"enable"`       // Enable retry
	MaxAttempts int           `mapstructure:"max_attempts"` // Total attempts including the first
	Interval    time.Duration `mapstructure:"interval"`     // Base wait, grows with the square of the attempt
	MaxInterval time.Duration `mapstructure:"max_interval"` // Upper bound of a single wait
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() *Config {
	return &Config{
		Enable:      true,
		MaxAttempts: 3,
		Interval:    time.Second,
		MaxInterval: 30 * time.Second,
	}
}

// Validate validates the retry configuration.
func (cfg *Config) Validate() error {
	if cfg == nil || !cfg.Enable {
		return nil
	}
	if cfg.MaxAttempts <= 0 {
		return errors.New("MaxAttempts must be greater than zero")
	}
	if cfg.Interval < 0 || cfg.MaxInterval < 0 {
		return errors.New("intervals cannot be negative")
	}
	if cfg.MaxInterval > 0 && cfg.Interval > cfg.MaxInterval {
		return errors.New("MaxInterval must be greater than Interval")
	}
	return nil
}

// Backoff returns the wait after the given failed attempt, starting at 1.
func (cfg *Config) Backoff(attempt int) time.Duration {
	d := time.Duration(attempt*attempt) * cfg.Interval
	if cfg.MaxInterval > 0 && d > cfg.MaxInterval {
		d = cfg.MaxInterval
	}
	return d
}

// String returns a JSON string representation of the Config.
func (cfg *Config) String() string {
	data, _ := json.Marshal(cfg)
	return string(data)
}
