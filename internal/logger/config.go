package logger

import "fmt"

// Config represents logging configuration
type Config struct {
	File         string `mapstructure:"file"`
	MaxSize      int    `mapstructure:"max_size"` // MB
	MaxBackups   int    `mapstructure:"max_backups"`
	MaxAge       int    `mapstructure:"max_age"` // days
	Compress     bool   `mapstructure:"compress"`
	Level        string `mapstructure:"level" validate:"loglevel"` // debug, info, warn, error
	TimeFormat   string `mapstructure:"time_format"`
	UseLocalTime bool   `mapstructure:"use_local_time"`
	// Color forces colored console levels; nil detects a terminal
	Color *bool `mapstructure:"color"`
}

// DefaultTimeFormat is the console timestamp layout
const DefaultTimeFormat = "2006-01-02 15:04:05.000"

// DefaultConfig returns console-only logging at info level
func DefaultConfig() *Config {
	return &Config{
		MaxSize:      100,
		MaxBackups:   3,
		MaxAge:       28,
		Level:        "info",
		TimeFormat:   DefaultTimeFormat,
		UseLocalTime: true,
	}
}

// SetDefaults returns a copy of cfg with empty fields filled in
func (cfg *Config) SetDefaults() *Config {
	out := *cfg
	def := DefaultConfig()
	if out.MaxSize == 0 {
		out.MaxSize = def.MaxSize
	}
	if out.Level == "" {
		out.Level = def.Level
	}
	if out.TimeFormat == "" {
		out.TimeFormat = def.TimeFormat
	}
	return &out
}

// Validate validates logging configuration
func (cfg *Config) Validate() error {
	if cfg.MaxSize <= 0 {
		return fmt.Errorf("max_size must be positive")
	}
	if cfg.MaxBackups < 0 || cfg.MaxAge < 0 {
		return fmt.Errorf("max_backups and max_age cannot be negative")
	}
	switch cfg.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", cfg.Level)
	}
	return nil
}
