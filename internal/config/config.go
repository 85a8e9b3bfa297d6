package config

import "time"

// Config is the complete ovpnsync configuration
type Config struct {
	// Source is the OpenVPN profile kept in sync
	Source string `mapstructure:"source" validate:"required"`
	// Destination is a path or dropbox::<path>
	Destination string         `mapstructure:"destination" validate:"required,destination"`
	Interval    time.Duration  `mapstructure:"interval" validate:"gt=0"`
	RetryDelay  time.Duration  `mapstructure:"retry_delay" validate:"gt=0"`
	Resolver    ResolverConfig `mapstructure:"resolver"`
	Log         LogConfig      `mapstructure:"log"`
	Status      StatusConfig   `mapstructure:"status"`
	Notify      NotifyConfig   `mapstructure:"notify"`
}

// StatusConfig configures the HTTP status server
type StatusConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Listen       string        `mapstructure:"listen" validate:"required_if=Enabled true,omitempty,hostname_port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" validate:"gte=0"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"gte=0"`
	Metrics      bool          `mapstructure:"metrics"`
}

// Overrides holds values given on the command line. Zero values are ignored.
type Overrides struct {
	Source          string
	Destination     string
	IntervalMinutes float64
	LogLevel        string
}
