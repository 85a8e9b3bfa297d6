package config

import "time"

// NotifyConfig represents notification configuration
type NotifyConfig struct {
	Enabled   bool                  `mapstructure:"enabled"`
	Webhook   WebhookConfig         `mapstructure:"webhook"`
	RateLimit NotifyRateLimitConfig `mapstructure:"rate_limit"`
}

// NotifyRateLimitConfig represents rate limiting configuration
type NotifyRateLimitConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Interval  time.Duration `mapstructure:"interval" validate:"gte=0"`
	MaxEvents int           `mapstructure:"max_events" validate:"gte=0"`
}

// WebhookConfig represents the webhook notification configuration
type WebhookConfig struct {
	Enabled    bool              `mapstructure:"enabled"`
	URL        string            `mapstructure:"url" validate:"required_if=Enabled true,omitempty,url"`
	Secret     string            `mapstructure:"secret"`
	Method     string            `mapstructure:"method" validate:"omitempty,oneof=POST PUT"`
	Timeout    time.Duration     `mapstructure:"timeout" validate:"gte=0"`
	MaxRetries int               `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	Headers    map[string]string `mapstructure:"headers"`
	CommonData map[string]any    `mapstructure:"common_data"`
}
