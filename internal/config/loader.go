package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"ovpnsync/internal/resolver"
	"ovpnsync/internal/validator"
	"ovpnsync/internal/version"
)

const (
	DefaultInterval   = 10 * time.Minute
	DefaultRetryDelay = time.Minute
)

// Loader reads configuration from an optional file, the environment and
// command line overrides, in increasing priority.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{v: viper.New()}
}

// Load reads the configuration. An empty path searches the standard
// locations and tolerates a missing file; an explicit path must exist.
func (l *Loader) Load(path string, o Overrides) (*Config, error) {
	setDefaults(l.v)

	l.v.SetEnvPrefix(EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	if path != "" {
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		l.v.SetConfigName(AppName)
		l.v.SetConfigType("yaml")
		for _, p := range []string{InDot, InHome, InHomeDot, InEtc} {
			l.v.AddConfigPath(p)
		}
		if err := l.v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	applyOverrides(l.v, o)

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Source = expandPath(cfg.Source)
	cfg.Log.File = expandPath(cfg.Log.File)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// ConfigFileUsed returns the file that was read, if any
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// Load is a shortcut for NewLoader().Load
func Load(path string, o Overrides) (*Config, error) {
	return NewLoader().Load(path, o)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source", "")
	v.SetDefault("destination", "")
	v.SetDefault("interval", DefaultInterval)
	v.SetDefault("retry_delay", DefaultRetryDelay)

	v.SetDefault("resolver.url", resolver.DefaultURL)
	v.SetDefault("resolver.timeout", 30*time.Second)
	v.SetDefault("resolver.user_agent", version.UserAgent(AppName))

	v.SetDefault("log.file", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)
	v.SetDefault("log.compress", false)
	v.SetDefault("log.use_local_time", true)

	v.SetDefault("status.enabled", false)
	v.SetDefault("status.listen", "127.0.0.1:9108")
	v.SetDefault("status.read_timeout", 5*time.Second)
	v.SetDefault("status.write_timeout", 10*time.Second)
	v.SetDefault("status.metrics", true)

	v.SetDefault("notify.enabled", false)
	v.SetDefault("notify.webhook.enabled", false)
	v.SetDefault("notify.webhook.url", "")
	v.SetDefault("notify.webhook.secret", "")
	v.SetDefault("notify.webhook.method", "POST")
	v.SetDefault("notify.webhook.timeout", 10*time.Second)
	v.SetDefault("notify.webhook.max_retries", 3)
	v.SetDefault("notify.rate_limit.enabled", true)
	v.SetDefault("notify.rate_limit.interval", time.Hour)
	v.SetDefault("notify.rate_limit.max_events", 10)
}

func applyOverrides(v *viper.Viper, o Overrides) {
	if o.Source != "" {
		v.Set("source", o.Source)
	}
	if o.Destination != "" {
		v.Set("destination", o.Destination)
	}
	if o.IntervalMinutes > 0 {
		v.Set("interval", time.Duration(o.IntervalMinutes*float64(time.Minute)))
	}
	if o.LogLevel != "" {
		v.Set("log.level", o.LogLevel)
	}
}

func validateConfig(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return err
	}
	if cfg.Notify.Webhook.Enabled && !cfg.Notify.Enabled {
		return fmt.Errorf("notify.webhook.enabled requires notify.enabled")
	}
	return nil
}

// expandPath expands ~ to home directory in file paths
func expandPath(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if len(path) == 1 {
		return home
	}
	return filepath.Join(home, path[1:])
}
