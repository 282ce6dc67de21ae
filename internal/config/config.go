// Package config loads the relay's runtime settings from defaults, an
// optional config file, a .env file and the process environment.
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrInvalidConfig wraps every validation failure returned by Load.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config holds the server configuration.
type Config struct {
	Host           string   `mapstructure:"host" validate:"required"`
	Port           int      `mapstructure:"port" validate:"min=1,max=65535"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	MaxMessageSize int64    `mapstructure:"max_message_size" validate:"min=1"`

	QueueSize      int    `mapstructure:"queue_size" validate:"min=1"`
	OverflowPolicy string `mapstructure:"overflow_policy" validate:"oneof=drop_oldest disconnect"`
	HistoryEnabled bool   `mapstructure:"history_enabled"`
	HistoryLimit   int    `mapstructure:"history_limit" validate:"min=0"`

	PingInterval    time.Duration `mapstructure:"ping_interval" validate:"gt=0"`
	PongWait        time.Duration `mapstructure:"pong_wait" validate:"gtfield=PingInterval"`
	WriteWait       time.Duration `mapstructure:"write_wait" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`

	LogLevel       string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogDevelopment bool   `mapstructure:"log_development"`
}

var defaults = map[string]any{
	"host":             "0.0.0.0",
	"port":             8080,
	"allowed_origins":  []string{"*"},
	"max_message_size": 4096,
	"queue_size":       256,
	"overflow_policy":  "drop_oldest",
	"history_enabled":  true,
	"history_limit":    100,
	"ping_interval":    54 * time.Second,
	"pong_wait":        60 * time.Second,
	"write_wait":       10 * time.Second,
	"shutdown_timeout": 10 * time.Second,
	"log_level":        "info",
	"log_development":  false,
}

// Default returns the built-in configuration without consulting the environment.
func Default() *Config {
	return &Config{
		Host:            "0.0.0.0",
		Port:            8080,
		AllowedOrigins:  []string{"*"},
		MaxMessageSize:  4096,
		QueueSize:       256,
		OverflowPolicy:  "drop_oldest",
		HistoryEnabled:  true,
		HistoryLimit:    100,
		PingInterval:    54 * time.Second,
		PongWait:        60 * time.Second,
		WriteWait:       10 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		LogLevel:        "info",
	}
}

// Load builds a Config from defaults, the optional file at path, a .env file
// in the working directory and environment variables (HOST, PORT, ...), in
// increasing order of precedence. Values already present in the environment
// are not overwritten by .env.
func Load(path string) (*Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	cfg.AllowedOrigins = parseOrigins(cfg.AllowedOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Addr joins host and port into a listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// parseOrigins trims entries and drops blanks. A single entry may itself be
// a comma separated list, as it is when read from ALLOWED_ORIGINS.
func parseOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, entry := range origins {
		for _, part := range strings.Split(entry, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out
}
