package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Addr                   string `mapstructure:"addr"`
		KeepAliveSeconds       int    `mapstructure:"keepalive_seconds"`
		ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds"`
	} `mapstructure:"server"`
	Database struct {
		URL string `mapstructure:"url"`
	} `mapstructure:"database"`
	Broadcast struct {
		Capacity int `mapstructure:"capacity"`
	} `mapstructure:"broadcast"`
	Auth struct {
		JWTSecret     string `mapstructure:"jwt_secret"`
		OperatorKey   string `mapstructure:"operator_key"`
		TokenTTLHours int    `mapstructure:"token_ttl_hours"`
	} `mapstructure:"auth"`
	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
}

func (c *Config) KeepAlive() time.Duration {
	return time.Duration(c.Server.KeepAliveSeconds) * time.Second
}

func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeoutSeconds) * time.Second
}

func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTLHours) * time.Hour
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("SHOWLINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	keys := []string{
		"server.addr", "server.keepalive_seconds", "server.shutdown_timeout_seconds",
		"broadcast.capacity",
		"auth.jwt_secret", "auth.operator_key", "auth.token_ttl_hours",
		"log.level", "log.format",
	}
	for _, k := range keys {
		v.BindEnv(k)
	}
	// keep the plain variable name used by existing deployments
	v.BindEnv("database.url", "SHOWLINE_DATABASE_URL", "DB_URL")

	v.SetDefault("server.addr", ":3000")
	v.SetDefault("server.keepalive_seconds", 15)
	v.SetDefault("server.shutdown_timeout_seconds", 5)
	v.SetDefault("database.url", "sqlite://showline.db")
	v.SetDefault("broadcast.capacity", 16)
	v.SetDefault("auth.token_ttl_hours", 72)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("../")
	return v
}

// loadConfig reads the optional config file and the environment. A missing
// file is not an error; a missing secret is.
func loadConfig(v *viper.Viper) (*Config, bool, error) {
	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, false, fmt.Errorf("config error: %w", err)
		}
		fileFound = false
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, false, fmt.Errorf("unable to decode config: %w", err)
	}

	if cfg.Auth.JWTSecret == "" {
		return nil, false, errors.New("auth.jwt_secret is missing (SHOWLINE_AUTH_JWT_SECRET)")
	}
	if cfg.Auth.OperatorKey == "" {
		return nil, false, errors.New("auth.operator_key is missing (SHOWLINE_AUTH_OPERATOR_KEY)")
	}
	if _, err := zerolog.ParseLevel(cfg.Log.Level); err != nil {
		return nil, false, fmt.Errorf("invalid log.level %q: %w", cfg.Log.Level, err)
	}
	return &cfg, fileFound, nil
}

// watchLogLevel re-applies log.level whenever the config file changes.
func watchLogLevel(v *viper.Viper, logger zerolog.Logger) {
	v.OnConfigChange(func(e fsnotify.Event) {
		level, err := zerolog.ParseLevel(v.GetString("log.level"))
		if err != nil {
			logger.Warn().Err(err).Str("file", e.Name).Msg("ignoring invalid log.level")
			return
		}
		zerolog.SetGlobalLevel(level)
		logger.Info().Str("file", e.Name).Str("level", level.String()).Msg("log level reloaded")
	})
	v.WatchConfig()
}
