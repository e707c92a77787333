package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/verte-zerg/typerace/internal/model"
)

const (
	// DefaultServer is the backend used when nothing else is configured.
	DefaultServer  = "http://localhost:5000"
	DefaultTimeout = 5 * time.Second
)

// Defaults returns the built-in configuration.
func Defaults() model.Config {
	return model.Config{
		Server:   DefaultServer,
		Timeout:  DefaultTimeout,
		LogLevel: slog.LevelInfo,
		LogFile:  DefaultLogPath(),
	}
}

// Merge layers the file config and then the environment over base.
func Merge(base model.Config, file FileConfig, envCfg EnvConfig) (model.Config, error) {
	cfg := base
	fc := file.Client
	if fc.Server != nil {
		cfg.Server = *fc.Server
	}
	if fc.Timeout != nil {
		d, err := time.ParseDuration(*fc.Timeout)
		if err != nil {
			return model.Config{}, fmt.Errorf("invalid timeout %q: %w", *fc.Timeout, err)
		}
		cfg.Timeout = d
	}
	if fc.LogLevel != nil {
		level, err := ParseLogLevel(*fc.LogLevel)
		if err != nil {
			return model.Config{}, err
		}
		cfg.LogLevel = level
	}
	if fc.LogFile != nil {
		cfg.LogFile = *fc.LogFile
	}
	if fc.NoHistory != nil {
		cfg.NoHistory = *fc.NoHistory
	}

	if envCfg.Server != nil {
		cfg.Server = *envCfg.Server
	}
	if envCfg.Timeout != nil {
		cfg.Timeout = *envCfg.Timeout
	}
	if envCfg.LogLevel != nil {
		level, err := ParseLogLevel(*envCfg.LogLevel)
		if err != nil {
			return model.Config{}, err
		}
		cfg.LogLevel = level
	}
	if envCfg.LogFile != nil {
		cfg.LogFile = *envCfg.LogFile
	}
	if envCfg.NoHistory != nil {
		cfg.NoHistory = *envCfg.NoHistory
	}
	return cfg, nil
}

// ParseLogLevel accepts slog level names such as "debug" or "warn+2".
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

// Validate rejects settings the client cannot run with.
func Validate(cfg model.Config) error {
	if strings.TrimSpace(cfg.Server) == "" {
		return fmt.Errorf("server must not be empty")
	}
	u, err := url.Parse(cfg.Server)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("server must be an http(s) url: %q", cfg.Server)
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}
