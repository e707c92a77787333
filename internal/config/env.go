package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvConfig maps TYPERACE_* environment variables. Unset variables stay nil.
type EnvConfig struct {
	Server    *string        `env:"SERVER"`
	Timeout   *time.Duration `env:"TIMEOUT"`
	LogLevel  *string        `env:"LOG_LEVEL"`
	LogFile   *string        `env:"LOG_FILE"`
	NoHistory *bool          `env:"NO_HISTORY"`
}

const envPrefix = "TYPERACE_"

// LoadEnv parses the process environment.
func LoadEnv() (EnvConfig, error) {
	cfg, err := env.ParseAsWithOptions[EnvConfig](env.Options{Prefix: envPrefix})
	if err != nil {
		return EnvConfig{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

// LoadEnvFrom parses vars instead of the process environment.
func LoadEnvFrom(vars map[string]string) (EnvConfig, error) {
	cfg, err := env.ParseAsWithOptions[EnvConfig](env.Options{Prefix: envPrefix, Environment: vars})
	if err != nil {
		return EnvConfig{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}
