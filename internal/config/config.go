// Package config loads runtime configuration in three layers —
// built-in defaults, an optional config.yaml, then TIMINGCORE_-
// prefixed environment variables — each layer overriding the last.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds every tunable of the demo process.
type Config struct {
	LogLevel  string        `koanf:"log_level"`
	LogFormat string        `koanf:"log_format"`
	Lookahead time.Duration `koanf:"lookahead"`

	NATSURL          string `koanf:"nats_url"`
	JetStreamSubject string `koanf:"jetstream_subject"`

	HTTPAddr string `koanf:"http_addr"`
}

// DefaultConfigPaths lists where a config file is searched for, in
// priority order; the first one found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/timingcore/config.yaml",
}

// ConfigPathEnvVar overrides the search path entirely when set.
const ConfigPathEnvVar = "TIMINGCORE_CONFIG_PATH"

// EnvPrefix is stripped (and the remainder lowercased) by
// the environment provider, so TIMINGCORE_LOOKAHEAD becomes
// "lookahead" and TIMINGCORE_NATS_URL becomes "nats_url".
const EnvPrefix = "TIMINGCORE_"

func defaults() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "json",
		Lookahead:        5 * time.Second,
		NATSURL:          "nats://127.0.0.1:4222",
		JetStreamSubject: "timingcore.due",
		HTTPAddr:         ":8080",
	}
}

// Load builds a Config from defaults, an optional config file, then
// environment variables, in that order of increasing precedence.
func Load() (*Config, error) {
	k := koanf.New(".")
	cfg := defaults()

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load file %s: %w", path, err)
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", func(key string) string {
		key = strings.TrimPrefix(key, EnvPrefix)
		return strings.ToLower(key)
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}

	// k holds only the keys the file/env layers actually set; unmarshaling
	// onto the already-defaulted cfg leaves every unset field at its
	// default instead of zeroing it out.
	if k.Len() > 0 {
		if err := k.Unmarshal("", cfg); err != nil {
			return nil, fmt.Errorf("config: unmarshal: %w", err)
		}
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
		return ""
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
