// Package config loads parley settings from parley.yaml, a .env file and
// PARLEY_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. PARLEY_STORE_DRIVER.
const EnvPrefix = "PARLEY_"

// DefaultFile is read when Load is given no explicit path.
const DefaultFile = "parley.yaml"

type Config struct {
	Scripts ScriptsConfig `mapstructure:"scripts"`
	Store   StoreConfig   `mapstructure:"store"`
	Server  ServerConfig  `mapstructure:"server"`
	Runner  RunnerConfig  `mapstructure:"runner"`
	Log     LogConfig     `mapstructure:"log"`
}

type ScriptsConfig struct {
	Dir       string `mapstructure:"dir"`
	TabWidth  int    `mapstructure:"tab_width"`
	CacheSize int    `mapstructure:"cache_size"`
}

// StoreConfig selects the session store. Driver is one of memory, file,
// redis, sqlite or postgres.
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
	Addr   string `mapstructure:"addr"`
	DSN    string `mapstructure:"dsn"`
	Prefix string `mapstructure:"prefix"`
	TTL    string `mapstructure:"ttl"`

	// EncryptionKey is a base64 AES-256 key. When set, saved state is
	// encrypted at rest; FallbackKeys still decrypt during key rotation.
	EncryptionKey string   `mapstructure:"encryption_key"`
	FallbackKeys  []string `mapstructure:"fallback_keys"`
	// Redact lists regular expressions; matching variable names are masked
	// before they are saved.
	Redact []string `mapstructure:"redact"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// RunnerConfig bounds player input, both on the terminal and over HTTP.
type RunnerConfig struct {
	MaxInputSize int `mapstructure:"max_input_size"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// Default returns the settings used when nothing overrides them.
func Default() Config {
	return Config{
		Scripts: ScriptsConfig{Dir: ".", TabWidth: 4, CacheSize: 128},
		Store:   StoreConfig{Driver: "memory", Path: ".parley/sessions", Prefix: "parley"},
		Server:  ServerConfig{Addr: ":8080"},
		Runner:  RunnerConfig{MaxInputSize: 4096},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

// Load builds the configuration. A missing file is not an error when path is
// empty; an explicit path must exist.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	raw := make(map[string]any)
	file := path
	if file == "" {
		file = DefaultFile
	}
	data, err := os.ReadFile(file)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", file, err)
		}
	case errors.Is(err, os.ErrNotExist) && path == "":
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	overlayEnv(raw, os.Environ())

	cfg := Default()
	if err := decode(raw, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// overlayEnv writes PARLEY_SECTION_KEY=value entries into raw[section][key].
func overlayEnv(raw map[string]any, environ []string) {
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(k, EnvPrefix) {
			continue
		}
		section, key, ok := strings.Cut(strings.ToLower(strings.TrimPrefix(k, EnvPrefix)), "_")
		if !ok || key == "" {
			continue
		}
		m, _ := raw[section].(map[string]any)
		if m == nil {
			m = make(map[string]any)
			raw[section] = m
		}
		m[key] = v
	}
}

func decode(raw map[string]any, cfg *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToSliceHookFunc(","),
		ErrorUnused:      true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}
