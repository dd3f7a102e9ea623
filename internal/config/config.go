package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// FileName is the config file inside the config directory.
const FileName = "config.yaml"

// Environment overrides. They apply on top of the file and are never saved.
const (
	EnvConfigDir = "TALLY_CONFIG_DIR"
	EnvAPIURL    = "TALLY_API_URL"
	EnvLogLevel  = "TALLY_LOG_LEVEL"
)

// Config represents the top-level config.yaml.
type Config struct {
	API      APIConfig      `yaml:"api"`
	Auth     AuthConfig     `yaml:"auth"`
	Defaults DefaultsConfig `yaml:"defaults"`
	Log      LogConfig      `yaml:"log"`
}

// APIConfig locates the payments service.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	// DeviceID identifies this installation at login. Generated once.
	DeviceID string        `yaml:"device_id"`
	Timeout  time.Duration `yaml:"timeout"`
}

// AuthConfig controls the login flow.
type AuthConfig struct {
	MaxCodeAttempts int `yaml:"max_code_attempts"`
}

// DefaultsConfig holds listing limits and the audience for new payments.
type DefaultsConfig struct {
	PaymentsLimit      int    `yaml:"payments_limit"`
	NotificationsLimit int    `yaml:"notifications_limit"`
	TransactionsLimit  int    `yaml:"transactions_limit"`
	Audience           string `yaml:"audience"`
}

// LogConfig sets the stderr log level: debug, info, warn or error.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads a config.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults and a fresh device id.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:  "https://api.venmo.com/v1",
			DeviceID: uuid.NewString(),
			Timeout:  30 * time.Second,
		},
		Auth: AuthConfig{
			MaxCodeAttempts: 3,
		},
		Defaults: DefaultsConfig{
			PaymentsLimit:      20,
			NotificationsLimit: 20,
			TransactionsLimit:  50,
			Audience:           "private",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultDir returns $TALLY_CONFIG_DIR, or tally under the user config
// directory.
func DefaultDir() (string, error) {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config dir: %w", err)
	}
	return filepath.Join(base, "tally"), nil
}

// LoadDir loads <dir>/config.yaml, creating it with defaults on first use.
// Missing settings are filled from Default, and a device id is generated
// and saved if the file lacks one. Environment overrides are applied last.
func LoadDir(dir string) (*Config, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating config dir: %w", err)
	}
	path := filepath.Join(dir, FileName)

	cfg, err := Load(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		cfg = Default()
		if err := Save(path, cfg); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		if cfg.API.DeviceID == "" {
			cfg.API.DeviceID = uuid.NewString()
			if err := Save(path, cfg); err != nil {
				return nil, err
			}
		}
		cfg.fillDefaults()
	}

	cfg.applyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) fillDefaults() {
	d := Default()
	if c.API.BaseURL == "" {
		c.API.BaseURL = d.API.BaseURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = d.API.Timeout
	}
	if c.Auth.MaxCodeAttempts == 0 {
		c.Auth.MaxCodeAttempts = d.Auth.MaxCodeAttempts
	}
	if c.Defaults.PaymentsLimit == 0 {
		c.Defaults.PaymentsLimit = d.Defaults.PaymentsLimit
	}
	if c.Defaults.NotificationsLimit == 0 {
		c.Defaults.NotificationsLimit = d.Defaults.NotificationsLimit
	}
	if c.Defaults.TransactionsLimit == 0 {
		c.Defaults.TransactionsLimit = d.Defaults.TransactionsLimit
	}
	if c.Defaults.Audience == "" {
		c.Defaults.Audience = d.Defaults.Audience
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv(EnvAPIURL); v != "" {
		c.API.BaseURL = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
}

// Validate checks values a hand-edited file could get wrong.
func (c *Config) Validate() error {
	if _, err := uuid.Parse(c.API.DeviceID); err != nil {
		return fmt.Errorf("api.device_id %q is not a uuid", c.API.DeviceID)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative, got %s", c.API.Timeout)
	}
	if c.Auth.MaxCodeAttempts < 1 {
		return fmt.Errorf("auth.max_code_attempts must be at least 1, got %d", c.Auth.MaxCodeAttempts)
	}
	switch c.Defaults.Audience {
	case "public", "friends", "private":
	default:
		return fmt.Errorf("defaults.audience %q must be public, friends or private", c.Defaults.Audience)
	}
	return nil
}
