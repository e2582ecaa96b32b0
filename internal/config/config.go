// Package config loads labctl settings. Precedence, lowest first: built-in
// defaults, the YAML config file, LABCTL_* environment variables, and
// finally command-line flags applied by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/labdesk/labctl/internal/validate"
)

// EnvPrefix prefixes every environment override, e.g. LABCTL_API_URL.
const EnvPrefix = "LABCTL_"

// ConfigPathEnvVar names an explicit config file.
const ConfigPathEnvVar = "LABCTL_CONFIG"

// Config is the resolved configuration.
type Config struct {
	APIURL        string        `koanf:"api_url" validate:"required,url"`
	Timeout       time.Duration `koanf:"timeout" validate:"gt=0"`
	RedirectDelay time.Duration `koanf:"redirect_delay" validate:"gte=0"`
	DataDir       string        `koanf:"data_dir" validate:"required"`
	Storage       string        `koanf:"storage" validate:"oneof=file badger memory"`
	LogLevel      string        `koanf:"log_level" validate:"oneof=debug info warn error"`
	LogFile       string        `koanf:"log_file"`
	PageSize      int           `koanf:"page_size" validate:"min=1,max=100"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		APIURL:        "http://localhost:8080",
		Timeout:       15 * time.Second,
		RedirectDelay: 2 * time.Second,
		DataDir:       defaultDataDir(),
		Storage:       "file",
		LogLevel:      "info",
		PageSize:      10,
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".labctl"
	}
	return filepath.Join(home, ".labctl")
}

// Load resolves the configuration. path may be empty, in which case
// $LABCTL_CONFIG and then <data_dir>/config.yaml are tried; a missing
// default file is not an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	explicit := path != ""
	if !explicit {
		path = os.Getenv(ConfigPathEnvVar)
		explicit = path != ""
	}
	if !explicit {
		path = filepath.Join(k.String("data_dir"), "config.yaml")
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", path, err)
		}
	} else if explicit || !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.DataDir = expandHome(cfg.DataDir)
	cfg.LogFile = expandHome(cfg.LogFile)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKey maps LABCTL_API_URL to api_url.
func envKey(key string) string {
	return strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// TUILogFile is where the TUI logs when no log file is configured.
func (c *Config) TUILogFile() string {
	if c.LogFile != "" {
		return c.LogFile
	}
	return filepath.Join(c.DataDir, "labctl.log")
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
