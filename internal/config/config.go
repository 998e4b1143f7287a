package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Ignore      []string     `toml:"ignore"`
	Enforcement *Enforcement `toml:"enforcement"`
}

type Enforcement struct {
	// FailCheck makes the process exit non-zero when diagnostics are found.
	// Off by default: diagnostics are advisory unless a repo opts in.
	FailCheck bool `toml:"fail_check"`
}

// ReadConfig loads ictc.toml from dir. A missing file is not an error; it
// yields the default config.
func ReadConfig(dir string) (*Config, error) {
	defaultConfig := &Config{
		Ignore:      []string{},
		Enforcement: &Enforcement{FailCheck: false},
	}

	fileName := filepath.Join(dir, "ictc.toml")
	if _, err := os.Stat(fileName); errors.Is(err, os.ErrNotExist) {
		return defaultConfig, nil
	}
	file, err := os.ReadFile(fileName)
	if err != nil {
		return defaultConfig, err
	}
	config := defaultConfig
	err = toml.Unmarshal(file, &config)
	if err != nil {
		return defaultConfig, err
	}
	if config.Enforcement == nil {
		config.Enforcement = defaultConfig.Enforcement
	}
	return config, nil
}
