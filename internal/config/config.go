// Package config handles configuration loading for cob.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// DirName is the project directory created by `cob init` and discovered
// by walking up from the working directory.
const DirName = ".cob"

// Storage engine names accepted in config.
const (
	EngineBadger     = "badger"
	EngineFilesystem = "filesystem"
)

// Config holds application configuration, read from .cob/config.yaml.
type Config struct {
	Storage struct {
		// Engine selects the KV engine: "badger" or "filesystem".
		Engine string `yaml:"engine"`
	} `yaml:"storage"`
	Keys struct {
		// Dir is the keystore directory, relative to .cob unless absolute.
		Dir string `yaml:"dir"`
	} `yaml:"keys"`
	Authors struct {
		// Allowed lists author public keys permitted to write changes.
		// Empty means the project is open to any author.
		Allowed []string `yaml:"allowed"`
	} `yaml:"authors"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	c := &Config{}
	c.Storage.Engine = EngineBadger
	c.Keys.Dir = "keys"
	return c
}

// Load loads configuration from config.yaml in the given .cob directory.
// If the file doesn't exist, returns default configuration. Environment
// variables in values are expanded after loading.
func Load(cobDir string) (*Config, error) {
	cfg := Default()

	configPath := filepath.Join(cobDir, "config.yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.expandEnvVars()
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", configPath, err)
	}

	cfg.expandEnvVars()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to config.yaml in the given .cob directory.
func (c *Config) Save(cobDir string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cobDir, "config.yaml"), data, 0644)
}

// KeysDir resolves the keystore directory against the .cob directory.
func (c *Config) KeysDir(cobDir string) string {
	if filepath.IsAbs(c.Keys.Dir) {
		return c.Keys.Dir
	}
	return filepath.Join(cobDir, c.Keys.Dir)
}

func (c *Config) validate() error {
	switch c.Storage.Engine {
	case EngineBadger, EngineFilesystem:
		return nil
	default:
		return fmt.Errorf("unknown storage engine %q: must be %q or %q",
			c.Storage.Engine, EngineBadger, EngineFilesystem)
	}
}

// expandEnvVars expands environment variables in configuration values.
func (c *Config) expandEnvVars() {
	c.Keys.Dir = expandEnv(c.Keys.Dir)
}

var (
	bracedVarRe = regexp.MustCompile(`\$\{([^}]+)\}`)
	bareVarRe   = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
)

// expandEnv expands environment variables in a string.
// Supports ${VAR} and $VAR syntax.
func expandEnv(s string) string {
	s = bracedVarRe.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})
	s = bareVarRe.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[1:])
	})
	return s
}

// FindCobDir locates the .cob directory. If path is provided, it is used
// directly. Otherwise the search walks up from the current directory.
func FindCobDir(path string) (string, error) {
	if path != "" {
		info, err := os.Stat(path)
		if err != nil {
			return "", fmt.Errorf("cob directory %s: %w", path, err)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("cob directory %s is not a directory", path)
		}
		return path, nil
	}

	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, DirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s directory found (run `cob init` first)", DirName)
		}
		dir = parent
	}
}
