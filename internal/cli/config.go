package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds CLI settings merged from config file, environment, and
// flags. Precedence (highest to lowest): flags > env vars > config file >
// defaults.
type Config struct {
	// Database is the sqlite database path queries execute against.
	// Defaults to :memory:, useful only for query files with inline tables.
	Database string `koanf:"database"`

	// Format is the default output format.
	Format string `koanf:"format"`

	// Verbose enables diagnostic output.
	Verbose bool `koanf:"verbose"`
}

// DefaultConfigName is looked up in the working directory, then in the
// user's home directory as a dotfile.
const DefaultConfigName = "sift.yaml"

// envPrefix namespaces environment overrides: SIFT_DATABASE, SIFT_FORMAT.
const envPrefix = "SIFT_"

// findConfigFile picks the config file to use.
// Priority: explicit path > ./sift.yaml > ~/.sift.yaml.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat(DefaultConfigName); err == nil {
		return DefaultConfigName
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidate := filepath.Join(home, "."+DefaultConfigName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// LoadConfig merges configuration sources into a Config.
// An explicit cfgFile that does not exist is an error; the default
// locations are optional.
func LoadConfig(cfgFile string) (*Config, error) {
	k := koanf.New(".")

	cfg := Config{
		Database: ":memory:",
		Format:   "table",
	}

	path := findConfigFile(cfgFile)
	if cfgFile != "" {
		if _, err := os.Stat(cfgFile); err != nil {
			return nil, fmt.Errorf("config file %s: %w", cfgFile, err)
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}
