// Package config loads linprune's optional YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/blackwell-systems/linprune/internal/desktop"
	"github.com/blackwell-systems/linprune/internal/pkgmgr"
)

// FileName is the config file looked up in Dir.
const FileName = "config.yaml"

// Dir returns the linprune config directory, respecting XDG_CONFIG_HOME.
// Defaults to ~/.config/linprune if XDG_CONFIG_HOME is not set.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "linprune"), nil
}

// Config holds user settings. Empty SearchPaths or IconDirs mean the
// built-in lists.
type Config struct {
	SearchPaths []string `yaml:"search_paths"`
	IconDirs    []string `yaml:"icon_dirs"`
	IconThemes  []string `yaml:"icon_themes"`
	Workers     int      `yaml:"workers"`
	Protected   []string `yaml:"protected"`
	OSRelease   string   `yaml:"os_release"`
	DBPath      string   `yaml:"db_path"`
	LogLevel    string   `yaml:"log_level"`
	Debounce    Duration `yaml:"debounce"`
}

// Duration decodes YAML strings such as "750ms" or "2s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if parsed < 0 {
		return fmt.Errorf("invalid duration %q: must not be negative", s)
	}
	*d = Duration(parsed)
	return nil
}

// Default returns the settings used when no config file exists.
func Default() *Config {
	dbPath := ""
	if home, err := os.UserHomeDir(); err == nil {
		dbPath = filepath.Join(home, ".linprune", "linprune.db")
	}
	return &Config{
		IconThemes: []string{"hicolor"},
		Workers:    desktop.DefaultWorkers,
		OSRelease:  pkgmgr.DefaultOSReleasePath,
		DBPath:     dbPath,
		LogLevel:   "warn",
		Debounce:   Duration(500 * time.Millisecond),
	}
}

// Load reads the config file at path. A missing file yields Default();
// keys absent from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if cfg.Workers <= 0 {
		cfg.Workers = desktop.DefaultWorkers
	}
	if len(cfg.IconThemes) == 0 {
		cfg.IconThemes = []string{"hicolor"}
	}
	if cfg.OSRelease == "" {
		cfg.OSRelease = pkgmgr.DefaultOSReleasePath
	}
	if cfg.DBPath == "" {
		cfg.DBPath = Default().DBPath
	}

	home, _ := os.UserHomeDir()
	cfg.SearchPaths = expandAll(home, cfg.SearchPaths)
	cfg.IconDirs = expandAll(home, cfg.IconDirs)
	cfg.OSRelease = ExpandHome(home, cfg.OSRelease)
	cfg.DBPath = ExpandHome(home, cfg.DBPath)

	return cfg, nil
}

// LoadDefault loads config.yaml from Dir.
func LoadDefault() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return Default(), nil
	}
	return Load(filepath.Join(dir, FileName))
}

// ExpandHome replaces a leading "~" with home.
func ExpandHome(home, p string) string {
	if home == "" {
		return p
	}
	if p == "~" {
		return home
	}
	if strings.HasPrefix(p, "~/") {
		return filepath.Join(home, p[2:])
	}
	return p
}

func expandAll(home string, paths []string) []string {
	if len(paths) == 0 {
		return nil
	}
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, ExpandHome(home, p))
		}
	}
	return out
}
