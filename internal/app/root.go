package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/linprune/internal/config"
	"github.com/blackwell-systems/linprune/internal/log"
)

var (
	dbPath     string
	configPath string
	verbose    bool

	// cfg is loaded before every subcommand runs.
	cfg *config.Config

	// RootCmd is the root command for linprune
	RootCmd = &cobra.Command{
		Use:   "linprune",
		Short: "Inventory and remove installed Linux software",
		Long: `linprune builds one inventory of everything installed on this machine by
reconciling the native package manager (apt or dnf) with the desktop entries
found under the XDG application directories. Applications that no package
manager knows about (AppImages, Flatpaks, Snaps, hand-installed tools) show up
next to regular packages, each with its size, source and icon.

Removal goes through the package manager for managed packages (via pkexec) and
deletes the desktop entry, plus the bundle for AppImages, for everything else.
Core system packages are protected and never removed.

Examples:
  # List everything installed
  linprune list

  # Fuzzy search the inventory
  linprune list --filter firefx

  # Show only applications without a package manager behind them
  linprune list --kind desktop-app --kind appimage

  # Preview and remove an application
  linprune remove --dry-run vlc
  linprune remove vlc

  # Rescan whenever desktop entries change
  linprune watch`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

func init() {
	// Global flags
	RootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "removal history database (default: ~/.linprune/linprune.db)")
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: ~/.config/linprune/config.yaml)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	// Enable cobra's built-in suggestion feature for unknown subcommands
	RootCmd.SuggestionsMinimumDistance = 2
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}

// loadConfig reads the config file and applies its log level. --verbose
// always wins over log_level.
func loadConfig() error {
	var err error
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return err
	}

	if verbose {
		log.SetLevel(log.LevelDebug)
	} else {
		log.SetLevel(log.ParseLevel(cfg.LogLevel))
	}
	return nil
}

// currentConfig returns the loaded config, or the defaults when no command
// has loaded one.
func currentConfig() *config.Config {
	if cfg == nil {
		cfg = config.Default()
	}
	return cfg
}

// getDBPath returns the database path: the --db flag, then db_path from the
// config, then ~/.linprune/linprune.db. The parent directory is created.
func getDBPath() (string, error) {
	path := dbPath
	if path == "" {
		path = currentConfig().DBPath
	}
	if path == "" {
		dir, err := dataDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(dir, "linprune.db")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create database directory: %w", err)
	}
	return path, nil
}

// dataDir returns ~/.linprune, creating it if needed.
func dataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	dir := filepath.Join(home, ".linprune")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create linprune directory: %w", err)
	}
	return dir, nil
}

// getDefaultPIDFile returns the default PID file path
func getDefaultPIDFile() (string, error) {
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "watch.pid"), nil
}

// getDefaultLogFile returns the default log file path
func getDefaultLogFile() (string, error) {
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "watch.log"), nil
}
