package app

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/linprune/internal/output"
	"github.com/blackwell-systems/linprune/internal/scanner"
	"github.com/blackwell-systems/linprune/internal/watcher"
)

var (
	watchDaemon      bool
	watchDaemonChild bool
	watchPIDFile     string
	watchLogFile     string
	watchStop        bool

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Rescan whenever desktop entries change",
		Long: `Watch the desktop-entry directories and rebuild the inventory whenever an
application is installed, updated or removed.

Bursts of changes are coalesced; a new scan supersedes one still running, and
only the newest inventory is reported.

Watch modes:
  • Foreground (default): Run in current terminal with Ctrl+C to stop
  • Daemon: Run as a background process, logging each scan
  • Stop: Stop a running daemon`,
		Example: `  # Run in foreground (Ctrl+C to stop)
  linprune watch

  # Run as background daemon
  linprune watch --daemon

  # Stop running daemon
  linprune watch --stop`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}
)

func init() {
	watchCmd.Flags().BoolVar(&watchDaemon, "daemon", false, "run as background daemon")
	watchCmd.Flags().BoolVar(&watchDaemonChild, "daemon-child", false, "internal flag for daemon child process")
	watchCmd.Flags().StringVar(&watchPIDFile, "pid-file", "", "PID file path (default: ~/.linprune/watch.pid)")
	watchCmd.Flags().StringVar(&watchLogFile, "log-file", "", "log file path (default: ~/.linprune/watch.log)")
	watchCmd.Flags().BoolVar(&watchStop, "stop", false, "stop running daemon")

	// Hide the internal daemon-child flag from help
	watchCmd.Flags().MarkHidden("daemon-child")

	RootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchDaemon && watchStop {
		return fmt.Errorf("cannot combine --daemon with --stop")
	}

	// Get default paths if not specified
	if watchPIDFile == "" {
		defaultPID, err := getDefaultPIDFile()
		if err != nil {
			return fmt.Errorf("failed to get default PID file path: %w", err)
		}
		watchPIDFile = defaultPID
	}

	if watchLogFile == "" {
		defaultLog, err := getDefaultLogFile()
		if err != nil {
			return fmt.Errorf("failed to get default log file path: %w", err)
		}
		watchLogFile = defaultLog
	}

	if watchStop {
		return stopWatchDaemon()
	}
	if watchDaemon {
		return startWatchDaemon()
	}

	source, _ := detectSource()
	w, err := newWatcher(newScanner(source), reportScan)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	if watchDaemonChild {
		// stdout and stderr are redirected to the log file
		return w.RunDaemon(watchPIDFile)
	}
	return runWatchForeground(w)
}

// newWatcher creates a Watcher with the configured debounce.
func newWatcher(sc *scanner.Scanner, deliver func(*scanner.Result, error)) (*watcher.Watcher, error) {
	w, err := watcher.New(sc, deliver)
	if err != nil {
		return nil, err
	}
	if d := time.Duration(currentConfig().Debounce); d > 0 {
		w.Debounce = d
	}
	return w, nil
}

// reportScan prints one line per delivered inventory.
func reportScan(result *scanner.Result, err error) {
	stamp := time.Now().Format("15:04:05")
	if err != nil {
		fmt.Printf("[%s] scan failed: %v\n", stamp, err)
		return
	}
	fmt.Printf("[%s] %s in %s\n", stamp,
		output.RenderInventorySummary(result.CountByKind(), result.TotalSizeMB()),
		result.Duration.Round(time.Millisecond))
}

func stopWatchDaemon() error {
	running, err := watcher.IsDaemonRunning(watchPIDFile)
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}

	if !running {
		fmt.Println("Daemon is not running")
		return nil
	}

	if err := watcher.StopDaemon(watchPIDFile); err != nil {
		return fmt.Errorf("failed to stop daemon: %w", err)
	}
	fmt.Println("✓ Daemon stopped")
	return nil
}

// daemonArgs forwards the global flags to the daemon child.
func daemonArgs() []string {
	args := []string{"--pid-file", watchPIDFile}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}
	if dbPath != "" {
		args = append(args, "--db", dbPath)
	}
	if verbose {
		args = append(args, "--verbose")
	}
	return args
}

func startWatchDaemon() error {
	if err := watcher.StartDaemon(watchPIDFile, watchLogFile, daemonArgs()...); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	fmt.Printf("✓ Watch daemon started\n")
	fmt.Printf("  PID file: %s\n", watchPIDFile)
	fmt.Printf("  Log file: %s\n", watchLogFile)
	fmt.Printf("\nTo stop: linprune watch --stop\n")
	return nil
}

func runWatchForeground(w *watcher.Watcher) error {
	fmt.Println("Watching for application changes (press Ctrl+C to stop)...")
	fmt.Println()

	if err := w.Start(); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	for _, dir := range w.Watched() {
		fmt.Printf("  watching %s\n", dir)
	}
	fmt.Println()

	// Set up signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	sig := <-sigCh
	fmt.Printf("\nReceived signal %v, shutting down...\n", sig)

	if err := w.Stop(); err != nil {
		return fmt.Errorf("failed to stop watcher: %w", err)
	}
	fmt.Println("Watcher stopped")
	return nil
}
