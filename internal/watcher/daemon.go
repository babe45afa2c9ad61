package watcher

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/blackwell-systems/linprune/internal/log"
)

// ErrDaemonNotRunning is returned by StopDaemon when no live daemon owns the
// PID file.
var ErrDaemonNotRunning = errors.New("watch daemon not running")

// DaemonChildFlag is passed to the re-executed binary so it runs the watcher
// in the foreground of its own session.
const DaemonChildFlag = "--daemon-child"

// readPID parses the PID file. ok is false when the file is missing or does
// not hold a number.
func readPID(pidFile string) (pid int, ok bool, err error) {
	data, err := os.ReadFile(pidFile)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to read PID file: %w", err)
	}
	pid, err = strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false, nil
	}
	return pid, true, nil
}

// IsDaemonRunning reports whether the PID file names a live process. A stale
// PID file is removed.
func IsDaemonRunning(pidFile string) (bool, error) {
	pid, ok, err := readPID(pidFile)
	if err != nil || !ok {
		return false, err
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false, nil
	}
	if err := process.Signal(syscall.Signal(0)); err != nil {
		os.Remove(pidFile)
		return false, nil
	}
	return true, nil
}

// StartDaemon re-executes the current binary as "watch --daemon-child" in a
// new session, records its PID and sends its output to logFile.
func StartDaemon(pidFile, logFile string, extraArgs ...string) error {
	running, err := IsDaemonRunning(pidFile)
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}
	if running {
		return fmt.Errorf("daemon already running (PID file: %s)", pidFile)
	}

	logF, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logF.Close()

	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	args := append([]string{"watch", DaemonChildFlag}, extraArgs...)
	cmd := exec.Command(executable, args...)
	cmd.Stdout = logF
	cmd.Stderr = logF
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start daemon process: %w", err)
	}

	if err := os.WriteFile(pidFile, []byte(strconv.Itoa(cmd.Process.Pid)+"\n"), 0644); err != nil {
		cmd.Process.Kill()
		return fmt.Errorf("failed to write PID file: %w", err)
	}

	if err := cmd.Process.Release(); err != nil {
		return fmt.Errorf("failed to release process: %w", err)
	}
	return nil
}

// RunDaemon starts w and blocks until SIGTERM or SIGINT, then stops it and
// removes the PID file.
func (w *Watcher) RunDaemon(pidFile string) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	if err := w.Start(); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	sig := <-sigCh
	log.Info("received signal %v, shutting down", sig)

	if err := w.Stop(); err != nil {
		return fmt.Errorf("failed to stop watcher: %w", err)
	}

	if pidFile != "" {
		if err := os.Remove(pidFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove PID file: %w", err)
		}
	}
	return nil
}

// StopDaemon sends SIGTERM to the daemon named by the PID file.
func StopDaemon(pidFile string) error {
	pid, ok, err := readPID(pidFile)
	if err != nil {
		return err
	}
	if !ok {
		return ErrDaemonNotRunning
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process %d: %w", pid, err)
	}
	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to send SIGTERM to process %d: %w", pid, err)
	}
	return nil
}
