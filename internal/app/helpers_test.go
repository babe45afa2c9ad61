package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/blackwell-systems/linprune/internal/config"
)

const dpkgOutput = "vlc\t2048\t3.0.18\n" +
	"linux-image-6.1\t102400\t6.1.0\n" +
	"gimp\t40960\t2.10.34\n"

// testEnv is an isolated home with one Debian-like descriptor, one
// application directory and fake process boundaries.
type testEnv struct {
	home     string
	apps     string
	db       string
	appImage string
	desktop  string
	icon     string

	mu      sync.Mutex
	removes [][]string
	// removeOutput and removeErr are returned by the fake uninstall runner.
	removeOutput string
	removeErr    error
}

func (e *testEnv) calls() [][]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([][]string(nil), e.removes...)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

// setupTestEnv installs the fake environment and restores every global on
// cleanup.
func setupTestEnv(t *testing.T, osRelease string) *testEnv {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("NO_COLOR", "1")

	env := &testEnv{
		home:     home,
		apps:     filepath.Join(home, "apps"),
		db:       filepath.Join(home, "history.db"),
		appImage: filepath.Join(home, "bin", "Obsidian.AppImage"),
		icon:     filepath.Join(home, "art", "obsidian.png"),
	}
	env.desktop = filepath.Join(env.apps, "obsidian.desktop")

	releasePath := filepath.Join(home, "os-release")
	writeFile(t, releasePath, osRelease)
	writeFile(t, env.appImage, strings.Repeat("x", 1024*1024))
	writeFile(t, env.icon, "png")
	writeFile(t, env.desktop, "[Desktop Entry]\nName=Obsidian\nExec="+env.appImage+" %U\nIcon="+env.icon+"\n")
	writeFile(t, filepath.Join(env.apps, "vlc.desktop"), "[Desktop Entry]\nName=VLC media player\nExec=/usr/bin/vlc --started-from-file %U\nIcon=vlc\n")

	oldCfg, oldDB, oldConfigPath, oldVerbose := cfg, dbPath, configPath, verbose
	oldQuery, oldRemove, oldStdin := queryRunner, removeRunner, stdin
	oldDryRun, oldYes := removeFlagDryRun, removeFlagYes
	oldFilter, oldKinds, oldSort, oldIcons, oldJSON := listFilter, listKinds, listSort, listIcons, listJSON
	oldLimit, oldLookPath := historyLimit, lookPath
	oldDaemon, oldChild, oldPID, oldLog, oldStop := watchDaemon, watchDaemonChild, watchPIDFile, watchLogFile, watchStop
	t.Cleanup(func() {
		cfg, dbPath, configPath, verbose = oldCfg, oldDB, oldConfigPath, oldVerbose
		queryRunner, removeRunner, stdin = oldQuery, oldRemove, oldStdin
		removeFlagDryRun, removeFlagYes = oldDryRun, oldYes
		listFilter, listKinds, listSort, listIcons, listJSON = oldFilter, oldKinds, oldSort, oldIcons, oldJSON
		historyLimit, lookPath = oldLimit, oldLookPath
		watchDaemon, watchDaemonChild, watchPIDFile, watchLogFile, watchStop = oldDaemon, oldChild, oldPID, oldLog, oldStop
	})

	cfg = config.Default()
	cfg.OSRelease = releasePath
	cfg.SearchPaths = []string{env.apps}
	cfg.IconDirs = []string{filepath.Join(home, "icons")}
	cfg.DBPath = env.db
	dbPath, configPath, verbose = "", "", false

	removeFlagDryRun, removeFlagYes = false, false
	listFilter, listKinds, listSort, listIcons, listJSON = "", nil, "", false, false
	historyLimit = 20
	watchDaemon, watchDaemonChild, watchPIDFile, watchLogFile, watchStop = false, false, "", "", false
	stdin = strings.NewReader("")

	queryRunner = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		if name == "dpkg-query" {
			return []byte(dpkgOutput), nil
		}
		return nil, errors.New(name + ": not found")
	}
	removeRunner = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		env.mu.Lock()
		defer env.mu.Unlock()
		env.removes = append(env.removes, append([]string{name}, args...))
		return []byte(env.removeOutput), env.removeErr
	}

	return env
}

const debianRelease = "NAME=\"Debian GNU/Linux\"\nID=debian\n"

// captureStdout replaces os.Stdout with a pipe during f(), then restores it
// and returns all bytes written to stdout.
func captureStdout(t *testing.T, f func()) string {
	t.Helper()
	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	os.Stdout = w
	defer func() { os.Stdout = origStdout }()

	var buf bytes.Buffer
	done := make(chan struct{})
	go func() {
		buf.ReadFrom(r)
		close(done)
	}()

	f()

	w.Close()
	<-done
	return buf.String()
}
