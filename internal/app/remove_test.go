package app

import (
	"errors"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/linprune/internal/pkgmgr"
	"github.com/blackwell-systems/linprune/internal/remover"
	"github.com/blackwell-systems/linprune/internal/scanner"
	"github.com/blackwell-systems/linprune/internal/store"
)

func TestRemoveCommand(t *testing.T) {
	if removeCmd.Use != "remove NAME..." {
		t.Errorf("removeCmd.Use = %q, want %q", removeCmd.Use, "remove NAME...")
	}
	if removeCmd.RunE == nil {
		t.Error("removeCmd.RunE is nil")
	}

	for _, name := range []string{"dry-run", "yes"} {
		flag := removeCmd.Flags().Lookup(name)
		if flag == nil {
			t.Errorf("flag %q not found", name)
			continue
		}
		if flag.DefValue != "false" {
			t.Errorf("flag %q default = %q, want false", name, flag.DefValue)
		}
	}

	if err := removeCmd.Args(removeCmd, nil); err == nil {
		t.Error("remove without names should be rejected")
	}
}

func readHistory(t *testing.T, env *testEnv) []*store.Removal {
	t.Helper()
	st, err := store.New(env.db)
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	defer st.Close()
	if err := st.CreateSchema(); err != nil {
		t.Fatalf("CreateSchema: %v", err)
	}
	removals, err := st.ListRemovals(0)
	if err != nil {
		t.Fatalf("ListRemovals: %v", err)
	}
	return removals
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestRunRemove_DryRun(t *testing.T) {
	env := setupTestEnv(t, debianRelease)
	removeFlagDryRun = true

	var err error
	out := captureStdout(t, func() {
		err = runRemove(&cobra.Command{}, []string{"Obsidian", "vlc"})
	})
	if err != nil {
		t.Fatalf("runRemove() error: %v", err)
	}

	for _, want := range []string{"Dry-run mode", "delete " + env.desktop, "pkexec apt purge -y vlc", "Packages: 2"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if !exists(env.desktop) || !exists(env.appImage) {
		t.Error("dry run deleted files")
	}
	if len(env.calls()) != 0 {
		t.Errorf("dry run spawned %v", env.calls())
	}
	if exists(env.db) {
		t.Error("dry run should not create the history database")
	}
}

func TestRunRemove_AppImage(t *testing.T) {
	env := setupTestEnv(t, debianRelease)
	removeFlagYes = true

	var err error
	out := captureStdout(t, func() {
		err = runRemove(&cobra.Command{}, []string{"obsidian"})
	})
	if err != nil {
		t.Fatalf("runRemove() error: %v\n%s", err, out)
	}

	if exists(env.desktop) {
		t.Error("desktop entry still exists")
	}
	if exists(env.appImage) {
		t.Error("AppImage bundle still exists")
	}
	if !strings.Contains(out, "Removed desktop file: "+env.desktop) {
		t.Errorf("output missing removal message:\n%s", out)
	}

	history := readHistory(t, env)
	if len(history) != 1 {
		t.Fatalf("expected 1 history record, got %d", len(history))
	}
	h := history[0]
	if h.Name != "Obsidian" || h.Kind != "appimage" || !h.Success || h.Command != "" {
		t.Errorf("unexpected record %+v", h)
	}
	if !reflect.DeepEqual(h.Paths, []string{env.desktop, env.appImage}) {
		t.Errorf("Paths = %v", h.Paths)
	}
	if h.ScanID == "" {
		t.Error("record should carry the scan ID")
	}
}

func TestRunRemove_PackageManaged(t *testing.T) {
	env := setupTestEnv(t, debianRelease)
	removeFlagYes = true
	env.removeOutput = "Removing vlc (3.0.18) ..."

	var err error
	out := captureStdout(t, func() {
		err = runRemove(&cobra.Command{}, []string{"vlc"})
	})
	if err != nil {
		t.Fatalf("runRemove() error: %v", err)
	}

	want := [][]string{{"pkexec", "apt", "purge", "-y", "vlc"}}
	if !reflect.DeepEqual(env.calls(), want) {
		t.Errorf("calls = %v, want %v", env.calls(), want)
	}
	if !strings.Contains(out, "Removing vlc (3.0.18) ...") {
		t.Errorf("output missing tool output:\n%s", out)
	}

	history := readHistory(t, env)
	if len(history) != 1 || history[0].Command != "pkexec apt purge -y vlc" || !history[0].Success {
		t.Errorf("unexpected history %+v", history)
	}
}

func TestRunRemove_Failure(t *testing.T) {
	env := setupTestEnv(t, debianRelease)
	removeFlagYes = true
	env.removeOutput = "E: Could not get lock /var/lib/dpkg/lock-frontend"
	env.removeErr = errors.New("exit status 100")

	var err error
	out := captureStdout(t, func() {
		err = runRemove(&cobra.Command{}, []string{"vlc", "gimp"})
	})
	if err == nil {
		t.Fatal("expected error when removals fail")
	}
	if !strings.Contains(err.Error(), "2 of 2 removals failed") {
		t.Errorf("error = %v", err)
	}
	if !strings.Contains(out, "Could not get lock") {
		t.Errorf("output missing diagnostic text:\n%s", out)
	}

	history := readHistory(t, env)
	if len(history) != 2 {
		t.Fatalf("expected 2 history records, got %d", len(history))
	}
	for _, h := range history {
		if h.Success {
			t.Errorf("record %s should be a failure", h.Name)
		}
		if !strings.Contains(h.Output, "Could not get lock") {
			t.Errorf("record %s output = %q", h.Name, h.Output)
		}
	}
}

func TestRunRemove_ProtectedAndMissing(t *testing.T) {
	env := setupTestEnv(t, debianRelease)
	removeFlagYes = true

	var err error
	out := captureStdout(t, func() {
		err = runRemove(&cobra.Command{}, []string{"linux-image-6.1", "nosuchapp"})
	})
	if err == nil || !strings.Contains(err.Error(), "nothing to remove") {
		t.Fatalf("runRemove() error = %v, want nothing to remove", err)
	}
	if !strings.Contains(out, "linux-image-6.1: protected system package, skipped") {
		t.Errorf("output missing protected warning:\n%s", out)
	}
	if !strings.Contains(out, "nosuchapp: not installed") {
		t.Errorf("output missing not-installed warning:\n%s", out)
	}
	if len(env.calls()) != 0 {
		t.Errorf("protected removal spawned %v", env.calls())
	}
}

func TestRunRemove_ConfiguredProtection(t *testing.T) {
	env := setupTestEnv(t, debianRelease)
	removeFlagYes = true
	cfg.Protected = []string{"GIMP"}

	var err error
	captureStdout(t, func() {
		err = runRemove(&cobra.Command{}, []string{"gimp"})
	})
	if err == nil {
		t.Fatal("expected configured protection to refuse gimp")
	}
	if len(env.calls()) != 0 {
		t.Errorf("protected removal spawned %v", env.calls())
	}
}

func TestRunRemove_Cancelled(t *testing.T) {
	env := setupTestEnv(t, debianRelease)
	stdin = strings.NewReader("n\n")

	var err error
	out := captureStdout(t, func() {
		err = runRemove(&cobra.Command{}, []string{"Obsidian"})
	})
	if err != nil {
		t.Fatalf("runRemove() error: %v", err)
	}
	if !strings.Contains(out, "Removal cancelled.") {
		t.Errorf("output missing cancellation:\n%s", out)
	}
	if !exists(env.desktop) {
		t.Error("cancelled removal deleted the desktop entry")
	}
}

func TestConfirmRemoval(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{" yes \n", true},
		{"yes", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"sure\n", false},
	}

	oldStdin := stdin
	defer func() { stdin = oldStdin }()

	for _, tt := range tests {
		stdin = strings.NewReader(tt.input)
		var got bool
		captureStdout(t, func() { got = confirmRemoval(1) })
		if got != tt.want {
			t.Errorf("confirmRemoval(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestPlanRemovals(t *testing.T) {
	result := &scanner.Result{Packages: []pkgmgr.Package{
		{Name: "vlc", Kind: pkgmgr.KindApt},
		{Name: "systemd", Kind: pkgmgr.KindApt},
		{Name: "Notes", Kind: pkgmgr.KindDesktopApp, DesktopFilePath: "/tmp/notes.desktop"},
	}}

	t.Run("with source", func(t *testing.T) {
		rm := remover.New(pkgmgr.NewApt(nil), nil)
		got, problems := planRemovals(rm, result, []string{"vlc", "VLC", "systemd", "notes", "ghost"})
		if len(got) != 2 || got[0].pkg.Name != "vlc" || got[1].pkg.Name != "Notes" {
			t.Errorf("candidates = %+v", got)
		}
		if len(problems) != 2 {
			t.Errorf("problems = %v", problems)
		}
	})

	t.Run("unsupported platform", func(t *testing.T) {
		rm := remover.New(nil, nil)
		got, problems := planRemovals(rm, result, []string{"vlc", "Notes"})
		if len(got) != 1 || got[0].pkg.Name != "Notes" {
			t.Errorf("candidates = %+v", got)
		}
		if len(problems) != 1 || !strings.Contains(problems[0], "no removal method") {
			t.Errorf("problems = %v", problems)
		}
	})
}

func TestDescribePlan(t *testing.T) {
	if got := describePlan(&remover.Plan{Command: []string{"pkexec", "dnf", "remove", "-y", "vlc"}}); got != "pkexec dnf remove -y vlc" {
		t.Errorf("describePlan(command) = %q", got)
	}
	if got := describePlan(&remover.Plan{Paths: []string{"/a.desktop", "/b.AppImage"}}); got != "delete /a.desktop, /b.AppImage" {
		t.Errorf("describePlan(paths) = %q", got)
	}
}
