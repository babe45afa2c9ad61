package app

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/linprune/internal/icons"
)

func TestRunIcon(t *testing.T) {
	env := setupTestEnv(t, debianRelease)

	var err error
	out := captureStdout(t, func() {
		err = runIcon(&cobra.Command{}, []string{"Obsidian", "zz-no-such-app-zz"})
	})
	if err != nil {
		t.Fatalf("runIcon() error: %v", err)
	}

	lines := strings.Split(out, "\n")
	if !strings.HasPrefix(lines[0], "Obsidian") || !strings.HasSuffix(lines[0], env.icon) {
		t.Errorf("line 0 = %q, want Obsidian -> %s", lines[0], env.icon)
	}
	if !strings.HasSuffix(lines[1], icons.Generic) {
		t.Errorf("line 1 = %q, want generic fallback", lines[1])
	}
	if !strings.Contains(out, "1 of 2 names fell back to "+icons.Generic) {
		t.Errorf("output missing fallback summary:\n%s", out)
	}
}

func TestIconCommand(t *testing.T) {
	if iconCmd.Args(iconCmd, nil) == nil {
		t.Error("icon without names should be rejected")
	}
	if iconCmd.Args(iconCmd, []string{"firefox"}) != nil {
		t.Error("icon with a name should be accepted")
	}
}
