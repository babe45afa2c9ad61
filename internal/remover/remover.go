// Package remover uninstalls inventory rows. Package-manager rows are removed
// through the adapter's privileged command; desktop-only rows by deleting
// their desktop entry and, for single-file bundles, the executable.
package remover

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/blackwell-systems/linprune/internal/log"
	"github.com/blackwell-systems/linprune/internal/pkgmgr"
)

var (
	// ErrProtected is returned for names on the protected denylist. Nothing
	// is run or deleted.
	ErrProtected = errors.New("refusing to remove a critical system package")

	// ErrNotRemovable is returned when a row has neither a desktop entry nor
	// a package manager able to remove it.
	ErrNotRemovable = errors.New("no removal method available")
)

// DefaultProtected are the denylist words. A name containing any of them is
// never removed.
var DefaultProtected = []string{
	"linux-image",
	"ubuntu-desktop",
	"systemd",
	"python3",
	"gnome-shell",
	"kernel",
	"filesystem",
}

// Runner executes a command and returns its combined stdout and stderr.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Outcome reports one removal attempt.
type Outcome struct {
	Success bool
	Output  string   // captured command output or error text
	Removed []string // files deleted for desktop-only rows
}

// Plan describes what Remove would do, without doing it.
type Plan struct {
	Command []string // privileged argv for package-manager rows
	Paths   []string // files deleted for desktop-only rows
}

// Remover removes inventory rows. Removals are not deduplicated; callers
// serialize requests for the same row.
type Remover struct {
	Source    pkgmgr.Source // nil when the platform is unsupported
	Runner    Runner
	Protected []string
}

// New returns a Remover protecting DefaultProtected plus extra words.
func New(source pkgmgr.Source, extra []string) *Remover {
	protected := append([]string(nil), DefaultProtected...)
	for _, word := range extra {
		if word = strings.ToLower(strings.TrimSpace(word)); word != "" {
			protected = append(protected, word)
		}
	}
	return &Remover{
		Source:    source,
		Runner:    ExecRunner,
		Protected: protected,
	}
}

// IsProtected reports whether name contains a denylist word.
func (r *Remover) IsProtected(name string) bool {
	lower := strings.ToLower(name)
	for _, word := range r.Protected {
		if word != "" && strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

// Plan returns the command or files Remove would use for pkg.
func (r *Remover) Plan(pkg pkgmgr.Package) (*Plan, error) {
	if r.IsProtected(pkg.Name) {
		return nil, fmt.Errorf("%s: %w", pkg.Name, ErrProtected)
	}

	switch {
	case pkg.IsFileRemovable():
		paths := []string{pkg.DesktopFilePath}
		if isBundle(pkg) {
			paths = append(paths, pkg.ExecPath)
		}
		return &Plan{Paths: paths}, nil

	case pkg.IsPackageManaged() && r.Source != nil:
		return &Plan{Command: r.Source.UninstallCommand(pkg.Name)}, nil
	}

	return nil, fmt.Errorf("%s (%s): %w", pkg.Name, pkg.Kind, ErrNotRemovable)
}

// Remove uninstalls pkg. On failure the returned Outcome carries the
// diagnostic text and the error describes what failed.
func (r *Remover) Remove(ctx context.Context, pkg pkgmgr.Package) (Outcome, error) {
	plan, err := r.Plan(pkg)
	if err != nil {
		return Outcome{Output: err.Error()}, err
	}

	if len(plan.Paths) > 0 {
		return removeFiles(pkg, plan.Paths)
	}
	return r.runCommand(ctx, pkg, plan.Command)
}

// runCommand executes argv, capturing all output for the caller.
func (r *Remover) runCommand(ctx context.Context, pkg pkgmgr.Package, argv []string) (Outcome, error) {
	if len(argv) == 0 {
		return Outcome{}, fmt.Errorf("%s: %w", pkg.Name, ErrNotRemovable)
	}

	run := r.Runner
	if run == nil {
		run = ExecRunner
	}

	log.Info("running %s", strings.Join(argv, " "))
	output, err := run(ctx, argv[0], argv[1:]...)
	text := strings.TrimSpace(string(output))
	if err != nil {
		if text == "" {
			text = err.Error()
		}
		return Outcome{Output: text}, fmt.Errorf("%s failed: %w", strings.Join(argv, " "), err)
	}

	return Outcome{Success: true, Output: text}, nil
}

// removeFiles deletes the desktop entry, then the bundle if present. A
// descriptor that is already gone is not an error.
func removeFiles(pkg pkgmgr.Package, paths []string) (Outcome, error) {
	var out Outcome

	for i, path := range paths {
		log.Info("removing %s", path)
		err := os.Remove(path)
		switch {
		case err == nil:
			out.Removed = append(out.Removed, path)
		case errors.Is(err, os.ErrNotExist):
			// The bundle may already be gone; so may the descriptor.
			log.Debug("%s already removed", path)
		default:
			out.Output = fmt.Sprintf("Error removing files: %v", err)
			if i > 0 {
				out.Output += fmt.Sprintf(" (already removed %s)", strings.Join(out.Removed, ", "))
			}
			return out, fmt.Errorf("failed to remove %s: %w", pkg.Name, err)
		}
	}

	out.Success = true
	out.Output = "Removed desktop file: " + pkg.DesktopFilePath
	return out, nil
}

// isBundle reports whether the executable is a self-contained file that
// belongs to the application alone.
func isBundle(pkg pkgmgr.Package) bool {
	if pkg.ExecPath == "" {
		return false
	}
	return pkg.Kind == pkgmgr.KindAppImage ||
		strings.Contains(strings.ToLower(pkg.ExecPath), ".appimage")
}
