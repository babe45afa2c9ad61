// Package pkgmgr enumerates installed packages through the distribution's
// native package manager and builds the commands that remove them.
package pkgmgr

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"github.com/blackwell-systems/linprune/internal/log"
)

// ErrUnsupportedPlatform is returned by Detect when the distribution belongs
// to neither the Debian nor the RHEL family.
var ErrUnsupportedPlatform = errors.New("unsupported distribution: only Debian/Ubuntu and Fedora/RHEL families are supported")

// Source is a package-manager family.
type Source interface {
	// Name returns the family's package tool ("apt" or "dnf").
	Name() string

	// ListInstalled enumerates installed packages. Failures degrade to an
	// empty list and are logged.
	ListInstalled(ctx context.Context) []Package

	// UninstallCommand returns the privileged argument vector that removes
	// the named package. It never runs the command.
	UninstallCommand(name string) []string
}

// Runner executes a command and returns its stdout.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("%s failed: %w (stderr: %s)", name, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("%s failed: %w", name, err)
	}
	return output, nil
}

// Detect reads the distribution descriptor at path and selects the matching
// Source. The RHEL family is checked first. A missing or unreadable
// descriptor is treated as an unknown distribution.
func Detect(path string, run Runner) (Source, Distro, error) {
	if run == nil {
		run = ExecRunner
	}

	distro, err := ReadOSRelease(path)
	if err != nil {
		log.Warn("distro detection: %v", err)
	}
	log.Debug("detected distro: %s", distro)

	return ForDistro(distro, run)
}

// ForDistro selects the Source for an already parsed descriptor.
func ForDistro(distro Distro, run Runner) (Source, Distro, error) {
	if run == nil {
		run = ExecRunner
	}

	switch {
	case distro.IsRHELLike():
		return &Rpm{run: run}, distro, nil
	case distro.IsDebianLike():
		return &Apt{run: run}, distro, nil
	}
	return nil, distro, ErrUnsupportedPlatform
}

// parseQueryOutput parses "name\tsize\tversion" lines. divisor converts the
// reported size unit to MiB. Lines with fewer than three fields or a size
// that is not a non-negative number are skipped. Multi-arch installs report a
// name once per architecture; only the first row for a name is kept.
func parseQueryOutput(output string, divisor float64, kind SourceKind) []Package {
	var packages []Package
	seen := make(map[string]bool)

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		parts := strings.Split(line, "\t")
		if len(parts) < 3 {
			continue
		}

		size, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil || size < 0 || math.IsNaN(size) || math.IsInf(size, 0) {
			log.Debug("skipping %s line with bad size: %q", kind, line)
			continue
		}

		if seen[parts[0]] {
			log.Debug("skipping duplicate %s package %s", kind, parts[0])
			continue
		}
		seen[parts[0]] = true

		packages = append(packages, Package{
			Name:    parts[0],
			SizeMB:  size / divisor,
			Version: parts[2],
			Kind:    kind,
			Status:  StatusInstalled,
		})
	}

	return packages
}
