package pkgmgr

import (
	"context"

	"github.com/blackwell-systems/linprune/internal/log"
)

// rpmQueryFormat requests name, size (bytes) and version.
const rpmQueryFormat = "%{NAME}\t%{SIZE}\t%{VERSION}\n"

// Rpm is the Fedora/RHEL family, enumerated with rpm and removed with dnf.
type Rpm struct {
	run Runner
}

// NewRpm returns an Rpm source using run, or os/exec when run is nil.
func NewRpm(run Runner) *Rpm {
	if run == nil {
		run = ExecRunner
	}
	return &Rpm{run: run}
}

func (r *Rpm) Name() string { return "dnf" }

// ListInstalled runs rpm -qa and converts sizes from bytes to MiB.
func (r *Rpm) ListInstalled(ctx context.Context) []Package {
	output, err := r.run(ctx, "rpm", "-qa", "--queryformat", rpmQueryFormat)
	if err != nil {
		log.Warn("error listing packages (rpm): %v", err)
		return nil
	}
	return parseQueryOutput(string(output), 1024*1024, KindRpm)
}

func (r *Rpm) UninstallCommand(name string) []string {
	return []string{"pkexec", "dnf", "remove", "-y", name}
}
