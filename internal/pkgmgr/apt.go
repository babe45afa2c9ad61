package pkgmgr

import (
	"context"

	"github.com/blackwell-systems/linprune/internal/log"
)

// dpkgQueryFormat requests name, installed size (KiB) and version.
const dpkgQueryFormat = "-f=${Package}\t${Installed-Size}\t${Version}\n"

// Apt is the Debian/Ubuntu family, enumerated with dpkg-query.
type Apt struct {
	run Runner
}

// NewApt returns an Apt source using run, or os/exec when run is nil.
func NewApt(run Runner) *Apt {
	if run == nil {
		run = ExecRunner
	}
	return &Apt{run: run}
}

func (a *Apt) Name() string { return "apt" }

// ListInstalled runs dpkg-query and converts sizes from KiB to MiB.
func (a *Apt) ListInstalled(ctx context.Context) []Package {
	output, err := a.run(ctx, "dpkg-query", "-W", dpkgQueryFormat)
	if err != nil {
		log.Warn("error listing packages (apt): %v", err)
		return nil
	}
	return parseQueryOutput(string(output), 1024, KindApt)
}

// UninstallCommand purges the package so its configuration goes too.
func (a *Apt) UninstallCommand(name string) []string {
	return []string{"pkexec", "apt", "purge", "-y", name}
}
