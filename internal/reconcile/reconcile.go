// Package reconcile merges package-manager records with applications
// discovered through desktop entries into one deduplicated inventory.
//
// Package names and desktop-entry identifiers routinely diverge ("foo-bin"
// ships "foo.desktop"), so an entry counts as already installed when any of
// several keys matches the installed-name set. Entries that match nothing
// become synthesized rows appended after the package-manager rows.
package reconcile

import (
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/blackwell-systems/linprune/internal/desktop"
	"github.com/blackwell-systems/linprune/internal/pkgmgr"
)

const bytesPerMiB = 1024 * 1024

// Engine reconciles one scan. The zero value is not usable; call New.
type Engine struct {
	// SizeOf returns the byte size of an executable.
	SizeOf func(path string) (int64, error)
}

// New returns an Engine that sizes executables with os.Stat.
func New() *Engine {
	return &Engine{SizeOf: statSize}
}

func statSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		return 0, nil
	}
	return info.Size(), nil
}

// Reconcile returns packages followed by one synthesized row per desktop
// entry that is not already represented. The input slices are not modified.
func (en *Engine) Reconcile(packages []pkgmgr.Package, entries []*desktop.Entry) []pkgmgr.Package {
	installed := installedNames(packages)
	added := make(map[string]bool)

	var extra []pkgmgr.Package
	for _, e := range entries {
		if e == nil {
			continue
		}

		name := DisplayName(e)
		if isInstalled(e, name, installed, added) {
			continue
		}

		extra = append(extra, pkgmgr.Package{
			Name:            name,
			SizeMB:          en.estimateSizeMB(e.ExecPath),
			Version:         pkgmgr.NotApplicable,
			Kind:            Classify(e.Path, e.ExecPath),
			Status:          pkgmgr.StatusInstalled,
			DesktopFilePath: e.Path,
			ExecPath:        e.ExecPath,
		})
		added[name] = true
	}

	inventory := make([]pkgmgr.Package, 0, len(packages)+len(extra))
	inventory = append(inventory, packages...)
	inventory = append(inventory, extra...)
	return inventory
}

// installedNames holds every package name lowercased, plus its cleaned form.
func installedNames(packages []pkgmgr.Package) map[string]bool {
	names := make(map[string]bool, len(packages)*2)
	for _, p := range packages {
		lower := strings.ToLower(p.Name)
		names[lower] = true
		names[pkgmgr.CleanName(lower)] = true
	}
	return names
}

func isInstalled(e *desktop.Entry, name string, installed, added map[string]bool) bool {
	switch {
	case installed[strings.ToLower(name)]:
		return true
	case installed[e.Key]:
		return true
	case e.ExecName != "" && installed[e.ExecName]:
		return true
	case added[name]:
		return true
	}
	return false
}

// DisplayName prefers the declared Name= value and falls back to the
// title-cased filename stem.
func DisplayName(e *desktop.Entry) string {
	if e.Name != "" {
		return e.Name
	}
	return titleWords(e.Key)
}

// titleWords capitalizes every run of letters independently, so separators
// such as '.' and '_' start a new word: "org.gnome.gedit" becomes
// "Org.Gnome.Gedit".
func titleWords(s string) string {
	// Casers carry state and are not shared between goroutines.
	caser := cases.Title(language.Und)

	var b strings.Builder
	b.Grow(len(s))
	for s != "" {
		end := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsLetter(r) })
		if end < 0 {
			end = len(s)
		}
		b.WriteString(caser.String(s[:end]))
		s = s[end:]

		end = strings.IndexFunc(s, unicode.IsLetter)
		if end < 0 {
			end = len(s)
		}
		b.WriteString(s[:end])
		s = s[end:]
	}
	return b.String()
}

// Classify derives the install mechanism of a desktop-only application from
// its descriptor and executable paths.
func Classify(descriptorPath, execPath string) pkgmgr.SourceKind {
	switch {
	case strings.Contains(descriptorPath, "flatpak"):
		return pkgmgr.KindFlatpak
	case strings.Contains(descriptorPath, "snap"):
		return pkgmgr.KindSnap
	case strings.Contains(strings.ToLower(execPath), ".appimage"):
		return pkgmgr.KindAppImage
	}
	return pkgmgr.KindDesktopApp
}

// estimateSizeMB sizes the executable, or returns 0 when it is missing or
// unreadable.
func (en *Engine) estimateSizeMB(execPath string) float64 {
	if execPath == "" || en.SizeOf == nil {
		return 0
	}
	size, err := en.SizeOf(execPath)
	if err != nil || size < 0 {
		return 0
	}
	return float64(size) / bytesPerMiB
}
