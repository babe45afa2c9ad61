package pkgmgr

import "strings"

// SourceKind classifies the install mechanism of an inventory row.
type SourceKind string

const (
	KindApt        SourceKind = "apt"
	KindRpm        SourceKind = "rpm"
	KindDesktopApp SourceKind = "desktop-app"
	KindAppImage   SourceKind = "appimage"
	KindFlatpak    SourceKind = "flatpak"
	KindSnap       SourceKind = "snap"
)

// Kinds lists every SourceKind in display order.
var Kinds = []SourceKind{KindApt, KindRpm, KindDesktopApp, KindAppImage, KindFlatpak, KindSnap}

// Status is the lifecycle state of an inventory row. Only StatusInstalled
// is produced today.
type Status string

const StatusInstalled Status = "installed"

// NotApplicable is the version reported for rows that did not come from a
// package manager.
const NotApplicable = "N/A"

// Package is one installed unit: either a package-manager record or an
// application discovered only through its desktop entry.
type Package struct {
	Name    string
	SizeMB  float64
	Version string
	Kind    SourceKind
	Status  Status

	// DesktopFilePath and ExecPath are only set for rows that did not come
	// from a package manager.
	DesktopFilePath string
	ExecPath        string
}

// IsPackageManaged reports whether the row is owned by apt or rpm.
func (p *Package) IsPackageManaged() bool {
	return p.Kind == KindApt || p.Kind == KindRpm
}

// IsFileRemovable reports whether the row is removed by deleting its
// desktop entry rather than by a package manager.
func (p *Package) IsFileRemovable() bool {
	return p.DesktopFilePath != ""
}

// nameSuffixes are stripped when comparing package names with desktop-entry
// identifiers, e.g. a "foo-bin" package ships "foo.desktop".
var nameSuffixes = []string{"-stable", "-bin", "-git", "-edition", "-core", "-browser"}

// CleanName removes the common packaging suffixes from name. Every
// occurrence is removed, in list order.
func CleanName(name string) string {
	for _, suffix := range nameSuffixes {
		name = strings.ReplaceAll(name, suffix, "")
	}
	return name
}
