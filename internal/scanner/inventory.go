package scanner

import (
	"errors"
	"strings"
	"time"

	"github.com/blackwell-systems/linprune/internal/desktop"
	"github.com/blackwell-systems/linprune/internal/icons"
	"github.com/blackwell-systems/linprune/internal/pkgmgr"
)

// ErrNotFound is returned by Find when no row matches.
var ErrNotFound = errors.New("package not found in inventory")

// Result is one scan's inventory. Packages lists package-manager rows first,
// then desktop-only applications. Index and Icons are built once and only
// read afterwards.
type Result struct {
	ID          string
	Source      string // package tool name, "" when unsupported
	Unsupported bool
	Packages    []pkgmgr.Package
	Index       *desktop.Index
	Icons       *icons.Resolver
	Files       int
	Duration    time.Duration
}

// Find returns the row named name. An exact match wins over a
// case-insensitive one.
func (r *Result) Find(name string) (*pkgmgr.Package, error) {
	for i := range r.Packages {
		if r.Packages[i].Name == name {
			return &r.Packages[i], nil
		}
	}
	for i := range r.Packages {
		if strings.EqualFold(r.Packages[i].Name, name) {
			return &r.Packages[i], nil
		}
	}
	return nil, ErrNotFound
}

// Remove drops the first row with the exact name after a successful
// uninstall. It reports whether a row was removed.
func (r *Result) Remove(name string) bool {
	for i := range r.Packages {
		if r.Packages[i].Name == name {
			r.Packages = append(r.Packages[:i:i], r.Packages[i+1:]...)
			return true
		}
	}
	return false
}

// TotalSizeMB sums the size of every row.
func (r *Result) TotalSizeMB() float64 {
	var total float64
	for _, p := range r.Packages {
		total += p.SizeMB
	}
	return total
}

// CountByKind counts rows per source kind.
func (r *Result) CountByKind() map[pkgmgr.SourceKind]int {
	counts := make(map[pkgmgr.SourceKind]int)
	for _, p := range r.Packages {
		counts[p.Kind]++
	}
	return counts
}
