// Package output provides terminal output utilities for linprune.
//
// This package includes:
//   - Table rendering for the inventory and the removal history
//   - Progress bars for multi-package removals
//   - Spinners for scans
//
// Tables use fixed-width columns and ANSI colors, which are dropped when
// stdout is not a terminal or NO_COLOR is set. Progress indicators are
// thread-safe and can be used from multiple goroutines.
package output

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/blackwell-systems/linprune/internal/pkgmgr"
	"github.com/blackwell-systems/linprune/internal/store"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

// colorize wraps text in the given ANSI color code if color is enabled,
// otherwise returns the plain text.
func colorize(color, text string) string {
	if IsColorEnabled() {
		return color + text + colorReset
	}
	return text
}

// IconFunc resolves a row name to an icon reference.
type IconFunc func(name string) string

// RenderInventoryTable renders inventory rows in the given order. When icon
// is non-nil an Icon column is appended.
func RenderInventoryTable(packages []pkgmgr.Package, icon IconFunc) string {
	if len(packages) == 0 {
		return "No packages found.\n"
	}

	var sb strings.Builder

	header := fmt.Sprintf("%-32s %-22s %-10s %-12s %-9s", "Name", "Version", "Size", "Source", "Status")
	width := 89
	if icon != nil {
		header += " Icon"
		width = 110
	}
	sb.WriteString(header)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("─", width))
	sb.WriteString("\n")

	for _, p := range packages {
		// Pad before coloring so escape codes do not break alignment.
		kind := colorize(kindColor(p.Kind), fmt.Sprintf("%-12s", p.Kind))
		line := fmt.Sprintf("%-32s %-22s %-10s %s %-9s",
			truncate(p.Name, 32),
			truncate(p.Version, 22),
			FormatSizeMB(p.SizeMB),
			kind,
			p.Status)
		if icon != nil {
			line += " " + icon(p.Name)
		}
		sb.WriteString(strings.TrimRight(line, " "))
		sb.WriteString("\n")
	}

	return sb.String()
}

// RenderInventorySummary renders a one-line breakdown by source kind.
// Format: "1843 packages (9.1 GiB) · apt: 1830 · flatpak: 5 · desktop-app: 8"
func RenderInventorySummary(counts map[pkgmgr.SourceKind]int, totalMB float64) string {
	total := 0
	for _, n := range counts {
		total += n
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d packages (%s)", total, FormatSizeMB(totalMB)))

	for _, kind := range pkgmgr.Kinds {
		if counts[kind] == 0 {
			continue
		}
		sb.WriteString(" · ")
		sb.WriteString(colorize(kindColor(kind), string(kind)))
		sb.WriteString(fmt.Sprintf(": %d", counts[kind]))
	}

	return sb.String()
}

// RenderRemovalTable renders removal history, newest first.
func RenderRemovalTable(removals []*store.Removal) string {
	if len(removals) == 0 {
		return "No removals recorded.\n"
	}

	sorted := make([]*store.Removal, len(removals))
	copy(sorted, removals)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].RemovedAt.After(sorted[j].RemovedAt)
	})

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%-10s %-28s %-12s %-10s %-16s %s\n",
		"ID", "Name", "Source", "Size", "When", "Result"))
	sb.WriteString(strings.Repeat("─", 86))
	sb.WriteString("\n")

	for _, r := range sorted {
		result := colorize(colorGreen, "✓ removed")
		if !r.Success {
			result = colorize(colorRed, "✗ failed")
		}
		sb.WriteString(fmt.Sprintf("%-10s %-28s %-12s %-10s %-16s %s\n",
			truncate(r.ID, 8),
			truncate(r.Name, 28),
			r.Kind,
			FormatSizeMB(r.SizeMB),
			formatRelativeTime(r.RemovedAt),
			result))
	}

	return sb.String()
}

// FormatSizeMB renders a size given in mebibytes, e.g. "2.0 MiB".
func FormatSizeMB(mb float64) string {
	if mb <= 0 {
		return "0 B"
	}
	return humanize.IBytes(uint64(mb * 1024 * 1024))
}

// formatRelativeTime converts a timestamp to relative time (e.g., "2 days ago").
func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}

// kindColor returns the ANSI color code for a source kind. Package-manager
// rows are green, sandboxed formats cyan, loose desktop apps yellow.
func kindColor(kind pkgmgr.SourceKind) string {
	switch kind {
	case pkgmgr.KindApt, pkgmgr.KindRpm:
		return colorGreen
	case pkgmgr.KindFlatpak, pkgmgr.KindSnap:
		return colorCyan
	case pkgmgr.KindAppImage, pkgmgr.KindDesktopApp:
		return colorYellow
	default:
		return colorGray
	}
}

// truncate truncates a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
