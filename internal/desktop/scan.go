// Package desktop discovers and parses freedesktop desktop entries.
//
// Files are parsed concurrently on a bounded pool that lives exactly as long
// as one Scan call. Parses share no state; results land in per-file slots and
// are aggregated on the calling goroutine after the pool is joined, so the
// resulting Index needs no locking.
package desktop

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/blackwell-systems/linprune/internal/log"
)

// DefaultWorkers is the width of the parse pool.
const DefaultWorkers = 10

// DefaultSearchPaths returns the descriptor directories in scan order:
// system, local, user, snap, flatpak system and flatpak user.
func DefaultSearchPaths(home string) []string {
	return []string{
		"/usr/share/applications",
		"/usr/local/share/applications",
		filepath.Join(home, ".local/share/applications"),
		"/var/lib/snapd/desktop/applications",
		"/var/lib/flatpak/exports/share/applications",
		filepath.Join(home, ".local/share/flatpak/exports/share/applications"),
	}
}

// Discover lists *.desktop files under each existing directory, preserving
// directory order. Missing directories are skipped.
func Discover(paths []string) []string {
	var files []string
	for _, dir := range paths {
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		matches, err := filepath.Glob(filepath.Join(dir, "*"+Suffix))
		if err != nil {
			continue
		}
		sort.Strings(matches)
		files = append(files, matches...)
	}
	return files
}

// ScanResult is the aggregated output of one scan.
type ScanResult struct {
	Entries []*Entry
	Index   *Index
	Files   int // candidate files discovered
	Skipped int // files that could not be parsed
}

// Scan discovers and parses every desktop entry under paths using at most
// workers concurrent parses. Only context cancellation is reported as an
// error; unparseable files are skipped.
func Scan(ctx context.Context, paths []string, workers int) (*ScanResult, error) {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	files := Discover(paths)
	parsed := make([]*Entry, len(files))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, file := range files {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			if e, ok := ParseFile(file); ok {
				parsed[i] = e
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &ScanResult{Files: len(files)}
	for i, e := range parsed {
		if e == nil {
			log.Debug("skipping unreadable desktop entry %s", files[i])
			result.Skipped++
			continue
		}
		result.Entries = append(result.Entries, e)
	}
	result.Index = NewIndex(result.Entries)

	return result, nil
}
