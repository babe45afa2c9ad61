// Package scanner runs one full inventory pass: package enumeration, the
// desktop-entry scan, reconciliation and icon resolver setup.
package scanner

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/blackwell-systems/linprune/internal/desktop"
	"github.com/blackwell-systems/linprune/internal/icons"
	"github.com/blackwell-systems/linprune/internal/log"
	"github.com/blackwell-systems/linprune/internal/pkgmgr"
	"github.com/blackwell-systems/linprune/internal/reconcile"
)

// Scanner builds inventories. Its fields are read on every scan and must not
// be changed while a scan is running.
type Scanner struct {
	// Source enumerates packages. nil means the platform is unsupported and
	// the inventory is built from desktop entries only.
	Source      pkgmgr.Source
	SearchPaths []string
	Workers     int
	Theme       icons.Theme
	IconDirs    []string
	Engine      *reconcile.Engine

	generation atomic.Uint64
	deliverMu  sync.Mutex
}

// New creates a Scanner with the default search paths, hicolor theme and
// fallback icon directories.
func New(source pkgmgr.Source) *Scanner {
	home, _ := os.UserHomeDir()
	return &Scanner{
		Source:      source,
		SearchPaths: desktop.DefaultSearchPaths(home),
		Workers:     desktop.DefaultWorkers,
		Theme:       icons.NewXDGTheme(home, nil),
		IconDirs:    icons.DefaultFallbackDirs(home),
		Engine:      reconcile.New(),
	}
}

// Scan runs a complete pass. Enumeration failures and unreadable descriptor
// files are absorbed; only context cancellation fails the scan.
func (s *Scanner) Scan(ctx context.Context) (*Result, error) {
	start := time.Now()
	result := &Result{ID: uuid.NewString()}

	// Enumeration blocks until the package tool exits.
	var packages []pkgmgr.Package
	if s.Source == nil {
		result.Unsupported = true
		log.Warn("no supported package manager; listing desktop applications only")
	} else {
		result.Source = s.Source.Name()
		packages = s.Source.ListInstalled(ctx)
		log.Debug("%s reported %d packages", result.Source, len(packages))
	}

	entries, err := desktop.Scan(ctx, s.SearchPaths, s.Workers)
	if err != nil {
		return nil, fmt.Errorf("failed to scan desktop entries: %w", err)
	}
	result.Files = entries.Files

	engine := s.Engine
	if engine == nil {
		engine = reconcile.New()
	}
	result.Packages = engine.Reconcile(packages, entries.Entries)
	result.Index = entries.Index
	result.Icons = icons.NewResolver(entries.Index, s.Theme, s.IconDirs, len(result.Packages))
	result.Duration = time.Since(start)

	log.Info("scan %s: %d packages, %d desktop entries, %d rows in %s",
		result.ID, len(packages), len(entries.Entries), len(result.Packages), result.Duration)

	return result, nil
}

// ScanAsync starts a scan on a fresh goroutine and hands the outcome to
// deliver. When a newer request has been made by the time a scan finishes,
// its outcome is dropped, so deliver only ever sees the latest inventory.
// Deliveries are serialized. The returned channel is closed when the worker
// exits, whether or not it delivered.
func (s *Scanner) ScanAsync(ctx context.Context, deliver func(*Result, error)) <-chan struct{} {
	gen := s.generation.Add(1)
	done := make(chan struct{})

	go func() {
		defer close(done)

		result, err := s.Scan(ctx)

		s.deliverMu.Lock()
		defer s.deliverMu.Unlock()

		if s.generation.Load() != gen {
			log.Debug("discarding superseded scan %d", gen)
			return
		}
		deliver(result, err)
	}()

	return done
}
