package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/linprune/internal/icons"
	"github.com/blackwell-systems/linprune/internal/log"
	"github.com/blackwell-systems/linprune/internal/output"
	"github.com/blackwell-systems/linprune/internal/pkgmgr"
	"github.com/blackwell-systems/linprune/internal/remover"
	"github.com/blackwell-systems/linprune/internal/scanner"
	"github.com/blackwell-systems/linprune/internal/store"
)

// Process boundaries, replaced in tests.
var (
	queryRunner  pkgmgr.Runner  = pkgmgr.ExecRunner
	removeRunner remover.Runner = remover.ExecRunner
	stdin        io.Reader      = os.Stdin
)

// commandContext returns cmd's context, or Background when cmd was not
// started through Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}

// detectSource selects the package source for this machine. An unsupported
// distribution is not an error: the returned Source is nil and the inventory
// is built from desktop entries only.
func detectSource() (pkgmgr.Source, pkgmgr.Distro) {
	source, distro, err := pkgmgr.Detect(currentConfig().OSRelease, queryRunner)
	if err != nil {
		if !errors.Is(err, pkgmgr.ErrUnsupportedPlatform) {
			log.Warn("package source detection: %v", err)
		}
		return nil, distro
	}
	return source, distro
}

// newScanner builds a Scanner for source with the configured paths.
func newScanner(source pkgmgr.Source) *scanner.Scanner {
	c := currentConfig()
	home, _ := os.UserHomeDir()

	s := scanner.New(source)
	if len(c.SearchPaths) > 0 {
		s.SearchPaths = c.SearchPaths
	}
	if len(c.IconDirs) > 0 {
		s.IconDirs = c.IconDirs
	}
	if len(c.IconThemes) > 0 {
		s.Theme = icons.NewXDGTheme(home, c.IconThemes)
	}
	if c.Workers > 0 {
		s.Workers = c.Workers
	}
	return s
}

// newRemover builds a Remover protecting the configured extra words.
func newRemover(source pkgmgr.Source) *remover.Remover {
	r := remover.New(source, currentConfig().Protected)
	r.Runner = removeRunner
	return r
}

// scanInventory detects the source and runs one scan behind a spinner.
func scanInventory(ctx context.Context, quiet bool) (*scanner.Result, pkgmgr.Source, error) {
	source, _ := detectSource()

	var spinner *output.Spinner
	if !quiet {
		spinner = output.NewSpinner("Scanning installed software")
		spinner.Start()
	}

	result, err := newScanner(source).Scan(ctx)
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("scan failed: %w", err)
	}

	if result.Unsupported && !quiet {
		fmt.Fprintln(os.Stderr, "⚠  No supported package manager found; showing desktop applications only.")
	}
	return result, source, nil
}

// openStore opens the removal history and creates its schema.
func openStore() (*store.Store, error) {
	path, err := getDBPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get database path: %w", err)
	}

	st, err := store.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := st.CreateSchema(); err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to create database schema: %w", err)
	}
	return st, nil
}
