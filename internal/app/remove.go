package app

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/linprune/internal/log"
	"github.com/blackwell-systems/linprune/internal/output"
	"github.com/blackwell-systems/linprune/internal/pkgmgr"
	"github.com/blackwell-systems/linprune/internal/remover"
	"github.com/blackwell-systems/linprune/internal/scanner"
	"github.com/blackwell-systems/linprune/internal/store"
)

var (
	removeFlagDryRun bool
	removeFlagYes    bool
)

var removeCmd = &cobra.Command{
	Use:   "remove NAME...",
	Short: "Remove installed packages or applications",
	Long: `Remove one or more inventory rows by name.

Package-manager rows are uninstalled with "pkexec apt purge -y" or
"pkexec dnf remove -y". Applications found only through a desktop entry are
removed by deleting that entry; AppImage bundles are deleted along with it.

Safety features:
  - Names containing a protected word (linux-image, systemd, kernel, ...)
    are refused before anything runs
  - Confirmation is required unless --yes is given
  - --dry-run shows the exact command or files without touching anything
  - Every attempt is recorded in the removal history (linprune history)`,
	Example: `  # Preview a removal
  linprune remove --dry-run vlc

  # Remove two applications without prompting
  linprune remove --yes vlc "Obsidian"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRemove,
}

func init() {
	removeCmd.Flags().BoolVar(&removeFlagDryRun, "dry-run", false, "Show what would be removed without removing")
	removeCmd.Flags().BoolVarP(&removeFlagYes, "yes", "y", false, "Skip confirmation prompt")

	RootCmd.AddCommand(removeCmd)
}

// removal is one validated removal candidate.
type removal struct {
	pkg  pkgmgr.Package
	plan *remover.Plan
}

func runRemove(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	result, source, err := scanInventory(ctx, false)
	if err != nil {
		return err
	}
	rm := newRemover(source)

	candidates, problems := planRemovals(rm, result, args)
	for _, p := range problems {
		fmt.Printf("  ⚠ %s\n", p)
	}
	if len(candidates) == 0 {
		return fmt.Errorf("nothing to remove")
	}

	fmt.Printf("\nTo remove:\n\n")
	var totalMB float64
	for _, c := range candidates {
		fmt.Printf("  %-32s %-12s %s\n", c.pkg.Name, c.pkg.Kind, describePlan(c.plan))
		totalMB += c.pkg.SizeMB
	}
	fmt.Printf("\nSummary:\n")
	fmt.Printf("  Packages: %d\n", len(candidates))
	fmt.Printf("  Disk space to free: %s\n", output.FormatSizeMB(totalMB))
	fmt.Println()

	if removeFlagDryRun {
		fmt.Println("Dry-run mode: nothing will be removed.")
		return nil
	}

	if !removeFlagYes && !confirmRemoval(len(candidates)) {
		fmt.Println("Removal cancelled.")
		return nil
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	var progress *output.ProgressBar
	if len(candidates) > 1 {
		progress = output.NewProgress(len(candidates), "Removing packages")
	}

	var removed int
	var freedMB float64
	var failures []string
	for _, c := range candidates {
		outcome, err := rm.Remove(ctx, c.pkg)
		record(st, result.ID, c, outcome)

		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %s", c.pkg.Name, outcome.Output))
		} else {
			removed++
			freedMB += c.pkg.SizeMB
			result.Remove(c.pkg.Name)
			if progress == nil && outcome.Output != "" {
				fmt.Println(outcome.Output)
			}
		}
		if progress != nil {
			progress.Increment()
		}
	}
	if progress != nil {
		progress.Finish()
	}

	fmt.Printf("\n✓ Removed %d of %d, freed %s\n", removed, len(candidates), output.FormatSizeMB(freedMB))

	if len(failures) > 0 {
		fmt.Printf("\n⚠  %d failures:\n", len(failures))
		for _, failure := range failures {
			fmt.Printf("  - %s\n", failure)
		}
		return fmt.Errorf("%d of %d removals failed", len(failures), len(candidates))
	}
	return nil
}

// planRemovals resolves each name against the inventory and plans its
// removal. Names that cannot be removed are reported as problems.
func planRemovals(rm *remover.Remover, result *scanner.Result, names []string) ([]removal, []string) {
	var candidates []removal
	var problems []string
	seen := make(map[string]bool)

	for _, name := range names {
		pkg, err := result.Find(name)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: not installed", name))
			continue
		}
		if seen[pkg.Name] {
			continue
		}
		seen[pkg.Name] = true

		plan, err := rm.Plan(*pkg)
		switch {
		case errors.Is(err, remover.ErrProtected):
			problems = append(problems, fmt.Sprintf("%s: protected system package, skipped", pkg.Name))
			continue
		case errors.Is(err, remover.ErrNotRemovable):
			problems = append(problems, fmt.Sprintf("%s: no removal method for %s rows on this system", pkg.Name, pkg.Kind))
			continue
		case err != nil:
			problems = append(problems, err.Error())
			continue
		}
		candidates = append(candidates, removal{pkg: *pkg, plan: plan})
	}
	return candidates, problems
}

func describePlan(plan *remover.Plan) string {
	if len(plan.Command) > 0 {
		return strings.Join(plan.Command, " ")
	}
	return "delete " + strings.Join(plan.Paths, ", ")
}

// record writes the attempt to the removal history. A history failure does
// not fail the removal.
func record(st *store.Store, scanID string, c removal, outcome remover.Outcome) {
	r := &store.Removal{
		ScanID:  scanID,
		Name:    c.pkg.Name,
		Version: c.pkg.Version,
		Kind:    string(c.pkg.Kind),
		SizeMB:  c.pkg.SizeMB,
		Command: strings.Join(c.plan.Command, " "),
		Paths:   c.plan.Paths,
		Success: outcome.Success,
		Output:  outcome.Output,
	}
	if _, err := st.InsertRemoval(r); err != nil {
		log.Warn("failed to record removal of %s: %v", c.pkg.Name, err)
		fmt.Fprintf(os.Stderr, "\nWarning: removal of %s was not recorded in history: %v\n", c.pkg.Name, err)
	}
}

// confirmRemoval prompts the user to confirm removal. Only "y" or "yes"
// confirms.
func confirmRemoval(count int) bool {
	reader := bufio.NewReader(stdin)

	fmt.Printf("Remove %d packages? [y/N]: ", count)

	response, err := reader.ReadString('\n')
	if err != nil && response == "" {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
