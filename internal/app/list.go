package app

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/linprune/internal/output"
	"github.com/blackwell-systems/linprune/internal/pkgmgr"
	"github.com/blackwell-systems/linprune/internal/scanner"
)

var (
	listFilter string
	listKinds  []string
	listSort   string
	listIcons  bool
	listJSON   bool

	listCmd = &cobra.Command{
		Use:     "list",
		Aliases: []string{"scan"},
		Short:   "List installed packages and applications",
		Long: `Scan the package manager and desktop entries and print the reconciled
inventory.

Package-manager rows come first, followed by applications that were found
only through their desktop entry. Those are classified as flatpak, snap,
appimage or desktop-app. Nothing is cached: every invocation rescans.`,
		Example: `  # Full inventory
  linprune list

  # Fuzzy search by name, best matches first
  linprune list --filter chrm

  # Largest desktop-only applications
  linprune list --kind appimage --kind desktop-app --sort size

  # Machine-readable output with resolved icons
  linprune list --json --icons`,
		Args: cobra.NoArgs,
		RunE: runList,
	}
)

func init() {
	listCmd.Flags().StringVarP(&listFilter, "filter", "f", "", "fuzzy filter on package name")
	listCmd.Flags().StringSliceVar(&listKinds, "kind", nil, "only show these sources: apt, rpm, desktop-app, appimage, flatpak, snap")
	listCmd.Flags().StringVar(&listSort, "sort", "", "sort by: name, size (default: inventory order, or match rank with --filter)")
	listCmd.Flags().BoolVar(&listIcons, "icons", false, "resolve and show an icon for every row")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print JSON instead of a table")

	RootCmd.AddCommand(listCmd)
}

// listRow is the JSON form of an inventory row.
type listRow struct {
	Name        string  `json:"name"`
	Version     string  `json:"version"`
	SizeMB      float64 `json:"size_mb"`
	Kind        string  `json:"kind"`
	Status      string  `json:"status"`
	DesktopFile string  `json:"desktop_file,omitempty"`
	Exec        string  `json:"exec,omitempty"`
	Icon        string  `json:"icon,omitempty"`
}

func runList(cmd *cobra.Command, args []string) error {
	kinds, err := parseKinds(listKinds)
	if err != nil {
		return err
	}
	if err := validateSort(listSort); err != nil {
		return err
	}

	result, _, err := scanInventory(commandContext(cmd), listJSON)
	if err != nil {
		return err
	}

	rows := selectRows(result.Packages, listFilter, kinds, listSort)

	var icon output.IconFunc
	if listIcons {
		icon = result.Icons.Resolve
	}

	if listJSON {
		return printJSON(rows, icon)
	}

	fmt.Print(output.RenderInventoryTable(rows, icon))
	fmt.Println()
	fmt.Println(summarize(result, rows))
	return nil
}

// summarize renders the counts for the rows shown. When rows were filtered
// the full inventory size is mentioned too.
func summarize(result *scanner.Result, rows []pkgmgr.Package) string {
	view := &scanner.Result{Packages: rows}
	line := output.RenderInventorySummary(view.CountByKind(), view.TotalSizeMB())
	if len(rows) != len(result.Packages) {
		line += fmt.Sprintf(" (of %d)", len(result.Packages))
	}
	return line
}

// parseKinds validates --kind values.
func parseKinds(values []string) (map[pkgmgr.SourceKind]bool, error) {
	if len(values) == 0 {
		return nil, nil
	}

	valid := make(map[pkgmgr.SourceKind]bool, len(pkgmgr.Kinds))
	for _, k := range pkgmgr.Kinds {
		valid[k] = true
	}

	kinds := make(map[pkgmgr.SourceKind]bool, len(values))
	for _, v := range values {
		k := pkgmgr.SourceKind(strings.ToLower(strings.TrimSpace(v)))
		if !valid[k] {
			names := make([]string, len(pkgmgr.Kinds))
			for i, kind := range pkgmgr.Kinds {
				names[i] = string(kind)
			}
			return nil, fmt.Errorf("invalid --kind %q: must be one of: %s", v, strings.Join(names, ", "))
		}
		kinds[k] = true
	}
	return kinds, nil
}

func validateSort(by string) error {
	switch by {
	case "", "name", "size":
		return nil
	}
	return fmt.Errorf("invalid --sort value %q: must be one of: name, size", by)
}

// packageNames adapts rows to fuzzy.Source.
type packageNames []pkgmgr.Package

func (p packageNames) String(i int) string { return p[i].Name }
func (p packageNames) Len() int            { return len(p) }

// selectRows applies the kind filter, the fuzzy filter and the sort order.
// The input slice is not modified.
func selectRows(packages []pkgmgr.Package, filter string, kinds map[pkgmgr.SourceKind]bool, sortBy string) []pkgmgr.Package {
	rows := make([]pkgmgr.Package, 0, len(packages))
	for _, p := range packages {
		if len(kinds) == 0 || kinds[p.Kind] {
			rows = append(rows, p)
		}
	}

	if filter = strings.TrimSpace(filter); filter != "" {
		matches := fuzzy.FindFrom(filter, packageNames(rows))
		ranked := make([]pkgmgr.Package, len(matches))
		for i, m := range matches {
			ranked[i] = rows[m.Index]
		}
		rows = ranked
	}

	switch sortBy {
	case "name":
		sort.SliceStable(rows, func(i, j int) bool {
			return strings.ToLower(rows[i].Name) < strings.ToLower(rows[j].Name)
		})
	case "size":
		sort.SliceStable(rows, func(i, j int) bool {
			return rows[i].SizeMB > rows[j].SizeMB
		})
	}
	return rows
}

func printJSON(rows []pkgmgr.Package, icon output.IconFunc) error {
	out := make([]listRow, len(rows))
	for i, p := range rows {
		out[i] = listRow{
			Name:        p.Name,
			Version:     p.Version,
			SizeMB:      p.SizeMB,
			Kind:        string(p.Kind),
			Status:      string(p.Status),
			DesktopFile: p.DesktopFilePath,
			Exec:        p.ExecPath,
		}
		if icon != nil {
			out[i].Icon = icon(p.Name)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode inventory: %w", err)
	}
	return nil
}
