package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/linprune/internal/icons"
)

var iconCmd = &cobra.Command{
	Use:   "icon NAME...",
	Short: "Resolve the icon for inventory names",
	Long: `Resolve an icon reference for each name the same way list --icons does:
desktop-entry icon keys first, then the icon theme, then well-known icon
directories. Names with no icon resolve to the generic package icon.

Names do not have to be in the inventory; any application name can be
looked up.`,
	Example: `  linprune icon firefox vlc "Visual Studio Code"`,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runIcon,
}

func init() {
	RootCmd.AddCommand(iconCmd)
}

func runIcon(cmd *cobra.Command, args []string) error {
	result, _, err := scanInventory(commandContext(cmd), true)
	if err != nil {
		return err
	}

	width := 0
	for _, name := range args {
		width = max(width, len(name))
	}

	misses := 0
	for _, name := range args {
		ref := result.Icons.Resolve(name)
		if ref == icons.Generic {
			misses++
		}
		fmt.Printf("%-*s  %s\n", width, name, ref)
	}

	if misses > 0 {
		fmt.Printf("\n%d of %d names fell back to %s\n", misses, len(args), icons.Generic)
	}
	return nil
}
