package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/linprune/internal/output"
)

var (
	historyLimit int

	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "Show past removals",
		Long: `Show the removal history recorded by 'linprune remove', newest first.

Each attempt is recorded, including failed ones, with the command that ran or
the files that were deleted.`,
		Example: `  linprune history
  linprune history --limit 5`,
		Args: cobra.NoArgs,
		RunE: runHistory,
	}
)

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of removals to show (0 for all)")

	RootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	if historyLimit < 0 {
		return fmt.Errorf("invalid --limit %d: must be 0 or greater", historyLimit)
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	removals, err := st.ListRemovals(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list removals: %w", err)
	}

	fmt.Print(output.RenderRemovalTable(removals))

	total, succeeded, err := st.CountRemovals()
	if err != nil {
		return fmt.Errorf("failed to count removals: %w", err)
	}
	if total > 0 {
		fmt.Printf("\n%d removals recorded, %d succeeded, %d failed\n", total, succeeded, total-succeeded)
	}
	return nil
}
