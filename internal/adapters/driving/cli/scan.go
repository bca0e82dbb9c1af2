package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/casetrack/internal/core/domain"
)

var flagScanOpen bool

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a full inventory scan and print the work items",
	RunE:  runScan,
}

func init() {
	scanCmd.Flags().BoolVar(&flagScanOpen, "open", false, "only show items in the to-do state")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if err := ensureTracker(ctx); err != nil {
		return err
	}

	items, err := tracker.Initialize(ctx, func(done, total int, eta float64) {
		if total == 0 {
			return
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "\rScanning cycle folders: %d/%d (ETA %.0fs)", done, total, eta)
		if done == total {
			fmt.Fprintln(cmd.ErrOrStderr())
		}
	})
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if flagScanOpen {
		open := items[:0]
		for i := range items {
			if items[i].Open() {
				open = append(open, items[i])
			}
		}
		items = open
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Cycle != items[j].Cycle {
			return items[i].Cycle > items[j].Cycle
		}
		return items[i].Name < items[j].Name
	})

	for i := range items {
		printItem(cmd, &items[i])
	}
	cmd.Printf("%d items\n", len(items))
	return nil
}

func printItem(cmd *cobra.Command, item *domain.WorkItem) {
	unread := ""
	if item.UnreadEvidence > 0 {
		unread = fmt.Sprintf("  [%d unread]", item.UnreadEvidence)
	}
	failure := ""
	if item.HasFailureFlag {
		failure = "  [failure]"
	}
	cmd.Printf("%s  %s/%s/%s  %-12s %-8s %s%s%s\n",
		item.ID, item.Root, item.Cycle, item.Partition,
		item.Status, item.Priority, item.Name, unread, failure)
}
