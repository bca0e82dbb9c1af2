package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var flagFilesRefresh bool

var filesCmd = &cobra.Command{
	Use:   "files <item-id>",
	Short: "List a work item's evidence documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runFiles,
}

func init() {
	filesCmd.Flags().BoolVar(&flagFilesRefresh, "refresh", false, "bypass the evidence cache")
	rootCmd.AddCommand(filesCmd)
}

func runFiles(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := ensureTracker(ctx); err != nil {
		return err
	}

	docs, err := tracker.GetItemFiles(ctx, args[0], flagFilesRefresh)
	if err != nil {
		return fmt.Errorf("list files for %s: %w", args[0], err)
	}

	for i := range docs {
		marker := " "
		if docs[i].Unread() {
			marker = "*"
		}
		failure := ""
		if docs[i].FailureFlag {
			failure = "  [failure]"
		}
		cmd.Printf("%s %-10s %s%s\n", marker, docs[i].ReviewStatus, docs[i].Name, failure)
	}
	cmd.Printf("%d documents\n", len(docs))
	return nil
}
