package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/casetrack/internal/core/domain"
	"github.com/custodia-labs/casetrack/internal/message"
)

var showCmd = &cobra.Command{
	Use:   "show <file-id>",
	Short: "Print an evidence document",
	Long: `Downloads an evidence document and prints it. Message files (.eml)
are rendered as envelope headers followed by the plain-text body;
other files are printed raw.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := ensureTracker(ctx); err != nil {
		return err
	}

	fileID := args[0]
	node, err := remote.GetItem(ctx, fileID)
	if err != nil {
		return fmt.Errorf("look up %s: %w", fileID, err)
	}
	if node.Folder {
		return fmt.Errorf("%s is a folder, not a document", fileID)
	}

	data, err := remote.DownloadContent(ctx, fileID)
	if err != nil {
		return fmt.Errorf("download %s: %w", fileID, err)
	}

	if !domain.IsMessageFile(node.Name) {
		cmd.Print(string(data))
		return nil
	}

	msg, err := message.Parse(data)
	if err != nil {
		// Unparseable message files fall back to the raw bytes.
		cmd.Print(string(data))
		return nil
	}
	cmd.Println(msg.Render())
	return nil
}
