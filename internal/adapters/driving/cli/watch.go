package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	configfile "github.com/custodia-labs/casetrack/internal/adapters/driven/config/file"
	"github.com/custodia-labs/casetrack/internal/core/domain"
	"github.com/custodia-labs/casetrack/internal/core/ports/driving"
	"github.com/custodia-labs/casetrack/internal/core/services"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the polling loop and print change notifications",
	Long: `Performs the initial scan, then polls the change feeds on a short
interval, printing items as they are added, updated or removed.
Stops on Ctrl-C.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := ensureTracker(ctx); err != nil {
		return err
	}

	id := tracker.Subscribe(driving.Listener{
		OnItemAdded: func(item domain.WorkItem) {
			cmd.Printf("+ %s  %s (%s)\n", item.ID, item.Name, item.Status)
		},
		OnItemUpdated: func(item domain.WorkItem) {
			cmd.Printf("~ %s  %s (%s, editor %s)\n", item.ID, item.Name, item.Status, item.Editor)
		},
		OnItemRemoved: func(itemID string) {
			cmd.Printf("- %s\n", itemID)
		},
		OnMetricChanged: func(itemID string, unread int) {
			cmd.Printf("! %s  %d unread\n", itemID, unread)
		},
	})
	defer tracker.Unsubscribe(id)

	configChanged, err := configfile.Watch(ctx, cfgPath)
	if err != nil {
		cmd.PrintErrf("config watch unavailable: %v\n", err)
		configChanged = nil
	}
	go func() {
		for range configChanged {
			cmd.PrintErrln("config file changed; restart to apply")
		}
	}()

	poller := tracker.(*services.Tracker).Poller()
	cmd.Println("Watching; Ctrl-C to stop.")

	err = poller.Start(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
