package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/casetrack/internal/core/domain"
	"github.com/custodia-labs/casetrack/internal/core/ports/driving"
)

var flagSetForce bool

var setCmd = &cobra.Command{
	Use:   "set <item-id> <field>=<value> [<field>=<value>...]",
	Short: "Change work item properties",
	Long: `Applies property changes optimistically and reconciles them with the
remote store. Recognised fields: status, priority, category,
reply_deadline, resolve_deadline.

An item held in progress by another editor is not overridden unless
--force is given.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSet,
}

func init() {
	setCmd.Flags().BoolVar(&flagSetForce, "force", false, "override items held by another editor")
	rootCmd.AddCommand(setCmd)
}

// parseFieldArgs turns field=value arguments into a field map.
func parseFieldArgs(args []string) (map[string]string, error) {
	fields := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid field change %q, expected field=value", arg)
		}
		fields[key] = value
	}
	return fields, nil
}

func runSet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := ensureTracker(ctx); err != nil {
		return err
	}

	itemID := args[0]
	fields, err := parseFieldArgs(args[1:])
	if err != nil {
		return err
	}

	// The model must know the item before a mutation can be guarded.
	if _, err := tracker.Initialize(ctx, nil); err != nil {
		return fmt.Errorf("populate inventory: %w", err)
	}

	done := make(chan driving.MutationOutcome, 1)
	opts := driving.MutateOptions{
		OnOutcome: func(outcome driving.MutationOutcome) { done <- outcome },
	}
	if flagSetForce {
		opts.ConfirmOverride = func(domain.WorkItem) bool { return true }
	}

	if _, err := tracker.MutateItem(ctx, itemID, fields, opts); err != nil {
		return err
	}

	outcome := <-done
	switch outcome.Result {
	case driving.MutationAccepted:
		cmd.Printf("Updated %s.\n", itemID)
	case driving.MutationForceAccepted:
		cmd.Printf("Updated %s (overwrote a concurrent edit).\n", itemID)
	case driving.MutationConfirmationRequired:
		editor := ""
		if outcome.Current != nil {
			editor = outcome.Current.Editor
		}
		return fmt.Errorf("item %s is in progress under %q; rerun with --force to override", itemID, editor)
	default:
		return fmt.Errorf("update failed and was rolled back: %w", outcome.Err)
	}
	return nil
}
