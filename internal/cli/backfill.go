package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"btc-signal-alerts/internal/app"
)

var (
	backfillFrom   string
	backfillTo     string
	backfillDryRun bool
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Re-evaluate historical slots to fill gaps in the signal log",
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := parseTimeFlag("from", backfillFrom)
		if err != nil {
			return err
		}

		to := time.Now().UTC()
		if backfillTo != "" {
			to, err = parseTimeFlag("to", backfillTo)
			if err != nil {
				return err
			}
		}

		return getApp().Backfill(cmd.Context(), app.BackfillOptions{
			From:   from,
			To:     to,
			DryRun: backfillDryRun,
		})
	},
}

func init() {
	backfillCmd.Flags().StringVar(&backfillFrom, "from", "", "Start of the backfill range, RFC3339 (required)")
	backfillCmd.Flags().StringVar(&backfillTo, "to", "", "End of the backfill range, RFC3339 (default: now)")
	backfillCmd.Flags().BoolVar(&backfillDryRun, "dry-run", false, "Evaluate slots without persisting records")
	_ = backfillCmd.MarkFlagRequired("from")
}

func parseTimeFlag(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("--%s is required", name)
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s value %q: expected RFC3339 timestamp", name, value)
	}
	return t.UTC(), nil
}
