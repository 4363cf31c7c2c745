package cli

import (
	"github.com/spf13/cobra"

	"btc-signal-alerts/internal/app"
)

var scanNotify bool

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Evaluate the latest bars once and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().ScanOnce(cmd.Context(), app.ScanOptions{Notify: scanNotify})
	},
}

func init() {
	scanCmd.Flags().BoolVar(&scanNotify, "notify", false, "Dispatch alerts for actionable signals")
}
