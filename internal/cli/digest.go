package cli

import "github.com/spf13/cobra"

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Build and send the trailing-window signal digest once",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().DigestNow(cmd.Context())
	},
}
