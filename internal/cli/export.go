package cli

import (
	"github.com/spf13/cobra"

	"btc-signal-alerts/internal/app"
)

var (
	exportFrom      string
	exportTo        string
	exportPNG       string
	exportCSV       string
	exportMaxPoints int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export historical signal records to CSV and/or a PNG chart",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ExportOptions{
			PNGPath:   exportPNG,
			CSVPath:   exportCSV,
			MaxPoints: exportMaxPoints,
		}

		if exportFrom != "" {
			from, err := parseTimeFlag("from", exportFrom)
			if err != nil {
				return err
			}
			opts.From = &from
		}
		if exportTo != "" {
			to, err := parseTimeFlag("to", exportTo)
			if err != nil {
				return err
			}
			opts.To = &to
		}

		return getApp().Export(cmd.Context(), opts)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "Start of the export range, RFC3339")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "End of the export range, RFC3339 (default: now)")
	exportCmd.Flags().StringVar(&exportPNG, "png", "", "Write a PNG chart to this path")
	exportCmd.Flags().StringVar(&exportCSV, "csv", "", "Write a CSV file to this path")
	exportCmd.Flags().IntVar(&exportMaxPoints, "max-points", 0, "Downsample to at most this many points (default: config export.max_data_points)")
}
