package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"btc-signal-alerts/internal/signal"
)

// Show prints recent signal records.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show records")
	}
	if closeStore != nil {
		defer closeStore()
	}

	records, err := store.ListRecentRecords(ctx, opts.Limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(os.Stdout, "no signal records found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time (UTC)\tKind\tPrice\tTarget\tStop\tTrend\tRSI\tReason")

	for _, rec := range records {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			rec.Time.UTC().Format(time.RFC3339),
			rec.Kind,
			signal.FormatPrice(rec.Price),
			formatPtr(rec.Target),
			formatPtr(rec.Stop),
			rec.LongTrend,
			signal.FormatLevel(rec.RSIShort, 2),
			sanitizeInline(rec.Reason),
		)
	}

	writer.Flush()
	return nil
}

func formatPtr(v *float64) string {
	if v == nil {
		return "-"
	}
	return signal.FormatPrice(*v)
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	return cleaned
}
