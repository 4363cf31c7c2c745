// Package digest aggregates previously emitted signal records over a
// trailing time window into a human-readable summary. Aggregation is
// read-only and idempotent: the same history and instant always render the
// same text.
package digest

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"btc-signal-alerts/internal/signal"
)

// DefaultWindow is the trailing window summarised when none is configured.
const DefaultWindow = time.Hour

// Digest is an ephemeral summary of the BUY/SELL records whose timestamp
// falls inside [From, To]. It is rendered to text and discarded, never
// persisted.
type Digest struct {
	From    time.Time
	To      time.Time
	Entries []signal.Record
}

// Summarize filters the historical record sequence to the trailing window
// ending at now and keeps only actionable kinds, in ascending time order.
// It returns false when there is no history at all: with nothing ever
// recorded there is nothing worth sending.
func Summarize(records []signal.Record, now time.Time, window time.Duration) (*Digest, bool) {
	if len(records) == 0 {
		return nil, false
	}
	if window <= 0 {
		window = DefaultWindow
	}

	from := now.Add(-window)
	entries := make([]signal.Record, 0, len(records))
	for _, rec := range records {
		if rec.Time.Before(from) {
			continue
		}
		if !rec.Kind.Actionable() {
			continue
		}
		entries = append(entries, rec)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Time.Before(entries[j].Time)
	})

	return &Digest{From: from, To: now, Entries: entries}, true
}

// Empty reports whether the window contained no actionable records.
func (d *Digest) Empty() bool {
	return len(d.Entries) == 0
}

// Subject renders the notification subject line.
func (d *Digest) Subject() string {
	if d.Empty() {
		return "Signal digest: no trades"
	}
	return fmt.Sprintf("Signal digest: %d signal(s)", len(d.Entries))
}

// Body renders the digest text: a count header and one chronological line
// per record, or a no-signals notice, always naming the window bounds.
func (d *Digest) Body() string {
	var b strings.Builder

	if d.Empty() {
		b.WriteString("No BUY/SELL signals in the window.\n")
		d.writeWindow(&b)
		return b.String()
	}

	fmt.Fprintf(&b, "Total signals: %d\n\n", len(d.Entries))
	for _, rec := range d.Entries {
		fmt.Fprintf(&b, "- %s UTC | %s @ $%s -> target $%s | stop $%s | long %s | RSI %s\n",
			rec.Time.UTC().Format("15:04:05"),
			rec.Kind,
			signal.FormatPrice(rec.Price),
			formatOptional(rec.Target),
			formatOptional(rec.Stop),
			rec.LongTrend,
			signal.FormatLevel(rec.RSIShort, 1),
		)
	}
	d.writeWindow(&b)
	return b.String()
}

func (d *Digest) writeWindow(b *strings.Builder) {
	fmt.Fprintf(b, "\nWindow: %s -> %s\n", signal.FormatTime(d.From), signal.FormatTime(d.To))
}

func formatOptional(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return signal.FormatPrice(*v)
}
