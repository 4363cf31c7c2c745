package alerting

import (
	"fmt"
	"strings"

	"btc-signal-alerts/internal/signal"
)

// RenderSignal formats the immediate alert for an actionable record. The
// layout mirrors the digest lines: headline levels first, indicator context
// after, reason last.
func RenderSignal(rec signal.Record, symbol, shortTF, longTF string) Message {
	subject := fmt.Sprintf("%s %s alert: %s", symbol, shortTF, rec.Kind)

	var b strings.Builder
	fmt.Fprintf(&b, "%s day-trade alert: %s\n\n", symbol, rec.Kind)
	fmt.Fprintf(&b, "Signal time: %s\n", signal.FormatTime(rec.Time))
	fmt.Fprintf(&b, "Timeframe: %s (with %s context)\n\n", shortTF, longTF)

	fmt.Fprintf(&b, "Price: $%s\n", signal.FormatPrice(rec.Price))
	fmt.Fprintf(&b, "RSI(%s): %s\n", shortTF, signal.FormatLevel(rec.RSIShort, 2))
	fmt.Fprintf(&b, "EMA fast: $%s\n", signal.FormatLevel(rec.EMAFast, 2))
	fmt.Fprintf(&b, "EMA slow: $%s\n", signal.FormatLevel(rec.EMASlow, 2))
	fmt.Fprintf(&b, "VWAP: $%s\n", signal.FormatLevel(rec.VWAP, 2))
	fmt.Fprintf(&b, "ATR(%s): $%s\n\n", shortTF, signal.FormatLevel(rec.ATR, 2))

	fmt.Fprintf(&b, "%s trend: %s | RSI(%s): %s\n", longTF, rec.LongTrend, longTF, signal.FormatLevel(rec.RSILong, 1))
	fmt.Fprintf(&b, "Reason: %s\n", rec.Reason)

	if rec.Target != nil && rec.Stop != nil {
		fmt.Fprintf(&b, "\nTarget: $%s\n", signal.FormatPrice(*rec.Target))
		fmt.Fprintf(&b, "Stop:   $%s\n", signal.FormatPrice(*rec.Stop))
	}

	return Message{Subject: subject, Body: b.String()}
}
