package digest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"btc-signal-alerts/internal/indicator"
	"btc-signal-alerts/internal/signal"
)

var digestNow = time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC)

func actionableRecord(ts time.Time, kind signal.Kind, price float64) signal.Record {
	target := price + 100
	stop := price - 50
	return signal.Record{
		Time:      ts,
		Kind:      kind,
		Price:     price,
		Target:    &target,
		Stop:      &stop,
		RSIShort:  indicator.Undefined(),
		LongTrend: signal.TrendBull,
	}
}

func TestSummarizeNoHistory(t *testing.T) {
	d, ok := Summarize(nil, digestNow, time.Hour)
	require.False(t, ok)
	require.Nil(t, d)
}

func TestSummarizeEmptyWindow(t *testing.T) {
	history := []signal.Record{
		actionableRecord(digestNow.Add(-3*time.Hour), signal.Buy, 100),
	}

	d, ok := Summarize(history, digestNow, time.Hour)
	require.True(t, ok)
	require.True(t, d.Empty())
	require.Equal(t, "Signal digest: no trades", d.Subject())

	body := d.Body()
	require.Contains(t, body, "No BUY/SELL signals in the window.")
	require.Contains(t, body, "Window: 2025-06-01 14:00:00 UTC -> 2025-06-01 15:00:00 UTC")
}

func TestSummarizeFiltersAndSorts(t *testing.T) {
	history := []signal.Record{
		actionableRecord(digestNow.Add(-10*time.Minute), signal.Sell, 200),
		{Time: digestNow.Add(-5 * time.Minute), Kind: signal.NoSignal, Price: 150},
		actionableRecord(digestNow.Add(-40*time.Minute), signal.Buy, 100),
		actionableRecord(digestNow.Add(-2*time.Hour), signal.Buy, 90),
	}

	d, ok := Summarize(history, digestNow, time.Hour)
	require.True(t, ok)
	require.Len(t, d.Entries, 2)
	require.Equal(t, signal.Buy, d.Entries[0].Kind)
	require.Equal(t, signal.Sell, d.Entries[1].Kind)
	require.True(t, d.Entries[0].Time.Before(d.Entries[1].Time))
	require.Equal(t, "Signal digest: 2 signal(s)", d.Subject())
}

func TestDigestBodyLines(t *testing.T) {
	withRSI := actionableRecord(time.Date(2025, 6, 1, 14, 40, 0, 0, time.UTC), signal.Sell, 118000)
	withRSI.RSIShort = indicator.LevelOf(72.6)
	history := []signal.Record{
		actionableRecord(time.Date(2025, 6, 1, 14, 35, 0, 0, time.UTC), signal.Buy, 117512.34),
		withRSI,
	}

	d, ok := Summarize(history, digestNow, time.Hour)
	require.True(t, ok)

	body := d.Body()
	require.Contains(t, body, "Total signals: 2")
	require.Contains(t, body, "- 14:35:00 UTC | BUY @ $117,512.34 -> target $117,612.34 | stop $117,462.34 | long bull | RSI n/a")
	require.Contains(t, body, "- 14:40:00 UTC | SELL @ $118,000.00 -> target $118,100.00 | stop $117,950.00 | long bull | RSI 72.6")
	require.Contains(t, body, "Window: 2025-06-01 14:00:00 UTC -> 2025-06-01 15:00:00 UTC")
}

func TestSummarizeIdempotent(t *testing.T) {
	history := []signal.Record{
		actionableRecord(digestNow.Add(-10*time.Minute), signal.Buy, 100),
		actionableRecord(digestNow.Add(-20*time.Minute), signal.Sell, 110),
	}

	first, ok := Summarize(history, digestNow, time.Hour)
	require.True(t, ok)
	second, ok := Summarize(history, digestNow, time.Hour)
	require.True(t, ok)

	require.Equal(t, first.Body(), second.Body())
	require.Equal(t, first.Subject(), second.Subject())
}

func TestSummarizeDefaultWindow(t *testing.T) {
	history := []signal.Record{
		actionableRecord(digestNow.Add(-30*time.Minute), signal.Buy, 100),
		actionableRecord(digestNow.Add(-90*time.Minute), signal.Buy, 100),
	}

	d, ok := Summarize(history, digestNow, 0)
	require.True(t, ok)
	require.Len(t, d.Entries, 1)
	require.Equal(t, digestNow.Add(-DefaultWindow), d.From)
}
