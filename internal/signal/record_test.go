package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"btc-signal-alerts/internal/indicator"
)

func TestFormatPrice(t *testing.T) {
	require.Equal(t, "117,512.34", FormatPrice(117512.34))
	require.Equal(t, "1,000,000.00", FormatPrice(1e6))
	require.Equal(t, "999.99", FormatPrice(999.99))
	require.Equal(t, "0.00", FormatPrice(0))
	require.Equal(t, "-1,234.50", FormatPrice(-1234.5))
}

func TestFormatLevel(t *testing.T) {
	require.Equal(t, "n/a", FormatLevel(indicator.Undefined(), 2))
	require.Equal(t, "28.40", FormatLevel(indicator.LevelOf(28.4), 2))
	require.Equal(t, "28.4", FormatLevel(indicator.LevelOf(28.4), 1))
}

func TestFormatTime(t *testing.T) {
	ts := time.Date(2025, 6, 1, 14, 30, 5, 0, time.UTC)
	require.Equal(t, "2025-06-01 14:30:05 UTC", FormatTime(ts))
}

func TestKindActionable(t *testing.T) {
	require.True(t, Buy.Actionable())
	require.True(t, Sell.Actionable())
	require.False(t, NoSignal.Actionable())
}

func TestRecordString(t *testing.T) {
	rec := Record{
		Time:   time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC),
		Kind:   Buy,
		Price:  117512.34,
		Reason: "RSI<30 + long uptrend + tick-up + near VWAP",
	}
	require.Equal(t, "2025-06-01 14:30:00 UTC BUY @ 117,512.34 (RSI<30 + long uptrend + tick-up + near VWAP)", rec.String())
}
