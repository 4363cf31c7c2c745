package indicator

import (
	"errors"
	"time"

	"btc-signal-alerts/internal/market"
)

// ErrNoBars indicates an empty bar sequence, for which no snapshot exists.
var ErrNoBars = errors.New("indicator: no bars")

// ShortParams configure the short-timeframe transforms. Parameters travel
// with each call so instruments can run different settings concurrently.
type ShortParams struct {
	RSILength     int
	EMAFast       int
	EMASlow       int
	ATRLength     int
	SwingLookback int
}

// LongParams configure the long-timeframe context transforms.
type LongParams struct {
	RSILength int
	EMAFast   int
	EMASlow   int
}

// ShortSnapshot is the read-only view of the last short-timeframe bar and
// its predecessor, built fresh on every evaluation.
type ShortSnapshot struct {
	Time      time.Time
	Close     float64
	PrevClose float64
	RSI       Level
	EMAFast   Level
	EMASlow   Level
	ATR       Level
	VWAP      Level
	SwingHigh Level
	SwingLow  Level
}

// LongSnapshot is the read-only view of the most recently closed
// long-timeframe bar.
type LongSnapshot struct {
	Time    time.Time
	RSI     Level
	EMAFast Level
	EMASlow Level
}

// NewShortSnapshot derives the short-timeframe snapshot from a bar sequence.
// With a single bar the previous close equals the last close, so tick
// confirmation cannot fire.
func NewShortSnapshot(bars []market.Bar, p ShortParams) (ShortSnapshot, error) {
	if len(bars) == 0 {
		return ShortSnapshot{}, ErrNoBars
	}

	closes := closeSeries(bars)
	last := len(bars) - 1

	prevClose := closes[last]
	if len(bars) > 1 {
		prevClose = closes[last-1]
	}

	return ShortSnapshot{
		Time:      bars[last].Time,
		Close:     closes[last],
		PrevClose: prevClose,
		RSI:       RSI(closes, p.RSILength)[last],
		EMAFast:   EMA(closes, p.EMAFast)[last],
		EMASlow:   EMA(closes, p.EMASlow)[last],
		ATR:       ATR(bars, p.ATRLength)[last],
		VWAP:      VWAP(bars)[last],
		SwingHigh: SwingHigh(bars, p.SwingLookback)[last],
		SwingLow:  SwingLow(bars, p.SwingLookback)[last],
	}, nil
}

// NewLongSnapshot derives the long-timeframe context snapshot.
func NewLongSnapshot(bars []market.Bar, p LongParams) (LongSnapshot, error) {
	if len(bars) == 0 {
		return LongSnapshot{}, ErrNoBars
	}

	closes := closeSeries(bars)
	last := len(bars) - 1

	return LongSnapshot{
		Time:    bars[last].Time,
		RSI:     RSI(closes, p.RSILength)[last],
		EMAFast: EMA(closes, p.EMAFast)[last],
		EMASlow: EMA(closes, p.EMASlow)[last],
	}, nil
}

func closeSeries(bars []market.Bar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
