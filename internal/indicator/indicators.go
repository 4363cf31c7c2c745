// Package indicator holds stateless transforms from bar sequences to derived
// series: RSI, EMA, ATR, session VWAP, and rolling swing extrema. Every
// function is pure and deterministic; positions whose lookback is not yet
// populated are undefined rather than zero.
package indicator

import (
	"math"
	"time"

	"btc-signal-alerts/internal/market"
)

// RSI computes the Relative Strength Index over closes. Average gain and
// loss are simple rolling means over length consecutive close-to-close
// deltas. Positions before the window fills are undefined, as is any
// position whose average loss is exactly zero: a lossless window would
// otherwise saturate misleadingly at 100.
func RSI(closes []float64, length int) []Level {
	out := undefinedSeries(len(closes))
	if length <= 0 {
		return out
	}
	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		gains[i] = math.Max(delta, 0)
		losses[i] = math.Max(-delta, 0)
	}

	// The first delta exists at index 1, so the earliest full window of
	// length deltas ends at index length.
	for i := length; i < len(closes); i++ {
		var gainSum, lossSum float64
		for j := i - length + 1; j <= i; j++ {
			gainSum += gains[j]
			lossSum += losses[j]
		}
		avgGain := gainSum / float64(length)
		avgLoss := lossSum / float64(length)
		if avgLoss == 0 {
			continue
		}
		rs := avgGain / avgLoss
		out[i] = Level(100 - 100/(1+rs))
	}
	return out
}

// EMA computes the exponential moving average with alpha = 2/(span+1),
// seeded with the first value. Defined from the first position.
func EMA(values []float64, span int) []Level {
	out := undefinedSeries(len(values))
	if span <= 0 || len(values) == 0 {
		return out
	}
	alpha := 2.0 / (float64(span) + 1)
	ema := values[0]
	out[0] = Level(ema)
	for i := 1; i < len(values); i++ {
		ema = alpha*values[i] + (1-alpha)*ema
		out[i] = Level(ema)
	}
	return out
}

// ATR computes the Average True Range: the EMA (span = length) of the true
// range series. The first bar has no previous close, so its true range is
// just high minus low.
func ATR(bars []market.Bar, length int) []Level {
	trs := make([]float64, len(bars))
	for i, b := range bars {
		hl := b.High - b.Low
		if i == 0 {
			trs[i] = hl
			continue
		}
		prevClose := bars[i-1].Close
		trs[i] = math.Max(hl, math.Max(math.Abs(b.High-prevClose), math.Abs(b.Low-prevClose)))
	}
	return EMA(trs, length)
}

// VWAP computes the volume-weighted average price, session-bounded to the
// UTC calendar day: accumulators reset at the first bar of each day.
// Undefined while the session's cumulative volume is zero.
func VWAP(bars []market.Bar) []Level {
	out := undefinedSeries(len(bars))
	var day time.Time
	var pv, vol float64
	for i, b := range bars {
		d := b.Time.UTC().Truncate(24 * time.Hour)
		if i == 0 || !d.Equal(day) {
			day = d
			pv, vol = 0, 0
		}
		tp := (b.High + b.Low + b.Close) / 3
		pv += tp * b.Volume
		vol += b.Volume
		if vol != 0 {
			out[i] = Level(pv / vol)
		}
	}
	return out
}

// SwingHigh computes the rolling maximum of highs over lookback bars,
// undefined until the window is fully populated.
func SwingHigh(bars []market.Bar, lookback int) []Level {
	return rollingExtreme(bars, lookback, func(b market.Bar) float64 { return b.High }, math.Max)
}

// SwingLow computes the rolling minimum of lows over lookback bars,
// undefined until the window is fully populated.
func SwingLow(bars []market.Bar, lookback int) []Level {
	return rollingExtreme(bars, lookback, func(b market.Bar) float64 { return b.Low }, math.Min)
}

func rollingExtreme(bars []market.Bar, lookback int, field func(market.Bar) float64, pick func(a, b float64) float64) []Level {
	out := undefinedSeries(len(bars))
	if lookback <= 0 {
		return out
	}
	for i := lookback - 1; i < len(bars); i++ {
		extreme := field(bars[i-lookback+1])
		for j := i - lookback + 2; j <= i; j++ {
			extreme = pick(extreme, field(bars[j]))
		}
		out[i] = Level(extreme)
	}
	return out
}

func undefinedSeries(n int) []Level {
	out := make([]Level, n)
	for i := range out {
		out[i] = Undefined()
	}
	return out
}
