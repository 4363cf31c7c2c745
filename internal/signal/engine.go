// Package signal contains the multi-timeframe confluence engine: it turns
// indicator snapshots of a short and a long timeframe into a BUY, SELL, or
// NO_SIGNAL record with volatility-scaled target and stop levels.
package signal

import (
	"fmt"
	"math"
	"time"

	"btc-signal-alerts/internal/indicator"
	"btc-signal-alerts/internal/market"
)

// RSI thresholds are part of the rule definition, not tunables: oversold
// entry below 30, overbought exit above 70, midline 50 for opposing-timeframe
// momentum exhaustion.
const (
	rsiOversold   = 30
	rsiOverbought = 70
	rsiMidline    = 50
)

// Params carry every tunable of one evaluation. They are passed per call so
// concurrent evaluations of different instruments can differ.
type Params struct {
	Short indicator.ShortParams
	Long  indicator.LongParams

	// TargetATR and StopATR scale the ATR into target and stop distances.
	TargetATR float64
	StopATR   float64
	// VWAPTolerance widens the VWAP entry band by a multiple of ATR.
	VWAPTolerance float64
}

// DefaultParams mirror the 5m/1h day-trade setup: RSI 14, EMA 9/21, ATR 14,
// a 4-hour swing window at 5-minute granularity, and 20/50 hourly context.
func DefaultParams() Params {
	return Params{
		Short: indicator.ShortParams{
			RSILength:     14,
			EMAFast:       9,
			EMASlow:       21,
			ATRLength:     14,
			SwingLookback: 48,
		},
		Long: indicator.LongParams{
			RSILength: 14,
			EMAFast:   20,
			EMASlow:   50,
		},
		TargetATR:     1.5,
		StopATR:       1.0,
		VWAPTolerance: 0.2,
	}
}

// Evaluate runs the confluence rule set over the two bar sequences and
// returns the signal record stamped with the evaluation instant. It is a
// pure function: identical inputs yield a field-for-field identical record.
//
// The long-timeframe view is simply the last row of its sequence, not a bar
// time-matched to the short timeframe, so it may lag by up to one long
// interval. That is intentional and must not be "fixed" silently: it would
// change signal timing.
func Evaluate(shortBars, longBars []market.Bar, p Params, at time.Time) (Record, error) {
	if err := market.ValidateSeries(shortBars); err != nil {
		return Record{}, fmt.Errorf("short timeframe: %w", err)
	}
	if err := market.ValidateSeries(longBars); err != nil {
		return Record{}, fmt.Errorf("long timeframe: %w", err)
	}

	short, err := indicator.NewShortSnapshot(shortBars, p.Short)
	if err != nil {
		return Record{}, fmt.Errorf("short snapshot: %w", err)
	}
	long, err := indicator.NewLongSnapshot(longBars, p.Long)
	if err != nil {
		return Record{}, fmt.Errorf("long snapshot: %w", err)
	}

	price := short.Close
	trend := classifyTrend(long)

	rec := Record{
		Time:      at.UTC(),
		Kind:      NoSignal,
		Price:     price,
		RSIShort:  short.RSI,
		EMAFast:   short.EMAFast,
		EMASlow:   short.EMASlow,
		VWAP:      short.VWAP,
		ATR:       short.ATR,
		LongTrend: trend,
		RSILong:   long.RSI,
	}

	longBullish := trend == TrendBull
	longBearish := trend == TrendBear
	shortBullish := short.EMAFast.AtLeast(short.EMASlow)
	shortBearish := short.EMAFast.AtMost(short.EMASlow)
	tickUp := price > short.PrevClose
	tickDown := price < short.PrevClose

	// Entry must sit within an ATR-scaled band around VWAP; undefined VWAP
	// or ATR makes the band unsatisfiable.
	band := short.ATR.Scale(p.VWAPTolerance)
	vwapBandBuy := indicator.LevelOf(price).AtLeast(short.VWAP.Sub(band))
	vwapBandSell := indicator.LevelOf(price).AtMost(short.VWAP.Add(band))

	// BUY before SELL, first match wins. Each branch additionally requires
	// its swing extremum to be defined: the target formula consumes it, and
	// an undefined input routes to NO_SIGNAL rather than a NaN target.
	switch {
	case short.RSI.Below(rsiOversold) &&
		(longBullish || long.RSI.Above(rsiMidline)) &&
		shortBullish && vwapBandBuy && tickUp &&
		short.SwingHigh.Defined():
		target := math.Max(short.SwingHigh.Float(), price+p.TargetATR*short.ATR.Float())
		stop := price - p.StopATR*short.ATR.Float()
		rec.Kind = Buy
		rec.Target, rec.Stop = &target, &stop
		rec.Reason = fmt.Sprintf("RSI<%d + long uptrend + tick-up + near VWAP", rsiOversold)

	case short.RSI.Above(rsiOverbought) &&
		(longBearish || long.RSI.Below(rsiMidline)) &&
		shortBearish && vwapBandSell && tickDown &&
		short.SwingLow.Defined():
		target := math.Min(short.SwingLow.Float(), price-p.TargetATR*short.ATR.Float())
		stop := price + p.StopATR*short.ATR.Float()
		rec.Kind = Sell
		rec.Target, rec.Stop = &target, &stop
		rec.Reason = fmt.Sprintf("RSI>%d + long downtrend + tick-down + near VWAP", rsiOverbought)

	default:
		rec.Reason = fmt.Sprintf("no confluence: long trend %s, short RSI %s", trend, FormatLevel(short.RSI, 2))
	}

	return rec, nil
}

func classifyTrend(long indicator.LongSnapshot) Trend {
	switch {
	case long.EMAFast.GreaterThan(long.EMASlow):
		return TrendBull
	case long.EMAFast.LessThan(long.EMASlow):
		return TrendBear
	default:
		return TrendFlat
	}
}
