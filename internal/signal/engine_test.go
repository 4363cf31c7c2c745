package signal

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"btc-signal-alerts/internal/indicator"
	"btc-signal-alerts/internal/market"
)

var evalAt = time.Date(2025, 6, 1, 5, 0, 0, 0, time.UTC)

func barsFromCloses(closes []float64, start time.Time, step time.Duration) []market.Bar {
	bars := make([]market.Bar, len(closes))
	prev := closes[0]
	for i, c := range closes {
		open := prev
		bars[i] = market.Bar{
			Time:   start.Add(time.Duration(i) * step),
			Open:   open,
			High:   math.Max(open, c) + 0.5,
			Low:    math.Min(open, c) - 0.5,
			Close:  c,
			Volume: 10,
		}
		prev = c
	}
	return bars
}

// buyShortBars builds 60 five-minute bars within one UTC session: a long
// ramp up, a shallow drift down that drains the RSI window, then a final
// up-tick. The last RSI(14) window holds thirteen 0.1 losses and one 0.05
// gain, far below the oversold threshold, while the fast EMA still sits
// above the slow one from the ramp.
func buyShortBars() []market.Bar {
	closes := make([]float64, 60)
	for i := 0; i <= 45; i++ {
		closes[i] = 100 + 2*float64(i)
	}
	for i := 46; i <= 58; i++ {
		closes[i] = closes[i-1] - 0.1
	}
	closes[59] = closes[58] + 0.05
	return barsFromCloses(closes, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), 5*time.Minute)
}

// sellShortBars mirrors buyShortBars: ramp down, drift up, final down-tick.
func sellShortBars() []market.Bar {
	closes := make([]float64, 60)
	for i := 0; i <= 45; i++ {
		closes[i] = 300 - 2*float64(i)
	}
	for i := 46; i <= 58; i++ {
		closes[i] = closes[i-1] + 0.1
	}
	closes[59] = closes[58] - 0.05
	return barsFromCloses(closes, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), 5*time.Minute)
}

func risingLongBars() []market.Bar {
	// rising with a dip on every other bar so the long RSI window always
	// holds losses and stays defined
	closes := make([]float64, 50)
	for i := range closes {
		closes[i] = 1000 + 5*float64(i)
		if i%2 == 1 {
			closes[i] -= 8
		}
	}
	return barsFromCloses(closes, time.Date(2025, 5, 30, 0, 0, 0, 0, time.UTC), time.Hour)
}

func fallingLongBars() []market.Bar {
	closes := make([]float64, 50)
	for i := range closes {
		closes[i] = 2000 - 5*float64(i)
	}
	return barsFromCloses(closes, time.Date(2025, 5, 30, 0, 0, 0, 0, time.UTC), time.Hour)
}

func flatLongBars() []market.Bar {
	closes := make([]float64, 50)
	for i := range closes {
		closes[i] = 1500
	}
	return barsFromCloses(closes, time.Date(2025, 5, 30, 0, 0, 0, 0, time.UTC), time.Hour)
}

func TestEvaluateBuy(t *testing.T) {
	shortBars := buyShortBars()
	p := DefaultParams()

	// the fixture must actually satisfy each leg of the rule
	snap, err := indicator.NewShortSnapshot(shortBars, p.Short)
	require.NoError(t, err)
	require.True(t, snap.RSI.Below(30), "fixture RSI %v not oversold", snap.RSI)
	require.True(t, snap.EMAFast.AtLeast(snap.EMASlow))
	require.Greater(t, snap.Close, snap.PrevClose)
	require.True(t, snap.SwingHigh.Defined())
	require.True(t, snap.ATR.Defined())
	require.True(t, snap.VWAP.Defined())

	rec, err := Evaluate(shortBars, risingLongBars(), p, evalAt)
	require.NoError(t, err)

	require.Equal(t, Buy, rec.Kind)
	require.Equal(t, TrendBull, rec.LongTrend)
	require.Equal(t, evalAt, rec.Time)
	require.Equal(t, snap.Close, rec.Price)

	require.NotNil(t, rec.Target)
	require.NotNil(t, rec.Stop)
	wantTarget := math.Max(snap.SwingHigh.Float(), snap.Close+p.TargetATR*snap.ATR.Float())
	require.InDelta(t, wantTarget, *rec.Target, 1e-9)
	require.InDelta(t, snap.Close-p.StopATR*snap.ATR.Float(), *rec.Stop, 1e-9)
	require.Greater(t, *rec.Target, rec.Price)
	require.Less(t, *rec.Stop, rec.Price)
}

func TestEvaluateSell(t *testing.T) {
	shortBars := sellShortBars()
	p := DefaultParams()

	snap, err := indicator.NewShortSnapshot(shortBars, p.Short)
	require.NoError(t, err)
	require.True(t, snap.RSI.Above(70), "fixture RSI %v not overbought", snap.RSI)
	require.True(t, snap.EMAFast.AtMost(snap.EMASlow))
	require.Less(t, snap.Close, snap.PrevClose)
	require.True(t, snap.SwingLow.Defined())

	rec, err := Evaluate(shortBars, fallingLongBars(), p, evalAt)
	require.NoError(t, err)

	require.Equal(t, Sell, rec.Kind)
	require.Equal(t, TrendBear, rec.LongTrend)

	require.NotNil(t, rec.Target)
	require.NotNil(t, rec.Stop)
	wantTarget := math.Min(snap.SwingLow.Float(), snap.Close-p.TargetATR*snap.ATR.Float())
	require.InDelta(t, wantTarget, *rec.Target, 1e-9)
	require.InDelta(t, snap.Close+p.StopATR*snap.ATR.Float(), *rec.Stop, 1e-9)
	require.Less(t, *rec.Target, rec.Price)
	require.Greater(t, *rec.Stop, rec.Price)
}

func TestEvaluateNoSignalReasonNamesTrendAndRSI(t *testing.T) {
	// twenty strictly falling bars: RSI(14) is a defined zero, the tick is
	// down, and the flat long context blocks the SELL branch
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 200 - float64(i)
	}
	shortBars := barsFromCloses(closes, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), 5*time.Minute)

	rec, err := Evaluate(shortBars, flatLongBars(), DefaultParams(), evalAt)
	require.NoError(t, err)

	require.Equal(t, NoSignal, rec.Kind)
	require.Nil(t, rec.Target)
	require.Nil(t, rec.Stop)
	require.Equal(t, TrendFlat, rec.LongTrend)
	require.Contains(t, rec.Reason, "flat")
	require.Contains(t, rec.Reason, "0.00")
}

func TestEvaluateInsufficientHistoryIsNoSignal(t *testing.T) {
	shortBars := barsFromCloses([]float64{100, 101, 102, 103, 104}, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), 5*time.Minute)

	rec, err := Evaluate(shortBars, risingLongBars(), DefaultParams(), evalAt)
	require.NoError(t, err)
	require.Equal(t, NoSignal, rec.Kind)
	require.False(t, rec.RSIShort.Defined())
	require.Contains(t, rec.Reason, "n/a")
}

func TestEvaluateIsPure(t *testing.T) {
	shortBars := buyShortBars()
	longBars := risingLongBars()
	p := DefaultParams()

	first, err := Evaluate(shortBars, longBars, p, evalAt)
	require.NoError(t, err)
	second, err := Evaluate(shortBars, longBars, p, evalAt)
	require.NoError(t, err)

	// every level in the fixture is defined, so deep equality is exact;
	// an undefined (NaN-backed) field would never compare equal to itself
	require.True(t, first.RSILong.Defined())
	require.True(t, first.RSIShort.Defined())
	require.Equal(t, first, second)
}

func TestEvaluateRejectsMalformedBar(t *testing.T) {
	shortBars := buyShortBars()
	shortBars[10].High = shortBars[10].Low - 1

	_, err := Evaluate(shortBars, risingLongBars(), DefaultParams(), evalAt)
	require.Error(t, err)

	var malformed *market.MalformedBarError
	require.ErrorAs(t, err, &malformed)
}

func TestEvaluateRejectsUnorderedSeries(t *testing.T) {
	shortBars := buyShortBars()
	shortBars[20].Time = shortBars[19].Time

	_, err := Evaluate(shortBars, risingLongBars(), DefaultParams(), evalAt)
	require.Error(t, err)

	var malformed *market.MalformedBarError
	require.ErrorAs(t, err, &malformed)
}

func TestEvaluateEmptySeries(t *testing.T) {
	_, err := Evaluate(nil, risingLongBars(), DefaultParams(), evalAt)
	require.ErrorIs(t, err, indicator.ErrNoBars)

	_, err = Evaluate(buyShortBars(), nil, DefaultParams(), evalAt)
	require.ErrorIs(t, err, indicator.ErrNoBars)
}
