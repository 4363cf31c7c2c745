package signal

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"btc-signal-alerts/internal/indicator"
)

// Kind is the outcome of one evaluation.
type Kind string

const (
	Buy      Kind = "BUY"
	Sell     Kind = "SELL"
	NoSignal Kind = "NO_SIGNAL"
)

// Actionable reports whether the kind warrants an alert and a trade level.
func (k Kind) Actionable() bool {
	return k == Buy || k == Sell
}

// Trend classifies the long-timeframe EMA ordering.
type Trend string

const (
	TrendBull Trend = "bull"
	TrendBear Trend = "bear"
	TrendFlat Trend = "flat"
)

// Record is the immutable result of one evaluation. Target and Stop are nil
// for NO_SIGNAL. The indicator fields capture the snapshot values the
// decision was made on; undefined values stay undefined.
type Record struct {
	Time      time.Time
	Kind      Kind
	Price     float64
	Target    *float64
	Stop      *float64
	RSIShort  indicator.Level
	EMAFast   indicator.Level
	EMASlow   indicator.Level
	VWAP      indicator.Level
	ATR       indicator.Level
	LongTrend Trend
	RSILong   indicator.Level
	Reason    string
}

// FormatPrice renders a price with thousands grouping and two decimals,
// matching the alert text layout ("117,512.34").
func FormatPrice(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	b.WriteString(sign)
	for i, digit := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

// FormatLevel renders an indicator level with the given precision, or "n/a"
// when undefined.
func FormatLevel(l indicator.Level, places int) string {
	if !l.Defined() {
		return "n/a"
	}
	return strconv.FormatFloat(l.Float(), 'f', places, 64)
}

// FormatTime renders a timestamp the way the alert and digest texts do.
func FormatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05") + " UTC"
}

func (r Record) String() string {
	return fmt.Sprintf("%s %s @ %s (%s)", FormatTime(r.Time), r.Kind, FormatPrice(r.Price), r.Reason)
}
