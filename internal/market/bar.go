package market

import (
	"fmt"
	"math"
	"time"
)

// Bar is one OHLCV sample for a fixed-length interval. Time is the bar's
// open time in UTC. A field parsed from a missing or unreadable upstream
// value is NaN (absent data), never zero.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// MalformedBarError reports a bar that violates the OHLC invariants.
// Such bars indicate broken upstream data and must not be evaluated.
type MalformedBarError struct {
	Time   time.Time
	Reason string
}

func (e *MalformedBarError) Error() string {
	return fmt.Sprintf("malformed bar at %s: %s", e.Time.UTC().Format(time.RFC3339), e.Reason)
}

// Validate checks the OHLC invariants: high must bound open/close/low from
// above, low from below, volume must not be negative. Bars with NaN price
// fields are absent data, not malformed, and pass validation so that the
// indicator layer can propagate the undefined values.
func (b Bar) Validate() error {
	if anyNaN(b.Open, b.High, b.Low, b.Close) {
		return nil
	}
	if b.High < b.Open || b.High < b.Close || b.High < b.Low {
		return &MalformedBarError{Time: b.Time, Reason: fmt.Sprintf("high %v below open/close/low", b.High)}
	}
	if b.Low > b.Open || b.Low > b.Close {
		return &MalformedBarError{Time: b.Time, Reason: fmt.Sprintf("low %v above open/close", b.Low)}
	}
	if !math.IsNaN(b.Volume) && b.Volume < 0 {
		return &MalformedBarError{Time: b.Time, Reason: fmt.Sprintf("negative volume %v", b.Volume)}
	}
	return nil
}

// ValidateSeries validates every bar and the sequence ordering: strictly
// increasing timestamps, no duplicates. Gaps are allowed.
func ValidateSeries(bars []Bar) error {
	for i, b := range bars {
		if err := b.Validate(); err != nil {
			return err
		}
		if i > 0 && !b.Time.After(bars[i-1].Time) {
			return &MalformedBarError{Time: b.Time, Reason: "timestamp not after previous bar"}
		}
	}
	return nil
}

func anyNaN(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
