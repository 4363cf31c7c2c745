package app

import (
	"context"
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"btc-signal-alerts/internal/signal"
)

// Export renders historical signal records as CSV and/or PNG.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot export")
	}
	if closeStore != nil {
		defer closeStore()
	}

	to := time.Now().UTC()
	if opts.To != nil {
		to = opts.To.UTC()
	}

	from := to.Add(-time.Duration(opts.MaxPoints) * a.Config.Scheduler.Interval)
	if opts.From != nil {
		from = opts.From.UTC()
	}

	if !from.Before(to) {
		return errors.New("from must be before to")
	}

	records, err := store.ListRecordsBetween(ctx, from, to)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		a.Logger.Info().Msg("no records found for export window")
		return nil
	}

	downsampled := downsampleRecords(records, opts.MaxPoints)
	a.Logger.Info().Int("total", len(records)).Int("exported", len(downsampled)).Msg("exporting records")

	if opts.CSVPath != "" {
		if err := writeRecordsCSV(opts.CSVPath, downsampled); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeRecordsPNG(opts.PNGPath, downsampled); err != nil {
			return err
		}
	}

	return nil
}

func downsampleRecords(records []signal.Record, max int) []signal.Record {
	if max <= 0 || len(records) <= max {
		return records
	}

	result := make([]signal.Record, 0, max)
	step := float64(len(records)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(records) {
			idx = len(records) - 1
		}
		result = append(result, records[idx])
	}
	return result
}

func writeRecordsCSV(path string, records []signal.Record) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"ts", "kind", "price", "target", "stop", "rsi_short", "ema_fast", "ema_slow", "vwap", "atr", "long_trend", "rsi_long", "reason"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, rec := range records {
		row := []string{
			rec.Time.UTC().Format(time.RFC3339),
			string(rec.Kind),
			strconv.FormatFloat(rec.Price, 'f', -1, 64),
			csvOptional(rec.Target),
			csvOptional(rec.Stop),
			signal.FormatLevel(rec.RSIShort, 4),
			signal.FormatLevel(rec.EMAFast, 8),
			signal.FormatLevel(rec.EMASlow, 8),
			signal.FormatLevel(rec.VWAP, 8),
			signal.FormatLevel(rec.ATR, 8),
			string(rec.LongTrend),
			signal.FormatLevel(rec.RSILong, 4),
			rec.Reason,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writeRecordsPNG(path string, records []signal.Record) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]time.Time, len(records))
	prices := make([]float64, len(records))
	for i, rec := range records {
		x[i] = rec.Time
		prices[i] = rec.Price
	}

	var targetX, stopX []time.Time
	var targets, stops []float64
	for _, rec := range records {
		if rec.Target != nil {
			targetX = append(targetX, rec.Time)
			targets = append(targets, *rec.Target)
		}
		if rec.Stop != nil {
			stopX = append(stopX, rec.Time)
			stops = append(stops, *rec.Stop)
		}
	}

	priceFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.2f")
	}
	series := []chart.Series{
		chart.TimeSeries{
			Name:    "Price",
			XValues: x,
			YValues: prices,
		},
	}
	if len(targets) > 0 {
		series = append(series, chart.TimeSeries{
			Name:    "Target",
			XValues: targetX,
			YValues: targets,
			Style:   chart.Style{StrokeWidth: chart.Disabled, DotWidth: 3},
		})
	}
	if len(stops) > 0 {
		series = append(series, chart.TimeSeries{
			Name:    "Stop",
			XValues: stopX,
			YValues: stops,
			Style:   chart.Style{StrokeWidth: chart.Disabled, DotWidth: 3},
		})
	}

	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Price",
			ValueFormatter: priceFormatter,
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func csvOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
