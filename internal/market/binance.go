package market

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/rs/zerolog"
)

// Source supplies time-ordered, duplicate-free bar sequences for one
// instrument. Implementations may return fewer bars than requested near the
// history horizon.
type Source interface {
	// Bars returns up to limit most recent closed bars for the interval.
	Bars(ctx context.Context, interval string, limit int) ([]Bar, error)
	// BarsEndingAt returns up to limit bars whose open time is at or before
	// end. Used to replay historical evaluation slots.
	BarsEndingAt(ctx context.Context, interval string, limit int, end time.Time) ([]Bar, error)
}

// BinanceOptions parameterise the Binance kline source.
type BinanceOptions struct {
	Symbol    string
	APIKey    string
	APISecret string
	Timeout   time.Duration
}

// BinanceSource fetches klines from the Binance REST API. Public kline
// endpoints do not require credentials.
type BinanceSource struct {
	opts   BinanceOptions
	client *binance.Client
	logger zerolog.Logger
}

// NewBinanceSource constructs a kline-backed bar source.
func NewBinanceSource(opts BinanceOptions, logger zerolog.Logger) *BinanceSource {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := binance.NewClient(opts.APIKey, opts.APISecret)
	client.HTTPClient = &http.Client{Timeout: timeout}

	return &BinanceSource{
		opts:   opts,
		client: client,
		logger: logger.With().Str("component", "bar_source").Str("symbol", opts.Symbol).Logger(),
	}
}

// Bars fetches the most recent klines for the interval.
func (s *BinanceSource) Bars(ctx context.Context, interval string, limit int) ([]Bar, error) {
	return s.fetch(ctx, interval, limit, time.Time{})
}

// BarsEndingAt fetches klines ending at the given instant.
func (s *BinanceSource) BarsEndingAt(ctx context.Context, interval string, limit int, end time.Time) ([]Bar, error) {
	if end.IsZero() {
		return nil, errors.New("end time required")
	}
	return s.fetch(ctx, interval, limit, end)
}

func (s *BinanceSource) fetch(ctx context.Context, interval string, limit int, end time.Time) ([]Bar, error) {
	if s.opts.Symbol == "" {
		return nil, errors.New("market symbol not configured")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("bar limit must be positive, got %d", limit)
	}

	svc := s.client.NewKlinesService().
		Symbol(s.opts.Symbol).
		Interval(interval).
		Limit(limit)
	if !end.IsZero() {
		svc = svc.EndTime(end.UTC().UnixMilli())
	}

	klines, err := svc.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch %s klines for %s: %w", interval, s.opts.Symbol, err)
	}

	bars := make([]Bar, len(klines))
	for i, k := range klines {
		bars[i] = barFromKline(k)
	}

	s.logger.Debug().Str("interval", interval).Int("bars", len(bars)).Msg("fetched klines")
	return bars, nil
}

// barFromKline converts a raw kline. Binance serialises prices as strings;
// an empty or unparseable field becomes NaN so the indicator layer treats it
// as absent data rather than a zero price.
func barFromKline(k *binance.Kline) Bar {
	return Bar{
		Time:   time.Unix(0, k.OpenTime*int64(time.Millisecond)).UTC(),
		Open:   parsePrice(k.Open),
		High:   parsePrice(k.High),
		Low:    parsePrice(k.Low),
		Close:  parsePrice(k.Close),
		Volume: parsePrice(k.Volume),
	}
}

func parsePrice(raw string) float64 {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

var _ Source = (*BinanceSource)(nil)
