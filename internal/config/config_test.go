package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "BTCUSDT", cfg.Market.Symbol)
	require.Equal(t, "5m", cfg.Market.ShortInterval)
	require.Equal(t, "1h", cfg.Market.LongInterval)
	require.Equal(t, 600, cfg.Market.ShortLimit)
	require.Equal(t, 500, cfg.Market.LongLimit)

	require.Equal(t, 5*time.Minute, cfg.Scheduler.Interval)
	require.True(t, cfg.Scheduler.AlignToSlot)

	require.Equal(t, 14, cfg.Signal.RSILength)
	require.Equal(t, 9, cfg.Signal.EMAFast)
	require.Equal(t, 21, cfg.Signal.EMASlow)
	require.Equal(t, 48, cfg.Signal.SwingLookback)
	require.False(t, cfg.Signal.PersistNoSignal)

	require.True(t, cfg.Digest.Enabled)
	require.Equal(t, time.Hour, cfg.Digest.Window)
	require.False(t, cfg.Alerting.Enabled)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
market:
  symbol: ETHUSDT
  short_interval: 1m
scheduler:
  interval: 1m
signal:
  swing_lookback: 60
alerting:
  enabled: true
  telegram:
    enabled: true
    bot_token: token
    chat_id: chat
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "ETHUSDT", cfg.Market.Symbol)
	require.Equal(t, "1m", cfg.Market.ShortInterval)
	require.Equal(t, time.Minute, cfg.Scheduler.Interval)
	require.Equal(t, 60, cfg.Signal.SwingLookback)
	require.True(t, cfg.Alerting.Telegram.Enabled)

	// untouched keys keep their defaults
	require.Equal(t, "1h", cfg.Market.LongInterval)
	require.Equal(t, 14, cfg.Signal.RSILength)
}

func TestValidateRejectsBadValues(t *testing.T) {
	base, err := Load("")
	require.NoError(t, err)

	bad := *base
	bad.Digest.AtMinute = 99
	require.Error(t, bad.Validate())

	bad = *base
	bad.Signal.TargetATRMult = 0
	require.Error(t, bad.Validate())

	bad = *base
	bad.Market.Symbol = ""
	require.Error(t, bad.Validate())

	bad = *base
	bad.Alerting.Telegram.Enabled = true
	require.Error(t, bad.Validate())
}

func TestSignalParamsMapping(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	p := cfg.Signal.Params()
	require.Equal(t, 14, p.Short.RSILength)
	require.Equal(t, 9, p.Short.EMAFast)
	require.Equal(t, 21, p.Short.EMASlow)
	require.Equal(t, 48, p.Short.SwingLookback)
	require.Equal(t, 20, p.Long.EMAFast)
	require.Equal(t, 50, p.Long.EMASlow)
	require.InDelta(t, 1.5, p.TargetATR, 1e-12)
	require.InDelta(t, 1.0, p.StopATR, 1e-12)
	require.InDelta(t, 0.2, p.VWAPTolerance, 1e-12)
}

func TestResolveMaxPoints(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, cfg.Export.MaxDataPoints, cfg.ResolveMaxPoints(0))
	require.Equal(t, 42, cfg.ResolveMaxPoints(42))
}
