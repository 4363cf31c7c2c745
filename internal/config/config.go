package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"btc-signal-alerts/internal/indicator"
	"btc-signal-alerts/internal/logging"
	"btc-signal-alerts/internal/signal"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Market    MarketConfig    `mapstructure:"market"`
	Signal    SignalConfig    `mapstructure:"signal"`
	Digest    DigestConfig    `mapstructure:"digest"`
	Alerting  AlertingConfig  `mapstructure:"alerting"`
	Export    ExportConfig    `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

// SchedulerConfig governs scan cadence.
type SchedulerConfig struct {
	Interval        time.Duration `mapstructure:"interval"`
	AlignToSlot     bool          `mapstructure:"align_to_slot"`
	AdvisoryLockKey int64         `mapstructure:"advisory_lock_key"`
	StartupDelay    time.Duration `mapstructure:"startup_delay"`
}

// MarketConfig covers bar retrieval from the exchange.
type MarketConfig struct {
	Symbol         string        `mapstructure:"symbol"`
	ShortInterval  string        `mapstructure:"short_interval"`
	LongInterval   string        `mapstructure:"long_interval"`
	ShortLimit     int           `mapstructure:"short_limit"`
	LongLimit      int           `mapstructure:"long_limit"`
	APIKey         string        `mapstructure:"api_key"`
	APISecret      string        `mapstructure:"api_secret"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// SignalConfig carries the indicator and rule tunables. The defaults are the
// classic 5m day-trade setup with 1h context.
type SignalConfig struct {
	RSILength       int     `mapstructure:"rsi_length"`
	EMAFast         int     `mapstructure:"ema_fast"`
	EMASlow         int     `mapstructure:"ema_slow"`
	ATRLength       int     `mapstructure:"atr_length"`
	SwingLookback   int     `mapstructure:"swing_lookback"`
	TargetATRMult   float64 `mapstructure:"target_atr_mult"`
	StopATRMult     float64 `mapstructure:"stop_atr_mult"`
	VWAPTolerance   float64 `mapstructure:"vwap_tolerance"`
	LongRSILength   int     `mapstructure:"long_rsi_length"`
	LongEMAFast     int     `mapstructure:"long_ema_fast"`
	LongEMASlow     int     `mapstructure:"long_ema_slow"`
	PersistNoSignal bool    `mapstructure:"persist_no_signal"`
}

// Params assembles the evaluation parameter set passed into the engine.
func (s SignalConfig) Params() signal.Params {
	return signal.Params{
		Short: indicator.ShortParams{
			RSILength:     s.RSILength,
			EMAFast:       s.EMAFast,
			EMASlow:       s.EMASlow,
			ATRLength:     s.ATRLength,
			SwingLookback: s.SwingLookback,
		},
		Long: indicator.LongParams{
			RSILength: s.LongRSILength,
			EMAFast:   s.LongEMAFast,
			EMASlow:   s.LongEMASlow,
		},
		TargetATR:     s.TargetATRMult,
		StopATR:       s.StopATRMult,
		VWAPTolerance: s.VWAPTolerance,
	}
}

// DigestConfig governs the trailing-window summary.
type DigestConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Window   time.Duration `mapstructure:"window"`
	AtMinute int           `mapstructure:"at_minute"`
}

// AlertingConfig defines alert routing.
type AlertingConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Email    EmailConfig    `mapstructure:"email"`
}

// TelegramConfig describes the Telegram channel.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// EmailConfig describes the SMTP channel.
type EmailConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	Host     string   `mapstructure:"host"`
	Port     int      `mapstructure:"port"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	From     string   `mapstructure:"from"`
	To       []string `mapstructure:"to"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BTCSIGNALS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "btcsignals")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("scheduler.interval", "5m")
	v.SetDefault("scheduler.align_to_slot", true)
	v.SetDefault("scheduler.advisory_lock_key", int64(0x62747373))
	v.SetDefault("scheduler.startup_delay", "0s")

	v.SetDefault("market.symbol", "BTCUSDT")
	v.SetDefault("market.short_interval", "5m")
	v.SetDefault("market.long_interval", "1h")
	v.SetDefault("market.short_limit", 600)
	v.SetDefault("market.long_limit", 500)
	v.SetDefault("market.request_timeout", "10s")

	v.SetDefault("signal.rsi_length", 14)
	v.SetDefault("signal.ema_fast", 9)
	v.SetDefault("signal.ema_slow", 21)
	v.SetDefault("signal.atr_length", 14)
	v.SetDefault("signal.swing_lookback", 48)
	v.SetDefault("signal.target_atr_mult", 1.5)
	v.SetDefault("signal.stop_atr_mult", 1.0)
	v.SetDefault("signal.vwap_tolerance", 0.2)
	v.SetDefault("signal.long_rsi_length", 14)
	v.SetDefault("signal.long_ema_fast", 20)
	v.SetDefault("signal.long_ema_slow", 50)
	v.SetDefault("signal.persist_no_signal", false)

	v.SetDefault("digest.enabled", true)
	v.SetDefault("digest.window", "1h")
	v.SetDefault("digest.at_minute", 0)

	v.SetDefault("alerting.enabled", false)
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")
	v.SetDefault("alerting.email.enabled", false)
	v.SetDefault("alerting.email.port", 587)

	v.SetDefault("export.max_data_points", 100000)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.migrations_path", "migrations")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval must be greater than zero")
	}
	if c.Market.Symbol == "" {
		return fmt.Errorf("market.symbol is required")
	}
	if c.Market.ShortLimit <= 0 || c.Market.LongLimit <= 0 {
		return fmt.Errorf("market.short_limit and market.long_limit must be greater than zero")
	}
	if c.Signal.RSILength <= 0 || c.Signal.ATRLength <= 0 || c.Signal.SwingLookback <= 0 {
		return fmt.Errorf("signal lookbacks must be greater than zero")
	}
	if c.Signal.EMAFast <= 0 || c.Signal.EMASlow <= 0 || c.Signal.LongEMAFast <= 0 || c.Signal.LongEMASlow <= 0 {
		return fmt.Errorf("signal EMA spans must be greater than zero")
	}
	if c.Signal.TargetATRMult <= 0 || c.Signal.StopATRMult <= 0 {
		return fmt.Errorf("signal ATR multipliers must be greater than zero")
	}
	if c.Signal.VWAPTolerance < 0 {
		return fmt.Errorf("signal.vwap_tolerance cannot be negative")
	}
	if c.Digest.Window <= 0 {
		return fmt.Errorf("digest.window must be greater than zero")
	}
	if c.Digest.AtMinute < 0 || c.Digest.AtMinute > 59 {
		return fmt.Errorf("digest.at_minute must be within 0..59")
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token is required")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id is required")
		}
	}
	if c.Alerting.Email.Enabled {
		if c.Alerting.Email.Host == "" {
			return fmt.Errorf("alerting.email.host is required")
		}
		if c.Alerting.Email.From == "" || len(c.Alerting.Email.To) == 0 {
			return fmt.Errorf("alerting.email.from and alerting.email.to are required")
		}
	}
	return nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}
