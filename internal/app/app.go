package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"btc-signal-alerts/internal/alerting"
	"btc-signal-alerts/internal/config"
	"btc-signal-alerts/internal/market"
	"btc-signal-alerts/internal/scheduler"
	"btc-signal-alerts/internal/service"
	"btc-signal-alerts/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newSource() market.Source {
	return market.NewBinanceSource(market.BinanceOptions{
		Symbol:    a.Config.Market.Symbol,
		APIKey:    a.Config.Market.APIKey,
		APISecret: a.Config.Market.APISecret,
		Timeout:   a.Config.Market.RequestTimeout,
	}, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	var targets []alerting.Notifier

	if tg := a.Config.Alerting.Telegram; tg.Enabled {
		targets = append(targets, alerting.NewTelegramNotifier(tg.BotToken, tg.ChatID, tg.APIBase, 10*time.Second, a.Logger))
	}
	if em := a.Config.Alerting.Email; em.Enabled {
		targets = append(targets, alerting.NewEmailNotifier(alerting.EmailOptions{
			Host:     em.Host,
			Port:     em.Port,
			Username: em.Username,
			Password: em.Password,
			From:     em.From,
			To:       em.To,
		}, a.Logger))
	}

	if len(targets) == 0 {
		return nil
	}
	return alerting.NewMultiNotifier(targets...)
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

func (a *App) newService(sched *scheduler.Scheduler, store storage.RecordStore) *service.Service {
	return service.New(a.Config, sched, a.newSource(), store, a.newNotifier(), a.Logger)
}

// Run executes the long-running scanner.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Warn().Msg("database.dsn not configured; persistence disabled")
	}
	if closeStore != nil {
		defer closeStore()
	}

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Scheduler.Interval,
		AlignToSlot:  a.Config.Scheduler.AlignToSlot,
		StartupDelay: a.Config.Scheduler.StartupDelay,
	}, a.Logger)

	var recordStore storage.RecordStore
	if store != nil {
		recordStore = store
	}

	svc := a.newService(sched, recordStore)

	a.Logger.Info().
		Str("symbol", a.Config.Market.Symbol).
		Str("short_interval", a.Config.Market.ShortInterval).
		Str("long_interval", a.Config.Market.LongInterval).
		Msg("starting signal scanner")
	err = svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("scanner terminated with error")
		return err
	}

	a.Logger.Info().Msg("signal scanner stopped")
	return nil
}

// ExportOptions hold parameters for exporting historical records.
type ExportOptions struct {
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}

// BackfillOptions configure the backfill job.
type BackfillOptions struct {
	From   time.Time
	To     time.Time
	DryRun bool
}

// ScanOptions configure a one-shot scan.
type ScanOptions struct {
	Notify bool
}
