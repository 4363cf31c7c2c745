package app

import (
	"context"
	"time"
)

// ScanOnce runs a single evaluation against the latest bars, the cron-style
// entry point. Persistence is used when configured; alert dispatch follows
// the --notify flag and the alerting config.
func (a *App) ScanOnce(ctx context.Context, opts ScanOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	svc := a.newService(nil, storeOrNil(store))

	notify := opts.Notify && a.Config.Alerting.Enabled
	rec, err := svc.Scan(ctx, time.Now().UTC(), notify)
	if err != nil {
		return err
	}

	a.Logger.Info().Str("result", rec.String()).Msg("one-shot scan complete")
	return nil
}

// DigestNow assembles and dispatches the trailing-window digest once.
func (a *App) DigestNow(ctx context.Context) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	svc := a.newService(nil, storeOrNil(store))
	return svc.SendDigest(ctx, time.Now().UTC())
}
