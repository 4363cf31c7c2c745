package app

import (
	"context"
	"errors"
	"time"

	"btc-signal-alerts/internal/storage"
)

// Backfill re-evaluates historical slots using bars as they stood at each
// slot, filling gaps in the signal log after downtime.
func (a *App) Backfill(ctx context.Context, opts BackfillOptions) error {
	interval := a.Config.Scheduler.Interval
	if interval <= 0 {
		return errors.New("scheduler.interval is not valid")
	}

	start := alignForward(opts.From.UTC(), interval)
	end := opts.To.UTC()
	if !start.Before(end) {
		return errors.New("backfill range is empty, check --from/--to")
	}

	var store *storage.Store
	var closeStore func()
	var err error

	if opts.DryRun {
		a.Logger.Warn().Msg("backfill dry-run: records will not be persisted")
	} else {
		store, closeStore, err = a.openStore(ctx)
		if err != nil {
			return err
		}
		if store == nil {
			return errors.New("database.dsn not configured; cannot backfill")
		}
		if closeStore != nil {
			defer closeStore()
		}
	}

	svc := a.newService(nil, storeOrNil(store))

	processed := 0
	failed := 0
	for slot := start; slot.Before(end); slot = slot.Add(interval) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if _, err := svc.Replay(ctx, slot); err != nil {
			failed++
			a.Logger.Error().Err(err).Time("slot", slot).Msg("backfill slot failed")
			continue
		}
		processed++
	}

	a.Logger.Info().Int("processed", processed).Int("failed", failed).Msg("backfill complete")
	if failed > 0 {
		return errors.New("some slots failed to backfill, check logs")
	}
	return nil
}

func alignForward(t time.Time, interval time.Duration) time.Time {
	truncated := t.Truncate(interval)
	if truncated.Before(t) {
		return truncated.Add(interval)
	}
	return truncated
}

func storeOrNil(store *storage.Store) storage.RecordStore {
	if store == nil {
		return nil
	}
	return store
}
