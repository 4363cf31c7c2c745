// Package service orchestrates one scan: fetch bars on both timeframes,
// evaluate the confluence rules, persist and dispatch the outcome, and send
// the trailing-window digest on schedule.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"btc-signal-alerts/internal/alerting"
	"btc-signal-alerts/internal/config"
	"btc-signal-alerts/internal/digest"
	"btc-signal-alerts/internal/market"
	"btc-signal-alerts/internal/scheduler"
	"btc-signal-alerts/internal/signal"
	"btc-signal-alerts/internal/storage"
)

// Service wires the bar source, engine, record store, and notifier.
type Service struct {
	scheduler *scheduler.Scheduler
	source    market.Source
	store     storage.RecordStore
	notifier  alerting.Notifier
	logger    zerolog.Logger

	symbol          string
	shortInterval   string
	longInterval    string
	shortLimit      int
	longLimit       int
	params          signal.Params
	persistNoSignal bool

	digestEnabled  bool
	digestWindow   time.Duration
	digestAtMinute int

	alertsOn bool
	locker   storage.AdvisoryLocker
	lockKey  int64
}

// New constructs the scanning service.
func New(cfg *config.Config, sched *scheduler.Scheduler, source market.Source, store storage.RecordStore, notifier alerting.Notifier, logger zerolog.Logger) *Service {
	var locker storage.AdvisoryLocker
	if l, ok := store.(storage.AdvisoryLocker); ok {
		locker = l
	}

	return &Service{
		scheduler:       sched,
		source:          source,
		store:           store,
		notifier:        notifier,
		logger:          logger.With().Str("component", "service").Logger(),
		symbol:          cfg.Market.Symbol,
		shortInterval:   cfg.Market.ShortInterval,
		longInterval:    cfg.Market.LongInterval,
		shortLimit:      cfg.Market.ShortLimit,
		longLimit:       cfg.Market.LongLimit,
		params:          cfg.Signal.Params(),
		persistNoSignal: cfg.Signal.PersistNoSignal,
		digestEnabled:   cfg.Digest.Enabled,
		digestWindow:    cfg.Digest.Window,
		digestAtMinute:  cfg.Digest.AtMinute,
		alertsOn:        cfg.Alerting.Enabled,
		locker:          locker,
		lockKey:         cfg.Scheduler.AdvisoryLockKey,
	}
}

// Run begins the aligned scan loop.
func (s *Service) Run(ctx context.Context) error {
	if s.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}
	return s.scheduler.Run(ctx, s.ProcessSlot)
}

// ProcessSlot executes one scheduled slot: scan, and digest when the slot
// hits the digest minute.
func (s *Service) ProcessSlot(ctx context.Context, slot time.Time) error {
	unlock, proceed, err := s.acquireLock(ctx)
	if err != nil {
		return err
	}
	if !proceed {
		s.logger.Debug().Time("slot", slot).Msg("skip slot because advisory lock held elsewhere")
		return nil
	}
	if unlock != nil {
		defer unlock()
	}

	if _, err := s.Scan(ctx, slot, s.alertsOn); err != nil {
		return err
	}

	if s.digestEnabled && slot.Minute() == s.digestAtMinute {
		if err := s.SendDigest(ctx, slot); err != nil {
			s.logger.Error().Err(err).Time("slot", slot).Msg("digest dispatch failed")
		}
	}
	return nil
}

// Scan evaluates the latest bars and handles the outcome: actionable
// records are persisted and (when notify is set) dispatched; NO_SIGNAL is
// persisted only when configured.
func (s *Service) Scan(ctx context.Context, at time.Time, notify bool) (signal.Record, error) {
	shortBars, err := s.source.Bars(ctx, s.shortInterval, s.shortLimit)
	if err != nil {
		return signal.Record{}, fmt.Errorf("fetch short bars: %w", err)
	}
	longBars, err := s.source.Bars(ctx, s.longInterval, s.longLimit)
	if err != nil {
		return signal.Record{}, fmt.Errorf("fetch long bars: %w", err)
	}

	return s.settle(ctx, shortBars, longBars, at, notify)
}

// Replay evaluates a historical slot against bars that were current at that
// instant. Replayed records are persisted but never dispatched.
func (s *Service) Replay(ctx context.Context, slot time.Time) (signal.Record, error) {
	shortBars, err := s.source.BarsEndingAt(ctx, s.shortInterval, s.shortLimit, slot)
	if err != nil {
		return signal.Record{}, fmt.Errorf("fetch short bars: %w", err)
	}
	longBars, err := s.source.BarsEndingAt(ctx, s.longInterval, s.longLimit, slot)
	if err != nil {
		return signal.Record{}, fmt.Errorf("fetch long bars: %w", err)
	}

	return s.settle(ctx, shortBars, longBars, slot, false)
}

func (s *Service) settle(ctx context.Context, shortBars, longBars []market.Bar, at time.Time, notify bool) (signal.Record, error) {
	rec, err := signal.Evaluate(shortBars, longBars, s.params, at)
	if err != nil {
		return signal.Record{}, fmt.Errorf("evaluate: %w", err)
	}

	s.logger.Info().
		Time("at", rec.Time).
		Str("kind", string(rec.Kind)).
		Str("trend", string(rec.LongTrend)).
		Str("reason", rec.Reason).
		Msg("scan evaluated")

	if rec.Kind.Actionable() || s.persistNoSignal {
		if s.store != nil {
			if err := s.store.InsertRecord(ctx, rec); err != nil {
				s.logger.Error().Err(err).Time("at", rec.Time).Msg("failed to persist signal record")
			}
		}
	}

	if rec.Kind.Actionable() && notify && s.notifier != nil {
		msg := alerting.RenderSignal(rec, s.symbol, s.shortInterval, s.longInterval)
		if err := s.notifier.Notify(ctx, msg); err != nil {
			s.logger.Error().Err(err).Time("at", rec.Time).Msg("failed to dispatch alert")
		}
	}

	return rec, nil
}

// SendDigest summarises the trailing window ending at now and dispatches
// it. With no history at all, nothing is sent.
func (s *Service) SendDigest(ctx context.Context, now time.Time) error {
	if s.store == nil {
		return fmt.Errorf("record store not configured")
	}

	records, err := s.store.ListAllRecords(ctx)
	if err != nil {
		return fmt.Errorf("read signal history: %w", err)
	}

	d, ok := digest.Summarize(records, now.UTC(), s.digestWindow)
	if !ok {
		s.logger.Info().Time("now", now).Msg("no signal history; skipping digest")
		return nil
	}

	s.logger.Info().Time("now", now).Int("entries", len(d.Entries)).Msg("digest assembled")

	if s.notifier == nil {
		return nil
	}
	if err := s.notifier.Notify(ctx, alerting.Message{Subject: d.Subject(), Body: d.Body()}); err != nil {
		return fmt.Errorf("dispatch digest: %w", err)
	}
	return nil
}

func (s *Service) acquireLock(ctx context.Context) (func(), bool, error) {
	if s.lockKey == 0 || s.locker == nil {
		return nil, true, nil
	}
	unlock, acquired, err := s.locker.TryAdvisoryLock(ctx, s.lockKey)
	if err != nil {
		return nil, false, fmt.Errorf("acquire advisory lock: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}
	return unlock, true, nil
}
