// Package scheduler drives slot-aligned execution of the scan job: ticks
// fire at interval boundaries (e.g. every :00/:05 for 5m) so evaluations
// line up with closed bars.
package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// SlotFunc is invoked once per interval with the slot start time.
type SlotFunc func(ctx context.Context, slot time.Time) error

// Options tune scheduler behaviour.
type Options struct {
	Interval     time.Duration
	AlignToSlot  bool
	StartupDelay time.Duration
}

// Scheduler blocks in Run and fires the slot function until cancelled. Slot
// errors are logged and do not stop the loop: one failed evaluation never
// takes the scanner down.
type Scheduler struct {
	opts   Options
	logger zerolog.Logger
}

// New constructs a Scheduler instance.
func New(opts Options, logger zerolog.Logger) *Scheduler {
	if opts.Interval <= 0 {
		panic("scheduler interval must be positive")
	}
	return &Scheduler{opts: opts, logger: logger.With().Str("component", "scheduler").Logger()}
}

// Run blocks, invoking fn at each interval until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context, fn SlotFunc) error {
	if s.opts.StartupDelay > 0 {
		if err := sleepCtx(ctx, s.opts.StartupDelay); err != nil {
			return err
		}
	}

	next := s.NextSlot(time.Now().UTC())
	for {
		delay := time.Until(next)
		if delay < 0 {
			next = s.NextSlot(time.Now().UTC())
			delay = time.Until(next)
		}

		s.logger.Debug().Time("next_slot", next).Msg("waiting for next slot")
		if err := sleepCtx(ctx, delay); err != nil {
			return err
		}

		slot := s.slotStart(next)
		s.logger.Info().Time("slot", slot).Msg("executing scheduled scan")

		if err := fn(ctx, slot); err != nil {
			s.logger.Error().Err(err).Time("slot", slot).Msg("scan execution failed")
		}

		next = next.Add(s.opts.Interval)
	}
}

// NextSlot returns the first tick time after now.
func (s *Scheduler) NextSlot(now time.Time) time.Time {
	if !s.opts.AlignToSlot {
		return now.Add(s.opts.Interval)
	}
	slot := now.Truncate(s.opts.Interval)
	if !slot.After(now) {
		slot = slot.Add(s.opts.Interval)
	}
	return slot
}

func (s *Scheduler) slotStart(t time.Time) time.Time {
	if !s.opts.AlignToSlot {
		return t
	}
	return t.Truncate(s.opts.Interval)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
