package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestNextSlotAligned(t *testing.T) {
	s := New(Options{Interval: 5 * time.Minute, AlignToSlot: true}, zerolog.Nop())

	now := time.Date(2025, 6, 1, 10, 7, 13, 0, time.UTC)
	require.Equal(t, time.Date(2025, 6, 1, 10, 10, 0, 0, time.UTC), s.NextSlot(now))

	// exactly on a boundary moves to the next one
	boundary := time.Date(2025, 6, 1, 10, 5, 0, 0, time.UTC)
	require.Equal(t, time.Date(2025, 6, 1, 10, 10, 0, 0, time.UTC), s.NextSlot(boundary))
}

func TestNextSlotUnaligned(t *testing.T) {
	s := New(Options{Interval: 5 * time.Minute, AlignToSlot: false}, zerolog.Nop())

	now := time.Date(2025, 6, 1, 10, 7, 13, 0, time.UTC)
	require.Equal(t, now.Add(5*time.Minute), s.NextSlot(now))
}

func TestRunStopsOnCancel(t *testing.T) {
	s := New(Options{Interval: time.Hour, AlignToSlot: false}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Run(ctx, func(ctx context.Context, slot time.Time) error { return nil })
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewPanicsOnBadInterval(t *testing.T) {
	require.Panics(t, func() {
		New(Options{Interval: 0}, zerolog.Nop())
	})
}
