package drop

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweep_EvictsOnlyExpiredSessions(t *testing.T) {
	reg, store, clock := newTestRegistry()
	sweeper := NewSweeper(reg, time.Hour, time.Minute, clock)

	reg.Ensure("OLDOLD")
	old := addFile(t, reg, store, "OLDOLD", "stale.txt", []byte("stale"))

	clock.Advance(45 * time.Minute)
	reg.Ensure("FRESHH")
	fresh := addFile(t, reg, store, "FRESHH", "fresh.txt", []byte("fresh"))

	// Within the TTL nothing moves.
	assert.Equal(t, 0, sweeper.Sweep(context.Background()))
	assert.Equal(t, 2, reg.Len())

	clock.Advance(20 * time.Minute) // OLDOLD idle 65m, FRESHH idle 20m
	assert.Equal(t, 1, sweeper.Sweep(context.Background()))

	_, ok := reg.Get("OLDOLD")
	assert.False(t, ok)
	exists, err := store.Exists(context.Background(), old.StorageKey)
	require.NoError(t, err)
	assert.False(t, exists, "evicted session's objects must be released")

	_, ok = reg.Get("FRESHH")
	assert.True(t, ok)
	exists, err = store.Exists(context.Background(), fresh.StorageKey)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSweep_SurvivesMissingBackingObject(t *testing.T) {
	reg, store, clock := newTestRegistry()
	sweeper := NewSweeper(reg, time.Hour, time.Minute, clock)

	reg.Ensure("BADBAD")
	broken := addFile(t, reg, store, "BADBAD", "gone.txt", []byte("gone"))
	require.NoError(t, store.Remove(context.Background(), broken.StorageKey))

	reg.Ensure("ALSOXX")
	addFile(t, reg, store, "ALSOXX", "also.txt", []byte("also"))

	clock.Advance(2 * time.Hour)

	// One session's dead object must not stop the cycle.
	assert.Equal(t, 2, sweeper.Sweep(context.Background()))
	assert.Equal(t, 0, reg.Len())
	assert.Equal(t, 0, store.Len())
}

func TestSweep_ToleratesRacingDelete(t *testing.T) {
	reg, _, clock := newTestRegistry()
	sweeper := NewSweeper(reg, time.Hour, time.Minute, clock)

	reg.Ensure("RACEDD")
	clock.Advance(2 * time.Hour)

	// An explicit end-session lands between snapshot and delete.
	reg.Delete("RACEDD")

	assert.NotPanics(t, func() { sweeper.Sweep(context.Background()) })
	assert.Equal(t, 0, reg.Len())
}

func TestRun_SweepsOnIntervalAndStopsOnCancel(t *testing.T) {
	reg, _, clock := newTestRegistry()
	sweeper := NewSweeper(reg, time.Hour, time.Minute, clock)

	reg.Ensure("OLDOLD")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	// Wait for the ticker to be armed before driving the clock.
	clock.BlockUntil(1)

	// Session expires; the next tick must reclaim it.
	clock.Advance(2 * time.Hour)
	require.Eventually(t, func() bool { return reg.Len() == 0 }, time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop on context cancellation")
	}
}

func TestNewSweeper_Defaults(t *testing.T) {
	reg, _, clock := newTestRegistry()
	s := NewSweeper(reg, 0, -time.Second, clock)
	assert.Equal(t, DefaultTTL, s.ttl)
	assert.Equal(t, DefaultSweepInterval, s.interval)
}
