package geocode

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances only when a caller sleeps, making gate timing
// deterministic.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return nil
}

func newTestGate(interval time.Duration) (*IntervalGate, *fakeClock) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	gate := NewIntervalGate(interval)
	gate.now = clock.Now
	gate.sleep = clock.Sleep
	return gate, clock
}

func TestIntervalGateFirstCallerPassesImmediately(t *testing.T) {
	gate, clock := newTestGate(time.Second)
	start := clock.Now()

	require.NoError(t, gate.Wait(context.Background()))
	assert.Equal(t, start, clock.Now(), "first caller should not sleep")
}

func TestIntervalGateSpacesConsecutiveCallers(t *testing.T) {
	gate, clock := newTestGate(time.Second)
	start := clock.Now()

	for i := 0; i < 4; i++ {
		require.NoError(t, gate.Wait(context.Background()))
	}

	// Caller i is released at start + i*interval.
	assert.Equal(t, 3*time.Second, clock.Now().Sub(start))
}

func TestIntervalGateIdlePeriodDoesNotBankSlots(t *testing.T) {
	gate, clock := newTestGate(time.Second)

	require.NoError(t, gate.Wait(context.Background()))

	// A long idle gap must not let the next two callers through back to back.
	clock.mu.Lock()
	clock.now = clock.now.Add(time.Minute)
	clock.mu.Unlock()
	start := clock.Now()

	require.NoError(t, gate.Wait(context.Background()))
	assert.Equal(t, start, clock.Now())

	require.NoError(t, gate.Wait(context.Background()))
	assert.Equal(t, time.Second, clock.Now().Sub(start))
}

func TestIntervalGateHonorsContextCancellation(t *testing.T) {
	gate := NewIntervalGate(time.Hour)

	require.NoError(t, gate.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := gate.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIntervalGateRealClockSpacing(t *testing.T) {
	gate := NewIntervalGate(20 * time.Millisecond)

	var mu sync.Mutex
	var stamps []time.Time

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, gate.Wait(context.Background()))
			mu.Lock()
			stamps = append(stamps, time.Now())
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, stamps, 4)
	mu.Lock()
	defer mu.Unlock()
	earliest, latest := stamps[0], stamps[0]
	for _, stamp := range stamps[1:] {
		if stamp.Before(earliest) {
			earliest = stamp
		}
		if stamp.After(latest) {
			latest = stamp
		}
	}
	// Four callers occupy slots 0/20/40/60ms; allow scheduling slack.
	assert.GreaterOrEqual(t, latest.Sub(earliest), 40*time.Millisecond,
		"upstream slots must be spaced by at least the interval")
}
