package geocode

import (
	"context"
	"sync"
	"time"
)

// IntervalGate serializes upstream calls so that consecutive callers are
// spaced by at least a fixed interval. Callers are not rejected when arriving
// too fast; each reserves the next free slot and waits for it, so service
// order follows arrival order.
type IntervalGate struct {
	mu       sync.Mutex
	interval time.Duration
	next     time.Time

	// injectable for tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewIntervalGate creates a gate enforcing the given minimum interval between
// successive Wait returns.
func NewIntervalGate(interval time.Duration) *IntervalGate {
	return &IntervalGate{
		interval: interval,
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// Wait blocks until the caller's reserved slot arrives or ctx is done. The
// slot stays consumed even when the caller gives up, keeping later arrivals
// spaced correctly.
func (g *IntervalGate) Wait(ctx context.Context) error {
	g.mu.Lock()
	now := g.now()
	slot := g.next
	if slot.Before(now) {
		slot = now
	}
	g.next = slot.Add(g.interval)
	g.mu.Unlock()

	if wait := slot.Sub(now); wait > 0 {
		return g.sleep(ctx, wait)
	}
	return ctx.Err()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
