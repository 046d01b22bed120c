package quota

import (
	"context"
	"time"
)

// PurgeFunc removes counter entries whose window started before cutoff and
// returns how many it removed.
type PurgeFunc func(ctx context.Context, cutoff time.Time) (int, error)

// GC adapts a backend-specific purge into the scheduler's Sweeper shape.
// Windows older than one full window length are unreachable; keep one extra
// window of slack so a sweep racing a rollover never touches a live counter.
type GC struct {
	window time.Duration
	purge  PurgeFunc
	now    func() time.Time
}

func NewGC(window time.Duration, purge PurgeFunc) *GC {
	return &GC{window: window, purge: purge, now: time.Now}
}

func (g *GC) Sweep(ctx context.Context) (int, error) {
	cutoff := g.now().Add(-2 * g.window)
	return g.purge(ctx, cutoff)
}

// MemoryPurge wraps MemoryEnforcer.Sweep as a PurgeFunc.
func MemoryPurge(m *MemoryEnforcer) PurgeFunc {
	return func(_ context.Context, cutoff time.Time) (int, error) {
		return m.Sweep(cutoff), nil
	}
}
