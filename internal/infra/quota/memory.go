// File: internal/infra/quota/memory.go
package quota

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/domain/model"
	portquota "github.com/Moeabdelaziz007/amrikyy-content-agent/internal/domain/ports/quota"
	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/infra/metrics"
)

// Compile-time check
var _ portquota.Enforcer = (*MemoryEnforcer)(nil)

// MemoryEnforcer is the volatile quota backend: a process-scoped counter map
// guarded by a mutex. Counters are lost on restart and not shared across
// instances, so it is only suitable for single-instance/dev deployments.
// All access goes through CheckAndConsume; the map is never exposed.
type MemoryEnforcer struct {
	mu       sync.Mutex
	counters map[memoryKey]int
	now      func() time.Time
}

type memoryKey struct {
	wallet      string
	windowStart int64
}

func NewMemoryEnforcer() *MemoryEnforcer {
	return &MemoryEnforcer{
		counters: make(map[memoryKey]int),
		now:      time.Now,
	}
}

func (m *MemoryEnforcer) CheckAndConsume(ctx context.Context, wallet string, policy model.QuotaPolicy) (model.QuotaDecision, error) {
	policy = policy.Normalize()
	windowStart := model.WindowStart(m.now(), policy.Window)
	key := memoryKey{wallet: strings.ToLower(wallet), windowStart: windowStart}
	resetAt := windowStart + policy.Window.Milliseconds()

	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.counters[key]
	if current >= policy.MaxRequests {
		metrics.IncQuotaDecision("memory", false)
		return model.QuotaDecision{Allowed: false, Remaining: 0, Limit: policy.MaxRequests, ResetAt: resetAt}, nil
	}
	m.counters[key] = current + 1

	metrics.IncQuotaDecision("memory", true)
	return model.QuotaDecision{
		Allowed:   true,
		Remaining: policy.MaxRequests - (current + 1),
		Limit:     policy.MaxRequests,
		ResetAt:   resetAt,
	}, nil
}

// Sweep drops counters whose window ended before cutoff. Called by the quota
// GC loop; superseded keys are otherwise left behind on window rollover.
func (m *MemoryEnforcer) Sweep(cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	cutoffMs := cutoff.UnixMilli()
	for k := range m.counters {
		if k.windowStart < cutoffMs {
			delete(m.counters, k)
			removed++
		}
	}
	return removed
}
