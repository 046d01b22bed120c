// File: internal/infra/redis/quota.go
package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/domain"
	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/domain/model"
	portquota "github.com/Moeabdelaziz007/amrikyy-content-agent/internal/domain/ports/quota"
	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/infra/metrics"
)

var _ portquota.Enforcer = (*QuotaEnforcer)(nil)

// QuotaEnforcer counts requests per (wallet, window) key in Redis. The
// check-then-increment runs as one Lua script, so the count is never bumped
// for a denied call and concurrent callers cannot both take the last slot.
// Keys expire on their own shortly after the window rolls over.
type QuotaEnforcer struct {
	client RedisClient
	now    func() time.Time
}

func NewQuotaEnforcer(client RedisClient) *QuotaEnforcer {
	return &QuotaEnforcer{client: client, now: time.Now}
}

// KEYS[1] = counter key, ARGV[1] = limit, ARGV[2] = ttl ms.
// Returns {allowed, count-after}.
var luaCheckAndConsume = redis.NewScript(`
local c = tonumber(redis.call("GET", KEYS[1]) or "0")
if c >= tonumber(ARGV[1]) then
	return {0, c}
end
c = redis.call("INCR", KEYS[1])
if c == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return {1, c}`)

func (q *QuotaEnforcer) CheckAndConsume(ctx context.Context, wallet string, policy model.QuotaPolicy) (model.QuotaDecision, error) {
	policy = policy.Normalize()
	windowStart := model.WindowStart(q.now(), policy.Window)
	resetAt := windowStart + policy.Window.Milliseconds()
	key := quotaKey(wallet, windowStart)

	// Keys live for two windows so a sweep is never needed here.
	ttl := 2 * policy.Window.Milliseconds()
	res, err := q.client.EvalScript(ctx, luaCheckAndConsume, []string{key}, policy.MaxRequests, ttl)
	if err != nil {
		metrics.IncQuotaBackendError("redis")
		return model.QuotaDecision{Limit: policy.MaxRequests, ResetAt: resetAt}, domain.ErrQuotaUnavailable
	}

	vals, ok := res.([]interface{})
	if !ok || len(vals) != 2 {
		metrics.IncQuotaBackendError("redis")
		return model.QuotaDecision{Limit: policy.MaxRequests, ResetAt: resetAt}, domain.ErrQuotaUnavailable
	}
	allowed, _ := vals[0].(int64)
	count, _ := vals[1].(int64)

	metrics.IncQuotaDecision("redis", allowed == 1)
	if allowed != 1 {
		return model.QuotaDecision{Allowed: false, Remaining: 0, Limit: policy.MaxRequests, ResetAt: resetAt}, nil
	}
	remaining := policy.MaxRequests - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return model.QuotaDecision{Allowed: true, Remaining: remaining, Limit: policy.MaxRequests, ResetAt: resetAt}, nil
}

func quotaKey(wallet string, windowStart int64) string {
	return fmt.Sprintf("usage_quota:%s:%d", strings.ToLower(wallet), windowStart)
}
