package quota

import (
	"context"

	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/domain/model"
)

// Enforcer decides whether a wallet may start another orchestration run in
// the current fixed window, consuming one slot when allowed. Implementations
// must make the check-then-increment atomic per (wallet, window) key: two
// concurrent calls with one slot left admit exactly one caller.
//
// Backend storage failures return domain.ErrQuotaUnavailable; callers treat
// that as a denial (fail closed).
type Enforcer interface {
	CheckAndConsume(ctx context.Context, wallet string, policy model.QuotaPolicy) (model.QuotaDecision, error)
}
