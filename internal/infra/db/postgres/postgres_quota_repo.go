package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/domain"
	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/domain/model"
	portquota "github.com/Moeabdelaziz007/amrikyy-content-agent/internal/domain/ports/quota"
	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/domain/ports/repository"
	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/infra/metrics"
)

var _ portquota.Enforcer = (*QuotaEnforcer)(nil)

// QuotaEnforcer is the durable quota backend: one counter row per
// (wallet, window_start) key in usage_quota, read-modify-written inside a
// single transaction with FOR UPDATE so that concurrent instances serialize
// on the row and at most one caller takes the last slot. Any storage failure
// is reported as domain.ErrQuotaUnavailable (the caller denies).
type QuotaEnforcer struct {
	pool *pgxpool.Pool
	tm   repository.TransactionManager
	now  func() time.Time
}

func NewQuotaEnforcer(pool *pgxpool.Pool, tm repository.TransactionManager) *QuotaEnforcer {
	return &QuotaEnforcer{pool: pool, tm: tm, now: time.Now}
}

func (q *QuotaEnforcer) CheckAndConsume(ctx context.Context, wallet string, policy model.QuotaPolicy) (model.QuotaDecision, error) {
	policy = policy.Normalize()
	windowStart := model.WindowStart(q.now(), policy.Window)
	resetAt := windowStart + policy.Window.Milliseconds()
	key := strings.ToLower(wallet)

	decision := model.QuotaDecision{Limit: policy.MaxRequests, ResetAt: resetAt}

	err := q.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		// Ensure the row exists, then lock it for the read-modify-write.
		const ensure = `
INSERT INTO usage_quota (wallet, window_start, count, max_requests)
VALUES ($1, $2, 0, $3)
ON CONFLICT (wallet, window_start) DO NOTHING;`
		if _, err := execSQL(ctx, q.pool, tx, ensure, key, windowStart, policy.MaxRequests); err != nil {
			return err
		}

		const lock = `SELECT count FROM usage_quota WHERE wallet=$1 AND window_start=$2 FOR UPDATE;`
		row, err := pickRow(ctx, q.pool, tx, lock, key, windowStart)
		if err != nil {
			return err
		}
		var current int
		if err := row.Scan(&current); err != nil {
			return err
		}

		if current >= policy.MaxRequests {
			decision.Allowed = false
			decision.Remaining = 0
			return nil
		}

		const bump = `UPDATE usage_quota SET count = count + 1 WHERE wallet=$1 AND window_start=$2;`
		if _, err := execSQL(ctx, q.pool, tx, bump, key, windowStart); err != nil {
			return err
		}

		decision.Allowed = true
		decision.Remaining = policy.MaxRequests - (current + 1)
		return nil
	})
	if err != nil {
		metrics.IncQuotaBackendError("postgres")
		return model.QuotaDecision{Limit: policy.MaxRequests, ResetAt: resetAt}, domain.ErrQuotaUnavailable
	}

	metrics.IncQuotaDecision("postgres", decision.Allowed)
	return decision, nil
}

// DeleteWindowsBefore garbage-collects counter rows whose window started
// before cutoff. Old keys are never read again, so this is purely hygiene.
func (q *QuotaEnforcer) DeleteWindowsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const del = `DELETE FROM usage_quota WHERE window_start < $1;`
	tag, err := execSQL(ctx, q.pool, nil, del, cutoff.UnixMilli())
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return 0, err
		}
		return 0, domain.ErrOperationFailed
	}
	return tag.RowsAffected(), nil
}
