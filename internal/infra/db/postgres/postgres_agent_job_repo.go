package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/domain"
	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/domain/model"
	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/domain/ports/repository"
)

var _ repository.AgentJobRepository = (*agentJobRepo)(nil)

type agentJobRepo struct {
	pool *pgxpool.Pool
	tm   repository.TransactionManager
}

func NewAgentJobRepo(pool *pgxpool.Pool, tm repository.TransactionManager) *agentJobRepo {
	return &agentJobRepo{pool: pool, tm: tm}
}

func (r *agentJobRepo) Save(ctx context.Context, tx repository.Tx, job *model.AgentJob) error {
	job.UpdatedAt = time.Now()

	inputJSON, err := json.Marshal(job.Input)
	if err != nil {
		return domain.ErrInvalidArgument
	}

	const q = `
INSERT INTO agent_jobs (id, wallet, agent_type, status, input, async, result_id, tokens, usd_cost, last_error, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7,''), $8, $9, $10, $11, $12)
ON CONFLICT (id) DO UPDATE SET
  status = EXCLUDED.status,
  result_id = EXCLUDED.result_id,
  tokens = EXCLUDED.tokens,
  usd_cost = EXCLUDED.usd_cost,
  last_error = EXCLUDED.last_error,
  updated_at = EXCLUDED.updated_at;`

	_, err = execSQL(ctx, r.pool, tx, q,
		job.ID, job.Wallet, job.AgentType, job.Status, inputJSON, job.Async,
		job.ResultID, job.Tokens, job.USDCost, job.LastError, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *agentJobRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.AgentJob, error) {
	const q = `
SELECT id, wallet, agent_type, status, input, async, COALESCE(result_id,''), tokens, usd_cost, last_error, created_at, updated_at
FROM agent_jobs WHERE id=$1;`

	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanJob(row)
}

// FetchAndMarkRunning atomically claims the oldest queued job and moves it to
// 'running' so no other worker picks it up.
func (r *agentJobRepo) FetchAndMarkRunning(ctx context.Context) (*model.AgentJob, error) {
	var job *model.AgentJob

	err := r.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		const fetchQuery = `
SELECT id, wallet, agent_type, status, input, async, COALESCE(result_id,''), tokens, usd_cost, last_error, created_at, updated_at
FROM agent_jobs
WHERE status = 'queued'
ORDER BY created_at
LIMIT 1
FOR UPDATE SKIP LOCKED;`

		row, err := pickRow(ctx, r.pool, tx, fetchQuery)
		if err != nil {
			return err
		}

		claimed, err := scanJob(row)
		if err != nil {
			return err
		}

		if err := claimed.TransitionTo(model.AgentJobStatusRunning); err != nil {
			return err
		}
		if err := r.Save(ctx, tx, claimed); err != nil {
			return err
		}

		job = claimed
		return nil
	})

	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrNotFound
	}
	return job, err
}

func scanJob(row pgx.Row) (*model.AgentJob, error) {
	var j model.AgentJob
	var statusStr string
	var inputJSON []byte
	err := row.Scan(
		&j.ID, &j.Wallet, &j.AgentType, &statusStr, &inputJSON, &j.Async,
		&j.ResultID, &j.Tokens, &j.USDCost, &j.LastError, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	j.Status = model.AgentJobStatus(statusStr)
	if len(inputJSON) > 0 {
		if err := json.Unmarshal(inputJSON, &j.Input); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
	}
	return &j, nil
}
