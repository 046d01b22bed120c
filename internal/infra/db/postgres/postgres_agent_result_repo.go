package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/domain"
	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/domain/model"
	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/domain/ports/repository"
)

var _ repository.AgentResultRepository = (*agentResultRepo)(nil)

type agentResultRepo struct {
	pool *pgxpool.Pool
}

func NewAgentResultRepo(pool *pgxpool.Pool) *agentResultRepo {
	return &agentResultRepo{pool: pool}
}

func (r *agentResultRepo) Save(ctx context.Context, tx repository.Tx, result *model.AgentResult) error {
	outputJSON, err := json.Marshal(result.Output)
	if err != nil {
		return domain.ErrInvalidArgument
	}

	// Plain INSERT: results are immutable, a second write for the same id is a bug.
	const q = `
INSERT INTO agent_results (id, job_id, wallet, output, model, created_at)
VALUES ($1, $2, $3, $4, $5, $6);`

	_, err = execSQL(ctx, r.pool, tx, q,
		result.ID, result.JobID, result.Wallet, outputJSON, result.Model, result.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *agentResultRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.AgentResult, error) {
	const q = `SELECT id, job_id, wallet, output, model, created_at FROM agent_results WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanResult(row)
}

func (r *agentResultRepo) FindByJobID(ctx context.Context, tx repository.Tx, jobID string) (*model.AgentResult, error) {
	const q = `SELECT id, job_id, wallet, output, model, created_at FROM agent_results WHERE job_id=$1 LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, jobID)
	if err != nil {
		return nil, err
	}
	return scanResult(row)
}

func scanResult(row pgx.Row) (*model.AgentResult, error) {
	var res model.AgentResult
	var outputJSON []byte
	if err := row.Scan(&res.ID, &res.JobID, &res.Wallet, &outputJSON, &res.Model, &res.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	if len(outputJSON) > 0 {
		if err := json.Unmarshal(outputJSON, &res.Output); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
	}
	return &res, nil
}
