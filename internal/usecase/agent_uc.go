// File: internal/usecase/agent_uc.go
package usecase

import (
	"context"
	"crypto/rand"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/domain"
	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/domain/model"
	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/domain/ports/adapter"
	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/domain/ports/repository"
	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/infra/logging"
	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/infra/metrics"
)

// Compile-time check
var _ AgentUseCase = (*agentUC)(nil)

const (
	maxPromptLen = 4000

	// Upper bound on the locally estimated prompt tokens for a run. The byte
	// cap above catches pathological input cheaply; this catches dense prompts
	// that would still blow the per-stage completion budget.
	maxPromptTokens = 1500

	// Flat estimate; usage-metadata totals times this give the job's usd_cost.
	pricePerTokenUSD = 0.000002
)

// RunOutput is what the request handler returns to the caller.
type RunOutput struct {
	JobID  string
	Status model.AgentJobStatus
	Result *model.AgentResult // nil for async submissions
}

type AgentUseCase interface {
	// Run validates input, persists the job, and either executes the pipeline
	// synchronously or leaves the job queued for a worker.
	Run(ctx context.Context, wallet, pipelineName string, input model.AgentInput, async bool) (*RunOutput, error)

	// Execute runs the pipeline for a job already claimed (status running)
	// and finishes it. Used by the async worker.
	Execute(ctx context.Context, job *model.AgentJob) error

	GetJob(ctx context.Context, wallet, jobID string) (*model.AgentJob, error)
	GetResult(ctx context.Context, wallet, jobID string) (*model.AgentResult, error)
}

type agentUC struct {
	jobs      repository.AgentJobRepository
	results   repository.AgentResultRepository
	tm        repository.TransactionManager
	ai        adapter.AIServiceAdapter
	pipelines map[string]model.Pipeline
	provider  string // metrics label, e.g. "openai"
	modelName string
	log       *zerolog.Logger
	newID     func() string
}

func NewAgentUseCase(
	jobs repository.AgentJobRepository,
	results repository.AgentResultRepository,
	tm repository.TransactionManager,
	ai adapter.AIServiceAdapter,
	pipelines map[string]model.Pipeline,
	provider, modelName string,
	log *zerolog.Logger,
) *agentUC {
	if pipelines == nil {
		pipelines = BuiltinPipelines()
	}
	return &agentUC{
		jobs:      jobs,
		results:   results,
		tm:        tm,
		ai:        ai,
		pipelines: pipelines,
		provider:  provider,
		modelName: modelName,
		log:       log,
		newID:     func() string { return ulid.MustNew(ulid.Now(), rand.Reader).String() },
	}
}

func (u *agentUC) Run(ctx context.Context, wallet, pipelineName string, input model.AgentInput, async bool) (*RunOutput, error) {
	defer logging.TraceDuration(u.log, "AgentUC.Run")()

	if strings.TrimSpace(wallet) == "" {
		return nil, domain.ErrUnauthorized
	}
	input.Prompt = strings.TrimSpace(input.Prompt)
	if input.Prompt == "" {
		return nil, domain.ErrInvalidArgument
	}
	if len(input.Prompt) > maxPromptLen {
		return nil, domain.ErrPromptTooLong
	}
	if pipelineName == "" {
		pipelineName = PipelineContent
	}
	pl, ok := u.pipelines[pipelineName]
	if !ok {
		return nil, domain.ErrInvalidArgument
	}
	// A missing credential must surface before any billing-related persistence.
	if u.ai == nil {
		return nil, domain.ErrMissingCredential
	}

	// Pre-check tokens before anything is persisted or billed. The estimate is
	// best effort (exact counts come back in usage after each call), so a
	// failed count skips the check rather than failing the run.
	est, err := u.ai.CountTokens(ctx, u.modelName, []adapter.Message{{Role: "user", Content: input.Prompt}})
	if err != nil {
		u.log.Debug().Err(err).Msg("prompt token estimate unavailable")
	} else if est > maxPromptTokens {
		return nil, domain.ErrPromptTooLong
	}

	job := model.NewAgentJob(u.newID(), strings.ToLower(wallet), pipelineName, input, async)
	if err := u.jobs.Save(ctx, nil, job); err != nil {
		return nil, err
	}

	log := logging.With(logging.WithJobID(ctx, job.ID), u.log)

	if async {
		log.Info().Str("pipeline", pl.Name).Msg("agent job queued")
		return &RunOutput{JobID: job.ID, Status: model.AgentJobStatusQueued}, nil
	}

	result, err := u.execute(ctx, job, pl)
	if err != nil {
		return nil, err
	}
	return &RunOutput{JobID: job.ID, Status: job.Status, Result: result}, nil
}

func (u *agentUC) Execute(ctx context.Context, job *model.AgentJob) error {
	pl, ok := u.pipelines[job.AgentType]
	if !ok {
		u.failJob(ctx, job, "unknown pipeline "+job.AgentType)
		return domain.ErrInvalidArgument
	}
	_, err := u.execute(ctx, job, pl)
	return err
}

// execute runs all stages and finishes the job exactly once: a single
// transaction writes the immutable result and the completed job together, so
// a failed run never leaves a partial result behind.
func (u *agentUC) execute(ctx context.Context, job *model.AgentJob, pl model.Pipeline) (*model.AgentResult, error) {
	log := logging.With(logging.WithJobID(ctx, job.ID), u.log)
	start := time.Now()

	output, tokens, err := u.runStages(ctx, job.Input, pl)
	if err != nil {
		log.Error().Err(err).Str("pipeline", pl.Name).Msg("agent pipeline failed")
		metrics.IncAgentJob(pl.Name, string(model.AgentJobStatusFailed))
		u.failJob(ctx, job, err.Error())
		return nil, domain.ErrStageFailed
	}

	result := model.NewAgentResult(u.newID(), job.ID, job.Wallet, u.modelName, output)
	usdCost := float64(tokens) * pricePerTokenUSD

	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := u.results.Save(ctx, tx, result); err != nil {
			return err
		}
		if err := job.Complete(result.ID, tokens, usdCost); err != nil {
			return err
		}
		return u.jobs.Save(ctx, tx, job)
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to persist agent result")
		metrics.IncAgentJob(pl.Name, string(model.AgentJobStatusFailed))
		u.failJob(ctx, job, "persistence failure")
		return nil, err
	}

	metrics.IncAgentJob(pl.Name, string(model.AgentJobStatusCompleted))
	log.Info().
		Str("pipeline", pl.Name).
		Int("tokens", tokens).
		Dur("duration", time.Since(start)).
		Msg("agent job completed")
	return result, nil
}

// failJob records the terminal failed state. Best effort: the job row must
// not stay "running" even when the caller already has an error in hand.
func (u *agentUC) failJob(ctx context.Context, job *model.AgentJob, summary string) {
	if err := job.Fail(summary); err != nil {
		return // already terminal
	}
	// Detached context: the request may already be cancelled.
	if err := u.jobs.Save(context.WithoutCancel(ctx), nil, job); err != nil {
		u.log.Error().Err(err).Str("job_id", job.ID).Msg("could not mark job failed")
	}
}

func (u *agentUC) GetJob(ctx context.Context, wallet, jobID string) (*model.AgentJob, error) {
	job, err := u.jobs.FindByID(ctx, nil, jobID)
	if err != nil {
		return nil, err
	}
	// Jobs are private to their owner; a foreign id behaves like a missing one.
	if job.Wallet != strings.ToLower(wallet) {
		return nil, domain.ErrNotFound
	}
	return job, nil
}

func (u *agentUC) GetResult(ctx context.Context, wallet, jobID string) (*model.AgentResult, error) {
	if _, err := u.GetJob(ctx, wallet, jobID); err != nil {
		return nil, err
	}
	return u.results.FindByJobID(ctx, nil, jobID)
}
