package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/domain"
	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/domain/ports/repository"
	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/infra/logging"
	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/usecase"
)

// AgentJobProcessor drains queued agent jobs. Claiming goes through
// FetchAndMarkRunning (FOR UPDATE SKIP LOCKED), so several replicas can poll
// the same table without double-running a job.
type AgentJobProcessor struct {
	jobs         repository.AgentJobRepository
	agents       usecase.AgentUseCase
	pollInterval time.Duration
	log          *zerolog.Logger
}

func NewAgentJobProcessor(
	jobs repository.AgentJobRepository,
	agents usecase.AgentUseCase,
	pollInterval time.Duration,
	logger *zerolog.Logger,
) *AgentJobProcessor {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	return &AgentJobProcessor{jobs: jobs, agents: agents, pollInterval: pollInterval, log: logger}
}

// Start polls for queued jobs and hands each claim to the pool. Run in a
// goroutine; returns when ctx is cancelled.
func (p *AgentJobProcessor) Start(ctx context.Context, pool *Pool) {
	p.log.Info().Dur("poll_interval", p.pollInterval).Msg("agent job processor started")
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info().Msg("agent job processor stopping")
			return
		case <-ticker.C:
			_ = pool.Submit(func(ctx context.Context) error {
				p.processOne(ctx)
				return nil
			})
		}
	}
}

func (p *AgentJobProcessor) processOne(ctx context.Context) {
	job, err := p.jobs.FetchAndMarkRunning(ctx)
	if err != nil {
		if err != domain.ErrNotFound {
			p.log.Error().Err(err).Msg("failed to claim agent job")
		}
		return
	}

	ctx = logging.WithJobID(logging.WithWallet(ctx, job.Wallet), job.ID)
	log := logging.With(ctx, p.log)
	log.Info().Str("agent_type", job.AgentType).Msg("processing agent job")

	start := time.Now()
	// Execute finishes the job itself (result + terminal status in one tx),
	// so there is nothing to persist here on either path.
	if err := p.agents.Execute(ctx, job); err != nil {
		log.Error().Err(err).Dur("duration", time.Since(start)).Msg("agent job failed")
		return
	}
	log.Info().Dur("duration", time.Since(start)).Msg("agent job finished")
}
