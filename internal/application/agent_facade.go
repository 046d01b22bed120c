package application

import (
	"context"

	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/domain"
	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/domain/model"
	portquota "github.com/Moeabdelaziz007/amrikyy-content-agent/internal/domain/ports/quota"
	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/usecase"
)

// AgentFacade composes the quota enforcer and the orchestrator into the one
// entrypoint the transport layer calls: check-and-consume first, run second.
// Handlers stay backend-agnostic about which quota store is deployed.
type AgentFacade struct {
	quota  portquota.Enforcer
	agents usecase.AgentUseCase
	policy model.QuotaPolicy
}

func NewAgentFacade(quota portquota.Enforcer, agents usecase.AgentUseCase, policy model.QuotaPolicy) *AgentFacade {
	return &AgentFacade{quota: quota, agents: agents, policy: policy.Normalize()}
}

// RunAgent enforces the wallet's quota and, when a slot is granted, runs the
// pipeline. The decision is returned in all cases so callers can surface
// limit/remaining/reset metadata. Quota backend outages deny (fail closed).
func (f *AgentFacade) RunAgent(ctx context.Context, wallet, pipelineName string, input model.AgentInput, async bool) (*usecase.RunOutput, model.QuotaDecision, error) {
	if wallet == "" {
		return nil, model.QuotaDecision{}, domain.ErrUnauthorized
	}

	decision, err := f.quota.CheckAndConsume(ctx, wallet, f.policy)
	if err != nil {
		return nil, decision, domain.ErrQuotaUnavailable
	}
	if !decision.Allowed {
		return nil, decision, domain.ErrQuotaExceeded
	}

	out, err := f.agents.Run(ctx, wallet, pipelineName, input, async)
	return out, decision, err
}

func (f *AgentFacade) GetJob(ctx context.Context, wallet, jobID string) (*model.AgentJob, error) {
	return f.agents.GetJob(ctx, wallet, jobID)
}

func (f *AgentFacade) GetResult(ctx context.Context, wallet, jobID string) (*model.AgentResult, error) {
	return f.agents.GetResult(ctx, wallet, jobID)
}
