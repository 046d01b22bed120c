package web

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/domain/model"
	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/usecase"
)

func newNopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

type fakeEnforcer struct {
	decision model.QuotaDecision
	err      error
}

func (f *fakeEnforcer) CheckAndConsume(ctx context.Context, wallet string, policy model.QuotaPolicy) (model.QuotaDecision, error) {
	return f.decision, f.err
}

// fakeAgents serves canned use-case responses to the handlers.
type fakeAgents struct {
	out    *usecase.RunOutput
	runErr error

	job    *model.AgentJob
	jobErr error

	result    *model.AgentResult
	resultErr error

	lastWallet   string
	lastPipeline string
	lastAsync    bool
}

func (f *fakeAgents) Run(ctx context.Context, wallet, pipelineName string, input model.AgentInput, async bool) (*usecase.RunOutput, error) {
	f.lastWallet = wallet
	f.lastPipeline = pipelineName
	f.lastAsync = async
	return f.out, f.runErr
}

func (f *fakeAgents) Execute(ctx context.Context, job *model.AgentJob) error { return nil }

func (f *fakeAgents) GetJob(ctx context.Context, wallet, jobID string) (*model.AgentJob, error) {
	return f.job, f.jobErr
}

func (f *fakeAgents) GetResult(ctx context.Context, wallet, jobID string) (*model.AgentResult, error) {
	return f.result, f.resultErr
}
