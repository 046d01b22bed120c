package model

import (
	"time"

	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/domain"
)

type AgentJobStatus string

const (
	AgentJobStatusQueued    AgentJobStatus = "queued"
	AgentJobStatusRunning   AgentJobStatus = "running"
	AgentJobStatusCompleted AgentJobStatus = "completed"
	AgentJobStatusFailed    AgentJobStatus = "failed"
)

// AgentInput is the caller-supplied request for one orchestration run.
type AgentInput struct {
	Prompt string `json:"prompt"`
	Tone   string `json:"tone,omitempty"`
	Length string `json:"length,omitempty"` // short | medium | long
}

// AgentJob is one orchestration run owned by a single wallet. A job is only
// ever mutated by the run (or worker) that owns it.
type AgentJob struct {
	ID        string
	Wallet    string
	AgentType string
	Status    AgentJobStatus
	Input     AgentInput
	Async     bool
	ResultID  string
	Tokens    int
	USDCost   float64
	LastError string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewAgentJob(id, wallet, agentType string, input AgentInput, async bool) *AgentJob {
	now := time.Now()
	status := AgentJobStatusRunning
	if async {
		status = AgentJobStatusQueued
	}
	return &AgentJob{
		ID:        id,
		Wallet:    wallet,
		AgentType: agentType,
		Status:    status,
		Input:     input,
		Async:     async,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// legalTransitions is the full job lifecycle. queued→running happens when a
// worker claims the job; running jobs end terminal exactly once.
var legalTransitions = map[AgentJobStatus][]AgentJobStatus{
	AgentJobStatusQueued:  {AgentJobStatusRunning},
	AgentJobStatusRunning: {AgentJobStatusCompleted, AgentJobStatusFailed},
}

// TransitionTo is the single authorized way to change a job's status.
func (j *AgentJob) TransitionTo(next AgentJobStatus) error {
	for _, s := range legalTransitions[j.Status] {
		if s == next {
			j.Status = next
			j.UpdatedAt = time.Now()
			return nil
		}
	}
	return domain.ErrIllegalTransition
}

// Complete marks the job terminal-successful and links its result.
func (j *AgentJob) Complete(resultID string, tokens int, usdCost float64) error {
	if err := j.TransitionTo(AgentJobStatusCompleted); err != nil {
		return err
	}
	j.ResultID = resultID
	j.Tokens = tokens
	j.USDCost = usdCost
	return nil
}

// Fail marks the job terminal-failed with a short error summary.
func (j *AgentJob) Fail(summary string) error {
	if err := j.TransitionTo(AgentJobStatusFailed); err != nil {
		return err
	}
	j.LastError = summary
	return nil
}

func (j *AgentJob) Terminal() bool {
	return j.Status == AgentJobStatusCompleted || j.Status == AgentJobStatusFailed
}
